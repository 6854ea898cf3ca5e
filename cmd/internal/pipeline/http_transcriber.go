package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// HTTPTranscriber implements Transcriber against a speech service exposing a
// multipart transcription endpoint with optional diarization. It is the
// primary backend in production; the degradation controller swaps in the mock
// when its health checks fail.
type HTTPTranscriber struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPTranscriber creates a transcriber for the service at apiURL (e.g.
// "http://speech:8082"). The client timeout is generous because transcription
// of a long voice message takes roughly its own duration.
func NewHTTPTranscriber(apiURL string) *HTTPTranscriber {
	return &HTTPTranscriber{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Transcribe posts the audio file as multipart/form-data to
// POST {apiURL}/api/v1/transcribe and decodes the JSON result.
func (h *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}

	model := "base"
	if options != nil && options.Model != "" {
		model = options.Model
	}
	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}

	if options != nil && options.Language != "" {
		if err := writer.WriteField("language", options.Language); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	diarize := options == nil || options.Diarize
	if err := writer.WriteField("diarize", strconv.FormatBool(diarize)); err != nil {
		return nil, fmt.Errorf("failed to write diarize field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/transcribe", h.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result TranscriptionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &result, nil
}

// HealthCheck probes GET {apiURL}/health and treats only 200 as healthy.
func (h *HTTPTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf("%s/health", h.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name returns the identifier used in logs and the degradation controller.
func (h *HTTPTranscriber) Name() string {
	return "http-speech"
}
