package translate

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
	"time"

	"github.com/voxlate/voxlate/cmd/internal/speaker"
)

// HTTPTranslator calls a machine-translation service over its JSON REST API.
type HTTPTranslator struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPTranslator creates a translator client for the given base URL.
// Translation of a long turn rarely exceeds a few seconds; the timeout is
// generous to cover model cold starts.
func NewHTTPTranslator(apiURL string, timeout time.Duration) *HTTPTranslator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPTranslator{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate sends POST {apiURL}/api/v1/translate and parses the response.
func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":        text,
		"source_lang": sourceLang,
		"target_lang": targetLang,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/api/v1/translate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("translation API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse translate response: %w", err)
	}
	if parsed.TranslatedText == "" {
		return "", fmt.Errorf("translation API returned empty text for %q", targetLang)
	}
	return parsed.TranslatedText, nil
}

// HealthCheck probes GET {apiURL}/health.
func (t *HTTPTranslator) HealthCheck(ctx context.Context) (bool, error) {
	return probeHealth(ctx, t.httpClient, t.apiURL+"/health")
}

// Name returns the implementation identifier.
func (t *HTTPTranslator) Name() string {
	return "http-translator"
}

// HTTPSynthesizer calls a TTS/voice-cloning service. The voice reference is
// uploaded as a multipart file alongside the text, mirroring how the audio
// services in this stack exchange clips.
type HTTPSynthesizer struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPSynthesizer creates a synthesizer client for the given base URL.
func NewHTTPSynthesizer(apiURL string, timeout time.Duration) *HTTPSynthesizer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPSynthesizer{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize sends POST {apiURL}/api/v1/synthesize as multipart/form-data.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, lang string, voice *speaker.VoiceProfile) (*SynthesisResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("text", text); err != nil {
		return nil, fmt.Errorf("failed to write text field: %w", err)
	}
	if err := writer.WriteField("language", lang); err != nil {
		return nil, fmt.Errorf("failed to write language field: %w", err)
	}

	if voice != nil {
		file, err := os.Open(voice.ReferencePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open voice reference: %w", err)
		}
		defer file.Close()

		part, err := writer.CreateFormFile("voice_reference", filepath.Base(voice.ReferencePath))
		if err != nil {
			return nil, fmt.Errorf("failed to create voice reference part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, fmt.Errorf("failed to copy voice reference: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v1/synthesize", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis API returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result SynthesisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse synthesize response: %w", err)
	}
	if result.AudioPath == "" || result.DurationMs <= 0 {
		return nil, fmt.Errorf("synthesis API returned incomplete result: %+v", result)
	}
	return &result, nil
}

// HealthCheck probes GET {apiURL}/health.
func (s *HTTPSynthesizer) HealthCheck(ctx context.Context) (bool, error) {
	return probeHealth(ctx, s.httpClient, s.apiURL+"/health")
}

// Name returns the implementation identifier.
func (s *HTTPSynthesizer) Name() string {
	return "http-synthesizer"
}

func probeHealth(ctx context.Context, client *http.Client, url string) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
