package pipeline

import (
	"context"
	"log"
)

// MockTranscriber is the lowest-priority fallback in the degradation chain.
// It returns an empty transcription without blocking, so a message submitted
// while every real backend is down fails with a clear FAILED_TRANSCRIPTION
// instead of hanging or crashing the service.
type MockTranscriber struct{}

// NewMockTranscriber creates the fallback transcriber. It has no state.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe logs a warning and returns an empty result, never an error. The
// orchestrator treats an empty transcript as a fatal transcription failure
// for the message, which is the intended degraded behavior.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	log.Printf("[WARN] MockTranscriber: Transcribe called (degraded mode) for audio file: %s", audioPath)
	log.Printf("[WARN] MockTranscriber: Returning empty transcription result. Speech service is unavailable.")

	return &TranscriptionResult{
		Segments:   []TranscriptionSegment{},
		Language:   "unknown",
		DurationMs: 0,
	}, nil
}

// HealthCheck always reports unhealthy so the controller knows the system is
// running in fallback mode.
func (m *MockTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name identifies the degraded mode in logs and monitoring.
func (m *MockTranscriber) Name() string {
	return "mock-degraded"
}
