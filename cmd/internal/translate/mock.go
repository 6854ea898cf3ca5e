package translate

import (
	"context"
	"log"

	"github.com/voxlate/voxlate/cmd/internal/speaker"
)

// MockTranslator is the degraded-mode translator: it passes text through
// unchanged so downstream synthesis can still produce an audible track when
// the translation service is unreachable. It never returns an error.
type MockTranslator struct{}

// NewMockTranslator creates a MockTranslator instance.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the input text unchanged and logs a warning.
func (m *MockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	log.Printf("[WARN] MockTranslator: passing %s text through untranslated (target %s), translation service unavailable", sourceLang, targetLang)
	return text, nil
}

// HealthCheck always reports unhealthy: the mock represents a degraded state.
func (m *MockTranslator) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name returns the degraded-mode identifier.
func (m *MockTranslator) Name() string {
	return "mock-degraded-translator"
}

// MockSynthesizer is the degraded-mode synthesizer. It produces no audio file
// but reports a plausible duration estimated from text length so timeline
// assembly still yields a coherent segment map.
type MockSynthesizer struct{}

// NewMockSynthesizer creates a MockSynthesizer instance.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// estimated speaking rate used for the duration stand-in
const mockMsPerChar = 60

// Synthesize returns an empty audio path with an estimated duration.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, lang string, voice *speaker.VoiceProfile) (*SynthesisResult, error) {
	log.Printf("[WARN] MockSynthesizer: Synthesize called (degraded mode) for language %s, returning silent placeholder", lang)

	duration := int64(len([]rune(text))) * mockMsPerChar
	if duration == 0 {
		duration = mockMsPerChar
	}
	return &SynthesisResult{
		AudioPath:  "",
		DurationMs: duration,
		Quality:    0,
	}, nil
}

// HealthCheck always reports unhealthy.
func (m *MockSynthesizer) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name returns the degraded-mode identifier.
func (m *MockSynthesizer) Name() string {
	return "mock-degraded-synthesizer"
}
