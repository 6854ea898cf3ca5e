// Package translate defines the narrow contracts to the external machine
// translation and voice-cloning synthesis services, and drives the per-turn
// translate-then-synthesize step of the pipeline.
package translate

import (
	"context"

	"golang.org/x/text/language"

	"github.com/voxlate/voxlate/cmd/internal/speaker"
)

// Translator converts text between languages. Implementations must respect
// context cancellation and wrap transport errors with context.
type Translator interface {
	// Translate converts text from sourceLang to targetLang (ISO 639-1).
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// HealthCheck verifies the translation service is operational.
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the implementation for logging and monitoring.
	Name() string
}

// SynthesisResult describes one synthesized clip. DurationMs is the clip's
// actual length as reported by the synthesizer, never an estimate derived
// from the source audio.
type SynthesisResult struct {
	AudioPath  string  `json:"audio_path"`
	DurationMs int64   `json:"duration_ms"`
	Quality    float64 `json:"quality"`
}

// Synthesizer turns text into speech. A nil voice profile requests the
// generic per-language voice; a non-nil profile requests cloning from the
// profile's reference audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string, voice *speaker.VoiceProfile) (*SynthesisResult, error)

	HealthCheck(ctx context.Context) (bool, error)

	Name() string
}

// NormalizeLanguage canonicalizes a requested target language to its base
// ISO 639-1 code ("pt-BR" -> "pt"). Unparseable tags return an error before
// any external service is called.
func NormalizeLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return base.String(), nil
}
