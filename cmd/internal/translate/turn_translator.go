package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voxlate/voxlate/cmd/internal/speaker"
	"github.com/voxlate/voxlate/cmd/internal/turns"
)

// TurnTranslator performs the per-turn translate-then-synthesize step.
//
// Failure semantics: a translation error aborts only the (turn, language)
// pair and surfaces to the caller; a cloned-synthesis error falls back to the
// generic per-language voice so a turn never becomes a silent gap. Only when
// the generic voice also fails does the turn error out.
type TurnTranslator struct {
	translator  Translator
	synthesizer Synthesizer
	profiles    *speaker.ProfileStore
	logger      *slog.Logger
}

// NewTurnTranslator wires the collaborators. profiles may be nil, in which
// case every turn uses the generic voice.
func NewTurnTranslator(translator Translator, synthesizer Synthesizer, profiles *speaker.ProfileStore, logger *slog.Logger) *TurnTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnTranslator{
		translator:  translator,
		synthesizer: synthesizer,
		profiles:    profiles,
		logger:      logger,
	}
}

// TranslateTurn translates one turn's text and synthesizes it in the target
// language, preferring the speaker's cloned voice. The returned turn carries
// the synthesized clip's actual duration; it is never stretched to match the
// original span.
func (tt *TurnTranslator) TranslateTurn(ctx context.Context, turn turns.TurnOfSpeech, sourceLang, targetLang string) (turns.TranslatedTurn, error) {
	translated, err := tt.translator.Translate(ctx, turn.Text, sourceLang, targetLang)
	if err != nil {
		return turns.TranslatedTurn{}, fmt.Errorf("translate turn %d to %s: %w", turn.StartPosition, targetLang, err)
	}

	result, cloned, err := tt.synthesize(ctx, translated, targetLang, turn.Speaker)
	if err != nil {
		return turns.TranslatedTurn{}, fmt.Errorf("synthesize turn %d in %s: %w", turn.StartPosition, targetLang, err)
	}

	return turns.TranslatedTurn{
		Turn:           turn,
		TargetLanguage: targetLang,
		Text:           translated,
		AudioPath:      result.AudioPath,
		DurationMs:     result.DurationMs,
		VoiceCloned:    cloned,
		Quality:        result.Quality,
	}, nil
}

// synthesize tries the cloned voice first and degrades to the generic one.
func (tt *TurnTranslator) synthesize(ctx context.Context, text, lang, speakerID string) (*SynthesisResult, bool, error) {
	var voice *speaker.VoiceProfile
	if tt.profiles != nil && speakerID != "" {
		voice, _ = tt.profiles.Lookup(speakerID)
	}

	if voice != nil {
		result, err := tt.synthesizer.Synthesize(ctx, text, lang, voice)
		if err == nil {
			return result, true, nil
		}
		tt.logger.Warn("cloned synthesis failed, falling back to generic voice",
			"speaker", speakerID, "language", lang, "error", err)
	}

	result, err := tt.synthesizer.Synthesize(ctx, text, lang, nil)
	if err != nil {
		return nil, false, err
	}
	return result, false, nil
}
