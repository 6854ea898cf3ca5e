// Package turns converts the ordered cleaned-segment stream into turns of
// speech, and reassembles translated turns into one time-coherent audio
// track per target language.
package turns

import (
	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

// TurnOfSpeech is a maximal contiguous run of segments attributed to one
// speaker. StartPosition/EndPosition index the turn in the global ordered
// turn sequence; they are the sole ordering key used downstream.
type TurnOfSpeech struct {
	Speaker       string               `json:"speaker"`
	Text          string               `json:"text"`
	Segments      []transcript.Segment `json:"segments"`
	StartPosition int                  `json:"start_position"`
	EndPosition   int                  `json:"end_position"`
}

// DurationMs returns the original span of the turn, first segment start to
// last segment end.
func (t TurnOfSpeech) DurationMs() int64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].EndMs - t.Segments[0].StartMs
}

// BuildTurns applies the final speaker mapping from cleanup to every segment,
// then walks chronologically and closes a turn exactly when the mapped
// speaker changes between consecutive segments. Silence inside one speaker's
// stretch never splits a turn.
func BuildTurns(segments []transcript.Segment, mapping map[string]string) []TurnOfSpeech {
	if len(segments) == 0 {
		return nil
	}

	// resolve follows remap chains; the hop bound keeps a malformed cyclic
	// mapping from looping forever.
	resolve := func(id string) string {
		for hops := 0; hops <= len(mapping); hops++ {
			next, ok := mapping[id]
			if !ok || next == id {
				return id
			}
			id = next
		}
		return id
	}

	var out []TurnOfSpeech
	var current []transcript.Segment
	currentSpeaker := resolve(segments[0].Speaker)

	flush := func() {
		pos := len(out)
		out = append(out, TurnOfSpeech{
			Speaker:       currentSpeaker,
			Text:          transcript.JoinText(current),
			Segments:      current,
			StartPosition: pos,
			EndPosition:   pos,
		})
	}

	for _, s := range segments {
		mapped := resolve(s.Speaker)
		s.Speaker = mapped
		if len(current) > 0 && mapped != currentSpeaker {
			flush()
			current = nil
		}
		currentSpeaker = mapped
		current = append(current, s)
	}
	flush()

	return out
}

// TranslatedTurn carries the per-language translation and synthesis result of
// one turn. DurationMs is the synthesized clip's actual duration, which in
// general differs from the original turn's span and is never stretched to
// match it.
type TranslatedTurn struct {
	Turn           TurnOfSpeech `json:"turn"`
	TargetLanguage string       `json:"target_language"`
	Text           string       `json:"text"`
	AudioPath      string       `json:"audio_path"`
	DurationMs     int64        `json:"duration_ms"`
	VoiceCloned    bool         `json:"voice_cloned"`
	Quality        float64      `json:"quality"`
}
