package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/cmd/internal/speaker"
	"github.com/voxlate/voxlate/cmd/internal/turns"
)

// FakeTranslator is a test double recording calls and replaying presets.
type FakeTranslator struct {
	TextToReturn  string
	ErrorToReturn error
	Calls         []string
}

func (f *FakeTranslator) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	f.Calls = append(f.Calls, targetLang+":"+text)
	return f.TextToReturn, f.ErrorToReturn
}

func (f *FakeTranslator) HealthCheck(context.Context) (bool, error) { return true, nil }
func (f *FakeTranslator) Name() string                              { return "fake-translator" }

// FakeSynthesizer fails cloned calls on demand to exercise the generic-voice
// fallback.
type FakeSynthesizer struct {
	ClonedError  error
	GenericError error
	Result       SynthesisResult
	ClonedCalls  int
	GenericCalls int
}

func (f *FakeSynthesizer) Synthesize(_ context.Context, _, _ string, voice *speaker.VoiceProfile) (*SynthesisResult, error) {
	if voice != nil {
		f.ClonedCalls++
		if f.ClonedError != nil {
			return nil, f.ClonedError
		}
	} else {
		f.GenericCalls++
		if f.GenericError != nil {
			return nil, f.GenericError
		}
	}
	result := f.Result
	return &result, nil
}

func (f *FakeSynthesizer) HealthCheck(context.Context) (bool, error) { return true, nil }
func (f *FakeSynthesizer) Name() string                              { return "fake-synthesizer" }

func profileStoreWith(t *testing.T, speakerID string) *speaker.ProfileStore {
	t.Helper()
	store := speaker.NewProfileStore(4)
	_, err := store.GetOrCreate(speakerID, "/tmp/exemplar.wav")
	require.NoError(t, err)
	return store
}

func TestTranslateTurn_ClonedVoice(t *testing.T) {
	translator := &FakeTranslator{TextToReturn: "Hallo zusammen"}
	synth := &FakeSynthesizer{Result: SynthesisResult{AudioPath: "/tmp/clip.wav", DurationMs: 1800, Quality: 0.9}}
	tt := NewTurnTranslator(translator, synth, profileStoreWith(t, "spk0"), nil)

	turn := turns.TurnOfSpeech{Speaker: "spk0", Text: "Hello everyone", StartPosition: 0}
	result, err := tt.TranslateTurn(context.Background(), turn, "en", "de")

	require.NoError(t, err)
	assert.Equal(t, "Hallo zusammen", result.Text)
	assert.Equal(t, int64(1800), result.DurationMs)
	assert.True(t, result.VoiceCloned)
	assert.Equal(t, 1, synth.ClonedCalls)
	assert.Equal(t, 0, synth.GenericCalls)
}

func TestTranslateTurn_TranslationFailureAbortsPair(t *testing.T) {
	translator := &FakeTranslator{ErrorToReturn: errors.New("mt backend down")}
	synth := &FakeSynthesizer{}
	tt := NewTurnTranslator(translator, synth, nil, nil)

	_, err := tt.TranslateTurn(context.Background(), turns.TurnOfSpeech{Text: "hi"}, "en", "fr")

	require.Error(t, err)
	assert.Equal(t, 0, synth.ClonedCalls+synth.GenericCalls, "synthesis must not run after a failed translation")
}

func TestTranslateTurn_SynthesisFallsBackToGenericVoice(t *testing.T) {
	translator := &FakeTranslator{TextToReturn: "Bonjour"}
	synth := &FakeSynthesizer{
		ClonedError: errors.New("voice model unavailable"),
		Result:      SynthesisResult{AudioPath: "/tmp/generic.wav", DurationMs: 700, Quality: 0.4},
	}
	tt := NewTurnTranslator(translator, synth, profileStoreWith(t, "spk0"), nil)

	result, err := tt.TranslateTurn(context.Background(), turns.TurnOfSpeech{Speaker: "spk0", Text: "Hello"}, "en", "fr")

	require.NoError(t, err)
	assert.False(t, result.VoiceCloned, "fallback result must be flagged as not cloned")
	assert.Equal(t, "/tmp/generic.wav", result.AudioPath)
	assert.Equal(t, 1, synth.ClonedCalls)
	assert.Equal(t, 1, synth.GenericCalls)
}

func TestTranslateTurn_NoProfileUsesGenericVoice(t *testing.T) {
	translator := &FakeTranslator{TextToReturn: "Hola"}
	synth := &FakeSynthesizer{Result: SynthesisResult{AudioPath: "/tmp/g.wav", DurationMs: 500}}
	tt := NewTurnTranslator(translator, synth, speaker.NewProfileStore(4), nil)

	result, err := tt.TranslateTurn(context.Background(), turns.TurnOfSpeech{Speaker: "spk7", Text: "Hi"}, "en", "es")

	require.NoError(t, err)
	assert.False(t, result.VoiceCloned)
	assert.Equal(t, 0, synth.ClonedCalls)
	assert.Equal(t, 1, synth.GenericCalls)
}

func TestNormalizeLanguage(t *testing.T) {
	lang, err := NormalizeLanguage("pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "pt", lang)

	_, err = NormalizeLanguage("not a language tag")
	assert.Error(t, err)
}
