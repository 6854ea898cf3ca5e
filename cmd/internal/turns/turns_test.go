package turns

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

func conversation() []transcript.Segment {
	return []transcript.Segment{
		{Text: "Hello there", StartMs: 0, EndMs: 900, Speaker: "spk0"},
		{Text: "how are you", StartMs: 2500, EndMs: 3400, Speaker: "spk0"},
		{Text: "Fine thanks", StartMs: 3600, EndMs: 4500, Speaker: "spk1"},
		{Text: "Great", StartMs: 4700, EndMs: 5200, Speaker: "spk0"},
	}
}

func TestBuildTurns_ClosesOnSpeakerChangeOnly(t *testing.T) {
	result := BuildTurns(conversation(), nil)

	require.Len(t, result, 3)
	// 1.6s of silence inside spk0's stretch does not split the turn
	assert.Equal(t, "Hello there how are you", result[0].Text)
	assert.Equal(t, "spk0", result[0].Speaker)
	assert.Equal(t, "spk1", result[1].Speaker)
	assert.Equal(t, "spk0", result[2].Speaker)

	for i, turn := range result {
		assert.Equal(t, i, turn.StartPosition)
		assert.Equal(t, i, turn.EndPosition)
	}
}

func TestBuildTurns_AppliesSpeakerMapping(t *testing.T) {
	mapping := map[string]string{"spk1": "spk0"}

	result := BuildTurns(conversation(), mapping)

	require.Len(t, result, 1)
	assert.Equal(t, "spk0", result[0].Speaker)
	assert.Equal(t, "Hello there how are you Fine thanks Great", result[0].Text)
}

func TestBuildTurns_TextReconstructsCleanedStream(t *testing.T) {
	segments := conversation()

	result := BuildTurns(segments, nil)

	var joined []string
	for _, turn := range result {
		joined = append(joined, turn.Text)
	}
	assert.Equal(t, transcript.JoinText(segments), strings.Join(joined, " "))
}

func TestBuildTurns_Empty(t *testing.T) {
	assert.Nil(t, BuildTurns(nil, nil))
}

func TestBuildTurns_CyclicMappingTerminates(t *testing.T) {
	segments := []transcript.Segment{
		{Text: "one", StartMs: 0, EndMs: 500, Speaker: "spk_a"},
		{Text: "two", StartMs: 600, EndMs: 1100, Speaker: "spk_b"},
	}
	mapping := map[string]string{"spk_a": "spk_b", "spk_b": "spk_a"}

	result := BuildTurns(segments, mapping)

	require.Len(t, result, 2)
	assert.NotEqual(t, result[0].Speaker, result[1].Speaker)
}

type fakeConcat struct {
	clips []string
	out   string
	err   error
}

func (f *fakeConcat) Concat(_ context.Context, clipPaths []string, outPath string) error {
	f.clips = clipPaths
	f.out = outPath
	return f.err
}

func TestConcatenateTurnsInOrder_RegeneratesTimeline(t *testing.T) {
	// Completion order is reversed; original order must win. Original turn
	// durations 1200/900ms were synthesized to 1400/1100ms.
	translations := []TranslatedTurn{
		{
			Turn:           TurnOfSpeech{Speaker: "spk1", StartPosition: 1, EndPosition: 1},
			TargetLanguage: "de",
			Text:           "Mir geht es gut",
			AudioPath:      "/tmp/turn1.wav",
			DurationMs:     1100,
			VoiceCloned:    true,
			Quality:        0.8,
		},
		{
			Turn:           TurnOfSpeech{Speaker: "spk0", StartPosition: 0, EndPosition: 0},
			TargetLanguage: "de",
			Text:           "Wie geht es dir",
			AudioPath:      "/tmp/turn0.wav",
			DurationMs:     1400,
			VoiceCloned:    true,
			Quality:        0.6,
		},
	}
	concat := &fakeConcat{}

	version, err := ConcatenateTurnsInOrder(context.Background(), translations, "de", "msg-1", "att-1", "/tmp/out.wav", concat)

	require.NoError(t, err)
	assert.Equal(t, int64(2500), version.DurationMs)
	require.Len(t, version.Segments, 2)
	assert.Equal(t, int64(0), version.Segments[0].StartMs)
	assert.Equal(t, int64(1400), version.Segments[0].EndMs)
	assert.Equal(t, int64(1400), version.Segments[1].StartMs)
	assert.Equal(t, int64(2500), version.Segments[1].EndMs)
	assert.Equal(t, "spk0", version.Segments[0].SpeakerID)
	assert.Equal(t, "Wie geht es dir Mir geht es gut", version.Text)
	assert.InDelta(t, 0.7, version.VoiceQuality, 1e-9)
	assert.True(t, version.VoiceCloned)
	assert.Equal(t, []string{"/tmp/turn0.wav", "/tmp/turn1.wav"}, concat.clips)
}

func TestConcatenateTurnsInOrder_GapFreeInvariant(t *testing.T) {
	translations := []TranslatedTurn{
		{Turn: TurnOfSpeech{StartPosition: 2}, DurationMs: 700, VoiceCloned: true},
		{Turn: TurnOfSpeech{StartPosition: 0}, DurationMs: 300, VoiceCloned: true},
		{Turn: TurnOfSpeech{StartPosition: 1}, DurationMs: 500, VoiceCloned: false},
	}

	version, err := ConcatenateTurnsInOrder(context.Background(), translations, "fr", "m", "a", "/tmp/out.wav", nil)

	require.NoError(t, err)
	var total int64
	for i, seg := range version.Segments {
		if i > 0 {
			assert.Equal(t, version.Segments[i-1].EndMs, seg.StartMs, "segments must be gap-free")
		}
		assert.GreaterOrEqual(t, seg.EndMs, seg.StartMs)
		total = seg.EndMs
	}
	assert.Equal(t, version.DurationMs, total)
	assert.False(t, version.VoiceCloned, "one generic-voice turn degrades the whole track flag")
}

func TestConcatenateTurnsInOrder_NoTurns(t *testing.T) {
	_, err := ConcatenateTurnsInOrder(context.Background(), nil, "fr", "m", "a", "/tmp/out.wav", nil)
	assert.Error(t, err)
}
