package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeShortSegments_GluesWordFragments(t *testing.T) {
	segments := []Segment{
		{Text: "com", StartMs: 0, EndMs: 120, Confidence: 0.9},
		{Text: "ment", StartMs: 150, EndMs: 300, Confidence: 0.8},
		{Text: "allez-vous", StartMs: 310, EndMs: 900, Confidence: 0.95},
	}

	merged := MergeShortSegments(segments, DefaultMergeOptions())

	require.Len(t, merged, 2)
	assert.Equal(t, "com ment", merged[0].Text)
	assert.Equal(t, int64(0), merged[0].StartMs)
	assert.Equal(t, int64(300), merged[0].EndMs)
	assert.Equal(t, "allez-vous", merged[1].Text)
}

func TestMergeShortSegments_Idempotent(t *testing.T) {
	segments := []Segment{
		{Text: "so", StartMs: 0, EndMs: 80, Confidence: 0.9},
		{Text: "let's", StartMs: 90, EndMs: 200, Confidence: 0.7},
		{Text: "go", StartMs: 205, EndMs: 280, Confidence: 0.8},
		{Text: "right", StartMs: 500, EndMs: 640, Confidence: 0.6},
		{Text: "now", StartMs: 645, EndMs: 720, Confidence: 0.9},
	}
	opts := DefaultMergeOptions()

	once := MergeShortSegments(segments, opts)
	twice := MergeShortSegments(once, opts)

	assert.Equal(t, once, twice)
}

func TestMergeShortSegments_PreservesTotalDuration(t *testing.T) {
	segments := []Segment{
		{Text: "a", StartMs: 0, EndMs: 50, Confidence: 1},
		{Text: "b", StartMs: 60, EndMs: 110, Confidence: 1},
		{Text: "c", StartMs: 115, EndMs: 400, Confidence: 1},
		{Text: "d", StartMs: 900, EndMs: 1400, Confidence: 1},
	}

	merged := MergeShortSegments(segments, DefaultMergeOptions())

	assert.Equal(t, TotalDurationMs(segments), TotalDurationMs(merged))
}

func TestMergeShortSegments_SpeakerMismatchBlocksMerge(t *testing.T) {
	segments := []Segment{
		{Text: "hi", StartMs: 0, EndMs: 100, Speaker: "spk0", Confidence: 1},
		{Text: "no", StartMs: 110, EndMs: 200, Speaker: "spk1", Confidence: 1},
	}

	merged := MergeShortSegments(segments, DefaultMergeOptions())

	require.Len(t, merged, 2)
	assert.Equal(t, "spk0", merged[0].Speaker)
	assert.Equal(t, "spk1", merged[1].Speaker)
}

func TestMergeShortSegments_UnknownSpeakerJoins(t *testing.T) {
	segments := []Segment{
		{Text: "um", StartMs: 0, EndMs: 100, Speaker: "spk0", Confidence: 1},
		{Text: "hm", StartMs: 105, EndMs: 180, Confidence: 1},
	}

	merged := MergeShortSegments(segments, DefaultMergeOptions())

	require.Len(t, merged, 1)
	assert.Equal(t, "spk0", merged[0].Speaker)
}

func TestMergeShortSegments_WeightedConfidence(t *testing.T) {
	segments := []Segment{
		{Text: "a", StartMs: 0, EndMs: 300, Confidence: 1.0},
		{Text: "b", StartMs: 305, EndMs: 405, Confidence: 0.5},
	}
	opts := MergeOptions{WordMaxPauseMs: 10, WordMaxChars: 1, SegmentMaxPauseMs: 10, SegmentMaxChars: 20}

	merged := MergeShortSegments(segments, opts)

	require.Len(t, merged, 1)
	// (300*1.0 + 100*0.5) / 400
	assert.InDelta(t, 0.875, merged[0].Confidence, 1e-9)
}

func TestMergeShortSegments_ZeroDurationFallsBackToPlainAverage(t *testing.T) {
	segments := []Segment{
		{Text: "a", StartMs: 100, EndMs: 100, Confidence: 1.0},
		{Text: "b", StartMs: 100, EndMs: 100, Confidence: 0.0},
	}
	opts := MergeOptions{WordMaxPauseMs: 10, WordMaxChars: 8, SegmentMaxPauseMs: 10, SegmentMaxChars: 15}

	merged := MergeShortSegments(segments, opts)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.5, merged[0].Confidence, 1e-9)
}

func TestMergeShortSegments_EmptyInput(t *testing.T) {
	assert.Empty(t, MergeShortSegments(nil, DefaultMergeOptions()))
}
