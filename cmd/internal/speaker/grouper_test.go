package speaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

func TestGroupBySpeaker(t *testing.T) {
	segments := []transcript.Segment{
		{Text: "a", StartMs: 0, EndMs: 1000, Speaker: "spk0"},
		{Text: "b", StartMs: 1200, EndMs: 1500, Speaker: "spk1"},
		{Text: "c", StartMs: 1600, EndMs: 4000, Speaker: "spk0"},
	}

	groups := GroupBySpeaker(segments)

	require.Len(t, groups, 2)
	assert.Equal(t, int64(3400), groups["spk0"].TotalDurationMs)
	assert.Equal(t, int64(300), groups["spk1"].TotalDurationMs)
	assert.Len(t, groups["spk0"].Segments, 2)
}

func TestLongestSegment(t *testing.T) {
	groups := GroupBySpeaker([]transcript.Segment{
		{Text: "short", StartMs: 0, EndMs: 400, Speaker: "spk0"},
		{Text: "long", StartMs: 500, EndMs: 3000, Speaker: "spk0"},
	})

	exemplar, ok := LongestSegment(groups["spk0"])

	require.True(t, ok)
	assert.Equal(t, "long", exemplar.Text)

	_, ok = LongestSegment(nil)
	assert.False(t, ok)
}

func TestSortedIDs(t *testing.T) {
	groups := GroupBySpeaker([]transcript.Segment{
		{StartMs: 0, EndMs: 100, Speaker: "b"},
		{StartMs: 200, EndMs: 900, Speaker: "a"},
		{StartMs: 1000, EndMs: 1100, Speaker: "c"},
	})

	ids := SortedIDs(groups)

	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestProfileStore_GetOrCreate(t *testing.T) {
	store := NewProfileStore(8)

	p1, err := store.GetOrCreate("spk0", "/tmp/exemplar0.wav")
	require.NoError(t, err)
	assert.NotEmpty(t, p1.ID)

	p2, err := store.GetOrCreate("spk0", "/tmp/other.wav")
	require.NoError(t, err)
	assert.Same(t, p1, p2, "existing profile should be reused")

	_, err = store.GetOrCreate("spk9", "")
	assert.Error(t, err, "missing reference sample must not create a profile")
}

func TestProfileStore_EvictsOldestAtCapacity(t *testing.T) {
	store := NewProfileStore(2)

	_, err := store.GetOrCreate("spk0", "/tmp/a.wav")
	require.NoError(t, err)
	_, err = store.GetOrCreate("spk1", "/tmp/b.wav")
	require.NoError(t, err)
	_, err = store.GetOrCreate("spk2", "/tmp/c.wav")
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	_, ok := store.Lookup("spk0")
	assert.False(t, ok)
	_, ok = store.Lookup("spk2")
	assert.True(t, ok)
}
