// Package speaker groups cleaned transcript segments by speaker and manages
// the voice profiles used for cloned synthesis.
package speaker

import (
	"sort"

	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

// Data aggregates everything known about one speaker inside a message.
type Data struct {
	ID              string               `json:"id"`
	Segments        []transcript.Segment `json:"segments"`
	TotalDurationMs int64                `json:"total_duration_ms"`
}

// GroupBySpeaker buckets segments by their (resolved) speaker label.
// Unlabelled segments are grouped under the empty id so a single-speaker
// message without diarization still yields one group.
func GroupBySpeaker(segments []transcript.Segment) map[string]*Data {
	groups := make(map[string]*Data)
	for _, s := range segments {
		g, ok := groups[s.Speaker]
		if !ok {
			g = &Data{ID: s.Speaker}
			groups[s.Speaker] = g
		}
		g.Segments = append(g.Segments, s)
		g.TotalDurationMs += s.DurationMs()
	}
	return groups
}

// LongestSegment returns the single longest contiguous segment of a speaker.
// One long clean stretch gives a far more reliable voice embedding than
// averaging many short ones, so it serves as the canonical audio exemplar.
// The second return is false when the speaker owns no segments.
func LongestSegment(d *Data) (transcript.Segment, bool) {
	if d == nil || len(d.Segments) == 0 {
		return transcript.Segment{}, false
	}
	best := d.Segments[0]
	for _, s := range d.Segments[1:] {
		if s.DurationMs() > best.DurationMs() {
			best = s
		}
	}
	return best, true
}

// SortedIDs returns the group keys in deterministic order, longest speaking
// time first (ties broken by id).
func SortedIDs(groups map[string]*Data) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := groups[ids[i]], groups[ids[j]]
		if a.TotalDurationMs != b.TotalDurationMs {
			return a.TotalDurationMs > b.TotalDurationMs
		}
		return ids[i] < ids[j]
	})
	return ids
}
