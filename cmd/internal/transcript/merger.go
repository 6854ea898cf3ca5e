package transcript

import "strings"

// MergeOptions holds the thresholds for the two merge passes. The values are
// empirically tuned defaults, not assumed-optimal constants; callers override
// them through configuration.
type MergeOptions struct {
	// Pass 1: glue adjacent word fragments into word clusters
	WordMaxPauseMs int64
	WordMaxChars   int

	// Pass 2: glue word clusters into phrases
	SegmentMaxPauseMs int64
	SegmentMaxChars   int
}

// DefaultMergeOptions returns the tuned defaults used in production.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		WordMaxPauseMs:    90,
		WordMaxChars:      8,
		SegmentMaxPauseMs: 10,
		SegmentMaxChars:   15,
	}
}

// MergeShortSegments merges raw word-level segments into natural phrases in
// two passes. Pass 1 joins adjacent fragments separated by less than
// WordMaxPauseMs whose combined text stays within WordMaxChars; pass 2 runs
// the identical routine over the clusters with a tighter pause bound and a
// looser length bound. Re-running the merge over its own output with the same
// options is a no-op.
func MergeShortSegments(segments []Segment, opts MergeOptions) []Segment {
	words := mergeRun(segments, opts.WordMaxPauseMs, opts.WordMaxChars)
	return mergeRun(words, opts.SegmentMaxPauseMs, opts.SegmentMaxChars)
}

// mergeRun walks the segments in order, growing the current group while the
// pause/length/speaker predicate holds and flushing it when it breaks.
func mergeRun(segments []Segment, maxPauseMs int64, maxChars int) []Segment {
	if len(segments) == 0 {
		return nil
	}

	out := make([]Segment, 0, len(segments))
	group := []Segment{segments[0]}
	groupLen := len(strings.TrimSpace(segments[0].Text))

	for _, next := range segments[1:] {
		pause := next.StartMs - group[len(group)-1].EndMs
		nextLen := len(strings.TrimSpace(next.Text))
		merged := groupLen
		if nextLen > 0 {
			if merged > 0 {
				merged++ // joining space
			}
			merged += nextLen
		}

		if pause < maxPauseMs && merged <= maxChars && speakersCompatible(group, next) {
			group = append(group, next)
			groupLen = merged
			continue
		}

		out = append(out, flushGroup(group))
		group = []Segment{next}
		groupLen = nextLen
	}

	out = append(out, flushGroup(group))
	return out
}

// speakersCompatible reports whether next may join the group: speakers match
// or at least one side carries no diarization label.
func speakersCompatible(group []Segment, next Segment) bool {
	if next.Speaker == "" {
		return true
	}
	for _, s := range group {
		if s.Speaker != "" && s.Speaker != next.Speaker {
			return false
		}
	}
	return true
}

// flushGroup collapses a group into one segment. The span keeps the first
// segment's start and the last segment's end verbatim; timestamps are never
// interpolated. Singleton groups pass through unchanged.
func flushGroup(group []Segment) Segment {
	if len(group) == 1 {
		return group[0]
	}

	merged := Segment{
		Text:    JoinText(group),
		StartMs: group[0].StartMs,
		EndMs:   group[len(group)-1].EndMs,
		Speaker: consensusSpeaker(group),
	}
	merged.Confidence = weightedConfidence(group)
	merged.VoiceSimilarity = group[0].VoiceSimilarity
	return merged
}

// weightedConfidence averages confidences weighted by segment duration,
// falling back to a plain average when the total duration is zero.
func weightedConfidence(group []Segment) float64 {
	var total, weighted float64
	for _, s := range group {
		d := float64(s.DurationMs())
		total += d
		weighted += d * s.Confidence
	}
	if total == 0 {
		var sum float64
		for _, s := range group {
			sum += s.Confidence
		}
		return sum / float64(len(group))
	}
	return weighted / total
}

// consensusSpeaker returns the common label when all labelled segments agree,
// otherwise the first segment's label.
func consensusSpeaker(group []Segment) string {
	common := ""
	for _, s := range group {
		if s.Speaker == "" {
			continue
		}
		if common == "" {
			common = s.Speaker
			continue
		}
		if s.Speaker != common {
			return group[0].Speaker
		}
	}
	return common
}
