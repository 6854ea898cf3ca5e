package diarization

import (
	"strings"

	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

// MergeConsecutiveSameSpeaker linearly glues adjacent segments that carry the
// same speaker and are separated by less than maxGapMs of silence. It runs
// once after Clean to remove the seams the remapping passes leave behind:
// extends the span to the later end and concatenates the texts.
func MergeConsecutiveSameSpeaker(segments []transcript.Segment, maxGapMs int64) []transcript.Segment {
	if len(segments) == 0 {
		return nil
	}

	out := make([]transcript.Segment, 0, len(segments))
	cur := segments[0]

	for _, next := range segments[1:] {
		if next.Speaker == cur.Speaker && next.StartMs-cur.EndMs < maxGapMs {
			cur.Confidence = glueConfidence(cur, next)
			if t := strings.TrimSpace(next.Text); t != "" {
				if cur.Text == "" {
					cur.Text = t
				} else {
					cur.Text += " " + t
				}
			}
			cur.EndMs = next.EndMs
			continue
		}
		out = append(out, cur)
		cur = next
	}

	return append(out, cur)
}

func glueConfidence(a, b transcript.Segment) float64 {
	da, db := float64(a.DurationMs()), float64(b.DurationMs())
	if da+db == 0 {
		return (a.Confidence + b.Confidence) / 2
	}
	return (da*a.Confidence + db*b.Confidence) / (da + db)
}
