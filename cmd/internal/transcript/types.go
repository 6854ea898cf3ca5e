// Package transcript defines the transcript segment model shared by the
// translation pipeline and implements phrase-level merging of the raw
// word-level segments produced by the speech-to-text service.
package transcript

import "strings"

// Segment represents a single transcribed interval of the source audio.
// Segments are produced once by the transcription service and treated as
// read-only afterwards; every transformation returns new slices.
type Segment struct {
	// Text is the transcribed text content of this interval
	Text string `json:"text"`

	// StartMs / EndMs bound the interval in milliseconds from audio start
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`

	// Confidence is the recognizer confidence score (0.0 - 1.0)
	Confidence float64 `json:"confidence"`

	// Speaker is the diarization label ("" when the diarizer produced none)
	Speaker string `json:"speaker,omitempty"`

	// VoiceSimilarity optionally scores the match against the sender's
	// known voice. Nil when no reference voice was available.
	VoiceSimilarity *float64 `json:"voice_similarity,omitempty"`
}

// DurationMs returns the segment span in milliseconds.
func (s Segment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// TotalDurationMs sums the spans of all segments.
func TotalDurationMs(segments []Segment) int64 {
	var total int64
	for _, s := range segments {
		total += s.DurationMs()
	}
	return total
}

// JoinText concatenates segment texts with single spaces, skipping empties.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
