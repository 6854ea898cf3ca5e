package turns

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// VersionSegment is a per-turn slice of the assembled track, timed against
// the new (synthesized) timeline rather than the source recording.
type VersionSegment struct {
	SpeakerID string `json:"speakerId"`
	Text      string `json:"text"`
	StartMs   int64  `json:"startMs"`
	EndMs     int64  `json:"endMs"`
}

// TranslatedAudioVersion is the one artifact that outlives a pipeline run:
// a complete translated track for one target language.
type TranslatedAudioVersion struct {
	MessageID      string           `json:"message_id"`
	AttachmentID   string           `json:"attachment_id"`
	TargetLanguage string           `json:"target_language"`
	Text           string           `json:"text"`
	AudioPath      string           `json:"audio_path"`
	DurationMs     int64            `json:"duration_ms"`
	Format         string           `json:"format"`
	VoiceCloned    bool             `json:"voice_cloned"`
	VoiceQuality   float64          `json:"voice_quality"`
	Segments       []VersionSegment `json:"segments"`
}

// Concatenator joins synthesized clips into one track. The media package
// provides the ffmpeg-backed implementation.
type Concatenator interface {
	Concat(ctx context.Context, clipPaths []string, outPath string) error
}

// ConcatenateTurnsInOrder re-sorts translated turns by their original start
// position (parallel synthesis completes out of order), appends the clips
// sequentially and regenerates segment timestamps against the synthesized
// timeline. No cross-fade and no inter-turn silence: each segment's start is
// the cumulative duration of the turns before it, so the output is gap-free
// and its last end equals the track's total duration exactly.
func ConcatenateTurnsInOrder(ctx context.Context, translations []TranslatedTurn, targetLanguage, messageID, attachmentID, outPath string, concat Concatenator) (*TranslatedAudioVersion, error) {
	if len(translations) == 0 {
		return nil, fmt.Errorf("no translated turns for language %s", targetLanguage)
	}

	ordered := make([]TranslatedTurn, len(translations))
	copy(ordered, translations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Turn.StartPosition < ordered[j].Turn.StartPosition
	})

	version := &TranslatedAudioVersion{
		MessageID:      messageID,
		AttachmentID:   attachmentID,
		TargetLanguage: targetLanguage,
		AudioPath:      outPath,
		Format:         "wav",
		VoiceCloned:    true,
	}

	var cursor int64
	var qualitySum float64
	texts := make([]string, 0, len(ordered))
	clips := make([]string, 0, len(ordered))

	for _, tt := range ordered {
		version.Segments = append(version.Segments, VersionSegment{
			SpeakerID: tt.Turn.Speaker,
			Text:      tt.Text,
			StartMs:   cursor,
			EndMs:     cursor + tt.DurationMs,
		})
		cursor += tt.DurationMs
		qualitySum += tt.Quality
		if !tt.VoiceCloned {
			version.VoiceCloned = false
		}
		texts = append(texts, tt.Text)
		if tt.AudioPath != "" {
			clips = append(clips, tt.AudioPath)
		}
	}

	version.DurationMs = cursor
	version.Text = strings.Join(texts, " ")
	version.VoiceQuality = qualitySum / float64(len(ordered))

	if concat != nil {
		if err := concat.Concat(ctx, clips, outPath); err != nil {
			return nil, fmt.Errorf("concatenate %d clips: %w", len(clips), err)
		}
	}

	return version, nil
}
