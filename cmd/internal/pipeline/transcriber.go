// Package pipeline orchestrates the voice-message translation flow: audio
// normalization, speaker-attributed transcription, diarization cleanup, turn
// building, per-language translation and timeline assembly. It defines the
// transcription abstraction and the degradation machinery that keeps the
// pipeline answering when the transcription backend goes down.
package pipeline

import (
	"context"
	"time"
)

// TranscriptionResult is the complete output of one speaker-attributed
// transcription run: timed segments with speaker labels, the detected source
// language, and the per-speaker voice embeddings the diarization cleanup uses
// to collapse over-split speakers.
type TranscriptionResult struct {
	// Segments are the transcribed intervals in chronological order. Speaker
	// labels are the diarizer's raw ids, before any cleanup.
	Segments []TranscriptionSegment `json:"segments"`

	// Language is the detected or forced source language code (e.g. "en").
	Language string `json:"language"`

	// DurationMs is the total duration of the source audio.
	DurationMs int64 `json:"duration_ms"`

	// SpeakerEmbeddings maps raw speaker ids to their voice embedding
	// vectors. May be empty when the backend does not expose embeddings;
	// the embedding merge pass is skipped in that case.
	SpeakerEmbeddings map[string][]float64 `json:"speaker_embeddings,omitempty"`
}

// TranscriptionSegment is one transcribed interval with timing, speaker
// attribution and recognition confidence.
type TranscriptionSegment struct {
	Text       string  `json:"text"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
}

// Transcriber is the contract every transcription backend implements. The
// degradation controller switches between implementations based on health, so
// all of them must satisfy the same failure semantics:
//
//   - Transcribe must respect context cancellation and wrap external errors
//     with context (fmt.Errorf("...: %w", err)).
//   - An audio file with no detectable speech returns a valid result with
//     empty Segments, not an error.
//   - HealthCheck should be cheap (well under 10 seconds); the mock
//     implementation reports (false, nil) so the controller knows it is a
//     degraded state, not a healthy service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error)
	HealthCheck(ctx context.Context) (bool, error)
	Name() string
}

// TranscribeOptions carries optional per-request parameters. All fields are
// optional; implementations provide defaults.
type TranscribeOptions struct {
	// Model selects the recognition model (backend-specific, e.g. "base").
	Model string

	// Language forces the source language instead of auto-detecting.
	Language string

	// Diarize requests speaker labels and embeddings. Backends that cannot
	// diarize label every segment with a single speaker id.
	Diarize bool

	// Timeout overrides the default transcription timeout.
	Timeout time.Duration
}

// VoiceEncoder computes a voice embedding for an interval of an audio file.
// It is an optional orchestrator collaborator: when the transcription backend
// returns no embeddings, the encoder fills them in from each speaker's
// longest segment so the embedding merge pass still runs.
type VoiceEncoder interface {
	Encode(ctx context.Context, audioPath string, startMs, endMs int64) ([]float64, error)
}
