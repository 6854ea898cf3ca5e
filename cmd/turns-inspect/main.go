// Command turns-inspect runs the segment merge, diarization cleanup and turn
// building passes over a transcription file and prints the resulting turns.
// It is the offline debugging companion to the server pipeline: feed it the
// raw speech-service output and see exactly which speakers got merged and
// where the turn boundaries fall.
//
// Usage:
//
//	turns-inspect -segments-file <transcription.json> [-embeddings-file emb.json] [-format text|json|srt|vtt]
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/voxlate/voxlate/cmd/internal/diarization"
	"github.com/voxlate/voxlate/cmd/internal/transcript"
	"github.com/voxlate/voxlate/cmd/internal/turns"
)

func main() {
	var segmentsFile string
	var embeddingsFile string
	var format string
	var similarity float64
	flag.Usage = func() {
		exe := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s -segments-file <transcription.json> [-embeddings-file emb.json] [-format text|json|srt|vtt]\n\n", exe)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.StringVar(&segmentsFile, "segments-file", "", "Path to transcription JSON (segments with speakers)")
	flag.StringVar(&embeddingsFile, "embeddings-file", "", "Path to speaker embeddings JSON (optional)")
	flag.StringVar(&format, "format", "text", "Output format: text|json|srt|vtt")
	flag.Float64Var(&similarity, "similarity", 0, "Override embedding similarity threshold (0 keeps default)")
	flag.Parse()

	if segmentsFile == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !validFormat(format) {
		fmt.Fprintln(os.Stderr, "invalid -format:", format)
		flag.Usage()
		os.Exit(2)
	}

	segments, err := parseSegmentsFromFile(segmentsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read segments:", err)
		os.Exit(1)
	}

	var embeddings map[string][]float64
	if embeddingsFile != "" {
		if embeddings, err = parseEmbeddingsFromFile(embeddingsFile); err != nil {
			fmt.Fprintln(os.Stderr, "read embeddings:", err)
			os.Exit(1)
		}
	}

	opts := diarization.DefaultOptions()
	if similarity > 0 {
		opts.SimilarityThreshold = similarity
	}

	merged := transcript.MergeShortSegments(segments, transcript.DefaultMergeOptions())
	texts := make([]string, len(merged))
	for i, s := range merged {
		texts[i] = s.Text
	}

	cleaned, stats := diarization.NewCleaner(opts).Clean(merged, embeddings, texts)
	cleaned = diarization.MergeConsecutiveSameSpeaker(cleaned, opts.MaxJoinGapMs)
	result := turns.BuildTurns(cleaned, stats.Mapping)

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"turns": result, "stats": stats}); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
	case "srt":
		for i, turn := range result {
			var out bytes.Buffer
			writeTurnSrt(&out, i, turn)
			fmt.Println(out.String())
		}
	case "vtt":
		fmt.Println("WEBVTT")
		fmt.Println()
		for _, turn := range result {
			var out bytes.Buffer
			writeTurnVtt(&out, turn)
			fmt.Println(out.String())
		}
	default:
		for _, line := range stats.MergeLog {
			fmt.Fprintln(os.Stderr, "merge:", line)
		}
		fmt.Fprintf(os.Stderr, "speakers: %d -> %d, segments: %d -> %d\n",
			stats.InitialSpeakers, stats.FinalSpeakers, stats.InitialSegments, stats.FinalSegments)
		for _, turn := range result {
			var out bytes.Buffer
			writeTurnText(&out, turn)
			fmt.Println(out.String())
		}
	}
}

func validFormat(f string) bool {
	switch f {
	case "text", "json", "srt", "vtt":
		return true
	default:
		return false
	}
}

// writeTurnText writes "[HH:MM:SS.mmm --> HH:MM:SS.mmm] [speaker] text"
func writeTurnText(w io.Writer, t turns.TurnOfSpeech) {
	start, end := turnSpan(t)
	speaker := ""
	if t.Speaker != "" {
		speaker = fmt.Sprintf(" [%s]", t.Speaker)
	}
	fmt.Fprintf(w, "[%s --> %s]%s %s", formatTimestamp(start), formatTimestamp(end), speaker, t.Text)
}

// writeTurnSrt writes one turn as an SRT cue
func writeTurnSrt(w io.Writer, index int, t turns.TurnOfSpeech) {
	start, end := turnSpan(t)
	fmt.Fprintf(w, "%d\n", index+1)
	fmt.Fprintf(w, "%s --> %s\n", formatTimestampSrt(start), formatTimestampSrt(end))
	fmt.Fprintf(w, "%s\n", t.Text)
}

// writeTurnVtt writes one turn as a WebVTT cue
func writeTurnVtt(w io.Writer, t turns.TurnOfSpeech) {
	start, end := turnSpan(t)
	fmt.Fprintf(w, "%s --> %s\n", formatTimestamp(start), formatTimestamp(end))
	fmt.Fprintf(w, "%s\n", t.Text)
}

func turnSpan(t turns.TurnOfSpeech) (time.Duration, time.Duration) {
	if len(t.Segments) == 0 {
		return 0, 0
	}
	start := time.Duration(t.Segments[0].StartMs) * time.Millisecond
	end := time.Duration(t.Segments[len(t.Segments)-1].EndMs) * time.Millisecond
	return start, end
}

// formatTimestamp formats as HH:MM:SS.mmm
func formatTimestamp(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// formatTimestampSrt formats as HH:MM:SS,mmm (SRT uses comma)
func formatTimestampSrt(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// fileTranscription mirrors the speech service's JSON output shape.
type fileTranscription struct {
	Segments []fileSegment `json:"segments"`
}

type fileSegment struct {
	Text       string  `json:"text"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// parseSegmentsFromFile accepts either {"segments":[...]} or a bare array.
func parseSegmentsFromFile(filePath string) ([]transcript.Segment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var tr fileTranscription
	if err := json.Unmarshal(data, &tr); err == nil && len(tr.Segments) > 0 {
		return toTranscript(tr.Segments), nil
	}

	var arr []fileSegment
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return toTranscript(arr), nil
	}

	return nil, errors.New("no segments found in JSON")
}

// parseEmbeddingsFromFile accepts {"speaker_embeddings":{...}} or a bare map.
func parseEmbeddingsFromFile(filePath string) (map[string][]float64, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		SpeakerEmbeddings map[string][]float64 `json:"speaker_embeddings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.SpeakerEmbeddings) > 0 {
		return wrapped.SpeakerEmbeddings, nil
	}

	var bare map[string][]float64
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func toTranscript(in []fileSegment) []transcript.Segment {
	out := make([]transcript.Segment, len(in))
	for i, s := range in {
		out[i] = transcript.Segment{
			Text:       s.Text,
			StartMs:    s.StartMs,
			EndMs:      s.EndMs,
			Confidence: s.Confidence,
			Speaker:    s.Speaker,
		}
	}
	return out
}
