// Package diarization repairs speaker-id noise left by the upstream diarizer:
// over-segmentation, spurious minority speakers and misattributed sentence
// continuations. It never invents new speakers, only merges existing ones.
package diarization

import (
	"fmt"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"

	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

// Options holds the cleanup thresholds. All values are tuned defaults and are
// overridable through configuration.
type Options struct {
	// SimilarityThreshold is the cosine similarity above which two speaker
	// embeddings are considered the same person.
	SimilarityThreshold float64

	// MinSpeakerShare is the minimum fraction of total speaking time a
	// speaker must hold to survive the minority merge.
	MinSpeakerShare float64

	// MaxSentenceGapMs bounds the silence between two segments treated as
	// one interrupted sentence.
	MaxSentenceGapMs int64

	// MinTransitionGapMs is the mean speaker-change silence below which the
	// diarization is flagged as abnormal.
	MinTransitionGapMs int64

	// MaxJoinGapMs bounds the silence bridged when gluing consecutive
	// same-speaker segments after cleanup.
	MaxJoinGapMs int64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.85,
		MinSpeakerShare:     0.10,
		MaxSentenceGapMs:    500,
		MinTransitionGapMs:  300,
		MaxJoinGapMs:        1000,
	}
}

// Stats reports what the cleanup did. MergeLog carries one human-readable
// line per merge performed, in execution order.
type Stats struct {
	InitialSpeakers     int               `json:"initial_speakers"`
	FinalSpeakers       int               `json:"final_speakers"`
	InitialSegments     int               `json:"initial_segments"`
	FinalSegments       int               `json:"final_segments"`
	SpeakersMerged      int               `json:"speakers_merged"`
	AbnormalTransitions bool              `json:"abnormal_transitions"`
	MergeLog            []string          `json:"merge_log,omitempty"`
	Mapping             map[string]string `json:"mapping,omitempty"` // speaker-level remaps only, always acyclic
}

// Cleaner applies the cleanup passes in a fixed order.
type Cleaner struct {
	opts Options
}

// NewCleaner creates a Cleaner with the given options.
func NewCleaner(opts Options) *Cleaner {
	return &Cleaner{opts: opts}
}

// Clean runs the cleanup passes over the segments and returns a remapped copy
// plus stats. Optional inputs skip their pass: embeddings enable the
// embedding merge, transcripts (one string per segment) enable the
// interrupted-sentence merge. Clean never fails on well-formed input.
//
// Pass order:
//  1. abnormal-transition detection (read-only signal)
//  2. embedding merge (cosine similarity across distinct speakers)
//  3. minority merge (small speakers absorbed by the majority one)
//  4. interrupted-sentence merge (continuation overrides diarization)
func (c *Cleaner) Clean(segments []transcript.Segment, embeddings map[string][]float64, transcripts []string) ([]transcript.Segment, Stats) {
	out := make([]transcript.Segment, len(segments))
	copy(out, segments)

	stats := Stats{
		InitialSpeakers: countSpeakers(out),
		InitialSegments: len(out),
		Mapping:         make(map[string]string),
	}

	stats.AbnormalTransitions = c.hasAbnormalTransitions(out)

	if len(embeddings) > 0 {
		c.mergeByEmbedding(out, embeddings, &stats)
	}

	c.mergeMinoritySpeakers(out, &stats)

	if len(transcripts) == len(out) && len(out) > 1 {
		c.mergeInterruptedSentences(out, transcripts, &stats)
	}

	stats.FinalSpeakers = countSpeakers(out)
	stats.FinalSegments = len(out)
	stats.SpeakersMerged = stats.InitialSpeakers - stats.FinalSpeakers
	return out, stats
}

// hasAbnormalTransitions reports whether the mean silence at speaker changes
// falls below the transition gap threshold. Near-zero gaps at every speaker
// change usually mean the diarizer split one voice in half.
func (c *Cleaner) hasAbnormalTransitions(segments []transcript.Segment) bool {
	var gapSum int64
	var changes int

	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		if prev.Speaker == "" || cur.Speaker == "" || prev.Speaker == cur.Speaker {
			continue
		}
		gap := cur.StartMs - prev.EndMs
		if gap < 0 {
			gap = 0
		}
		gapSum += gap
		changes++
	}

	if changes == 0 {
		return false
	}
	return gapSum/int64(changes) < c.opts.MinTransitionGapMs
}

// mergeByEmbedding compares every distinct speaker pair (in first-appearance
// order, for determinism) and remaps the later speaker onto the earlier one
// when their embeddings' cosine similarity exceeds the threshold.
func (c *Cleaner) mergeByEmbedding(segments []transcript.Segment, embeddings map[string][]float64, stats *Stats) {
	speakers := distinctSpeakers(segments)
	remap := make(map[string]string)

	resolve := func(id string) string {
		for {
			next, ok := remap[id]
			if !ok {
				return id
			}
			id = next
		}
	}

	for i := 0; i < len(speakers); i++ {
		for j := i + 1; j < len(speakers); j++ {
			if _, done := remap[speakers[j]]; done {
				continue
			}
			a, okA := embeddings[speakers[i]]
			b, okB := embeddings[speakers[j]]
			if !okA || !okB {
				continue
			}
			sim := cosineSimilarity(a, b)
			if sim > c.opts.SimilarityThreshold {
				target := resolve(speakers[i])
				remap[speakers[j]] = target
				stats.MergeLog = append(stats.MergeLog,
					fmt.Sprintf("embedding: %s -> %s (similarity %.2f)", speakers[j], target, sim))
			}
		}
	}

	applyMapping(segments, remap, stats)
}

// mergeMinoritySpeakers remaps every speaker holding less than MinSpeakerShare
// of the total speaking time onto the speaker with the largest share.
func (c *Cleaner) mergeMinoritySpeakers(segments []transcript.Segment, stats *Stats) {
	totals := make(map[string]int64)
	var total int64
	for _, s := range segments {
		if s.Speaker == "" {
			continue
		}
		totals[s.Speaker] += s.DurationMs()
		total += s.DurationMs()
	}
	if total == 0 || len(totals) < 2 {
		return
	}

	majority := ""
	var majorityDur int64 = -1
	for _, id := range distinctSpeakers(segments) {
		if d := totals[id]; d > majorityDur {
			majority, majorityDur = id, d
		}
	}

	remap := make(map[string]string)
	for _, id := range distinctSpeakers(segments) {
		if id == majority {
			continue
		}
		share := float64(totals[id]) / float64(total)
		if share < c.opts.MinSpeakerShare {
			remap[id] = majority
			stats.MergeLog = append(stats.MergeLog,
				fmt.Sprintf("minority: %s -> %s (share %.1f%%)", id, majority, share*100))
		}
	}

	applyMapping(segments, remap, stats)
}

// mergeInterruptedSentences forces the speaker of a continuation segment to
// match the segment it continues. A continuation is a near-adjacent segment
// whose predecessor's text lacks sentence-final punctuation and whose own
// text starts lower-case. The lower-case test assumes Latin-script
// capitalization; case-insensitive scripts never match it, which is a known
// inherited limitation kept on purpose.
//
// The override is segment-local: only the continuation segment is rewritten,
// and nothing is recorded in stats.Mapping. Opposing continuations in one
// transcript (A continues B here, B continues A there) would otherwise leave
// a cyclic mapping, and a speaker-level remap would also drag that speaker's
// unrelated segments along.
func (c *Cleaner) mergeInterruptedSentences(segments []transcript.Segment, transcripts []string, stats *Stats) {
	for i := 1; i < len(segments); i++ {
		prev, cur := &segments[i-1], &segments[i]
		if prev.Speaker == "" || cur.Speaker == "" || prev.Speaker == cur.Speaker {
			continue
		}
		if cur.StartMs-prev.EndMs >= c.opts.MaxSentenceGapMs {
			continue
		}
		if endsSentence(transcripts[i-1]) || !startsLowerCase(transcripts[i]) {
			continue
		}

		stats.MergeLog = append(stats.MergeLog,
			fmt.Sprintf("continuation: segment %d speaker %s -> %s", i, cur.Speaker, prev.Speaker))
		cur.Speaker = prev.Speaker
	}
}

func endsSentence(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	return strings.ContainsRune(".!?…", []rune(t)[len([]rune(t))-1])
}

func startsLowerCase(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	return unicode.IsLower([]rune(t)[0])
}

// applyMapping rewrites segment speakers through remap and records the final
// resolution in stats.Mapping.
func applyMapping(segments []transcript.Segment, remap map[string]string, stats *Stats) {
	if len(remap) == 0 {
		return
	}
	for i := range segments {
		if target, ok := remap[segments[i].Speaker]; ok {
			segments[i].Speaker = target
		}
	}
	for from, to := range remap {
		stats.Mapping[from] = to
	}
}

// cosineSimilarity is clamped to [-1, 1]; zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := floats.Dot(a, b) / (normA * normB)
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}

func countSpeakers(segments []transcript.Segment) int {
	return len(distinctSpeakers(segments))
}

// distinctSpeakers returns labelled speakers in first-appearance order.
func distinctSpeakers(segments []transcript.Segment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range segments {
		if s.Speaker == "" || seen[s.Speaker] {
			continue
		}
		seen[s.Speaker] = true
		out = append(out, s.Speaker)
	}
	return out
}
