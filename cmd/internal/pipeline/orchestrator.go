package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/voxlate/voxlate/cmd/internal/cache"
	"github.com/voxlate/voxlate/cmd/internal/diarization"
	"github.com/voxlate/voxlate/cmd/internal/media"
	"github.com/voxlate/voxlate/cmd/internal/metrics"
	"github.com/voxlate/voxlate/cmd/internal/speaker"
	"github.com/voxlate/voxlate/cmd/internal/transcript"
	"github.com/voxlate/voxlate/cmd/internal/translate"
	"github.com/voxlate/voxlate/cmd/internal/turns"
	"github.com/voxlate/voxlate/pkg/logger"
)

// Request describes one voice message to translate.
type Request struct {
	MessageID       string   `json:"message_id"`
	AttachmentID    string   `json:"attachment_id"`
	AudioPath       string   `json:"audio_path"`
	SourceLanguage  string   `json:"source_language,omitempty"`
	TargetLanguages []string `json:"target_languages"`
}

// Result is the outcome of one pipeline run. Versions holds one assembled
// track per target language that succeeded; LanguageErrors holds the failure
// for each language that did not. A run with N requested languages and one
// broken translation backend still delivers the other N-1 versions.
type Result struct {
	MessageID      string                                    `json:"message_id"`
	State          State                                     `json:"state"`
	SourceLanguage string                                    `json:"source_language"`
	Degraded       bool                                      `json:"degraded"`
	Transcript     []transcript.Segment                      `json:"transcript"`
	Stats          diarization.Stats                         `json:"diarization_stats"`
	Turns          []turns.TurnOfSpeech                      `json:"turns"`
	Versions       map[string]*turns.TranslatedAudioVersion  `json:"versions"`
	LanguageErrors map[string]*PipeError                     `json:"language_errors,omitempty"`
	Warnings       []*PipeError                              `json:"warnings,omitempty"`
}

// Config carries the orchestrator tunables.
type Config struct {
	MergeOptions transcript.MergeOptions
	CleanOptions diarization.Options

	// MaxConcurrentTurns bounds simultaneous translate+synthesize calls
	// across all languages of one request.
	MaxConcurrentTurns int64

	// RequestTimeout bounds one whole pipeline run. Zero disables it.
	// Cancellation only kills in-flight language tasks; languages that
	// already finished stay in the partial result.
	RequestTimeout time.Duration

	// OutputDir receives the assembled per-language tracks.
	OutputDir string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MergeOptions:       transcript.DefaultMergeOptions(),
		CleanOptions:       diarization.DefaultOptions(),
		MaxConcurrentTurns: 4,
		RequestTimeout:     5 * time.Minute,
		OutputDir:          "/tmp/voxlate",
	}
}

// Collaborators are the injected services the orchestrator drives. Cache and
// Encoder are optional; everything else is required.
type Collaborators struct {
	Controller *DegradationController
	Normalizer media.Normalizer
	Translator *translate.TurnTranslator
	Profiles   *speaker.ProfileStore
	Concat     turns.Concatenator
	Cache      *cache.Service
	Encoder    VoiceEncoder
}

// Orchestrator runs the end-to-end translation flow for one voice message:
// normalize, transcribe, merge, clean diarization, build turns, translate
// per language in parallel, assemble. It is stateless across requests and
// safe for concurrent use.
type Orchestrator struct {
	c      Collaborators
	cfg    Config
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewOrchestrator validates and wires the collaborators.
func NewOrchestrator(c Collaborators, cfg Config, log *slog.Logger) (*Orchestrator, error) {
	if c.Controller == nil || c.Normalizer == nil || c.Translator == nil || c.Concat == nil {
		return nil, fmt.Errorf("orchestrator: controller, normalizer, translator and concatenator are required")
	}
	if cfg.MaxConcurrentTurns <= 0 {
		cfg.MaxConcurrentTurns = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		c:      c,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrentTurns),
		logger: log,
	}, nil
}

// Process runs the pipeline for one request. It returns a non-nil error only
// for fatal failures (invalid request, failed transcription); per-language
// failures are reported in Result.LanguageErrors while the remaining
// languages complete normally.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		MessageID:      req.MessageID,
		State:          StateReceived,
		Versions:       make(map[string]*turns.TranslatedAudioVersion),
		LanguageErrors: make(map[string]*PipeError),
	}

	if req.MessageID == "" || req.AttachmentID == "" || req.AudioPath == "" {
		result.State = StateFailed
		return result, NewInvalidRequestError("message_id, attachment_id and audio_path are required")
	}

	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}

	targets := o.normalizeTargets(req.TargetLanguages, result)
	if len(targets) == 0 {
		result.State = StateFailed
		return result, NewInvalidRequestError("no valid target language in request")
	}

	audioPath := o.convertAudio(ctx, req, result)
	result.State = StateConverted

	cleaned, stats, err := o.transcribeAndClean(ctx, req, audioPath, result)
	if err != nil {
		result.State = StateFailed
		metrics.RecordMessage("failed")
		metrics.RecordError("transcribe", string(AsPipeError(err, FAILED_TRANSCRIPTION).Code))
		return result, err
	}
	result.Transcript = cleaned
	result.Stats = stats
	result.State = StateTranscribed

	if stats.FinalSpeakers <= 1 {
		result.State = StateSingle
	} else {
		result.State = StateMulti
	}

	qualified, mapping := qualifySpeakers(cleaned, stats.Mapping, req.MessageID)
	o.registerProfiles(qualified, audioPath)

	result.Turns = turns.BuildTurns(qualified, mapping)
	result.State = StatePerLanguage

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, lang := range targets {
		lang := lang
		g.Go(func() error {
			metrics.LanguageStarted()
			defer metrics.LanguageFinished()
			version, perr := o.processLanguage(gctx, req, result.Turns, result.SourceLanguage, lang)

			mu.Lock()
			defer mu.Unlock()
			if perr != nil {
				result.LanguageErrors[lang] = perr
				metrics.RecordLanguageVersion(lang, false)
				metrics.RecordError("translate", string(perr.Code))
				return nil
			}
			result.Versions[lang] = version
			metrics.RecordLanguageVersion(lang, true)
			if !version.VoiceCloned {
				result.Warnings = append(result.Warnings,
					NewPipeError(DEGRADED_SYNTHESIS, fmt.Sprintf("通用音色合成: %s", lang), nil))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(result.Versions) == 0 {
		result.State = StateFailed
		metrics.RecordMessage("failed")
		return result, nil
	}

	result.State = StateAssembled
	result.State = StateDelivered
	if len(result.LanguageErrors) > 0 {
		metrics.RecordMessage("partial")
	} else {
		metrics.RecordMessage("delivered")
	}
	return result, nil
}

// normalizeTargets canonicalizes and dedupes the requested languages.
// Unparseable tags fail only their own language.
func (o *Orchestrator) normalizeTargets(requested []string, result *Result) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, raw := range requested {
		lang, err := translate.NormalizeLanguage(raw)
		if err != nil {
			result.LanguageErrors[raw] = NewLanguageError(raw, err)
			continue
		}
		if !seen[lang] {
			seen[lang] = true
			targets = append(targets, lang)
		}
	}
	return targets
}

// convertAudio normalizes the source audio to mono 16 kHz WAV, consulting the
// shared cache for a prior conversion of the same file. A conversion failure
// degrades to the original file with a warning instead of failing the run.
func (o *Orchestrator) convertAudio(ctx context.Context, req Request, result *Result) string {
	if o.c.Cache != nil {
		cached, ok := o.c.Cache.GetNormalizedPath(ctx, req.AudioPath)
		metrics.RecordCacheLookup("normalized", ok)
		if ok {
			return cached
		}
	}

	start := time.Now()
	converted, err := o.c.Normalizer.Normalize(ctx, req.AudioPath)
	if err != nil {
		warn := NewConversionFallbackError(req.AudioPath, err)
		result.Warnings = append(result.Warnings, warn)
		logger.LogPipelineStage(o.logger, "convert", "fallback", req.MessageID,
			time.Since(start).Milliseconds(), string(CONVERSION_FALLBACK))
		return req.AudioPath
	}

	if o.c.Cache != nil {
		_ = o.c.Cache.PutNormalizedPath(ctx, req.AudioPath, converted)
	}
	logger.LogPipelineStage(o.logger, "convert", "success", req.MessageID,
		time.Since(start).Milliseconds(), "")
	return converted
}

// transcribeAndClean runs transcription through the degradation controller,
// merges over-split segments and repairs diarization noise. An empty
// transcript is fatal: there is nothing to translate.
func (o *Orchestrator) transcribeAndClean(ctx context.Context, req Request, audioPath string, result *Result) ([]transcript.Segment, diarization.Stats, error) {
	transcriber := o.c.Controller.GetTranscriber()
	result.Degraded = o.c.Controller.IsDegraded()
	metrics.SetDegraded(result.Degraded)

	start := time.Now()
	tr, err := transcriber.Transcribe(ctx, audioPath, &TranscribeOptions{
		Language: req.SourceLanguage,
		Diarize:  true,
	})
	if err != nil {
		logger.LogPipelineStage(o.logger, "transcribe", "error", req.MessageID,
			time.Since(start).Milliseconds(), string(FAILED_TRANSCRIPTION))
		return nil, diarization.Stats{}, NewTranscriptionError(err)
	}
	if len(tr.Segments) == 0 {
		return nil, diarization.Stats{}, NewTranscriptionError(
			fmt.Errorf("transcriber %s returned empty transcript", transcriber.Name()))
	}
	result.SourceLanguage = tr.Language
	logger.LogPipelineStage(o.logger, "transcribe", "success", req.MessageID,
		time.Since(start).Milliseconds(), "")
	metrics.RecordStageDuration("transcribe", time.Since(start).Seconds())

	segments := toSegments(tr.Segments)
	merged := transcript.MergeShortSegments(segments, o.cfg.MergeOptions)

	embeddings := tr.SpeakerEmbeddings
	if len(embeddings) == 0 && o.c.Encoder != nil {
		embeddings = o.encodeSpeakers(ctx, audioPath, merged)
	}

	transcripts := make([]string, len(merged))
	for i, s := range merged {
		transcripts[i] = s.Text
	}

	cleaner := diarization.NewCleaner(o.cfg.CleanOptions)
	cleaned, stats := cleaner.Clean(merged, embeddings, transcripts)
	cleaned = diarization.MergeConsecutiveSameSpeaker(cleaned, o.cfg.CleanOptions.MaxJoinGapMs)

	o.logger.Info("diarization cleanup complete",
		"message_id", req.MessageID,
		"initial_speakers", stats.InitialSpeakers,
		"final_speakers", stats.FinalSpeakers,
		"abnormal_transitions", stats.AbnormalTransitions)

	return cleaned, stats, nil
}

// encodeSpeakers fills in missing voice embeddings from each speaker's
// longest segment. Encoder failures skip that speaker only.
func (o *Orchestrator) encodeSpeakers(ctx context.Context, audioPath string, segments []transcript.Segment) map[string][]float64 {
	embeddings := make(map[string][]float64)
	for id, group := range speaker.GroupBySpeaker(segments) {
		exemplar, ok := speaker.LongestSegment(group)
		if !ok {
			continue
		}
		vec, err := o.c.Encoder.Encode(ctx, audioPath, exemplar.StartMs, exemplar.EndMs)
		if err != nil {
			o.logger.Warn("voice encoding failed", "speaker", id, "error", err)
			continue
		}
		embeddings[id] = vec
	}
	return embeddings
}

// registerProfiles creates a voice profile per final speaker so cloned
// synthesis can reference this message's audio.
func (o *Orchestrator) registerProfiles(segments []transcript.Segment, audioPath string) {
	if o.c.Profiles == nil {
		return
	}
	for id := range speaker.GroupBySpeaker(segments) {
		if id == "" {
			continue
		}
		if _, err := o.c.Profiles.GetOrCreate(id, audioPath); err != nil {
			o.logger.Warn("voice profile registration failed", "speaker", id, "error", err)
		}
	}
}

// processLanguage translates and synthesizes every turn for one target
// language, bounded by the shared semaphore, then assembles the track. The
// first turn failure fails the whole language; other languages continue.
func (o *Orchestrator) processLanguage(ctx context.Context, req Request, allTurns []turns.TurnOfSpeech, sourceLang, lang string) (*turns.TranslatedAudioVersion, *PipeError) {
	if o.c.Cache != nil {
		version, ok := o.c.Cache.GetVersion(ctx, req.MessageID, req.AttachmentID, lang)
		metrics.RecordCacheLookup("version", ok)
		if ok {
			return version, nil
		}
	}

	start := time.Now()
	translated := make([]turns.TranslatedTurn, len(allTurns))

	g, gctx := errgroup.WithContext(ctx)
	for i, turn := range allTurns {
		i, turn := i, turn
		g.Go(func() error {
			if err := o.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer o.sem.Release(1)

			tt, err := o.c.Translator.TranslateTurn(gctx, turn, sourceLang, lang)
			if err != nil {
				return err
			}
			translated[i] = tt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.LogPipelineStage(o.logger, "translate", "error", req.MessageID,
			time.Since(start).Milliseconds(), string(FAILED_LANGUAGE))
		return nil, NewLanguageError(lang, err)
	}

	outPath := filepath.Join(o.cfg.OutputDir,
		fmt.Sprintf("%s_%s_%s.wav", req.MessageID, req.AttachmentID, lang))
	version, err := turns.ConcatenateTurnsInOrder(ctx, translated, lang, req.MessageID, req.AttachmentID, outPath, o.c.Concat)
	if err != nil {
		return nil, NewPipeError(FFMPEG_FAILED, fmt.Sprintf("拼接 %s 音轨失败", lang), err)
	}

	if o.c.Cache != nil {
		_ = o.c.Cache.PutVersion(ctx, version)
	}
	logger.LogPipelineStage(o.logger, "translate", "success", req.MessageID,
		time.Since(start).Milliseconds(), "")
	metrics.RecordStageDuration("translate", time.Since(start).Seconds())
	return version, nil
}

// qualifySpeakers prefixes speaker ids with the message id so profiles and
// output segments are globally unique across messages sharing one profile
// store. The cleanup mapping is rewritten to the qualified ids.
func qualifySpeakers(segments []transcript.Segment, mapping map[string]string, messageID string) ([]transcript.Segment, map[string]string) {
	qualify := func(id string) string {
		if id == "" {
			return ""
		}
		return messageID + ":" + id
	}

	out := make([]transcript.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].Speaker = qualify(out[i].Speaker)
	}

	qualifiedMapping := make(map[string]string, len(mapping))
	for from, to := range mapping {
		qualifiedMapping[qualify(from)] = qualify(to)
	}
	return out, qualifiedMapping
}

func toSegments(in []TranscriptionSegment) []transcript.Segment {
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
