package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, ":8000", cfg.GetServerAddr())
	assert.Equal(t, 0.85, cfg.Diarize.SimilarityThreshold)
	assert.Equal(t, int64(4), cfg.Pipeline.MaxConcurrentTurns)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  env: production
  port: "9090"
speech:
  api_url: http://speech:8082
  fail_threshold: 5
diarize:
  similarity_threshold: 0.9
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, "http://speech:8082", cfg.Speech.APIURL)
	assert.Equal(t, 5, cfg.Speech.FailThreshold)
	assert.Equal(t, 0.9, cfg.Diarize.SimilarityThreshold)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
`)
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad port",
			content: `
server:
  port: "99999"
`,
		},
		{
			name: "bad log level",
			content: `
log:
  level: verbose
`,
		},
		{
			name: "similarity threshold out of range",
			content: `
diarize:
  similarity_threshold: 1.5
`,
		},
		{
			name: "merge chars not positive",
			content: `
merge:
  word_max_chars: 0
`,
		},
		{
			name: "bad request timeout",
			content: `
pipeline:
  request_timeout: soon
`,
		},
		{
			name: "empty speech url",
			content: `
speech:
  api_url: ""
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestDiarizeOptions_RoundTrip(t *testing.T) {
	cfg := Default()
	opts := cfg.DiarizeOptions()

	assert.Equal(t, cfg.Diarize.SimilarityThreshold, opts.SimilarityThreshold)
	assert.Equal(t, cfg.Diarize.MinSpeakerShare, opts.MinSpeakerShare)
	assert.Equal(t, cfg.Diarize.MaxJoinGapMs, opts.MaxJoinGapMs)
}

func TestMergeOptions_RoundTrip(t *testing.T) {
	path := writeConfigFile(t, `
merge:
  word_max_pause_ms: 120
  segment_max_chars: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	opts := cfg.MergeOptions()

	assert.Equal(t, int64(120), opts.WordMaxPauseMs)
	assert.Equal(t, 20, opts.SegmentMaxChars)
	// untouched thresholds keep their defaults
	assert.Equal(t, 8, opts.WordMaxChars)
	assert.Equal(t, int64(10), opts.SegmentMaxPauseMs)
}
