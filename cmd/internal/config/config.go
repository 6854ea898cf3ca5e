package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxlate/voxlate/cmd/internal/diarization"
	"github.com/voxlate/voxlate/cmd/internal/transcript"
)

// Config 统一配置结构
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Speech     SpeechConfig     `yaml:"speech"`
	Translate  TranslateConfig  `yaml:"translate"`
	Cache      CacheConfig      `yaml:"cache"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Merge      MergeConfig      `yaml:"merge"`
	Diarize    DiarizeConfig    `yaml:"diarize"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string `yaml:"env"` // dev, staging, production
	Port string `yaml:"port"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SpeechConfig 语音转写服务配置
type SpeechConfig struct {
	APIURL              string `yaml:"api_url"`
	HealthCheckInterval string `yaml:"health_check_interval"`
	FailThreshold       int    `yaml:"fail_threshold"`
}

// TranslateConfig 翻译与语音合成服务配置
type TranslateConfig struct {
	TranslatorURL  string `yaml:"translator_url"`
	SynthesizerURL string `yaml:"synthesizer_url"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"` // 为空时仅使用内存缓存
	Capacity  int    `yaml:"capacity"`
	TTL       string `yaml:"ttl"`
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	OutputDir          string `yaml:"output_dir"`
	TmpDir             string `yaml:"tmp_dir"`
	MaxConcurrentTurns int64  `yaml:"max_concurrent_turns"`
	RequestTimeout     string `yaml:"request_timeout"` // 单条消息处理超时，已完成语言不受取消影响
}

// MergeConfig 短片段合并阈值配置
type MergeConfig struct {
	WordMaxPauseMs    int64 `yaml:"word_max_pause_ms"`
	WordMaxChars      int   `yaml:"word_max_chars"`
	SegmentMaxPauseMs int64 `yaml:"segment_max_pause_ms"`
	SegmentMaxChars   int   `yaml:"segment_max_chars"`
}

// DiarizeConfig 说话人分离清理阈值配置
type DiarizeConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinSpeakerShare     float64 `yaml:"min_speaker_share"`
	MaxSentenceGapMs    int64   `yaml:"max_sentence_gap_ms"`
	MinTransitionGapMs  int64   `yaml:"min_transition_gap_ms"`
	MaxJoinGapMs        int64   `yaml:"max_join_gap_ms"`
}

// Default 返回默认配置
func Default() *Config {
	opts := diarization.DefaultOptions()
	merge := transcript.DefaultMergeOptions()
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8000"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Speech: SpeechConfig{
			APIURL:              "http://localhost:8082",
			HealthCheckInterval: "1m",
			FailThreshold:       3,
		},
		Translate: TranslateConfig{
			TranslatorURL:  "http://localhost:8083",
			SynthesizerURL: "http://localhost:8084",
		},
		Cache: CacheConfig{Capacity: 1024, TTL: "24h"},
		Pipeline: PipelineConfig{
			OutputDir:          "/tmp/voxlate/out",
			TmpDir:             "/tmp/voxlate/tmp",
			MaxConcurrentTurns: 4,
			RequestTimeout:     "5m",
		},
		Merge: MergeConfig{
			WordMaxPauseMs:    merge.WordMaxPauseMs,
			WordMaxChars:      merge.WordMaxChars,
			SegmentMaxPauseMs: merge.SegmentMaxPauseMs,
			SegmentMaxChars:   merge.SegmentMaxChars,
		},
		Diarize: DiarizeConfig{
			SimilarityThreshold: opts.SimilarityThreshold,
			MinSpeakerShare:     opts.MinSpeakerShare,
			MaxSentenceGapMs:    opts.MaxSentenceGapMs,
			MinTransitionGapMs:  opts.MinTransitionGapMs,
			MaxJoinGapMs:        opts.MaxJoinGapMs,
		},
	}
}

// Load 加载配置：默认值 -> YAML 文件（可选）-> 环境变量覆盖，最后校验。
// path 为空时跳过文件加载。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides 环境变量优先级最高
func applyEnvOverrides(cfg *Config) {
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Speech.APIURL = getEnv("SPEECH_API_URL", cfg.Speech.APIURL)
	cfg.Translate.TranslatorURL = getEnv("TRANSLATOR_URL", cfg.Translate.TranslatorURL)
	cfg.Translate.SynthesizerURL = getEnv("SYNTHESIZER_URL", cfg.Translate.SynthesizerURL)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Pipeline.OutputDir = getEnv("OUTPUT_DIR", cfg.Pipeline.OutputDir)
	cfg.Pipeline.TmpDir = getEnv("TMP_DIR", cfg.Pipeline.TmpDir)
}

// Validate 验证配置的有效性
func Validate(cfg *Config) error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Speech.APIURL == "" {
		errors = append(errors, "speech.api_url cannot be empty")
	}
	if cfg.Speech.FailThreshold <= 0 {
		errors = append(errors, "speech.fail_threshold must be greater than 0")
	}
	if cfg.Pipeline.MaxConcurrentTurns <= 0 {
		errors = append(errors, "pipeline.max_concurrent_turns must be greater than 0")
	}
	if _, err := time.ParseDuration(cfg.Pipeline.RequestTimeout); err != nil {
		errors = append(errors, fmt.Sprintf("invalid pipeline.request_timeout: %s", cfg.Pipeline.RequestTimeout))
	}

	if cfg.Merge.WordMaxPauseMs <= 0 || cfg.Merge.SegmentMaxPauseMs <= 0 {
		errors = append(errors, "merge pause thresholds must be greater than 0")
	}
	if cfg.Merge.WordMaxChars <= 0 || cfg.Merge.SegmentMaxChars <= 0 {
		errors = append(errors, "merge length thresholds must be greater than 0")
	}

	if cfg.Diarize.SimilarityThreshold <= 0 || cfg.Diarize.SimilarityThreshold > 1 {
		errors = append(errors, "diarize.similarity_threshold must be in (0, 1]")
	}
	if cfg.Diarize.MinSpeakerShare < 0 || cfg.Diarize.MinSpeakerShare >= 1 {
		errors = append(errors, "diarize.min_speaker_share must be in [0, 1)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// MergeOptions 转换为短片段合并选项
func (c *Config) MergeOptions() transcript.MergeOptions {
	return transcript.MergeOptions{
		WordMaxPauseMs:    c.Merge.WordMaxPauseMs,
		WordMaxChars:      c.Merge.WordMaxChars,
		SegmentMaxPauseMs: c.Merge.SegmentMaxPauseMs,
		SegmentMaxChars:   c.Merge.SegmentMaxChars,
	}
}

// DiarizeOptions 转换为清理器选项
func (c *Config) DiarizeOptions() diarization.Options {
	return diarization.Options{
		SimilarityThreshold: c.Diarize.SimilarityThreshold,
		MinSpeakerShare:     c.Diarize.MinSpeakerShare,
		MaxSentenceGapMs:    c.Diarize.MaxSentenceGapMs,
		MinTransitionGapMs:  c.Diarize.MinTransitionGapMs,
		MaxJoinGapMs:        c.Diarize.MaxJoinGapMs,
	}
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
