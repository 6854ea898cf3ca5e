package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal 语音消息处理总数计数器
	// Labels: status (delivered/partial/failed)
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlate_messages_total",
			Help: "Total number of voice messages processed by final status",
		},
		[]string{"status"},
	)

	// LanguageVersionsTotal 目标语言音轨生成总数计数器
	// Labels: language, status (success/error)
	LanguageVersionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlate_language_versions_total",
			Help: "Total number of per-language translated tracks by outcome",
		},
		[]string{"language", "status"},
	)

	// PipelineErrorsTotal 流水线错误总数计数器
	// Labels: stage (convert/transcribe/clean/translate/assemble), error_code
	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlate_pipeline_errors_total",
			Help: "Total number of pipeline errors by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	// TranscriberDegraded 转写服务降级状态量规（0=正常，1=降级）
	TranscriberDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxlate_transcriber_degraded",
			Help: "Whether the transcription backend is running in degraded mode (0=primary, 1=fallback)",
		},
	)

	// StageDuration 流水线阶段耗时直方图（秒）
	// Labels: stage (convert/transcribe/clean/translate/assemble)
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s, 300s
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxlate_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// InFlightLanguages 当前正在处理的目标语言数量规
	InFlightLanguages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxlate_in_flight_languages",
			Help: "Number of per-language translation tasks currently in flight",
		},
	)

	// CacheRequestsTotal 缓存访问总数计数器
	// Labels: kind (version/translation/normalized), result (hit/miss)
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlate_cache_requests_total",
			Help: "Total number of cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// RecordMessage 记录一条消息的最终状态
func RecordMessage(status string) {
	MessagesTotal.WithLabelValues(status).Inc()
}

// RecordLanguageVersion 记录一条目标语言音轨的结果
func RecordLanguageVersion(language string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	LanguageVersionsTotal.WithLabelValues(language, status).Inc()
}

// RecordError 记录流水线错误
func RecordError(stage, errorCode string) {
	PipelineErrorsTotal.WithLabelValues(stage, errorCode).Inc()
}

// SetDegraded 设置转写降级状态
func SetDegraded(degraded bool) {
	if degraded {
		TranscriberDegraded.Set(1)
	} else {
		TranscriberDegraded.Set(0)
	}
}

// RecordStageDuration 记录流水线阶段耗时（秒）
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// LanguageStarted / LanguageFinished 维护在途语言数
func LanguageStarted() {
	InFlightLanguages.Inc()
}

func LanguageFinished() {
	InFlightLanguages.Dec()
}

// RecordCacheLookup 记录一次缓存访问
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(kind, result).Inc()
}
