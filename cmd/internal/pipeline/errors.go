package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode 表示语音翻译流水线错误类型代码
type ErrorCode string

const (
	// FAILED_TRANSCRIPTION 转写失败（致命错误，整条消息处理中止）
	FAILED_TRANSCRIPTION ErrorCode = "FAILED_TRANSCRIPTION"

	// FAILED_LANGUAGE 单一目标语言失败（局部错误，其余语言不受影响）
	FAILED_LANGUAGE ErrorCode = "FAILED_LANGUAGE"

	// TRANSLATOR_UNAVAILABLE 翻译服务不可用（网络错误、服务未启动）
	TRANSLATOR_UNAVAILABLE ErrorCode = "TRANSLATOR_UNAVAILABLE"

	// SYNTHESIZER_UNAVAILABLE 语音合成服务不可用
	SYNTHESIZER_UNAVAILABLE ErrorCode = "SYNTHESIZER_UNAVAILABLE"

	// DEGRADED_SYNTHESIS 声音克隆失败，已降级为通用音色（警告）
	DEGRADED_SYNTHESIS ErrorCode = "DEGRADED_SYNTHESIS"

	// CONVERSION_FALLBACK 音频格式转换失败，使用原始文件继续（警告）
	CONVERSION_FALLBACK ErrorCode = "CONVERSION_FALLBACK"

	// FFMPEG_FAILED FFmpeg 音频处理失败
	FFMPEG_FAILED ErrorCode = "FFMPEG_FAILED"

	// INVALID_REQUEST 请求参数非法
	INVALID_REQUEST ErrorCode = "INVALID_REQUEST"
)

// PipeError 表示流水线处理错误
type PipeError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *PipeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链支持
func (e *PipeError) Unwrap() error {
	return e.Cause
}

// Fatal 报告该错误是否终止整条消息的处理。
// 只有转写失败与非法请求是致命的，其余错误均可局部降级。
func (e *PipeError) Fatal() bool {
	return e.Code == FAILED_TRANSCRIPTION || e.Code == INVALID_REQUEST
}

// NewPipeError 创建新的流水线错误
func NewPipeError(code ErrorCode, message string, cause error) *PipeError {
	return &PipeError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewTranscriptionError 创建转写失败错误
func NewTranscriptionError(cause error) *PipeError {
	return NewPipeError(FAILED_TRANSCRIPTION, "语音转写失败", cause)
}

// NewLanguageError 创建单语言失败错误
func NewLanguageError(lang string, cause error) *PipeError {
	msg := fmt.Sprintf("目标语言 %s 翻译失败", lang)
	return NewPipeError(FAILED_LANGUAGE, msg, cause)
}

// NewTranslatorUnavailableError 创建翻译服务不可用错误
func NewTranslatorUnavailableError(cause error) *PipeError {
	return NewPipeError(TRANSLATOR_UNAVAILABLE, "翻译服务不可达", cause)
}

// NewSynthesizerUnavailableError 创建合成服务不可用错误
func NewSynthesizerUnavailableError(cause error) *PipeError {
	return NewPipeError(SYNTHESIZER_UNAVAILABLE, "语音合成服务不可达", cause)
}

// NewConversionFallbackError 创建格式转换降级警告
func NewConversionFallbackError(path string, cause error) *PipeError {
	msg := fmt.Sprintf("音频转换失败，使用原始文件: %s", path)
	return NewPipeError(CONVERSION_FALLBACK, msg, cause)
}

// NewFFmpegError 创建 FFmpeg 错误
func NewFFmpegError(cause error) *PipeError {
	return NewPipeError(FFMPEG_FAILED, "FFmpeg 音频处理失败", cause)
}

// NewInvalidRequestError 创建非法请求错误
func NewInvalidRequestError(message string) *PipeError {
	return NewPipeError(INVALID_REQUEST, message, nil)
}

// AsPipeError 从错误链中提取 PipeError，若不存在则包装为给定代码
func AsPipeError(err error, fallback ErrorCode) *PipeError {
	var pe *PipeError
	if errors.As(err, &pe) {
		return pe
	}
	return NewPipeError(fallback, err.Error(), err)
}
