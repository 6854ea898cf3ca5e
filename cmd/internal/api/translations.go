package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxlate/voxlate/cmd/internal/cache"
	"github.com/voxlate/voxlate/cmd/internal/middleware"
	"github.com/voxlate/voxlate/cmd/internal/pipeline"
)

// Handler 持有翻译 API 的依赖
type Handler struct {
	orchestrator *pipeline.Orchestrator
	cache        *cache.Service
	checker      *pipeline.HealthChecker
	controller   *pipeline.DegradationController
}

// NewHandler 创建 API handler
func NewHandler(o *pipeline.Orchestrator, c *cache.Service, hc *pipeline.HealthChecker, dc *pipeline.DegradationController) *Handler {
	return &Handler{
		orchestrator: o,
		cache:        c,
		checker:      hc,
		controller:   dc,
	}
}

// Router 装配 gin 路由
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/translations", h.createTranslation)
		v1.GET("/translations/:message_id/:attachment_id/:lang", h.getVersion)
		v1.GET("/health", h.health)
	}
	return r
}

// createTranslation 处理一条语音消息的翻译请求。
// 转写失败或非法请求返回错误；单语言失败不影响响应中的其余语言。
func (h *Handler) createTranslation(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}
	c.Set("message_id", req.MessageID)

	result, err := h.orchestrator.Process(c.Request.Context(), req)
	if err != nil {
		var perr *pipeline.PipeError
		if errors.As(err, &perr) {
			switch perr.Code {
			case pipeline.INVALID_REQUEST:
				c.JSON(http.StatusBadRequest, gin.H{"error": perr.Message, "code": perr.Code, "result": result})
			case pipeline.FAILED_TRANSCRIPTION:
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": perr.Message, "code": perr.Code, "result": result})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": perr.Message, "code": perr.Code, "result": result})
			}
			return
		}
		internalErrorResponse(c, err)
		return
	}

	// 全部语言失败：转写成功但无任何可交付音轨
	if len(result.Versions) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "all target languages failed", "result": result})
		return
	}

	successResponse(c, result)
}

// getVersion 查询缓存的翻译音轨
func (h *Handler) getVersion(c *gin.Context) {
	messageID := c.Param("message_id")
	attachmentID := c.Param("attachment_id")
	lang := c.Param("lang")

	if h.cache == nil {
		errorResponse(c, http.StatusNotFound, "version cache disabled")
		return
	}

	version, ok := h.cache.GetVersion(c.Request.Context(), messageID, attachmentID, lang)
	if !ok {
		errorResponse(c, http.StatusNotFound, "translated version not found")
		return
	}
	successResponse(c, version)
}

// health 报告转写后端健康与降级状态
func (h *Handler) health(c *gin.Context) {
	status := h.checker.GetStatus()

	code := http.StatusOK
	if !status.IsHealthy {
		// 降级模式下服务仍然可用，但用 503 提醒监控
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"transcriber": status,
		"degraded":    h.controller.IsDegraded(),
	})
}
