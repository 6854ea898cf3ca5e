package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voxlate/voxlate/cmd/internal/api"
	"github.com/voxlate/voxlate/cmd/internal/cache"
	"github.com/voxlate/voxlate/cmd/internal/config"
	"github.com/voxlate/voxlate/cmd/internal/media"
	"github.com/voxlate/voxlate/cmd/internal/pipeline"
	"github.com/voxlate/voxlate/cmd/internal/speaker"
	"github.com/voxlate/voxlate/cmd/internal/translate"
	"github.com/voxlate/voxlate/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		WithSource:  !cfg.IsProduction(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "server")
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	for _, dir := range []string{cfg.Pipeline.OutputDir, cfg.Pipeline.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			appLogger.Error("failed to create working directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Cache: in-process LRU, with Redis in front when configured
	ttl, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		appLogger.Error("invalid cache TTL", "ttl", cfg.Cache.TTL, "error", err)
		os.Exit(1)
	}
	var backend cache.Backend = cache.NewMemoryBackend(cfg.Cache.Capacity)
	if cfg.Cache.RedisAddr != "" {
		backend = cache.NewFallbackBackend(
			cache.NewRedisBackend(cfg.Cache.RedisAddr),
			cache.NewMemoryBackend(cfg.Cache.Capacity),
			appLogger,
		)
		appLogger.Info("redis cache enabled", "addr", cfg.Cache.RedisAddr)
	}
	cacheSvc := cache.NewService(backend, ttl)
	defer cacheSvc.Close()

	// Transcription with automatic degradation
	checkInterval, err := time.ParseDuration(cfg.Speech.HealthCheckInterval)
	if err != nil {
		appLogger.Error("invalid health check interval", "error", err)
		os.Exit(1)
	}
	primary := pipeline.NewHTTPTranscriber(cfg.Speech.APIURL)
	checker := pipeline.NewHealthChecker(primary, checkInterval, cfg.Speech.FailThreshold)
	controller := pipeline.NewDegradationController(primary, pipeline.NewMockTranscriber(), checker)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	go checker.Start(rootCtx)

	// Translation and synthesis
	profiles := speaker.NewProfileStore(256)
	translator := translate.NewCachedTranslator(
		translate.NewHTTPTranslator(cfg.Translate.TranslatorURL, 2*time.Minute), cacheSvc)
	synthesizer := translate.NewHTTPSynthesizer(cfg.Translate.SynthesizerURL, 5*time.Minute)
	turnTranslator := translate.NewTurnTranslator(translator, synthesizer, profiles, appLogger)

	// Audio plumbing
	normalizer := media.NewCachedNormalizer(media.NewFFmpegNormalizer(cfg.Pipeline.TmpDir))
	concat := media.NewFFmpegConcatenator(cfg.Pipeline.TmpDir)

	requestTimeout, err := time.ParseDuration(cfg.Pipeline.RequestTimeout)
	if err != nil {
		appLogger.Error("invalid request timeout", "error", err)
		os.Exit(1)
	}

	orchCfg := pipeline.DefaultConfig()
	orchCfg.MergeOptions = cfg.MergeOptions()
	orchCfg.CleanOptions = cfg.DiarizeOptions()
	orchCfg.MaxConcurrentTurns = cfg.Pipeline.MaxConcurrentTurns
	orchCfg.RequestTimeout = requestTimeout
	orchCfg.OutputDir = cfg.Pipeline.OutputDir

	orchestrator, err := pipeline.NewOrchestrator(pipeline.Collaborators{
		Controller: controller,
		Normalizer: normalizer,
		Translator: turnTranslator,
		Profiles:   profiles,
		Concat:     concat,
		Cache:      cacheSvc,
	}, orchCfg, appLogger)
	if err != nil {
		appLogger.Error("orchestrator init failed", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(orchestrator, cacheSvc, checker, controller)
	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: handler.Router(),
	}

	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	checker.Stop()
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}
