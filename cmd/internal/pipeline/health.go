package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ServiceStatus is the current health state of a transcription backend. It is
// JSON-serializable so the API health endpoint can expose it directly.
type ServiceStatus struct {
	IsHealthy        bool      `json:"is_healthy"`
	LastCheckTime    time.Time `json:"last_check_time"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	ErrorMessage     string    `json:"error_message"`
}

// HealthChecker probes a Transcriber periodically and marks it unhealthy only
// after failThreshold consecutive failures, so one flaky probe does not
// bounce the pipeline into degraded mode.
type HealthChecker struct {
	transcriber   Transcriber
	status        *ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
}

// NewHealthChecker creates a checker for the given transcriber. The checker
// starts optimistic (healthy); call Start to begin probing.
func NewHealthChecker(transcriber Transcriber, checkInterval time.Duration, failThreshold int) *HealthChecker {
	return &HealthChecker{
		transcriber:   transcriber,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		status: &ServiceStatus{
			IsHealthy:     true,
			LastCheckTime: time.Now(),
		},
	}
}

// Start runs the probe loop until Stop is called or the context is cancelled.
// It performs an immediate check, then checks at the configured interval.
// Call it in its own goroutine; it blocks.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	hc.performCheck(ctx)

	for {
		select {
		case <-ticker.C:
			hc.performCheck(ctx)
		case <-hc.stopChan:
			log.Printf("[INFO] HealthChecker: Stopped for %s", hc.transcriber.Name())
			return
		case <-ctx.Done():
			log.Printf("[INFO] HealthChecker: Context cancelled for %s", hc.transcriber.Name())
			return
		}
	}
}

func (hc *HealthChecker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.transcriber.HealthCheck(checkCtx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
		return
	}

	hc.status.ConsecutiveFails++
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	hc.status.ErrorMessage = fmt.Sprintf("Health check failed: %s", errMsg)

	if hc.status.ConsecutiveFails >= hc.failThreshold {
		hc.status.IsHealthy = false
		log.Printf("[ERROR] HealthChecker: Health check failed %d times for %s, marking as unhealthy",
			hc.status.ConsecutiveFails, hc.transcriber.Name())
	} else {
		log.Printf("[WARN] HealthChecker: Health check failed (%d/%d) for %s: %s",
			hc.status.ConsecutiveFails, hc.failThreshold, hc.transcriber.Name(), errMsg)
	}
}

// GetStatus returns a copy of the current status.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status
}

// Stop terminates the probe loop. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	select {
	case <-hc.stopChan:
	default:
		close(hc.stopChan)
	}
}
