package pipeline

import (
	"log"
	"sync"
)

// DegradationController switches the pipeline between the primary transcriber
// and a fallback (MockTranscriber) based on the health checker's status, and
// switches back automatically when the primary recovers. All methods are safe
// for concurrent use.
type DegradationController struct {
	primary  Transcriber
	fallback Transcriber
	checker  *HealthChecker

	mu         sync.RWMutex
	current    Transcriber
	isDegraded bool
}

// NewDegradationController wires the transcribers and the checker monitoring
// the primary. The initial state is the primary (optimistic).
func NewDegradationController(primary, fallback Transcriber, checker *HealthChecker) *DegradationController {
	return &DegradationController{
		primary:  primary,
		fallback: fallback,
		checker:  checker,
		current:  primary,
	}
}

// GetTranscriber returns the active transcriber, degrading or recovering
// according to the latest health status. Transitions are logged once, not on
// every call.
func (dc *DegradationController) GetTranscriber() Transcriber {
	status := dc.checker.GetStatus()

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !status.IsHealthy && !dc.isDegraded {
		log.Printf("[WARN] DegradationController: Degrading to fallback transcriber (%s) due to unhealthy primary (%s)",
			dc.fallback.Name(), dc.primary.Name())
		dc.current = dc.fallback
		dc.isDegraded = true
	}

	if status.IsHealthy && dc.isDegraded {
		log.Printf("[INFO] DegradationController: Recovering to primary transcriber (%s)", dc.primary.Name())
		dc.current = dc.primary
		dc.isDegraded = false
	}

	return dc.current
}

// IsDegraded reports whether the fallback transcriber is active.
func (dc *DegradationController) IsDegraded() bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.isDegraded
}
