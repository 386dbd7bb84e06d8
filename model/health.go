package model

import (
	"sync"
	"time"
)

// EndpointHealth tracks the health status of a model endpoint.
type EndpointHealth struct {
	// Available indicates if the endpoint is currently usable.
	Available bool `json:"available"`

	// LastSuccess is the time of the last successful request.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// LastFailure is the time of the last failed request.
	LastFailure time.Time `json:"last_failure,omitempty"`

	// FailureCount is the number of consecutive failures.
	FailureCount int `json:"failure_count"`

	// CircuitOpen indicates if the circuit breaker has tripped.
	CircuitOpen bool `json:"circuit_open"`

	// CircuitOpenedAt is when the circuit was opened.
	CircuitOpenedAt time.Time `json:"circuit_opened_at,omitempty"`
}

// HealthConfig configures endpoint health tracking.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures before
	// opening the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long to wait before trying a failed
	// endpoint again.
	RecoveryTimeout time.Duration
}

// DefaultHealthConfig returns sensible defaults for health tracking.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

// healthState stores endpoint health information.
type healthState struct {
	mu       sync.Mutex
	config   HealthConfig
	statuses map[string]*EndpointHealth
}

func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		statuses: make(map[string]*EndpointHealth),
	}
}

func (h *healthState) getOrCreate(name string) *EndpointHealth {
	if status, ok := h.statuses[name]; ok {
		return status
	}
	status := &EndpointHealth{Available: true}
	h.statuses[name] = status
	return status
}

// MarkEndpointSuccess records a successful request to an endpoint,
// resetting its failure count and closing any open circuit.
func (r *Registry) MarkEndpointSuccess(name string) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status := r.health.getOrCreate(name)
	status.Available = true
	status.LastSuccess = time.Now()
	status.FailureCount = 0
	status.CircuitOpen = false
}

// MarkEndpointFailure records a failed request to an endpoint. The
// circuit opens after FailureThreshold consecutive failures.
func (r *Registry) MarkEndpointFailure(name string) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status := r.health.getOrCreate(name)
	status.LastFailure = time.Now()
	status.FailureCount++

	if status.FailureCount >= r.health.config.FailureThreshold {
		status.Available = false
		status.CircuitOpen = true
		status.CircuitOpenedAt = time.Now()
	}
}

// IsEndpointAvailable reports whether an endpoint can be tried.
// An open circuit transitions to half-open after RecoveryTimeout,
// allowing one probe request through.
func (r *Registry) IsEndpointAvailable(name string) bool {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status, ok := r.health.statuses[name]
	if !ok {
		return true
	}
	if !status.CircuitOpen {
		return true
	}
	if time.Since(status.CircuitOpenedAt) >= r.health.config.RecoveryTimeout {
		// Half-open: let a probe through. Success closes the circuit,
		// failure re-opens it.
		status.CircuitOpenedAt = time.Now()
		return true
	}
	return false
}

// EndpointStatus returns a copy of the health status for an endpoint,
// or nil if no requests have been recorded.
func (r *Registry) EndpointStatus(name string) *EndpointHealth {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	status, ok := r.health.statuses[name]
	if !ok {
		return nil
	}
	copied := *status
	return &copied
}

// GetAvailableFallbackChain returns the fallback chain for a capability
// with circuit-open endpoints filtered out. If every endpoint in the
// chain is unavailable, the full chain is returned so callers still make
// a last-ditch attempt.
func (r *Registry) GetAvailableFallbackChain(cap Capability) []string {
	chain := r.GetFallbackChain(cap)

	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if r.IsEndpointAvailable(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return chain
	}
	return available
}
