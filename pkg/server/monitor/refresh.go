// Package monitor tracks background task health for the /v1/health endpoint.
package monitor

import (
	"sync"
	"time"
)

// maxConsecutiveFailures before the refresh loop is reported unhealthy.
const maxConsecutiveFailures = 3

// RefreshMonitor tracks how the periodic dashboard refresh is doing.
// It satisfies controller.TickObserver.
type RefreshMonitor struct {
	mu                sync.RWMutex
	interval          time.Duration
	lastSuccess       time.Time
	lastAttempt       time.Time
	consecutiveErrors int
	lastError         string
	now               func() time.Time
}

// NewRefreshMonitor creates a monitor for a refresh loop ticking every interval.
func NewRefreshMonitor(interval time.Duration) *RefreshMonitor {
	return &RefreshMonitor{interval: interval, now: time.Now}
}

// RecordSuccess records a successful refresh (or the initial load).
func (m *RefreshMonitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.lastSuccess = now
	m.lastAttempt = now
	m.consecutiveErrors = 0
	m.lastError = ""
}

// RecordFailure records a failed refresh.
func (m *RefreshMonitor) RecordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAttempt = m.now()
	m.consecutiveErrors++
	if err != nil {
		m.lastError = err.Error()
	}
}

// IsHealthy returns true if the dashboard is being kept fresh.
// Unhealthy conditions:
//   - Never succeeded
//   - No success for more than three intervals
//   - More than three consecutive failures
func (m *RefreshMonitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthyLocked()
}

func (m *RefreshMonitor) healthyLocked() bool {
	if m.lastSuccess.IsZero() {
		return false
	}
	if m.now().Sub(m.lastSuccess) > 3*m.interval {
		return false
	}
	return m.consecutiveErrors <= maxConsecutiveFailures
}

// RefreshStatus is the refresh section of the health response.
type RefreshStatus struct {
	Healthy           bool   `json:"healthy"`
	Interval          string `json:"interval"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns current refresh status for health checks.
func (m *RefreshMonitor) Status() RefreshStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := RefreshStatus{
		Healthy:  m.healthyLocked(),
		Interval: m.interval.String(),
	}

	if !m.lastSuccess.IsZero() {
		status.LastSuccess = m.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = m.now().Sub(m.lastSuccess).String()
	}

	if !m.lastAttempt.IsZero() {
		status.LastAttempt = m.lastAttempt.Format(time.RFC3339)
	}

	if m.consecutiveErrors > 0 {
		status.ConsecutiveErrors = m.consecutiveErrors
		status.LastError = m.lastError
	}

	return status
}
