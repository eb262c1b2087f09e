// Collaborative session registry types and the store contract.
package session

import (
	"time"
)

// Status tags a collaborative session's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusDissolved  Status = "dissolved"
	StatusFailed     Status = "failed"
	StatusForceClean Status = "force_cleaned"
)

// Terminal reports whether the status ends a session's life.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDissolved, StatusFailed, StatusForceClean:
		return true
	}
	return false
}

// Progress is the monitor-visible snapshot of one session.
type Progress struct {
	Iteration     int       `json:"iteration"`
	MaxIterations int       `json:"max_iterations"`
	Quality       float64   `json:"quality"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Handle is one registered collaborative session. The registry owns it; the
// planner and monitor reference sessions by id only.
type Handle struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	Progress     Progress `json:"progress"`
}

// Store is the narrow session-registry interface the monitor reaps through.
// The concrete registry is injected; there is no process-wide singleton.
type Store interface {
	ListActive() []string
	GetProgress(id string) (Progress, bool)
	// CompleteSession dissolves a session; false means dissolution failed.
	CompleteSession(id string) bool
	ForceUpdateStatus(id string, status Status)
	RemoveSession(id string)
}
