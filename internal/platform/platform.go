// Package platform models the observation platforms a planning cycle
// distributes tasks to: a narrow handle interface, a registry, and a
// simulated runtime that stands in for the real onboard agent.
package platform

import (
	"context"
	"sort"
	"sync"
	"time"

	"satops-plan/internal/geo"
	"satops-plan/internal/target"
)

// Task is one tracking assignment handed to a platform.
type Task struct {
	CycleID       int64
	Target        *target.Target
	MinDistanceKM float64
	Confidence    float64
	WindowCount   int
	Score         float64
	AssignedAt    time.Time
}

// Handle is the planner-facing surface of one platform.
type Handle interface {
	ID() string
	// Position reports where the platform is at the given instant.
	Position(at time.Time) geo.Position
	// ReceiveTask delivers an assignment. Best effort: an error marks the
	// delivery failed but never aborts the cycle.
	ReceiveTask(ctx context.Context, task Task) error
}

// Registry is where the planner discovers platforms. Injected, never global.
type Registry interface {
	GetAllPlatforms() []Handle
}

// MemoryRegistry is an in-memory Registry safe for concurrent use.
type MemoryRegistry struct {
	mu        sync.RWMutex
	platforms map[string]Handle
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{platforms: make(map[string]Handle)}
}

// Register adds or replaces a platform by id.
func (r *MemoryRegistry) Register(p Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[p.ID()] = p
}

// Deregister removes a platform. Unknown ids are ignored.
func (r *MemoryRegistry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.platforms, id)
}

// GetAllPlatforms returns every registered platform sorted by id. The stable
// order makes tie-breaking in the distributor deterministic.
func (r *MemoryRegistry) GetAllPlatforms() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.platforms))
	for _, p := range r.platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
