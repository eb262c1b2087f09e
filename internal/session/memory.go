package session

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory session registry safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Handle
	now      func() time.Time
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Handle),
		now:      time.Now,
	}
}

// Open registers a new active session and returns its handle snapshot.
func (s *MemoryStore) Open(id string, participants []string, maxIterations int) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &Handle{
		ID:           id,
		Participants: append([]string(nil), participants...),
		Progress: Progress{
			MaxIterations: maxIterations,
			Status:        StatusActive,
			CreatedAt:     s.now().UTC(),
		},
	}
	s.sessions[id] = h
	return *h
}

// Advance bumps a session's iteration counter and quality score. It is a
// no-op on unknown or terminal sessions.
func (s *MemoryStore) Advance(id string, quality float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[id]
	if !ok || h.Progress.Status.Terminal() {
		return
	}
	h.Progress.Iteration++
	if quality > h.Progress.Quality {
		h.Progress.Quality = quality
	}
}

// ListActive returns the ids of all non-terminal sessions in sorted order.
func (s *MemoryStore) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, h := range s.sessions {
		if !h.Progress.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetProgress returns the progress snapshot for id.
func (s *MemoryStore) GetProgress(id string) (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[id]
	if !ok {
		return Progress{}, false
	}
	return h.Progress, true
}

// CompleteSession marks a session dissolved. False for unknown ids.
func (s *MemoryStore) CompleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[id]
	if !ok {
		return false
	}
	if !h.Progress.Status.Terminal() {
		h.Progress.Status = StatusDissolved
	}
	return true
}

// ForceUpdateStatus overwrites a session's status unconditionally.
func (s *MemoryStore) ForceUpdateStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.sessions[id]; ok {
		h.Progress.Status = status
	}
}

// RemoveSession drops a session from the registry.
func (s *MemoryStore) RemoveSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Snapshot returns copies of every registered session, sorted by id.
func (s *MemoryStore) Snapshot() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handle, 0, len(s.sessions))
	for _, h := range s.sessions {
		cp := *h
		cp.Participants = append([]string(nil), h.Participants...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetCreatedAt rewrites a session's creation time. Test hook for the
// monitor's timeout paths.
func (s *MemoryStore) SetCreatedAt(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.sessions[id]; ok {
		h.Progress.CreatedAt = at
	}
}
