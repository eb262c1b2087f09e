package session

import (
	"context"
	"testing"
	"time"

	"satops-plan/internal/config"
)

func TestWaitBudget(t *testing.T) {
	tests := []struct {
		name string
		d    config.Discussion
		want time.Duration
	}{
		{
			name: "defaults stay under absolute limit",
			d:    config.Discussion{},
			want: 450 * time.Second,
		},
		{
			name: "small estimate under cap",
			d:    config.Discussion{BaseTimePerIterationS: 10, MaxIterations: 4, SafetyMargin: 1.5, AbsoluteCapS: 600},
			want: 60 * time.Second,
		},
		{
			name: "estimate clamped to cap",
			d:    config.Discussion{BaseTimePerIterationS: 120, MaxIterations: 10, SafetyMargin: 2, AbsoluteCapS: 300},
			want: 300 * time.Second,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WaitBudget(tt.d); got != tt.want {
				t.Errorf("WaitBudget = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonitor_CompletedHeuristics(t *testing.T) {
	now := time.Now()
	m := &Monitor{now: func() time.Time { return now }}

	tests := []struct {
		name string
		prog Progress
		want bool
	}{
		{
			name: "explicit completed status",
			prog: Progress{Status: StatusCompleted, CreatedAt: now},
			want: true,
		},
		{
			name: "iteration budget exhausted regardless of quality",
			prog: Progress{Status: StatusActive, Iteration: 5, MaxIterations: 5, Quality: 0.1, CreatedAt: now},
			want: true,
		},
		{
			name: "quality bar met at iteration zero",
			prog: Progress{Status: StatusActive, Iteration: 0, MaxIterations: 5, Quality: 0.85, CreatedAt: now},
			want: true,
		},
		{
			name: "terminal store status",
			prog: Progress{Status: StatusFailed, CreatedAt: now},
			want: true,
		},
		{
			name: "soft timeout with partial progress",
			prog: Progress{Status: StatusActive, Iteration: 3, MaxIterations: 10, CreatedAt: now.Add(-601 * time.Second)},
			want: true,
		},
		{
			name: "soft timeout without progress stays active",
			prog: Progress{Status: StatusActive, Iteration: 2, MaxIterations: 10, CreatedAt: now.Add(-601 * time.Second)},
			want: false,
		},
		{
			name: "hard timeout regardless of progress",
			prog: Progress{Status: StatusActive, Iteration: 0, MaxIterations: 10, CreatedAt: now.Add(-901 * time.Second)},
			want: true,
		},
		{
			name: "mid-flight session stays active",
			prog: Progress{Status: StatusActive, Iteration: 2, MaxIterations: 5, Quality: 0.6, CreatedAt: now},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.completed(tt.prog); got != tt.want {
				t.Errorf("completed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonitor_AwaitCompletion_ReapsCompleted(t *testing.T) {
	store := NewMemoryStore()
	store.Open("sess-1", nil, 3)
	store.Open("sess-2", nil, 3)
	store.Advance("sess-1", 0.9) // quality bar
	store.Advance("sess-2", 0.2)
	store.Advance("sess-2", 0.2)
	store.Advance("sess-2", 0.2) // iteration budget

	m := NewMonitor(store, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		m.AwaitCompletion(context.Background(), []string{"sess-1", "sess-2"}, time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not return after all sessions completed")
	}

	for _, id := range []string{"sess-1", "sess-2"} {
		prog, ok := store.GetProgress(id)
		if !ok {
			t.Fatalf("%s missing from registry", id)
		}
		if prog.Status != StatusDissolved {
			t.Errorf("%s status = %s, want dissolved", id, prog.Status)
		}
	}
}

func TestMonitor_AwaitCompletion_ForceCleansOnBudget(t *testing.T) {
	store := NewMemoryStore()
	store.Open("stuck", nil, 10)

	m := NewMonitor(store, 50*time.Millisecond)
	start := time.Now()
	m.AwaitCompletion(context.Background(), []string{"stuck"}, 300*time.Millisecond)
	elapsed := time.Since(start)

	// Force-clean must land within one poll interval of the budget.
	if elapsed > 300*time.Millisecond+2*50*time.Millisecond {
		t.Errorf("force-clean took %v, budget was 300ms", elapsed)
	}
	if _, ok := store.GetProgress("stuck"); ok {
		t.Error("force-cleaned session should be removed from registry")
	}
	if ids := store.ListActive(); len(ids) != 0 {
		t.Errorf("expected no active sessions, got %v", ids)
	}
}

func TestMonitor_AwaitCompletion_ForceCleanStatusRecorded(t *testing.T) {
	// A store that rejects removal lets us observe the force_cleaned status.
	store := NewMemoryStore()
	store.Open("stuck", nil, 10)
	wrapped := &removeRejectingStore{MemoryStore: store}

	m := NewMonitor(wrapped, 20*time.Millisecond)
	m.AwaitCompletion(context.Background(), []string{"stuck"}, 60*time.Millisecond)

	prog, ok := store.GetProgress("stuck")
	if !ok {
		t.Fatal("session vanished despite rejected removal")
	}
	if prog.Status != StatusForceClean {
		t.Errorf("status = %s, want %s", prog.Status, StatusForceClean)
	}
}

func TestMonitor_AwaitCompletion_ContextCancel(t *testing.T) {
	store := NewMemoryStore()
	store.Open("stuck", nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewMonitor(store, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.AwaitCompletion(ctx, []string{"stuck"}, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancel")
	}
	if ids := store.ListActive(); len(ids) != 0 {
		t.Errorf("cancel should force-clean, still active: %v", ids)
	}
}

func TestMonitor_AwaitCompletion_NoActiveSessions(t *testing.T) {
	store := NewMemoryStore()
	store.Open("done", nil, 3)
	store.CompleteSession("done")

	m := NewMonitor(store, 10*time.Millisecond)
	start := time.Now()
	m.AwaitCompletion(context.Background(), []string{"done", "ghost"}, time.Hour)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("returned after %v, expected immediate return", elapsed)
	}
}

func TestMonitor_ForceCleanAll(t *testing.T) {
	store := NewMemoryStore()
	store.Open("a", nil, 3)
	store.Open("b", nil, 3)

	m := NewMonitor(store, time.Second)
	m.ForceCleanAll(context.Background())

	if ids := store.ListActive(); len(ids) != 0 {
		t.Errorf("expected empty registry, got %v", ids)
	}
}

func TestMonitor_ProgressSummaryFormat(t *testing.T) {
	store := NewMemoryStore()
	store.Open("abcdefgh-1234", nil, 5)
	store.Advance("abcdefgh-1234", 0.5)
	store.Advance("abcdefgh-1234", 0.5)

	m := NewMonitor(store, time.Second)
	got := m.progressSummary([]string{"abcdefgh-1234"})
	want := "abcdefgh(2/5, Q:0.50)"
	if got != want {
		t.Errorf("progressSummary = %q, want %q", got, want)
	}
}

// removeRejectingStore keeps force-cleaned sessions in the registry so tests
// can assert the recorded status.
type removeRejectingStore struct {
	*MemoryStore
}

func (s *removeRejectingStore) RemoveSession(string) {}
