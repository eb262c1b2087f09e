package session

import (
	"testing"
	"time"
)

func TestMemoryStore_OpenAndAdvance(t *testing.T) {
	store := NewMemoryStore()
	h := store.Open("sess-1", []string{"sat-01", "sat-02"}, 5)
	if h.Progress.Status != StatusActive {
		t.Fatalf("expected active status, got %s", h.Progress.Status)
	}
	if h.Progress.Iteration != 0 {
		t.Fatalf("expected iteration 0, got %d", h.Progress.Iteration)
	}

	store.Advance("sess-1", 0.4)
	store.Advance("sess-1", 0.7)
	store.Advance("sess-1", 0.5)

	prog, ok := store.GetProgress("sess-1")
	if !ok {
		t.Fatal("session not found after advance")
	}
	if prog.Iteration != 3 {
		t.Errorf("expected 3 iterations, got %d", prog.Iteration)
	}
	if prog.Quality != 0.7 {
		t.Errorf("quality should keep its maximum, got %f", prog.Quality)
	}
}

func TestMemoryStore_AdvanceIgnoresTerminal(t *testing.T) {
	store := NewMemoryStore()
	store.Open("sess-1", nil, 5)
	if !store.CompleteSession("sess-1") {
		t.Fatal("completing a known session should succeed")
	}

	store.Advance("sess-1", 0.9)
	prog, _ := store.GetProgress("sess-1")
	if prog.Iteration != 0 || prog.Quality != 0 {
		t.Errorf("terminal session mutated: iter=%d quality=%f", prog.Iteration, prog.Quality)
	}
	if prog.Status != StatusDissolved {
		t.Errorf("expected dissolved, got %s", prog.Status)
	}
}

func TestMemoryStore_CompleteUnknownFails(t *testing.T) {
	store := NewMemoryStore()
	if store.CompleteSession("nope") {
		t.Error("completing an unknown session should report failure")
	}
}

func TestMemoryStore_ListActiveSortedAndFiltered(t *testing.T) {
	store := NewMemoryStore()
	store.Open("b", nil, 3)
	store.Open("a", nil, 3)
	store.Open("c", nil, 3)
	store.ForceUpdateStatus("b", StatusFailed)

	ids := store.ListActive()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("expected [a c], got %v", ids)
	}
}

func TestMemoryStore_RemoveSession(t *testing.T) {
	store := NewMemoryStore()
	store.Open("sess-1", nil, 3)
	store.RemoveSession("sess-1")
	if _, ok := store.GetProgress("sess-1"); ok {
		t.Error("removed session still present")
	}
}

func TestStatus_Terminal(t *testing.T) {
	cases := map[Status]bool{
		StatusActive:     false,
		StatusCompleted:  true,
		StatusDissolved:  true,
		StatusFailed:     true,
		StatusForceClean: true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestMemoryStore_SnapshotCopies(t *testing.T) {
	store := NewMemoryStore()
	store.Open("sess-1", []string{"sat-01"}, 3)

	snap := store.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 handle, got %d", len(snap))
	}
	snap[0].Participants[0] = "mutated"

	again := store.Snapshot()
	if again[0].Participants[0] != "sat-01" {
		t.Error("snapshot shares participant slice with registry")
	}
}

func TestMemoryStore_SetCreatedAt(t *testing.T) {
	store := NewMemoryStore()
	store.Open("sess-1", nil, 3)
	past := time.Now().Add(-time.Hour)
	store.SetCreatedAt("sess-1", past)
	prog, _ := store.GetProgress("sess-1")
	if !prog.CreatedAt.Equal(past) {
		t.Errorf("expected created_at %v, got %v", past, prog.CreatedAt)
	}
}
