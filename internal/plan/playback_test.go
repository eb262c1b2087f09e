package plan

import (
	"strings"
	"testing"
	"time"
)

func TestReplayLog(t *testing.T) {
	input := strings.Join([]string{
		`{"cycle_id":1,"state":"completed","ts":"2026-01-01T00:00:00Z"}`,
		`{"cycle_id":2,"state":"completed","ts":"2026-01-01T00:00:05Z"}`,
	}, "\n")

	w := &captureWriter{}
	if err := ReplayLog(strings.NewReader(input), w, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(w.cycles) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(w.cycles))
	}
	if w.cycles[0].CycleID != 1 || w.cycles[1].CycleID != 2 {
		t.Errorf("rows out of order: %+v", w.cycles)
	}
}

func TestReplayLogSpeed(t *testing.T) {
	input := strings.Join([]string{
		`{"cycle_id":1,"ts":"2026-01-01T00:00:00Z"}`,
		`{"cycle_id":2,"ts":"2026-01-01T00:00:01Z"}`,
	}, "\n")

	w := &captureWriter{}
	start := time.Now()
	// 100x speed turns the 1s gap into ~10ms.
	if err := ReplayLog(strings.NewReader(input), w, 100); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 5*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Errorf("unexpected replay duration %v", elapsed)
	}
}

func TestReplayLogBadInput(t *testing.T) {
	w := &captureWriter{}
	if err := ReplayLog(strings.NewReader("{not json"), w, 0); err == nil {
		t.Error("expected decode error")
	}
}
