package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"satops-plan/internal/config"
	"satops-plan/internal/logging"
)

// Default completion heuristics. The wait budget itself comes from config;
// these are the per-session thresholds the source treats as constants.
const (
	qualityThreshold  = 0.85
	softTimeout       = 600 * time.Second
	softMinIterations = 3
	hardTimeout       = 900 * time.Second
)

// WaitBudget derives the monitor's maximum wait from the discussion policy:
// min(baseTimePerIteration × maxIterations × safetyMargin, absoluteCap).
func WaitBudget(d config.Discussion) time.Duration {
	base := d.BaseTimePerIterationS
	if base <= 0 {
		base = 60
	}
	iters := d.MaxIterations
	if iters <= 0 {
		iters = 5
	}
	margin := d.SafetyMargin
	if margin < 1 {
		margin = 1.5
	}
	limit := d.AbsoluteCapS
	if limit <= 0 {
		limit = 600
	}
	estimated := base * float64(iters) * margin
	if estimated > limit {
		estimated = limit
	}
	return time.Duration(estimated * float64(time.Second))
}

// Monitor polls the session registry and reaps sessions that meet the
// multi-signal completion heuristic. It never interprets session content.
type Monitor struct {
	store        Store
	pollInterval time.Duration
	now          func() time.Time
}

// NewMonitor creates a monitor polling store at the given cadence.
func NewMonitor(store Store, pollInterval time.Duration) *Monitor {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Monitor{store: store, pollInterval: pollInterval, now: time.Now}
}

// AwaitCompletion blocks until every listed session is completed and
// dissolved, or until maxWait elapses, at which point all remaining sessions
// are force-cleaned regardless of progress. Context cancellation takes the
// same force-clean path.
func (m *Monitor) AwaitCompletion(ctx context.Context, ids []string, maxWait time.Duration) {
	log := logging.FromContext(ctx)

	active := m.filterActive(ids)
	if len(active) == 0 {
		log.Info("no active sessions to wait on")
		return
	}
	log.Info("waiting on sessions", "count", len(active), "max_wait", maxWait)

	start := m.now()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		active = m.reapCompleted(ctx, active)
		if len(active) == 0 {
			log.Info("all sessions completed", "elapsed", m.now().Sub(start).Round(time.Millisecond))
			return
		}

		elapsed := m.now().Sub(start)
		log.Info("sessions still discussing",
			"remaining", len(active),
			"elapsed", elapsed.Round(time.Millisecond),
			"progress", m.progressSummary(active))

		if elapsed >= maxWait {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Warn("wait cancelled, force-cleaning sessions", "remaining", len(active))
			m.forceClean(ctx, active)
			return
		}
	}

	log.Warn("wait budget exhausted, force-cleaning sessions", "remaining", len(active))
	m.forceClean(ctx, active)
}

// ForceCleanAll reaps every active session immediately. Used on shutdown and
// when a new cycle preempts an unfinished one.
func (m *Monitor) ForceCleanAll(ctx context.Context) {
	m.forceClean(ctx, m.store.ListActive())
}

func (m *Monitor) filterActive(ids []string) []string {
	var active []string
	for _, id := range ids {
		if prog, ok := m.store.GetProgress(id); ok && !prog.Status.Terminal() {
			active = append(active, id)
		}
	}
	return active
}

// reapCompleted dissolves every session the heuristic classifies as done and
// returns the ids still in flight.
func (m *Monitor) reapCompleted(ctx context.Context, ids []string) []string {
	log := logging.FromContext(ctx)
	var remaining []string
	for _, id := range ids {
		prog, ok := m.store.GetProgress(id)
		if !ok {
			continue
		}
		if !m.completed(prog) {
			remaining = append(remaining, id)
			continue
		}
		if !m.store.CompleteSession(id) {
			// Dissolution failures are logged, not retried.
			log.Warn("session dissolution failed", "session_id", id)
		}
	}
	return remaining
}

// completed applies the multi-signal heuristic in fixed order: explicit
// completion, iteration budget, quality bar, terminal store status, soft
// timeout with partial progress, hard timeout.
func (m *Monitor) completed(prog Progress) bool {
	if prog.Status == StatusCompleted {
		return true
	}
	if prog.MaxIterations > 0 && prog.Iteration >= prog.MaxIterations {
		return true
	}
	if prog.Quality >= qualityThreshold {
		return true
	}
	if prog.Status.Terminal() {
		return true
	}
	elapsed := m.now().Sub(prog.CreatedAt)
	if elapsed > softTimeout && prog.Iteration >= softMinIterations {
		return true
	}
	return elapsed > hardTimeout
}

func (m *Monitor) forceClean(ctx context.Context, ids []string) {
	log := logging.FromContext(ctx)
	for _, id := range ids {
		m.store.ForceUpdateStatus(id, StatusForceClean)
		m.store.RemoveSession(id)
		log.Warn("force-cleaned session", "session_id", id)
	}
}

func (m *Monitor) progressSummary(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		prog, ok := m.store.GetProgress(id)
		if !ok {
			continue
		}
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		parts = append(parts, fmt.Sprintf("%s(%d/%d, Q:%.2f)",
			short, prog.Iteration, prog.MaxIterations, prog.Quality))
	}
	return strings.Join(parts, ", ")
}
