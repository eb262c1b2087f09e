// Engine orchestrating rolling planning cycles
package plan

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"satops-plan/internal/config"
	"satops-plan/internal/geo"
	"satops-plan/internal/logging"
	"satops-plan/internal/platform"
	"satops-plan/internal/session"
	"satops-plan/internal/target"
)

// State labels one phase of a planning cycle.
type State string

const (
	StateIdle              State = "idle"
	StateInitializing      State = "initializing"
	StateCollectingTargets State = "collecting_targets"
	StateDistributingTasks State = "distributing_tasks"
	StateDiscussing        State = "discussing"
	StateGatheringResults  State = "gathering_results"
	StateGeneratingReports State = "generating_reports"
	StateCompleted         State = "completed"
	StateError             State = "error"
)

// Terminal reports whether the state ends a cycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// Transition records one state change with its instant.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// Metadata aggregates what a cycle produced. Typed on purpose: downstream
// consumers read fields, not a free-form map.
type Metadata struct {
	DetectionCount  int      `json:"detection_count"`
	PlatformCount   int      `json:"platform_count"`
	AssignmentCount int      `json:"assignment_count"`
	UnassignedCount int      `json:"unassigned_count"`
	SessionIDs      []string `json:"session_ids,omitempty"`
	MeanGDOP        float64  `json:"mean_gdop,omitempty"`
	GeometryQuality string   `json:"geometry_quality,omitempty"`
	ReportPath      string   `json:"report_path,omitempty"`
	ForcedComplete  bool     `json:"forced_complete,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Cycle is one planning cycle from initialization to a terminal state.
type Cycle struct {
	ID          int64        `json:"id"`
	State       State        `json:"state"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Transitions []Transition `json:"transitions"`
	Metadata    Metadata     `json:"metadata"`
}

// ReportSink persists cycle reports. Failures are advisory: a cycle never
// fails because its report could not be written.
type ReportSink interface {
	WriteCycleReport(ctx context.Context, cycle Cycle, assignments []Assignment, geometry []GeometryRow) (string, error)
}

// Engine runs rolling planning cycles: collect tracked targets, distribute
// them across platforms, wait out the discussions, score the observation
// geometry, and report. Exactly one cycle is in flight at a time; a new
// cycle preempts an unfinished predecessor by force-completing it.
type Engine struct {
	cfg      *config.PlanningConfig
	registry platform.Registry
	store    session.Store
	monitor  *session.Monitor
	dist     *Distributor
	collect  func(ctx context.Context) []*target.Target
	writer   CycleWriter
	assignW  AssignmentWriter
	geomW    GeometryWriter
	reports  ReportSink
	now      func() time.Time

	mu      sync.Mutex
	counter int64
	current *Cycle
	history []Cycle
}

// NewEngine wires a planning engine. assignW, geomW, and reports may be nil
// to skip those outputs; collect supplies the cycle's tracked targets.
func NewEngine(
	cfg *config.PlanningConfig,
	registry platform.Registry,
	store session.Store,
	monitor *session.Monitor,
	collect func(ctx context.Context) []*target.Target,
	writer CycleWriter,
	assignW AssignmentWriter,
	geomW GeometryWriter,
	reports ReportSink,
) *Engine {
	return &Engine{
		cfg:      cfg,
		registry: registry,
		store:    store,
		monitor:  monitor,
		dist:     NewDistributor(cfg.Distribution),
		collect:  collect,
		writer:   writer,
		assignW:  assignW,
		geomW:    geomW,
		reports:  reports,
		now:      time.Now,
	}
}

// Counter returns the last issued cycle id.
func (e *Engine) Counter() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter
}

// CurrentCycle returns a snapshot of the in-flight cycle, if any.
func (e *Engine) CurrentCycle() (Cycle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Cycle{}, false
	}
	return snapshotCycle(e.current), true
}

// History returns completed cycles, oldest first. The history is
// append-only; completed cycles are never rewritten.
func (e *Engine) History() []Cycle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Cycle, len(e.history))
	for i := range e.history {
		out[i] = snapshotCycle(&e.history[i])
	}
	return out
}

// CheckAndExecuteCycle runs one full planning cycle and returns it. It
// returns nil without running when the cycle budget is spent. An unfinished
// previous cycle is force-completed first; the cycle counter only ever
// increases.
func (e *Engine) CheckAndExecuteCycle(ctx context.Context) *Cycle {
	log := logging.FromContext(ctx)

	e.mu.Lock()
	if e.cfg.MaxCycles > 0 && e.counter >= int64(e.cfg.MaxCycles) {
		e.mu.Unlock()
		log.Info("cycle budget exhausted", "max_cycles", e.cfg.MaxCycles)
		return nil
	}
	if e.current != nil && !e.current.State.Terminal() {
		log.Warn("force-completing unfinished cycle", "cycle_id", e.current.ID, "state", e.current.State)
		e.current.State = StateCompleted
		e.current.CompletedAt = e.now().UTC()
		e.current.Metadata.ForcedComplete = true
		e.current.Transitions = append(e.current.Transitions, Transition{State: StateCompleted, At: e.current.CompletedAt})
		e.history = append(e.history, snapshotCycle(e.current))
		e.mu.Unlock()
		e.monitor.ForceCleanAll(ctx)
		e.mu.Lock()
	}
	e.counter++
	cycle := &Cycle{ID: e.counter, State: StateIdle, StartedAt: e.now().UTC()}
	e.current = cycle
	e.mu.Unlock()

	e.run(ctx, cycle)

	e.mu.Lock()
	e.history = append(e.history, snapshotCycle(cycle))
	e.mu.Unlock()

	e.writeCycleRow(ctx, cycle)
	return cycle
}

// run drives one cycle through its phases. Every exit path lands in a
// terminal state.
func (e *Engine) run(ctx context.Context, cycle *Cycle) {
	log := logging.FromContext(ctx)
	log.Info("planning cycle started", "cycle_id", cycle.ID)

	e.setState(cycle, StateInitializing)
	platforms := e.registry.GetAllPlatforms()
	e.setMeta(cycle, func(m *Metadata) { m.PlatformCount = len(platforms) })

	e.setState(cycle, StateCollectingTargets)
	targets := e.collect(ctx)
	e.setMeta(cycle, func(m *Metadata) { m.DetectionCount = len(targets) })
	log.Info("targets collected", "cycle_id", cycle.ID, "count", len(targets))
	if len(targets) == 0 {
		// Nothing to plan; the cycle completes trivially.
		e.complete(ctx, cycle)
		return
	}

	e.setState(cycle, StateDistributingTasks)
	if len(platforms) == 0 {
		e.fail(ctx, cycle, fmt.Errorf("no platforms registered"))
		return
	}
	assignments := e.dist.Distribute(ctx, targets, platforms)
	e.setMeta(cycle, func(m *Metadata) {
		m.AssignmentCount = len(assignments)
		m.UnassignedCount = len(targets) - len(assignments)
	})
	sessionIDs := e.dispatch(ctx, cycle, assignments, platforms)
	e.setMeta(cycle, func(m *Metadata) { m.SessionIDs = sessionIDs })

	e.setState(cycle, StateDiscussing)
	e.monitor.AwaitCompletion(ctx, sessionIDs, session.WaitBudget(e.cfg.Discussion))

	e.setState(cycle, StateGatheringResults)
	geometry := e.gatherGeometry(ctx, cycle, assignments, platforms)

	e.setState(cycle, StateGeneratingReports)
	if e.reports != nil {
		path, err := e.reports.WriteCycleReport(ctx, snapshotCycle(cycle), assignments, geometry)
		if err != nil {
			log.Error("report generation failed", "cycle_id", cycle.ID, "err", err)
		} else {
			e.setMeta(cycle, func(m *Metadata) { m.ReportPath = path })
		}
	}

	e.complete(ctx, cycle)
}

// dispatch hands each assignment to its platform. Delivery is best effort:
// failures are logged and the cycle moves on. Returns the discussion
// sessions the deliveries opened.
func (e *Engine) dispatch(ctx context.Context, cycle *Cycle, assignments []Assignment, platforms []platform.Handle) []string {
	log := logging.FromContext(ctx)

	byID := make(map[string]platform.Handle, len(platforms))
	for _, p := range platforms {
		byID[p.ID()] = p
	}

	before := make(map[string]bool)
	for _, id := range e.store.ListActive() {
		before[id] = true
	}

	dispatchedAt := e.now().UTC()
	for _, a := range assignments {
		p, ok := byID[a.PlatformID]
		if !ok {
			log.Error("assignment to unknown platform", "platform_id", a.PlatformID, "target_id", a.Target.ID)
			continue
		}
		task := platform.Task{
			CycleID:       cycle.ID,
			Target:        a.Target,
			MinDistanceKM: a.MinDistanceKM,
			Confidence:    a.Confidence,
			WindowCount:   a.WindowCount,
			Score:         a.Score,
			AssignedAt:    dispatchedAt,
		}
		if err := p.ReceiveTask(ctx, task); err != nil {
			log.Error("task delivery failed", "platform_id", a.PlatformID, "target_id", a.Target.ID, "err", err)
			continue
		}
		e.writeAssignmentRow(ctx, cycle, a, dispatchedAt)
	}

	var opened []string
	for _, id := range e.store.ListActive() {
		if !before[id] {
			opened = append(opened, id)
		}
	}
	return opened
}

// gatherGeometry scores the observation geometry each assigned target ends
// up with, using every platform's position at gather time.
func (e *Engine) gatherGeometry(ctx context.Context, cycle *Cycle, assignments []Assignment, platforms []platform.Handle) []GeometryRow {
	at := e.now().UTC()
	ecefs := make([]geo.ECEF, len(platforms))
	for i, p := range platforms {
		ecefs[i] = geo.ToECEF(p.Position(at))
	}

	var rows []GeometryRow
	var gdopSum float64
	var usable int
	for _, a := range assignments {
		observer := geo.ToECEF(apexPosition(a.Target))
		res := geo.GDOP(ecefs, observer)
		row := GeometryRow{
			CycleID:       cycle.ID,
			TargetID:      a.Target.ID,
			PlatformCount: res.PlatformCount,
			Usable:        res.OK,
			Timestamp:     at,
		}
		if res.OK {
			row.GDOP = res.GDOP
			row.PDOP = res.PDOP
			row.HDOP = res.HDOP
			row.VDOP = res.VDOP
			row.Quality = res.Quality
			gdopSum += res.GDOP
			usable++
		} else {
			row.Quality = res.Reason
		}
		rows = append(rows, row)
		e.writeGeometryRow(ctx, row)
	}

	if usable > 0 {
		mean := gdopSum / float64(usable)
		e.setMeta(cycle, func(m *Metadata) {
			m.MeanGDOP = mean
			m.GeometryQuality = geo.QualityLabel(mean)
		})
	}
	return rows
}

func (e *Engine) complete(ctx context.Context, cycle *Cycle) {
	log := logging.FromContext(ctx)
	e.mu.Lock()
	cycle.State = StateCompleted
	cycle.CompletedAt = e.now().UTC()
	cycle.Transitions = append(cycle.Transitions, Transition{State: StateCompleted, At: cycle.CompletedAt})
	e.mu.Unlock()
	log.Info("planning cycle completed",
		"cycle_id", cycle.ID,
		"assignments", cycle.Metadata.AssignmentCount,
		"duration", cycle.CompletedAt.Sub(cycle.StartedAt).Round(time.Millisecond))
}

func (e *Engine) fail(ctx context.Context, cycle *Cycle, err error) {
	log := logging.FromContext(ctx)
	e.mu.Lock()
	cycle.State = StateError
	cycle.CompletedAt = e.now().UTC()
	cycle.Metadata.Error = err.Error()
	cycle.Transitions = append(cycle.Transitions, Transition{State: StateError, At: cycle.CompletedAt})
	e.mu.Unlock()
	log.Error("planning cycle failed", "cycle_id", cycle.ID, "err", err)
}

func (e *Engine) setState(cycle *Cycle, s State) {
	e.mu.Lock()
	cycle.State = s
	cycle.Transitions = append(cycle.Transitions, Transition{State: s, At: e.now().UTC()})
	e.mu.Unlock()
}

func (e *Engine) setMeta(cycle *Cycle, fn func(*Metadata)) {
	e.mu.Lock()
	fn(&cycle.Metadata)
	e.mu.Unlock()
}

func (e *Engine) writeCycleRow(ctx context.Context, cycle *Cycle) {
	if e.writer == nil {
		return
	}
	log := logging.FromContext(ctx)
	row := CycleRow{
		CycleID:         cycle.ID,
		State:           string(cycle.State),
		DetectionCount:  cycle.Metadata.DetectionCount,
		PlatformCount:   cycle.Metadata.PlatformCount,
		AssignmentCount: cycle.Metadata.AssignmentCount,
		UnassignedCount: cycle.Metadata.UnassignedCount,
		MeanGDOP:        cycle.Metadata.MeanGDOP,
		GeometryQuality: cycle.Metadata.GeometryQuality,
		DurationMS:      cycle.CompletedAt.Sub(cycle.StartedAt).Milliseconds(),
		Error:           cycle.Metadata.Error,
		Timestamp:       cycle.CompletedAt,
	}
	if err := e.writer.WriteCycle(row); err != nil {
		log.Error("cycle write failed", "cycle_id", cycle.ID, "err", err)
	}
}

func (e *Engine) writeAssignmentRow(ctx context.Context, cycle *Cycle, a Assignment, at time.Time) {
	if e.assignW == nil {
		return
	}
	log := logging.FromContext(ctx)
	row := AssignmentRow{
		CycleID:       cycle.ID,
		TargetID:      a.Target.ID,
		PlatformID:    a.PlatformID,
		Score:         a.Score,
		MinDistanceKM: a.MinDistanceKM,
		Confidence:    a.Confidence,
		WindowCount:   a.WindowCount,
		Priority:      a.Target.Priority,
		Threat:        string(a.Target.Threat),
		Timestamp:     at,
	}
	if err := e.assignW.WriteAssignment(row); err != nil {
		log.Error("assignment write failed", "target_id", a.Target.ID, "err", err)
	}
}

func (e *Engine) writeGeometryRow(ctx context.Context, row GeometryRow) {
	if e.geomW == nil {
		return
	}
	if err := e.geomW.WriteGeometry(row); err != nil {
		logging.FromContext(ctx).Error("geometry write failed", "target_id", row.TargetID, "err", err)
	}
}

// apexPosition picks the trajectory midpoint, the sample closest to apogee
// for a ballistic arc.
func apexPosition(t *target.Target) geo.Position {
	if len(t.Trajectory) == 0 {
		return t.LaunchPosition
	}
	best := t.Trajectory[0].Position
	for _, s := range t.Trajectory[1:] {
		if s.Position.AltKM > best.AltKM {
			best = s.Position
		}
	}
	if math.IsNaN(best.AltKM) {
		return t.LaunchPosition
	}
	return best
}

func snapshotCycle(c *Cycle) Cycle {
	cp := *c
	cp.Transitions = append([]Transition(nil), c.Transitions...)
	cp.Metadata.SessionIDs = append([]string(nil), c.Metadata.SessionIDs...)
	return cp
}
