package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"satops-plan/internal/config"
	"satops-plan/internal/geo"
	"satops-plan/internal/logging"
	"satops-plan/internal/session"
)

// SimPlatform simulates one observation platform. It orbits by drifting
// longitudinally from its configured position, and on task receipt it opens
// a collaborative session and drives it forward in the background, the way
// the real onboard agent would while negotiating a tracking plan.
type SimPlatform struct {
	cfg           config.Platform
	epoch         time.Time
	sessions      *session.MemoryStore
	maxIterations int
	stepInterval  time.Duration
	now           func() time.Time

	mu    sync.Mutex
	rng   *rand.Rand
	tasks []Task
}

// NewSimPlatform wires a simulated platform to the shared session registry.
// stepInterval controls how fast its discussions iterate.
func NewSimPlatform(cfg config.Platform, sessions *session.MemoryStore, maxIterations int, stepInterval time.Duration) *SimPlatform {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	if stepInterval <= 0 {
		stepInterval = 2 * time.Second
	}
	return &SimPlatform{
		cfg:           cfg,
		epoch:         time.Now().UTC(),
		sessions:      sessions,
		maxIterations: maxIterations,
		stepInterval:  stepInterval,
		now:           time.Now,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *SimPlatform) ID() string { return p.cfg.ID }

// Position extrapolates the platform's configured position by its drift rate.
func (p *SimPlatform) Position(at time.Time) geo.Position {
	minutes := at.Sub(p.epoch).Minutes()
	lon := normalizeLon(p.cfg.Lon + p.cfg.DriftDegPerMin*minutes)
	return geo.Position{Lat: p.cfg.Lat, Lon: lon, AltKM: p.cfg.AltKM}
}

// ReceiveTask records the assignment, opens a session for it, and starts
// advancing the discussion in the background.
func (p *SimPlatform) ReceiveTask(ctx context.Context, task Task) error {
	if task.Target == nil {
		return fmt.Errorf("platform %s: task without target", p.cfg.ID)
	}

	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()

	sessionID := fmt.Sprintf("disc-%s-%s", task.Target.ID, uuid.NewString()[:8])
	p.sessions.Open(sessionID, []string{p.cfg.ID}, p.maxIterations)

	log := logging.FromContext(ctx)
	log.Debug("task accepted",
		"platform_id", p.cfg.ID,
		"target_id", task.Target.ID,
		"session_id", sessionID,
		"score", task.Score)

	go p.discuss(ctx, sessionID)
	return nil
}

// Tasks returns a copy of every assignment the platform has accepted.
func (p *SimPlatform) Tasks() []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Task(nil), p.tasks...)
}

// discuss iterates the session until its budget is spent or the context
// ends. Quality climbs monotonically with some jitter, so most discussions
// converge past the monitor's quality bar before exhausting iterations.
func (p *SimPlatform) discuss(ctx context.Context, sessionID string) {
	ticker := time.NewTicker(p.stepInterval)
	defer ticker.Stop()

	quality := 0.0
	for i := 0; i < p.maxIterations; i++ {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		p.mu.Lock()
		quality += 0.15 + p.rng.Float64()*0.2
		p.mu.Unlock()
		if quality > 0.95 {
			quality = 0.95
		}
		p.sessions.Advance(sessionID, quality)
	}
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
