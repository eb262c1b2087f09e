// Distance-based assignment of tracked targets to observation platforms.
package plan

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"satops-plan/internal/config"
	"satops-plan/internal/geo"
	"satops-plan/internal/logging"
	"satops-plan/internal/platform"
	"satops-plan/internal/target"
)

// DistanceResult is the evaluation of one target-platform pair. Computed
// fresh each cycle and discarded afterwards.
type DistanceResult struct {
	TargetID        string
	PlatformID      string
	MinDistanceKM   float64
	AvgDistanceKM   float64
	ClosestApproach time.Time
	Windows         []geo.Window
	Confidence      float64
	Usable          bool
}

// Assignment binds a target to the platform that won it.
type Assignment struct {
	Target        *target.Target
	PlatformID    string
	Score         float64
	MinDistanceKM float64
	Confidence    float64
	WindowCount   int
}

// Distributor assigns each target to the platform with the best
// distance-and-confidence score. Evaluation fans out over a worker pool
// because the pair matrix grows as targets × platforms.
type Distributor struct {
	cfg config.Distribution
	now func() time.Time
}

// NewDistributor creates a distributor with defaults applied.
func NewDistributor(cfg config.Distribution) *Distributor {
	if cfg.VisibilityThresholdKM <= 0 {
		cfg.VisibilityThresholdKM = 2000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = 10000
	}
	return &Distributor{cfg: cfg, now: time.Now}
}

type pairJob struct {
	target   *target.Target
	platform platform.Handle
}

// Distribute evaluates every target-platform pair and picks one platform per
// target. Targets no platform can usefully observe are omitted from the
// result. Platforms are expected in sorted id order; ties on score go to the
// platform seen first.
func (d *Distributor) Distribute(ctx context.Context, targets []*target.Target, platforms []platform.Handle) []Assignment {
	log := logging.FromContext(ctx)
	if len(targets) == 0 || len(platforms) == 0 {
		return nil
	}

	jobs := make([]pairJob, 0, len(targets)*len(platforms))
	for _, t := range targets {
		for _, p := range platforms {
			jobs = append(jobs, pairJob{target: t, platform: p})
		}
	}
	if len(jobs) > d.cfg.MaxPairs {
		log.Warn("pair matrix truncated",
			"pairs", len(jobs),
			"max_pairs", d.cfg.MaxPairs)
		jobs = jobs[:d.cfg.MaxPairs]
	}

	results := make([]DistanceResult, len(jobs))
	jobCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				results[idx] = d.evaluatePair(jobs[idx].target, jobs[idx].platform)
			}
		}()
	}
	for idx := range jobs {
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	// Regroup results per target, preserving platform order.
	byTarget := make(map[string][]DistanceResult, len(targets))
	for _, r := range results {
		byTarget[r.TargetID] = append(byTarget[r.TargetID], r)
	}

	var assignments []Assignment
	for _, t := range targets {
		best, ok := pickBest(byTarget[t.ID])
		if !ok {
			log.Warn("target unassignable", "target_id", t.ID)
			continue
		}
		assignments = append(assignments, Assignment{
			Target:        t,
			PlatformID:    best.PlatformID,
			Score:         score(best),
			MinDistanceKM: best.MinDistanceKM,
			Confidence:    best.Confidence,
			WindowCount:   len(best.Windows),
		})
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Target.ID < assignments[j].Target.ID
	})
	return assignments
}

// evaluatePair walks the target's trajectory against the platform's
// extrapolated positions at each sample instant.
func (d *Distributor) evaluatePair(t *target.Target, p platform.Handle) DistanceResult {
	res := DistanceResult{
		TargetID:      t.ID,
		PlatformID:    p.ID(),
		MinDistanceKM: math.Inf(1),
	}
	if len(t.Trajectory) == 0 {
		return res
	}

	distances := make([]float64, len(t.Trajectory))
	trajectory := t.TrajectoryPositions()
	var sum float64
	var finite int
	for i, s := range t.Trajectory {
		dist := geo.SphericalDistance(s.Position, p.Position(s.Time))
		distances[i] = dist
		if math.IsInf(dist, 1) {
			continue
		}
		sum += dist
		finite++
		if dist < res.MinDistanceKM {
			res.MinDistanceKM = dist
			res.ClosestApproach = s.Time
		}
	}
	if finite == 0 {
		return res
	}
	res.AvgDistanceKM = sum / float64(finite)

	sampleInterval := 1.0
	if len(t.Trajectory) > 1 {
		sampleInterval = t.Trajectory[1].Time.Sub(t.Trajectory[0].Time).Seconds()
	}
	res.Windows = geo.VisibilityWindows(trajectory, func(i int) geo.Position {
		return p.Position(t.Trajectory[i].Time)
	}, d.cfg.VisibilityThresholdKM, sampleInterval)
	res.Confidence = geo.Confidence(distances, res.Windows)
	res.Usable = true
	return res
}

// score weights raw proximity by how much the confidence discounts it:
// minDistance × (2 − confidence). Lower is better.
func score(r DistanceResult) float64 {
	return r.MinDistanceKM * (2 - r.Confidence)
}

func pickBest(results []DistanceResult) (DistanceResult, bool) {
	var best DistanceResult
	found := false
	for _, r := range results {
		if !r.Usable {
			continue
		}
		if !found || score(r) < score(best) {
			best = r
			found = true
		}
	}
	return best, found
}
