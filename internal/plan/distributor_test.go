package plan

import (
	"context"
	"testing"
	"time"

	"satops-plan/internal/config"
	"satops-plan/internal/geo"
	"satops-plan/internal/platform"
	"satops-plan/internal/target"
)

// stubPlatform holds a fixed position, ignoring the query instant.
type stubPlatform struct {
	id  string
	pos geo.Position
}

func (s *stubPlatform) ID() string                      { return s.id }
func (s *stubPlatform) Position(time.Time) geo.Position { return s.pos }
func (s *stubPlatform) ReceiveTask(context.Context, platform.Task) error {
	return nil
}

func ballisticTarget(id string, lat, lon float64) *target.Target {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var traj []target.Sample
	for i := 0; i < 10; i++ {
		frac := float64(i) / 9
		traj = append(traj, target.Sample{
			Position: geo.Position{Lat: lat, Lon: lon + frac, AltKM: 400 * 4 * frac * (1 - frac)},
			Time:     start.Add(time.Duration(i) * 10 * time.Second),
		})
	}
	return &target.Target{
		ID:             id,
		LaunchPosition: traj[0].Position,
		ImpactPosition: traj[len(traj)-1].Position,
		LaunchTime:     start,
		FlightTimeS:    90,
		Trajectory:     traj,
		Priority:       3,
		Threat:         target.ThreatMedium,
	}
}

// Scores follow minDistance × (2 − confidence): a closer platform can lose
// to a farther one whose confidence discounts less.
func TestScoreWeighting(t *testing.T) {
	tests := []struct {
		name string
		a    DistanceResult
		b    DistanceResult
		want string
	}{
		{
			name: "closer low-confidence platform wins",
			a:    DistanceResult{PlatformID: "A", MinDistanceKM: 10, Confidence: 1.0, Usable: true},
			b:    DistanceResult{PlatformID: "B", MinDistanceKM: 5, Confidence: 0.5, Usable: true},
			want: "B", // 5×1.5=7.5 < 10×1.0
		},
		{
			name: "high confidence beats slightly closer rival",
			a:    DistanceResult{PlatformID: "A", MinDistanceKM: 50, Confidence: 1.0, Usable: true},
			b:    DistanceResult{PlatformID: "B", MinDistanceKM: 60, Confidence: 0.5, Usable: true},
			want: "A", // 50 < 60×1.5=90
		},
		{
			name: "confidence discount flips a near-tie",
			a:    DistanceResult{PlatformID: "A", MinDistanceKM: 200, Confidence: 1.0, Usable: true},
			b:    DistanceResult{PlatformID: "B", MinDistanceKM: 190, Confidence: 0.5, Usable: true},
			want: "A", // 200 < 190×1.5=285
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := pickBest([]DistanceResult{tt.a, tt.b})
			if !ok {
				t.Fatal("expected a usable result")
			}
			if best.PlatformID != tt.want {
				t.Errorf("picked %s, want %s", best.PlatformID, tt.want)
			}
		})
	}
}

func TestPickBestTieGoesToFirst(t *testing.T) {
	// Platforms arrive in sorted id order, so an exact tie lands on the
	// lower id.
	results := []DistanceResult{
		{PlatformID: "sat-01", MinDistanceKM: 100, Confidence: 0.8, Usable: true},
		{PlatformID: "sat-02", MinDistanceKM: 100, Confidence: 0.8, Usable: true},
	}
	best, ok := pickBest(results)
	if !ok {
		t.Fatal("expected a usable result")
	}
	if best.PlatformID != "sat-01" {
		t.Errorf("tie broke to %s, want sat-01", best.PlatformID)
	}
}

func TestDistribute_EachTargetAssignedOnce(t *testing.T) {
	d := NewDistributor(config.Distribution{VisibilityThresholdKM: 2000, Workers: 2, MaxPairs: 100})

	// One platform near each target's track.
	platforms := []platform.Handle{
		&stubPlatform{id: "sat-01", pos: geo.Position{Lat: 10, Lon: 20, AltKM: 500}},
		&stubPlatform{id: "sat-02", pos: geo.Position{Lat: -30, Lon: 140, AltKM: 500}},
	}
	targets := []*target.Target{
		ballisticTarget("tgt-1", 10, 20),
		ballisticTarget("tgt-2", -30, 140),
	}

	assignments := d.Distribute(context.Background(), targets, platforms)
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	got := map[string]string{}
	for _, a := range assignments {
		got[a.Target.ID] = a.PlatformID
		if a.Score <= 0 {
			t.Errorf("assignment %s has non-positive score %f", a.Target.ID, a.Score)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Errorf("confidence out of range: %f", a.Confidence)
		}
	}
	if got["tgt-1"] != "sat-01" {
		t.Errorf("tgt-1 assigned to %s, want sat-01", got["tgt-1"])
	}
	if got["tgt-2"] != "sat-02" {
		t.Errorf("tgt-2 assigned to %s, want sat-02", got["tgt-2"])
	}
}

func TestDistribute_UnassignableTargetOmitted(t *testing.T) {
	d := NewDistributor(config.Distribution{})
	platforms := []platform.Handle{
		&stubPlatform{id: "sat-01", pos: geo.Position{Lat: 0, Lon: 0, AltKM: 500}},
	}
	empty := &target.Target{ID: "tgt-empty"} // no trajectory, nothing to evaluate
	good := ballisticTarget("tgt-good", 0, 0)

	assignments := d.Distribute(context.Background(), []*target.Target{empty, good}, platforms)
	if len(assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0].Target.ID != "tgt-good" {
		t.Errorf("assigned %s, want tgt-good", assignments[0].Target.ID)
	}
}

func TestDistribute_EmptyInputs(t *testing.T) {
	d := NewDistributor(config.Distribution{})
	if got := d.Distribute(context.Background(), nil, nil); got != nil {
		t.Errorf("expected nil for empty inputs, got %v", got)
	}
}

func TestEvaluatePairMetrics(t *testing.T) {
	d := NewDistributor(config.Distribution{VisibilityThresholdKM: 5000})
	tgt := ballisticTarget("tgt-1", 10, 20)
	p := &stubPlatform{id: "sat-01", pos: geo.Position{Lat: 10, Lon: 20, AltKM: 500}}

	res := d.evaluatePair(tgt, p)
	if !res.Usable {
		t.Fatal("pair should be usable")
	}
	if res.MinDistanceKM <= 0 || res.AvgDistanceKM < res.MinDistanceKM {
		t.Errorf("distance stats inconsistent: min=%f avg=%f", res.MinDistanceKM, res.AvgDistanceKM)
	}
	if res.ClosestApproach.IsZero() {
		t.Error("closest approach not recorded")
	}
	if len(res.Windows) == 0 {
		t.Error("expected at least one visibility window inside 5000km threshold")
	}
}
