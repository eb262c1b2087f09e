package target

import (
	"time"

	"satops-plan/internal/geo"
)

// ThreatLevel classifies a detected target.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Sample is one trajectory point with its timestamp.
type Sample struct {
	Position geo.Position `json:"position"`
	Time     time.Time    `json:"time"`
}

// Target is one detected moving target. Instances are immutable once
// created; a planning cycle owns the targets it was triggered with.
type Target struct {
	ID             string       `json:"id"`
	LaunchPosition geo.Position `json:"launch_position"`
	ImpactPosition geo.Position `json:"impact_position"`
	LaunchTime     time.Time    `json:"launch_time"`
	FlightTimeS    float64      `json:"flight_time_s"`
	Trajectory     []Sample     `json:"trajectory"`
	Priority       float64      `json:"priority"`
	Threat         ThreatLevel  `json:"threat_level"`
}

// TrajectoryPositions returns the bare position sequence of the trajectory.
func (t *Target) TrajectoryPositions() []geo.Position {
	positions := make([]geo.Position, len(t.Trajectory))
	for i, s := range t.Trajectory {
		positions[i] = s.Position
	}
	return positions
}
