// Planning output structs with greptime tags
package plan

import (
	"os"
	"time"
)

// CycleRow represents one completed planning cycle for GreptimeDB.
type CycleRow struct {
	CycleID         int64     `json:"cycle_id"` // TAG
	State           string    `json:"state"`    // FIELD
	DetectionCount  int       `json:"detection_count"`
	PlatformCount   int       `json:"platform_count"`
	AssignmentCount int       `json:"assignment_count"`
	UnassignedCount int       `json:"unassigned_count"`
	MeanGDOP        float64   `json:"mean_gdop"`
	GeometryQuality string    `json:"geometry_quality"`
	DurationMS      int64     `json:"duration_ms"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"ts"` // TIME INDEX
}

// CycleTableName holds the table name used when writing cycles to
// GreptimeDB. It defaults to "planning_cycles" but can be overridden via
// the GREPTIMEDB_CYCLE_TABLE environment variable.
var CycleTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_CYCLE_TABLE"); env != "" {
		return env
	}
	return "planning_cycles"
}()

func (CycleRow) TableName() string {
	return CycleTableName
}

// AssignmentRow represents one target-to-platform assignment.
type AssignmentRow struct {
	CycleID       int64     `json:"cycle_id"`    // TAG
	TargetID      string    `json:"target_id"`   // TAG
	PlatformID    string    `json:"platform_id"` // TAG
	Score         float64   `json:"score"`
	MinDistanceKM float64   `json:"min_distance_km"`
	Confidence    float64   `json:"confidence"`
	WindowCount   int       `json:"window_count"`
	Priority      float64   `json:"priority"`
	Threat        string    `json:"threat"`
	Timestamp     time.Time `json:"ts"` // TIME INDEX
}

// GeometryRow captures per-target observation geometry after a cycle's
// discussions settle.
type GeometryRow struct {
	CycleID       int64     `json:"cycle_id"`  // TAG
	TargetID      string    `json:"target_id"` // TAG
	GDOP          float64   `json:"gdop"`
	PDOP          float64   `json:"pdop"`
	HDOP          float64   `json:"hdop"`
	VDOP          float64   `json:"vdop"`
	Quality       string    `json:"quality"`
	PlatformCount int       `json:"platform_count"`
	Usable        bool      `json:"usable"`
	Timestamp     time.Time `json:"ts"` // TIME INDEX
}
