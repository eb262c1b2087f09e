package plan

import (
	"context"
	"log"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes planning output to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client      greptimeClient
	cycleTable  string
	assignTable string
	geomTable   string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer.
func NewGreptimeDBWriter(host, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:      client,
		cycleTable:  CycleTableName,
		assignTable: "planning_assignments",
		geomTable:   "observation_geometry",
	}, nil
}

// WriteCycle inserts a single cycle row.
func (w *GreptimeDBWriter) WriteCycle(row CycleRow) error {
	return w.WriteCycles([]CycleRow{row})
}

// WriteCycles inserts multiple cycle rows.
func (w *GreptimeDBWriter) WriteCycles(rows []CycleRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.cycleTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cycle_id", types.INT64)
	tbl.AddFieldColumn("state", types.STRING)
	tbl.AddFieldColumn("detection_count", types.INT64)
	tbl.AddFieldColumn("platform_count", types.INT64)
	tbl.AddFieldColumn("assignment_count", types.INT64)
	tbl.AddFieldColumn("unassigned_count", types.INT64)
	tbl.AddFieldColumn("mean_gdop", types.FLOAT64)
	tbl.AddFieldColumn("geometry_quality", types.STRING)
	tbl.AddFieldColumn("duration_ms", types.INT64)
	tbl.AddFieldColumn("error", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.CycleID, r.State, int64(r.DetectionCount), int64(r.PlatformCount),
			int64(r.AssignmentCount), int64(r.UnassignedCount), r.MeanGDOP, r.GeometryQuality,
			r.DurationMS, r.Error, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteAssignment inserts a single assignment row.
func (w *GreptimeDBWriter) WriteAssignment(row AssignmentRow) error {
	return w.WriteAssignments([]AssignmentRow{row})
}

// WriteAssignments inserts multiple assignment rows.
func (w *GreptimeDBWriter) WriteAssignments(rows []AssignmentRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.assignTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cycle_id", types.INT64)
	tbl.AddTagColumn("target_id", types.STRING)
	tbl.AddTagColumn("platform_id", types.STRING)
	tbl.AddFieldColumn("score", types.FLOAT64)
	tbl.AddFieldColumn("min_distance_km", types.FLOAT64)
	tbl.AddFieldColumn("confidence", types.FLOAT64)
	tbl.AddFieldColumn("window_count", types.INT64)
	tbl.AddFieldColumn("priority", types.FLOAT64)
	tbl.AddFieldColumn("threat", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.CycleID, r.TargetID, r.PlatformID, r.Score, r.MinDistanceKM,
			r.Confidence, int64(r.WindowCount), r.Priority, r.Threat, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteGeometry inserts a single geometry row.
func (w *GreptimeDBWriter) WriteGeometry(row GeometryRow) error {
	return w.WriteGeometries([]GeometryRow{row})
}

// WriteGeometries inserts multiple geometry rows.
func (w *GreptimeDBWriter) WriteGeometries(rows []GeometryRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.geomTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cycle_id", types.INT64)
	tbl.AddTagColumn("target_id", types.STRING)
	tbl.AddFieldColumn("gdop", types.FLOAT64)
	tbl.AddFieldColumn("pdop", types.FLOAT64)
	tbl.AddFieldColumn("hdop", types.FLOAT64)
	tbl.AddFieldColumn("vdop", types.FLOAT64)
	tbl.AddFieldColumn("quality", types.STRING)
	tbl.AddFieldColumn("platform_count", types.INT64)
	tbl.AddFieldColumn("usable", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.CycleID, r.TargetID, r.GDOP, r.PDOP, r.HDOP, r.VDOP,
			r.Quality, int64(r.PlatformCount), r.Usable, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

func (w *GreptimeDBWriter) write(tbl *table.Table, count int) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return err
	}
	log.Printf("[GreptimeDBWriter] wrote %d rows", count)
	return nil
}
