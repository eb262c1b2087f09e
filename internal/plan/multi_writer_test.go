package plan

import (
	"testing"
	"time"
)

type captureWriter struct {
	cycles      []CycleRow
	assignments []AssignmentRow
	geometries  []GeometryRow
	batched     bool
}

func (c *captureWriter) WriteCycle(row CycleRow) error {
	c.cycles = append(c.cycles, row)
	return nil
}

func (c *captureWriter) WriteAssignment(row AssignmentRow) error {
	c.assignments = append(c.assignments, row)
	return nil
}

func (c *captureWriter) WriteGeometry(row GeometryRow) error {
	c.geometries = append(c.geometries, row)
	return nil
}

type batchCaptureWriter struct {
	captureWriter
}

func (c *batchCaptureWriter) WriteCycles(rows []CycleRow) error {
	c.batched = true
	c.cycles = append(c.cycles, rows...)
	return nil
}

func TestMultiWriterFanOut(t *testing.T) {
	a := &captureWriter{}
	b := &captureWriter{}
	mw := NewMultiWriter(
		[]CycleWriter{a, b},
		[]AssignmentWriter{a, b},
		[]GeometryWriter{a},
	)

	ts := time.Unix(0, 0).UTC()
	if err := mw.WriteCycle(CycleRow{CycleID: 1, Timestamp: ts}); err != nil {
		t.Fatalf("WriteCycle: %v", err)
	}
	if err := mw.WriteAssignment(AssignmentRow{TargetID: "t1", Timestamp: ts}); err != nil {
		t.Fatalf("WriteAssignment: %v", err)
	}
	if err := mw.WriteGeometry(GeometryRow{TargetID: "t1", Timestamp: ts}); err != nil {
		t.Fatalf("WriteGeometry: %v", err)
	}

	if len(a.cycles) != 1 || len(b.cycles) != 1 {
		t.Errorf("cycle fan-out: a=%d b=%d", len(a.cycles), len(b.cycles))
	}
	if len(a.assignments) != 1 || len(b.assignments) != 1 {
		t.Errorf("assignment fan-out: a=%d b=%d", len(a.assignments), len(b.assignments))
	}
	if len(a.geometries) != 1 || len(b.geometries) != 0 {
		t.Errorf("geometry fan-out: a=%d b=%d", len(a.geometries), len(b.geometries))
	}
}

func TestMultiWriterBatchPreferred(t *testing.T) {
	batch := &batchCaptureWriter{}
	plain := &captureWriter{}
	mw := NewMultiWriter([]CycleWriter{batch, plain}, nil, nil)

	rows := []CycleRow{{CycleID: 1}, {CycleID: 2}}
	if err := mw.WriteCycles(rows); err != nil {
		t.Fatalf("WriteCycles: %v", err)
	}
	if !batch.batched {
		t.Error("batch-capable writer not used in batch mode")
	}
	if len(batch.cycles) != 2 || len(plain.cycles) != 2 {
		t.Errorf("batch fan-out: batch=%d plain=%d", len(batch.cycles), len(plain.cycles))
	}
}
