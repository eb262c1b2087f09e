package plan

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	cyclePath := filepath.Join(dir, "cycles.json")
	assignPath := filepath.Join(dir, "assignments.json")
	geomPath := filepath.Join(dir, "geometry.json")

	fw, err := NewFileWriter(cyclePath, assignPath, geomPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	cRow := CycleRow{CycleID: 3, State: "completed", DetectionCount: 2, AssignmentCount: 2, Timestamp: ts}
	aRow := AssignmentRow{CycleID: 3, TargetID: "t1", PlatformID: "sat-01", MinDistanceKM: 900, Timestamp: ts}
	gRow := GeometryRow{CycleID: 3, TargetID: "t1", GDOP: 2.1, Quality: "good", Usable: true, Timestamp: ts}

	if err := fw.WriteCycle(cRow); err != nil {
		t.Fatalf("WriteCycle: %v", err)
	}
	if err := fw.WriteAssignment(aRow); err != nil {
		t.Fatalf("WriteAssignment: %v", err)
	}
	if err := fw.WriteGeometry(gRow); err != nil {
		t.Fatalf("WriteGeometry: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var gotCycle CycleRow
	decodeLine(t, cyclePath, &gotCycle)
	if gotCycle.CycleID != 3 || gotCycle.AssignmentCount != 2 {
		t.Errorf("unexpected cycle row: %#v", gotCycle)
	}

	var gotAssign AssignmentRow
	decodeLine(t, assignPath, &gotAssign)
	if gotAssign.PlatformID != "sat-01" || gotAssign.MinDistanceKM != 900 {
		t.Errorf("unexpected assignment row: %#v", gotAssign)
	}

	var gotGeom GeometryRow
	decodeLine(t, geomPath, &gotGeom)
	if gotGeom.GDOP != 2.1 || !gotGeom.Usable {
		t.Errorf("unexpected geometry row: %#v", gotGeom)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "cycles.json"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()

	// Disabled logs are silently dropped.
	if err := fw.WriteAssignment(AssignmentRow{TargetID: "t1"}); err != nil {
		t.Errorf("WriteAssignment with disabled log: %v", err)
	}
	if err := fw.WriteGeometry(GeometryRow{TargetID: "t1"}); err != nil {
		t.Errorf("WriteGeometry with disabled log: %v", err)
	}
}

func decodeLine(t *testing.T, path string, v any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatalf("no lines in %s", path)
	}
	if err := json.Unmarshal(sc.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
