package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints cycles, assignments, and geometry as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteCycle outputs a cycle row in JSON format.
func (w *JSONStdoutWriter) WriteCycle(row CycleRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteCycles outputs multiple cycle rows in JSON format.
func (w *JSONStdoutWriter) WriteCycles(rows []CycleRow) error {
	for _, r := range rows {
		_ = w.WriteCycle(r)
	}
	return nil
}

// WriteAssignment outputs an assignment row in JSON format.
func (w *JSONStdoutWriter) WriteAssignment(row AssignmentRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteAssignments outputs multiple assignment rows in JSON format.
func (w *JSONStdoutWriter) WriteAssignments(rows []AssignmentRow) error {
	for _, r := range rows {
		_ = w.WriteAssignment(r)
	}
	return nil
}

// WriteGeometry outputs a geometry row in JSON format.
func (w *JSONStdoutWriter) WriteGeometry(row GeometryRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteGeometries outputs multiple geometry rows in JSON format.
func (w *JSONStdoutWriter) WriteGeometries(rows []GeometryRow) error {
	for _, r := range rows {
		_ = w.WriteGeometry(r)
	}
	return nil
}
