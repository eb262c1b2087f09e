package plan

// MultiWriter fan-outs cycle, assignment, and geometry rows to multiple writers.
type MultiWriter struct {
	cycleWriters  []CycleWriter
	assignWriters []AssignmentWriter
	geomWriters   []GeometryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(cws []CycleWriter, aws []AssignmentWriter, gws []GeometryWriter) *MultiWriter {
	return &MultiWriter{cycleWriters: cws, assignWriters: aws, geomWriters: gws}
}

// WriteCycle sends a cycle row to all cycle writers.
func (mw *MultiWriter) WriteCycle(row CycleRow) error {
	for _, w := range mw.cycleWriters {
		if err := w.WriteCycle(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteCycles sends multiple cycle rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteCycles(rows []CycleRow) error {
	for _, w := range mw.cycleWriters {
		if bw, ok := w.(batchCycleWriter); ok {
			if err := bw.WriteCycles(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteCycle(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteAssignment sends an assignment row to all assignment writers.
func (mw *MultiWriter) WriteAssignment(row AssignmentRow) error {
	for _, w := range mw.assignWriters {
		if err := w.WriteAssignment(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteAssignments sends multiple assignments to all writers, using batch if supported.
func (mw *MultiWriter) WriteAssignments(rows []AssignmentRow) error {
	for _, w := range mw.assignWriters {
		if bw, ok := w.(batchAssignmentWriter); ok {
			if err := bw.WriteAssignments(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteAssignment(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteGeometry sends a geometry row to all geometry writers.
func (mw *MultiWriter) WriteGeometry(row GeometryRow) error {
	for _, w := range mw.geomWriters {
		if err := w.WriteGeometry(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteGeometries sends multiple geometry rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteGeometries(rows []GeometryRow) error {
	for _, w := range mw.geomWriters {
		if bw, ok := w.(batchGeometryWriter); ok {
			if err := bw.WriteGeometries(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteGeometry(r); err != nil {
				return err
			}
		}
	}
	return nil
}
