package plan

import (
	"encoding/json"
	"os"
)

// FileWriter writes cycle, assignment, and geometry rows to JSONL files.
type FileWriter struct {
	cycleFile  *os.File
	assignFile *os.File
	geomFile   *os.File
	cycleEnc   *json.Encoder
	assignEnc  *json.Encoder
	geomEnc    *json.Encoder
}

// NewFileWriter creates a FileWriter. assignmentPath or geometryPath may be
// empty to skip those logs.
func NewFileWriter(cyclePath, assignmentPath, geometryPath string) (*FileWriter, error) {
	cf, err := os.Create(cyclePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{cycleFile: cf, cycleEnc: json.NewEncoder(cf)}
	if assignmentPath != "" {
		af, err := os.Create(assignmentPath)
		if err != nil {
			cf.Close()
			return nil, err
		}
		fw.assignFile = af
		fw.assignEnc = json.NewEncoder(af)
	}
	if geometryPath != "" {
		gf, err := os.Create(geometryPath)
		if err != nil {
			if fw.assignFile != nil {
				fw.assignFile.Close()
			}
			cf.Close()
			return nil, err
		}
		fw.geomFile = gf
		fw.geomEnc = json.NewEncoder(gf)
	}
	return fw, nil
}

// WriteCycle logs a single cycle row.
func (f *FileWriter) WriteCycle(row CycleRow) error {
	return f.cycleEnc.Encode(row)
}

// WriteCycles logs multiple cycle rows.
func (f *FileWriter) WriteCycles(rows []CycleRow) error {
	for _, r := range rows {
		if err := f.WriteCycle(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAssignment logs a single assignment row, if enabled.
func (f *FileWriter) WriteAssignment(row AssignmentRow) error {
	if f.assignEnc == nil {
		return nil
	}
	return f.assignEnc.Encode(row)
}

// WriteAssignments logs multiple assignment rows.
func (f *FileWriter) WriteAssignments(rows []AssignmentRow) error {
	for _, r := range rows {
		if err := f.WriteAssignment(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteGeometry logs a single geometry row, if enabled.
func (f *FileWriter) WriteGeometry(row GeometryRow) error {
	if f.geomEnc == nil {
		return nil
	}
	return f.geomEnc.Encode(row)
}

// WriteGeometries logs multiple geometry rows.
func (f *FileWriter) WriteGeometries(rows []GeometryRow) error {
	for _, r := range rows {
		if err := f.WriteGeometry(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.cycleFile != nil {
		if e := f.cycleFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.assignFile != nil {
		if e := f.assignFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.geomFile != nil {
		if e := f.geomFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
