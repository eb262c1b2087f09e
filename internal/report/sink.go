// Package report persists per-cycle planning reports. Everything here is
// advisory: callers log failures and move on.
package report

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"satops-plan/internal/plan"
)

//go:embed templates/timeline.html
var content embed.FS

// Sink writes cycle reports under a base directory, one session directory
// per cycle.
type Sink struct {
	baseDir string
	tpl     *template.Template
	now     func() time.Time
}

// NewSink creates a report sink rooted at baseDir.
func NewSink(baseDir string) *Sink {
	tpl := template.Must(template.New("timeline.html").ParseFS(content, "templates/timeline.html"))
	return &Sink{baseDir: baseDir, tpl: tpl, now: time.Now}
}

// CreateSession creates a fresh report directory for one named run and
// returns its path.
func (s *Sink) CreateSession(name string) (string, error) {
	dir := filepath.Join(s.baseDir, fmt.Sprintf("%s-%s", name, s.now().UTC().Format("20060102T150405")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveData writes v as indented JSON under dir and returns the file path.
func (s *Sink) SaveData(dir, label string, v any) (string, error) {
	path := filepath.Join(dir, label+".json")
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type chartData struct {
	Cycle       plan.Cycle
	Assignments []assignmentView
	Geometry    []plan.GeometryRow
	Phases      []phaseView
	GeneratedAt string
}

type assignmentView struct {
	TargetID      string
	PlatformID    string
	Score         float64
	MinDistanceKM float64
	Confidence    float64
	WindowCount   int
}

type phaseView struct {
	State      string
	At         string
	DurationMS int64
}

// RenderChart writes an HTML timeline of the cycle into dir and returns the
// artifact path.
func (s *Sink) RenderChart(dir string, cycle plan.Cycle, assignments []plan.Assignment, geometry []plan.GeometryRow) (string, error) {
	data := chartData{
		Cycle:       cycle,
		Geometry:    geometry,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}
	for _, a := range assignments {
		data.Assignments = append(data.Assignments, assignmentView{
			TargetID:      a.Target.ID,
			PlatformID:    a.PlatformID,
			Score:         a.Score,
			MinDistanceKM: a.MinDistanceKM,
			Confidence:    a.Confidence,
			WindowCount:   a.WindowCount,
		})
	}
	for i, tr := range cycle.Transitions {
		end := cycle.CompletedAt
		if i+1 < len(cycle.Transitions) {
			end = cycle.Transitions[i+1].At
		}
		data.Phases = append(data.Phases, phaseView{
			State:      string(tr.State),
			At:         tr.At.Format(time.RFC3339),
			DurationMS: end.Sub(tr.At).Milliseconds(),
		})
	}

	path := filepath.Join(dir, "timeline.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := s.tpl.Execute(f, data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCycleReport persists one cycle's full report: JSON blobs plus the
// HTML timeline. Implements the engine's report sink contract.
func (s *Sink) WriteCycleReport(ctx context.Context, cycle plan.Cycle, assignments []plan.Assignment, geometry []plan.GeometryRow) (string, error) {
	dir, err := s.CreateSession(fmt.Sprintf("cycle-%d", cycle.ID))
	if err != nil {
		return "", err
	}
	if _, err := s.SaveData(dir, "cycle", cycle); err != nil {
		return "", err
	}
	if len(assignments) > 0 {
		rows := make([]assignmentView, 0, len(assignments))
		for _, a := range assignments {
			rows = append(rows, assignmentView{
				TargetID:      a.Target.ID,
				PlatformID:    a.PlatformID,
				Score:         a.Score,
				MinDistanceKM: a.MinDistanceKM,
				Confidence:    a.Confidence,
				WindowCount:   a.WindowCount,
			})
		}
		if _, err := s.SaveData(dir, "assignments", rows); err != nil {
			return "", err
		}
	}
	if len(geometry) > 0 {
		if _, err := s.SaveData(dir, "geometry", geometry); err != nil {
			return "", err
		}
	}
	if _, err := s.RenderChart(dir, cycle, assignments, geometry); err != nil {
		return "", err
	}
	return dir, nil
}
