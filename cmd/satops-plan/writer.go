package main

import (
	"os"

	"golang.org/x/term"

	"satops-plan/internal/config"
	"satops-plan/internal/plan"
)

// newWriters sets up cycle, assignment, and geometry writers based on flags
// and env vars. The returned TUI writer is non-nil when the interactive view
// is active; cleanup closes any file resources.
func newWriters(cfg *config.PlanningConfig, printOnly, noTUI bool, logFile string) (plan.CycleWriter, plan.AssignmentWriter, plan.GeometryWriter, *plan.TUIWriter, func(), error) {
	cleanup := func() {}

	cw, aw, gw, tui, err := baseWriters(cfg, printOnly, noTUI)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if logFile == "" {
		return cw, aw, gw, tui, cleanup, nil
	}

	fw, err := plan.NewFileWriter(logFile, logFile+".assignments", logFile+".geometry")
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	mw := plan.NewMultiWriter(
		[]plan.CycleWriter{cw, fw},
		[]plan.AssignmentWriter{aw, fw},
		[]plan.GeometryWriter{gw, fw},
	)
	cleanup = func() { fw.Close() }
	return mw, mw, mw, tui, cleanup, nil
}

// baseWriters chooses the underlying writer based on the printOnly flag and
// env vars. An interactive terminal gets the TUI unless disabled, a plain
// terminal gets colored lines, and a pipe gets JSONL.
func baseWriters(cfg *config.PlanningConfig, printOnly, noTUI bool) (plan.CycleWriter, plan.AssignmentWriter, plan.GeometryWriter, *plan.TUIWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if !noTUI && cfg != nil {
				tw := plan.NewTUIWriter(cfg)
				return tw, tw, tw, tw, nil
			}
			cw := plan.NewColorStdoutWriter()
			return cw, cw, cw, nil, nil
		}
		jw := plan.NewJSONStdoutWriter()
		return jw, jw, jw, nil, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := plan.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return w, w, w, nil, nil
}

// newCycleWriter creates a cycle writer without the interactive view, used
// by replay.
func newCycleWriter(printOnly bool) (plan.CycleWriter, error) {
	w, _, _, _, _, err := newWriters(nil, printOnly, true, "")
	return w, err
}
