// ColorStdoutWriter prints human-friendly, colorized planning output to STDOUT.
package plan

import (
	"fmt"
	"io"
	"os"
	"time"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

func colorWhite() string { return "\x1b[37m" }

// ColorStdoutWriter prints planning rows using ANSI colors.
type ColorStdoutWriter struct {
	out io.Writer
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout}
}

// WriteCycle prints a cycle summary line.
func (w *ColorStdoutWriter) WriteCycle(row CycleRow) error {
	stateColor := colorGreen
	if row.State == string(StateError) {
		stateColor = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sCYCLE %d%s %s%s%s detections=%d platforms=%d assigned=%d unassigned=%d",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.CycleID, colorReset,
		stateColor, row.State, colorReset,
		row.DetectionCount, row.PlatformCount, row.AssignmentCount, row.UnassignedCount)
	if row.GeometryQuality != "" {
		fmt.Fprintf(w.out, " %sgdop=%.2f(%s)%s", colorCyan, row.MeanGDOP, row.GeometryQuality, colorReset)
	}
	if row.Error != "" {
		fmt.Fprintf(w.out, " %serr=%s%s", colorRed, row.Error, colorReset)
	}
	fmt.Fprintf(w.out, " %s%dms%s\n", colorGray, row.DurationMS, colorReset)
	return nil
}

// WriteAssignment prints one assignment line.
func (w *ColorStdoutWriter) WriteAssignment(row AssignmentRow) error {
	threatColor := colorGreen
	switch row.Threat {
	case "high":
		threatColor = colorYellow
	case "critical":
		threatColor = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sASSIGN%s %starget=%s%s %splatform=%s%s %sdist=%.1fkm%s %sconf=%.2f%s %swin=%d%s %sscore=%.1f%s %s%s%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset,
		colorWhite(), row.TargetID, colorReset,
		colorBlue, row.PlatformID, colorReset,
		colorGreen, row.MinDistanceKM, colorReset,
		colorCyan, row.Confidence, colorReset,
		colorYellow, row.WindowCount, colorReset,
		colorGray, row.Score, colorReset,
		threatColor, row.Threat, colorReset)
	return nil
}

// WriteGeometry prints one geometry line.
func (w *ColorStdoutWriter) WriteGeometry(row GeometryRow) error {
	qualityColor := colorGreen
	switch row.Quality {
	case "moderate":
		qualityColor = colorYellow
	case "poor", "bad":
		qualityColor = colorRed
	}
	if !row.Usable {
		fmt.Fprintf(w.out, "%s[%s]%s %sGEOM%s %starget=%s%s %sunusable: %s%s\n",
			colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
			colorCyan, colorReset,
			colorWhite(), row.TargetID, colorReset,
			colorRed, row.Quality, colorReset)
		return nil
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sGEOM%s %starget=%s%s %sgdop=%.2f%s %spdop=%.2f%s %shdop=%.2f%s %svdop=%.2f%s %s%s%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorCyan, colorReset,
		colorWhite(), row.TargetID, colorReset,
		colorGreen, row.GDOP, colorReset,
		colorYellow, row.PDOP, colorReset,
		colorBlue, row.HDOP, colorReset,
		colorMagenta, row.VDOP, colorReset,
		qualityColor, row.Quality, colorReset)
	return nil
}
