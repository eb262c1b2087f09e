package plan

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"satops-plan/internal/config"
	"satops-plan/internal/session"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// cycleMsg carries a completed cycle for the header and log.
type cycleMsg struct {
	line string
	row  CycleRow
}

// assignMsg carries an assignment log line.
type assignMsg struct{ line string }

// geomMsg carries a geometry log line.
type geomMsg struct{ line string }

// sessionMsg carries a discussion registry snapshot.
type sessionMsg struct{ handles []session.Handle }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

const maxSectionHeightPct = 0.2

// TUIWriter renders planning output using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.PlanningConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_ = p.Start()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteCycle implements CycleWriter.
func (w *TUIWriter) WriteCycle(row CycleRow) error {
	stateColor := colorGreen
	if row.State == string(StateError) {
		stateColor = colorRed
	}
	line := fmt.Sprintf("%s[%s]%s %scycle=%d%s %s%s%s %sdetections=%d%s %sassigned=%d%s %sunassigned=%d%s %sgdop=%.2f%s %s%dms%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.CycleID, colorReset,
		stateColor, row.State, colorReset,
		colorYellow, row.DetectionCount, colorReset,
		colorGreen, row.AssignmentCount, colorReset,
		colorRed, row.UnassignedCount, colorReset,
		colorCyan, row.MeanGDOP, colorReset,
		colorGray, row.DurationMS, colorReset)
	w.program.Send(cycleMsg{line: line, row: row})
	return nil
}

// WriteAssignment implements AssignmentWriter.
func (w *TUIWriter) WriteAssignment(row AssignmentRow) error {
	line := fmt.Sprintf("%s[%s]%s %sASSIGN%s %starget=%s%s %splatform=%s%s %sdist=%.1fkm%s %sconf=%.2f%s %swindows=%d%s %sscore=%.1f%s %sthreat=%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset,
		colorWhite(), row.TargetID, colorReset,
		colorBlue, row.PlatformID, colorReset,
		colorGreen, row.MinDistanceKM, colorReset,
		colorCyan, row.Confidence, colorReset,
		colorYellow, row.WindowCount, colorReset,
		colorGray, row.Score, colorReset,
		colorRed, row.Threat, colorReset)
	w.program.Send(assignMsg{line: line})
	return nil
}

// WriteGeometry implements GeometryWriter.
func (w *TUIWriter) WriteGeometry(row GeometryRow) error {
	line := fmt.Sprintf("%s[%s]%s %sGEOM%s %starget=%s%s %sgdop=%.2f%s %spdop=%.2f%s %squality=%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorCyan, colorReset,
		colorWhite(), row.TargetID, colorReset,
		colorGreen, row.GDOP, colorReset,
		colorYellow, row.PDOP, colorReset,
		colorMagenta, row.Quality, colorReset)
	w.program.Send(geomMsg{line: line})
	return nil
}

// WriteCycles outputs multiple cycle rows.
func (w *TUIWriter) WriteCycles(rows []CycleRow) error {
	for _, r := range rows {
		_ = w.WriteCycle(r)
	}
	return nil
}

// WriteAssignments outputs multiple assignment rows.
func (w *TUIWriter) WriteAssignments(rows []AssignmentRow) error {
	for _, r := range rows {
		_ = w.WriteAssignment(r)
	}
	return nil
}

// WriteGeometries outputs multiple geometry rows.
func (w *TUIWriter) WriteGeometries(rows []GeometryRow) error {
	for _, r := range rows {
		_ = w.WriteGeometry(r)
	}
	return nil
}

// SetSessions pushes a discussion registry snapshot to the UI.
func (w *TUIWriter) SetSessions(handles []session.Handle) {
	w.program.Send(sessionMsg{handles: handles})
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.PlanningConfig
	table        table.Model
	vp           viewport.Model
	geomVP       viewport.Model
	logs         []string
	geomLogs     []string
	lastCycle    CycleRow
	haveCycle    bool
	sessions     []session.Handle
	admin        bool
	wrap         bool
	autoscroll   bool
	showSessions bool
	help         bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.PlanningConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 24},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 24},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Platforms", fmt.Sprintf("%d", len(cfg.Platforms)), "Max Cycles", fmt.Sprintf("%d", cfg.MaxCycles)},
		{"Visibility Threshold (km)", fmt.Sprintf("%.0f", cfg.Distribution.VisibilityThresholdKM), "Workers", fmt.Sprintf("%d", cfg.Distribution.Workers)},
		{"Targets per Cycle", fmt.Sprintf("%d", cfg.Spawner.CountPerCycle), "Max Iterations", fmt.Sprintf("%d", cfg.Discussion.MaxIterations)},
		{"Poll Interval (s)", fmt.Sprintf("%.0f", cfg.Discussion.PollIntervalS), "Safety Margin", fmt.Sprintf("%.1f", cfg.Discussion.SafetyMargin)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	m := tuiModel{
		cfg:          cfg,
		table:        t,
		vp:           viewport.New(0, 0),
		geomVP:       viewport.New(0, 0),
		autoscroll:   true,
		showSessions: true,
	}
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.geomVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshGeometry()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.geomVP.GotoBottom()
			}
			return m, nil
		case "d":
			m.showSessions = !m.showSessions
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.geomVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.geomVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.geomVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.geomVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.geomVP, _ = m.geomVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case cycleMsg:
		m.lastCycle = msg.row
		m.haveCycle = true
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 1000 {
			m.logs = m.logs[len(m.logs)-1000:]
		}
		m.refreshViewport()
	case assignMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 1000 {
			m.logs = m.logs[len(m.logs)-1000:]
		}
		m.refreshViewport()
	case geomMsg:
		m.geomLogs = append(m.geomLogs, msg.line)
		if len(m.geomLogs) > 1000 {
			m.geomLogs = m.geomLogs[len(m.geomLogs)-1000:]
		}
		m.updateViewportHeight()
		m.refreshGeometry()
		m.refreshViewport()
	case sessionMsg:
		m.sessions = msg.handles
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())

	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	geomLines := len(m.geomLogs)
	if geomLines == 0 {
		geomLines = 1
	}
	if geomLines > maxLines {
		geomLines = maxLines
	}
	m.geomVP.Height = geomLines

	sessionHeight := 0
	if m.showSessions {
		sessionHeight = lipgloss.Height(m.renderSessions())
	}
	h := m.height - m.headerHeight - bottomHeight - m.geomVP.Height - sessionHeight - 5
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
		m.geomVP.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshGeometry() {
	content := "none"
	if len(m.geomLogs) > 0 {
		content = strings.Join(m.geomLogs, "\n")
	}
	m.geomVP.SetContent(content)
	if m.autoscroll {
		m.geomVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Geometry:",
		m.geomVP.View(),
	}
	if m.showSessions {
		sections = append(sections, divider, m.renderSessions())
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.table.View()
}

func (m tuiModel) renderSessions() string {
	var b strings.Builder
	b.WriteString("Discussions:\n")
	if len(m.sessions) == 0 {
		b.WriteString("  none")
		return b.String()
	}
	for _, h := range m.sessions {
		statusColor := colorGreen
		switch h.Progress.Status {
		case session.StatusFailed, session.StatusForceClean:
			statusColor = colorRed
		case session.StatusActive:
			statusColor = colorYellow
		}
		short := h.ID
		if len(short) > 20 {
			short = short[:20]
		}
		fmt.Fprintf(&b, "  %s%-20s%s iter=%d/%d quality=%.2f %s%s%s\n",
			colorWhite(), short, colorReset,
			h.Progress.Iteration, h.Progress.MaxIterations, h.Progress.Quality,
			statusColor, h.Progress.Status, colorReset)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderBottom() string {
	status := fmt.Sprintf("cycle=%s", "-")
	if m.haveCycle {
		status = fmt.Sprintf("cycle=%d state=%s assigned=%d", m.lastCycle.CycleID, m.lastCycle.State, m.lastCycle.AssignmentCount)
	}
	admin := ""
	if m.admin {
		admin = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(" [admin]")
	}
	keys := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
		Render("q quit · w wrap · s scroll · d discussions · ? help")
	return status + admin + "\n" + keys
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Keys:",
		"  q, ctrl+c  quit",
		"  w          toggle line wrap",
		"  s          toggle autoscroll",
		"  d          toggle discussion panel",
		"  j/k        scroll (when autoscroll off)",
		"  ?, h       toggle this help",
	}
	return strings.Join(lines, "\n")
}
