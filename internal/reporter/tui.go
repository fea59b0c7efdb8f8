package reporter

import (
	"fmt"
	"iter"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/task"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

type phase int

const (
	phaseBuilding phase = iota
	phaseTesting
	phaseDone
	phaseAborted
)

// RunResult is handed to AppOptions.OnRunComplete after every run.
type RunResult struct {
	TaskID   string
	Started  time.Time
	Duration time.Duration
	Summary  executor.Summary
	Err      error // validation or build failure
}

// AppOptions configures the interactive app.
type AppOptions struct {
	ConfigPath    string
	Runner        executor.Runner // nil runs real processes
	AutoRun       string          // task to run as soon as the config loads
	OnRunComplete func(RunResult) error
}

type tickMsg time.Time

type configMsg struct {
	cfg     *task.Config
	baseDir string
	err     error
}

type buildMsg struct {
	err error
}

type verdictMsg struct {
	v  executor.Verdict
	ok bool
}

type recordedMsg struct {
	err error
}

// runView is the state of the task run currently shown.
type runView struct {
	id       string
	name     string
	phase    phase
	verdicts []executor.Verdict
	summary  executor.Summary
	err      error
	started  time.Time

	exec    *executor.Executor
	next    func() (executor.Verdict, bool)
	stop    func()
	pending bool // a next() call is in flight
}

func (r *runView) active() bool {
	return r != nil && (r.phase == phaseBuilding || r.phase == phaseTesting)
}

// AppModel is the Bubbletea model behind "cdf ui". All state lives in the
// model; process execution and file I/O happen only inside tea.Cmds.
type AppModel struct {
	opts    AppOptions
	cfg     *task.Config
	baseDir string
	tasks   []task.Info
	cursor  int
	run     *runView
	err     error
	autoRan bool

	frame  int
	width  int
	height int
}

// NewAppModel creates the app model. The config is loaded by Init.
func NewAppModel(opts AppOptions) AppModel {
	return AppModel{opts: opts}
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(loadConfigCmd(m.opts.ConfigPath), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadConfigCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load(path)
		if err != nil {
			return configMsg{err: err}
		}
		base, err := config.BaseDirFor(path)
		return configMsg{cfg: cfg, baseDir: base, err: err}
	}
}

func buildCmd(e *executor.Executor, id string) tea.Cmd {
	return func() tea.Msg {
		if err := e.Check(id); err != nil {
			return buildMsg{err: err}
		}
		_, err := e.Build(id)
		return buildMsg{err: err}
	}
}

func nextVerdictCmd(next func() (executor.Verdict, bool)) tea.Cmd {
	return func() tea.Msg {
		v, ok := next()
		return verdictMsg{v: v, ok: ok}
	}
}

func recordCmd(fn func(RunResult) error, res RunResult) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		return recordedMsg{err: fn(res)}
	}
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case configMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.cfg = msg.cfg
		m.baseDir = msg.baseDir
		m.tasks = m.cfg.List()
		if m.cursor >= len(m.tasks) {
			m.cursor = max(len(m.tasks)-1, 0)
		}
		if m.opts.AutoRun != "" && !m.autoRan {
			m.autoRan = true
			id := task.NormalizeID(m.opts.AutoRun)
			for i, t := range m.tasks {
				if t.ID == id {
					m.cursor = i
				}
			}
			return m.startRun(id)
		}
		return m, nil

	case buildMsg:
		if m.run == nil {
			return m, nil
		}
		if msg.err != nil {
			m.run.phase = phaseAborted
			m.run.err = msg.err
			return m, m.finishRun()
		}
		m.run.phase = phaseTesting
		m.run.next, m.run.stop = iter.Pull(m.run.exec.Tests(m.run.id))
		m.run.pending = true
		return m, nextVerdictCmd(m.run.next)

	case verdictMsg:
		if m.run == nil {
			return m, nil
		}
		m.run.pending = false
		if !msg.ok {
			m.run.phase = phaseDone
			return m, m.finishRun()
		}
		m.run.verdicts = append(m.run.verdicts, msg.v)
		m.run.summary.Add(msg.v)
		m.run.pending = true
		return m, nextVerdictCmd(m.run.next)

	case recordedMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case tickMsg:
		m.frame++
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.run != nil && m.run.stop != nil && !m.run.pending {
			m.run.stop()
		}
		return m, tea.Quit

	case "j", "down":
		if !m.run.active() && m.cursor < len(m.tasks)-1 {
			m.cursor++
		}

	case "k", "up":
		if !m.run.active() && m.cursor > 0 {
			m.cursor--
		}

	case "enter":
		if m.run.active() || len(m.tasks) == 0 {
			return m, nil
		}
		return m.startRun(m.tasks[m.cursor].ID)

	case "r":
		if m.run.active() {
			return m, nil
		}
		return m, loadConfigCmd(m.opts.ConfigPath)

	case "esc":
		if !m.run.active() {
			m.run = nil
		}
	}
	return m, nil
}

func (m AppModel) startRun(id string) (tea.Model, tea.Cmd) {
	if m.cfg == nil {
		return m, nil
	}
	name, _ := m.cfg.TaskName(id)
	e := executor.New(m.cfg, m.baseDir, m.opts.Runner)
	m.run = &runView{
		id:      id,
		name:    name,
		phase:   phaseBuilding,
		started: time.Now(),
		exec:    e,
	}
	return m, buildCmd(e, id)
}

// finishRun releases the verdict iterator and reports the result.
func (m AppModel) finishRun() tea.Cmd {
	if m.run.stop != nil {
		m.run.stop()
	}
	return recordCmd(m.opts.OnRunComplete, RunResult{
		TaskID:   m.run.id,
		Started:  m.run.started,
		Duration: time.Since(m.run.started),
		Summary:  m.run.summary,
		Err:      m.run.err,
	})
}

// View implements tea.Model.
func (m AppModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("cdf: %s", m.opts.ConfigPath)))
	b.WriteString("\n\n")

	if m.cfg == nil && m.err == nil {
		b.WriteString(dimStyle.Render("  loading config..."))
		b.WriteString("\n")
	}

	if m.cfg != nil {
		b.WriteString(m.taskList())
	}

	if m.run != nil {
		b.WriteString("\n")
		b.WriteString(m.runPanel())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(failedStyle.Render(fmt.Sprintf("  error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  ↑↓/jk: select  enter: run tests  r: reload  esc: clear  q: quit"))
	return b.String()
}

func (m AppModel) taskList() string {
	if len(m.tasks) == 0 {
		return dimStyle.Render("  no tasks, add one with \"cdf add\"") + "\n"
	}
	var b strings.Builder
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s - %s, %d tests", task.DisplayID(t.ID), t.Name, len(t.Tests))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) runPanel() string {
	r := m.run
	var b strings.Builder

	name := r.name
	if name == "" {
		name = "unnamed task"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("Task %s - %s", task.DisplayID(r.id), name)))
	b.WriteString("\n")

	spinner := spinnerChars[m.frame%len(spinnerChars)]
	switch r.phase {
	case phaseBuilding:
		b.WriteString(runStyle.Render(spinner + " building"))
	case phaseTesting:
		b.WriteString(runStyle.Render(fmt.Sprintf("%s testing (%d done)", spinner, len(r.verdicts))))
	case phaseAborted:
		b.WriteString(failedStyle.Render(fmt.Sprintf("✗ %v", r.err)))
	case phaseDone:
		if r.summary.OK() {
			b.WriteString(doneStyle.Render(fmt.Sprintf("✓ %d/%d passed", r.summary.Passed, r.summary.Total)))
		} else {
			b.WriteString(failedStyle.Render(fmt.Sprintf("✗ %d passed, %d failed, %d errors",
				r.summary.Passed, r.summary.Failed, r.summary.Errored)))
		}
	}
	b.WriteString("\n")

	if len(r.verdicts) > 0 {
		var marks strings.Builder
		for _, v := range r.verdicts {
			marks.WriteString(mark(v))
		}
		b.WriteString("  " + marks.String() + "\n")
	}

	for _, v := range r.verdicts {
		switch v.Status {
		case executor.StatusFailed:
			b.WriteString(failedStyle.Render(fmt.Sprintf("  test %d: expected %s, got %s",
				v.Number(), preview(v.Expected), preview(v.Actual.Stdout))))
			b.WriteString("\n")
		case executor.StatusError:
			b.WriteString(errStyle.Render(fmt.Sprintf("  test %d: %v", v.Number(), v.Err)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func mark(v executor.Verdict) string {
	switch v.Status {
	case executor.StatusOK:
		return doneStyle.Render(".")
	case executor.StatusFailed:
		return failedStyle.Render("x")
	default:
		return errStyle.Render("E")
	}
}

// preview quotes s on one line, truncated to 40 characters.
func preview(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if r := []rune(s); len(r) > 40 {
		s = string(r[:40]) + "..."
	}
	return fmt.Sprintf("%q", s)
}
