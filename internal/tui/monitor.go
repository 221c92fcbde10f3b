// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"lipsync/internal/analysis"
	"lipsync/internal/transport"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	vowelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(1, 4).
			Bold(true)

	idleStyle = vowelStyle.
			Background(lipgloss.Color("#3C3C3C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8")).
			Width(10)
)

const barWidth = 40

type estimateMsg transport.EstimateEvent

type failureMsg string

type monitorKeys struct {
	Pause key.Binding
	Quit  key.Binding
}

func (k monitorKeys) ShortHelp() []key.Binding  { return []key.Binding{k.Pause, k.Quit} }
func (k monitorKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultMonitorKeys = monitorKeys{
	Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// MonitorModel shows the most recent estimate.
type MonitorModel struct {
	source       string
	dynamicRange float64

	keys   monitorKeys
	help   help.Model
	amount progress.Model
	level  progress.Model

	last     transport.EstimateEvent
	received int
	paused   bool
	failure  string
}

// NewMonitorModel creates a monitor. source names the input shown in the
// header; dynamicRange maps levels in dB onto the level meter.
func NewMonitorModel(source string, dynamicRange float64) MonitorModel {
	return MonitorModel{
		source:       source,
		dynamicRange: dynamicRange,
		keys:         defaultMonitorKeys,
		help:         help.New(),
		amount:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		level:        progress.New(progress.WithSolidFill("#25A065"), progress.WithWidth(barWidth)),
	}
}

func (m MonitorModel) Init() tea.Cmd { return nil }

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case estimateMsg:
		m.received++
		if !m.paused {
			m.last = transport.EstimateEvent(msg)
		}

	case failureMsg:
		m.failure = string(msg)
	}
	return m, nil
}

func (m MonitorModel) View() string {
	var sb strings.Builder

	header := "Lip Sync Monitor"
	if m.source != "" {
		header += " - " + m.source
	}
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString("\n\n")

	if m.failure != "" {
		sb.WriteString(errorStyle.Render("analysis stopped: " + m.failure))
		sb.WriteString("\n\n")
	}

	if m.received == 0 {
		sb.WriteString(infoStyle.Render("Waiting for audio..."))
		sb.WriteString("\n\n")
		sb.WriteString(m.help.View(m.keys))
		return sb.String()
	}

	ev := m.last
	style := vowelStyle
	if ev.Vowel == analysis.NoVowel {
		style = idleStyle
	}
	sb.WriteString(style.Render(fmt.Sprintf("%-2s", ev.Name)))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render("Raw"), ev.Raw)
	fmt.Fprintf(&sb, "%s%s %.2f\n", labelStyle.Render("Amount"), m.amount.ViewAs(ev.Amount), ev.Amount)
	fmt.Fprintf(&sb, "%s%s %.1f dB\n", labelStyle.Render("Level"), m.level.ViewAs(m.levelFraction(ev.Level)), ev.Level)
	fmt.Fprintf(&sb, "%s%.4f\n", labelStyle.Render("Distance"), ev.Distance)
	fmt.Fprintf(&sb, "%s%d\n", labelStyle.Render("Frames"), m.received)

	if m.paused {
		sb.WriteString("\n")
		sb.WriteString(highlightStyle.Render("paused"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m MonitorModel) levelFraction(level float64) float64 {
	if m.dynamicRange <= 0 {
		return 0
	}
	return min(max((level+m.dynamicRange)/m.dynamicRange, 0), 1)
}

// Monitor runs a MonitorModel and receives events as a transport. Events
// that arrive while the UI is busy are dropped.
type Monitor struct {
	program *tea.Program
	events  chan tea.Msg
	dropped atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewMonitor prepares the UI. Call Run to display it.
func NewMonitor(model MonitorModel, opts ...tea.ProgramOption) *Monitor {
	return &Monitor{
		program: tea.NewProgram(model, opts...),
		events:  make(chan tea.Msg, 64),
		done:    make(chan struct{}),
	}
}

// Run blocks until the user quits or Close is called.
func (m *Monitor) Run() error {
	go m.forward()
	_, err := m.program.Run()
	m.closeOnce.Do(func() { close(m.done) })
	return err
}

func (m *Monitor) forward() {
	for {
		select {
		case msg := <-m.events:
			m.program.Send(msg)
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) Send(data any) error {
	var msg tea.Msg
	switch ev := data.(type) {
	case transport.EstimateEvent:
		msg = estimateMsg(ev)
	case transport.FailureEvent:
		msg = failureMsg(ev.Message)
	default:
		return nil
	}

	select {
	case m.events <- msg:
	case <-m.done:
	default:
		m.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of events discarded because the UI lagged.
func (m *Monitor) Dropped() uint64 { return m.dropped.Load() }

func (m *Monitor) Close() error {
	m.program.Quit()
	return nil
}
