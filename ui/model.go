// Package ui implements the peripheral Snapshot viewer: a read-only
// bubbletea program that tails a Core's event log and renders its most
// recent pulse, reflection, and rebloom state. It is deliberately outside
// the Core's contract — it never calls a mutator, and a `dawn run` process
// writing to the same data directory never knows it's being watched.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/dawnlabs/dawn-core/eventlog"
	"github.com/dawnlabs/dawn-core/model"
)

const refreshInterval = 500 * time.Millisecond

type tickMsg time.Time

type loadedMsg struct {
	events      []model.Event
	parseErrors int
	err         error
}

// Model is the bubbletea program state.
type Model struct {
	path string

	events      []model.Event
	parseErrors int
	loadErr     error

	width, height int
	quitting      bool
}

// NewModel creates a viewer model reading path (an event log JSON Lines
// file) on a fixed refresh interval.
func NewModel(path string) Model {
	return Model{path: path}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(scheduleTick(), load(m.path))
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func load(path string) tea.Cmd {
	return func() tea.Msg {
		events, parseErrors, err := eventlog.ReadLog(path)
		return loadedMsg{events: events, parseErrors: parseErrors, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		return m, tea.Batch(scheduleTick(), load(m.path))
	case loadedMsg:
		m.events = msg.events
		m.parseErrors = msg.parseErrors
		m.loadErr = msg.err
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.loadErr != nil {
		return errorStyle.Render(fmt.Sprintf("cannot read %s: %v\n", m.path, m.loadErr))
	}

	var state, reflection, rebloom *model.Event
	sigilCount := 0
	for i := len(m.events) - 1; i >= 0; i-- {
		e := &m.events[i]
		switch e.Type {
		case model.EventState:
			if state == nil {
				state = e
			}
		case model.EventReflection:
			if reflection == nil {
				reflection = e
			}
		case model.EventRebloom:
			if rebloom == nil {
				rebloom = e
			}
		case model.EventSigil:
			sigilCount++
		}
	}

	header := titleStyle.Render("DAWN — snapshot viewer") + "  " + pathStyle.Render(m.path)
	body := renderState(state) + "\n\n" + renderReflection(reflection) + "\n\n" + renderRebloom(rebloom)
	footer := footerStyle.Render(fmt.Sprintf(
		"%s events  |  %d parse errors  |  %d sigil events seen  |  q to quit",
		humanize.Comma(int64(len(m.events))), m.parseErrors, sigilCount,
	))

	return panelStyle.Render(header + "\n\n" + body + "\n\n" + footer)
}

func renderState(e *model.Event) string {
	if e == nil {
		return dimStyle.Render("no STATE event yet")
	}
	payload, _ := e.Payload.(map[string]interface{})
	return labelStyle.Render("pulse") + dimStyle.Render("  "+humanize.Time(e.Timestamp)) + "\n" +
		fmt.Sprintf("  zone=%s mood=%s trend=%v\n", str(payload["zone"]), str(payload["mood"]), payload["trend"]) +
		fmt.Sprintf("  heat=%.1f entropy=%.3f scup=%.3f\n", num(payload["heat"]), num(payload["entropy"]), num(payload["scup"])) +
		fmt.Sprintf("  pressure=%.1f (%s)  tick=%d", num(payload["pressure"]), str(payload["pressure_level"]), e.Tick)
}

func renderReflection(e *model.Event) string {
	if e == nil {
		return dimStyle.Render("no REFLECTION event yet")
	}
	payload, _ := e.Payload.(map[string]interface{})
	return labelStyle.Render("reflection") + dimStyle.Render("  "+humanize.Time(e.Timestamp)) + "\n  " + str(payload["text"])
}

func renderRebloom(e *model.Event) string {
	if e == nil {
		return dimStyle.Render("no REBLOOM event yet")
	}
	payload, _ := e.Payload.(map[string]interface{})
	return labelStyle.Render("last rebloom") + dimStyle.Render("  "+humanize.Time(e.Timestamp)) + "\n" +
		fmt.Sprintf("  kind=%s mass=%.2f tick=%d", str(payload["kind"]), num(payload["mass"]), e.Tick)
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func num(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
