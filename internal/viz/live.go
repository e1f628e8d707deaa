// Package viz renders a running simulation in the terminal: a block-character
// heat map of the occupancy field next to a live stats panel.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/heatmc/internal/sim"
)

const (
	historyCapacity = 600
	stepsPerTick    = 4
)

// heatRamp maps normalized density to block characters, coldest first.
var heatRamp = []rune{' ', '░', '▒', '▓', '█'}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model drives one simulator from the event loop.
type Model struct {
	simulator *sim.Simulator
	running   bool
	err       error

	hotspotHistory []float64
}

// NewModel wraps a fresh simulator; it is initialized and started here so
// the first tick can step immediately.
func NewModel(s *sim.Simulator) (Model, error) {
	s.Initialize()
	if err := s.Start(); err != nil {
		return Model{}, err
	}
	return Model{
		simulator:      s,
		running:        true,
		hotspotHistory: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.simulator.Initialize()
			if err := m.simulator.Start(); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.hotspotHistory = m.hotspotHistory[:0]
			m.running = true
		}
	case TickMsg:
		if m.running && !m.simulator.Done() {
			for i := 0; i < stepsPerTick && !m.simulator.Done(); i++ {
				summary, err := m.simulator.Step()
				if err != nil {
					m.err = err
					return m, tea.Quit
				}
				m.hotspotHistory = append(m.hotspotHistory, summary.HotspotTemperature)
				if len(m.hotspotHistory) > historyCapacity {
					m.hotspotHistory = m.hotspotHistory[1:]
				}
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// Err reports a step failure that ended the session.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	cfg := m.simulator.Config()
	stats := m.simulator.LastStats()

	canvasView := canvasStyle.Render(m.renderField())

	var s strings.Builder
	s.WriteString(headerStyle.Render("HEAT SINK / "+strings.ToUpper(cfg.Material)) + "\n")

	status := "RUNNING"
	if m.simulator.Done() {
		status = "FINISHED"
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.hotspotHistory) > 1 {
		chart := asciigraph.Plot(m.hotspotHistory,
			asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("Hot-spot density"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") +
		valueStyle.Render(fmt.Sprintf("%.2fs / %.2fs", m.simulator.CurrentTime(), cfg.TMax)) + "\n")
	s.WriteString(labelStyle.Render("Step") +
		valueStyle.Render(fmt.Sprintf("%d / %d", m.simulator.CurrentStep(), cfg.Steps)) + "\n")
	s.WriteString(labelStyle.Render("Active packets") +
		valueStyle.Render(fmt.Sprintf("%d", m.simulator.ActivePackets())) + "\n")
	s.WriteString(labelStyle.Render("Hot-spot") +
		valueStyle.Render(fmt.Sprintf("%.3f", stats.HotspotMean)) + "\n")
	s.WriteString(labelStyle.Render("Field max") +
		valueStyle.Render(fmt.Sprintf("%.0f", stats.Max)) + "\n")
	s.WriteString(labelStyle.Render("Injection") +
		valueStyle.Render(fmt.Sprintf("%d/step", cfg.Q)) + "\n")
	s.WriteString(labelStyle.Render("Boundary") +
		valueStyle.Render(string(cfg.Boundary)) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Restart Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// renderField draws the occupancy grid with y up, two characters per cell so
// cells come out roughly square in a terminal.
func (m Model) renderField() string {
	cfg := m.simulator.Config()
	field := m.simulator.FieldSnapshot()

	maxVal := 0.0
	for _, v := range field {
		if v > maxVal {
			maxVal = v
		}
	}

	var b strings.Builder
	for y := cfg.Ny - 1; y >= 0; y-- {
		for x := 0; x < cfg.Nx; x++ {
			v := field[x*cfg.Ny+y]
			idx := 0
			if maxVal > 0 {
				idx = int(v / maxVal * float64(len(heatRamp)-1))
			}
			b.WriteRune(heatRamp[idx])
			b.WriteRune(heatRamp[idx])
		}
		if y > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Run starts the event loop and blocks until the viewer exits.
func Run(s *sim.Simulator) error {
	model, err := NewModel(s)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
