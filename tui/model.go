// Package tui is a terminal viewer for a finished backtest run: the PnL
// curve, per-product positions and the fill tape, scrubbed tick by tick.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/tidemark/internal/backtest"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/tui/panels"
	"github.com/zappabad/tidemark/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusPnL       PanelFocus = 0
	FocusPositions PanelFocus = 1
	FocusFills     PanelFocus = 2
)

// Model is the results viewer application model.
type Model struct {
	res    *backtest.Result
	cursor int

	pnlPanel       *panels.PnLPanel
	positionsPanel *panels.PositionsPanel
	fillsPanel     *panels.FillsPanel

	focusedPanel PanelFocus

	width  int
	height int
	ready  bool
}

// NewModel creates a viewer over a completed run.
func NewModel(res *backtest.Result, symbols []market.Symbol, limits map[market.Symbol]int64) *Model {
	m := &Model{
		res:            res,
		pnlPanel:       panels.NewPnLPanel(res.Rows),
		positionsPanel: panels.NewPositionsPanel(symbols, limits),
		fillsPanel:     panels.NewFillsPanel(res.Fills),
	}
	m.setCursor(len(res.Rows) - 1)
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % 3
		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = 2
			}

		// Tick scrubbing
		case "left", "h":
			m.setCursor(m.cursor - 1)
		case "right", "l":
			m.setCursor(m.cursor + 1)
		case "pgup":
			m.setCursor(m.cursor - 100)
		case "pgdown":
			m.setCursor(m.cursor + 100)
		case "home", "g":
			m.setCursor(0)
		case "end", "G":
			m.setCursor(len(m.res.Rows) - 1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
	}

	if m.focusedPanel == FocusPositions {
		var cmd tea.Cmd
		m.positionsPanel, cmd = m.positionsPanel.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setCursor(cursor int) {
	if len(m.res.Rows) == 0 {
		return
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(m.res.Rows)-1 {
		cursor = len(m.res.Rows) - 1
	}
	m.cursor = cursor

	row := m.res.Rows[cursor]
	m.pnlPanel.SetCursor(cursor)
	m.positionsPanel.SetRow(row)
	m.fillsPanel.SetUpTo(row.Timestamp)
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.pnlPanel.SetFocus(m.focusedPanel == FocusPnL)
	m.positionsPanel.SetFocus(m.focusedPanel == FocusPositions)
	m.fillsPanel.SetFocus(m.focusedPanel == FocusFills)

	// Layout:
	// +---------------------------------------------+
	// |                    PnL                      |
	// +----------------------+----------------------+
	// |      Positions       |        Fills         |
	// +----------------------+----------------------+

	topHeight := (m.height - 3) / 2
	bottomHeight := m.height - topHeight - 3
	leftWidth := m.width / 2

	m.pnlPanel.SetSize(m.width, topHeight)
	m.positionsPanel.SetSize(leftWidth, bottomHeight)
	m.fillsPanel.SetSize(m.width-leftWidth, bottomHeight)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.positionsPanel.View(),
		m.fillsPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, m.pnlPanel.View(), bottomRow, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := []string{
		styles.StatusBarKeyStyle.Render("←/→") + styles.StatusBarDescStyle.Render(" scrub"),
		styles.StatusBarKeyStyle.Render("PgUp/PgDn") + styles.StatusBarDescStyle.Render(" jump"),
		styles.StatusBarKeyStyle.Render("g/G") + styles.StatusBarDescStyle.Render(" start/end"),
		styles.StatusBarKeyStyle.Render("Tab") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
	}

	helpStr := lipgloss.JoinHorizontal(lipgloss.Center,
		help[0], " │ ", help[1], " │ ", help[2], " │ ", help[3], " │ ", help[4])

	return styles.StatusBarStyle.Width(m.width).Render(helpStr)
}
