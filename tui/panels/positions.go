package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/tidemark/internal/backtest"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/tui/styles"
)

// PositionsPanel shows each product's mid and signed position at the
// inspected tick, alongside its position limit.
type PositionsPanel struct {
	symbols       []market.Symbol
	limits        map[market.Symbol]int64
	row           backtest.ResultRow
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewPositionsPanel creates a positions panel over a fixed symbol set.
func NewPositionsPanel(symbols []market.Symbol, limits map[market.Symbol]int64) *PositionsPanel {
	return &PositionsPanel{symbols: symbols, limits: limits}
}

// SetRow points the panel at one tick's summary.
func (p *PositionsPanel) SetRow(row backtest.ResultRow) {
	p.row = row
}

// Update handles messages for the panel.
func (p *PositionsPanel) Update(msg tea.Msg) (*PositionsPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.symbols)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *PositionsPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-16s %10s %8s %8s", "Product", "Mid", "Pos", "Limit")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, sym := range p.symbols {
		mid := "-"
		if v, ok := p.row.Mids[sym]; ok {
			mid = fmt.Sprintf("%.1f", v)
		}
		pos := p.row.Positions[sym]

		row := fmt.Sprintf("%-16s %10s %8d %8d", sym, mid, pos, p.limits[sym])
		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		} else if pos < 0 {
			style = styles.SellStyle
		} else if pos > 0 {
			style = styles.BuyStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.symbols)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Positions", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *PositionsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PositionsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}
