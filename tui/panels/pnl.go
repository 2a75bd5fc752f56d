package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/tidemark/internal/backtest"
	"github.com/zappabad/tidemark/tui/styles"
)

// PnLPanel draws the cumulative PnL curve across the whole run with a cursor
// marking the tick currently inspected.
type PnLPanel struct {
	rows    []backtest.ResultRow
	cursor  int
	focused bool
	width   int
	height  int
}

// NewPnLPanel creates the PnL chart panel.
func NewPnLPanel(rows []backtest.ResultRow) *PnLPanel {
	return &PnLPanel{rows: rows}
}

// SetCursor moves the inspected tick.
func (p *PnLPanel) SetCursor(cursor int) {
	p.cursor = cursor
}

// SetFocus sets the focus state of the panel.
func (p *PnLPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PnLPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the panel.
func (p *PnLPanel) View() string {
	innerW := p.width - 4
	innerH := p.height - 6
	if innerW < 4 || innerH < 2 || len(p.rows) == 0 {
		return p.frame("")
	}

	values := make([]float64, len(p.rows))
	lo, hi := 0.0, 0.0
	for i, row := range p.rows {
		v, _ := row.PnL.Float64()
		values[i] = v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// One column per screen cell, sampling the run across the width.
	cursorCol := 0
	levels := make([]int, innerW)
	for col := 0; col < innerW; col++ {
		idx := col * (len(values) - 1) / max(innerW-1, 1)
		levels[col] = int((values[idx] - lo) / span * float64(innerH-1))
		if idx <= p.cursor {
			cursorCol = col
		}
	}

	var b strings.Builder
	for line := innerH - 1; line >= 0; line-- {
		for col := 0; col < innerW; col++ {
			switch {
			case col == cursorCol && levels[col] == line:
				b.WriteString(styles.CursorStyle.Render("┃"))
			case levels[col] == line:
				b.WriteString(styles.ChartLineStyle.Render("█"))
			case levels[col] > line && line == 0:
				b.WriteString(styles.ChartAxisStyle.Render("_"))
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	row := p.rows[p.cursor]
	label := fmt.Sprintf("tick %d/%d  t=%d  pnl=%s",
		p.cursor+1, len(p.rows), row.Timestamp, row.PnL.StringFixed(0))
	b.WriteString(styles.RenderPnL(label, row.PnL.IsNegative()))
	b.WriteString("\n")
	b.WriteString(styles.ChartAxisStyle.Render(
		fmt.Sprintf("min %.0f  max %.0f", lo, hi)))

	return p.frame(b.String())
}

func (p *PnLPanel) frame(content string) string {
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("PnL", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content)
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}
