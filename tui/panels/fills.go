package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/tui/styles"
)

// FillsPanel is a tape of executed fills up to the inspected tick, most
// recent first.
type FillsPanel struct {
	fills   []market.Fill
	upTo    int64
	focused bool
	width   int
	height  int
}

// NewFillsPanel creates a fills tape over a run's fills.
func NewFillsPanel(fills []market.Fill) *FillsPanel {
	return &FillsPanel{fills: fills}
}

// SetUpTo hides fills after the given timestamp.
func (p *FillsPanel) SetUpTo(ts int64) {
	p.upTo = ts
}

// View renders the panel.
func (p *FillsPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%10s %-16s %5s %8s %8s", "Time", "Product", "Side", "Qty", "Price")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	visible := make([]market.Fill, 0, len(p.fills))
	for _, f := range p.fills {
		if f.Timestamp <= p.upTo {
			visible = append(visible, f)
		}
	}
	limit := p.height - 5
	if limit < 1 {
		limit = 1
	}
	if len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}

	for i := len(visible) - 1; i >= 0; i-- {
		f := visible[i]
		side, style := "BUY", styles.BuyStyle
		if f.Side == book.SideSell {
			side, style = "SELL", styles.SellStyle
		}
		row := fmt.Sprintf("%10d %-16s %5s %8d %8d", f.Timestamp, f.Symbol, side, f.Quantity, f.Price)
		content.WriteString(style.Render(row))
		if i > 0 {
			content.WriteString("\n")
		}
	}
	if len(visible) == 0 {
		content.WriteString(styles.TimeStyle.Render("no fills yet"))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Fills", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *FillsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *FillsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}
