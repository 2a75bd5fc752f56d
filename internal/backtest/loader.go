// Package backtest replays historical order-book snapshots through the
// orchestrator and mechanically fills the returned orders against the same
// book, producing a deterministic PnL and position trajectory.
package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
)

// Historical data columns. Rows are semicolon-delimited, one per
// (timestamp, product) pair, with up to three price levels per side. Level 2
// and 3 columns are optional; missing cells are skipped, never zero-filled.
var requiredColumns = []string{
	"timestamp", "product",
	"bid_price_1", "bid_volume_1",
	"ask_price_1", "ask_volume_1",
	"mid_price",
}

// Tick is one timestamp's worth of per-product books.
type Tick struct {
	Timestamp int64
	Books     map[market.Symbol]book.Book
	Mids      map[market.Symbol]float64
}

// Symbols returns the tick's products in sorted order.
func (t Tick) Symbols() []market.Symbol {
	syms := make([]market.Symbol, 0, len(t.Books))
	for sym := range t.Books {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// LoadFile reads a historical data file into ticks ordered by timestamp.
func LoadFile(path string) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open historical data: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads semicolon-delimited historical rows. It fails fast with an error
// naming every missing required column.
func Load(r io.Reader) ([]Tick, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("historical data missing required columns: %s", strings.Join(missing, ", "))
	}

	byTime := map[int64]*Tick{}
	lastMid := map[market.Symbol]float64{}
	var order []int64
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		line++

		ts, err := strconv.ParseInt(cell(record, cols["timestamp"]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp: %w", line, err)
		}
		sym := market.Symbol(cell(record, cols["product"]))
		if sym == "" {
			return nil, fmt.Errorf("row %d: empty product", line)
		}

		tick, ok := byTime[ts]
		if !ok {
			tick = &Tick{
				Timestamp: ts,
				Books:     map[market.Symbol]book.Book{},
				Mids:      map[market.Symbol]float64{},
			}
			byTime[ts] = tick
			order = append(order, ts)
		}

		b := book.New()
		for i := 1; i <= 3; i++ {
			price, pok := level(record, cols, fmt.Sprintf("bid_price_%d", i))
			vol, vok := level(record, cols, fmt.Sprintf("bid_volume_%d", i))
			if pok && vok && vol != 0 {
				b.Buys[book.Price(price)] = book.Volume(vol)
			}
			price, pok = level(record, cols, fmt.Sprintf("ask_price_%d", i))
			vol, vok = level(record, cols, fmt.Sprintf("ask_volume_%d", i))
			if pok && vok && vol != 0 {
				// Ask volumes are stored negative by book convention.
				if vol > 0 {
					vol = -vol
				}
				b.Sells[book.Price(price)] = book.Volume(vol)
			}
		}
		tick.Books[sym] = b

		// Empty-book rows fall back to the product's last seen mid, carried
		// in file order, so result rows stay sane through gap ticks.
		if mid, ok := floatCell(record, cols["mid_price"]); ok {
			tick.Mids[sym] = mid
		} else {
			tick.Mids[sym] = b.Mid(lastMid[sym])
		}
		lastMid[sym] = tick.Mids[sym]
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	ticks := make([]Tick, 0, len(order))
	for _, ts := range order {
		ticks = append(ticks, *byTime[ts])
	}
	return ticks, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// level parses an optional level cell. Absent, empty and NaN cells are
// skipped rather than treated as zero.
func level(record []string, cols map[string]int, name string) (int64, bool) {
	idx, ok := cols[name]
	if !ok {
		return 0, false
	}
	v, ok := floatCell(record, idx)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

func floatCell(record []string, idx int) (float64, bool) {
	s := cell(record, idx)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
