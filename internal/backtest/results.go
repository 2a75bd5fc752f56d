package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zappabad/tidemark/internal/market"
)

// WriteCSV writes the result rows as a semicolon-delimited table suitable for
// tabular analysis. Column order is fixed by the sorted symbol set, so the
// same result always serializes to identical bytes.
func WriteCSV(w io.Writer, rows []ResultRow, symbols []market.Symbol) error {
	sorted := make([]market.Symbol, len(symbols))
	copy(sorted, symbols)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{"timestamp", "pnl"}
	for _, sym := range sorted {
		header = append(header, string(sym)+"_mid", string(sym)+"_position")
	}
	header = append(header, "trailing_volume")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.Timestamp, 10),
			row.PnL.String(),
		}
		for _, sym := range sorted {
			mid := ""
			if v, ok := row.Mids[sym]; ok {
				mid = strconv.FormatFloat(v, 'f', -1, 64)
			}
			record = append(record,
				mid,
				strconv.FormatInt(row.Positions[sym], 10),
			)
		}
		record = append(record, strconv.FormatInt(row.TrailingVolume, 10))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.Timestamp, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadResultsCSV loads rows previously written by WriteCSV. The viewer uses
// it to rehydrate a finished run.
func ReadResultsCSV(r io.Reader) ([]ResultRow, []market.Symbol, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	type symCols struct {
		sym      market.Symbol
		mid, pos int
	}
	var syms []symCols
	for i, name := range header {
		if n, ok := strings.CutSuffix(name, "_mid"); ok {
			syms = append(syms, symCols{sym: market.Symbol(n), mid: i, pos: i + 1})
		}
	}

	var rows []ResultRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read results row: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad results timestamp %q: %w", record[0], err)
		}
		row := ResultRow{
			Timestamp: ts,
			Mids:      map[market.Symbol]float64{},
			Positions: map[market.Symbol]int64{},
		}
		if row.PnL, err = decimal.NewFromString(record[1]); err != nil {
			return nil, nil, fmt.Errorf("bad pnl %q: %w", record[1], err)
		}
		for _, sc := range syms {
			if sc.pos >= len(record) {
				continue
			}
			if record[sc.mid] != "" {
				if v, err := strconv.ParseFloat(record[sc.mid], 64); err == nil {
					row.Mids[sc.sym] = v
				}
			}
			if v, err := strconv.ParseInt(record[sc.pos], 10, 64); err == nil {
				row.Positions[sc.sym] = v
			}
		}
		if v, err := strconv.ParseInt(record[len(record)-1], 10, 64); err == nil {
			row.TrailingVolume = v
		}
		rows = append(rows, row)
	}

	out := make([]market.Symbol, 0, len(syms))
	for _, sc := range syms {
		out = append(out, sc.sym)
	}
	return rows, out, nil
}
