package backtest

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/trader"
)

// trailingFills is how many recent fills feed the per-tick trailing volume.
const trailingFills = 10

// ResultRow is one tick's summary: the whole observable output of a backtest
// is the ordered sequence of these rows.
type ResultRow struct {
	Timestamp      int64
	PnL            decimal.Decimal
	Mids           map[market.Symbol]float64
	Positions      map[market.Symbol]int64
	TrailingVolume int64
}

// Result is a completed backtest run.
type Result struct {
	Rows      []ResultRow
	Fills     []market.Fill
	Cash      decimal.Decimal
	Positions map[market.Symbol]int64
}

// Engine replays ticks through an orchestrator and fills the returned orders
// against the same historical book each order was generated from. Fills do
// not deplete book depth within a tick. Replay is fully deterministic: no
// clock, no randomness, and a fixed product processing order.
type Engine struct {
	orch *trader.Orchestrator
	log  *zap.Logger
}

// NewEngine creates a replay Engine.
func NewEngine(orch *trader.Orchestrator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{orch: orch, log: log}
}

// Run replays the ticks in order and returns the accumulated result. Nothing
// inside a tick is fatal: anomalies are logged and the loop continues.
func (e *Engine) Run(ticks []Tick) *Result {
	res := &Result{
		Cash:      decimal.Zero,
		Positions: map[market.Symbol]int64{},
	}

	var blob []byte
	var lastFills []market.Fill

	for _, tick := range ticks {
		snap := market.NewSnapshot(tick.Timestamp)
		for sym, b := range tick.Books {
			snap.Books[sym] = b
		}
		for sym, pos := range res.Positions {
			snap.Positions[sym] = pos
		}
		for _, f := range lastFills {
			snap.OwnTrades[f.Symbol] = append(snap.OwnTrades[f.Symbol], market.Trade{
				Symbol:    f.Symbol,
				Price:     f.Price,
				Quantity:  f.Quantity,
				Timestamp: f.Timestamp,
			})
		}

		var orders map[market.Symbol][]market.Order
		orders, _, blob = e.orch.Run(snap, blob)

		lastFills = lastFills[:0]
		for _, sym := range tick.Symbols() {
			for _, ord := range orders[sym] {
				fill, ok := e.match(ord, tick.Books[sym], tick.Timestamp)
				if !ok {
					continue
				}
				res.Fills = append(res.Fills, fill)
				lastFills = append(lastFills, fill)
				if fill.Side == book.SideBuy {
					res.Positions[fill.Symbol] += fill.Quantity
				} else {
					res.Positions[fill.Symbol] -= fill.Quantity
				}
				res.Cash = res.Cash.Add(fill.Cash())
			}
		}

		res.Rows = append(res.Rows, e.summarize(tick, res))
	}

	return res
}

// match crosses one order against the historical book: a buy fills at the
// resting best ask, never worse, iff its price reaches it, for at most the
// resting size there; sells are symmetric. Unfilled orders simply lapse.
func (e *Engine) match(ord market.Order, b book.Book, ts int64) (market.Fill, bool) {
	if ord.Quantity > 0 {
		ask, ok := b.BestAsk()
		if !ok || ord.Price < ask {
			return market.Fill{}, false
		}
		qty := ord.Quantity
		if resting := int64(b.AskSizeAt(ask)); qty > resting {
			qty = resting
		}
		if qty <= 0 {
			return market.Fill{}, false
		}
		return market.Fill{Symbol: ord.Symbol, Price: ask, Quantity: qty, Side: book.SideBuy, Timestamp: ts}, true
	}

	bid, ok := b.BestBid()
	if !ok || ord.Price > bid {
		return market.Fill{}, false
	}
	qty := -ord.Quantity
	if resting := int64(b.BidSizeAt(bid)); qty > resting {
		qty = resting
	}
	if qty <= 0 {
		return market.Fill{}, false
	}
	return market.Fill{Symbol: ord.Symbol, Price: bid, Quantity: qty, Side: book.SideSell, Timestamp: ts}, true
}

func (e *Engine) summarize(tick Tick, res *Result) ResultRow {
	row := ResultRow{
		Timestamp: tick.Timestamp,
		PnL:       res.Cash,
		Mids:      map[market.Symbol]float64{},
		Positions: map[market.Symbol]int64{},
	}
	for sym, mid := range tick.Mids {
		row.Mids[sym] = mid
	}
	for sym, pos := range res.Positions {
		row.Positions[sym] = pos
	}

	fills := res.Fills
	if len(fills) > trailingFills {
		fills = fills[len(fills)-trailingFills:]
	}
	for _, f := range fills {
		row.TrailingVolume += f.Quantity
	}
	return row
}
