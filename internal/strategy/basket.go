package strategy

import (
	"sort"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

// BasketArbConfig parameterizes the synthetic-basket arbitrage policy.
type BasketArbConfig struct {
	Components   market.Basket `mapstructure:"components"`
	SpreadWindow int           `mapstructure:"spread_window"`
	MinSamples   int           `mapstructure:"min_samples"`
	ZThreshold   float64       `mapstructure:"z_threshold"`
	Clip         int64         `mapstructure:"clip"`
}

// DefaultBasketArbConfig returns the shipped basket parameters (window and
// threshold shared by both picnic baskets).
func DefaultBasketArbConfig(components market.Basket) BasketArbConfig {
	return BasketArbConfig{
		Components:   components,
		SpreadWindow: 50,
		MinSamples:   10,
		ZThreshold:   2.0,
		Clip:         5,
	}
}

// BasketArb trades the spread between a basket's mid and its synthetic price
// (the weighted sum of component mids). When the rolling z-score of the spread
// breaches the threshold it sends one clipped order on the basket and opposing
// hedge legs on every component, each leg independently capped by that
// component's own remaining capacity. A leg left partially hedged by a
// binding limit is accepted slippage risk, not an error.
type BasketArb struct {
	cfg     BasketArbConfig
	spreads *rolling.Stats
}

// NewBasketArb creates a BasketArb policy.
func NewBasketArb(cfg BasketArbConfig) *BasketArb {
	def := DefaultBasketArbConfig(cfg.Components)
	if cfg.SpreadWindow < 2 {
		cfg.SpreadWindow = def.SpreadWindow
	}
	if cfg.MinSamples < 2 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.ZThreshold <= 0 {
		cfg.ZThreshold = def.ZThreshold
	}
	if cfg.Clip <= 0 {
		cfg.Clip = def.Clip
	}
	return &BasketArb{cfg: cfg, spreads: rolling.NewStats(cfg.SpreadWindow)}
}

// Evaluate implements Policy.
func (p *BasketArb) Evaluate(in Input) ([]market.Order, error) {
	basketBook, ok := in.Snap.Book(in.Symbol)
	if !ok {
		return nil, nil
	}

	synthetic, ok := p.syntheticPrice(in.Snap)
	if !ok {
		// A component book is missing or empty this tick.
		return nil, nil
	}

	spread := basketBook.Mid(synthetic) - synthetic
	p.spreads.Push(spread)
	if p.spreads.Len() < p.cfg.MinSamples {
		return nil, nil
	}
	z := p.spreads.ZScore(spread)

	var orders []market.Order
	switch {
	case z > p.cfg.ZThreshold:
		// Basket rich: sell basket, buy components.
		bid, ok := basketBook.BestBid()
		if !ok {
			return nil, nil
		}
		qty := minInt64(p.cfg.Clip, sellCapacity(in.Position, in.Limit))
		qty = minInt64(qty, int64(basketBook.BidSizeAt(bid)))
		if qty <= 0 {
			return nil, nil
		}
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: bid, Quantity: -qty})
		orders = append(orders, p.hedgeLegs(in, qty, book.SideBuy)...)

	case z < -p.cfg.ZThreshold:
		// Basket cheap: buy basket, sell components.
		ask, ok := basketBook.BestAsk()
		if !ok {
			return nil, nil
		}
		qty := minInt64(p.cfg.Clip, buyCapacity(in.Position, in.Limit))
		qty = minInt64(qty, int64(basketBook.AskSizeAt(ask)))
		if qty <= 0 {
			return nil, nil
		}
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: ask, Quantity: qty})
		orders = append(orders, p.hedgeLegs(in, qty, book.SideSell)...)
	}

	return orders, nil
}

// components returns the component symbols in sorted order. Map iteration
// order must not leak into order generation or float summation: replay output
// is required to be deterministic.
func (p *BasketArb) components() []market.Symbol {
	syms := make([]market.Symbol, 0, len(p.cfg.Components))
	for sym := range p.cfg.Components {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// syntheticPrice sums weighted component mids. It fails when any component
// lacks a two-way price source this tick.
func (p *BasketArb) syntheticPrice(snap market.Snapshot) (float64, bool) {
	var synthetic float64
	for _, sym := range p.components() {
		weight := p.cfg.Components[sym]
		b, ok := snap.Book(sym)
		if !ok {
			return 0, false
		}
		if _, hasBid := b.BestBid(); !hasBid {
			if _, hasAsk := b.BestAsk(); !hasAsk {
				return 0, false
			}
		}
		synthetic += float64(weight) * b.Mid(0)
	}
	return synthetic, true
}

// hedgeLegs generates one aggressive order per component, weight×basketQty,
// capped by top-of-book size and the component's own remaining capacity.
func (p *BasketArb) hedgeLegs(in Input, basketQty int64, side book.Side) []market.Order {
	var legs []market.Order
	for _, sym := range p.components() {
		weight := p.cfg.Components[sym]
		b, ok := in.Snap.Book(sym)
		if !ok {
			continue
		}
		pos := in.Snap.Position(sym)
		limit := in.Limits[sym]
		want := weight * basketQty

		if side == book.SideBuy {
			ask, ok := b.BestAsk()
			if !ok {
				continue
			}
			qty := minInt64(want, minInt64(int64(b.AskSizeAt(ask)), buyCapacity(pos, limit)))
			if qty > 0 {
				legs = append(legs, market.Order{Symbol: sym, Price: ask, Quantity: qty})
			}
		} else {
			bid, ok := b.BestBid()
			if !ok {
				continue
			}
			qty := minInt64(want, minInt64(int64(b.BidSizeAt(bid)), sellCapacity(pos, limit)))
			if qty > 0 {
				legs = append(legs, market.Order{Symbol: sym, Price: bid, Quantity: -qty})
			}
		}
	}
	return legs
}

// ExportState implements Policy.
func (p *BasketArb) ExportState() ProductState {
	return ProductState{Version: StateVersion, Spreads: p.spreads.Values()}
}

// RestoreState implements Policy.
func (p *BasketArb) RestoreState(st ProductState) {
	p.spreads = rolling.NewStats(p.cfg.SpreadWindow)
	for _, s := range st.Spreads {
		p.spreads.Push(s)
	}
}
