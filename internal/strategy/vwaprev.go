package strategy

import (
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

// VWAPReversionConfig parameterizes the VWAP mean-reversion maker. Edge and
// take thresholds are fractions of the current top-of-book spread.
type VWAPReversionConfig struct {
	Window        rolling.VWAPConfig `mapstructure:"window"`
	MinEdgeFrac   float64            `mapstructure:"min_edge_frac"`
	TakeWidthFrac float64            `mapstructure:"take_width_frac"`
}

// DefaultVWAPReversionConfig returns the shipped KELP parameters.
func DefaultVWAPReversionConfig() VWAPReversionConfig {
	return VWAPReversionConfig{
		Window:        rolling.DefaultVWAPConfig(),
		MinEdgeFrac:   0.3,
		TakeWidthFrac: 0.6,
	}
}

// VWAPReversion quotes around a liquidity-weighted VWAP fair value. It takes
// the top of book only when the spread is wide enough and the edge clears the
// configured fraction of it, and always posts the full remaining capacity one
// tick outside the nearest resting level beyond fair value. Until the
// estimator warms up, fair value anchors to the simple mid.
type VWAPReversion struct {
	cfg  VWAPReversionConfig
	vwap *rolling.VWAP
}

// NewVWAPReversion creates a VWAPReversion policy.
func NewVWAPReversion(cfg VWAPReversionConfig) *VWAPReversion {
	if cfg.TakeWidthFrac <= 0 {
		cfg.TakeWidthFrac = DefaultVWAPReversionConfig().TakeWidthFrac
	}
	if cfg.MinEdgeFrac <= 0 {
		cfg.MinEdgeFrac = DefaultVWAPReversionConfig().MinEdgeFrac
	}
	return &VWAPReversion{cfg: cfg, vwap: rolling.NewVWAP(cfg.Window)}
}

// Evaluate implements Policy.
func (p *VWAPReversion) Evaluate(in Input) ([]market.Order, error) {
	b, ok := in.Snap.Book(in.Symbol)
	if !ok {
		return nil, nil
	}
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		// One-sided tick: no spread to price against, skip quietly.
		return nil, nil
	}

	mid := b.Mid(0)
	p.vwap.Observe(b, mid)
	fair := p.vwap.FairValue(mid)
	if !p.vwap.Warm() {
		fair = mid
	}

	spread := float64(ask - bid)
	minEdge := p.cfg.MinEdgeFrac * spread
	takeWidth := p.cfg.TakeWidthFrac * spread

	var orders []market.Order
	var bought, sold int64

	if spread >= takeWidth {
		if float64(ask) <= fair-minEdge {
			qty := minInt64(int64(b.AskSizeAt(ask)), buyCapacity(in.Position, in.Limit))
			if qty > 0 {
				orders = append(orders, market.Order{Symbol: in.Symbol, Price: ask, Quantity: qty})
				bought = qty
			}
		}
		if float64(bid) >= fair+minEdge {
			qty := minInt64(int64(b.BidSizeAt(bid)), sellCapacity(in.Position, in.Limit))
			if qty > 0 {
				orders = append(orders, market.Order{Symbol: in.Symbol, Price: bid, Quantity: -qty})
				sold = qty
			}
		}
	}

	// Post residual capacity one tick outside the nearest level beyond fair.
	restBid, ok := b.BestBidBelow(bidPrice(fair - 1))
	if !ok {
		restBid = bidPrice(fair - 2)
	}
	if qty := buyCapacity(in.Position, in.Limit) - bought; qty > 0 {
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: restBid + 1, Quantity: qty})
	}

	restAsk, ok := b.BestAskAbove(askPrice(fair + 1))
	if !ok {
		restAsk = askPrice(fair + 2)
	}
	if qty := sellCapacity(in.Position, in.Limit) - sold; qty > 0 {
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: restAsk - 1, Quantity: -qty})
	}

	return orders, nil
}

// ExportState implements Policy.
func (p *VWAPReversion) ExportState() ProductState {
	return ProductState{Version: StateVersion, VWAP: p.vwap.Entries()}
}

// RestoreState implements Policy.
func (p *VWAPReversion) RestoreState(st ProductState) {
	p.vwap.Restore(st.VWAP)
}
