package strategy

import (
	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
)

// FixedFairConfig parameterizes the fixed fair-value market maker.
type FixedFairConfig struct {
	FairValue book.Price `mapstructure:"fair_value"`
	Width     book.Price `mapstructure:"width"`
}

// FixedFair makes a market around a constant fair value: it lifts asks below
// fair-width and hits bids above fair+width, then quotes the remaining
// capacity one tick inside the best resting levels outside the band. Taken
// quantity is subtracted from the capacity quoted passively, so a single
// tick's output can never exceed the limit in aggregate.
type FixedFair struct {
	cfg FixedFairConfig
}

// NewFixedFair creates a FixedFair policy.
func NewFixedFair(cfg FixedFairConfig) *FixedFair {
	return &FixedFair{cfg: cfg}
}

// Evaluate implements Policy.
func (p *FixedFair) Evaluate(in Input) ([]market.Order, error) {
	b, ok := in.Snap.Book(in.Symbol)
	if !ok {
		return nil, nil
	}

	fair := p.cfg.FairValue
	width := p.cfg.Width
	var orders []market.Order
	var bought, sold int64

	if ask, ok := b.BestAsk(); ok && ask <= fair-width {
		qty := minInt64(int64(b.AskSizeAt(ask)), buyCapacity(in.Position, in.Limit))
		if qty > 0 {
			orders = append(orders, market.Order{Symbol: in.Symbol, Price: ask, Quantity: qty})
			bought = qty
		}
	}

	if bid, ok := b.BestBid(); ok && bid >= fair+width {
		qty := minInt64(int64(b.BidSizeAt(bid)), sellCapacity(in.Position, in.Limit))
		if qty > 0 {
			orders = append(orders, market.Order{Symbol: in.Symbol, Price: bid, Quantity: -qty})
			sold = qty
		}
	}

	// Quote the unused capacity one tick inside the best resting levels
	// outside the band.
	restBid, ok := b.BestBidBelow(fair - width)
	if !ok {
		restBid = fair - width - 1
	}
	if qty := buyCapacity(in.Position, in.Limit) - bought; qty > 0 {
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: restBid + 1, Quantity: qty})
	}

	restAsk, ok := b.BestAskAbove(fair + width)
	if !ok {
		restAsk = fair + width + 1
	}
	if qty := sellCapacity(in.Position, in.Limit) - sold; qty > 0 {
		orders = append(orders, market.Order{Symbol: in.Symbol, Price: restAsk - 1, Quantity: -qty})
	}

	return orders, nil
}

// ExportState implements Policy. FixedFair carries no cross-tick memory.
func (p *FixedFair) ExportState() ProductState {
	return ProductState{Version: StateVersion}
}

// RestoreState implements Policy.
func (p *FixedFair) RestoreState(ProductState) {}
