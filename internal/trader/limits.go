package trader

import "github.com/zappabad/tidemark/internal/market"

// ledger tracks buy and sell quantity already committed per product within a
// single tick, across every policy touching that product. Clipping against it
// guarantees the aggregate accepted quantity can never push a position past
// its limit, no matter how many policies quoted the same product.
type ledger struct {
	limits    map[market.Symbol]int64
	positions map[market.Symbol]int64
	bought    map[market.Symbol]int64
	sold      map[market.Symbol]int64
}

func newLedger(limits, positions map[market.Symbol]int64) *ledger {
	return &ledger{
		limits:    limits,
		positions: positions,
		bought:    map[market.Symbol]int64{},
		sold:      map[market.Symbol]int64{},
	}
}

// clip reduces the order to the remaining capacity and commits the accepted
// quantity. Orders clipped to zero are dropped (ok=false). Order sizes are
// never negative after clipping.
func (l *ledger) clip(o market.Order) (market.Order, bool) {
	limit := l.limits[o.Symbol]
	pos := l.positions[o.Symbol]

	if o.Quantity > 0 {
		room := limit - pos - l.bought[o.Symbol]
		if room < 0 {
			room = 0
		}
		if o.Quantity > room {
			o.Quantity = room
		}
		if o.Quantity <= 0 {
			return o, false
		}
		l.bought[o.Symbol] += o.Quantity
		return o, true
	}

	room := limit + pos - l.sold[o.Symbol]
	if room < 0 {
		room = 0
	}
	size := -o.Quantity
	if size > room {
		size = room
	}
	if size <= 0 {
		return o, false
	}
	l.sold[o.Symbol] += size
	o.Quantity = -size
	return o, true
}
