// Package market holds the shared data model: products, tick snapshots, order
// intents and fills.
package market

import (
	"github.com/shopspring/decimal"

	"github.com/zappabad/tidemark/internal/book"
)

// Symbol identifies a tradable product.
type Symbol string

// Basket defines a composite product as a fixed linear combination of
// component products (component symbol -> integer weight).
type Basket map[Symbol]int64

// Order is a trade intent: positive quantity bids, negative quantity asks.
// An order is a request, not a guaranteed fill.
type Order struct {
	Symbol   Symbol
	Price    book.Price
	Quantity int64
}

// Side returns the book side this order rests on or takes from.
func (o Order) Side() book.Side {
	if o.Quantity >= 0 {
		return book.SideBuy
	}
	return book.SideSell
}

// Size returns the unsigned order size.
func (o Order) Size() int64 {
	if o.Quantity < 0 {
		return -o.Quantity
	}
	return o.Quantity
}

// Trade is one historical or own execution carried in the tick snapshot.
type Trade struct {
	Symbol    Symbol
	Price     book.Price
	Quantity  int64
	Timestamp int64
}

// Fill records one order matched against the historical book. Quantity is
// always positive; Side carries the direction.
type Fill struct {
	Symbol    Symbol
	Price     book.Price
	Quantity  int64
	Side      book.Side
	Timestamp int64
}

// Cash returns the signed cash flow of the fill: negative for buys, positive
// for sells.
func (f Fill) Cash() decimal.Decimal {
	cash := decimal.NewFromInt(int64(f.Price)).Mul(decimal.NewFromInt(f.Quantity))
	if f.Side == book.SideBuy {
		return cash.Neg()
	}
	return cash
}

// Snapshot is the market state for one tick: immutable within a single
// orchestrator invocation, rebuilt fresh for every tick.
type Snapshot struct {
	Timestamp    int64
	Books        map[Symbol]book.Book
	Positions    map[Symbol]int64
	OwnTrades    map[Symbol][]Trade
	MarketTrades map[Symbol][]Trade
}

// NewSnapshot creates an empty Snapshot for the given timestamp.
func NewSnapshot(timestamp int64) Snapshot {
	return Snapshot{
		Timestamp:    timestamp,
		Books:        map[Symbol]book.Book{},
		Positions:    map[Symbol]int64{},
		OwnTrades:    map[Symbol][]Trade{},
		MarketTrades: map[Symbol][]Trade{},
	}
}

// Position returns the carried position for sym, 0 if unknown.
func (s Snapshot) Position(sym Symbol) int64 { return s.Positions[sym] }

// Book returns the order book for sym and whether one is present this tick.
func (s Snapshot) Book(sym Symbol) (book.Book, bool) {
	b, ok := s.Books[sym]
	return b, ok
}
