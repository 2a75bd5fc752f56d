// Package book holds the historical order book snapshot for one product at one
// tick and the pure price/volume queries over it.
package book

import (
	"sort"
	"strconv"
)

// Price represents a price level in integer ticks.
type Price int64

func (p Price) String() string { return strconv.FormatInt(int64(p), 10) }

// Volume represents resting size at a price level. Bid volumes are positive;
// ask volumes are negative by convention (the magnitude is the offered size).
type Volume int64

func (v Volume) String() string { return strconv.FormatInt(int64(v), 10) }

// Abs returns the magnitude of the volume.
func (v Volume) Abs() Volume {
	if v < 0 {
		return -v
	}
	return v
}

// Side represents the book side: buy or sell.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Book is one product's resting levels at one tick. A price never appears on
// both sides of the same book. Either side may be empty; every query degrades
// to an ok=false or caller-supplied default rather than panicking, because
// historical data contains one-sided and empty books.
type Book struct {
	Buys  map[Price]Volume
	Sells map[Price]Volume
}

// New creates an empty Book.
func New() Book {
	return Book{
		Buys:  map[Price]Volume{},
		Sells: map[Price]Volume{},
	}
}

// BestBid returns the highest resting buy level.
func (b Book) BestBid() (Price, bool) {
	var best Price
	found := false
	for p := range b.Buys {
		if !found || p > best {
			best = p
			found = true
		}
	}
	return best, found
}

// BestAsk returns the lowest resting sell level.
func (b Book) BestAsk() (Price, bool) {
	var best Price
	found := false
	for p := range b.Sells {
		if !found || p < best {
			best = p
			found = true
		}
	}
	return best, found
}

// Mid returns the arithmetic midpoint of the best bid and ask. With a one-sided
// book it returns the surviving side; with an empty book it returns def.
func (b Book) Mid(def float64) float64 {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	switch {
	case hasBid && hasAsk:
		return (float64(bid) + float64(ask)) / 2
	case hasBid:
		return float64(bid)
	case hasAsk:
		return float64(ask)
	default:
		return def
	}
}

// VolumeAt returns the signed resting volume at a price level, 0 if absent.
func (b Book) VolumeAt(side Side, price Price) Volume {
	if side == SideBuy {
		return b.Buys[price]
	}
	return b.Sells[price]
}

// BidSizeAt returns the offered size at a buy level.
func (b Book) BidSizeAt(price Price) Volume { return b.Buys[price].Abs() }

// AskSizeAt returns the offered size at a sell level.
func (b Book) AskSizeAt(price Price) Volume { return b.Sells[price].Abs() }

// Spread returns best ask minus best bid.
func (b Book) Spread() (Price, bool) {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return 0, false
	}
	return ask - bid, true
}

// BestBidBelow returns the highest buy level strictly below limit.
func (b Book) BestBidBelow(limit Price) (Price, bool) {
	var best Price
	found := false
	for p := range b.Buys {
		if p >= limit {
			continue
		}
		if !found || p > best {
			best = p
			found = true
		}
	}
	return best, found
}

// BestAskAbove returns the lowest sell level strictly above limit.
func (b Book) BestAskAbove(limit Price) (Price, bool) {
	var best Price
	found := false
	for p := range b.Sells {
		if p <= limit {
			continue
		}
		if !found || p < best {
			best = p
			found = true
		}
	}
	return best, found
}

// Level is one price level with its offered size.
type Level struct {
	Price Price
	Size  Volume
}

// BidLevels returns buy levels sorted best (highest) first.
func (b Book) BidLevels() []Level {
	levels := make([]Level, 0, len(b.Buys))
	for p, v := range b.Buys {
		levels = append(levels, Level{Price: p, Size: v.Abs()})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// AskLevels returns sell levels sorted best (lowest) first.
func (b Book) AskLevels() []Level {
	levels := make([]Level, 0, len(b.Sells))
	for p, v := range b.Sells {
		levels = append(levels, Level{Price: p, Size: v.Abs()})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}
