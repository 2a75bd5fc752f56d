package strategy

import (
	"math"

	"github.com/zappabad/tidemark/internal/book"
)

// Fractional fair values round away from the favorable side: bids floor, asks
// ceil, so rounding never manufactures edge.

func bidPrice(v float64) book.Price { return book.Price(math.Floor(v)) }

func askPrice(v float64) book.Price { return book.Price(math.Ceil(v)) }

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// buyCapacity is how much more can be bought before breaching +limit.
func buyCapacity(position, limit int64) int64 {
	return maxInt64(0, limit-position)
}

// sellCapacity is how much more can be sold before breaching -limit.
func sellCapacity(position, limit int64) int64 {
	return maxInt64(0, limit+position)
}
