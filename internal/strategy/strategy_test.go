package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

func snapWith(sym market.Symbol, b book.Book) market.Snapshot {
	snap := market.NewSnapshot(1)
	snap.Books[sym] = b
	return snap
}

func TestFixedFairTakesCrossedAsk(t *testing.T) {
	p := NewFixedFair(FixedFairConfig{FairValue: 10000, Width: 2})

	b := book.New()
	b.Buys[9995] = 10
	b.Sells[9997] = -8 // crosses fair-width = 9998

	orders, err := p.Evaluate(Input{Snap: snapWith("R", b), Symbol: "R", Position: 0, Limit: 50})
	require.NoError(t, err)
	require.NotEmpty(t, orders)

	assert.Equal(t, market.Order{Symbol: "R", Price: 9997, Quantity: 8}, orders[0])
}

func TestFixedFairPassiveCapacityExcludesTakenQty(t *testing.T) {
	p := NewFixedFair(FixedFairConfig{FairValue: 10000, Width: 2})

	b := book.New()
	b.Buys[9995] = 10
	b.Sells[9997] = -8

	orders, err := p.Evaluate(Input{Snap: snapWith("R", b), Symbol: "R", Position: 0, Limit: 50})
	require.NoError(t, err)

	var totalBuy int64
	for _, o := range orders {
		if o.Quantity > 0 {
			totalBuy += o.Quantity
		}
	}
	// Aggressive 8 plus passive remainder never exceeds the limit.
	assert.Equal(t, int64(50), totalBuy)

	// Passive bid rests one tick inside the best resting buy below the band.
	var passiveBid market.Order
	for _, o := range orders {
		if o.Quantity > 0 && o.Price != 9997 {
			passiveBid = o
		}
	}
	assert.Equal(t, book.Price(9996), passiveBid.Price)
	assert.Equal(t, int64(42), passiveBid.Quantity)
}

func TestFixedFairAtLimitEmitsNoBuys(t *testing.T) {
	p := NewFixedFair(FixedFairConfig{FairValue: 10000, Width: 2})

	b := book.New()
	b.Sells[9997] = -8

	orders, err := p.Evaluate(Input{Snap: snapWith("R", b), Symbol: "R", Position: 50, Limit: 50})
	require.NoError(t, err)
	for _, o := range orders {
		assert.Negative(t, o.Quantity, "position at +limit must not emit buys")
	}
}

func TestFixedFairEmptyBookQuotesDefaultsOnly(t *testing.T) {
	p := NewFixedFair(FixedFairConfig{FairValue: 10000, Width: 2})

	orders, err := p.Evaluate(Input{Snap: snapWith("R", book.New()), Symbol: "R", Position: 0, Limit: 50})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, market.Order{Symbol: "R", Price: 9998, Quantity: 50}, orders[0])
	assert.Equal(t, market.Order{Symbol: "R", Price: 10002, Quantity: -50}, orders[1])
}

func TestVWAPReversionWarmupAnchorsToMid(t *testing.T) {
	p := NewVWAPReversion(VWAPReversionConfig{
		Window:        rolling.VWAPConfig{CalmWindow: 4, VolatileWindow: 4},
		MinEdgeFrac:   0.3,
		TakeWidthFrac: 0.6,
	})

	b := book.New()
	b.Buys[99] = 10
	b.Sells[101] = -10

	orders, err := p.Evaluate(Input{Snap: snapWith("K", b), Symbol: "K", Position: 0, Limit: 50})
	require.NoError(t, err)

	// Mid anchoring: no edge vs either side, so only passive quotes.
	for _, o := range orders {
		if o.Quantity > 0 {
			assert.Less(t, o.Price, book.Price(101))
		} else {
			assert.Greater(t, o.Price, book.Price(99))
		}
	}
}

func TestVWAPReversionOneSidedBookSkips(t *testing.T) {
	p := NewVWAPReversion(DefaultVWAPReversionConfig())

	b := book.New()
	b.Buys[99] = 10

	orders, err := p.Evaluate(Input{Snap: snapWith("K", b), Symbol: "K", Position: 0, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestVWAPReversionStateRoundTrip(t *testing.T) {
	cfg := VWAPReversionConfig{Window: rolling.VWAPConfig{CalmWindow: 4, VolatileWindow: 4}}
	p := NewVWAPReversion(cfg)

	b := book.New()
	b.Buys[99] = 10
	b.Sells[101] = -30
	_, err := p.Evaluate(Input{Snap: snapWith("K", b), Symbol: "K", Position: 0, Limit: 50})
	require.NoError(t, err)

	st := p.ExportState()
	require.Len(t, st.VWAP, 1)

	fresh := NewVWAPReversion(cfg)
	fresh.RestoreState(st)
	assert.Equal(t, st.VWAP, fresh.ExportState().VWAP)
}

func TestBandReversionNoOpBelowMinSamples(t *testing.T) {
	p := NewBandReversion(BandReversionConfig{Window: 20, MinSamples: 10, K: 1.5})

	b := book.New()
	b.Buys[99] = 10
	b.Sells[101] = -10

	for i := 0; i < 9; i++ {
		orders, err := p.Evaluate(Input{Snap: snapWith("S", b), Symbol: "S", Position: 0, Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, orders)
	}
}

func TestBandReversionFadesBreakout(t *testing.T) {
	p := NewBandReversion(BandReversionConfig{Window: 20, MinSamples: 5, K: 1.5})

	steady := book.New()
	steady.Buys[99] = 10
	steady.Sells[101] = -10
	for i := 0; i < 8; i++ {
		_, err := p.Evaluate(Input{Snap: snapWith("S", steady), Symbol: "S", Position: 0, Limit: 50})
		require.NoError(t, err)
	}

	// Ask collapses far below the band: contrarian buy at the ask.
	crash := book.New()
	crash.Buys[80] = 10
	crash.Sells[82] = -7
	orders, err := p.Evaluate(Input{Snap: snapWith("S", crash), Symbol: "S", Position: 0, Limit: 50})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, market.Order{Symbol: "S", Price: 82, Quantity: 7}, orders[0])
}

func TestBandReversionMomentumFlipsDirection(t *testing.T) {
	p := NewBandReversion(BandReversionConfig{Window: 20, MinSamples: 5, K: 1.5, Momentum: true})

	steady := book.New()
	steady.Buys[99] = 10
	steady.Sells[101] = -10
	for i := 0; i < 8; i++ {
		_, err := p.Evaluate(Input{Snap: snapWith("S", steady), Symbol: "S", Position: 0, Limit: 50})
		require.NoError(t, err)
	}

	// Same crash, momentum mode sells into it instead.
	crash := book.New()
	crash.Buys[80] = 10
	crash.Sells[82] = -7
	orders, err := p.Evaluate(Input{Snap: snapWith("S", crash), Symbol: "S", Position: 0, Limit: 50})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, market.Order{Symbol: "S", Price: 80, Quantity: -10}, orders[0])
}

func TestBandReversionMomentumGateStandsDown(t *testing.T) {
	p := NewBandReversion(BandReversionConfig{Window: 20, MinSamples: 5, K: 1.5, MomentumGate: 10})

	steady := book.New()
	steady.Buys[99] = 10
	steady.Sells[101] = -10
	for i := 0; i < 8; i++ {
		_, err := p.Evaluate(Input{Snap: snapWith("S", steady), Symbol: "S", Position: 0, Limit: 50})
		require.NoError(t, err)
	}

	// Same breakout the ungated fade buys into, but the window just moved 19
	// points: past the gate, so the policy stands down.
	crash := book.New()
	crash.Buys[80] = 10
	crash.Sells[82] = -7
	orders, err := p.Evaluate(Input{Snap: snapWith("S", crash), Symbol: "S", Position: 0, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestBandReversionEMACenterStateRoundTrip(t *testing.T) {
	cfg := BandReversionConfig{Window: 20, MinSamples: 5, K: 1.5, EMASpan: 10}
	p := NewBandReversion(cfg)

	b := book.New()
	b.Buys[99] = 10
	b.Sells[101] = -10
	for i := 0; i < 8; i++ {
		_, err := p.Evaluate(Input{Snap: snapWith("S", b), Symbol: "S", Position: 0, Limit: 50})
		require.NoError(t, err)
	}

	st := p.ExportState()
	assert.True(t, st.EMAOK)
	assert.InDelta(t, 100.0, st.EMA, 1e-9, "steady mids converge the smoothed center")

	fresh := NewBandReversion(cfg)
	fresh.RestoreState(st)
	assert.Equal(t, st, fresh.ExportState())
}

func basketSnapshot(basketMid, croissantMid, jamMid book.Price) market.Snapshot {
	snap := market.NewSnapshot(1)
	for sym, mid := range map[market.Symbol]book.Price{
		"BASKET": basketMid, "CROISSANTS": croissantMid, "JAMS": jamMid,
	} {
		b := book.New()
		b.Buys[mid-1] = 40
		b.Sells[mid+1] = -40
		snap.Books[sym] = b
	}
	return snap
}

func TestBasketArbSellsRichBasketAndHedges(t *testing.T) {
	cfg := BasketArbConfig{
		Components:   market.Basket{"CROISSANTS": 4, "JAMS": 2},
		SpreadWindow: 50,
		MinSamples:   5,
		ZThreshold:   2.0,
		Clip:         5,
	}
	p := NewBasketArb(cfg)
	limits := map[market.Symbol]int64{"BASKET": 100, "CROISSANTS": 250, "JAMS": 350}

	// Warm the spread history at a steady spread of zero.
	for i := 0; i < 10; i++ {
		snap := basketSnapshot(3000, 500, 500) // 4*500+2*500 = 3000
		_, err := p.Evaluate(Input{Snap: snap, Symbol: "BASKET", Position: 0, Limit: 100, Limits: limits})
		require.NoError(t, err)
	}

	// Basket jumps far above synthetic.
	snap := basketSnapshot(3100, 500, 500)
	orders, err := p.Evaluate(Input{Snap: snap, Symbol: "BASKET", Position: 0, Limit: 100, Limits: limits})
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, market.Order{Symbol: "BASKET", Price: 3099, Quantity: -5}, orders[0])
	// Hedge legs buy components at their asks, weight x basket qty.
	assert.Contains(t, orders, market.Order{Symbol: "CROISSANTS", Price: 501, Quantity: 20})
	assert.Contains(t, orders, market.Order{Symbol: "JAMS", Price: 501, Quantity: 10})
}

func TestBasketArbHedgeLegCappedByComponentLimit(t *testing.T) {
	cfg := BasketArbConfig{
		Components:   market.Basket{"CROISSANTS": 4, "JAMS": 2},
		SpreadWindow: 50,
		MinSamples:   5,
		ZThreshold:   2.0,
		Clip:         5,
	}
	p := NewBasketArb(cfg)
	limits := map[market.Symbol]int64{"BASKET": 100, "CROISSANTS": 250, "JAMS": 350}

	for i := 0; i < 10; i++ {
		snap := basketSnapshot(3000, 500, 500)
		_, err := p.Evaluate(Input{Snap: snap, Symbol: "BASKET", Position: 0, Limit: 100, Limits: limits})
		require.NoError(t, err)
	}

	snap := basketSnapshot(3100, 500, 500)
	// CROISSANTS almost at +limit: its hedge leg is partially filled, the
	// basket order and the other leg are untouched.
	snap.Positions["CROISSANTS"] = 247
	orders, err := p.Evaluate(Input{Snap: snap, Symbol: "BASKET", Position: 0, Limit: 100, Limits: limits})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Contains(t, orders, market.Order{Symbol: "CROISSANTS", Price: 501, Quantity: 3})
	assert.Contains(t, orders, market.Order{Symbol: "JAMS", Price: 501, Quantity: 10})
}

func TestBasketArbMissingComponentSkips(t *testing.T) {
	cfg := BasketArbConfig{Components: market.Basket{"CROISSANTS": 4, "JAMS": 2}}
	p := NewBasketArb(cfg)

	snap := basketSnapshot(3000, 500, 500)
	delete(snap.Books, "JAMS")

	orders, err := p.Evaluate(Input{Snap: snap, Symbol: "BASKET", Position: 0, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestNewPolicyRejectsMissingConfig(t *testing.T) {
	_, err := NewPolicy(ProductConfig{Symbol: "X", Kind: KindFixedFair})
	assert.Error(t, err)
	_, err = NewPolicy(ProductConfig{Symbol: "X", Kind: Kind(99)})
	assert.Error(t, err)
}

func TestDefaultUniverseConstructs(t *testing.T) {
	for _, cfg := range DefaultUniverse() {
		p, err := NewPolicy(cfg)
		require.NoError(t, err, "product %s", cfg.Symbol)
		require.NotNil(t, p)
	}
}
