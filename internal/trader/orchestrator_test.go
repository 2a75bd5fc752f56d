package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/strategy"
)

func resinConfig() strategy.ProductConfig {
	return strategy.ProductConfig{
		Symbol: "RESIN",
		Limit:  50,
		Kind:   strategy.KindFixedFair,
		Fixed:  &strategy.FixedFairConfig{FairValue: 10000, Width: 2},
	}
}

func twoSided(bid, ask book.Price, size book.Volume) book.Book {
	b := book.New()
	b.Buys[bid] = size
	b.Sells[ask] = -size
	return b
}

func TestRunClipsGloballyPerProduct(t *testing.T) {
	// Two baskets share a component; their hedge legs plus the component's
	// own policy must be clipped together, not per policy.
	croissant := book.New()
	croissant.Buys[499] = 1000
	croissant.Sells[501] = -1000

	products := []strategy.ProductConfig{
		{
			Symbol: "B1", Limit: 60, Kind: strategy.KindBasketArb,
			Basket: &strategy.BasketArbConfig{
				Components: market.Basket{"CROISSANTS": 6}, SpreadWindow: 50,
				MinSamples: 2, ZThreshold: 1.0, Clip: 5,
			},
		},
		{
			Symbol: "B2", Limit: 100, Kind: strategy.KindBasketArb,
			Basket: &strategy.BasketArbConfig{
				Components: market.Basket{"CROISSANTS": 4}, SpreadWindow: 50,
				MinSamples: 2, ZThreshold: 1.0, Clip: 5,
			},
		},
		{Symbol: "CROISSANTS", Limit: 25, Kind: strategy.KindBandReversion,
			Band: &strategy.BandReversionConfig{Window: 20, MinSamples: 19, K: 1.5}},
	}
	o, err := New(products, zap.NewNop())
	require.NoError(t, err)

	var blob []byte
	run := func(b1Mid, b2Mid book.Price) map[market.Symbol][]market.Order {
		snap := market.NewSnapshot(1)
		snap.Books["B1"] = twoSided(b1Mid-1, b1Mid+1, 500)
		snap.Books["B2"] = twoSided(b2Mid-1, b2Mid+1, 500)
		snap.Books["CROISSANTS"] = croissant
		var orders map[market.Symbol][]market.Order
		orders, _, blob = o.Run(snap, blob)
		return orders
	}

	// Warm both spread histories at zero spread (synthetic = 3000 / 2000).
	for i := 0; i < 5; i++ {
		run(3000, 2000)
	}

	// Both baskets collapse below synthetic: both buy their basket and sell
	// CROISSANTS as a hedge, 6x5 + 4x5 = 50 wanted, but only 25 capacity.
	orders := run(2900, 1900)

	var croissantSold int64
	for _, ord := range orders["CROISSANTS"] {
		require.Negative(t, ord.Quantity)
		croissantSold += -ord.Quantity
	}
	assert.Equal(t, int64(25), croissantSold)
}

func TestRunLimitInvariantHoldsPerTick(t *testing.T) {
	o, err := New([]strategy.ProductConfig{resinConfig()}, zap.NewNop())
	require.NoError(t, err)

	snap := market.NewSnapshot(1)
	snap.Books["RESIN"] = twoSided(9995, 9997, 100)
	snap.Positions["RESIN"] = 40

	orders, conversions, _ := o.Run(snap, nil)
	assert.Zero(t, conversions)

	var buys int64
	for _, ord := range orders["RESIN"] {
		if ord.Quantity > 0 {
			buys += ord.Quantity
		}
	}
	assert.LessOrEqual(t, snap.Positions["RESIN"]+buys, int64(50))
}

// panicPolicy always panics; used to prove per-product isolation.
type panicPolicy struct{}

func (panicPolicy) Evaluate(strategy.Input) ([]market.Order, error) { panic("boom") }
func (panicPolicy) ExportState() strategy.ProductState {
	return strategy.ProductState{Version: strategy.StateVersion}
}
func (panicPolicy) RestoreState(strategy.ProductState) {}

func TestRunIsolatesPolicyPanic(t *testing.T) {
	o, err := New([]strategy.ProductConfig{
		{Symbol: "BAD", Limit: 10, Kind: strategy.KindFixedFair,
			Fixed: &strategy.FixedFairConfig{FairValue: 100, Width: 1}},
		resinConfig(),
	}, zap.NewNop())
	require.NoError(t, err)
	o.policies["BAD"] = panicPolicy{}

	snap := market.NewSnapshot(1)
	snap.Books["BAD"] = twoSided(99, 101, 5)
	snap.Books["RESIN"] = twoSided(9995, 9997, 8)

	orders, _, blob := o.Run(snap, nil)

	assert.Empty(t, orders["BAD"])
	assert.NotEmpty(t, orders["RESIN"], "healthy product unaffected by panicking sibling")
	assert.NotEmpty(t, blob)
}

func TestRunErroringPolicyDoesNotAffectOthers(t *testing.T) {
	kelp := strategy.ProductConfig{
		Symbol: "KELP", Limit: 50, Kind: strategy.KindVWAPReversion,
		VWAP: func() *strategy.VWAPReversionConfig { c := strategy.DefaultVWAPReversionConfig(); return &c }(),
	}
	o, err := New([]strategy.ProductConfig{kelp, resinConfig()}, zap.NewNop())
	require.NoError(t, err)

	snapA := market.NewSnapshot(1)
	snapA.Books["KELP"] = twoSided(2000, 2002, 10)
	snapA.Books["RESIN"] = twoSided(9995, 9997, 8)
	ordersA, _, _ := o.Run(snapA, nil)

	o2, err := New([]strategy.ProductConfig{kelp, resinConfig()}, zap.NewNop())
	require.NoError(t, err)
	o2.policies["KELP"] = panicPolicy{}
	ordersB, _, _ := o2.Run(snapA, nil)

	// RESIN's orders are identical whether KELP succeeds or blows up.
	assert.Equal(t, ordersA["RESIN"], ordersB["RESIN"])
}

func TestStateBlobRoundTrip(t *testing.T) {
	kelp := strategy.ProductConfig{
		Symbol: "KELP", Limit: 50, Kind: strategy.KindVWAPReversion,
		VWAP: func() *strategy.VWAPReversionConfig { c := strategy.DefaultVWAPReversionConfig(); return &c }(),
	}
	o, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)

	snap := market.NewSnapshot(1)
	snap.Books["KELP"] = twoSided(2000, 2002, 10)
	_, _, blob := o.Run(snap, nil)
	require.NotEmpty(t, blob)

	// A fresh orchestrator restores the blob and exports it unchanged.
	o2, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)
	o2.restore(blob)
	assert.JSONEq(t, string(blob), string(o2.export()))
}

func TestCorruptBlobDegradesToFreshState(t *testing.T) {
	kelp := strategy.ProductConfig{
		Symbol: "KELP", Limit: 50, Kind: strategy.KindVWAPReversion,
		VWAP: func() *strategy.VWAPReversionConfig { c := strategy.DefaultVWAPReversionConfig(); return &c }(),
	}
	snap := market.NewSnapshot(1)
	snap.Books["KELP"] = twoSided(2000, 2002, 10)

	// What a brand-new orchestrator exports after one tick.
	fresh, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)
	wantOrders, _, wantBlob := fresh.Run(snap, nil)
	require.NotEmpty(t, wantBlob)

	// A warmed orchestrator already holds one VWAP entry in memory. Feeding it
	// a bad blob must drop that stale entry, not splice new history onto it.
	warmed, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)
	warmed.Run(snap, nil)

	for _, bad := range [][]byte{
		[]byte(`{"version":1,"products":{`),
		[]byte(`{"version":99,"products":{}}`),
	} {
		orders, _, blob := warmed.Run(snap, bad)
		assert.Equal(t, wantOrders, orders)
		assert.JSONEq(t, string(wantBlob), string(blob))
	}
}

func TestValidBlobMissingProductRestoresFresh(t *testing.T) {
	kelp := strategy.ProductConfig{
		Symbol: "KELP", Limit: 50, Kind: strategy.KindVWAPReversion,
		VWAP: func() *strategy.VWAPReversionConfig { c := strategy.DefaultVWAPReversionConfig(); return &c }(),
	}
	snap := market.NewSnapshot(1)
	snap.Books["KELP"] = twoSided(2000, 2002, 10)

	fresh, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)
	_, _, want := fresh.Run(snap, nil)

	warmed, err := New([]strategy.ProductConfig{kelp}, zap.NewNop())
	require.NoError(t, err)
	warmed.Run(snap, nil)

	// A well-formed blob that simply has no entry for KELP.
	_, _, got := warmed.Run(snap, []byte(`{"version":1,"products":{}}`))
	assert.JSONEq(t, string(want), string(got))
}

func TestNewRejectsDuplicateProducts(t *testing.T) {
	_, err := New([]strategy.ProductConfig{resinConfig(), resinConfig()}, zap.NewNop())
	assert.Error(t, err)
}
