package strategy

import (
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

// Shipped product universe.
const (
	RainforestResin market.Symbol = "RAINFOREST_RESIN"
	Kelp            market.Symbol = "KELP"
	SquidInk        market.Symbol = "SQUID_INK"
	Croissants      market.Symbol = "CROISSANTS"
	Jams            market.Symbol = "JAMS"
	Djembes         market.Symbol = "DJEMBES"
	PicnicBasket1   market.Symbol = "PICNIC_BASKET1"
	PicnicBasket2   market.Symbol = "PICNIC_BASKET2"
)

// DefaultUniverse returns the shipped product configuration: a fixed-fair
// maker, a VWAP-reversion maker, a band-reversion product and two picnic
// baskets arbitraged against shared components.
func DefaultUniverse() []ProductConfig {
	return []ProductConfig{
		{
			Symbol: RainforestResin,
			Limit:  50,
			Kind:   KindFixedFair,
			Fixed:  &FixedFairConfig{FairValue: 10000, Width: 2},
		},
		{
			Symbol: Kelp,
			Limit:  50,
			Kind:   KindVWAPReversion,
			VWAP: &VWAPReversionConfig{
				Window: rolling.VWAPConfig{
					CalmWindow:          12,
					VolatileWindow:      6,
					VolatilityThreshold: 2.0,
				},
				MinEdgeFrac:   0.3,
				TakeWidthFrac: 0.6,
			},
		},
		{
			Symbol: SquidInk,
			Limit:  50,
			Kind:   KindBandReversion,
			Band: &BandReversionConfig{
				Window:     20,
				MinSamples: 10,
				K:          1.5,
			},
		},
		{Symbol: Croissants, Limit: 250, Kind: KindBandReversion, Band: &BandReversionConfig{Window: 20, MinSamples: 10, K: 1.5}},
		{Symbol: Jams, Limit: 350, Kind: KindBandReversion, Band: &BandReversionConfig{Window: 20, MinSamples: 10, K: 1.5}},
		{Symbol: Djembes, Limit: 60, Kind: KindBandReversion, Band: &BandReversionConfig{Window: 20, MinSamples: 10, K: 1.5}},
		{
			Symbol: PicnicBasket1,
			Limit:  60,
			Kind:   KindBasketArb,
			Basket: &BasketArbConfig{
				Components:   market.Basket{Croissants: 6, Jams: 3, Djembes: 1},
				SpreadWindow: 50,
				MinSamples:   10,
				ZThreshold:   2.0,
				Clip:         5,
			},
		},
		{
			Symbol: PicnicBasket2,
			Limit:  100,
			Kind:   KindBasketArb,
			Basket: &BasketArbConfig{
				Components:   market.Basket{Croissants: 4, Jams: 2},
				SpreadWindow: 50,
				MinSamples:   10,
				ZThreshold:   2.0,
				Clip:         5,
			},
		},
	}
}
