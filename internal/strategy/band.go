package strategy

import (
	"math"

	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

// BandReversionConfig parameterizes the rolling-band strategy. With Momentum
// false (the default) the policy fades moves outside mean±K·stdev; with
// Momentum true both legs flip and it chases them instead.
type BandReversionConfig struct {
	Window     int     `mapstructure:"window"`
	MinSamples int     `mapstructure:"min_samples"`
	K          float64 `mapstructure:"k"`
	Momentum   bool    `mapstructure:"momentum"`
	// EMASpan, when positive, centers the band on an exponential moving
	// average of mids instead of the window mean.
	EMASpan int `mapstructure:"ema_span"`
	// MomentumGate, when positive, stands the contrarian legs down while the
	// window's net mid move exceeds it.
	MomentumGate float64 `mapstructure:"momentum_gate"`
}

// DefaultBandReversionConfig returns the shipped SQUID_INK parameters.
func DefaultBandReversionConfig() BandReversionConfig {
	return BandReversionConfig{
		Window:     20,
		MinSamples: 10,
		K:          1.5,
	}
}

// BandReversion trades departures from a rolling mid-price band, sized by the
// liquidity resting at the touched level capped by remaining capacity. Below
// the minimum sample count it only records history.
type BandReversion struct {
	cfg  BandReversionConfig
	mids *rolling.Stats
	ema  *rolling.EMA
}

// NewBandReversion creates a BandReversion policy.
func NewBandReversion(cfg BandReversionConfig) *BandReversion {
	def := DefaultBandReversionConfig()
	if cfg.Window < 2 {
		cfg.Window = def.Window
	}
	if cfg.MinSamples < 2 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.K <= 0 {
		cfg.K = def.K
	}
	p := &BandReversion{cfg: cfg, mids: rolling.NewStats(cfg.Window)}
	if cfg.EMASpan > 0 {
		p.ema = rolling.NewEMASpan(cfg.EMASpan)
	}
	return p
}

// Evaluate implements Policy.
func (p *BandReversion) Evaluate(in Input) ([]market.Order, error) {
	b, ok := in.Snap.Book(in.Symbol)
	if !ok {
		return nil, nil
	}
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid && !hasAsk {
		return nil, nil
	}

	mid := b.Mid(0)
	p.mids.Push(mid)
	if p.ema != nil {
		p.ema.Push(mid)
	}
	if p.mids.Len() < p.cfg.MinSamples {
		return nil, nil
	}
	if !p.cfg.Momentum && p.cfg.MomentumGate > 0 && math.Abs(p.mids.Momentum()) > p.cfg.MomentumGate {
		// Trending too hard to fade this tick.
		return nil, nil
	}

	mean := p.mids.Mean()
	if p.ema != nil {
		mean = p.ema.Value()
	}
	sd := p.mids.Stdev()
	upper := mean + p.cfg.K*sd
	lower := mean - p.cfg.K*sd

	var orders []market.Order

	buySignal := hasAsk && float64(ask) < lower
	sellSignal := hasBid && float64(bid) > upper
	if p.cfg.Momentum {
		buySignal, sellSignal = sellSignal && hasAsk, buySignal && hasBid
	}

	if buySignal {
		qty := minInt64(int64(b.AskSizeAt(ask)), buyCapacity(in.Position, in.Limit))
		if qty > 0 {
			orders = append(orders, market.Order{Symbol: in.Symbol, Price: ask, Quantity: qty})
		}
	}
	if sellSignal {
		qty := minInt64(int64(b.BidSizeAt(bid)), sellCapacity(in.Position, in.Limit))
		if qty > 0 {
			orders = append(orders, market.Order{Symbol: in.Symbol, Price: bid, Quantity: -qty})
		}
	}

	return orders, nil
}

// ExportState implements Policy.
func (p *BandReversion) ExportState() ProductState {
	st := ProductState{Version: StateVersion, Mids: p.mids.Values()}
	if p.ema != nil {
		st.EMA = p.ema.Value()
		st.EMAOK = p.ema.Primed()
	}
	return st
}

// RestoreState implements Policy.
func (p *BandReversion) RestoreState(st ProductState) {
	p.mids = rolling.NewStats(p.cfg.Window)
	for _, m := range st.Mids {
		p.mids.Push(m)
	}
	if p.ema != nil {
		p.ema.Restore(st.EMA, st.EMAOK)
	}
}
