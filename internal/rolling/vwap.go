package rolling

import "github.com/zappabad/tidemark/internal/book"

// VWAPEntry is one tick's liquidity-weighted price estimate and the top-of-book
// volume behind it.
type VWAPEntry struct {
	VWAP   float64 `json:"vwap"`
	Volume int64   `json:"vol"`
}

// VWAPConfig sizes the VWAP fair-value window. The estimator averages over the
// calm window normally and shrinks to the volatile window when the population
// stdev of held entries exceeds VolatilityThreshold.
type VWAPConfig struct {
	CalmWindow          int     `mapstructure:"calm_window"`
	VolatileWindow      int     `mapstructure:"volatile_window"`
	VolatilityThreshold float64 `mapstructure:"volatility_threshold"`
}

// DefaultVWAPConfig returns a VWAPConfig with reasonable defaults.
func DefaultVWAPConfig() VWAPConfig {
	return VWAPConfig{
		CalmWindow:          12,
		VolatileWindow:      6,
		VolatilityThreshold: 2.0,
	}
}

// VWAP estimates fair value as the volume-weighted average of recent
// liquidity-weighted top-of-book prices.
type VWAP struct {
	cfg VWAPConfig
	win *Window[VWAPEntry]
}

// NewVWAP creates a VWAP estimator.
func NewVWAP(cfg VWAPConfig) *VWAP {
	if cfg.CalmWindow < 1 {
		cfg.CalmWindow = DefaultVWAPConfig().CalmWindow
	}
	if cfg.VolatileWindow < 1 || cfg.VolatileWindow > cfg.CalmWindow {
		cfg.VolatileWindow = cfg.CalmWindow
	}
	return &VWAP{cfg: cfg, win: NewWindow[VWAPEntry](cfg.CalmWindow)}
}

// InstantVWAP returns the liquidity-weighted crossing estimate from the top of
// the book: the side with less resting size pulls the estimate toward itself.
// With zero total volume it degrades to the simple mid, and with an empty book
// to def.
func InstantVWAP(b book.Book, def float64) (float64, int64) {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return b.Mid(def), 0
	}
	bidVol := int64(b.BidSizeAt(bid))
	askVol := int64(b.AskSizeAt(ask))
	total := bidVol + askVol
	if total <= 0 {
		return b.Mid(def), 0
	}
	vwap := (float64(bid)*float64(askVol) + float64(ask)*float64(bidVol)) / float64(total)
	return vwap, total
}

// Observe folds one tick's book into the window and returns the instantaneous
// estimate used.
func (v *VWAP) Observe(b book.Book, def float64) float64 {
	vwap, vol := InstantVWAP(b, def)
	v.win.Push(VWAPEntry{VWAP: vwap, Volume: vol})
	return vwap
}

// FairValue returns the volume-weighted average of the effective window. If the
// held entries carry no volume it falls back to the latest instantaneous
// estimate; with no entries at all it returns def.
func (v *VWAP) FairValue(def float64) float64 {
	latest, ok := v.win.Newest()
	if !ok {
		return def
	}

	entries := v.win.Tail(v.effectiveWindow())
	var weighted float64
	var total int64
	for _, e := range entries {
		weighted += e.VWAP * float64(e.Volume)
		total += e.Volume
	}
	if total == 0 {
		return latest.VWAP
	}
	return weighted / float64(total)
}

// Len returns the number of held entries.
func (v *VWAP) Len() int { return v.win.Len() }

// Warm reports whether the calm window is fully populated.
func (v *VWAP) Warm() bool { return v.win.Full() }

// Entries returns the held entries oldest first.
func (v *VWAP) Entries() []VWAPEntry { return v.win.Values() }

// Restore reinstates previously exported entries, oldest first.
func (v *VWAP) Restore(entries []VWAPEntry) {
	v.win = NewWindow[VWAPEntry](v.cfg.CalmWindow)
	for _, e := range entries {
		v.win.Push(e)
	}
}

// effectiveWindow shrinks from the calm to the volatile length when recent
// estimates are dispersed beyond the configured threshold.
func (v *VWAP) effectiveWindow() int {
	if v.cfg.VolatileWindow == v.cfg.CalmWindow {
		return v.cfg.CalmWindow
	}
	stats := NewStats(v.win.Len())
	for _, e := range v.win.Values() {
		stats.Push(e.VWAP)
	}
	if stats.Stdev() > v.cfg.VolatilityThreshold {
		return v.cfg.VolatileWindow
	}
	return v.cfg.CalmWindow
}
