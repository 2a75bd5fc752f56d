// Package strategy implements the per-product trading policies. Each policy
// consumes the tick snapshot plus its own rolling estimator state and produces
// candidate orders; it never mutates positions and never sees other policies'
// state. Empty book sides and insufficient history degrade to no orders.
package strategy

import (
	"fmt"

	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/rolling"
)

// Kind is the closed set of policy variants.
type Kind uint8

const (
	KindFixedFair Kind = iota
	KindVWAPReversion
	KindBandReversion
	KindBasketArb
)

func (k Kind) String() string {
	switch k {
	case KindFixedFair:
		return "FIXED_FAIR"
	case KindVWAPReversion:
		return "VWAP_REVERSION"
	case KindBandReversion:
		return "BAND_REVERSION"
	case KindBasketArb:
		return "BASKET_ARB"
	default:
		return "UNKNOWN"
	}
}

// ParseKind maps a config-file kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "FIXED_FAIR":
		return KindFixedFair, nil
	case "VWAP_REVERSION":
		return KindVWAPReversion, nil
	case "BAND_REVERSION":
		return KindBandReversion, nil
	case "BASKET_ARB":
		return KindBasketArb, nil
	default:
		return 0, fmt.Errorf("unknown policy kind %q", s)
	}
}

// Input bundles everything a policy may read for one tick.
type Input struct {
	Snap     market.Snapshot
	Symbol   market.Symbol
	Position int64
	Limit    int64
	// Limits carries every product's position limit so multi-leg policies can
	// cap their hedge legs.
	Limits map[market.Symbol]int64
}

// Policy is one product's order-generation strategy. Evaluate is pure except
// for mutating the policy's own rolling state.
type Policy interface {
	Evaluate(in Input) ([]market.Order, error)

	// ExportState and RestoreState round-trip the policy's cross-tick memory
	// through the persisted per-product state record.
	ExportState() ProductState
	RestoreState(st ProductState)
}

// ProductConfig selects and parameterizes the policy for one product. Exactly
// the config matching Kind must be set.
type ProductConfig struct {
	Symbol market.Symbol        `mapstructure:"symbol"`
	Limit  int64                `mapstructure:"limit"`
	Kind   Kind                 `mapstructure:"kind"`
	Fixed  *FixedFairConfig     `mapstructure:"fixed,omitempty"`
	VWAP   *VWAPReversionConfig `mapstructure:"vwap,omitempty"`
	Band   *BandReversionConfig `mapstructure:"band,omitempty"`
	Basket *BasketArbConfig     `mapstructure:"basket,omitempty"`
}

// NewPolicy constructs the policy for a product config.
func NewPolicy(cfg ProductConfig) (Policy, error) {
	switch cfg.Kind {
	case KindFixedFair:
		if cfg.Fixed == nil {
			return nil, fmt.Errorf("product %s: missing fixed fair config", cfg.Symbol)
		}
		return NewFixedFair(*cfg.Fixed), nil
	case KindVWAPReversion:
		if cfg.VWAP == nil {
			return nil, fmt.Errorf("product %s: missing vwap reversion config", cfg.Symbol)
		}
		return NewVWAPReversion(*cfg.VWAP), nil
	case KindBandReversion:
		if cfg.Band == nil {
			return nil, fmt.Errorf("product %s: missing band reversion config", cfg.Symbol)
		}
		return NewBandReversion(*cfg.Band), nil
	case KindBasketArb:
		if cfg.Basket == nil {
			return nil, fmt.Errorf("product %s: missing basket arb config", cfg.Symbol)
		}
		return NewBasketArb(*cfg.Basket), nil
	default:
		return nil, fmt.Errorf("product %s: unknown policy kind %d", cfg.Symbol, cfg.Kind)
	}
}

// ProductState is the versioned cross-tick memory persisted for one product.
// Whatever a policy exports at the end of tick N must survive a JSON
// round-trip and restore it fully at tick N+1.
type ProductState struct {
	Version int                 `json:"version"`
	Mids    []float64           `json:"mids,omitempty"`
	VWAP    []rolling.VWAPEntry `json:"vwap,omitempty"`
	Spreads []float64           `json:"spreads,omitempty"`
	EMA     float64             `json:"ema,omitempty"`
	EMAOK   bool                `json:"ema_ok,omitempty"`
}

// StateVersion is the current ProductState schema version.
const StateVersion = 1
