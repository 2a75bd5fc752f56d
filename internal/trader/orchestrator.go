// Package trader runs the per-product policies for each tick, enforces global
// position limits over their combined output and round-trips policy memory
// through a versioned state blob.
package trader

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/strategy"
)

// stateBlob is the serialized cross-tick memory for every product. Whatever is
// written at the end of tick N is recoverable as input to tick N+1.
type stateBlob struct {
	Version  int                                     `json:"version"`
	Products map[market.Symbol]strategy.ProductState `json:"products"`
}

// Orchestrator dispatches each tick to the configured policy per product,
// clips the aggregate order set against position limits and persists rolling
// state. Policy failures are isolated per product: a panicking or erroring
// policy yields no orders for its product that tick and every other product is
// unaffected.
type Orchestrator struct {
	products []strategy.ProductConfig
	policies map[market.Symbol]strategy.Policy
	limits   map[market.Symbol]int64
	log      *zap.Logger
}

// New creates an Orchestrator for the given product configs.
func New(products []strategy.ProductConfig, log *zap.Logger) (*Orchestrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		products: products,
		policies: make(map[market.Symbol]strategy.Policy, len(products)),
		limits:   make(map[market.Symbol]int64, len(products)),
		log:      log,
	}
	for _, cfg := range products {
		if _, dup := o.policies[cfg.Symbol]; dup {
			return nil, fmt.Errorf("duplicate product %s", cfg.Symbol)
		}
		p, err := strategy.NewPolicy(cfg)
		if err != nil {
			return nil, err
		}
		o.policies[cfg.Symbol] = p
		o.limits[cfg.Symbol] = cfg.Limit
	}
	return o, nil
}

// Limits returns the configured position limit per product.
func (o *Orchestrator) Limits() map[market.Symbol]int64 {
	out := make(map[market.Symbol]int64, len(o.limits))
	for sym, l := range o.limits {
		out[sym] = l
	}
	return out
}

// Run processes one tick: restore state from the blob, evaluate every
// configured product present in the snapshot (in config order), clip the
// combined orders globally per product and export the updated state blob.
// Conversions are not used by any shipped policy and pass through as 0.
func (o *Orchestrator) Run(snap market.Snapshot, blob []byte) (map[market.Symbol][]market.Order, int, []byte) {
	o.restore(blob)

	orders := make(map[market.Symbol][]market.Order)
	led := newLedger(o.limits, snap.Positions)

	for _, cfg := range o.products {
		sym := cfg.Symbol
		if _, ok := snap.Book(sym); !ok {
			continue
		}
		candidates, err := o.evaluate(sym, strategy.Input{
			Snap:     snap,
			Symbol:   sym,
			Position: snap.Position(sym),
			Limit:    cfg.Limit,
			Limits:   o.limits,
		})
		if err != nil {
			o.log.Warn("policy failed, skipping product this tick",
				zap.String("product", string(sym)),
				zap.Int64("timestamp", snap.Timestamp),
				zap.Error(err))
			continue
		}
		for _, cand := range candidates {
			if clipped, ok := led.clip(cand); ok {
				orders[clipped.Symbol] = append(orders[clipped.Symbol], clipped)
			}
		}
	}

	return orders, 0, o.export()
}

// evaluate runs one policy with panic isolation.
func (o *Orchestrator) evaluate(sym market.Symbol, in strategy.Input) (orders []market.Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			orders = nil
			err = fmt.Errorf("policy panic: %v", r)
		}
	}()
	return o.policies[sym].Evaluate(in)
}

// restore loads policy state from a prior tick's blob. A corrupt or
// incompatible blob degrades to fresh state rather than aborting the run:
// every policy's rolling history is dropped, not just left as-is, so a
// long-lived orchestrator cannot carry stale memory past a bad blob. An empty
// blob means no prior tick and leaves the policies untouched.
func (o *Orchestrator) restore(blob []byte) {
	if len(blob) == 0 {
		return
	}
	if v := gjson.GetBytes(blob, "version"); !v.Exists() || v.Int() != strategy.StateVersion {
		o.log.Warn("persisted state version mismatch, starting fresh",
			zap.Int64("got", gjson.GetBytes(blob, "version").Int()),
			zap.Int("want", strategy.StateVersion))
		o.reset()
		return
	}
	var st stateBlob
	if err := json.Unmarshal(blob, &st); err != nil {
		o.log.Warn("persisted state decode failed, starting fresh", zap.Error(err))
		o.reset()
		return
	}
	for _, cfg := range o.products {
		ps, ok := st.Products[cfg.Symbol]
		if !ok {
			// Absent from a valid blob: fresh, never stale carryover.
			ps = strategy.ProductState{Version: strategy.StateVersion}
		}
		o.policies[cfg.Symbol].RestoreState(ps)
	}
}

// reset drops every policy's rolling state.
func (o *Orchestrator) reset() {
	for _, cfg := range o.products {
		o.policies[cfg.Symbol].RestoreState(strategy.ProductState{Version: strategy.StateVersion})
	}
}

// export serializes every policy's state.
func (o *Orchestrator) export() []byte {
	st := stateBlob{
		Version:  strategy.StateVersion,
		Products: make(map[market.Symbol]strategy.ProductState, len(o.products)),
	}
	for _, cfg := range o.products {
		st.Products[cfg.Symbol] = o.policies[cfg.Symbol].ExportState()
	}
	out, err := json.Marshal(st)
	if err != nil {
		// Product states are plain numeric records; marshal cannot fail on
		// them, but never let state persistence kill the run.
		o.log.Error("state export failed", zap.Error(err))
		return nil
	}
	return out
}
