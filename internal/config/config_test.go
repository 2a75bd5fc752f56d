package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/tidemark/internal/book"
	"github.com/zappabad/tidemark/internal/strategy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "results.csv", cfg.Output)
	assert.Len(t, cfg.Products, len(strategy.DefaultUniverse()))
}

func TestLoadParsesProducts(t *testing.T) {
	path := writeConfig(t, `
data: prices.csv
output: out.csv
products:
  - symbol: RESIN
    limit: 50
    kind: FIXED_FAIR
    fixed:
      fair_value: 10000
      width: 2
  - symbol: BASKET
    limit: 60
    kind: BASKET_ARB
    basket:
      components:
        CROISSANTS: 6
        JAMS: 3
      spread_window: 50
      min_samples: 10
      z_threshold: 2.0
      clip: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "prices.csv", cfg.Data)
	assert.Equal(t, "out.csv", cfg.Output)
	require.Len(t, cfg.Products, 2, "configured products replace the default universe")

	resin := cfg.Products[0]
	assert.Equal(t, strategy.KindFixedFair, resin.Kind)
	require.NotNil(t, resin.Fixed)
	assert.Equal(t, book.Price(10000), resin.Fixed.FairValue)

	basket := cfg.Products[1]
	assert.Equal(t, strategy.KindBasketArb, basket.Kind)
	require.NotNil(t, basket.Basket)
	assert.Equal(t, int64(6), basket.Basket.Components["CROISSANTS"])
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `
data: prices.csv
products:
  - symbol: X
    limit: 10
    kind: MARTINGALE
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "data path is mandatory")

	cfg.Data = "prices.csv"
	require.NoError(t, cfg.Validate())

	cfg.Products[0].Limit = 0
	assert.Error(t, cfg.Validate())

	cfg.Products = nil
	assert.Error(t, cfg.Validate())
}
