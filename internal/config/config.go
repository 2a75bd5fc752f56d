// Package config loads the backtest run configuration from a YAML file. A
// missing file is not an error: the shipped product universe is the default,
// so only the data path is ever mandatory.
package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/zappabad/tidemark/internal/strategy"
)

// Config holds everything a run needs.
type Config struct {
	// Data is the path to the historical data CSV.
	Data string `mapstructure:"data"`
	// Output is where the per-tick results CSV is written.
	Output string `mapstructure:"output"`
	// Products is the traded universe with per-product policy parameters.
	Products []strategy.ProductConfig `mapstructure:"products"`
}

// DefaultConfig returns a Config with the shipped product universe.
func DefaultConfig() Config {
	return Config{
		Output:   "results.csv",
		Products: strategy.DefaultUniverse(),
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	// A products list in the file replaces, not extends, the default universe.
	if v.IsSet("products") {
		cfg.Products = nil
	}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		kindHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded config is runnable.
func (c Config) Validate() error {
	if c.Data == "" {
		return fmt.Errorf("no historical data path configured")
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("no products configured")
	}
	for _, p := range c.Products {
		if p.Symbol == "" {
			return fmt.Errorf("product with empty symbol")
		}
		if p.Limit <= 0 {
			return fmt.Errorf("product %s: non-positive limit %d", p.Symbol, p.Limit)
		}
	}
	return nil
}

// kindHook decodes policy kind names like "FIXED_FAIR" into strategy.Kind.
func kindHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(strategy.Kind(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	return strategy.ParseKind(data.(string))
}
