package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/zappabad/tidemark/internal/backtest"
	"github.com/zappabad/tidemark/internal/config"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/trader"
	"github.com/zappabad/tidemark/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to run config YAML")
		dataPath   = flag.String("data", "", "historical data CSV (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *dataPath != "" {
		cfg.Data = *dataPath
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	ticks, err := backtest.LoadFile(cfg.Data)
	if err != nil {
		fatal(err)
	}

	orch, err := trader.New(cfg.Products, zap.NewNop())
	if err != nil {
		fatal(err)
	}
	res := backtest.NewEngine(orch, zap.NewNop()).Run(ticks)
	if len(res.Rows) == 0 {
		fatal(fmt.Errorf("no ticks in %s", cfg.Data))
	}

	symbols := make([]market.Symbol, 0, len(cfg.Products))
	for _, p := range cfg.Products {
		symbols = append(symbols, p.Symbol)
	}

	model := tui.NewModel(res, symbols, orch.Limits())

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "viewer:", err)
	os.Exit(1)
}
