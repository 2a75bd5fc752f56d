package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/zappabad/tidemark/internal/backtest"
	"github.com/zappabad/tidemark/internal/config"
	"github.com/zappabad/tidemark/internal/market"
	"github.com/zappabad/tidemark/internal/trader"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to run config YAML")
		dataPath   = flag.String("data", "", "historical data CSV (overrides config)")
		outPath    = flag.String("out", "", "results CSV path (overrides config)")
	)
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if *dataPath != "" {
		cfg.Data = *dataPath
	}
	if *outPath != "" {
		cfg.Output = *outPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ticks, err := backtest.LoadFile(cfg.Data)
	if err != nil {
		log.Fatal("load historical data", zap.Error(err))
	}
	log.Info("loaded historical data",
		zap.String("path", cfg.Data),
		zap.Int("ticks", len(ticks)),
		zap.Int("products", len(cfg.Products)),
	)

	orch, err := trader.New(cfg.Products, log.Named("trader"))
	if err != nil {
		log.Fatal("build orchestrator", zap.Error(err))
	}

	res := backtest.NewEngine(orch, log.Named("backtest")).Run(ticks)

	out, err := os.Create(cfg.Output)
	if err != nil {
		log.Fatal("create results file", zap.Error(err))
	}
	defer out.Close()

	symbols := make([]market.Symbol, 0, len(cfg.Products))
	for _, p := range cfg.Products {
		symbols = append(symbols, p.Symbol)
	}
	if err := backtest.WriteCSV(out, res.Rows, symbols); err != nil {
		log.Fatal("write results", zap.Error(err))
	}

	log.Info("run complete",
		zap.String("output", cfg.Output),
		zap.Int("fills", len(res.Fills)),
		zap.String("final_pnl", res.Cash.String()),
	)
	for _, sym := range symbols {
		if pos := res.Positions[sym]; pos != 0 {
			log.Info("open position", zap.String("product", string(sym)), zap.Int64("position", pos))
		}
	}
}
