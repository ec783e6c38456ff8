// Command backtester replays historical bars through the matching engine
// and reports the resulting position history and final balance.
//
// Boot sequence:
//  1. config.Load(path)      - read YAML, overlay .env and process env
//  2. barsource.NewJSONSource - load the configured bar file
//  3. engine.New + InsertProduct
//  4. backtester.New wired to an example strategy
//  5. serve Prometheus metrics on cfg.Run.MetricsAddr while the replay runs
//
// Example:
//
//	go run . -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chidi150c/swapbacktest/internal/backtester"
	"github.com/chidi150c/swapbacktest/internal/barsource"
	cfgpkg "github.com/chidi150c/swapbacktest/internal/config"
	"github.com/chidi150c/swapbacktest/internal/engine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := cfgpkg.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	barLevel, err := cfgpkg.ParseLevel(cfg.Run.BarLevel)
	if err != nil {
		log.Fatalf("config: bar_level: %v", err)
	}
	strategyLevel, err := cfgpkg.ParseLevel(cfg.Run.StrategyLevel)
	if err != nil {
		log.Fatalf("config: strategy_level: %v", err)
	}

	source := barsource.NewJSONSource()
	if err := source.Load(cfg.Run.Product, cfg.Run.BarFile); err != nil {
		log.Fatalf("barsource: %v", err)
	}

	eng := engine.New(cfg.Engine.ToEngineConfig())
	eng.InsertProduct(cfg.Run.Product, cfg.Run.MinSize, cfg.Run.MinNotional)

	strategy := newSMACrossStrategy(10, 30, 0.05)
	bt := backtester.New(source, eng, cfg.Run.Product, barLevel, strategyLevel, strategy.run)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.Run.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("serving metrics on %s/metrics", cfg.Run.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	history, err := bt.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("backtester: %v", err)
	}

	fmt.Printf("closed positions: %d\n", len(history))
	for _, pos := range history {
		fmt.Printf("  %s %s qty=%.8f open=%.2f close=%.2f profit=%.4f fee=%.4f\n",
			pos.Product, pos.Side, pos.Quantity, pos.OpenPrice, pos.ClosePrice, pos.Profit, pos.Fee)
	}
	fmt.Printf("final balance: %.8f\n", eng.Balance())

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
