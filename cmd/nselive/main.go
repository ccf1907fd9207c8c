package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marketmock/nsesim/internal/api"
	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/config"
	"github.com/marketmock/nsesim/internal/live"
	"github.com/marketmock/nsesim/internal/logging"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/rng"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Dir, "nselive.log")
	log.Info("live quote proxy starting", "upstream", cfg.Live.BaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	rnd := rng.New(cfg.Simulation.Seed)

	// The store holds catalog metadata, the synthetic history anchor, and
	// acts as the quote cache the upstream merges into.
	entries := catalog.All()
	store := market.NewStore(entries, rnd, cfg.Simulation.HistoryDays)
	store.Init(time.Now())

	client := live.NewClient(cfg.Live.BaseURL, time.Duration(cfg.Live.TimeoutMS)*time.Millisecond)
	src := live.NewSource(store, client, entries,
		time.Duration(cfg.Live.CacheTTLMS)*time.Millisecond, log)

	apiServer := api.NewServer(src, rnd, log).WithSearchCap(cfg.Live.SearchCap)

	mux := http.NewServeMux()
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.RequestLogger(log, mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("live quote proxy stopped")
}
