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

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"

	"github.com/marketmock/nsesim/internal/api"
	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/config"
	"github.com/marketmock/nsesim/internal/engine"
	"github.com/marketmock/nsesim/internal/logging"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/recorder"
	"github.com/marketmock/nsesim/internal/rng"
	"github.com/marketmock/nsesim/internal/stream"
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

	log := logging.New(cfg.Logging.Level, cfg.Logging.Dir, "nsesim.log")
	log.Info("exchange simulator starting")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// PRNG
	rnd := rng.New(cfg.Simulation.Seed)
	log.Info("PRNG seeded", "seed", cfg.Simulation.Seed)

	// Catalog + price state
	entries := catalog.All()
	store := market.NewStore(entries, rnd, cfg.Simulation.HistoryDays)
	store.Init(time.Now())
	log.Info("price state seeded", "symbols", len(entries))

	// Settings + engine
	ctrl := engine.NewController(cfg.Settings())
	eng := engine.New(store, ctrl, rnd, log)

	// Streaming fan-out
	mgr := stream.NewManager(entries, cfg.Stream.SendBuffer, log)

	// Tick recorder (opt-in)
	var tickReader recorder.TickReader
	var sched *gocron.Scheduler
	if cfg.Recorder.MongoURI != "" {
		rstore, err := recorder.NewStore(ctx, cfg.Recorder.MongoURI, log)
		if err != nil {
			log.Error("recorder connection failed", "error", err)
			os.Exit(1)
		}
		defer rstore.Close(context.Background())

		if err := rstore.EnsureIndexes(ctx); err != nil {
			log.Error("recorder index creation failed", "error", err)
			os.Exit(1)
		}

		rec := recorder.New(rstore, log)
		go rec.Run(ctx)
		tickReader = recorder.NewMongoTickReader(rstore.DB())

		sched = gocron.NewScheduler(time.UTC)
		sched.Every(1).Hour().Do(func() {
			recorder.PruneOnce(ctx, rstore, cfg.Recorder.RetentionDays, log)
		})
		if cfg.Recorder.Archive.Dir != "" {
			arch := recorder.NewArchiver(rstore.DB(), cfg.Recorder.Archive.Dir,
				cfg.Recorder.Archive.MaxGB, cfg.Recorder.Archive.AfterHours, log)
			sched.Every(cfg.Recorder.Archive.IntervalHours).Hours().Do(func() {
				arch.Cycle(ctx)
			})
		}
		sched.StartAsync()
		log.Info("tick recorder started", "retention_days", cfg.Recorder.RetentionDays)

		eng.OnTick(func(quotes []market.Quote) {
			mgr.Broadcast(quotes)
			rec.Record(quotes)
		})
	} else {
		eng.OnTick(mgr.Broadcast)
	}
	if sched != nil {
		defer sched.Stop()
	}

	go eng.Run(ctx)

	// HTTP surface
	src := &engine.Source{Store: store, Ctrl: ctrl}
	apiServer := api.NewServer(src, rnd, log).
		WithSimulation(ctrl, store).
		WithClientCount(mgr.ClientCount)
	if tickReader != nil {
		apiServer = apiServer.WithTickReader(tickReader)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", stream.Handler(mgr))
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

	log.Info("listening", "addr", addr, "stream", "/ws")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("exchange simulator stopped")
}
