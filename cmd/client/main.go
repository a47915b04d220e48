package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dbmigrations "chaserbot/db"
	httpadapter "chaserbot/internal/adapter/http"
	metricsinmem "chaserbot/internal/adapter/metrics/inmemory"
	gormrepo "chaserbot/internal/adapter/repo/gorm"
	"chaserbot/internal/adapter/repo/memory"
	"chaserbot/internal/adapter/transport"
	"chaserbot/internal/app/engine"
	"chaserbot/internal/app/gamesync"
	"chaserbot/internal/app/journal"
	"chaserbot/internal/app/ports"
	"chaserbot/internal/app/replay"
	"chaserbot/internal/app/status"
	"chaserbot/internal/config"
	"chaserbot/internal/domain/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("client stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

type journalDeps struct {
	recorder *journal.Recorder
	events   ports.EventRepository
	close    func() error
}

func buildJournal(ctx context.Context, cfg config.Config, log *zap.Logger) (journalDeps, error) {
	noop := func() error { return nil }
	if !cfg.Journal {
		return journalDeps{close: noop}, nil
	}
	jcfg := journal.Config{QueueSize: cfg.JournalQueue, Logger: log.Named("journal")}
	if cfg.DBDSN == "" {
		store := memory.NewStore()
		events := memory.NewEventRepo(store)
		rec := journal.New(events, memory.NewMatchRepo(store), memory.NewTxManager(store), jcfg)
		return journalDeps{recorder: rec, events: events, close: noop}, nil
	}

	gdb, err := gormrepo.OpenPostgres(cfg.DBDSN)
	if err != nil {
		return journalDeps{}, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return journalDeps{}, fmt.Errorf("postgres handle: %w", err)
	}
	if err := gormrepo.ApplyMigrations(ctx, gdb, dbmigrations.Migrations, dbmigrations.MigrationsDir); err != nil {
		_ = sqlDB.Close()
		return journalDeps{}, fmt.Errorf("migrate: %w", err)
	}
	events := gormrepo.NewEventRepo(gdb)
	rec := journal.New(events, gormrepo.NewMatchRepo(gdb), gormrepo.NewTxManager(gdb), jcfg)
	return journalDeps{recorder: rec, events: events, close: sqlDB.Close}, nil
}

func buildHandler(registry *gamesync.Registry, metrics *metricsinmem.Recorder, j journalDeps) httpadapter.Handler {
	h := httpadapter.Handler{
		StatusUC: status.UseCase{Sessions: registry},
		KPI:      metrics,
	}
	if j.events != nil {
		h.ReplayUC = &replay.UseCase{Events: j.events}
	}
	if j.recorder != nil {
		h.Journal = j.recorder
	}
	return h
}

func dial(ctx context.Context, cfg config.Config, log *zap.Logger) (*transport.Conn, error) {
	if cfg.Transport == "bridge" {
		return transport.DialBridge(ctx, cfg.BridgeURL, nil, log.Named("bridge"))
	}
	return transport.SpawnProxy(ctx, transport.ProxyConfig{
		Command: cfg.ProxyCommand,
		Dir:     cfg.ProxyDir,
		Server:  cfg.Server,
		Modern:  cfg.Modern,
	}, log.Named("transport"))
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	tuning, err := engine.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}
	j, err := buildJournal(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = j.close() }()

	metrics := metricsinmem.NewRecorder()
	registry := &gamesync.Registry{}

	// The journal and the API outlive the match so the final events land.
	sideCtx, cancelSide := context.WithCancel(context.Background())
	defer cancelSide()
	var side errgroup.Group
	var sink ports.EventSink
	if j.recorder != nil {
		sink = j.recorder
		side.Go(func() error { return j.recorder.Run(sideCtx) })
	}
	if cfg.HTTPAddr != "" {
		h := buildHandler(registry, metrics, j)
		side.Go(func() error {
			if err := httpadapter.Serve(sideCtx, cfg.HTTPAddr, h, log.Named("http")); err != nil {
				log.Error("http api failed", zap.Error(err))
				return fmt.Errorf("http api: %w", err)
			}
			return nil
		})
	}

	matchErr := func() error {
		conn, err := dial(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		return play(ctx, conn, cfg, tuning, registry, metrics, sink, log)
	}()
	cancelSide()
	return errors.Join(matchErr, side.Wait())
}

func play(ctx context.Context, conn ports.Transport, cfg config.Config, tuning engine.Tuning, registry *gamesync.Registry, metrics ports.DecisionMetrics, sink ports.EventSink, log *zap.Logger) error {
	syncer, err := gamesync.Join(ctx, conn, gamesync.Config{
		Name:         cfg.Name,
		Room:         cfg.Room,
		View:         world.NewMapView(cfg.FogOfWar),
		PollInterval: cfg.PollInterval,
		DrainPeriod:  cfg.DrainPeriod,
		Logger:       log.Named("sync"),
		Sink:         sink,
	})
	if err != nil {
		return fmt.Errorf("join room %s: %w", cfg.Room, err)
	}
	registry.Set(syncer)

	eng := engine.New(syncer, engine.Config{
		Tuning:   tuning,
		Interval: cfg.EngineInterval,
		Seed:     cfg.Seed,
		Metrics:  metrics,
		Logger:   log.Named("engine"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return syncer.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	st := syncer.Snapshot()
	log.Info("match finished",
		zap.String("match_id", st.MatchID),
		zap.String("phase", string(st.Phase.Kind)),
		zap.Bool("won", st.Phase.IsEnded() && st.Phase.Winner == st.Players.Us.Side),
		zap.Int("score_us", st.Players.Us.Score),
		zap.Int("score_opponent", st.Players.Opponent.Score),
	)
	return nil
}
