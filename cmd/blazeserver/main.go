// Command blazeserver is the process entry point: load configuration, run
// migrations, open the database, build every collaborator from internal/,
// and run the binary-protocol listener alongside the mission scheduler and
// the idle-session sweeper until the process is asked to stop.
//
// Grounded on cmd/gameserver/main.go's shape: signal-driven context cancel,
// sequential boot (config → migrations → db → reference data → services),
// then golang.org/x/sync/errgroup supervising every long-running loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/blazecoop/internal/auth"
	"github.com/udisondev/blazecoop/internal/config"
	"github.com/udisondev/blazecoop/internal/game"
	"github.com/udisondev/blazecoop/internal/handlers"
	"github.com/udisondev/blazecoop/internal/matchmaking"
	"github.com/udisondev/blazecoop/internal/missions"
	"github.com/udisondev/blazecoop/internal/refdata"
	"github.com/udisondev/blazecoop/internal/router"
	"github.com/udisondev/blazecoop/internal/session"
	"github.com/udisondev/blazecoop/internal/store"
)

const ConfigPathEnv = "BLAZECOOP_CONFIG"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := "config/blazeserver.yaml"
	if p := os.Getenv(ConfigPathEnv); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("blazecoop server starting", "log_level", cfg.LogLevel)

	if err := store.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	db, err := store.NewPostgres(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()
	slog.Info("database connected")

	tables, err := refdata.LoadFromFile(cfg.RefDataPath)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	slog.Info("reference data loaded",
		"classes", len(tables.Classes),
		"level_tables", len(tables.LevelTables),
		"badges", len(tables.Badges),
		"challenges", len(tables.Challenges),
		"mission_descriptors", len(tables.MissionDescriptors))

	key, err := auth.LoadOrCreateKey(cfg.TokenKeyPath)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	signer := auth.NewSigner(key)

	sessions := session.NewRegistry(signer)
	games := game.NewRegistry(sessions)
	match := matchmaking.NewService(games)
	liveSet := session.NewLiveSet()

	deps := handlers.Deps{
		Store:    db,
		Sessions: sessions,
		Games:    games,
		Match:    match,
	}
	rtr := router.New(handlers.Table(deps))

	scheduler := missions.New(db, tables)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", cfg.BindAddress, cfg.Port, err)
	}
	defer listener.Close()
	slog.Info("binary protocol listener started", "address", listener.Addr())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return acceptLoop(gctx, listener, rtr, sessions, games, liveSet)
	})

	g.Go(func() error {
		slog.Info("starting idle session sweeper", "interval", cfg.PingPeriod(), "max_idle", cfg.KeepAliveIdle())
		liveSet.RunSweepLoop(gctx, cfg.PingPeriod(), cfg.KeepAliveIdle())
		return nil
	})

	if cfg.MissionSchedulerEnabled {
		g.Go(func() error {
			slog.Info("starting mission scheduler")
			if err := scheduler.Run(gctx); err != nil {
				return fmt.Errorf("mission scheduler: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return listener.Close()
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// acceptLoop accepts inbound binary-protocol connections until ctx is
// cancelled, spawning a Session (read loop + write loop) per connection.
// Grounded on gameserver.Server.Run's accept-then-spawn-goroutines shape,
// adapted to this project's explicit ReadLoop/WriteLoop pair rather than a
// single client-drive goroutine.
func acceptLoop(ctx context.Context, ln net.Listener, rtr *router.Router, sessions *session.Registry, games *game.Registry, liveSet *session.LiveSet) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		sess := session.New(conn, rtr, sessions, games)
		sess.AttachLiveSet(liveSet)

		go sess.WriteLoop()
		go sess.ReadLoop()
	}
}

// parseLogLevel converts string log level to slog.Level. Defaults to Info
// if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
