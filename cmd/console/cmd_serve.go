package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/technosupport/ts-console/internal/api"
	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/broadcast"
	"github.com/technosupport/ts-console/internal/config"
	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/data"
	"github.com/technosupport/ts-console/internal/db"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/prefs"
	"github.com/technosupport/ts-console/internal/ratelimit"
	"github.com/technosupport/ts-console/internal/scenario"
	"github.com/technosupport/ts-console/internal/styles"
	"github.com/technosupport/ts-console/internal/tokens"
)

var (
	serveAddr    string
	serveNoNATS  bool
	serveFixture bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console HTTP server",
	Long: `Runs the HTTP API, the preference websocket hub, the playback and tracking
clocks, the broadcast spool replayer and the style file watcher until
SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoNATS, "no-nats", false, "run without bulletin publishing")
	serveCmd.Flags().BoolVar(&serveFixture, "fixtures", false, "serve incidents from the embedded fixtures instead of the database")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := incidents.MustLoadCatalog()
	health := api.NewHealthHandler()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable yet")
	}
	health.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	sqlDB, repo, err := openIncidents(ctx, cfg, catalog, serveFixture)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
		health.Register("database", sqlDB.PingContext)
	}

	tm := tokens.NewManager(cfg.Auth.SigningKey)
	blacklist := auth.NewRedisBlacklist(rdb)

	mgr := console.NewManager(console.NewRedisStore(rdb, cfg.Redis.SessionTTL), repo, catalog, scenario.Default(), console.Options{
		CacheSize:          cfg.Console.CacheSize,
		PlaybackStep:       cfg.Console.PlaybackStep,
		TrackingDuration:   cfg.Console.TrackingDuration,
		TrackingTick:       cfg.Console.TrackingTick,
		TrackingOverlayTTL: cfg.Console.TrackingOverlayTTL,
	})
	defer mgr.Close()

	if !serveNoNATS {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("ts-console"),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		health.Register("nats", func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New(nc.Status().String())
			}
			return nil
		})

		pub := broadcast.NewNATSPublisher(nc, cfg.NATS.BroadcastSubject, cfg.NATS.PublishRetryMax)
		svc := broadcast.NewService(pub, nil, nil)
		if sqlDB != nil {
			spool, err := broadcast.NewSpool(cfg.Broadcast.SpoolDir, cfg.Broadcast.SpoolMaxBytes)
			if err != nil {
				return err
			}
			records := data.BroadcastModel{DB: sqlDB}
			spool.StartReplayer(ctx, records, cfg.Broadcast.ReplayInterval)
			svc = broadcast.NewService(pub, records, spool)
		}
		mgr.WithBroadcaster(svc)
	}

	prefSvc := prefs.NewService(prefs.NewRedisStore(rdb))
	hub := api.NewPrefsHub(prefSvc)
	if err := hub.Start(ctx); err != nil {
		return fmt.Errorf("prefs hub: %w", err)
	}

	styleMgr := styles.NewManager(cfg.Styles.Path)
	styleMgr.StartWatcher(ctx)

	var authSvc *auth.Service
	if sqlDB != nil {
		authSvc = auth.NewService(data.OperatorModel{DB: sqlDB}, tm, blacklist)
	}

	handler := api.NewRouter(api.Deps{
		Sessions:  mgr,
		Incidents: repo,
		Catalog:   catalog,
		Prefs:     prefSvc,
		Styles:    styleMgr,
		Auth:      authSvc,
		Tokens:    tm,
		Blacklist: blacklist,
		Limiter:   ratelimit.NewLimiter(rdb),
		ChatLimit: cfg.RateLimit.Chat,
		Health:    health,
		Hub:       hub,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("version", version).Msg("console listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("console shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openIncidents picks the incident repository. With fixtures there is no
// database at all: incidents come from the embedded catalog, login is
// unmounted and bulletins are published but not recorded.
func openIncidents(ctx context.Context, cfg *config.Config, catalog *incidents.Catalog, fixtures bool) (*sql.DB, incidents.Repository, error) {
	if fixtures {
		return nil, catalog, nil
	}
	sqlDB, err := openDatabase(ctx, cfg, catalog)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, data.IncidentModel{DB: sqlDB}, nil
}

// openDatabase connects, migrates when configured and seeds the incident
// table from the embedded fixtures.
func openDatabase(ctx context.Context, cfg *config.Config, catalog *incidents.Catalog) (*sql.DB, error) {
	sqlDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := db.MigrateUp(sqlDB, cfg.Database.Driver); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		n, err := data.IncidentModel{DB: sqlDB}.Seed(ctx, catalog)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("seed incidents: %w", err)
		}
		log.Info().Int("incidents", n).Str("driver", cfg.Database.Driver).Msg("database ready")
	}
	return sqlDB, nil
}
