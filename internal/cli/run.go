package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/Spok95/shopfloor/internal/bot"
	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/operators"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/infra/db"
	httpx "github.com/Spok95/shopfloor/internal/infra/http"
	"github.com/Spok95/shopfloor/internal/infra/logger"
	"github.com/Spok95/shopfloor/internal/infra/mes"
)

func newRunCommand(app *App) *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the operator bot with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), app, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func runBot(parent context.Context, app *App, skipMigrations bool) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	log := logger.New(cfg.App.Env)

	if !skipMigrations {
		if err := db.Migrate(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return err
		}
		log.Info("migrations applied")
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return err
	}
	defer pool.Close()
	log.Info("db connected")

	m := newMetrics(cfg)
	backend := newBackend(cfg, log, m)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, map[string]httpx.Check{
		"postgres": pool.Ping,
		"backend": func(context.Context) error {
			if backend.Unavailable() {
				return mes.ErrCircuitOpen
			}
			return nil
		},
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return err
	}
	log.Info("telegram bot authorized", "username", api.Self.UserName)

	opts := botOptions(cfg)
	if loc, err := time.LoadLocation(cfg.App.Timezone); err == nil {
		opts.Location = loc
	} else {
		log.Warn("unknown timezone, using UTC", "tz", cfg.App.Timezone, "err", err)
	}

	b := bot.New(api, log,
		operators.NewRepo(pool), dialog.NewRepo(pool), usage.NewRepo(pool),
		backend, m, opts)

	if err := b.Run(ctx, cfg.Telegram.PollTimeoutSec); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
	return nil
}
