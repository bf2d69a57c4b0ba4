package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playok/resmon/internal/api"
	"github.com/playok/resmon/internal/collector"
	"github.com/playok/resmon/internal/config"
	"github.com/playok/resmon/internal/metrics"
	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/monitor"
	"github.com/playok/resmon/internal/notify"
	"github.com/playok/resmon/internal/settings"
	"github.com/playok/resmon/internal/store"
)

const shutdownTimeout = 5 * time.Second

// app holds the components shared by run and check.
type app struct {
	db      *store.Store
	metrics *metrics.Metrics
	svc     *monitor.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := store.New(cfg.DBPath,
		store.WithRetentionCap(cfg.RetentionCap),
		store.WithLogger(logger.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database opened",
		zap.String("path", db.DBPath()),
		zap.Int64("retention_cap", db.RetentionCap()))

	mgr := settings.NewManager(db, logger.Named("settings"))
	if err := mgr.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics()
	}

	src := collector.NewHostSource()
	registry := collector.NewDefaultRegistry(src, cfg.MemoryLimit, cfg.DiskPath)
	engine := collector.NewEngine(registry, src, mgr, m, logger.Named("collector"))

	// A nil *SMTPMailer must not reach the gate as a non-nil interface.
	var mailer notify.Mailer
	if sm := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}); sm != nil {
		mailer = sm
	} else {
		logger.Warn("smtp.host not set, e-mail notifications disabled")
	}
	gate := notify.NewGate(mgr, mailer, notify.Options{
		SiteName:     cfg.SiteName,
		AdminEmail:   cfg.AdminEmail,
		DashboardURL: cfg.DashboardURL,
	}, m, logger.Named("notify"))

	svc := monitor.New(monitor.Deps{
		Engine:   engine,
		Settings: mgr,
		Alerts:   db,
		Gate:     gate,
		Metrics:  m,
		Logger:   logger.Named("monitor"),
	})

	support := engine.Probe(ctx)
	logger.Info("resource support",
		zap.Bool("memory", support[model.ResourceMemory]),
		zap.Bool("disk", support[model.ResourceDisk]),
		zap.Bool("cpu", support[model.ResourceCPU]))

	return &app{db: db, metrics: m, svc: svc}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func runCmd() *cobra.Command {
	var daemon bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run in foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cfg, daemon)
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "write and clean up the PID file")
	_ = cmd.Flags().MarkHidden("daemon")
	return cmd
}

func serve(cfg *config.Config, daemon bool) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if daemon {
		if err := writePidFile(cfg.PidFile, os.Getpid()); err != nil {
			logger.Warn("failed to write PID file", zap.String("path", cfg.PidFile), zap.Error(err))
		}
		defer os.Remove(cfg.PidFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := api.NewHub(logger.Named("ws"))
	hub.SetGreeting(func(ctx context.Context) *model.Snapshot {
		return a.svc.GetSnapshot(ctx, false)
	})
	a.svc.SetBroadcaster(hub)

	opts := api.Options{
		BasePath: cfg.BasePath,
		Health:   a.db,
		Logger:   logger.Named("http"),
	}
	if a.metrics != nil {
		opts.Metrics = a.metrics.Handler()
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(a.svc, hub, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return a.svc.Run(gctx) })
	g.Go(func() error {
		logger.Info("resmon listening",
			zap.String("version", version),
			zap.String("addr", "http://"+cfg.Listen),
			zap.String("base_path", cfg.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	logger.Info("goodbye")
	return err
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one resource check and print the result",
		Long: `check samples the resources, records an alert for every resource at or
above its warning level and sends the e-mail digest when the notification
settings allow it. The result is printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.svc.Check(ctx)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
