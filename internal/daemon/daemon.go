package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/api"
	"github.com/shawHuaZe/SingMaster/internal/app/engagement"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/app/session"
	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/health"
	"github.com/shawHuaZe/SingMaster/internal/infra/logging"
	"github.com/shawHuaZe/SingMaster/internal/infra/redisstore"
	"github.com/shawHuaZe/SingMaster/internal/infra/retry"
	"github.com/shawHuaZe/SingMaster/internal/infra/sqlite"
)

// defaultUserKey holds the id of the local single-user profile.
const defaultUserKey = "default_user"

// maintenanceInterval is how often failed saves are retried and idle
// sessions pruned.
const maintenanceInterval = 5 * time.Second

// Daemon is the SingMaster host runtime. It wires together all services.
type Daemon struct {
	Config       Config
	Log          *zap.Logger
	DB           *sqlite.DB
	Store        domain.ProgressStore
	Content      *content.Curriculum
	Engine       *pitch.Engine
	Notification *engagement.NotificationService
	Sessions     *session.Service
	Retries      *retry.Queue
	Health       *health.Checker
	Server       *api.Server

	redis  *redisstore.Store
	cancel context.CancelFunc
}

// New creates and initializes a Daemon from the on-disk config.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	home := singmasterHome()
	db, err := sqlite.Open(home)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Daemon{
		Config: cfg,
		Log:    logger,
		DB:     db,
		Store:  db,
	}

	// Progress snapshots: SQLite by default, Redis when configured
	if cfg.Storage.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rs, err := redisstore.Open(ctx, redisstore.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			TTL:      parseDuration(cfg.Storage.RedisTTL, 0),
		})
		cancel()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		d.redis = rs
		d.Store = rs
	}

	// Curriculum
	if cfg.Content.Path != "" {
		cur, err := content.LoadFile(cfg.Content.Path)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("load content: %w", err)
		}
		d.Content = cur
	} else {
		d.Content = content.Default()
	}

	d.Engine = pitch.NewEngine(cfg.Pitch, pitch.WithLogger(logger.Named("pitch")))
	d.Notification = engagement.NewNotificationServiceWithPolicy(db, cfg.Notifications)

	d.Retries = retry.NewQueue(retry.DefaultConfig())
	d.Sessions = session.NewService(d.Store, d.Content.AllChapters(),
		session.WithAttemptStore(db),
		session.WithRetryQueue(d.Retries),
		session.WithNotifier(d.Notification),
		session.WithLogger(logger.Named("session")),
		session.WithLedgerOptions(
			engagement.WithLessonSeconds(cfg.Progress.LessonSeconds),
			engagement.WithDailyGoal(cfg.Progress.DailyGoal),
		))

	d.Health = health.NewChecker(d.Store, db, d.Content, home)
	d.Health.SetLogger(logger.Named("health"))

	srv := api.NewServer(d.Sessions, d.Content, d.Health, logger.Named("api"))
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetNotifier(d.Notification)
	srv.SetPitchEngine(d.Engine)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	logger.Debug("daemon initialized",
		zap.String("home", home),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("levels", d.Content.LevelCount()))
	return d, nil
}

// DefaultUser returns the id of the local profile, creating it on first use.
func (d *Daemon) DefaultUser() (string, error) {
	id, err := d.DB.GetEngagement(defaultUserKey)
	if err != nil {
		return "", fmt.Errorf("read default user: %w", err)
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := d.DB.SetEngagement(defaultUserKey, id); err != nil {
		return "", fmt.Errorf("store default user: %w", err)
	}
	d.Log.Info("created local profile", zap.String("user_id", id))
	return id, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)
	go d.Sessions.RunMaintenance(ctx, maintenanceInterval)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		d.Engine.Release()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.Log.Warn("http shutdown", zap.Error(err))
		}
	}()

	d.Log.Info("singmaster serving",
		zap.String("addr", "http://"+addr),
		zap.Bool("metrics", d.Config.Telemetry.Prometheus))

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Sessions != nil {
		d.Sessions.RetryFailedSaves(context.Background())
	}
	if d.Engine != nil {
		d.Engine.Release()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		_ = d.Log.Sync()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
