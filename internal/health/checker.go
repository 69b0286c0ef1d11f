// Package health runs periodic health checks: progress store
// connectivity, the local SQLite database, curriculum content and the data
// directory.
package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/infra/metrics"
)

// Pinger is anything that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	log      *zap.Logger
}

// SetLogger attaches a logger for failures and recoveries.
func (c *Checker) SetLogger(log *zap.Logger) { c.log = log }

// NewChecker creates a health checker with the standard checks.
func NewChecker(store, db Pinger, cur *content.Curriculum, dataDir string) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		log:      zap.NewNop(),
		checks: []Check{
			{
				Name: "store",
				CheckFn: func(ctx context.Context) error {
					return store.Ping(ctx)
				},
			},
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping(ctx)
				},
			},
			{
				Name: "content",
				CheckFn: func(ctx context.Context) error {
					return checkContent(cur)
				},
			},
			{
				Name: "data_dir",
				CheckFn: func(ctx context.Context) error {
					return checkDataDir(dataDir)
				},
				RecoverFn: func(ctx context.Context) error {
					if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
						return err
					}
					return os.MkdirAll(dataDir, 0700)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check now and stores the results.
func (c *Checker) RunOnce(ctx context.Context) []Status {
	log := c.log
	if log == nil {
		log = zap.NewNop()
	}
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			log.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			if check.RecoverFn != nil {
				if rerr := check.RecoverFn(ctx); rerr != nil {
					log.Error("health recovery failed", zap.String("check", check.Name), zap.Error(rerr))
				} else {
					log.Info("health recovery ran", zap.String("check", check.Name))
				}
			}
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()

	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkContent(cur *content.Curriculum) error {
	if cur == nil {
		return errors.New("no curriculum loaded")
	}
	if cur.LevelCount() == 0 {
		return errors.New("curriculum has no levels")
	}
	return nil
}

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
