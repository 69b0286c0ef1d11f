package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/infra/metrics"
)

// RetryFailedSaves re-saves every snapshot whose retry is due and returns
// how many were saved. Saves that fail again are rescheduled until the
// queue gives up on them.
func (s *Service) RetryFailedSaves(ctx context.Context) int {
	if s.retries == nil {
		return 0
	}

	saved := 0
	for _, e := range s.retries.DrainReady(s.now()) {
		s.mu.Lock()
		u, ok := s.users[e.Key]
		s.mu.Unlock()
		if !ok {
			continue
		}

		u.mu.Lock()
		state := u.ledger.State()
		err := s.store.SaveProgress(ctx, state)
		u.mu.Unlock()

		if err == nil {
			saved++
			s.log.Info("progress saved on retry", zap.String("user_id", e.Key), zap.Int("attempt", e.Attempt))
			continue
		}
		metrics.StoreErrors.WithLabelValues("retry").Inc()
		if !s.retries.Reschedule(e, err.Error(), s.now()) {
			s.log.Error("giving up on progress save",
				zap.String("user_id", e.Key),
				zap.Int("attempts", e.Attempt),
				zap.Error(err))
		}
	}
	return saved
}

// RunMaintenance calls RetryFailedSaves and PruneSessions every interval
// until ctx is done.
func (s *Service) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RetryFailedSaves(ctx)
			s.PruneSessions()
		}
	}
}
