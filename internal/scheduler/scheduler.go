package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/config"
)

// Checker runs one watch check and reports whether the watch is satisfied.
type Checker interface {
	Check(ctx context.Context, w config.Watch) (bool, error)
}

// Scheduler polls every pending watch on one goroutine until each is
// satisfied, expired, or the scheduler is stopped.
type Scheduler struct {
	cfg     *config.Config
	checker Checker
	logger  *logrus.Logger
	now     func() time.Time

	mu       sync.Mutex
	pending  []config.Watch
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(cfg *config.Config, checker Checker, logger *logrus.Logger) *Scheduler {
	pending := make([]config.Watch, len(cfg.Watches))
	copy(pending, cfg.Watches)
	return &Scheduler{
		cfg:     cfg,
		checker: checker,
		logger:  logger,
		now:     time.Now,
		pending: pending,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Done is closed once no watch is pending.
func (s *Scheduler) Done() <-chan struct{} {
	return s.doneCh
}

// Pending returns the names of watches still being polled.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.pending))
	for _, w := range s.pending {
		names = append(names, w.Name)
	}
	return names
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// first check runs immediately rather than one interval in
	if s.tick(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped: context cancelled")
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped: stop signal received")
			return
		case <-ticker.C:
			if s.tick(ctx) {
				return
			}
		}
	}
}

// tick checks every pending watch once and reports whether none remain.
// Checks run without s.mu held so Pending stays responsive.
func (s *Scheduler) tick(ctx context.Context) bool {
	s.mu.Lock()
	watches := make([]config.Watch, len(s.pending))
	copy(watches, s.pending)
	s.mu.Unlock()

	now := s.now()
	remaining := make([]config.Watch, 0, len(watches))

	for _, w := range watches {
		if ctx.Err() != nil {
			remaining = append(remaining, w)
			continue
		}

		if w.Expired(now) {
			s.logger.WithFields(logrus.Fields{
				"watch": w.Name,
				"date":  w.Date,
			}).Warn("watch date has passed, dropping watch")
			continue
		}

		done, err := s.checker.Check(ctx, w)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"watch": w.Name,
				"error": err,
			}).Error("watch check failed")
		}
		if done {
			s.logger.WithField("watch", w.Name).Info("watch satisfied")
			continue
		}
		remaining = append(remaining, w)
	}

	s.mu.Lock()
	s.pending = remaining
	s.mu.Unlock()

	if len(remaining) == 0 {
		s.logger.Info("all watches finished")
		close(s.doneCh)
		return true
	}

	s.logger.WithFields(logrus.Fields{
		"pending":  len(remaining),
		"next_run": now.Add(s.cfg.Interval).Format("15:04:05"),
	}).Debug("tick complete")
	return false
}
