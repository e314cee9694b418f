package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/srtpal/internal/config"
)

// scriptedChecker satisfies a watch after the configured number of checks.
type scriptedChecker struct {
	mu       sync.Mutex
	after    map[string]int
	failures map[string]error
	calls    map[string]int
}

func newScriptedChecker(after map[string]int) *scriptedChecker {
	return &scriptedChecker{after: after, failures: map[string]error{}, calls: map[string]int{}}
}

func (c *scriptedChecker) Check(_ context.Context, w config.Watch) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[w.Name]++
	if err := c.failures[w.Name]; err != nil {
		return false, err
	}
	return c.calls[w.Name] >= c.after[w.Name], nil
}

func (c *scriptedChecker) callsFor(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(names ...string) *config.Config {
	cfg := &config.Config{Interval: time.Hour}
	for _, n := range names {
		cfg.Watches = append(cfg.Watches, config.Watch{Name: n, From: "수서", To: "부산"})
	}
	return cfg
}

func TestTickDropsSatisfiedWatches(t *testing.T) {
	checker := newScriptedChecker(map[string]int{"a": 1, "b": 2})
	s := NewScheduler(testConfig("a", "b"), checker, testLogger())
	ctx := context.Background()

	assert.False(t, s.tick(ctx))
	assert.Equal(t, []string{"b"}, s.Pending())

	assert.True(t, s.tick(ctx))
	assert.Empty(t, s.Pending())
	assert.Equal(t, 1, checker.callsFor("a"))
	assert.Equal(t, 2, checker.callsFor("b"))

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

// blockingChecker holds every check until release is closed.
type blockingChecker struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingChecker) Check(_ context.Context, _ config.Watch) (bool, error) {
	c.started <- struct{}{}
	<-c.release
	return false, nil
}

func TestPendingDuringSlowCheck(t *testing.T) {
	checker := &blockingChecker{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewScheduler(testConfig("a"), checker, testLogger())

	tickDone := make(chan bool)
	go func() { tickDone <- s.tick(context.Background()) }()
	<-checker.started

	pending := make(chan []string)
	go func() { pending <- s.Pending() }()
	select {
	case names := <-pending:
		assert.Equal(t, []string{"a"}, names)
	case <-time.After(5 * time.Second):
		t.Fatal("Pending blocked while a check was running")
	}

	close(checker.release)
	assert.False(t, <-tickDone)
}

func TestTickKeepsFailingWatches(t *testing.T) {
	checker := newScriptedChecker(map[string]int{"a": 1})
	checker.failures["a"] = errors.New("connection reset")
	s := NewScheduler(testConfig("a"), checker, testLogger())

	assert.False(t, s.tick(context.Background()))
	assert.False(t, s.tick(context.Background()))
	assert.Equal(t, []string{"a"}, s.Pending())
	assert.Equal(t, 2, checker.callsFor("a"))
}

func TestTickDropsExpiredWatches(t *testing.T) {
	cfg := testConfig("old", "new")
	cfg.Watches[0].Date = "20261018"
	cfg.Watches[1].Date = "20261020"

	checker := newScriptedChecker(map[string]int{"new": 5})
	s := NewScheduler(cfg, checker, testLogger())
	s.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local) }

	assert.False(t, s.tick(context.Background()))
	assert.Equal(t, []string{"new"}, s.Pending())
	assert.Zero(t, checker.callsFor("old"))
}

func TestStartRunsFirstCheckImmediately(t *testing.T) {
	checker := newScriptedChecker(map[string]int{"a": 1})
	s := NewScheduler(testConfig("a"), checker, testLogger())

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not finish")
	}
	assert.Equal(t, 1, checker.callsFor("a"))
}

func TestStopBeforeWatchesFinish(t *testing.T) {
	checker := newScriptedChecker(map[string]int{"a": 100})
	s := NewScheduler(testConfig("a"), checker, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Stop()
	// a second Stop must not panic
	s.Stop()

	require.Equal(t, []string{"a"}, s.Pending())
	select {
	case <-s.Done():
		t.Fatal("done closed with pending watches")
	default:
	}
}
