package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler runs a task at a fixed interval in the background
type Scheduler struct {
	interval time.Duration
	task     func()
	clock    clock.Clock
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// New creates a new Scheduler driven by the wall clock
func New(interval time.Duration, task func()) *Scheduler {
	return NewWithClock(interval, task, clock.New())
}

// NewWithClock creates a new Scheduler driven by clk
func NewWithClock(interval time.Duration, task func(), clk clock.Clock) *Scheduler {
	return &Scheduler{
		interval: interval,
		task:     task,
		clock:    clk,
	}
}

// Start begins executing the task at the configured interval
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	ticker := s.clock.Ticker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.task()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the task and waits for a running tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
}

// IsRunning returns true if the task is currently scheduled
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
