// Package scheduler runs cancellable one-shot tasks after a delay.
//
// The game service uses it for presentation pauses: clearing the dice after
// a move and passing the turn after a blocked or forfeited roll. Rules never
// depend on it; a task only calls back into the engine.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTick      = 10 * time.Millisecond
	defaultWheelSize = 64
)

// Scheduler runs functions once after a delay.
type Scheduler interface {
	// Once registers f to run after delay and returns a task id, or -1 when
	// the scheduler is stopped.
	Once(delay time.Duration, f func()) int64
	// Cancel drops a pending task. Unknown or finished ids are ignored.
	Cancel(id int64)
	// Len returns the number of pending tasks.
	Len() int
	// Stop cancels every pending task and releases the wheel.
	Stop()
}

// Option configures a WheelScheduler.
type Option func(*WheelScheduler)

// WithTick sets the wheel precision.
func WithTick(d time.Duration) Option {
	return func(s *WheelScheduler) {
		if d > 0 {
			s.tick = d
		} else {
			log.Warnf("scheduler: invalid tick %v, using %v", d, defaultTick)
		}
	}
}

// WithWheelSize sets the number of slots per wheel level.
func WithWheelSize(size int64) Option {
	return func(s *WheelScheduler) {
		if size > 0 {
			s.wheelSize = size
		} else {
			log.Warnf("scheduler: invalid wheel size %d, using %d", size, defaultWheelSize)
		}
	}
}

type wheelTask struct {
	timer     *timingwheel.Timer
	cancelled atomic.Bool
}

// WheelScheduler is a Scheduler backed by a hierarchical timing wheel.
type WheelScheduler struct {
	tick      time.Duration
	wheelSize int64
	tw        *timingwheel.TimingWheel

	mu       sync.Mutex
	tasks    map[int64]*wheelTask
	nextID   atomic.Int64
	shutdown atomic.Bool
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWheelScheduler creates and starts a scheduler.
func NewWheelScheduler(opts ...Option) *WheelScheduler {
	s := &WheelScheduler{
		tick:      defaultTick,
		wheelSize: defaultWheelSize,
		tasks:     make(map[int64]*wheelTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tw = timingwheel.NewTimingWheel(s.tick, s.wheelSize)
	s.tw.Start()
	return s
}

func (s *WheelScheduler) Once(delay time.Duration, f func()) int64 {
	if s.shutdown.Load() {
		log.Warn("scheduler: stopped, task rejected")
		return -1
	}

	id := s.nextID.Add(1)
	task := &wheelTask{}

	// Register before arming so a zero delay cannot fire ahead of the map entry
	s.mu.Lock()
	s.tasks[id] = task
	s.mu.Unlock()

	s.wg.Add(1)
	timer := s.tw.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer s.remove(id)
		if task.cancelled.Load() {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				log.WithField("task", id).Errorf("scheduler: task panicked: %v", r)
			}
		}()
		f()
	})

	s.mu.Lock()
	task.timer = timer
	s.mu.Unlock()
	return id
}

func (s *WheelScheduler) Cancel(id int64) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	var timer *timingwheel.Timer
	if ok {
		delete(s.tasks, id)
		timer = task.timer
	}
	s.mu.Unlock()
	if !ok || !task.cancelled.CompareAndSwap(false, true) {
		return
	}
	if timer != nil && timer.Stop() {
		// The callback will never run, so it cannot release its slot
		s.wg.Done()
	}
}

func (s *WheelScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels pending tasks, waits for running ones and stops the wheel.
func (s *WheelScheduler) Stop() {
	s.once.Do(func() {
		s.shutdown.Store(true)

		s.mu.Lock()
		ids := make([]int64, 0, len(s.tasks))
		for id := range s.tasks {
			ids = append(ids, id)
		}
		s.mu.Unlock()
		for _, id := range ids {
			s.Cancel(id)
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			log.Warn("scheduler: timed out waiting for running tasks")
		}
		s.tw.Stop()
	})
}

func (s *WheelScheduler) remove(id int64) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}
