package scheduler

import (
	"sort"
	"sync"
	"time"
)

type manualTask struct {
	id  int64
	due time.Duration
	f   func()
}

// Manual is a Scheduler driven by an explicit virtual clock. Tasks run
// synchronously inside Advance, which makes delayed behavior deterministic
// in tests and tools.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int64
	tasks   map[int64]*manualTask
	stopped bool
}

// NewManual returns a stopped-clock scheduler at time zero.
func NewManual() *Manual {
	return &Manual{tasks: make(map[int64]*manualTask)}
}

func (m *Manual) Once(delay time.Duration, f func()) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return -1
	}
	m.nextID++
	m.tasks[m.nextID] = &manualTask{id: m.nextID, due: m.now + delay, f: f}
	return m.nextID
}

func (m *Manual) Cancel(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
}

func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.tasks = make(map[int64]*manualTask)
}

// Advance moves the clock forward by d and runs every task that became due,
// earliest first. It returns the number of tasks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	ran := 0
	for {
		task := m.popDue(now)
		if task == nil {
			return ran
		}
		task.f()
		ran++
	}
}

func (m *Manual) popDue(now time.Duration) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.due <= now {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	delete(m.tasks, due[0].id)
	return due[0]
}
