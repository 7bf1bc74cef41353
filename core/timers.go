package core

import (
	"container/heap"
	"time"

	"github.com/encodeous/rankd/state"
)

type taskKind uint8

const (
	timeoutTask taskKind = iota
	resendTask
)

func (k taskKind) String() string {
	if k == timeoutTask {
		return "timeout"
	}
	return "resend"
}

// task is a deadline owned by a single neighbour record. A record only honours the task it currently
// points to, so a task that was replaced before it fired is a no-op.
type task struct {
	at    time.Time
	node  state.NodeId
	kind  taskKind
	index int
}

// taskHeap is a min-heap of tasks ordered by deadline.
type taskHeap []*task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	n := len(*h)
	t := x.(*task)
	t.index = n
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[0 : n-1]
	return t
}

// idleWait is how long the timer goroutine sleeps when nothing is scheduled. Arming a task wakes it early.
const idleWait = time.Hour

// arm schedules a task for node. Must be called with m.mu held.
func (m *Manager) arm(node state.NodeId, kind taskKind, delay time.Duration) *task {
	if m.stopping.Load() {
		return nil
	}
	t := &task{
		at:    time.Now().Add(delay),
		node:  node,
		kind:  kind,
		index: -1,
	}
	heap.Push(&m.tasks, t)
	if t.index == 0 {
		m.wakeTimers()
	}
	return t
}

// disarm removes a pending task from the queue. Must be called with m.mu held.
func (m *Manager) disarm(t *task) {
	if t == nil || t.index < 0 {
		return
	}
	heap.Remove(&m.tasks, t.index)
}

func (m *Manager) wakeTimers() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) runTimers() {
	defer m.wg.Done()
	timer := time.NewTimer(idleWait)
	defer timer.Stop()
	for {
		timer.Reset(m.fireDue(time.Now()))
		select {
		case <-m.Context.Done():
			return
		case <-timer.C:
		case <-m.wake:
		}
	}
}

// fireDue runs every task whose deadline has passed and returns the time until the next one.
func (m *Manager) fireDue(now time.Time) time.Duration {
	m.lock()
	defer m.unlock()
	for len(m.tasks) > 0 && !m.tasks[0].at.After(now) {
		t := heap.Pop(&m.tasks).(*task)
		m.fire(t)
	}
	if len(m.tasks) == 0 {
		return idleWait
	}
	return m.tasks[0].at.Sub(now)
}

func (m *Manager) fire(t *task) {
	rec, ok := m.table[t.node]
	if !ok {
		return
	}
	switch t.kind {
	case timeoutTask:
		if rec.timeout != t {
			return
		}
		rec.timeout = nil
		m.evict(t.node, NeighbourEvicted, "timeout expired")
	case resendTask:
		if rec.resend != t {
			return
		}
		rec.resend = nil
		m.resendProbe(t.node)
	}
}
