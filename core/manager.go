package core

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/encodeous/rankd/perf"
	"github.com/encodeous/rankd/state"
	"github.com/jellydator/ttlcache/v3"
)

// Transmitter delivers a PROBE to a neighbour. Delivery is fire-and-forget, the only confirmation is a later
// call to Manager.ReceiveAck.
type Transmitter interface {
	SendProbe(node state.NodeId)
}

type record struct {
	*state.Neighbour
	timeout *task
	resend  *task
}

// Manager owns the neighbour table. Every operation, including timer callbacks, runs under a single lock
// because parent selection spans the whole table.
type Manager struct {
	*state.Env
	tx Transmitter

	mu       sync.Mutex
	lockedAt time.Time
	table    map[state.NodeId]*record
	// order is the round-robin probe order, neighbours are appended when first added
	order      []state.NodeId
	current    state.NodeId
	hasCurrent bool
	parents    map[state.NodeId]float64
	rank       float64
	parent     state.NodeId
	hasParent  bool
	tasks      taskHeap
	io         []state.NodeId
	tombstones *ttlcache.Cache[state.NodeId, time.Time]

	wake     chan struct{}
	stopping atomic.Bool
	wg       sync.WaitGroup

	trace       *trace
	traceMu     sync.RWMutex
	traceClosed bool

	jitter func() time.Duration
}

// NewManager creates a manager and starts its timer goroutine. Call Start to begin probing, and Stop then
// Wait to shut it down.
func NewManager(env *state.Env, tx Transmitter) *Manager {
	env.NodeCfg.ApplyDefaults()
	m := &Manager{
		Env:     env,
		tx:      tx,
		table:   make(map[state.NodeId]*record),
		order:   make([]state.NodeId, 0),
		parents: make(map[state.NodeId]float64),
		rank:    state.InfRank,
		tombstones: ttlcache.New[state.NodeId, time.Time](
			ttlcache.WithTTL[state.NodeId, time.Time](state.TombstoneTTL),
			ttlcache.WithDisableTouchOnHit[state.NodeId, time.Time](),
		),
		wake:  make(chan struct{}, 1),
		trace: newTrace(),
	}
	m.jitter = m.uniformJitter
	perf.Rank.Set(m.rank)
	m.wg.Add(1)
	go m.runTimers()
	return m
}

func (m *Manager) lock() {
	m.mu.Lock()
	m.lockedAt = time.Now()
}

// unlock releases the table and then transmits every probe queued during the critical section, so that a
// transmitter is free to call back into the manager.
func (m *Manager) unlock() {
	elapsed := time.Since(m.lockedAt)
	out := m.io
	m.io = nil
	perf.Neighbours.Set(float64(len(m.table)))
	perf.PotentialParents.Set(float64(len(m.parents)))
	m.mu.Unlock()

	perf.LockHold.Add(float64(elapsed.Microseconds()))
	if elapsed > state.LockHoldWarn {
		m.Env.Log.Warn("critical section took a long time!", "elapsed", elapsed)
	}
	if m.tx == nil {
		return
	}
	for _, node := range out {
		m.tx.SendProbe(node)
	}
}

// AddOrUpdate inserts a neighbour on first contact, or refreshes its timeout if it is already known.
func (m *Manager) AddOrUpdate(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.addOrUpdate(node)
}

func (m *Manager) addOrUpdate(node state.NodeId) *record {
	rec, ok := m.table[node]
	if ok {
		m.disarm(rec.timeout)
		m.Log(NeighbourRefreshed, node, "updating neighbour")
	} else {
		rec = &record{Neighbour: state.NewNeighbour(node)}
		m.table[node] = rec
		m.order = append(m.order, node)
		m.tombstones.Delete(node)
		m.Log(NeighbourAdded, node, "adding new neighbour")
	}
	rec.timeout = m.arm(node, timeoutTask, m.NeighbourTimeout)
	return rec
}

// Evict drops a neighbour as if its timeout expired. Unknown neighbours are ignored.
func (m *Manager) Evict(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.evict(node, NeighbourEvicted, "evicting neighbour")
}

// Remove drops a neighbour on request of the management surface. Unknown neighbours are ignored.
func (m *Manager) Remove(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.evict(node, NeighbourRemoved, "removing neighbour")
}

func (m *Manager) evict(node state.NodeId, reason NeighbourEvent, desc string) bool {
	rec, ok := m.table[node]
	if !ok {
		m.Log(EvictUnknown, node, "neighbour not found for removal")
		return false
	}
	m.disarm(rec.timeout)
	m.disarm(rec.resend)
	rec.timeout, rec.resend = nil, nil
	delete(m.table, node)
	if idx := slices.Index(m.order, node); idx != -1 {
		m.order = slices.Delete(m.order, idx, idx+1)
	}
	m.tombstones.Set(node, time.Now(), ttlcache.DefaultTTL)
	m.Log(reason, node, desc)
	if reason == NeighbourRemoved {
		perf.CountEviction("removed")
	} else {
		perf.CountEviction("evicted")
	}

	if _, ok := m.parents[node]; ok {
		delete(m.parents, node)
		m.Log(ParentLost, node, "removed from potential parents")
		m.recomputeParent()
	}
	return true
}

// Stop cancels every pending timeout and resend, and signals the scheduler to exit at its next cycle
// boundary. It is safe to call more than once.
func (m *Manager) Stop() {
	if m.stopping.Swap(true) {
		return
	}
	m.lock()
	for _, rec := range m.table {
		rec.timeout, rec.resend = nil, nil
	}
	clear(m.tasks)
	m.tasks = m.tasks[:0]
	m.unlock()

	m.Cancel(context.Canceled)
	err := m.closeTrace()
	if err != nil {
		m.Env.Log.Error("failed to close event trace", "error", err)
	}
	m.Env.Log.Info("stopped neighbour manager")
}

// Wait blocks until the scheduler and timer goroutines have exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Snapshot is a consistent view of the manager, taken under a single lock
type Snapshot struct {
	Id               state.NodeId             `json:"id"`
	Rank             float64                  `json:"rank"`
	Parent           state.NodeId             `json:"parent,omitempty"`
	Neighbours       []state.NeighbourInfo    `json:"neighbours"`
	PotentialParents map[state.NodeId]float64 `json:"potential_parents"`
}

func (m *Manager) Snapshot() Snapshot {
	m.lock()
	defer m.unlock()
	return Snapshot{
		Id:               m.Id,
		Rank:             m.rank,
		Parent:           m.parent,
		Neighbours:       m.listNeighbours(),
		PotentialParents: maps.Clone(m.parents),
	}
}

// ListNeighbors returns the neighbour table ordered by id
func (m *Manager) ListNeighbors() []state.NeighbourInfo {
	m.lock()
	defer m.unlock()
	return m.listNeighbours()
}

func (m *Manager) listNeighbours() []state.NeighbourInfo {
	out := make([]state.NeighbourInfo, 0, len(m.table))
	for _, id := range slices.Sorted(maps.Keys(m.table)) {
		rec := m.table[id]
		out = append(out, state.NeighbourInfo{
			Id:       id,
			Distance: rec.Distance,
			TxCost:   rec.TxCost,
			Probing:  rec.resend != nil,
			Parent:   m.hasParent && m.parent == id,
		})
	}
	return out
}

func (m *Manager) Has(node state.NodeId) bool {
	m.lock()
	defer m.unlock()
	_, ok := m.table[node]
	return ok
}

func (m *Manager) Len() int {
	m.lock()
	defer m.unlock()
	return len(m.table)
}

func (m *Manager) Rank() float64 {
	m.lock()
	defer m.unlock()
	return m.rank
}

// Parent returns the selected parent, or false if the node has no potential parents
func (m *Manager) Parent() (state.NodeId, bool) {
	m.lock()
	defer m.unlock()
	return m.parent, m.hasParent
}

func (m *Manager) PotentialParents() map[state.NodeId]float64 {
	m.lock()
	defer m.unlock()
	return maps.Clone(m.parents)
}
