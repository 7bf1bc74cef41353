package core

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/encodeous/rankd/state"
)

// RecordingTransmitter records every probe handed to it. If Ack is set, it is called synchronously for every
// probe.
type RecordingTransmitter struct {
	mu   sync.Mutex
	sent []state.NodeId
	Ack  func(node state.NodeId)
}

func (r *RecordingTransmitter) SendProbe(node state.NodeId) {
	r.mu.Lock()
	r.sent = append(r.sent, node)
	ack := r.Ack
	r.mu.Unlock()
	if ack != nil {
		ack(node)
	}
}

func (r *RecordingTransmitter) Sent() []state.NodeId {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

func (r *RecordingTransmitter) Count(node state.NodeId) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s == node {
			n++
		}
	}
	return n
}

// quietConfig keeps every timer far in the future, tests shorten the ones they exercise
func quietConfig() state.NodeCfg {
	cfg := state.DefaultNodeCfg("self")
	cfg.ProbeInterval = time.Hour
	cfg.ProbeJitter = time.Nanosecond
	cfg.NeighbourTimeout = time.Hour
	cfg.ResendDelay = time.Hour
	return cfg
}

func newTestManager(t *testing.T, configure func(cfg *state.NodeCfg)) (*Manager, *RecordingTransmitter) {
	t.Helper()
	cfg := quietConfig()
	if configure != nil {
		configure(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	env := state.NewEnv(t.Context(), cfg, log)
	tx := &RecordingTransmitter{}
	m := NewManager(env, tx)
	t.Cleanup(func() {
		m.Stop()
		m.Wait()
	})
	return m, tx
}

func subscribe(t *testing.T, m *Manager) chan any {
	t.Helper()
	ch := make(chan any, 4096)
	m.Subscribe(ch)
	return ch
}

// expectEvent waits for an event of the given kind for node, skipping unrelated events
func expectEvent(t *testing.T, ch chan any, kind NeighbourEvent, node state.NodeId) Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			ev := e.(Event)
			if ev.Kind == kind && ev.Node == node {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s %s", kind, node)
			return Event{}
		}
	}
}

// noEvent asserts that no event of the given kind for node arrives within d
func noEvent(t *testing.T, ch chan any, kind NeighbourEvent, node state.NodeId, d time.Duration) {
	t.Helper()
	timeout := time.After(d)
	for {
		select {
		case e := <-ch:
			ev := e.(Event)
			if ev.Kind == kind && ev.Node == node {
				t.Fatalf("unexpected event %s", ev)
			}
		case <-timeout:
			return
		}
	}
}

func neighbourOf(m *Manager, node state.NodeId) (state.Neighbour, bool) {
	m.lock()
	defer m.unlock()
	rec, ok := m.table[node]
	if !ok {
		return state.Neighbour{}, false
	}
	return *rec.Neighbour, true
}

func setDistance(m *Manager, node state.NodeId, d float64) {
	m.lock()
	defer m.unlock()
	m.table[node].Distance = d
}

func pendingTasks(m *Manager, node state.NodeId, kind taskKind) int {
	m.lock()
	defer m.unlock()
	n := 0
	for _, t := range m.tasks {
		if t.node == node && t.kind == kind {
			n++
		}
	}
	return n
}
