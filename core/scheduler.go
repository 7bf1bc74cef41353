package core

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/encodeous/rankd/state"
)

// Start runs the probe scheduler on a new goroutine. Use Wait to join it after Stop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run()
	}()
}

func (m *Manager) run() {
	m.Env.Log.Debug("started probe scheduler")
	timer := time.NewTimer(0)
	defer timer.Stop()
	for !m.stopping.Load() && m.Context.Err() == nil {
		_, _, delay := m.probeCycle()
		timer.Reset(delay)
		select {
		case <-timer.C:
		case <-m.Context.Done():
		}
	}
	m.Env.Log.Debug("stopped probe scheduler")
}

// probeCycle probes the next neighbour in round-robin order and returns it along with how long to wait
// before the next cycle.
func (m *Manager) probeCycle() (state.NodeId, bool, time.Duration) {
	m.lock()
	defer m.unlock()
	m.tombstones.DeleteExpired()
	if len(m.order) == 0 {
		m.Log(NoNeighbours, "", "no neighbours to probe")
		return "", false, m.ProbeInterval
	}
	next := m.nextTarget()
	m.current, m.hasCurrent = next, true
	m.Env.Log.Debug("probing neighbour", "node", next)
	m.sendProbe(next)
	return next, true, m.ProbeInterval + m.jitter()
}

// nextTarget advances the cursor. If the current target has been evicted, probing restarts from the head.
func (m *Manager) nextTarget() state.NodeId {
	if !m.hasCurrent {
		return m.order[0]
	}
	idx := slices.Index(m.order, m.current)
	if idx == -1 {
		return m.order[0]
	}
	return m.order[(idx+1)%len(m.order)]
}

func (m *Manager) uniformJitter() time.Duration {
	if m.ProbeJitter <= 0 {
		return 0
	}
	return rand.N(m.ProbeJitter)
}
