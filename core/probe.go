package core

import (
	"time"

	"github.com/encodeous/rankd/perf"
	"github.com/encodeous/rankd/state"
)

// SendProbe sends a PROBE to node and arms the resend task. It does nothing if node is unknown or has
// already used up its retries.
func (m *Manager) SendProbe(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.sendProbe(node)
}

func (m *Manager) sendProbe(node state.NodeId) {
	rec, ok := m.table[node]
	if !ok {
		return
	}
	if rec.TxCost >= m.MaxTxCost {
		m.Log(RetryCeiling, node, "max retries reached, skipping probe", "tx", rec.TxCost)
		return
	}
	rec.TxCost++
	m.io = append(m.io, node)
	perf.CountProbe("sent")
	m.Log(ProbeSent, node, "sent probe", "tx", rec.TxCost)

	m.disarm(rec.resend)
	rec.resend = m.arm(node, resendTask, m.ResendDelay)
}

// ResendProbe retransmits an outstanding PROBE. This is normally driven by the resend task.
func (m *Manager) ResendProbe(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.resendProbe(node)
}

func (m *Manager) resendProbe(node state.NodeId) {
	rec, ok := m.table[node]
	if !ok {
		return
	}
	if rec.TxCost >= m.MaxTxCost {
		m.disarm(rec.resend)
		rec.resend = nil
		m.Log(RetryCeiling, node, "max retries reached, stopping probe resends", "tx", rec.TxCost)
		m.exhausted(rec)
		return
	}
	rec.TxCost++
	m.io = append(m.io, node)
	perf.CountProbe("resent")
	m.Log(ProbeResent, node, "resending probe", "tx", rec.TxCost)

	m.disarm(rec.resend)
	rec.resend = m.arm(node, resendTask, m.ResendDelay)
}

func (m *Manager) exhausted(rec *record) {
	switch m.Exhaustion {
	case state.ExhaustEvict:
		m.evict(rec.Id, NeighbourEvicted, "retries exhausted")
	case state.ExhaustReset:
		rec.TxCost = 0
	}
}

// ReceiveAck handles a PROBE_ACK from node: the neighbour is refreshed, its retries are cleared, its distance
// is smoothed towards one and it becomes eligible as a parent. Acks from unknown neighbours are ignored.
func (m *Manager) ReceiveAck(node state.NodeId) {
	m.lock()
	defer m.unlock()
	m.receiveAck(node)
}

func (m *Manager) receiveAck(node state.NodeId) {
	if _, ok := m.table[node]; !ok {
		if item := m.tombstones.Get(node); item != nil {
			perf.CountAck("evicted")
			m.Log(AckAfterEviction, node, "received ack from evicted neighbour, ignoring", "evicted", item.Value())
		} else {
			perf.CountAck("unknown")
			m.Log(AckUnknown, node, "received ack from unknown neighbour, ignoring")
		}
		return
	}
	perf.CountAck("accepted")
	rec := m.addOrUpdate(node)

	m.disarm(rec.resend)
	rec.resend = nil
	rec.TxCost = 0
	rec.LastAck = time.Now()

	m.Log(AckReceived, node, "received ack")

	old := rec.Distance
	rec.Distance = SmoothEtx(old, m.Smoothing)
	m.Log(DistanceUpdated, node, "updated distance", "old", old, "distance", rec.Distance)

	m.addPotentialParent(node, rec.Distance)
}
