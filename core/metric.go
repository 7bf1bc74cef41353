package core

import (
	"maps"
	"slices"

	"github.com/encodeous/rankd/perf"
	"github.com/encodeous/rankd/state"
)

// SmoothEtx moves old towards the per-ack cost with an exponentially weighted moving average.
func SmoothEtx(old, alpha float64) float64 {
	return (1-alpha)*old + alpha*state.AckCost
}

// AddPotentialParent registers node as a parent candidate if it is new or distance is strictly better than
// what is stored. Only neighbours in the table are accepted.
func (m *Manager) AddPotentialParent(node state.NodeId, distance float64) {
	m.lock()
	defer m.unlock()
	if _, ok := m.table[node]; !ok {
		m.Log(InconsistentParent, node, "refusing potential parent that is not a neighbour")
		return
	}
	m.addPotentialParent(node, distance)
}

func (m *Manager) addPotentialParent(node state.NodeId, distance float64) bool {
	old, ok := m.parents[node]
	if ok && distance >= old {
		return false
	}
	m.parents[node] = distance
	m.Log(ParentAdded, node, "added to potential parents", "distance", distance)
	m.recomputeParent()
	return true
}

// RecomputeParent selects the potential parent with the lowest distance and derives the node rank from it.
func (m *Manager) RecomputeParent() {
	m.lock()
	defer m.unlock()
	m.recomputeParent()
}

func (m *Manager) recomputeParent() {
	oldRank, oldParent, hadParent := m.rank, m.parent, m.hasParent
	if len(m.parents) == 0 {
		m.rank = state.InfRank
		m.parent, m.hasParent = "", false
		if hadParent {
			m.Log(RankInfinite, oldParent, "no potential parents available, setting rank to infinity")
		}
	} else {
		best, dist := selectParent(m.parents)
		m.rank = dist + 1
		m.parent, m.hasParent = best, true
		if !hadParent || best != oldParent || m.rank != oldRank {
			m.Log(ParentChanged, best, "selected parent", "distance", dist, "rank", m.rank)
		}
	}
	perf.Rank.Set(m.rank)
}

// selectParent returns the candidate with the lowest distance, the lowest id wins ties. parents must not be
// empty.
func selectParent(parents map[state.NodeId]float64) (state.NodeId, float64) {
	ids := slices.Sorted(maps.Keys(parents))
	best := ids[0]
	for _, id := range ids[1:] {
		if parents[id] < parents[best] {
			best = id
		}
	}
	return best, parents[best]
}
