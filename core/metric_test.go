package core

import (
	"testing"

	"github.com/encodeous/rankd/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothEtx(t *testing.T) {
	assert.Equal(t, 1.0, SmoothEtx(1.0, 0.5))
	assert.Equal(t, 2.0, SmoothEtx(3.0, 0.5))
	assert.Equal(t, 1.5, SmoothEtx(2.0, 0.5))
	assert.Equal(t, 1.0, SmoothEtx(7.0, 1))
}

func TestReceiveAckConverges(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.AddOrUpdate("a")
	setDistance(m, "a", 3.0)

	m.ReceiveAck("a")
	rec, _ := neighbourOf(m, "a")
	assert.Equal(t, 2.0, rec.Distance)

	m.ReceiveAck("a")
	rec, _ = neighbourOf(m, "a")
	assert.Equal(t, 1.5, rec.Distance)

	for i := 0; i < 50; i++ {
		m.ReceiveAck("a")
	}
	rec, _ = neighbourOf(m, "a")
	assert.InDelta(t, 1.0, rec.Distance, 1e-9)
	assert.InDelta(t, 2.0, m.Rank(), 1e-9)
}

func TestDistanceUpdateIsPublished(t *testing.T) {
	m, _ := newTestManager(t, nil)
	events := subscribe(t, m)
	m.AddOrUpdate("a")
	setDistance(m, "a", 3.0)

	m.ReceiveAck("a")
	expectEvent(t, events, AckReceived, "a")
	ev := expectEvent(t, events, DistanceUpdated, "a")
	assert.Equal(t, []any{"old", 3.0, "distance", 2.0}, ev.Args)
}

func TestRecomputeParentSelectsMinimum(t *testing.T) {
	m, _ := newTestManager(t, nil)
	for _, n := range []state.NodeId{"A", "B", "C"} {
		m.AddOrUpdate(n)
	}
	m.AddPotentialParent("A", 2.0)
	m.AddPotentialParent("B", 1.0)
	m.AddPotentialParent("C", 1.5)

	m.RecomputeParent()
	assert.Equal(t, 2.0, m.Rank())
	parent, ok := m.Parent()
	require.True(t, ok)
	assert.Equal(t, state.NodeId("B"), parent)
}

func TestRecomputeParentWithoutCandidates(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.RecomputeParent()
	assert.Equal(t, state.InfRank, m.Rank())
	_, ok := m.Parent()
	assert.False(t, ok)
}

func TestParentTieBreaksOnLowestId(t *testing.T) {
	parents := map[state.NodeId]float64{
		"zeta":  1.25,
		"beta":  1.25,
		"alpha": 1.5,
		"gamma": 1.25,
	}
	for i := 0; i < 20; i++ {
		best, dist := selectParent(parents)
		assert.Equal(t, state.NodeId("beta"), best)
		assert.Equal(t, 1.25, dist)
	}
}

func TestAddPotentialParentOnlyOnImprovement(t *testing.T) {
	m, _ := newTestManager(t, nil)
	events := subscribe(t, m)
	m.AddOrUpdate("a")

	m.AddPotentialParent("a", 1.5)
	expectEvent(t, events, ParentAdded, "a")

	m.AddPotentialParent("a", 1.5)
	m.AddPotentialParent("a", 2.0)
	assert.Equal(t, map[state.NodeId]float64{"a": 1.5}, m.PotentialParents())
	assert.Equal(t, 2.5, m.Rank())

	m.AddPotentialParent("a", 1.2)
	expectEvent(t, events, ParentAdded, "a")
	assert.Equal(t, map[state.NodeId]float64{"a": 1.2}, m.PotentialParents())
	assert.InDelta(t, 2.2, m.Rank(), 1e-9)
}

func TestAddPotentialParentRejectsStrangers(t *testing.T) {
	m, _ := newTestManager(t, nil)
	events := subscribe(t, m)

	m.AddPotentialParent("ghost", 1.0)
	expectEvent(t, events, InconsistentParent, "ghost")
	assert.Empty(t, m.PotentialParents())
	assert.Equal(t, state.InfRank, m.Rank())
}

func TestParentChangeIsPublished(t *testing.T) {
	m, _ := newTestManager(t, nil)
	events := subscribe(t, m)
	m.AddOrUpdate("a")
	m.AddOrUpdate("b")

	m.AddPotentialParent("a", 2.0)
	ev := expectEvent(t, events, ParentChanged, "a")
	assert.Contains(t, ev.Args, 3.0)

	m.AddPotentialParent("b", 1.0)
	expectEvent(t, events, ParentChanged, "b")

	m.Evict("b")
	expectEvent(t, events, ParentChanged, "a")
	m.Evict("a")
	expectEvent(t, events, RankInfinite, "a")
}
