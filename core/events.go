package core

import (
	"fmt"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/rankd/state"
)

type NeighbourEvent int

// trace events

const (
	NeighbourAdded NeighbourEvent = iota
	NeighbourRefreshed
	NeighbourEvicted
	NeighbourRemoved
	ProbeSent
	ProbeResent
	AckReceived
	DistanceUpdated
	ParentAdded
	ParentLost
	ParentChanged
	RankInfinite
	NoNeighbours
)

// warn events

const (
	EvictUnknown NeighbourEvent = iota + 1000
	AckUnknown
	AckAfterEviction
	RetryCeiling
	InconsistentParent
)

func (e NeighbourEvent) String() string {
	switch e {
	case NeighbourAdded:
		return "NEIGHBOUR_ADDED"
	case NeighbourRefreshed:
		return "NEIGHBOUR_REFRESHED"
	case NeighbourEvicted:
		return "NEIGHBOUR_EVICTED"
	case NeighbourRemoved:
		return "NEIGHBOUR_REMOVED"
	case ProbeSent:
		return "PROBE_SENT"
	case ProbeResent:
		return "PROBE_RESENT"
	case AckReceived:
		return "ACK_RECEIVED"
	case DistanceUpdated:
		return "DISTANCE_UPDATED"
	case ParentAdded:
		return "PARENT_ADDED"
	case ParentLost:
		return "PARENT_LOST"
	case ParentChanged:
		return "PARENT_CHANGED"
	case RankInfinite:
		return "RANK_INFINITE"
	case NoNeighbours:
		return "NO_NEIGHBOURS"
	case EvictUnknown:
		return "EVICT_UNKNOWN"
	case AckUnknown:
		return "ACK_UNKNOWN"
	case AckAfterEviction:
		return "ACK_AFTER_EVICTION"
	case RetryCeiling:
		return "RETRY_CEILING"
	case InconsistentParent:
		return "INCONSISTENT_PARENT"
	}
	return fmt.Sprintf("NeighbourEvent(%d)", int(e))
}

// IsWarning reports whether the event describes a condition that was ignored
func (e NeighbourEvent) IsWarning() bool {
	return e >= 1000
}

// Event is published to every subscriber for each state transition of the manager
type Event struct {
	Kind NeighbourEvent
	Node state.NodeId
	Desc string
	Args []any
}

func (e Event) String() string {
	out := fmt.Sprintf("%s %s", e.Kind, e.Node)
	for _, a := range e.Args {
		out += " " + fmt.Sprint(a)
	}
	return out
}

type trace struct {
	broadcast.Broadcaster
}

func newTrace() *trace {
	return &trace{broadcast.NewBroadcaster(state.EventBufferSize)}
}

// Log writes the event to the debug log and publishes it to subscribers without blocking.
// Subscribers that fall behind lose events.
func (m *Manager) Log(event NeighbourEvent, node state.NodeId, desc string, args ...any) {
	attrs := append([]any{"node", node}, args...)
	if event.IsWarning() {
		m.Env.Log.Warn(fmt.Sprintf("%s %s", event.String(), desc), attrs...)
	} else {
		m.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), attrs...)
	}
	m.trace.TrySubmit(Event{
		Kind: event,
		Node: node,
		Desc: desc,
		Args: args,
	})
}

// Subscribe registers ch to receive Event values. The channel should be buffered, and must be drained
// until Unsubscribe or Stop, otherwise publishing stalls for every subscriber.
func (m *Manager) Subscribe(ch chan<- any) {
	m.traceMu.RLock()
	defer m.traceMu.RUnlock()
	if m.traceClosed {
		return
	}
	m.trace.Register(ch)
}

func (m *Manager) Unsubscribe(ch chan<- any) {
	m.traceMu.RLock()
	defer m.traceMu.RUnlock()
	if m.traceClosed {
		return
	}
	m.trace.Unregister(ch)
}

func (m *Manager) closeTrace() error {
	m.traceMu.Lock()
	defer m.traceMu.Unlock()
	if m.traceClosed {
		return nil
	}
	m.traceClosed = true
	return m.trace.Close()
}
