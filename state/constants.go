package state

import "time"

const (
	// InfRank is the rank advertised when no parent is available.
	InfRank = 999.0
	// AckCost is the per-ack transmission cost fed into the ETX filter.
	AckCost = 1.0
	// InitialDistance is the distance assigned to a neighbour on first contact.
	InitialDistance = 1.0
)

var (
	ProbeInterval    = time.Second * 5
	ProbeJitter      = time.Second * 1
	NeighbourTimeout = time.Second * 15
	ResendDelay      = time.Millisecond * 500
	MaxTxCost        = 5
	Smoothing        = 0.5

	// TombstoneTTL is how long an evicted neighbour is remembered, so that a late ack can be told apart from garbage
	TombstoneTTL = 2 * NeighbourTimeout

	// EventBufferSize is the depth of the diagnostic event broadcaster
	EventBufferSize = 1024

	// LockHoldWarn is the critical section length above which a warning is logged
	LockHoldWarn = time.Millisecond * 4

	// ICMP transport defaults
	PingTimeout = time.Millisecond * 400

	// default diagnostics bind
	DefaultDiagBind = "127.0.0.1:57180"
)
