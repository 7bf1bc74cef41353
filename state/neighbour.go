package state

import (
	"fmt"
	"time"
)

type NodeId string

// Neighbour is the per-peer record kept in the neighbour table
type Neighbour struct {
	Id       NodeId
	Distance float64 // smoothed ETX towards this neighbour
	Rank     float64 // reserved, not used by parent selection
	TxCost   int     // probe attempts since the last ack
	AddedAt  time.Time
	LastAck  time.Time
}

func NewNeighbour(id NodeId) *Neighbour {
	return &Neighbour{
		Id:       id,
		Distance: InitialDistance,
		AddedAt:  time.Now(),
	}
}

// NeighbourInfo is a read-only snapshot row of the neighbour table
type NeighbourInfo struct {
	Id       NodeId  `json:"id"`
	Distance float64 `json:"distance"`
	TxCost   int     `json:"tx_cost"`
	Probing  bool    `json:"probing"`
	Parent   bool    `json:"parent"`
}

func (n NeighbourInfo) String() string {
	return fmt.Sprintf("%s (distance: %.4f, tx: %d)", n.Id, n.Distance, n.TxCost)
}
