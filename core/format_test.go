package core

import (
	"testing"

	"github.com/encodeous/rankd/state"
	"github.com/stretchr/testify/assert"
)

func TestFormatTableEmpty(t *testing.T) {
	out := FormatTable(Snapshot{Id: "self", Rank: state.InfRank})
	assert.Contains(t, out, "No neighbours present.")
	assert.Contains(t, out, " (none)")
	assert.Contains(t, out, "Rank: infinite (no parent)")
}

func TestFormatTable(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.AddOrUpdate("b")
	m.AddOrUpdate("a")
	m.ReceiveAck("a")
	m.SendProbe("b")

	out := FormatTable(m.Snapshot())
	expected := `--- Current Neighbour Table ---
 - a: distance = 1.0000, tx cost = 0 [parent]
 - b: distance = 1.0000, tx cost = 1 [probing]

Potential Parents:
 - a: 1.0000

Rank: 2.0000 via a
-------------------------------
`
	assert.Equal(t, expected, out)
}
