package transport

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/encodeous/rankd/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type ackRecorder struct {
	mu   sync.Mutex
	acks []state.NodeId
}

func (a *ackRecorder) ReceiveAck(node state.NodeId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, node)
}

func (a *ackRecorder) Acks() []state.NodeId {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]state.NodeId(nil), a.acks...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSimDeliversAcks(t *testing.T) {
	sim := NewSim(state.TransportCfg{Type: state.TransportSim, Delay: time.Millisecond}, discard())
	defer sim.Close()
	sink := &ackRecorder{}
	sim.Attach(sink)

	sim.SendProbe("a")
	sim.SendProbe("b")
	assert.Eventually(t, func() bool {
		return len(sink.Acks()) == 2
	}, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []state.NodeId{"a", "b"}, sink.Acks())
	assert.Equal(t, uint64(2), sim.Sent.Load())
	assert.Equal(t, uint64(0), sim.Dropped.Load())
}

func TestSimResponders(t *testing.T) {
	sim := NewSim(state.TransportCfg{
		Type:       state.TransportSim,
		Responders: []state.NodeId{"a"},
	}, discard())
	defer sim.Close()
	sink := &ackRecorder{}
	sim.Attach(sink)

	sim.SendProbe("a")
	sim.SendProbe("b")
	assert.Eventually(t, func() bool {
		return len(sink.Acks()) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []state.NodeId{"a"}, sink.Acks())
	assert.Equal(t, uint64(1), sim.Dropped.Load())
}

func TestSimTotalLoss(t *testing.T) {
	sim := NewSim(state.TransportCfg{Type: state.TransportSim, Loss: 1}, discard())
	defer sim.Close()
	sink := &ackRecorder{}
	sim.Attach(sink)

	for i := 0; i < 100; i++ {
		sim.SendProbe("a")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sink.Acks())
	assert.Equal(t, uint64(100), sim.Dropped.Load())
}

func TestSimClose(t *testing.T) {
	sim := NewSim(state.TransportCfg{Type: state.TransportSim, Delay: time.Hour}, discard())
	sink := &ackRecorder{}
	sim.Attach(sink)
	sim.SendProbe("a")

	require.NoError(t, sim.Close())
	require.NoError(t, sim.Close())
	sim.SendProbe("b")
	assert.Equal(t, uint64(1), sim.Sent.Load())
	assert.Empty(t, sink.Acks())
}

func TestSimWithoutSink(t *testing.T) {
	sim := NewSim(state.TransportCfg{Type: state.TransportSim}, discard())
	defer sim.Close()
	sim.SendProbe("a")
	assert.Equal(t, uint64(0), sim.Sent.Load())
}

func TestNewTransport(t *testing.T) {
	tr, err := New(state.TransportCfg{Type: state.TransportSim}, discard())
	require.NoError(t, err)
	assert.IsType(t, &Sim{}, tr)
	require.NoError(t, tr.Close())

	_, err = New(state.TransportCfg{Type: "carrier-pigeon"}, discard())
	assert.ErrorContains(t, err, "unknown transport type")
}
