package transport

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/encodeous/rankd/state"
)

// Sim is an in-memory link. Every probe is acknowledged after Delay unless it is lost, or the neighbour is
// not one of the configured responders.
type Sim struct {
	cfg        state.TransportCfg
	log        *slog.Logger
	responders map[state.NodeId]struct{}

	mu      sync.Mutex
	sink    AckSink
	closed  bool
	pending map[*time.Timer]struct{}

	Sent    atomic.Uint64
	Dropped atomic.Uint64
}

func NewSim(cfg state.TransportCfg, log *slog.Logger) *Sim {
	s := &Sim{
		cfg:     cfg,
		log:     log,
		pending: make(map[*time.Timer]struct{}),
	}
	if len(cfg.Responders) != 0 {
		s.responders = make(map[state.NodeId]struct{})
		for _, r := range cfg.Responders {
			s.responders[r] = struct{}{}
		}
	}
	return s
}

func (s *Sim) Attach(sink AckSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *Sim) SendProbe(node state.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sink == nil {
		return
	}
	s.Sent.Add(1)
	if s.responders != nil {
		if _, ok := s.responders[node]; !ok {
			s.Dropped.Add(1)
			return
		}
	}
	if rand.Float64() < s.cfg.Loss {
		s.Dropped.Add(1)
		s.log.Debug("sim dropped probe", "to", node)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.cfg.Delay, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		delete(s.pending, t)
		sink := s.sink
		s.mu.Unlock()
		sink.ReceiveAck(node)
	})
	s.pending[t] = struct{}{}
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for t := range s.pending {
		t.Stop()
	}
	clear(s.pending)
	return nil
}
