package transport

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"

	"github.com/digineo/go-ping"
	"github.com/encodeous/rankd/state"
)

// ICMP probes neighbours with echo requests. Neighbour ids must be ip addresses, an echo reply is treated
// as the PROBE_ACK.
type ICMP struct {
	cfg    state.TransportCfg
	log    *slog.Logger
	pinger *ping.Pinger

	mu     sync.Mutex
	sink   AckSink
	closed bool
	wg     sync.WaitGroup
}

func NewICMP(cfg state.TransportCfg, log *slog.Logger) (*ICMP, error) {
	bind4, bind6 := cfg.Bind4, cfg.Bind6
	if bind4 == "" && bind6 == "" {
		bind4 = "0.0.0.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = state.PingTimeout
	}
	pinger, err := ping.New(bind4, bind6)
	if err != nil {
		return nil, fmt.Errorf("failed to start pinger: %w", err)
	}
	return &ICMP{
		cfg:    cfg,
		log:    log,
		pinger: pinger,
	}, nil
}

func (i *ICMP) Attach(sink AckSink) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sink = sink
}

func (i *ICMP) SendProbe(node state.NodeId) {
	addr, err := netip.ParseAddr(string(node))
	if err != nil {
		i.log.Warn("neighbour id is not an ip address, cannot probe", "node", node, "error", err)
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed || i.sink == nil {
		return
	}
	sink := i.sink
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		rtt, err := i.pinger.Ping(&net.IPAddr{IP: net.IP(addr.AsSlice()), Zone: addr.Zone()}, i.cfg.Timeout)
		if err != nil {
			i.log.Debug("icmp probe failed", "node", node, "error", err)
			return
		}
		i.log.Debug("icmp probe answered", "node", node, "rtt", rtt)
		i.mu.Lock()
		closed := i.closed
		i.mu.Unlock()
		if !closed {
			sink.ReceiveAck(node)
		}
	}()
}

func (i *ICMP) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()
	i.wg.Wait()
	i.pinger.Close()
	return nil
}
