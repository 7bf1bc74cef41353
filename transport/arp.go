package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/encodeous/rankd/state"
	"github.com/j-keck/arping"
)

// ARP probes ipv4 neighbours with ARP requests. A reply from the neighbour is treated as the PROBE_ACK.
type ARP struct {
	cfg state.TransportCfg
	log *slog.Logger

	mu     sync.Mutex
	sink   AckSink
	closed bool
	wg     sync.WaitGroup
}

func NewARP(cfg state.TransportCfg, log *slog.Logger) (*ARP, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = state.PingTimeout
	}
	if cfg.Interface != "" {
		if _, err := net.InterfaceByName(cfg.Interface); err != nil {
			return nil, fmt.Errorf("failed to find interface %s: %w", cfg.Interface, err)
		}
	}
	arping.SetTimeout(cfg.Timeout)
	return &ARP{
		cfg: cfg,
		log: log,
	}, nil
}

func (a *ARP) Attach(sink AckSink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sink = sink
}

func (a *ARP) SendProbe(node state.NodeId) {
	ip := net.ParseIP(string(node)).To4()
	if ip == nil {
		a.log.Warn("neighbour id is not an ipv4 address, cannot arp", "node", node)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.sink == nil {
		return
	}
	sink := a.sink
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		hw, rtt, err := a.ping(ip)
		if err != nil {
			if !errors.Is(err, arping.ErrTimeout) {
				a.log.Debug("arp probe failed", "node", node, "error", err)
			}
			return
		}
		a.log.Debug("arp probe answered", "node", node, "hw", hw, "rtt", rtt)
		a.mu.Lock()
		closed := a.closed
		a.mu.Unlock()
		if !closed {
			sink.ReceiveAck(node)
		}
	}()
}

func (a *ARP) ping(ip net.IP) (net.HardwareAddr, time.Duration, error) {
	if a.cfg.Interface != "" {
		return arping.PingOverIfaceByName(ip, a.cfg.Interface)
	}
	return arping.Ping(ip)
}

// Close waits for outstanding requests, which are bounded by the configured timeout.
func (a *ARP) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
	return nil
}
