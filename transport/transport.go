// Package transport carries PROBE messages to neighbours and reports PROBE_ACKs back to the manager.
package transport

import (
	"fmt"
	"log/slog"

	"github.com/encodeous/rankd/state"
)

// AckSink receives acknowledgements for probes sent by a Transport
type AckSink interface {
	ReceiveAck(node state.NodeId)
}

type Transport interface {
	SendProbe(node state.NodeId)
	// Attach sets the sink that acks are delivered to. Probes sent before Attach are dropped.
	Attach(sink AckSink)
	Close() error
}

func New(cfg state.TransportCfg, log *slog.Logger) (Transport, error) {
	switch cfg.Type {
	case state.TransportSim, "":
		return NewSim(cfg, log), nil
	case state.TransportICMP:
		return NewICMP(cfg, log)
	case state.TransportARP:
		return NewARP(cfg, log)
	}
	return nil, fmt.Errorf("unknown transport type %q", cfg.Type)
}
