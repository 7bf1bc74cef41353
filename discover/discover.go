// Package discover learns neighbours from the host instead of the static configuration.
package discover

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/encodeous/rankd/state"
)

// Sink is told about neighbours as they appear and disappear
type Sink interface {
	AddOrUpdate(node state.NodeId)
	Remove(node state.NodeId)
}

type Discoverer interface {
	// Seed reports every neighbour that is currently usable
	Seed(sink Sink) error
	// Run follows neighbour changes until ctx is cancelled
	Run(ctx context.Context, sink Sink) error
}

func New(cfg state.DiscoveryCfg, log *slog.Logger) (Discoverer, error) {
	switch cfg.Type {
	case state.DiscoveryNetlink:
		return NewNetlink(cfg, log)
	}
	return nil, fmt.Errorf("unknown discovery type %q", cfg.Type)
}
