//go:build !linux

package discover

import (
	"context"
	"errors"
	"log/slog"

	"github.com/encodeous/rankd/state"
)

var errUnsupported = errors.New("netlink discovery is only supported on linux")

type Netlink struct{}

func NewNetlink(cfg state.DiscoveryCfg, log *slog.Logger) (*Netlink, error) {
	return nil, errUnsupported
}

func (n *Netlink) Seed(sink Sink) error {
	return errUnsupported
}

func (n *Netlink) Run(ctx context.Context, sink Sink) error {
	return errUnsupported
}
