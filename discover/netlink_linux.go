package discover

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/encodeous/rankd/state"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Netlink follows the kernel neighbour table (ARP and NDP). Reachable and stale entries become neighbours,
// failed entries are removed.
type Netlink struct {
	log       *slog.Logger
	linkIndex int
	// zone names the link of an ipv6 link-local neighbour
	zone func(linkIndex int) (string, error)
}

func NewNetlink(cfg state.DiscoveryCfg, log *slog.Logger) (*Netlink, error) {
	n := &Netlink{log: log, zone: linkName}
	if cfg.Interface != "" {
		link, err := netlink.LinkByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("failed to find interface %s: %w", cfg.Interface, err)
		}
		n.linkIndex = link.Attrs().Index
	}
	return n, nil
}

func (n *Netlink) Seed(sink Sink) error {
	neighs, err := netlink.NeighList(n.linkIndex, netlink.FAMILY_ALL)
	if err != nil {
		return fmt.Errorf("failed to list neighbours: %w", err)
	}
	for _, neigh := range neighs {
		if neigh.IP == nil || !usable(neigh.State, neigh.Flags) {
			continue
		}
		node, ok := n.nodeId(neigh)
		if !ok {
			continue
		}
		n.log.Debug("discovered neighbour", "node", node, "state", stateString(neigh.State))
		sink.AddOrUpdate(node)
	}
	return nil
}

func (n *Netlink) Run(ctx context.Context, sink Sink) error {
	updates := make(chan netlink.NeighUpdate, 64)
	done := make(chan struct{})
	if err := netlink.NeighSubscribe(updates, done); err != nil {
		close(done)
		return fmt.Errorf("failed to subscribe to neighbour updates: %w", err)
	}
	return n.follow(ctx, updates, done, sink)
}

// follow handles updates until ctx is cancelled. Closing done stops the subscription, which then closes
// updates, so it is drained to let the sender exit.
func (n *Netlink) follow(ctx context.Context, updates <-chan netlink.NeighUpdate, done chan struct{}, sink Sink) error {
	defer func() {
		close(done)
		for range updates {
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("neighbour subscription closed")
			}
			n.handle(update, sink)
		}
	}
}

func (n *Netlink) handle(update netlink.NeighUpdate, sink Sink) {
	neigh := update.Neigh
	if neigh.IP == nil || (n.linkIndex > 0 && neigh.LinkIndex != n.linkIndex) {
		return
	}
	node, ok := n.nodeId(neigh)
	if !ok {
		return
	}
	switch {
	case update.Type == unix.RTM_DELNEIGH || gone(neigh.State, neigh.Flags):
		n.log.Debug("neighbour gone", "ip", neigh.IP, "state", stateString(neigh.State))
		sink.Remove(node)
	case usable(neigh.State, neigh.Flags):
		sink.AddOrUpdate(node)
	}
}

// nodeId returns the id of a neighbour. Link-local ipv6 addresses carry the zone of their link, and are
// skipped if the link cannot be named.
func (n *Netlink) nodeId(neigh netlink.Neigh) (state.NodeId, bool) {
	ip := neigh.IP.String()
	if neigh.IP.To4() == nil && neigh.IP.IsLinkLocalUnicast() {
		zone, err := n.zone(neigh.LinkIndex)
		if err != nil {
			n.log.Debug("skipping link-local neighbour", "ip", ip, "link", neigh.LinkIndex, "error", err)
			return "", false
		}
		ip += "%" + zone
	}
	return state.NodeId(ip), true
}

func linkName(linkIndex int) (string, error) {
	link, err := netlink.LinkByIndex(linkIndex)
	if err != nil {
		return "", err
	}
	return link.Attrs().Name, nil
}

func externallyLearned(flags int) bool {
	return flags&netlink.NTF_EXT_LEARNED != 0
}

func usable(nud, flags int) bool {
	return nud&(netlink.NUD_REACHABLE|netlink.NUD_STALE) != 0 && !externallyLearned(flags)
}

func gone(nud, flags int) bool {
	return nud == netlink.NUD_FAILED || externallyLearned(flags)
}

func stateString(nud int) string {
	states := make([]string, 0)
	if nud&netlink.NUD_INCOMPLETE != 0 {
		states = append(states, "INCOMPLETE")
	}
	if nud&netlink.NUD_REACHABLE != 0 {
		states = append(states, "REACHABLE")
	}
	if nud&netlink.NUD_STALE != 0 {
		states = append(states, "STALE")
	}
	if nud&netlink.NUD_DELAY != 0 {
		states = append(states, "DELAY")
	}
	if nud&netlink.NUD_PROBE != 0 {
		states = append(states, "PROBE")
	}
	if nud&netlink.NUD_FAILED != 0 {
		states = append(states, "FAILED")
	}
	if len(states) == 0 {
		return "NONE"
	}
	return strings.Join(states, "|")
}
