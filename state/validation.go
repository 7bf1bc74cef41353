package state

import (
	"fmt"
	"net/netip"
	"regexp"
	"slices"
)

var namePattern, _ = regexp.Compile("^[0-9A-Za-z._:%-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func BindValidator(s string) error {
	_, err := netip.ParseAddrPort(s)
	return err
}

func TransportValidator(t *TransportCfg) error {
	switch t.Type {
	case TransportSim:
		if t.Loss < 0 || t.Loss > 1 {
			return fmt.Errorf("transport.loss must be within [0, 1], got %v", t.Loss)
		}
		if t.Delay < 0 {
			return fmt.Errorf("transport.delay must not be negative")
		}
		for _, r := range t.Responders {
			if err := NameValidator(string(r)); err != nil {
				return err
			}
		}
	case TransportICMP, TransportARP:
		if t.Timeout <= 0 {
			return fmt.Errorf("transport.timeout must be positive")
		}
	default:
		return fmt.Errorf("unknown transport type %q", t.Type)
	}
	return nil
}

func NodeConfigValidator(node *NodeCfg) error {
	err := NameValidator(string(node.Id))
	if err != nil {
		return err
	}
	for i, n := range node.Neighbours {
		if err := NameValidator(string(n)); err != nil {
			return err
		}
		if n == node.Id {
			return fmt.Errorf("node %s cannot be its own neighbour", n)
		}
		if slices.Contains(node.Neighbours[:i], n) {
			return fmt.Errorf("duplicate neighbour found: %s", n)
		}
	}
	if node.ProbeInterval <= 0 || node.NeighbourTimeout <= 0 || node.ResendDelay <= 0 {
		return fmt.Errorf("probe_interval, neighbour_timeout and resend_delay must be positive")
	}
	if node.ProbeJitter < 0 {
		return fmt.Errorf("probe_jitter must not be negative")
	}
	if node.MaxTxCost < 1 {
		return fmt.Errorf("max_tx_cost must be at least 1, got %d", node.MaxTxCost)
	}
	if node.Smoothing <= 0 || node.Smoothing > 1 {
		return fmt.Errorf("smoothing must be within (0, 1], got %v", node.Smoothing)
	}
	switch node.Exhaustion {
	case ExhaustNone, ExhaustEvict, ExhaustReset:
	default:
		return fmt.Errorf("unknown exhaustion policy %q", node.Exhaustion)
	}
	if node.DiagBind != "" {
		if err := BindValidator(node.DiagBind); err != nil {
			return fmt.Errorf("diag_bind is invalid: %w", err)
		}
	}
	switch node.Discovery.Type {
	case "", DiscoveryNetlink:
	default:
		return fmt.Errorf("unknown discovery type %q", node.Discovery.Type)
	}
	return TransportValidator(&node.Transport)
}
