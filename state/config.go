package state

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// ExhaustionPolicy decides what happens to a neighbour whose probe retries hit MaxTxCost
type ExhaustionPolicy string

const (
	// ExhaustNone leaves the neighbour at the ceiling. It is no longer probed until an ack arrives.
	ExhaustNone ExhaustionPolicy = "none"
	// ExhaustEvict evicts the neighbour as soon as the ceiling is reached.
	ExhaustEvict ExhaustionPolicy = "evict"
	// ExhaustReset resets TxCost so that the scheduler probes the neighbour again on its next turn.
	ExhaustReset ExhaustionPolicy = "reset"
)

const (
	TransportSim  = "sim"
	TransportICMP = "icmp"
	TransportARP  = "arp"
)

const (
	DiscoveryNetlink = "netlink"
)

// DiscoveryCfg configures how neighbours are learned at runtime, on top of the static list
type DiscoveryCfg struct {
	Type      string `yaml:"type,omitempty"`      // empty disables discovery
	Interface string `yaml:"interface,omitempty"` // only learn neighbours on this link, empty means all links
}

type TransportCfg struct {
	Type       string        `yaml:"type"`
	Loss       float64       `yaml:"loss,omitempty"`       // sim: probability that a probe is dropped
	Delay      time.Duration `yaml:"delay,omitempty"`      // sim: one-way ack delay
	Responders []NodeId      `yaml:"responders,omitempty"` // sim: if set, only these neighbours answer
	Bind4      string        `yaml:"bind4,omitempty"`      // icmp: local ipv4 bind address
	Bind6      string        `yaml:"bind6,omitempty"`      // icmp: local ipv6 bind address
	Interface  string        `yaml:"interface,omitempty"`  // arp: interface to send requests on
	Timeout    time.Duration `yaml:"timeout,omitempty"`    // icmp/arp: reply timeout
}

// NodeCfg represents local node-level configuration
type NodeCfg struct {
	Id               NodeId           `yaml:"id"`
	Neighbours       []NodeId         `yaml:"neighbours,omitempty"` // neighbours known at startup
	ProbeInterval    time.Duration    `yaml:"probe_interval,omitempty"`
	ProbeJitter      time.Duration    `yaml:"probe_jitter,omitempty"`
	NeighbourTimeout time.Duration    `yaml:"neighbour_timeout,omitempty"`
	ResendDelay      time.Duration    `yaml:"resend_delay,omitempty"`
	MaxTxCost        int              `yaml:"max_tx_cost,omitempty"`
	Smoothing        float64          `yaml:"smoothing,omitempty"`
	Exhaustion       ExhaustionPolicy `yaml:"exhaustion,omitempty"`
	LogPath          string           `yaml:"log_path,omitempty"`  // if not empty, rankd will also write logs to this file
	DiagBind         string           `yaml:"diag_bind,omitempty"` // diagnostics http listener, empty disables it
	Transport        TransportCfg     `yaml:"transport"`
	Discovery        DiscoveryCfg     `yaml:"discovery,omitempty"`
}

func DefaultNodeCfg(id NodeId) NodeCfg {
	cfg := NodeCfg{
		Id:       id,
		DiagBind: DefaultDiagBind,
		Transport: TransportCfg{
			Type: TransportSim,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset tunable from the package defaults
func (c *NodeCfg) ApplyDefaults() {
	if c.ProbeInterval == 0 {
		c.ProbeInterval = ProbeInterval
	}
	if c.ProbeJitter == 0 {
		c.ProbeJitter = ProbeJitter
	}
	if c.NeighbourTimeout == 0 {
		c.NeighbourTimeout = NeighbourTimeout
	}
	if c.ResendDelay == 0 {
		c.ResendDelay = ResendDelay
	}
	if c.MaxTxCost == 0 {
		c.MaxTxCost = MaxTxCost
	}
	if c.Smoothing == 0 {
		c.Smoothing = Smoothing
	}
	if c.Exhaustion == "" {
		c.Exhaustion = ExhaustNone
	}
	if c.Transport.Type == "" {
		c.Transport.Type = TransportSim
	}
	if c.Transport.Type != TransportSim && c.Transport.Timeout == 0 {
		c.Transport.Timeout = PingTimeout
	}
}

func ReadNodeConfig(path string) (*NodeCfg, error) {
	var cfg NodeCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func WriteNodeConfig(path string, cfg NodeCfg) error {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0600)
}
