// Package monitor implements the consistency monitor program: once part of
// a network group becomes alerted, the alert must propagate to the whole
// group before it is retracted, and no new alarms may start after universal
// alert.
//
// The monitor is a composition of past-time temporal operators over a
// device-local cluster predicate; each device computes its own verdict
// every round from information exchanged only with devices in radio range.
package monitor

import (
	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/temporal"
)

// Storage tags written (and read) by the monitor program. The display slots
// and the verdict are the surface exposed to the rendering and logging
// collaborators; speed and offset are written by the movement subsystem.
const (
	TagSpeed       = "speed"
	TagOffset      = "offset"
	TagWarning     = "warning"
	TagCluster     = "cluster"
	TagConsistency = "consistency"
	TagSize        = "node_size"
	TagColor       = "node_color"
	TagShape       = "node_shape"
)

// Display slot values.
const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ShapeStar   = "star"
	ShapeSphere = "sphere"
)

// Defaults mirror the reference deployment: a warning fires when more than
// 5 devices are within a quarter of the communication range, a cluster when
// at least 3 visible devices (self included) are on warning, and groups are
// carved out of the id space in blocks of 100.
const (
	DefaultWarningNeighbors = 5
	DefaultClusterWarnings  = 3
	DefaultMaxGroupSize     = 100
)

// Config parameterizes the monitor program.
type Config struct {
	// CommunicationRange is the network's radio range, used to derive the
	// default warning distance.
	CommunicationRange float64

	// WarningDistance is the radius of the density check. Defaults to a
	// quarter of the communication range.
	WarningDistance float64

	// WarningNeighbors is the density threshold: warning holds when more
	// than this many visible devices (self included) are within
	// WarningDistance.
	WarningNeighbors int

	// ClusterWarnings is the cluster threshold: cluster holds when at
	// least this many visible devices (self included) share warning.
	ClusterWarnings int

	// MaxGroupSize carves the partition key out of the device id:
	// key = uid / MaxGroupSize. Monitor state is fully independent
	// between keys.
	MaxGroupSize uint32
}

func (c Config) withDefaults() Config {
	if c.WarningDistance <= 0 {
		c.WarningDistance = 0.25 * c.CommunicationRange
	}
	if c.WarningNeighbors <= 0 {
		c.WarningNeighbors = DefaultWarningNeighbors
	}
	if c.ClusterWarnings <= 0 {
		c.ClusterWarnings = DefaultClusterWarnings
	}
	if c.MaxGroupSize == 0 {
		c.MaxGroupSize = DefaultMaxGroupSize
	}
	return c
}

// Sites holds the recurrence sites of one consistency-monitor instance.
// Separating the sites from the surrounding program lets the conformance
// harness drive the monitor with scripted cluster histories instead of the
// live density predicates.
type Sites struct {
	yesterdayNotCluster engine.Site[bool]
	yesterdayCluster    engine.Site[bool]
	allAlerted          engine.Site[bool]
	noNewAlarms         engine.Site[bool]
}

// NewSites allocates the monitor's recurrence sites on a program.
func NewSites(p *engine.Program) *Sites {
	return &Sites{
		yesterdayNotCluster: engine.NewSite[bool](p, "monitor.yesterday_not_cluster"),
		yesterdayCluster:    engine.NewSite[bool](p, "monitor.yesterday_cluster"),
		allAlerted:          engine.NewSite[bool](p, "monitor.all_alerted"),
		noNewAlarms:         engine.NewSite[bool](p, "monitor.no_new_alarms"),
	}
}

// Verdict is the monitor's per-round output for one device.
type Verdict struct {
	AlertStart  bool // true only on the exact round an alert begins
	AlertEnd    bool // true only on the exact round an alert ends
	AllAlerted  bool // cluster has held every round since the device's start
	NoNewAlarms bool // no alert started since a moment of universal alert
	Result      bool // alert_end implies no_new_alarms
}

// Evaluate runs the consistency monitor for the current round under the
// given partition key. Keys partition all temporal state: a device that
// changes group starts a fresh history under the new key.
//
// Result is recomputed every round from the operators' state and carries no
// memory of its own; implication is the plain !a || b.
func (s *Sites) Evaluate(ctx *engine.Context, key uint32, cluster bool) Verdict {
	return engine.WithPartition(ctx, key, func() Verdict {
		alertStart := temporal.Yesterday(ctx, s.yesterdayNotCluster, !cluster) && cluster
		alertEnd := temporal.Yesterday(ctx, s.yesterdayCluster, cluster) && !cluster
		allAlerted := temporal.Historically(ctx, s.allAlerted, cluster)
		noNewAlarms := temporal.Since(ctx, s.noNewAlarms, !alertStart, allAlerted)
		return Verdict{
			AlertStart:  alertStart,
			AlertEnd:    alertEnd,
			AllAlerted:  allAlerted,
			NoNewAlarms: noNewAlarms,
			Result:      !alertEnd || noNewAlarms,
		}
	})
}

// Program is the full per-round device program: density predicates from the
// hood, the consistency monitor, and the display slots.
type Program struct {
	cfg     Config
	prog    *engine.Program
	warning engine.Field[bool]
	sites   *Sites
}

// NewProgram builds the monitor program with the given configuration.
func NewProgram(cfg Config) *Program {
	cfg = cfg.withDefaults()
	p := engine.NewProgram("consistency-monitor")
	m := &Program{
		cfg:     cfg,
		prog:    p,
		warning: engine.NewField[bool](p, "warning"),
		sites:   NewSites(p),
	}
	p.Define(m.round)
	return m
}

// Engine returns the underlying engine program, ready to hand to a network.
func (m *Program) Engine() *engine.Program { return m.prog }

func (m *Program) round(ctx *engine.Context) {
	// warning: dense local neighborhood. The distance hood includes self
	// at distance 0, matching the "more than N within D" count.
	dists := engine.DistHood(ctx)
	near := engine.CountHood(dists, func(d float64) bool {
		return d < m.cfg.WarningDistance
	})
	warning := near > m.cfg.WarningNeighbors

	// cluster: enough visible devices also on warning.
	hood := engine.Share(ctx, m.warning, warning)
	onWarning := engine.CountHood(hood, func(w bool) bool { return w })
	cluster := onWarning >= m.cfg.ClusterWarnings

	v := m.sites.Evaluate(ctx, uint32(ctx.Self())/m.cfg.MaxGroupSize, cluster)

	st := ctx.Storage()
	st.Set(TagWarning, warning)
	st.Set(TagCluster, cluster)
	st.Set(TagConsistency, v.Result)
	if cluster {
		st.Set(TagSize, 20.0)
	} else {
		st.Set(TagSize, 10.0)
	}
	if v.Result {
		st.Set(TagColor, ColorGreen)
	} else {
		st.Set(TagColor, ColorRed)
	}
	if warning {
		st.Set(TagShape, ShapeStar)
	} else {
		st.Set(TagShape, ShapeSphere)
	}
}
