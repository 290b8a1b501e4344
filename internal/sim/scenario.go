// Package sim wires a scenario configuration into a runnable network:
// device spawning, group mobility, the monitor program, and the sampling
// of the network-wide mean consistency into the results store.
package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the reference deployment.
const (
	DefaultAreaWidth          = 1200.0
	DefaultAreaHeight         = 800.0
	DefaultCommunicationRange = 100.0
	DefaultRetentionMaxAge    = 3.0
	DefaultRetentionSweep     = 1.0
	DefaultScheduleMean       = 1.0
	DefaultScheduleDev        = 0.1
	DefaultSamplePeriod       = 1.0
	DefaultMaxGroupSize       = 100
)

// Scenario is the YAML configuration of one simulation.
type Scenario struct {
	// Name identifies the scenario in run records.
	Name string `yaml:"name"`

	// Seed derives every random stream of the run. The same seed
	// reproduces the same simulation.
	Seed int64 `yaml:"seed"`

	// Duration is the simulated run length in seconds.
	Duration float64 `yaml:"duration"`

	// Area is the rectangular arena devices move in.
	Area AreaConfig `yaml:"area,omitempty"`

	// CommunicationRange is the fixed radio range.
	CommunicationRange float64 `yaml:"communication_range,omitempty"`

	// Retention bounds the lifetime of received exports.
	Retention RetentionConfig `yaml:"retention,omitempty"`

	// Schedule parameterizes the Weibull round schedule.
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`

	// SamplePeriod is the fixed period of the network-wide sampling.
	SamplePeriod float64 `yaml:"sample_period,omitempty"`

	// Monitor overrides the monitor thresholds.
	Monitor MonitorConfig `yaml:"monitor,omitempty"`

	// Groups is the spawn table: one entry per device group.
	Groups []GroupConfig `yaml:"groups"`
}

// AreaConfig is the arena size.
type AreaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// RetentionConfig is the export expiry window.
type RetentionConfig struct {
	MaxAge float64 `yaml:"max_age"`
	Sweep  float64 `yaml:"sweep"`
}

// ScheduleConfig is the wake interval distribution.
type ScheduleConfig struct {
	Mean float64 `yaml:"mean"`
	Dev  float64 `yaml:"dev"`
}

// MonitorConfig is the monitor thresholds; zero values take defaults.
type MonitorConfig struct {
	WarningDistance  float64 `yaml:"warning_distance,omitempty"`
	WarningNeighbors int     `yaml:"warning_neighbors,omitempty"`
	ClusterWarnings  int     `yaml:"cluster_warnings,omitempty"`
	MaxGroupSize     uint32  `yaml:"max_group_size,omitempty"`
}

// GroupConfig is one spawn group: Count devices sharing a speed and a
// spread radius, with ids carved out of block id*MaxGroupSize.
type GroupConfig struct {
	ID     uint32  `yaml:"id"`
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly; defaults are applied and the result is
// validated.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// ApplyDefaults fills zero-valued optional fields with the reference
// deployment defaults.
func (s *Scenario) ApplyDefaults() {
	if s.Area.Width == 0 && s.Area.Height == 0 {
		s.Area = AreaConfig{Width: DefaultAreaWidth, Height: DefaultAreaHeight}
	}
	if s.CommunicationRange == 0 {
		s.CommunicationRange = DefaultCommunicationRange
	}
	if s.Retention.MaxAge == 0 && s.Retention.Sweep == 0 {
		s.Retention = RetentionConfig{MaxAge: DefaultRetentionMaxAge, Sweep: DefaultRetentionSweep}
	}
	if s.Schedule.Mean == 0 && s.Schedule.Dev == 0 {
		s.Schedule = ScheduleConfig{Mean: DefaultScheduleMean, Dev: DefaultScheduleDev}
	}
	if s.SamplePeriod == 0 {
		s.SamplePeriod = DefaultSamplePeriod
	}
	if s.Monitor.MaxGroupSize == 0 {
		s.Monitor.MaxGroupSize = DefaultMaxGroupSize
	}
}

// Validate rejects malformed scenarios before any round executes.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if s.Area.Width <= 0 || s.Area.Height <= 0 {
		return fmt.Errorf("area dimensions must be positive")
	}
	if s.CommunicationRange <= 0 {
		return fmt.Errorf("communication_range must be positive")
	}
	if s.Retention.MaxAge <= 0 {
		return fmt.Errorf("retention.max_age must be positive")
	}
	if s.Retention.Sweep <= 0 {
		return fmt.Errorf("retention.sweep must be positive")
	}
	if s.Retention.Sweep > s.Retention.MaxAge {
		return fmt.Errorf("retention.sweep must not exceed retention.max_age")
	}
	if s.Schedule.Mean <= 0 {
		return fmt.Errorf("schedule.mean must be positive")
	}
	if s.Schedule.Dev <= 0 {
		return fmt.Errorf("schedule.dev must be positive")
	}
	if s.SamplePeriod <= 0 {
		return fmt.Errorf("sample_period must be positive")
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("groups list is required and must be non-empty")
	}

	seen := make(map[uint32]bool, len(s.Groups))
	for i, g := range s.Groups {
		if seen[g.ID] {
			return fmt.Errorf("groups[%d]: duplicate group id %d", i, g.ID)
		}
		seen[g.ID] = true
		if g.Count <= 0 {
			return fmt.Errorf("groups[%d]: count must be positive", i)
		}
		if g.Count > int(s.Monitor.MaxGroupSize) {
			return fmt.Errorf("groups[%d]: count %d exceeds max group size %d", i, g.Count, s.Monitor.MaxGroupSize)
		}
		if g.Speed <= 0 {
			return fmt.Errorf("groups[%d]: speed must be positive", i)
		}
		if g.Radius < 0 {
			return fmt.Errorf("groups[%d]: radius must not be negative", i)
		}
	}
	return nil
}

// DeviceCount returns the total number of devices the scenario spawns.
func (s *Scenario) DeviceCount() int {
	n := 0
	for _, g := range s.Groups {
		n += g.Count
	}
	return n
}
