package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: scripted cluster histories
// per device plus assertions on the resulting verdict trace.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Devices lists the scripted devices. All histories must have the same
	// length; that length is the number of rounds the scenario runs.
	Devices []DeviceScript `yaml:"devices"`

	// Assertions validate the verdict trace.
	Assertions []Assertion `yaml:"assertions"`
}

// DeviceScript scripts one device.
type DeviceScript struct {
	// ID is the device id.
	ID uint32 `yaml:"id"`

	// History is the cluster predicate per round, starting at round 1.
	History []bool `yaml:"history"`

	// Groups optionally scripts the partition key per round. When present
	// it must have the same length as History; when absent every round
	// runs under key 0. Changing the key mid-history exercises the state
	// isolation between partitions.
	Groups []uint32 `yaml:"groups,omitempty"`
}

// Assertion validates one fact about the verdict trace.
type Assertion struct {
	// Type is "verdict_at" (one field of one device's verdict at one
	// round) or "final" (one field of a device's last verdict).
	Type string `yaml:"type"`

	// Device is the asserted device id.
	Device uint32 `yaml:"device"`

	// Round is the asserted round, 1-based. Used by verdict_at.
	Round int `yaml:"round,omitempty"`

	// Field names the verdict component: cluster, alert_start, alert_end,
	// all_alerted, no_new_alarms or result.
	Field string `yaml:"field"`

	// Value is the expected boolean.
	Value bool `yaml:"value"`
}

// Assertion type constants.
const (
	AssertVerdictAt = "verdict_at"
	AssertFinal     = "final"
)

// Verdict field names accepted by assertions.
const (
	FieldCluster     = "cluster"
	FieldAlertStart  = "alert_start"
	FieldAlertEnd    = "alert_end"
	FieldAllAlerted  = "all_alerted"
	FieldNoNewAlarms = "no_new_alarms"
	FieldResult      = "result"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected (catches typos like "assertion:" vs "assertions:").
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Devices) == 0 {
		return fmt.Errorf("devices list is required and must be non-empty")
	}

	rounds := len(s.Devices[0].History)
	seen := make(map[uint32]bool, len(s.Devices))
	for i, d := range s.Devices {
		if seen[d.ID] {
			return fmt.Errorf("devices[%d]: duplicate device id %d", i, d.ID)
		}
		seen[d.ID] = true
		if len(d.History) == 0 {
			return fmt.Errorf("devices[%d]: history is required and must be non-empty", i)
		}
		if len(d.History) != rounds {
			return fmt.Errorf("devices[%d]: history length %d differs from %d; all histories must match", i, len(d.History), rounds)
		}
		if len(d.Groups) != 0 && len(d.Groups) != rounds {
			return fmt.Errorf("devices[%d]: groups length %d differs from history length %d", i, len(d.Groups), rounds)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, seen, rounds); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, devices map[uint32]bool, rounds int) error {
	switch a.Type {
	case AssertVerdictAt:
		if a.Round < 1 || a.Round > rounds {
			return fmt.Errorf("assertions[%d]: round %d out of range 1..%d", index, a.Round, rounds)
		}
	case AssertFinal:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if !devices[a.Device] {
		return fmt.Errorf("assertions[%d]: unknown device %d", index, a.Device)
	}

	switch a.Field {
	case FieldCluster, FieldAlertStart, FieldAlertEnd, FieldAllAlerted, FieldNoNewAlarms, FieldResult:
	case "":
		return fmt.Errorf("assertions[%d]: field is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown verdict field %q", index, a.Field)
	}
	return nil
}

// Rounds returns the scenario's round count.
func (s *Scenario) Rounds() int {
	if len(s.Devices) == 0 {
		return 0
	}
	return len(s.Devices[0].History)
}
