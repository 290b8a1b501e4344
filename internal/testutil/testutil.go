// Package testutil provides deterministic test doubles shared across the
// package tests: fixed schedules that replace the Weibull wake distribution
// so tests can reason about exact round times.
package testutil

import (
	"math/rand"

	"github.com/roach88/fieldwatch/internal/engine"
)

// UnitSchedule wakes every device at time 0 and then once per second. With
// all devices on the same cadence, round k of every device happens at
// simulated time k.
type UnitSchedule struct{}

func (UnitSchedule) First(*rand.Rand) engine.Time    { return 0 }
func (UnitSchedule) Interval(*rand.Rand) engine.Time { return 1 }

// FixedSchedule wakes devices at a configurable first time and interval.
type FixedSchedule struct {
	Start engine.Time
	Every engine.Time
}

func (s FixedSchedule) First(*rand.Rand) engine.Time    { return s.Start }
func (s FixedSchedule) Interval(*rand.Rand) engine.Time { return s.Every }

// StaggeredSchedule offsets each device's first wake by a fixed amount per
// draw, so devices round-robin in a stable order. The first call to First
// returns Base, the second Base+Step, and so on.
type StaggeredSchedule struct {
	Base  engine.Time
	Step  engine.Time
	Every engine.Time

	calls int
}

func (s *StaggeredSchedule) First(*rand.Rand) engine.Time {
	t := s.Base + engine.Time(s.calls)*s.Step
	s.calls++
	return t
}

func (s *StaggeredSchedule) Interval(*rand.Rand) engine.Time { return s.Every }
