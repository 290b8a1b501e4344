package store

import (
	"context"
	"fmt"
)

// Run is one simulation run record.
type Run struct {
	Token     string
	Scenario  string
	Seed      int64
	Devices   int
	StartedAt string // RFC 3339
}

// Sample is one row of the sampled monitor time series.
type Sample struct {
	RunToken   string
	AtMillis   int64 // simulated time, milliseconds
	MeanMillis int64 // network-wide mean consistency, milli-units (0..1000)
	Devices    int   // devices with at least one completed round
	Alerted    int   // devices currently in cluster alert
}

// WriteRun inserts a run record. Duplicate tokens are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, seed, devices, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Scenario,
		run.Seed,
		run.Devices,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSample inserts one time-series row. A duplicate (run, time) pair is
// silently ignored. The run referenced by RunToken must exist.
func (s *Store) WriteSample(ctx context.Context, sample Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (run_token, at_millis, mean_millis, devices, alerted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_token, at_millis) DO NOTHING
	`,
		sample.RunToken,
		sample.AtMillis,
		sample.MeanMillis,
		sample.Devices,
		sample.Alerted,
	)
	if err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}
