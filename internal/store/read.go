package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("no runs recorded")

// ReadRuns returns all run records, newest token first. UUIDv7 tokens sort
// by creation time, so token order is creation order.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, scenario, seed, devices, started_at
		FROM runs
		ORDER BY token DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Token, &r.Scenario, &r.Seed, &r.Devices, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently created run record.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT token, scenario, seed, devices, started_at
		FROM runs
		ORDER BY token DESC
		LIMIT 1
	`).Scan(&r.Token, &r.Scenario, &r.Seed, &r.Devices, &r.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest run: %w", err)
	}
	return r, nil
}

// ReadSamples returns the sampled time series of a run in ascending time
// order. Returns an empty slice (not nil) when the run has no samples.
func (s *Store) ReadSamples(ctx context.Context, runToken string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, at_millis, mean_millis, devices, alerted
		FROM samples
		WHERE run_token = ?
		ORDER BY at_millis ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.RunToken, &sm.AtMillis, &sm.MeanMillis, &sm.Devices, &sm.Alerted); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}
