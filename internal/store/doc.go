// Package store persists simulation results.
//
// The engine itself keeps no state across process restarts; this store
// only records what the logging collaborator samples during a run: the run
// record and the network-wide mean of the consistency monitor at a fixed
// sampling period. Fractional quantities are stored as integer milli-units
// so rows order and compare exactly.
//
// Writes are idempotent (ON CONFLICT DO NOTHING), so re-delivering a
// sample is harmless. Reads use deterministic ordering.
package store
