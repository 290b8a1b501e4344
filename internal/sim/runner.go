package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/mobility"
	"github.com/roach88/fieldwatch/internal/monitor"
	"github.com/roach88/fieldwatch/internal/store"
	"github.com/roach88/fieldwatch/internal/trace"
)

// Runner executes one scenario end to end: it spawns the device groups,
// installs the group walker and the sampling observer, runs the network to
// the scenario duration, and records the sampled time series.
type Runner struct {
	scenario *Scenario
	store    *store.Store
	tokens   engine.RunTokenGenerator
	now      func() time.Time
}

// RunnerOption configures optional runner collaborators.
type RunnerOption func(*Runner)

// WithStore installs a results store. Without one the run still executes
// and produces a summary; only persistence is skipped.
func WithStore(st *store.Store) RunnerOption {
	return func(r *Runner) { r.store = st }
}

// WithTokenGenerator overrides the run token source. Tests use a fixed
// generator for deterministic run records.
func WithTokenGenerator(g engine.RunTokenGenerator) RunnerOption {
	return func(r *Runner) { r.tokens = g }
}

// WithClock overrides the wall-clock source stamped into run records.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner for a validated scenario.
func NewRunner(sc *Scenario, opts ...RunnerOption) *Runner {
	r := &Runner{
		scenario: sc,
		tokens:   engine.UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary is the outcome of one completed run.
type Summary struct {
	RunToken  string
	Scenario  string
	Seed      int64
	Devices   int
	Duration  float64
	FinalMean float64 // network-wide mean consistency at the last sample
	Alerted   int     // devices in cluster alert at the last sample
	Samples   int
}

// Run executes the scenario until its duration elapses or the context is
// cancelled. Persistence failures during sampling are logged and skipped so
// a broken disk cannot abort a long simulation.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sc := r.scenario
	token := r.tokens.Generate()

	schedule, err := engine.NewWeibullSchedule(sc.Schedule.Mean, sc.Schedule.Dev)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	program := monitor.NewProgram(monitor.Config{
		CommunicationRange: sc.CommunicationRange,
		WarningDistance:    sc.Monitor.WarningDistance,
		WarningNeighbors:   sc.Monitor.WarningNeighbors,
		ClusterWarnings:    sc.Monitor.ClusterWarnings,
		MaxGroupSize:       sc.Monitor.MaxGroupSize,
	})

	// The walker resolves leader positions through the network, which does
	// not exist yet when the walker is built; bind it late.
	var net *engine.Network
	walker := mobility.New(mobility.Config{
		Arena:     mobility.Arena{Width: sc.Area.Width, Height: sc.Area.Height},
		GroupSize: sc.Monitor.MaxGroupSize,
		Seed:      sc.Seed,
	}, func(id engine.DeviceID) (engine.Position, bool) {
		return net.PositionOf(id)
	})

	summary := &Summary{
		RunToken: token,
		Scenario: sc.Name,
		Seed:     sc.Seed,
		Devices:  sc.DeviceCount(),
		Duration: sc.Duration,
	}
	sampler := func(now engine.Time, devices []*engine.Device) {
		sample := sampleDevices(now, devices)
		sample.RunToken = token
		summary.Samples++
		summary.Alerted = sample.Alerted
		summary.FinalMean = float64(sample.MeanMillis) / 1000

		if r.store == nil {
			return
		}
		if err := r.store.WriteSample(ctx, sample); err != nil {
			slog.Warn("sample not persisted",
				"run", token,
				"at", float64(now),
				"error", err,
			)
		}
	}

	net, err = engine.New(engine.Config{
		CommunicationRange: sc.CommunicationRange,
		Retention: engine.Retention{
			MaxAge: engine.Time(sc.Retention.MaxAge),
			Sweep:  engine.Time(sc.Retention.Sweep),
		},
		Schedule: schedule,
		Seed:     sc.Seed,
	},
		program.Engine(),
		engine.WithMover(walker),
		engine.WithObserver(engine.Time(sc.SamplePeriod), sampler),
	)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	if err := r.spawn(net); err != nil {
		return nil, fmt.Errorf("spawn devices: %w", err)
	}

	// The run record must exist before the first sample row references it.
	if r.store != nil {
		err := r.store.WriteRun(ctx, store.Run{
			Token:     token,
			Scenario:  sc.Name,
			Seed:      sc.Seed,
			Devices:   summary.Devices,
			StartedAt: r.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	slog.Info("run starting",
		"run", token,
		"scenario", sc.Name,
		"seed", sc.Seed,
		"devices", summary.Devices,
		"duration", sc.Duration,
	)
	if err := net.Run(ctx, engine.Time(sc.Duration)); err != nil {
		return nil, fmt.Errorf("run network: %w", err)
	}
	slog.Info("run complete",
		"run", token,
		"samples", summary.Samples,
		"final_mean", summary.FinalMean,
	)
	return summary, nil
}

// spawn registers the scenario's device groups. Each group's leader starts
// at a random point of the arena and the members scatter around it within
// the group radius; the walker takes over from the first round on.
func (r *Runner) spawn(net *engine.Network) error {
	sc := r.scenario
	rng := rand.New(rand.NewSource(sc.Seed))

	for _, g := range sc.Groups {
		center := engine.Position{
			X: rng.Float64() * sc.Area.Width,
			Y: rng.Float64() * sc.Area.Height,
		}
		base := engine.DeviceID(g.ID * sc.Monitor.MaxGroupSize)
		for i := 0; i < g.Count; i++ {
			pos := center
			if i > 0 {
				pos = engine.Position{
					X: clamp(center.X+(rng.Float64()*2-1)*g.Radius, 0, sc.Area.Width),
					Y: clamp(center.Y+(rng.Float64()*2-1)*g.Radius, 0, sc.Area.Height),
				}
			}
			st := engine.Storage{
				mobility.TagSpeed:  g.Speed,
				mobility.TagOffset: g.Radius,
			}
			if err := net.AddDevice(base+engine.DeviceID(i), pos, st); err != nil {
				return fmt.Errorf("device %d: %w", base+engine.DeviceID(i), err)
			}
		}
	}
	return nil
}

// sampleDevices folds the per-device monitor outputs into one time-series
// row. Devices that have not completed a round yet do not exist from the
// network's point of view and are excluded.
func sampleDevices(now engine.Time, devices []*engine.Device) store.Sample {
	active, alerted, satisfied := 0, 0, 0
	for _, d := range devices {
		if d.Rounds() == 0 {
			continue
		}
		active++
		st := d.Storage()
		if st.Bool(monitor.TagCluster, false) {
			alerted++
		}
		if st.Bool(monitor.TagConsistency, false) {
			satisfied++
		}
	}

	mean := 0.0
	if active > 0 {
		mean = float64(satisfied) / float64(active)
	}
	return store.Sample{
		AtMillis:   trace.Millis(float64(now)),
		MeanMillis: trace.Millis(mean),
		Devices:    active,
		Alerted:    alerted,
	}
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
