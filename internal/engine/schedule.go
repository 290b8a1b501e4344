package engine

import (
	"math"
	"math/rand"
)

// Schedule produces a device-private sequence of wake times: a first wake
// plus an unbounded stream of strictly positive inter-wake intervals. The
// sequence is private to each device; no two devices are required to agree
// on timing. Implementations draw from the rng passed in, which the network
// derives per device from the scenario seed.
type Schedule interface {
	// First returns the device's first wake time.
	First(rng *rand.Rand) Time

	// Interval returns the delay until the next wake after a round.
	// Must be strictly positive so wake sequences are strictly
	// increasing.
	Interval(rng *rand.Rand) Time
}

// WeibullSchedule is the default round schedule: first wake uniform in
// [0,1), each subsequent interval drawn independently from a Weibull
// distribution with the configured mean and standard deviation. This models
// jittered, non-periodic sensing without any global synchronization.
type WeibullSchedule struct {
	mean  float64
	dev   float64
	shape float64
	scale float64
}

// NewWeibullSchedule validates the parameters and solves the Weibull shape
// and scale by moment matching on the coefficient of variation.
func NewWeibullSchedule(mean, dev float64) (*WeibullSchedule, error) {
	if mean <= 0 {
		return nil, ErrNonPositiveMean
	}
	if dev <= 0 {
		return nil, ErrNonPositiveDev
	}
	shape := weibullShape(dev / mean)
	scale := mean / math.Gamma(1+1/shape)
	return &WeibullSchedule{mean: mean, dev: dev, shape: shape, scale: scale}, nil
}

// Mean returns the configured mean interval.
func (w *WeibullSchedule) Mean() float64 { return w.mean }

// Dev returns the configured interval deviation.
func (w *WeibullSchedule) Dev() float64 { return w.dev }

// First returns a wake time uniform in [0,1).
func (w *WeibullSchedule) First(rng *rand.Rand) Time {
	return Time(rng.Float64())
}

// Interval draws one Weibull-distributed inter-wake interval by inverse
// transform sampling.
func (w *WeibullSchedule) Interval(rng *rand.Rand) Time {
	u := rng.Float64()
	// -Log1p(-u) is -ln(1-u) without cancellation near u = 0, and u < 1
	// keeps the result finite and positive.
	return Time(w.scale * math.Pow(-math.Log1p(-u), 1/w.shape))
}

// weibullShape solves for the shape k whose coefficient of variation
// matches cv. The cv of a Weibull distribution is strictly decreasing in k,
// so a bisection converges.
func weibullShape(cv float64) float64 {
	lo, hi := 1e-2, 1e3
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if weibullCV(mid) > cv {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// weibullCV returns the coefficient of variation of a Weibull distribution
// with shape k (independent of scale).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1 + 1/k)
	g2 := math.Gamma(1 + 2/k)
	variance := g2 - g1*g1
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) / g1
}
