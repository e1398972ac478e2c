// Package datasets provides small synthetic datasets for examples and tests.
package datasets

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gpgo/pkg/errors"
)

// SeasonalTrendConfig describes a one-dimensional time series with a smooth
// trend, a yearly seasonal cycle and observation noise. The defaults give an
// atmospheric-CO2-like series: monthly samples around a 315 ppm baseline
// rising roughly 1.5 ppm per year with a seasonal swing of a few ppm.
type SeasonalTrendConfig struct {
	N         int     // number of samples
	Start     float64 // first time value, in years
	Step      float64 // spacing between samples, in years
	Baseline  float64
	Trend     float64 // linear growth per year
	Quadratic float64 // quadratic growth per year²
	Amplitude float64 // seasonal amplitude
	Period    float64 // seasonal period, in years
	NoiseStd  float64
	Seed      int64
}

// DefaultSeasonalTrendConfig returns the CO2-like defaults with n monthly
// samples.
func DefaultSeasonalTrendConfig(n int) SeasonalTrendConfig {
	return SeasonalTrendConfig{
		N:         n,
		Start:     0,
		Step:      1.0 / 12.0,
		Baseline:  315.0,
		Trend:     1.5,
		Quadratic: 0.01,
		Amplitude: 3.0,
		Period:    1.0,
		NoiseStd:  0.2,
		Seed:      1,
	}
}

// SeasonalTrend generates the series described by cfg. X is n×1 (time in
// years), y is n×1. The same config always yields the same data.
func SeasonalTrend(cfg SeasonalTrendConfig) (*mat.Dense, *mat.Dense, error) {
	if cfg.N <= 0 {
		return nil, nil, errors.NewValidationError("N", "must be positive", cfg.N)
	}
	if cfg.Step <= 0 {
		return nil, nil, errors.NewValidationError("Step", "must be positive", cfg.Step)
	}
	if cfg.Period <= 0 {
		return nil, nil, errors.NewValidationError("Period", "must be positive", cfg.Period)
	}
	if cfg.NoiseStd < 0 {
		return nil, nil, errors.NewValidationError("NoiseStd", "must be non-negative", cfg.NoiseStd)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	X := mat.NewDense(cfg.N, 1, nil)
	y := mat.NewDense(cfg.N, 1, nil)
	for i := 0; i < cfg.N; i++ {
		t := cfg.Start + float64(i)*cfg.Step
		v := cfg.Baseline + cfg.Trend*t + cfg.Quadratic*t*t +
			cfg.Amplitude*math.Sin(2*math.Pi*t/cfg.Period)
		if cfg.NoiseStd > 0 {
			v += cfg.NoiseStd * rng.NormFloat64()
		}
		X.Set(i, 0, t)
		y.Set(i, 0, v)
	}
	return X, y, nil
}

// SyntheticCO2 is SeasonalTrend with the default CO2-like configuration.
func SyntheticCO2(n int) (*mat.Dense, *mat.Dense, error) {
	return SeasonalTrend(DefaultSeasonalTrendConfig(n))
}

// Sinusoid generates n noisy samples of sin(x) on [0, span], for quick
// regression demos. X is n×1, y is n×1.
func Sinusoid(n int, span, noiseStd float64, seed int64) (*mat.Dense, *mat.Dense, error) {
	if n <= 0 {
		return nil, nil, errors.NewValidationError("n", "must be positive", n)
	}
	if span <= 0 {
		return nil, nil, errors.NewValidationError("span", "must be positive", span)
	}
	if noiseStd < 0 {
		return nil, nil, errors.NewValidationError("noiseStd", "must be non-negative", noiseStd)
	}

	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := 0.0
		if n > 1 {
			x = span * float64(i) / float64(n-1)
		}
		v := math.Sin(x)
		if noiseStd > 0 {
			v += noiseStd * rng.NormFloat64()
		}
		X.Set(i, 0, x)
		y.Set(i, 0, v)
	}
	return X, y, nil
}
