package gaussian_process

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/gpgo/pkg/errors"
	"github.com/YuminosukeSato/gpgo/pkg/log"
)

// badObjective stands in for the objective value whenever the covariance
// matrix cannot be factorized. It is large but finite so that line searches
// can recover instead of aborting on Inf.
const badObjective = 1e25

// boundPenaltyWeight scales the quadratic penalty applied to theta components
// outside their bounds. The unconstrained minimizer then stays close to the
// feasible box and the final theta is clipped exactly onto it.
const boundPenaltyWeight = 1e6

// clipToBounds projects theta onto the log-space hyperparameter box and
// returns the squared distance of the projection.
func clipToBounds(theta []float64, bounds []Interval) ([]float64, float64) {
	clipped := make([]float64, len(theta))
	var excess float64
	for i, v := range theta {
		lo := math.Log(bounds[i].Lower)
		hi := math.Log(bounds[i].Upper)
		switch {
		case v < lo:
			d := lo - v
			excess += d * d
			clipped[i] = lo
		case v > hi:
			d := v - hi
			excess += d * d
			clipped[i] = hi
		default:
			clipped[i] = v
		}
	}
	return clipped, excess
}

// negLMLObjective builds the function minimized during hyperparameter
// optimization: the negative log-marginal-likelihood at the clipped theta
// plus a penalty for leaving the bounds.
func (g *GaussianProcessRegressor) negLMLObjective(kernel Kernel, X *mat.Dense, y *mat.VecDense) func(theta []float64) float64 {
	bounds := kernel.Bounds()
	return func(theta []float64) float64 {
		clipped, excess := clipToBounds(theta, bounds)
		k, err := kernel.CloneWithTheta(clipped)
		if err != nil {
			return badObjective
		}
		_, _, lml, err := g.factorize(k, X, y)
		if err != nil {
			return badObjective
		}
		return -lml + boundPenaltyWeight*excess
	}
}

// optimizeHyperparameters maximizes the log-marginal-likelihood over the
// kernel's free hyperparameters with L-BFGS and finite-difference gradients.
// The supplied theta is always one of the starting points, so the returned
// kernel's likelihood is never worse than the starting kernel's. Additional
// starts are sampled uniformly in log space from the hyperparameter bounds.
func (g *GaussianProcessRegressor) optimizeHyperparameters(kernel Kernel, X *mat.Dense, y *mat.VecDense) (Kernel, error) {
	objective := g.negLMLObjective(kernel, X, y)
	bounds := kernel.Bounds()

	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, theta []float64) {
			fd.Gradient(grad, objective, theta, nil)
		},
	}
	settings := &optimize.Settings{MajorIterations: g.maxIter}

	starts := make([][]float64, 0, g.restarts+1)
	starts = append(starts, kernel.Theta())
	rng := rand.New(rand.NewSource(g.randomState))
	for r := 0; r < g.restarts; r++ {
		start := make([]float64, len(bounds))
		for i, b := range bounds {
			lo := math.Log(b.Lower)
			hi := math.Log(b.Upper)
			start[i] = lo + rng.Float64()*(hi-lo)
		}
		starts = append(starts, start)
	}

	bestTheta := starts[0]
	bestValue := objective(starts[0])
	for run, start := range starts {
		result, err := optimize.Minimize(problem, start, settings, &optimize.LBFGS{})
		if err != nil {
			errors.Warn(errors.NewConvergenceWarning("lbfgs", g.maxIter, err.Error()))
			continue
		}
		if result.Status == optimize.IterationLimit {
			errors.Warn(errors.NewConvergenceWarning("lbfgs", g.maxIter,
				"maximum number of iterations reached before convergence"))
		}
		value := objective(result.X)
		g.logger.Debug("optimizer run finished",
			log.OperationKey, "optimize",
			log.ThetaKey, result.X,
			log.LMLKey, -value,
			"run", run,
		)
		if value < bestValue {
			bestValue = value
			bestTheta = result.X
		}
	}

	finalTheta, _ := clipToBounds(bestTheta, bounds)
	return kernel.CloneWithTheta(finalTheta)
}
