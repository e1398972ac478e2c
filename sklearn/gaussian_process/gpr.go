package gaussian_process

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gpgo/core/model"
	"github.com/YuminosukeSato/gpgo/metrics"
	"github.com/YuminosukeSato/gpgo/pkg/errors"
	"github.com/YuminosukeSato/gpgo/pkg/log"
)

// DefaultRandomState seeds the multi-start hyperparameter optimizer when the
// caller does not supply a seed. There is no hidden process-wide randomness:
// the same seed and data always give the same fit.
const DefaultRandomState int64 = 42

const log2Pi = 1.8378770664093453 // log(2*pi)

// GaussianProcessRegressor is a Gaussian process regression model with the
// scikit-learn surface: a composable covariance kernel, a noise/jitter term
// alpha on the training diagonal, optional target centering, and optional
// maximization of the log-marginal-likelihood over the kernel's free
// hyperparameters.
//
// Fit builds the training covariance, factorizes it with a Cholesky
// decomposition and solves for the dual coefficients; Predict reads from the
// fitted state without mutating it.
type GaussianProcessRegressor struct {
	state *model.StateManager

	// Hyperparameters
	kernel      Kernel
	alpha       float64
	normalizeY  bool
	optimize    bool
	restarts    int
	maxIter     int
	randomState int64

	// Learned parameters
	kernelFitted Kernel
	xTrain       *mat.Dense
	yTrain       *mat.VecDense // centered targets
	yMean        float64
	chol         *mat.Cholesky
	coef         *mat.VecDense
	lml          float64

	logger log.Logger
}

var (
	_ model.Regressor       = (*GaussianProcessRegressor)(nil)
	_ model.ParameterGetter = (*GaussianProcessRegressor)(nil)
)

// GPROption configures a GaussianProcessRegressor.
type GPROption func(*GaussianProcessRegressor)

// WithKernel sets the covariance kernel. The default is
// ConstantKernel(1) * RBF(1).
func WithKernel(k Kernel) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.kernel = k
	}
}

// WithAlpha sets the value added to the diagonal of the training covariance
// matrix. Larger values absorb observation noise and improve conditioning.
func WithAlpha(alpha float64) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.alpha = alpha
	}
}

// WithNormalizeY enables centering of the targets before fitting. The sample
// mean is restored at prediction time.
func WithNormalizeY(normalize bool) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.normalizeY = normalize
	}
}

// WithOptimizer enables or disables hyperparameter optimization during Fit.
// With it disabled the kernel is used exactly as supplied.
func WithOptimizer(enabled bool) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.optimize = enabled
	}
}

// WithRestarts sets the number of additional optimizer starts sampled
// uniformly (in log space) from the kernel's hyperparameter bounds.
func WithRestarts(n int) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.restarts = n
	}
}

// WithMaxIter bounds the number of major iterations per optimizer run.
// Exhausting the budget raises a ConvergenceWarning, not an error.
func WithMaxIter(n int) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.maxIter = n
	}
}

// WithRandomState sets the seed for optimizer restart sampling.
func WithRandomState(seed int64) GPROption {
	return func(g *GaussianProcessRegressor) {
		g.randomState = seed
	}
}

// NewGaussianProcessRegressor creates a regressor with the given options.
func NewGaussianProcessRegressor(opts ...GPROption) *GaussianProcessRegressor {
	g := &GaussianProcessRegressor{
		state:       model.NewStateManager(),
		alpha:       1e-10,
		optimize:    true,
		maxIter:     100,
		randomState: DefaultRandomState,
		logger:      log.GetLoggerWithName("gaussian_process"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.kernel == nil {
		g.kernel = defaultKernel()
	}
	return g
}

// defaultKernel is ConstantKernel(1) * RBF(1). The constructor arguments are
// compile-time constants, so the validation errors cannot fire.
func defaultKernel() Kernel {
	ck, _ := NewConstantKernel(1.0)
	rbf, _ := NewRBF(1.0)
	return ProductOf(ck, rbf)
}

// IsFitted reports whether the model has been fitted.
func (g *GaussianProcessRegressor) IsFitted() bool {
	return g.state.IsFitted()
}

// Reset returns the model to its unfitted state.
func (g *GaussianProcessRegressor) Reset() {
	g.state.Reset()
	g.kernelFitted = nil
	g.xTrain = nil
	g.yTrain = nil
	g.chol = nil
	g.coef = nil
	g.lml = 0
	g.yMean = 0
}

// Kernel returns the kernel supplied at construction time.
func (g *GaussianProcessRegressor) Kernel() Kernel {
	return g.kernel
}

// FittedKernel returns the realized kernel: the optimized kernel when
// optimization ran, otherwise the construction-time kernel.
func (g *GaussianProcessRegressor) FittedKernel() Kernel {
	return g.kernelFitted
}

// LogMarginalLikelihood returns the log-marginal-likelihood of the fitted
// model evaluated at the realized kernel's hyperparameters.
func (g *GaussianProcessRegressor) LogMarginalLikelihood() float64 {
	return g.lml
}

// GetParams returns the model's hyperparameters.
func (g *GaussianProcessRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel":       g.kernel.String(),
		"alpha":        g.alpha,
		"normalize_y":  g.normalizeY,
		"optimizer":    g.optimize,
		"restarts":     g.restarts,
		"max_iter":     g.maxIter,
		"random_state": g.randomState,
	}
}

// Fit learns the model from training data. X is n×d, y is n×1.
func (g *GaussianProcessRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GaussianProcessRegressor.Fit")
	start := time.Now()

	r, c := X.Dims()
	yr, yc := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GaussianProcessRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr != r {
		return errors.NewDimensionError("GaussianProcessRegressor.Fit", r, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("GaussianProcessRegressor.Fit", "y must be a column vector")
	}
	if g.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", g.alpha)
	}

	xTrain := mat.DenseCopyOf(X)
	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var yMean float64
	if g.normalizeY {
		for i := 0; i < r; i++ {
			yMean += yVec.AtVec(i)
		}
		yMean /= float64(r)
		for i := 0; i < r; i++ {
			yVec.SetVec(i, yVec.AtVec(i)-yMean)
		}
	}

	kernel := g.kernel
	if g.optimize && len(kernel.Theta()) > 0 {
		kernel, err = g.optimizeHyperparameters(kernel, xTrain, yVec)
		if err != nil {
			return err
		}
	}

	chol, coef, lml, err := g.factorize(kernel, xTrain, yVec)
	if err != nil {
		return err
	}

	g.kernelFitted = kernel
	g.xTrain = xTrain
	g.yTrain = yVec
	g.yMean = yMean
	g.chol = chol
	g.coef = coef
	g.lml = lml
	g.state.SetDimensions(c, r)
	g.state.SetFitted()

	g.logger.Info("fit complete",
		log.ModelNameKey, "GaussianProcessRegressor",
		log.OperationKey, "fit",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.KernelKey, kernel.String(),
		log.AlphaKey, g.alpha,
		log.LMLKey, lml,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// factorize assembles K(X, X) + alpha*I, Cholesky-factorizes it and solves
// for the dual coefficients, returning the log-marginal-likelihood
//
//	LML = -0.5*yᵀcoef - Σ log diag(L) - n/2·log(2π)
func (g *GaussianProcessRegressor) factorize(kernel Kernel, X *mat.Dense, y *mat.VecDense) (*mat.Cholesky, *mat.VecDense, float64, error) {
	const op = "GaussianProcessRegressor.Fit"

	K, err := kernel.Eval(X, nil)
	if err != nil {
		return nil, nil, 0, err
	}

	n, _ := X.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := K.At(i, j)
			if i == j {
				v += g.alpha
			}
			sym.SetSym(i, j, v)
		}
	}

	chol := &mat.Cholesky{}
	if ok := chol.Factorize(sym); !ok {
		return nil, nil, 0, errors.WithHint(
			errors.NewModelError(op, "covariance matrix is not positive definite", errors.ErrNotPositiveDefinite),
			"increase alpha or check the kernel hyperparameters and for duplicate inputs")
	}

	coef := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(coef, y); err != nil {
		return nil, nil, 0, errors.Wrap(err, op+": solving for dual coefficients")
	}

	lml := -0.5*mat.Dot(y, coef) - 0.5*chol.LogDet() - 0.5*float64(n)*log2Pi
	if err := errors.CheckScalar("log_marginal_likelihood", lml, 0); err != nil {
		return nil, nil, 0, err
	}

	return chol, coef, lml, nil
}

// LogMarginalLikelihoodAt evaluates the log-marginal-likelihood of the
// training data at the given log-space hyperparameters theta, without
// changing the fitted model.
func (g *GaussianProcessRegressor) LogMarginalLikelihoodAt(theta []float64) (float64, error) {
	if err := g.state.RequireFitted("GaussianProcessRegressor", "LogMarginalLikelihoodAt"); err != nil {
		return 0, err
	}
	kernel, err := g.kernelFitted.CloneWithTheta(theta)
	if err != nil {
		return 0, err
	}
	_, _, lml, err := g.factorize(kernel, g.xTrain, g.yTrain)
	if err != nil {
		return 0, err
	}
	return lml, nil
}

// validatePredictInput checks shape compatibility with the training data.
func (g *GaussianProcessRegressor) validatePredictInput(op string, X mat.Matrix) error {
	if err := g.state.RequireFitted("GaussianProcessRegressor", op); err != nil {
		return err
	}
	r, c := X.Dims()
	nFeatures, _ := g.state.GetDimensions()
	if r == 0 {
		return errors.NewModelError("GaussianProcessRegressor."+op, "empty data", errors.ErrEmptyData)
	}
	if c != nFeatures {
		return errors.NewDimensionError("GaussianProcessRegressor."+op, nFeatures, c, 1)
	}
	return nil
}

// Predict returns the posterior mean at X as an m×1 matrix.
func (g *GaussianProcessRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	mean, err := g.predictMean("Predict", X)
	if err != nil {
		return nil, err
	}
	m := mean.Len()
	out := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		out.Set(i, 0, mean.AtVec(i))
	}
	return out, nil
}

func (g *GaussianProcessRegressor) predictMean(op string, X mat.Matrix) (*mat.VecDense, error) {
	if err := g.validatePredictInput(op, X); err != nil {
		return nil, err
	}

	kStar, err := g.kernelFitted.Eval(X, g.xTrain)
	if err != nil {
		return nil, err
	}

	m, _ := X.Dims()
	mean := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		mean.SetVec(i, mat.Dot(kStar.RowView(i), g.coef)+g.yMean)
	}
	return mean, nil
}

// PredictWithStd returns the posterior mean and standard deviation at X.
// Variances that come out negative through floating-point cancellation are
// clipped to zero and reported through the warning system.
func (g *GaussianProcessRegressor) PredictWithStd(X mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	if err := g.validatePredictInput("PredictWithStd", X); err != nil {
		return nil, nil, err
	}

	kStar, err := g.kernelFitted.Eval(X, g.xTrain)
	if err != nil {
		return nil, nil, err
	}

	m, _ := X.Dims()
	mean := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		mean.SetVec(i, mat.Dot(kStar.RowView(i), g.coef)+g.yMean)
	}

	// W solves (K + alpha*I) W = K*ᵀ, so diag(K* K⁻¹ K*ᵀ)_j = K*_j · W_:,j.
	nTrain := g.yTrain.Len()
	w := mat.NewDense(nTrain, m, nil)
	if err := g.chol.SolveTo(w, kStar.T()); err != nil {
		return nil, nil, errors.Wrap(err, "GaussianProcessRegressor.PredictWithStd: triangular solve")
	}

	priorDiag, err := g.kernelFitted.Diag(X)
	if err != nil {
		return nil, nil, err
	}

	std := mat.NewVecDense(m, nil)
	clipped := 0
	minVar := 0.0
	for j := 0; j < m; j++ {
		var reduction float64
		for i := 0; i < nTrain; i++ {
			reduction += kStar.At(j, i) * w.At(i, j)
		}
		variance := priorDiag.AtVec(j) - reduction
		if variance < 0 {
			clipped++
			if variance < minVar {
				minVar = variance
			}
			variance = 0
		}
		std.SetVec(j, math.Sqrt(variance))
	}
	if clipped > 0 {
		errors.Warn(errors.NewNegativeVarianceWarning("GaussianProcessRegressor.PredictWithStd", minVar, clipped))
	}

	return mean, std, nil
}

// PredictCov returns the posterior mean and the full posterior covariance
// matrix at X.
func (g *GaussianProcessRegressor) PredictCov(X mat.Matrix) (*mat.VecDense, *mat.SymDense, error) {
	if err := g.validatePredictInput("PredictCov", X); err != nil {
		return nil, nil, err
	}

	kStar, err := g.kernelFitted.Eval(X, g.xTrain)
	if err != nil {
		return nil, nil, err
	}

	m, _ := X.Dims()
	mean := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		mean.SetVec(i, mat.Dot(kStar.RowView(i), g.coef)+g.yMean)
	}

	kss, err := g.kernelFitted.Eval(X, nil)
	if err != nil {
		return nil, nil, err
	}

	nTrain := g.yTrain.Len()
	w := mat.NewDense(nTrain, m, nil)
	if err := g.chol.SolveTo(w, kStar.T()); err != nil {
		return nil, nil, errors.Wrap(err, "GaussianProcessRegressor.PredictCov: triangular solve")
	}

	var reduction mat.Dense
	reduction.Mul(kStar, w)

	cov := mat.NewSymDense(m, nil)
	clipped := 0
	minVar := 0.0
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			// Average the two off-diagonal estimates to keep cov symmetric.
			v := 0.5 * ((kss.At(i, j) - reduction.At(i, j)) + (kss.At(j, i) - reduction.At(j, i)))
			if i == j && v < 0 {
				clipped++
				if v < minVar {
					minVar = v
				}
				v = 0
			}
			cov.SetSym(i, j, v)
		}
	}
	if clipped > 0 {
		errors.Warn(errors.NewNegativeVarianceWarning("GaussianProcessRegressor.PredictCov", minVar, clipped))
	}

	return mean, cov, nil
}

// SampleY draws nSamples functions from the posterior at X. The result is
// m×nSamples: one column per sample. The caller supplies the random source,
// keeping sampling reproducible.
func (g *GaussianProcessRegressor) SampleY(X mat.Matrix, nSamples int, rng *rand.Rand) (*mat.Dense, error) {
	if nSamples <= 0 {
		return nil, errors.NewValidationError("nSamples", "must be positive", nSamples)
	}
	if rng == nil {
		return nil, errors.NewValueError("GaussianProcessRegressor.SampleY", "rng must not be nil")
	}

	mean, cov, err := g.PredictCov(X)
	if err != nil {
		return nil, err
	}

	m := mean.Len()

	// The posterior covariance can be rank-deficient near the training
	// points; retry the factorization with growing diagonal jitter.
	var cholPost mat.Cholesky
	jitter := 0.0
	for {
		work := mat.NewSymDense(m, nil)
		for i := 0; i < m; i++ {
			for j := i; j < m; j++ {
				v := cov.At(i, j)
				if i == j {
					v += jitter
				}
				work.SetSym(i, j, v)
			}
		}
		if ok := cholPost.Factorize(work); ok {
			break
		}
		if jitter == 0 {
			jitter = 1e-10
		} else {
			jitter *= 100
		}
		if jitter > 1e-2 {
			return nil, errors.WithHint(
				errors.NewModelError("GaussianProcessRegressor.SampleY", "posterior covariance is not positive definite", errors.ErrNotPositiveDefinite),
				"increase alpha")
		}
	}

	var l mat.TriDense
	cholPost.LTo(&l)

	samples := mat.NewDense(m, nSamples, nil)
	z := mat.NewVecDense(m, nil)
	lz := mat.NewVecDense(m, nil)
	for s := 0; s < nSamples; s++ {
		for i := 0; i < m; i++ {
			z.SetVec(i, rng.NormFloat64())
		}
		lz.MulVec(&l, z)
		for i := 0; i < m; i++ {
			samples.Set(i, s, mean.AtVec(i)+lz.AtVec(i))
		}
	}
	return samples, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (g *GaussianProcessRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}
