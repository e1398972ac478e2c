package gaussian_process

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	gperrors "github.com/YuminosukeSato/gpgo/pkg/errors"
)

// newTestGPR builds a regressor with optimization disabled so tests exercise
// exactly the kernel they construct.
func newTestGPR(t *testing.T, kernel Kernel, opts ...GPROption) *GaussianProcessRegressor {
	t.Helper()
	all := append([]GPROption{
		WithKernel(kernel),
		WithOptimizer(false),
	}, opts...)
	return NewGaussianProcessRegressor(all...)
}

func TestGPRInterpolation(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{1.0, 2.0, 1.0})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))
	assert.True(t, gpr.IsFitted())

	mean, std, err := gpr.PredictWithStd(mat.NewDense(1, 1, []float64{1.0}))
	require.NoError(t, err)

	// At a training input the posterior passes through the observation and
	// the uncertainty collapses.
	assert.InDelta(t, 2.0, mean.AtVec(0), 0.05)
	assert.Less(t, std.AtVec(0), 0.05)
}

func TestGPRPredictShape(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, -1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-8))
	require.NoError(t, gpr.Fit(X, y))

	pred, err := gpr.Predict(mat.NewDense(5, 1, []float64{0, 0.5, 1, 1.5, 2}))
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 1, c)
}

func TestGPRWhiteKernelOnly(t *testing.T) {
	white, err := NewWhiteKernel(0.09)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{1.0, -1.0, 2.0})

	gpr := newTestGPR(t, white, WithAlpha(1e-10))
	require.NoError(t, gpr.Fit(X, y))

	// Pure noise carries no information to new points: the posterior mean
	// is zero and the predictive std is the full prior noise level.
	mean, std, err := gpr.PredictWithStd(mat.NewDense(2, 1, []float64{10.0, 20.0}))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, 0.0, mean.AtVec(i), 1e-10)
		assert.InDelta(t, 0.3, std.AtVec(i), 1e-6)
	}
}

func TestGPRAlphaIncreasesUncertainty(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{1.0, 2.0, 1.0})

	stdAt := func(alpha float64) float64 {
		rbf, err := NewRBF(1.0)
		require.NoError(t, err)
		gpr := newTestGPR(t, rbf, WithAlpha(alpha))
		require.NoError(t, gpr.Fit(X, y))
		_, std, err := gpr.PredictWithStd(X)
		require.NoError(t, err)
		return std.AtVec(1)
	}

	small := stdAt(1e-8)
	large := stdAt(0.5)
	assert.Greater(t, large, small)
}

func TestGPRNormalizeY(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{101.0, 102.0, 101.0})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-8), WithNormalizeY(true))
	require.NoError(t, gpr.Fit(X, y))

	pred, err := gpr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 0.05)
	}

	// Far from the data the posterior falls back to the sample mean rather
	// than to zero.
	far, err := gpr.Predict(mat.NewDense(1, 1, []float64{1000.0}))
	require.NoError(t, err)
	assert.InDelta(t, 101.0+1.0/3.0, far.At(0, 0), 0.05)
}

func TestGPRLogMarginalLikelihood(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{1.0, 2.0, 1.0})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))

	lml := gpr.LogMarginalLikelihood()
	assert.False(t, math.IsNaN(lml))
	assert.False(t, math.IsInf(lml, 0))

	// Re-evaluating at the fitted theta reproduces the stored value.
	again, err := gpr.LogMarginalLikelihoodAt(gpr.FittedKernel().Theta())
	require.NoError(t, err)
	assert.InDelta(t, lml, again, 1e-10)
}

func TestGPRPredictCovMatchesStd(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, -1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))

	Xs := mat.NewDense(3, 1, []float64{0.5, 1.5, 2.5})
	meanStd, std, err := gpr.PredictWithStd(Xs)
	require.NoError(t, err)
	meanCov, cov, err := gpr.PredictCov(Xs)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, meanStd.AtVec(i), meanCov.AtVec(i), 1e-12)
		assert.InDelta(t, std.AtVec(i)*std.AtVec(i), cov.At(i, i), 1e-10)
	}
	// Covariance is symmetric by construction.
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestGPRSampleY(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	y := mat.NewDense(3, 1, []float64{1.0, 2.0, 1.0})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))

	Xs := mat.NewDense(5, 1, []float64{0, 0.5, 1, 1.5, 2})

	samples, err := gpr.SampleY(Xs, 3, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	r, c := samples.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)

	// Same seed, same draws.
	again, err := gpr.SampleY(Xs, 3, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(samples, again, 1e-12))

	// Samples near the training data stay near the observations.
	mean, _, err := gpr.PredictWithStd(Xs)
	require.NoError(t, err)
	for s := 0; s < 3; s++ {
		assert.InDelta(t, mean.AtVec(0), samples.At(0, s), 0.1)
	}

	_, err = gpr.SampleY(Xs, 0, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	_, err = gpr.SampleY(Xs, 2, nil)
	require.Error(t, err)
}

func TestGPRScore(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, -1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-8))
	require.NoError(t, gpr.Fit(X, y))

	score, err := gpr.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)
}

func TestGPRNotFitted(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)
	gpr := newTestGPR(t, rbf)

	X := mat.NewDense(1, 1, []float64{0.0})
	_, err = gpr.Predict(X)
	require.Error(t, err)

	var notFitted *gperrors.NotFittedError
	assert.True(t, gperrors.As(err, &notFitted))

	_, _, err = gpr.PredictWithStd(X)
	require.Error(t, err)
	_, _, err = gpr.PredictCov(X)
	require.Error(t, err)
}

func TestGPRFitValidation(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 1})

	t.Run("row count mismatch", func(t *testing.T) {
		gpr := newTestGPR(t, rbf)
		err := gpr.Fit(X, mat.NewDense(2, 1, []float64{1, 2}))
		require.Error(t, err)
		var dimErr *gperrors.DimensionError
		assert.True(t, gperrors.As(err, &dimErr))
		assert.Equal(t, 0, dimErr.Axis)
	})

	t.Run("y not a column", func(t *testing.T) {
		gpr := newTestGPR(t, rbf)
		err := gpr.Fit(X, mat.NewDense(3, 2, nil))
		require.Error(t, err)
		var valErr *gperrors.ValueError
		assert.True(t, gperrors.As(err, &valErr))
	})

	t.Run("empty data", func(t *testing.T) {
		gpr := newTestGPR(t, rbf)
		err := gpr.Fit(&mat.Dense{}, &mat.Dense{})
		require.Error(t, err)
		assert.True(t, gperrors.Is(err, gperrors.ErrEmptyData))
	})

	t.Run("negative alpha", func(t *testing.T) {
		gpr := newTestGPR(t, rbf, WithAlpha(-1.0))
		err := gpr.Fit(X, y)
		require.Error(t, err)
		var valErr *gperrors.ValidationError
		assert.True(t, gperrors.As(err, &valErr))
	})
}

func TestGPRPredictFeatureMismatch(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 2, []float64{0, 0, 1, 1, 2, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))

	_, err = gpr.Predict(mat.NewDense(1, 3, nil))
	require.Error(t, err)
	var dimErr *gperrors.DimensionError
	assert.True(t, gperrors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)
}

func TestGPRNotPositiveDefinite(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	// Duplicate inputs with zero alpha make the covariance singular.
	X := mat.NewDense(3, 1, []float64{1.0, 1.0, 1.0})
	y := mat.NewDense(3, 1, []float64{1.0, 1.0, 1.0})

	gpr := newTestGPR(t, rbf, WithAlpha(0.0))
	err = gpr.Fit(X, y)
	require.Error(t, err)
	assert.True(t, gperrors.Is(err, gperrors.ErrNotPositiveDefinite))
	assert.False(t, gpr.IsFitted())
}

func TestGPRDefaultKernel(t *testing.T) {
	gpr := NewGaussianProcessRegressor(WithOptimizer(false))
	require.NotNil(t, gpr.Kernel())
	assert.Equal(t, "1 * RBF(length_scale=1)", gpr.Kernel().String())

	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 1})
	require.NoError(t, gpr.Fit(X, y))
}

func TestGPRReset(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))
	require.True(t, gpr.IsFitted())

	gpr.Reset()
	assert.False(t, gpr.IsFitted())
	assert.Nil(t, gpr.FittedKernel())

	_, err = gpr.Predict(X)
	require.Error(t, err)
}

func TestGPRFittedStateUnchangedByPredict(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{1, 2, 1})

	gpr := newTestGPR(t, rbf, WithAlpha(1e-6))
	require.NoError(t, gpr.Fit(X, y))

	before := gpr.LogMarginalLikelihood()
	first, err := gpr.Predict(mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)
	_, _, err = gpr.PredictWithStd(mat.NewDense(2, 1, []float64{0.3, 1.7}))
	require.NoError(t, err)
	second, err := gpr.Predict(mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)

	assert.Equal(t, before, gpr.LogMarginalLikelihood())
	assert.Equal(t, first.At(0, 0), second.At(0, 0))
}
