package gaussian_process

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	gperrors "github.com/YuminosukeSato/gpgo/pkg/errors"
)

func TestRBFEval(t *testing.T) {
	k, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})
	K, err := k.Eval(X, nil)
	require.NoError(t, err)

	r, c := K.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	// Unit self-similarity, exactly.
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, K.At(i, i))
	}

	// k(0, 1) = exp(-0.5)
	assert.InDelta(t, math.Exp(-0.5), K.At(0, 1), 1e-12)
	// k(0, 2) = exp(-2)
	assert.InDelta(t, math.Exp(-2.0), K.At(0, 2), 1e-12)

	// Symmetry
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, K.At(i, j), K.At(j, i))
		}
	}
}

func TestRBFLengthScale(t *testing.T) {
	short, err := NewRBF(0.1)
	require.NoError(t, err)
	long, err := NewRBF(10.0)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{0.0, 1.0})
	kShort, err := short.Eval(X, nil)
	require.NoError(t, err)
	kLong, err := long.Eval(X, nil)
	require.NoError(t, err)

	// Longer length scale means higher correlation at the same distance.
	assert.Less(t, kShort.At(0, 1), kLong.At(0, 1))
}

func TestRBFDiag(t *testing.T) {
	k, err := NewRBF(2.5)
	require.NoError(t, err)

	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	d, err := k.Diag(X)
	require.NoError(t, err)

	assert.Equal(t, 4, d.Len())
	for i := 0; i < 4; i++ {
		assert.Equal(t, 1.0, d.AtVec(i))
	}
}

func TestWhiteKernelEval(t *testing.T) {
	k, err := NewWhiteKernel(0.5)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 1.0, 2.0})

	// Symmetric self-covariance: noise on the diagonal only.
	K, err := k.Eval(X, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				assert.Equal(t, 0.5, K.At(i, j))
			} else {
				assert.Equal(t, 0.0, K.At(i, j))
			}
		}
	}

	// Cross-covariance against distinct points is identically zero, even
	// where a test point coincides with a training point.
	Y := mat.NewDense(2, 1, []float64{0.0, 5.0})
	K, err = k.Eval(Y, X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(K, mat.NewDense(2, 3, nil)))

	// Diag reports the prior variance, noise included.
	d, err := k.Diag(Y)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.Equal(t, 0.5, d.AtVec(i))
	}
}

func TestRationalQuadraticLargeAlphaApproachesRBF(t *testing.T) {
	rq, err := NewRationalQuadratic(1.5, 1e7)
	require.NoError(t, err)
	rbf, err := NewRBF(1.5)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0.0, 0.7, 2.1})
	kRQ, err := rq.Eval(X, nil)
	require.NoError(t, err)
	kRBF, err := rbf.Eval(X, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, kRBF.At(i, j), kRQ.At(i, j), 1e-5)
		}
	}
}

func TestExpSineSquaredPeriodicity(t *testing.T) {
	k, err := NewExpSineSquared(1.0, 2.0)
	require.NoError(t, err)

	// Points one full period apart have covariance exactly 1 up to the
	// sine's rounding.
	X := mat.NewDense(3, 1, []float64{0.0, 2.0, 4.0})
	K, err := k.Eval(X, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, K.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, K.At(0, 2), 1e-12)

	// Half a period apart gives the minimum covariance exp(-2/l²).
	Y := mat.NewDense(2, 1, []float64{0.0, 1.0})
	K, err = k.Eval(Y, nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-2.0), K.At(0, 1), 1e-12)
}

func TestConstantKernel(t *testing.T) {
	k, err := NewConstantKernel(3.0)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{0.0, 1.0})
	Y := mat.NewDense(3, 1, []float64{5.0, 6.0, 7.0})
	K, err := k.Eval(X, Y)
	require.NoError(t, err)

	r, c := K.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(t, 3.0, K.At(i, j))
		}
	}
}

func TestSumEval(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)
	white, err := NewWhiteKernel(0.25)
	require.NoError(t, err)
	sum := SumOf(rbf, white)

	X := mat.NewDense(2, 1, []float64{0.0, 1.0})
	K, err := sum.Eval(X, nil)
	require.NoError(t, err)

	// Diagonal picks up the noise, off-diagonal does not.
	assert.InDelta(t, 1.25, K.At(0, 0), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), K.At(0, 1), 1e-12)
}

func TestProductEval(t *testing.T) {
	ck, err := NewConstantKernel(4.0)
	require.NoError(t, err)
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)
	prod := ProductOf(ck, rbf)

	X := mat.NewDense(2, 1, []float64{0.0, 1.0})
	K, err := prod.Eval(X, nil)
	require.NoError(t, err)

	assert.InDelta(t, 4.0, K.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0*math.Exp(-0.5), K.At(0, 1), 1e-12)

	d, err := prod.Diag(X)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, d.AtVec(0), 1e-12)
}

func TestCompositeTheta(t *testing.T) {
	rbf, err := NewRBF(2.0)
	require.NoError(t, err)
	white, err := NewWhiteKernel(0.5)
	require.NoError(t, err)
	sum := SumOf(rbf, white)

	theta := sum.Theta()
	require.Len(t, theta, 2)
	assert.InDelta(t, math.Log(2.0), theta[0], 1e-12)
	assert.InDelta(t, math.Log(0.5), theta[1], 1e-12)

	bounds := sum.Bounds()
	require.Len(t, bounds, 2)
}

func TestCloneWithThetaRoundTrip(t *testing.T) {
	rbf, err := NewRBF(2.0)
	require.NoError(t, err)
	white, err := NewWhiteKernel(0.5)
	require.NoError(t, err)
	sum := SumOf(rbf, white)

	clone, err := sum.CloneWithTheta(sum.Theta())
	require.NoError(t, err)
	assert.Equal(t, sum.Theta(), clone.Theta())

	// The original tree is untouched by a clone at new values.
	_, err = sum.CloneWithTheta([]float64{math.Log(7.0), math.Log(0.1)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rbf.LengthScale)
	assert.Equal(t, 0.5, white.NoiseLevel)
}

func TestCloneWithThetaWrongLength(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	_, err = rbf.CloneWithTheta([]float64{0.0, 0.0})
	require.Error(t, err)

	var dimErr *gperrors.DimensionError
	assert.True(t, gperrors.As(err, &dimErr))
}

func TestFixedBoundsExcludedFromTheta(t *testing.T) {
	rbf, err := NewRBFWithBounds(1.5, Fixed())
	require.NoError(t, err)
	assert.Empty(t, rbf.Theta())
	assert.Empty(t, rbf.Bounds())

	// Fixed hyperparameters still show up in introspection.
	hps := rbf.Hyperparameters()
	require.Len(t, hps, 1)
	assert.True(t, hps[0].Bounds.IsFixed())

	// CloneWithTheta on a fully fixed kernel takes an empty theta.
	clone, err := rbf.CloneWithTheta(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.5, clone.(*RBF).LengthScale)
}

func TestScaledFixedKernel(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)

	scaled, err := ScaledFixed(3.0, rbf)
	require.NoError(t, err)

	// Only the RBF length scale remains free.
	require.Len(t, scaled.Theta(), 1)
	assert.InDelta(t, 0.0, scaled.Theta()[0], 1e-12)

	X := mat.NewDense(1, 1, []float64{0.0})
	d, err := scaled.Diag(X)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, d.AtVec(0), 1e-12)
}

func TestInvalidHyperparameters(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"rbf zero length scale", func() error { _, err := NewRBF(0.0); return err }},
		{"rbf negative length scale", func() error { _, err := NewRBF(-1.0); return err }},
		{"rbf NaN length scale", func() error { _, err := NewRBF(math.NaN()); return err }},
		{"white negative noise", func() error { _, err := NewWhiteKernel(-0.5); return err }},
		{"rq zero alpha", func() error { _, err := NewRationalQuadratic(1.0, 0.0); return err }},
		{"ess zero periodicity", func() error { _, err := NewExpSineSquared(1.0, 0.0); return err }},
		{"constant infinite value", func() error { _, err := NewConstantKernel(math.Inf(1)); return err }},
		{"invalid bounds order", func() error {
			_, err := NewRBFWithBounds(1.0, Bounded(10.0, 1.0))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			var valErr *gperrors.ValidationError
			assert.True(t, gperrors.As(err, &valErr))
		})
	}
}

func TestEvalFeatureMismatch(t *testing.T) {
	k, err := NewRBF(1.0)
	require.NoError(t, err)

	X := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	Y := mat.NewDense(2, 3, nil)
	_, err = k.Eval(X, Y)
	require.Error(t, err)

	var dimErr *gperrors.DimensionError
	assert.True(t, gperrors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)
}

func TestEvalEmptyInput(t *testing.T) {
	k, err := NewRBF(1.0)
	require.NoError(t, err)

	_, err = k.Eval(&mat.Dense{}, nil)
	require.Error(t, err)
	assert.True(t, gperrors.Is(err, gperrors.ErrEmptyData))
}

func TestKernelString(t *testing.T) {
	rbf, err := NewRBF(1.0)
	require.NoError(t, err)
	white, err := NewWhiteKernel(0.5)
	require.NoError(t, err)
	ck, err := NewConstantKernel(4.0)
	require.NoError(t, err)

	assert.Equal(t, "RBF(length_scale=1)", rbf.String())
	assert.Equal(t, "WhiteKernel(noise_level=0.5)", white.String())

	sum := SumOf(rbf, white)
	assert.Equal(t, "RBF(length_scale=1) + WhiteKernel(noise_level=0.5)", sum.String())

	// A sum inside a product is parenthesized.
	prod := ProductOf(ck, sum)
	assert.Equal(t, "4 * (RBF(length_scale=1) + WhiteKernel(noise_level=0.5))", prod.String())
}

func TestSumProductCommutative(t *testing.T) {
	rbf, err := NewRBF(1.3)
	require.NoError(t, err)
	rq, err := NewRationalQuadratic(0.8, 2.0)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{0, 1.1, 2.7})

	ab, err := SumOf(rbf, rq).Eval(X, nil)
	require.NoError(t, err)
	ba, err := SumOf(rq, rbf).Eval(X, nil)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(ab, ba, 1e-15))

	ab, err = ProductOf(rbf, rq).Eval(X, nil)
	require.NoError(t, err)
	ba, err = ProductOf(rq, rbf).Eval(X, nil)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(ab, ba, 1e-15))
}

func TestSumProductSymmetry(t *testing.T) {
	rbf, err := NewRBF(1.3)
	require.NoError(t, err)
	rq, err := NewRationalQuadratic(0.8, 2.0)
	require.NoError(t, err)

	X := mat.NewDense(4, 2, []float64{0, 0, 1, 0.5, 2, 1, 3, 1.5})

	for _, k := range []Kernel{SumOf(rbf, rq), ProductOf(rbf, rq)} {
		K, err := k.Eval(X, nil)
		require.NoError(t, err)
		r, _ := K.Dims()
		for i := 0; i < r; i++ {
			for j := i; j < r; j++ {
				assert.Equal(t, K.At(i, j), K.At(j, i))
			}
		}
	}
}
