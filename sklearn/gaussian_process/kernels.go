package gaussian_process

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gpgo/core/parallel"
	"github.com/YuminosukeSato/gpgo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Row count above which pairwise kernel evaluation fans out across cores.
const pairwiseParallelThreshold = 128

// Interval is the search range of one kernel hyperparameter, in natural
// (not log) space. A fixed interval excludes the hyperparameter from
// optimization entirely.
type Interval struct {
	Lower float64
	Upper float64
	fixed bool
}

// Bounded returns an Interval restricting a hyperparameter to [lower, upper]
// during optimization.
func Bounded(lower, upper float64) Interval {
	return Interval{Lower: lower, Upper: upper}
}

// Fixed returns an Interval that excludes the hyperparameter from optimization.
func Fixed() Interval {
	return Interval{fixed: true}
}

// IsFixed reports whether the hyperparameter is excluded from optimization.
func (iv Interval) IsFixed() bool {
	return iv.fixed
}

func (iv Interval) validate(param string) error {
	if iv.fixed {
		return nil
	}
	if iv.Lower <= 0 {
		return errors.NewValidationError(param+"_bounds", "lower bound must be positive", iv.Lower)
	}
	if iv.Upper < iv.Lower {
		return errors.NewValidationError(param+"_bounds", "lower bound must not exceed upper bound", [2]float64{iv.Lower, iv.Upper})
	}
	return nil
}

// defaultBounds is the search range used when a constructor is not given
// explicit bounds, matching the scikit-learn default of (1e-5, 1e5).
var defaultBounds = Interval{Lower: 1e-5, Upper: 1e5}

// Hyperparameter describes one scalar parameter of a kernel for introspection.
type Hyperparameter struct {
	Name   string
	Value  float64
	Bounds Interval
}

// Kernel is an immutable covariance function over pairs of input rows.
//
// Composite kernels (Sum, Product) are built with SumOf, ProductOf and
// Scaled; evaluation proceeds by structural recursion over the resulting
// expression tree. Kernels are never mutated after construction:
// CloneWithTheta returns a fresh tree.
type Kernel interface {
	// Eval computes the covariance matrix K with K[i][j] = k(X[i], Y[j]).
	// A nil Y means "X against itself"; this symmetric form is the only
	// one in which WhiteKernel contributes its noise term.
	Eval(X, Y mat.Matrix) (*mat.Dense, error)

	// Diag returns the prior variance k(x, x) for each row of X. For
	// WhiteKernel the noise level is included.
	Diag(X mat.Matrix) (*mat.VecDense, error)

	// Theta returns the log-transformed values of the free (non-fixed)
	// hyperparameters, in structural left-to-right order.
	Theta() []float64

	// Bounds returns the natural-space search interval for each entry of
	// Theta, in the same order.
	Bounds() []Interval

	// CloneWithTheta returns a copy of the kernel with the free
	// hyperparameters replaced by theta (log space). The receiver is not
	// modified.
	CloneWithTheta(theta []float64) (Kernel, error)

	// Hyperparameters lists every hyperparameter of the kernel, fixed ones
	// included.
	Hyperparameters() []Hyperparameter

	fmt.Stringer
}

func validatePositive(param string, value float64) error {
	if !(value > 0) || math.IsInf(value, 0) || math.IsNaN(value) {
		return errors.NewValidationError(param, "must be a positive finite number", value)
	}
	return nil
}

// checkFeatureDims ensures X and Y carry the same number of features.
func checkFeatureDims(X, Y mat.Matrix) error {
	_, cx := X.Dims()
	_, cy := Y.Dims()
	if cx != cy {
		return errors.NewDimensionError("Kernel.Eval", cx, cy, 1)
	}
	return nil
}

// sqDist is the squared Euclidean distance between row i of X and row j of Y.
func sqDist(X, Y mat.Matrix, i, j int) float64 {
	_, c := X.Dims()
	var d2 float64
	for k := 0; k < c; k++ {
		d := X.At(i, k) - Y.At(j, k)
		d2 += d * d
	}
	return d2
}

// evalPairwise fills K[i][j] = f(d²(X[i], Y[j])), parallelized across rows.
func evalPairwise(X, Y mat.Matrix, f func(d2 float64) float64) (*mat.Dense, error) {
	if Y == nil {
		Y = X
	}
	if err := checkFeatureDims(X, Y); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	m, _ := Y.Dims()
	if n == 0 || m == 0 {
		return nil, errors.NewModelError("Kernel.Eval", "empty input", errors.ErrEmptyData)
	}

	K := mat.NewDense(n, m, nil)
	parallel.ParallelizeWithThreshold(n, pairwiseParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < m; j++ {
				K.Set(i, j, f(sqDist(X, Y, i, j)))
			}
		}
	})
	return K, nil
}

// constDiag returns a vector of length n(X) filled with v.
func constDiag(X mat.Matrix, v float64) *mat.VecDense {
	n, _ := X.Dims()
	d := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		d.SetVec(i, v)
	}
	return d
}

// ---------------------------------------------------------------------------
// RBF
// ---------------------------------------------------------------------------

// RBF is the radial basis function (squared exponential) kernel:
//
//	k(x, y) = exp(-0.5 * ||x-y||² / l²)
type RBF struct {
	LengthScale       float64
	LengthScaleBounds Interval
}

// NewRBF creates an RBF kernel with the default search bounds.
func NewRBF(lengthScale float64) (*RBF, error) {
	return NewRBFWithBounds(lengthScale, defaultBounds)
}

// NewRBFWithBounds creates an RBF kernel with explicit length-scale bounds.
func NewRBFWithBounds(lengthScale float64, bounds Interval) (*RBF, error) {
	if err := validatePositive("length_scale", lengthScale); err != nil {
		return nil, err
	}
	if err := bounds.validate("length_scale"); err != nil {
		return nil, err
	}
	return &RBF{LengthScale: lengthScale, LengthScaleBounds: bounds}, nil
}

// Eval implements Kernel.
func (k *RBF) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	l2 := k.LengthScale * k.LengthScale
	return evalPairwise(X, Y, func(d2 float64) float64 {
		return math.Exp(-0.5 * d2 / l2)
	})
}

// Diag implements Kernel. The RBF self-similarity is exactly 1.
func (k *RBF) Diag(X mat.Matrix) (*mat.VecDense, error) {
	return constDiag(X, 1.0), nil
}

// Theta implements Kernel.
func (k *RBF) Theta() []float64 {
	if k.LengthScaleBounds.IsFixed() {
		return nil
	}
	return []float64{math.Log(k.LengthScale)}
}

// Bounds implements Kernel.
func (k *RBF) Bounds() []Interval {
	if k.LengthScaleBounds.IsFixed() {
		return nil
	}
	return []Interval{k.LengthScaleBounds}
}

// CloneWithTheta implements Kernel.
func (k *RBF) CloneWithTheta(theta []float64) (Kernel, error) {
	clone := *k
	if k.LengthScaleBounds.IsFixed() {
		if len(theta) != 0 {
			return nil, errors.NewDimensionError("RBF.CloneWithTheta", 0, len(theta), 0)
		}
		return &clone, nil
	}
	if len(theta) != 1 {
		return nil, errors.NewDimensionError("RBF.CloneWithTheta", 1, len(theta), 0)
	}
	clone.LengthScale = math.Exp(theta[0])
	return &clone, nil
}

// Hyperparameters implements Kernel.
func (k *RBF) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{{Name: "length_scale", Value: k.LengthScale, Bounds: k.LengthScaleBounds}}
}

func (k *RBF) String() string {
	return fmt.Sprintf("RBF(length_scale=%.3g)", k.LengthScale)
}

// ---------------------------------------------------------------------------
// WhiteKernel
// ---------------------------------------------------------------------------

// WhiteKernel models independent observation noise:
//
//	k(x, y) = noise_level  if x and y are the same training row, else 0.
//
// It contributes only to the diagonal of the symmetric self-covariance
// Eval(X, nil); the cross-covariance against any other matrix is zero.
type WhiteKernel struct {
	NoiseLevel       float64
	NoiseLevelBounds Interval
}

// NewWhiteKernel creates a WhiteKernel with the default search bounds.
func NewWhiteKernel(noiseLevel float64) (*WhiteKernel, error) {
	return NewWhiteKernelWithBounds(noiseLevel, defaultBounds)
}

// NewWhiteKernelWithBounds creates a WhiteKernel with explicit noise bounds.
func NewWhiteKernelWithBounds(noiseLevel float64, bounds Interval) (*WhiteKernel, error) {
	if err := validatePositive("noise_level", noiseLevel); err != nil {
		return nil, err
	}
	if err := bounds.validate("noise_level"); err != nil {
		return nil, err
	}
	return &WhiteKernel{NoiseLevel: noiseLevel, NoiseLevelBounds: bounds}, nil
}

// Eval implements Kernel.
func (k *WhiteKernel) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	if Y == nil {
		n, _ := X.Dims()
		if n == 0 {
			return nil, errors.NewModelError("WhiteKernel.Eval", "empty input", errors.ErrEmptyData)
		}
		K := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			K.Set(i, i, k.NoiseLevel)
		}
		return K, nil
	}
	if err := checkFeatureDims(X, Y); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	m, _ := Y.Dims()
	if n == 0 || m == 0 {
		return nil, errors.NewModelError("WhiteKernel.Eval", "empty input", errors.ErrEmptyData)
	}
	return mat.NewDense(n, m, nil), nil
}

// Diag implements Kernel.
func (k *WhiteKernel) Diag(X mat.Matrix) (*mat.VecDense, error) {
	return constDiag(X, k.NoiseLevel), nil
}

// Theta implements Kernel.
func (k *WhiteKernel) Theta() []float64 {
	if k.NoiseLevelBounds.IsFixed() {
		return nil
	}
	return []float64{math.Log(k.NoiseLevel)}
}

// Bounds implements Kernel.
func (k *WhiteKernel) Bounds() []Interval {
	if k.NoiseLevelBounds.IsFixed() {
		return nil
	}
	return []Interval{k.NoiseLevelBounds}
}

// CloneWithTheta implements Kernel.
func (k *WhiteKernel) CloneWithTheta(theta []float64) (Kernel, error) {
	clone := *k
	if k.NoiseLevelBounds.IsFixed() {
		if len(theta) != 0 {
			return nil, errors.NewDimensionError("WhiteKernel.CloneWithTheta", 0, len(theta), 0)
		}
		return &clone, nil
	}
	if len(theta) != 1 {
		return nil, errors.NewDimensionError("WhiteKernel.CloneWithTheta", 1, len(theta), 0)
	}
	clone.NoiseLevel = math.Exp(theta[0])
	return &clone, nil
}

// Hyperparameters implements Kernel.
func (k *WhiteKernel) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{{Name: "noise_level", Value: k.NoiseLevel, Bounds: k.NoiseLevelBounds}}
}

func (k *WhiteKernel) String() string {
	return fmt.Sprintf("WhiteKernel(noise_level=%.3g)", k.NoiseLevel)
}

// ---------------------------------------------------------------------------
// RationalQuadratic
// ---------------------------------------------------------------------------

// RationalQuadratic is a scale mixture of RBF kernels:
//
//	k(x, y) = (1 + ||x-y||² / (2·α·l²))^(-α)
type RationalQuadratic struct {
	LengthScale       float64
	Alpha             float64
	LengthScaleBounds Interval
	AlphaBounds       Interval
}

// NewRationalQuadratic creates a RationalQuadratic kernel with default bounds.
func NewRationalQuadratic(lengthScale, alpha float64) (*RationalQuadratic, error) {
	return NewRationalQuadraticWithBounds(lengthScale, alpha, defaultBounds, defaultBounds)
}

// NewRationalQuadraticWithBounds creates a RationalQuadratic kernel with
// explicit bounds for both hyperparameters.
func NewRationalQuadraticWithBounds(lengthScale, alpha float64, lengthScaleBounds, alphaBounds Interval) (*RationalQuadratic, error) {
	if err := validatePositive("length_scale", lengthScale); err != nil {
		return nil, err
	}
	if err := validatePositive("alpha", alpha); err != nil {
		return nil, err
	}
	if err := lengthScaleBounds.validate("length_scale"); err != nil {
		return nil, err
	}
	if err := alphaBounds.validate("alpha"); err != nil {
		return nil, err
	}
	return &RationalQuadratic{
		LengthScale:       lengthScale,
		Alpha:             alpha,
		LengthScaleBounds: lengthScaleBounds,
		AlphaBounds:       alphaBounds,
	}, nil
}

// Eval implements Kernel.
func (k *RationalQuadratic) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	denom := 2 * k.Alpha * k.LengthScale * k.LengthScale
	alpha := k.Alpha
	return evalPairwise(X, Y, func(d2 float64) float64 {
		return math.Pow(1+d2/denom, -alpha)
	})
}

// Diag implements Kernel.
func (k *RationalQuadratic) Diag(X mat.Matrix) (*mat.VecDense, error) {
	return constDiag(X, 1.0), nil
}

// Theta implements Kernel.
func (k *RationalQuadratic) Theta() []float64 {
	var theta []float64
	if !k.LengthScaleBounds.IsFixed() {
		theta = append(theta, math.Log(k.LengthScale))
	}
	if !k.AlphaBounds.IsFixed() {
		theta = append(theta, math.Log(k.Alpha))
	}
	return theta
}

// Bounds implements Kernel.
func (k *RationalQuadratic) Bounds() []Interval {
	var bounds []Interval
	if !k.LengthScaleBounds.IsFixed() {
		bounds = append(bounds, k.LengthScaleBounds)
	}
	if !k.AlphaBounds.IsFixed() {
		bounds = append(bounds, k.AlphaBounds)
	}
	return bounds
}

// CloneWithTheta implements Kernel.
func (k *RationalQuadratic) CloneWithTheta(theta []float64) (Kernel, error) {
	clone := *k
	want := len(k.Theta())
	if len(theta) != want {
		return nil, errors.NewDimensionError("RationalQuadratic.CloneWithTheta", want, len(theta), 0)
	}
	i := 0
	if !k.LengthScaleBounds.IsFixed() {
		clone.LengthScale = math.Exp(theta[i])
		i++
	}
	if !k.AlphaBounds.IsFixed() {
		clone.Alpha = math.Exp(theta[i])
	}
	return &clone, nil
}

// Hyperparameters implements Kernel.
func (k *RationalQuadratic) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "length_scale", Value: k.LengthScale, Bounds: k.LengthScaleBounds},
		{Name: "alpha", Value: k.Alpha, Bounds: k.AlphaBounds},
	}
}

func (k *RationalQuadratic) String() string {
	return fmt.Sprintf("RationalQuadratic(length_scale=%.3g, alpha=%.3g)", k.LengthScale, k.Alpha)
}

// ---------------------------------------------------------------------------
// ExpSineSquared
// ---------------------------------------------------------------------------

// ExpSineSquared is the periodic kernel:
//
//	k(x, y) = exp(-2 · sin²(π·||x-y|| / p) / l²)
//
// The periodicity p is a free positive scalar independent of the length
// scale l.
type ExpSineSquared struct {
	LengthScale       float64
	Periodicity       float64
	LengthScaleBounds Interval
	PeriodicityBounds Interval
}

// NewExpSineSquared creates an ExpSineSquared kernel with default bounds.
func NewExpSineSquared(lengthScale, periodicity float64) (*ExpSineSquared, error) {
	return NewExpSineSquaredWithBounds(lengthScale, periodicity, defaultBounds, defaultBounds)
}

// NewExpSineSquaredWithBounds creates an ExpSineSquared kernel with explicit
// bounds for both hyperparameters.
func NewExpSineSquaredWithBounds(lengthScale, periodicity float64, lengthScaleBounds, periodicityBounds Interval) (*ExpSineSquared, error) {
	if err := validatePositive("length_scale", lengthScale); err != nil {
		return nil, err
	}
	if err := validatePositive("periodicity", periodicity); err != nil {
		return nil, err
	}
	if err := lengthScaleBounds.validate("length_scale"); err != nil {
		return nil, err
	}
	if err := periodicityBounds.validate("periodicity"); err != nil {
		return nil, err
	}
	return &ExpSineSquared{
		LengthScale:       lengthScale,
		Periodicity:       periodicity,
		LengthScaleBounds: lengthScaleBounds,
		PeriodicityBounds: periodicityBounds,
	}, nil
}

// Eval implements Kernel.
func (k *ExpSineSquared) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	l2 := k.LengthScale * k.LengthScale
	p := k.Periodicity
	return evalPairwise(X, Y, func(d2 float64) float64 {
		s := math.Sin(math.Pi * math.Sqrt(d2) / p)
		return math.Exp(-2 * s * s / l2)
	})
}

// Diag implements Kernel.
func (k *ExpSineSquared) Diag(X mat.Matrix) (*mat.VecDense, error) {
	return constDiag(X, 1.0), nil
}

// Theta implements Kernel.
func (k *ExpSineSquared) Theta() []float64 {
	var theta []float64
	if !k.LengthScaleBounds.IsFixed() {
		theta = append(theta, math.Log(k.LengthScale))
	}
	if !k.PeriodicityBounds.IsFixed() {
		theta = append(theta, math.Log(k.Periodicity))
	}
	return theta
}

// Bounds implements Kernel.
func (k *ExpSineSquared) Bounds() []Interval {
	var bounds []Interval
	if !k.LengthScaleBounds.IsFixed() {
		bounds = append(bounds, k.LengthScaleBounds)
	}
	if !k.PeriodicityBounds.IsFixed() {
		bounds = append(bounds, k.PeriodicityBounds)
	}
	return bounds
}

// CloneWithTheta implements Kernel.
func (k *ExpSineSquared) CloneWithTheta(theta []float64) (Kernel, error) {
	clone := *k
	want := len(k.Theta())
	if len(theta) != want {
		return nil, errors.NewDimensionError("ExpSineSquared.CloneWithTheta", want, len(theta), 0)
	}
	i := 0
	if !k.LengthScaleBounds.IsFixed() {
		clone.LengthScale = math.Exp(theta[i])
		i++
	}
	if !k.PeriodicityBounds.IsFixed() {
		clone.Periodicity = math.Exp(theta[i])
	}
	return &clone, nil
}

// Hyperparameters implements Kernel.
func (k *ExpSineSquared) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "length_scale", Value: k.LengthScale, Bounds: k.LengthScaleBounds},
		{Name: "periodicity", Value: k.Periodicity, Bounds: k.PeriodicityBounds},
	}
}

func (k *ExpSineSquared) String() string {
	return fmt.Sprintf("ExpSineSquared(length_scale=%.3g, periodicity=%.3g)", k.LengthScale, k.Periodicity)
}

// ---------------------------------------------------------------------------
// ConstantKernel
// ---------------------------------------------------------------------------

// ConstantKernel has the same covariance value for every pair of inputs.
// Its main use is amplitude scaling of another kernel through Scaled.
type ConstantKernel struct {
	Value       float64
	ValueBounds Interval
}

// NewConstantKernel creates a ConstantKernel with default bounds.
func NewConstantKernel(value float64) (*ConstantKernel, error) {
	return NewConstantKernelWithBounds(value, defaultBounds)
}

// NewConstantKernelWithBounds creates a ConstantKernel with explicit bounds.
func NewConstantKernelWithBounds(value float64, bounds Interval) (*ConstantKernel, error) {
	if err := validatePositive("constant_value", value); err != nil {
		return nil, err
	}
	if err := bounds.validate("constant_value"); err != nil {
		return nil, err
	}
	return &ConstantKernel{Value: value, ValueBounds: bounds}, nil
}

// Eval implements Kernel.
func (k *ConstantKernel) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	v := k.Value
	return evalPairwise(X, Y, func(float64) float64 { return v })
}

// Diag implements Kernel.
func (k *ConstantKernel) Diag(X mat.Matrix) (*mat.VecDense, error) {
	return constDiag(X, k.Value), nil
}

// Theta implements Kernel.
func (k *ConstantKernel) Theta() []float64 {
	if k.ValueBounds.IsFixed() {
		return nil
	}
	return []float64{math.Log(k.Value)}
}

// Bounds implements Kernel.
func (k *ConstantKernel) Bounds() []Interval {
	if k.ValueBounds.IsFixed() {
		return nil
	}
	return []Interval{k.ValueBounds}
}

// CloneWithTheta implements Kernel.
func (k *ConstantKernel) CloneWithTheta(theta []float64) (Kernel, error) {
	clone := *k
	if k.ValueBounds.IsFixed() {
		if len(theta) != 0 {
			return nil, errors.NewDimensionError("ConstantKernel.CloneWithTheta", 0, len(theta), 0)
		}
		return &clone, nil
	}
	if len(theta) != 1 {
		return nil, errors.NewDimensionError("ConstantKernel.CloneWithTheta", 1, len(theta), 0)
	}
	clone.Value = math.Exp(theta[0])
	return &clone, nil
}

// Hyperparameters implements Kernel.
func (k *ConstantKernel) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{{Name: "constant_value", Value: k.Value, Bounds: k.ValueBounds}}
}

func (k *ConstantKernel) String() string {
	return fmt.Sprintf("%.3g", k.Value)
}

// ---------------------------------------------------------------------------
// Composition
// ---------------------------------------------------------------------------

// Sum is the elementwise sum of two kernels. Build with SumOf.
type Sum struct {
	Left, Right Kernel
}

// SumOf composes two kernels into their elementwise sum.
func SumOf(left, right Kernel) *Sum {
	return &Sum{Left: left, Right: right}
}

// Product is the elementwise product of two kernels. Build with ProductOf.
type Product struct {
	Left, Right Kernel
}

// ProductOf composes two kernels into their elementwise product.
func ProductOf(left, right Kernel) *Product {
	return &Product{Left: left, Right: right}
}

// Scaled scales a kernel by the constant variance c², mirroring the
// `c**2 * k` amplitude idiom: the result is ConstantKernel(c²) * k with the
// constant's default search bounds.
func Scaled(c float64, k Kernel) (Kernel, error) {
	if err := validatePositive("constant_scale", c); err != nil {
		return nil, err
	}
	ck, err := NewConstantKernel(c * c)
	if err != nil {
		return nil, err
	}
	return ProductOf(ck, k), nil
}

// ScaledFixed is Scaled with the amplitude excluded from optimization.
func ScaledFixed(c float64, k Kernel) (Kernel, error) {
	if err := validatePositive("constant_scale", c); err != nil {
		return nil, err
	}
	ck, err := NewConstantKernelWithBounds(c*c, Fixed())
	if err != nil {
		return nil, err
	}
	return ProductOf(ck, k), nil
}

// Eval implements Kernel.
func (k *Sum) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	left, err := k.Left.Eval(X, Y)
	if err != nil {
		return nil, err
	}
	right, err := k.Right.Eval(X, Y)
	if err != nil {
		return nil, err
	}
	left.Add(left, right)
	return left, nil
}

// Diag implements Kernel.
func (k *Sum) Diag(X mat.Matrix) (*mat.VecDense, error) {
	left, err := k.Left.Diag(X)
	if err != nil {
		return nil, err
	}
	right, err := k.Right.Diag(X)
	if err != nil {
		return nil, err
	}
	left.AddVec(left, right)
	return left, nil
}

// Theta implements Kernel.
func (k *Sum) Theta() []float64 {
	return append(k.Left.Theta(), k.Right.Theta()...)
}

// Bounds implements Kernel.
func (k *Sum) Bounds() []Interval {
	return append(k.Left.Bounds(), k.Right.Bounds()...)
}

// CloneWithTheta implements Kernel.
func (k *Sum) CloneWithTheta(theta []float64) (Kernel, error) {
	left, right, err := cloneParts("Sum", k.Left, k.Right, theta)
	if err != nil {
		return nil, err
	}
	return &Sum{Left: left, Right: right}, nil
}

// Hyperparameters implements Kernel.
func (k *Sum) Hyperparameters() []Hyperparameter {
	return append(k.Left.Hyperparameters(), k.Right.Hyperparameters()...)
}

func (k *Sum) String() string {
	return fmt.Sprintf("%s + %s", k.Left, k.Right)
}

// Eval implements Kernel.
func (k *Product) Eval(X, Y mat.Matrix) (*mat.Dense, error) {
	left, err := k.Left.Eval(X, Y)
	if err != nil {
		return nil, err
	}
	right, err := k.Right.Eval(X, Y)
	if err != nil {
		return nil, err
	}
	left.MulElem(left, right)
	return left, nil
}

// Diag implements Kernel.
func (k *Product) Diag(X mat.Matrix) (*mat.VecDense, error) {
	left, err := k.Left.Diag(X)
	if err != nil {
		return nil, err
	}
	right, err := k.Right.Diag(X)
	if err != nil {
		return nil, err
	}
	left.MulElemVec(left, right)
	return left, nil
}

// Theta implements Kernel.
func (k *Product) Theta() []float64 {
	return append(k.Left.Theta(), k.Right.Theta()...)
}

// Bounds implements Kernel.
func (k *Product) Bounds() []Interval {
	return append(k.Left.Bounds(), k.Right.Bounds()...)
}

// CloneWithTheta implements Kernel.
func (k *Product) CloneWithTheta(theta []float64) (Kernel, error) {
	left, right, err := cloneParts("Product", k.Left, k.Right, theta)
	if err != nil {
		return nil, err
	}
	return &Product{Left: left, Right: right}, nil
}

// Hyperparameters implements Kernel.
func (k *Product) Hyperparameters() []Hyperparameter {
	return append(k.Left.Hyperparameters(), k.Right.Hyperparameters()...)
}

func (k *Product) String() string {
	return fmt.Sprintf("%s * %s", parenthesize(k.Left), parenthesize(k.Right))
}

// cloneParts splits theta between the two children of a composite kernel.
func cloneParts(op string, left, right Kernel, theta []float64) (Kernel, Kernel, error) {
	nl := len(left.Theta())
	nr := len(right.Theta())
	if len(theta) != nl+nr {
		return nil, nil, errors.NewDimensionError(op+".CloneWithTheta", nl+nr, len(theta), 0)
	}
	newLeft, err := left.CloneWithTheta(theta[:nl])
	if err != nil {
		return nil, nil, err
	}
	newRight, err := right.CloneWithTheta(theta[nl:])
	if err != nil {
		return nil, nil, err
	}
	return newLeft, newRight, nil
}

func parenthesize(k Kernel) string {
	if _, ok := k.(*Sum); ok {
		return fmt.Sprintf("(%s)", k)
	}
	return k.String()
}
