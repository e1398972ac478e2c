// Package gpgo provides Gaussian process regression for Go, designed for
// backend services that need calibrated uncertainty alongside predictions.
//
// gpgo offers a scikit-learn-like API so that engineers familiar with
// Python's GaussianProcessRegressor can move their models to Go with the
// same kernels and the same fit/predict surface.
//
// # Features
//
// - Composable kernels: RBF, WhiteKernel, RationalQuadratic, ExpSineSquared and ConstantKernel combined with sums and products
// - Exact inference: Cholesky-based fitting with the log-marginal-likelihood exposed
// - Hyperparameter optimization: multi-start L-BFGS over the kernel's free parameters
// - Uncertainty: posterior standard deviations, full covariances and posterior sampling
// - Robust error handling: structured errors with stack traces and a warning hook for recoverable numerical conditions
//
// # Installation
//
// Install gpgo using go get:
//
//	go get github.com/YuminosukeSato/gpgo
//
// # Quick Start
//
// Fit a noisy sine and predict with uncertainty:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    gp "github.com/YuminosukeSato/gpgo/sklearn/gaussian_process"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
//	    y := mat.NewDense(5, 1, []float64{0, 0.84, 0.91, 0.14, -0.76})
//
//	    rbf, _ := gp.NewRBF(1.0)
//	    white, _ := gp.NewWhiteKernel(0.01)
//	    model := gp.NewGaussianProcessRegressor(
//	        gp.WithKernel(gp.SumOf(rbf, white)),
//	        gp.WithAlpha(1e-8),
//	    )
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    mean, std, err := model.PredictWithStd(mat.NewDense(1, 1, []float64{2.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("f(2.5) = %.3f ± %.3f\n", mean.AtVec(0), 2*std.AtVec(0))
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - sklearn/gaussian_process: kernels and the GaussianProcessRegressor
//   - datasets: synthetic datasets for examples and tests
//   - metrics: evaluation metrics (MSE, RMSE, MAE, R²)
//   - preprocessing: data preprocessing utilities
//   - core/model: core interfaces and fitted-state management
//   - core/parallel: parallel processing utilities
//   - pkg/errors: structured errors and the warning system
//   - pkg/log: structured logging built on zerolog and slog
//
// # Warnings
//
// Recoverable conditions are reported through a process-wide hook instead of
// error returns, mirroring scikit-learn's warning system:
//
//	errors.SetWarningHandler(func(w error) {
//	    // route ConvergenceWarning etc. into your own logging
//	})
//
// By default warnings are emitted as structured zerolog events.
package gpgo
