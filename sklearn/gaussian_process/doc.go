// Package gaussian_process provides Gaussian process regression with a
// scikit-learn compatible API.
//
// The package has two halves. The kernel layer is an immutable expression
// tree of covariance functions (RBF, WhiteKernel, RationalQuadratic,
// ExpSineSquared, ConstantKernel) composed with SumOf and ProductOf; each
// kernel exposes its free hyperparameters in log space through Theta and can
// be rebuilt at new values with CloneWithTheta. The regressor layer fits a
// GaussianProcessRegressor by Cholesky factorization of the training
// covariance and, when enabled, maximizes the log-marginal-likelihood over
// the kernel hyperparameters with multi-start L-BFGS.
//
// Basic usage:
//
//	kernel, _ := gaussian_process.NewRBF(1.0)
//	gpr := gaussian_process.NewGaussianProcessRegressor(
//		gaussian_process.WithKernel(kernel),
//		gaussian_process.WithAlpha(1e-6),
//	)
//	if err := gpr.Fit(X, y); err != nil {
//		log.Fatal(err)
//	}
//	mean, std, err := gpr.PredictWithStd(Xnew)
//
// Recoverable numerical conditions (optimizer non-convergence, negative
// predicted variances clipped to zero) are reported through the pkg/errors
// warning hook rather than returned as errors.
package gaussian_process
