// Package metrics は回帰モデルの評価指標を提供します。
package metrics

import (
	"math"

	"github.com/YuminosukeSato/gpgo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// validateVectors は長さの検証を行う
func validateVectors(op string, yTrue, yPred *mat.VecDense) error {
	n := yTrue.Len()
	if n == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateVectors("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateVectors("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateVectors("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	// yTrueの平均を計算
	n := yTrue.Len()
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// columnVec は n×1 行列を VecDense へ変換する
func columnVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// MSEMatrix は行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := columnVec("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yPredVec, err := columnVec("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MSE(yTrueVec, yPredVec)
}

// R2ScoreMatrix は行列形式の入力に対してR²を計算する
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := columnVec("R2ScoreMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yPredVec, err := columnVec("R2ScoreMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(yTrueVec, yPredVec)
}
