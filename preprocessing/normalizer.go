// Package preprocessing は話者・言語認識向けの特徴量前処理を提供します。
// センタリング、クラス内共分散正規化（WCCN）、単位長正規化のパイプラインを実装します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/core/model"
	"github.com/YuminosukeSato/sprec/core/parallel"
	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// VectorNormalizer はi-vector/embedding向けの正規化パイプライン
// 変換は固定順序で適用される: 平均減算 → WCCN白色化 → 単位長正規化
type VectorNormalizer struct {
	model.BaseEstimator

	// Centering は全体平均を引くかどうか (デフォルト: true)
	Centering bool

	// WCCN はクラス内共分散正規化を適用するかどうか (デフォルト: true)
	WCCN bool

	// UnitLength は各サンプルをユークリッド長1に正規化するかどうか (デフォルト: true)
	UnitLength bool

	// Mean は全サンプルの特徴量平均 (Centering有効時のみ)
	Mean *mat.VecDense

	// W はクラス内共分散から導出した白色化行列 (WCCN有効時のみ)
	W *mat.Dense

	// NFeatures は特徴量の数
	NFeatures int
}

// NewVectorNormalizer は新しいVectorNormalizerを作成する
//
// パラメータ:
//   - centering: 全体平均を引くかどうか
//   - wccn: クラス内共分散正規化を適用するかどうか
//   - unitLength: 各サンプルを単位長に正規化するかどうか
//
// 使用例:
//
//	norm := preprocessing.NewVectorNormalizer(true, true, true)
//	err := norm.Fit(X, y)
//	XNorm, err := norm.Transform(X)
func NewVectorNormalizer(centering, wccn, unitLength bool) *VectorNormalizer {
	return &VectorNormalizer{
		Centering:  centering,
		WCCN:       wccn,
		UnitLength: unitLength,
	}
}

// NewVectorNormalizerDefault はデフォルト設定（全て有効）でVectorNormalizerを作成する
func NewVectorNormalizerDefault() *VectorNormalizer {
	return NewVectorNormalizer(true, true, true)
}

// Fit は訓練データから正規化パラメータ（平均、白色化行列）を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features)
//   - y: クラスラベル (n_samples)。WCCN無効時はnil可
//
// 戻り値:
//   - error: エラーが発生した場合
func (v *VectorNormalizer) Fit(X mat.Matrix, y []int) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("VectorNormalizer.Fit", "empty data", errors.ErrEmptyData)
	}
	if v.WCCN && len(y) != r {
		return errors.NewDimensionError("VectorNormalizer.Fit", r, len(y), 0)
	}

	v.NFeatures = c

	// 全体平均
	if v.Centering {
		mean := make([]float64, c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				mean[j] += X.At(i, j)
			}
		}
		for j := 0; j < c; j++ {
			mean[j] /= float64(r)
		}
		v.Mean = mat.NewVecDense(c, mean)
	} else {
		v.Mean = nil
	}

	// クラス内共分散からの白色化行列
	// クラス内共分散は全体平均の減算に不変なので、Xから直接計算してよい
	if v.WCCN {
		sw, err := WithinClassCovariance(X, y, nil)
		if err != nil {
			return err
		}
		w, err := WhiteningMatrix(sw)
		if err != nil {
			return err
		}
		v.W = w
	} else {
		v.W = nil
	}

	v.SetFitted()
	return nil
}

// Transform は学習済みパラメータを固定順序で適用する
//
// パラメータ:
//   - X: 変換するデータ (n_samples × n_features)
//
// 戻り値:
//   - *mat.Dense: 正規化されたデータ。特徴次元は変化しない
//   - error: 未学習または次元不一致の場合
func (v *VectorNormalizer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !v.IsFitted() {
		return nil, errors.NewNotFittedError("VectorNormalizer", "Transform")
	}

	r, c := X.Dims()
	if c != v.NFeatures {
		return nil, errors.NewDimensionError("VectorNormalizer.Transform", v.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Copy(X)

	if v.Centering {
		parallel.Parallelize(r, func(start, end int) {
			for i := start; i < end; i++ {
				for j := 0; j < c; j++ {
					result.Set(i, j, result.At(i, j)-v.Mean.AtVec(j))
				}
			}
		})
	}

	if v.WCCN {
		var projected mat.Dense
		projected.Mul(result, v.W)
		result.Copy(&projected)
	}

	if v.UnitLength {
		parallel.Parallelize(r, func(start, end int) {
			for i := start; i < end; i++ {
				norm := 0.0
				for j := 0; j < c; j++ {
					val := result.At(i, j)
					norm += val * val
				}
				norm = math.Sqrt(norm)
				// ゼロベクトルはそのまま残す
				if norm == 0 {
					continue
				}
				for j := 0; j < c; j++ {
					result.Set(i, j, result.At(i, j)/norm)
				}
			}
		})
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (v *VectorNormalizer) FitTransform(X mat.Matrix, y []int) (*mat.Dense, error) {
	if err := v.Fit(X, y); err != nil {
		return nil, err
	}
	return v.Transform(X)
}

// String は正規化器の文字列表現を返す
func (v *VectorNormalizer) String() string {
	if !v.IsFitted() {
		return fmt.Sprintf("VectorNormalizer(centering=%t, wccn=%t, unit_length=%t)",
			v.Centering, v.WCCN, v.UnitLength)
	}
	return fmt.Sprintf("VectorNormalizer(centering=%t, wccn=%t, unit_length=%t, n_features=%d)",
		v.Centering, v.WCCN, v.UnitLength, v.NFeatures)
}
