package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// UniqueClasses はラベルベクトルから昇順のクラス集合を抽出する
func UniqueClasses(y []int) []int {
	seen := make(map[int]struct{}, len(y))
	classes := make([]int, 0, len(y))
	for _, label := range y {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			classes = append(classes, label)
		}
	}
	sort.Ints(classes)
	return classes
}

// ClassAverages は各クラスの平均ベクトルを計算する
//
// パラメータ:
//   - X: データ行列 (n_samples × n_features)
//   - y: クラスラベル (n_samples)
//   - classes: クラス集合（昇順）。nilの場合はyから計算する
//
// 戻り値:
//   - *mat.Dense: クラス平均行列 (n_classes × n_features)
//   - error: エラーが発生した場合
func ClassAverages(X mat.Matrix, y []int, classes []int) (*mat.Dense, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("ClassAverages", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("ClassAverages", r, len(y), 0)
	}
	if classes == nil {
		classes = UniqueClasses(y)
	}

	index := make(map[int]int, len(classes))
	for i, clz := range classes {
		index[clz] = i
	}

	avg := mat.NewDense(len(classes), c, nil)
	counts := make([]float64, len(classes))
	for i := 0; i < r; i++ {
		k, ok := index[y[i]]
		if !ok {
			return nil, errors.NewValueError("ClassAverages", "label not present in the class set")
		}
		counts[k]++
		for j := 0; j < c; j++ {
			avg.Set(k, j, avg.At(k, j)+X.At(i, j))
		}
	}
	for k := range classes {
		if counts[k] == 0 {
			return nil, errors.NewValueError("ClassAverages", "class without samples")
		}
		for j := 0; j < c; j++ {
			avg.Set(k, j, avg.At(k, j)/counts[k])
		}
	}
	return avg, nil
}

// ClassCounts は各クラスのサンプル数を返す
func ClassCounts(y []int, classes []int) []int {
	index := make(map[int]int, len(classes))
	for i, clz := range classes {
		index[clz] = i
	}
	counts := make([]int, len(classes))
	for _, label := range y {
		if k, ok := index[label]; ok {
			counts[k]++
		}
	}
	return counts
}

// WithinClassCovariance はプールされたクラス内共分散行列を計算する
//
// Sw = (1/n) * Σ_c Σ_{i∈c} (x_i − μ_c)(x_i − μ_c)^T
//
// パラメータ:
//   - X: データ行列 (n_samples × n_features)
//   - y: クラスラベル (n_samples)
//   - classes: クラス集合（昇順）。nilの場合はyから計算する
//
// 戻り値:
//   - *mat.SymDense: クラス内共分散行列 (n_features × n_features)
//   - error: エラーが発生した場合
func WithinClassCovariance(X mat.Matrix, y []int, classes []int) (*mat.SymDense, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("WithinClassCovariance", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("WithinClassCovariance", r, len(y), 0)
	}
	if classes == nil {
		classes = UniqueClasses(y)
	}

	avg, err := ClassAverages(X, y, classes)
	if err != nil {
		return nil, err
	}
	index := make(map[int]int, len(classes))
	for i, clz := range classes {
		index[clz] = i
	}

	// クラス平均を引いた残差の外積を累積する
	sw := mat.NewSymDense(c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		k := index[y[i]]
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j) - avg.At(k, j)
		}
		sw.SymRankOne(sw, 1, mat.NewVecDense(c, row))
	}
	for i := 0; i < c; i++ {
		for j := i; j < c; j++ {
			sw.SetSym(i, j, sw.At(i, j)/float64(r))
		}
	}
	return sw, nil
}

// WhiteningMatrix は共分散行列Sから白色化行列Wを計算する
//
// W は inv(S) の下三角Cholesky因子であり、W^T * S * W = I を満たす。
// X * W を適用するとクラス内の広がりが等方化される（WCCN）。
//
// 戻り値:
//   - *mat.Dense: 白色化行列 (n_features × n_features)
//   - error: Sが特異または正定値でない場合
func WhiteningMatrix(S *mat.SymDense) (*mat.Dense, error) {
	n := S.SymmetricDim()

	var chol mat.Cholesky
	if ok := chol.Factorize(S); !ok {
		return nil, errors.NewModelError("WhiteningMatrix", "covariance not positive definite", errors.ErrSingularMatrix)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, errors.NewModelError("WhiteningMatrix", "covariance inverse failed", err)
	}
	var cholInv mat.Cholesky
	if ok := cholInv.Factorize(&inv); !ok {
		return nil, errors.NewModelError("WhiteningMatrix", "inverse covariance not positive definite", errors.ErrSingularMatrix)
	}
	var l mat.TriDense
	cholInv.LTo(&l)

	w := mat.NewDense(n, n, nil)
	w.Copy(&l)
	return w, nil
}
