// Package metrics は話者・言語認識の検出コスト指標と系列誤り率を提供します。
// NIST LRE/SREスタイルの評価（Cavg、minDCF、DET曲線）を実装します。
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// Cavg はクラスタごとの平均検出コストを計算する
//
// NIST LRE-15言語検出タスクの定義に従い、対数尤度比行列から
// ミス率と誤受理率を閾値判定で集計する。
//
// パラメータ:
//   - yLLR: 対数尤度比行列 (n_samples × n_classes)
//   - yTrue: 真のクラスラベル (n_samples)。値は列インデックスに対応する
//   - clusterIdx: クラスタごとの列インデックスのリスト。nilの場合は全クラスで1クラスタ
//   - pTar: ターゲット試行の事前確率
//   - cFA: 誤受理のコスト
//   - cMiss: 誤棄却のコスト
//
// 戻り値:
//   - []float64: クラスタごとの平均コスト（百分率）
//   - float64: 全クラスタの平均コスト
//   - error: エラーが発生した場合
func Cavg(yLLR mat.Matrix, yTrue []int, clusterIdx [][]int, pTar, cFA, cMiss float64) ([]float64, float64, error) {
	r, c := yLLR.Dims()
	if r == 0 || c == 0 {
		return nil, 0, errors.NewValueError("Cavg", "empty score matrix")
	}
	if len(yTrue) != r {
		return nil, 0, errors.NewDimensionError("Cavg", r, len(yTrue), 0)
	}
	if pTar <= 0 || pTar >= 1 {
		return nil, 0, errors.NewValueError("Cavg", "Ptar must be in (0, 1)")
	}
	if cFA <= 0 || cMiss <= 0 {
		return nil, 0, errors.NewValueError("Cavg", "costs must be positive")
	}

	if len(clusterIdx) == 0 {
		all := make([]int, c)
		for j := range all {
			all[j] = j
		}
		clusterIdx = [][]int{all}
	}

	thresh := math.Log(cFA/cMiss) - math.Log(pTar/(1-pTar))

	clusterCost := make([]float64, len(clusterIdx))
	for k, cluster := range clusterIdx {
		L := len(cluster)
		if L == 0 {
			return nil, 0, errors.NewValueError("Cavg", "empty cluster")
		}
		fa := 0.0
		fr := 0.0
		for _, langI := range cluster {
			if langI < 0 || langI >= c {
				return nil, 0, errors.NewValueError("Cavg", "cluster index out of range")
			}
			// クラスiのサンプル数
			n := 0.0
			for s := 0; s < r; s++ {
				if yTrue[s] == langI {
					n++
				}
			}
			// ゼロ除算によるNaNを防ぐため1に切り上げる
			if n == 0 {
				errors.Warn(errors.NewUndefinedMetricWarning("Cavg", "class without trials", 0))
				n = 1
			}
			for _, langJ := range cluster {
				if langI == langJ {
					miss := 0.0
					for s := 0; s < r; s++ {
						if yTrue[s] == langI && yLLR.At(s, langI) < thresh {
							miss++
						}
					}
					fr += miss / n
				} else {
					falseAlarm := 0.0
					for s := 0; s < r; s++ {
						if yTrue[s] == langI && yLLR.At(s, langJ) >= thresh {
							falseAlarm++
						}
					}
					fa += falseAlarm / n
				}
			}
		}
		// 百分率コストに変換
		faTerm := 0.0
		if L > 1 {
			faTerm = cFA * (1 - pTar) * fa / float64(L-1)
		}
		clusterCost[k] = 100 * (cMiss*pTar*fr + faTerm) / float64(L)
	}

	total := 0.0
	for _, v := range clusterCost {
		total += v
	}
	total /= float64(len(clusterCost))
	return clusterCost, total, nil
}

// ComputeMinDCF は検出コスト関数の最小値を推定する
//
// DCFベクトル Cmiss*Pmiss*Ptrue + Cfa*Pfa*(1-Ptrue) を点ごとに評価し、
// 最小値とそれに対応する(Pmiss, Pfa)の組を返す。同値の場合は
// 最初に出現したインデックスを採用する。
func ComputeMinDCF(pMiss, pFA []float64, cMiss, cFA, pTrue float64) (float64, float64, float64, error) {
	if len(pMiss) == 0 {
		return 0, 0, 0, errors.NewValueError("ComputeMinDCF", "empty trade-off curve")
	}
	if len(pMiss) != len(pFA) {
		return 0, 0, 0, errors.NewDimensionError("ComputeMinDCF", len(pMiss), len(pFA), 0)
	}

	pFalse := 1 - pTrue
	minIdx := 0
	minVal := math.Inf(1)
	for i := range pMiss {
		dcf := cMiss*pMiss[i]*pTrue + cFA*pFA[i]*pFalse
		if dcf < minVal {
			minVal = dcf
			minIdx = i
		}
	}
	return minVal, pMiss[minIdx], pFA[minIdx], nil
}

// DETCurve はターゲット/ノンターゲットスコアからDET曲線を計算する
//
// スコアを昇順に連結ソートし（同値ではノンターゲット行が先）、累積和で
// 各閾値におけるミス率と誤警報率を求める。
//
// 戻り値:
//   - pMiss: ミス率（非減少）
//   - pFA: 誤警報率（非増加）
//   - thresholds: 昇順のスコア閾値。3配列は同じ長さを持つ
func DETCurve(trueScores, falseScores []float64) (pMiss, pFA, thresholds []float64, err error) {
	nbTrue := len(trueScores)
	nbFalse := len(falseScores)
	if nbTrue == 0 || nbFalse == 0 {
		return nil, nil, nil, errors.NewValueError("DETCurve", "both target and non-target scores are required")
	}
	total := nbTrue + nbFalse

	type trial struct {
		score  float64
		target bool
	}
	trials := make([]trial, 0, total)
	for _, s := range falseScores {
		trials = append(trials, trial{score: s})
	}
	for _, s := range trueScores {
		trials = append(trials, trial{score: s, target: true})
	}
	// 安定ソートにより同値スコアではノンターゲットが先に並ぶ
	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].score < trials[j].score
	})

	pMiss = make([]float64, total)
	pFA = make([]float64, total)
	thresholds = make([]float64, total)
	sumTrue := 0.0
	for i, t := range trials {
		if t.target {
			sumTrue++
		}
		sumFalse := float64(nbFalse) - (float64(i+1) - sumTrue)
		pMiss[i] = sumTrue / float64(nbTrue)
		pFA[i] = sumFalse / float64(nbFalse)
		thresholds[i] = t.score
	}
	return pMiss, pFA, thresholds, nil
}

// DETCurveFromLabels はラベルとスコアからDET曲線を計算する
// posLabelに一致するサンプルをターゲット試行として分割する
func DETCurveFromLabels(yTrue []int, yScore []float64, posLabel int) (pMiss, pFA, thresholds []float64, err error) {
	if len(yTrue) != len(yScore) {
		return nil, nil, nil, errors.NewDimensionError("DETCurveFromLabels", len(yTrue), len(yScore), 0)
	}
	var trueScores, falseScores []float64
	for i, label := range yTrue {
		if label == posLabel {
			trueScores = append(trueScores, yScore[i])
		} else {
			falseScores = append(falseScores, yScore[i])
		}
	}
	return DETCurve(trueScores, falseScores)
}

// ROCCurve はROC曲線（偽陽性率、真陽性率、閾値）を計算する
//
// 閾値はスコアの降順で、各閾値はスコアがその値以上のサンプルを
// 陽性と判定した場合の(FPR, TPR)に対応する。
func ROCCurve(yTrue []int, yScore []float64, posLabel int) (fpr, tpr, thresholds []float64, err error) {
	if len(yTrue) != len(yScore) {
		return nil, nil, nil, errors.NewDimensionError("ROCCurve", len(yTrue), len(yScore), 0)
	}
	if len(yTrue) == 0 {
		return nil, nil, nil, errors.NewValueError("ROCCurve", "empty input")
	}

	idx := make([]int, len(yScore))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore[idx[a]] > yScore[idx[b]]
	})

	posTotal := 0.0
	negTotal := 0.0
	for _, label := range yTrue {
		if label == posLabel {
			posTotal++
		} else {
			negTotal++
		}
	}
	if posTotal == 0 || negTotal == 0 {
		return nil, nil, nil, errors.NewValueError("ROCCurve", "both positive and negative samples are required")
	}

	tp := 0.0
	fp := 0.0
	for i, j := range idx {
		if yTrue[j] == posLabel {
			tp++
		} else {
			fp++
		}
		// 同値スコアの途中では点を出力しない
		if i+1 < len(idx) && yScore[idx[i+1]] == yScore[j] {
			continue
		}
		fpr = append(fpr, fp/negTotal)
		tpr = append(tpr, tp/posTotal)
		thresholds = append(thresholds, yScore[j])
	}
	return fpr, tpr, thresholds, nil
}

// AUC は台形則で曲線下面積を計算する
func AUC(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewDimensionError("AUC", len(x), len(y), 0)
	}
	if len(x) < 2 {
		return 0, errors.NewValueError("AUC", "at least 2 points are required")
	}
	area := 0.0
	for i := 1; i < len(x); i++ {
		area += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return math.Abs(area), nil
}

// PRCurve は適合率-再現率曲線を計算する
//
// sklearnの規約に従い、末尾に(precision=1, recall=0)の点を追加する。
func PRCurve(yTrue []int, yScore []float64, posLabel int) (precision, recall, thresholds []float64, err error) {
	if len(yTrue) != len(yScore) {
		return nil, nil, nil, errors.NewDimensionError("PRCurve", len(yTrue), len(yScore), 0)
	}
	if len(yTrue) == 0 {
		return nil, nil, nil, errors.NewValueError("PRCurve", "empty input")
	}

	idx := make([]int, len(yScore))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore[idx[a]] > yScore[idx[b]]
	})

	posTotal := 0.0
	for _, label := range yTrue {
		if label == posLabel {
			posTotal++
		}
	}
	if posTotal == 0 {
		return nil, nil, nil, errors.NewValueError("PRCurve", "no positive samples")
	}

	tp := 0.0
	fp := 0.0
	for i, j := range idx {
		if yTrue[j] == posLabel {
			tp++
		} else {
			fp++
		}
		if i+1 < len(idx) && yScore[idx[i+1]] == yScore[j] {
			continue
		}
		precision = append(precision, tp/(tp+fp))
		recall = append(recall, tp/posTotal)
		thresholds = append(thresholds, yScore[j])
	}
	// 終端の点を追加してグラフがx軸から始まるようにする
	precision = append(precision, 1)
	recall = append(recall, 0)
	return precision, recall, thresholds, nil
}

// ToLLR は確率行列を対数尤度比に変換する
//
// LLR = log(P(data|target) / P(data|non-target))
// 各行を正規化し、数値不安定を避けるためクリッピングを行う。
func ToLLR(x mat.Matrix) *mat.Dense {
	const eps = 10e-8
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += x.At(i, j)
		}
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if sum != 0 {
				v /= sum
			}
			v = errors.ClipValue(v, eps, 1-eps)
			out.Set(i, j, math.Log(v/(1-v)))
		}
	}
	return out
}

// ToLLH は確率行列を対数尤度に変換する
//
// LLH = log(P(data|target))
func ToLLH(x mat.Matrix) *mat.Dense {
	const eps = 10e-8
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += x.At(i, j)
		}
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if sum != 0 {
				v /= sum
			}
			v = errors.ClipValue(v, eps, 1-eps)
			out.Set(i, j, math.Log(v))
		}
	}
	return out
}
