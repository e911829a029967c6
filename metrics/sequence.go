package metrics

import (
	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// LevenshteinDistance は2つの系列間の編集距離を計算する
//
// Wikipediaのアルゴリズムをメモリ最適化した実装で、
// min(len(s1), len(s2))+1 長のローリング行を2本だけ保持する。
func LevenshteinDistance[T comparable](s1, s2 []T) int {
	// 短い方を内側ループに回してメモリを節約する
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	distances := make([]int, len(s1)+1)
	for i := range distances {
		distances[i] = i
	}

	newDistances := make([]int, len(s1)+1)
	for index2 := range s2 {
		newDistances[0] = index2 + 1
		for index1 := range s1 {
			if s1[index1] == s2[index2] {
				newDistances[index1+1] = distances[index1]
			} else {
				m := distances[index1]
				if distances[index1+1] < m {
					m = distances[index1+1]
				}
				if newDistances[index1] < m {
					m = newDistances[index1]
				}
				newDistances[index1+1] = 1 + m
			}
		}
		distances, newDistances = newDistances, distances
	}
	return distances[len(s1)]
}

// LevenshteinDistanceString は2つの文字列間の編集距離をルーン単位で計算する
func LevenshteinDistanceString(s1, s2 string) int {
	return LevenshteinDistance([]rune(s1), []rune(s2))
}

// LERPerPair は系列ペアごとのラベリング誤り率を計算する
//
// 各ペアの誤り率は編集距離を正解系列長で割った値。
// 単語誤り率（WER）や音素誤り率（PER）と同じアルゴリズム。
//
// パラメータ:
//   - yTrue: 正解系列のリスト
//   - yPred: 予測系列のリスト
//
// 戻り値:
//   - []float64: ペアごとの誤り率
//   - error: 系列数の不一致、または空の正解系列がある場合
func LERPerPair[T comparable](yTrue, yPred [][]T) ([]float64, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("LER", len(yTrue), len(yPred), 0)
	}
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("LER", "empty sequence list")
	}

	results := make([]float64, len(yTrue))
	for i := range yTrue {
		if len(yTrue[i]) == 0 {
			return nil, errors.NewValueError("LER", "empty reference sequence")
		}
		dist := LevenshteinDistance(yTrue[i], yPred[i])
		results[i] = float64(dist) / float64(len(yTrue[i]))
	}
	return results, nil
}

// LER は全系列ペアの平均ラベリング誤り率を計算する
func LER[T comparable](yTrue, yPred [][]T) (float64, error) {
	results, err := LERPerPair(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := 0.0
	for _, v := range results {
		mean += v
	}
	return mean / float64(len(results)), nil
}
