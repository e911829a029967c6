package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

func testData() (*mat.Dense, []int) {
	X := mat.NewDense(6, 3, []float64{
		1.0, 2.0, 0.5,
		1.2, 1.7, 0.9,
		0.9, 2.4, 0.4,
		5.0, 1.0, 3.0,
		5.3, 0.7, 3.2,
		4.6, 1.3, 2.7,
	})
	y := []int{0, 0, 0, 1, 1, 1}
	return X, y
}

func TestVectorNormalizerUnitLength(t *testing.T) {
	X, y := testData()
	norm := NewVectorNormalizerDefault()

	result, err := norm.FitTransform(X, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, c := result.Dims()
	if r != 6 || c != 3 {
		t.Fatalf("Transform() dims = (%d, %d), want (6, 3)", r, c)
	}
	for i := 0; i < r; i++ {
		length := 0.0
		for j := 0; j < c; j++ {
			v := result.At(i, j)
			length += v * v
		}
		length = math.Sqrt(length)
		if !almostEqual(length, 1.0, 1e-9) {
			t.Errorf("row %d has length %v, want 1", i, length)
		}
	}
}

func TestVectorNormalizerCenteringOnly(t *testing.T) {
	X, _ := testData()
	norm := NewVectorNormalizer(true, false, false)

	result, err := norm.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// センタリング後の列平均はゼロ
	r, c := result.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += result.At(i, j)
		}
		if !almostEqual(sum/float64(r), 0, 1e-9) {
			t.Errorf("column %d mean = %v, want 0", j, sum/float64(r))
		}
	}
}

func TestVectorNormalizerUnitLengthIdempotent(t *testing.T) {
	X, _ := testData()
	norm := NewVectorNormalizer(false, false, true)

	once, err := norm.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := norm.Transform(once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, c := once.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !almostEqual(once.At(i, j), twice.At(i, j), 1e-12) {
				t.Errorf("unit-length normalization is not idempotent at (%d, %d)", i, j)
			}
		}
	}
}

func TestVectorNormalizerZeroVector(t *testing.T) {
	// ゼロベクトルは正規化で変化しない
	X := mat.NewDense(2, 2, []float64{
		0, 0,
		3, 4,
	})
	norm := NewVectorNormalizer(false, false, true)

	result, err := norm.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.At(0, 0) != 0 || result.At(0, 1) != 0 {
		t.Errorf("zero row changed to (%v, %v)", result.At(0, 0), result.At(0, 1))
	}
	if !almostEqual(result.At(1, 0), 0.6, 1e-9) || !almostEqual(result.At(1, 1), 0.8, 1e-9) {
		t.Errorf("row = (%v, %v), want (0.6, 0.8)", result.At(1, 0), result.At(1, 1))
	}
}

func TestVectorNormalizerWCCNWhitens(t *testing.T) {
	// WCCN適用後のクラス内共分散は単位行列になる
	X, y := testData()
	norm := NewVectorNormalizer(true, true, false)

	result, err := norm.FitTransform(X, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sw, err := WithinClassCovariance(result, y, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := sw.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !almostEqual(sw.At(i, j), want, 1e-6) {
				t.Errorf("whitened Sw[%d][%d] = %v, want %v", i, j, sw.At(i, j), want)
			}
		}
	}
}

func TestVectorNormalizerNotFitted(t *testing.T) {
	norm := NewVectorNormalizerDefault()
	X, _ := testData()

	_, err := norm.Transform(X)
	if err == nil {
		t.Fatal("Transform() expected error before Fit")
	}
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Transform() error = %v, want NotFittedError", err)
	}
}

func TestVectorNormalizerDimensionMismatch(t *testing.T) {
	X, y := testData()
	norm := NewVectorNormalizerDefault()
	if err := norm.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wide := mat.NewDense(2, 4, nil)
	_, err := norm.Transform(wide)
	if err == nil {
		t.Fatal("Transform() expected error for mismatched feature dimension")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Transform() error = %v, want DimensionError", err)
	}
}

func TestVectorNormalizerLabelMismatch(t *testing.T) {
	X, _ := testData()
	norm := NewVectorNormalizerDefault()
	if err := norm.Fit(X, []int{0, 1}); err == nil {
		t.Error("Fit() expected error when labels do not match the sample count")
	}
}

func TestVectorNormalizerEmptyData(t *testing.T) {
	norm := NewVectorNormalizerDefault()
	if err := norm.Fit(&mat.Dense{}, nil); err == nil {
		t.Error("Fit() expected error for empty data")
	}
}

func TestVectorNormalizerString(t *testing.T) {
	norm := NewVectorNormalizer(true, false, true)
	want := "VectorNormalizer(centering=true, wccn=false, unit_length=true)"
	if got := norm.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
