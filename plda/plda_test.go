package plda

import (
	"math/rand"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// syntheticData draws well-separated Gaussian clusters: one centroid per
// class scaled by separation, unit-variance noise around it.
func syntheticData(numClasses, perClass, featDim int, separation float64, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))

	centroids := make([][]float64, numClasses)
	for c := range centroids {
		centroids[c] = make([]float64, featDim)
		for j := range centroids[c] {
			centroids[c][j] = separation * rng.NormFloat64()
		}
	}

	X := mat.NewDense(numClasses*perClass, featDim, nil)
	y := make([]int, numClasses*perClass)
	for c := 0; c < numClasses; c++ {
		for i := 0; i < perClass; i++ {
			row := c*perClass + i
			for j := 0; j < featDim; j++ {
				X.Set(row, j, centroids[c][j]+rng.NormFloat64())
			}
			y[row] = c
		}
	}
	return X, y
}

// sameVsCrossMeans averages the scores of matching and non-matching
// sample/class pairs.
func sameVsCrossMeans(scores *mat.Dense, y []int) (same, cross float64) {
	r, c := scores.Dims()
	var nSame, nCross float64
	for i := 0; i < r; i++ {
		for k := 0; k < c; k++ {
			if y[i] == k {
				same += scores.At(i, k)
				nSame++
			} else {
				cross += scores.At(i, k)
				nCross++
			}
		}
	}
	return same / nSame, cross / nCross
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"valid", DefaultParams(2), false},
		{"zero latent dimension", Params{NumPhi: 0, NumIter: 5}, true},
		{"negative latent dimension", Params{NumPhi: -1, NumIter: 5}, true},
		{"zero iterations", Params{NumPhi: 2, NumIter: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Error("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.IsFitted() || p.IsInitialized() {
				t.Error("New() should return a NotFitted estimator")
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams(10)
	if params.NumPhi != 10 {
		t.Errorf("NumPhi = %d, want 10", params.NumPhi)
	}
	if params.NumIter != 12 {
		t.Errorf("NumIter = %d, want 12", params.NumIter)
	}
	if !params.Centering || !params.WCCN || !params.UnitLength {
		t.Error("normalization steps should default to enabled")
	}
}

func TestInitializeRejectsLatentTooLarge(t *testing.T) {
	p, err := New(DefaultParams(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	X := mat.NewDense(4, 4, nil)
	err = p.Initialize(X, []int{0, 1})
	if err == nil {
		t.Fatal("Initialize() expected error for num_phi >= feat_dim")
	}
	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("Initialize() error = %v, want ValidationError", err)
	}
}

func TestFitRejectsLatentTooLarge(t *testing.T) {
	X, y := syntheticData(2, 10, 3, 4.0, 1)
	p, err := New(DefaultParams(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = p.Fit(X, y)
	if err == nil {
		t.Fatal("Fit() expected error for num_phi >= feat_dim")
	}
	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("Fit() error = %v, want ValidationError", err)
	}
}

func TestFitAndScore(t *testing.T) {
	X, y := syntheticData(3, 20, 5, 4.0, 42)

	p, err := New(DefaultParams(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if !p.IsFitted() {
		t.Fatal("estimator should be Fitted after Fit")
	}

	classes := p.Classes()
	if len(classes) != 3 || classes[0] != 0 || classes[1] != 1 || classes[2] != 2 {
		t.Errorf("Classes() = %v, want [0 1 2]", classes)
	}
	if p.FeatDim() != 5 {
		t.Errorf("FeatDim() = %d, want 5", p.FeatDim())
	}

	scores, err := p.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	r, c := scores.Dims()
	if r != 60 || c != 3 {
		t.Fatalf("scores dims = (%d, %d), want (60, 3)", r, c)
	}

	same, cross := sameVsCrossMeans(scores, y)
	if same <= cross {
		t.Errorf("same-class mean score %v should exceed cross-class mean %v", same, cross)
	}
}

func TestTransformDims(t *testing.T) {
	X, y := syntheticData(3, 20, 5, 4.0, 7)
	p, _ := New(DefaultParams(2))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	proj, err := p.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	r, c := proj.Dims()
	if r != 60 || c != 2 {
		t.Errorf("Transform() dims = (%d, %d), want (60, 2)", r, c)
	}
}

func TestFitDeterministic(t *testing.T) {
	X, y := syntheticData(3, 15, 5, 4.0, 99)

	p1, _ := New(DefaultParams(2))
	p2, _ := New(DefaultParams(2))
	if err := p1.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if err := p2.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	if !mat.EqualApprox(p1.Phi(), p2.Phi(), 1e-12) {
		t.Error("Phi should be identical for identical seeds and data")
	}
	if !mat.EqualApprox(p1.Sigma(), p2.Sigma(), 1e-12) {
		t.Error("Sigma should be identical for identical seeds and data")
	}

	s1, err := p1.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	s2, err := p2.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	if !mat.EqualApprox(s1, s2, 1e-12) {
		t.Error("scores should be identical for identical seeds and data")
	}
}

func TestFitMaximumLikelihood(t *testing.T) {
	X, y := syntheticData(3, 20, 5, 4.0, 21)

	p, _ := New(DefaultParams(2))
	if err := p.FitMaximumLikelihood(X, y); err != nil {
		t.Fatalf("FitMaximumLikelihood() error: %v", err)
	}
	if !p.IsFitted() {
		t.Fatal("estimator should be Fitted after FitMaximumLikelihood")
	}

	scores, err := p.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	same, cross := sameVsCrossMeans(scores, y)
	if same <= cross {
		t.Errorf("same-class mean score %v should exceed cross-class mean %v", same, cross)
	}
}

func TestFitDimensionLock(t *testing.T) {
	X5, y := syntheticData(3, 15, 5, 4.0, 3)
	p, _ := New(DefaultParams(2))
	if err := p.Fit(X5, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	X6, y6 := syntheticData(3, 15, 6, 4.0, 3)
	err := p.Fit(X6, y6)
	if err == nil {
		t.Fatal("Fit() expected error for a changed feature dimension")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Fit() error = %v, want DimensionError", err)
	}
}

func TestFitValidation(t *testing.T) {
	p, _ := New(DefaultParams(2))

	if err := p.Fit(&mat.Dense{}, nil); err == nil {
		t.Error("Fit() expected error for empty data")
	}
	X := mat.NewDense(4, 5, nil)
	if err := p.Fit(X, []int{0, 1}); err == nil {
		t.Error("Fit() expected error for mismatched label length")
	}
}

func TestNotFittedOperations(t *testing.T) {
	p, _ := New(DefaultParams(2))
	X := mat.NewDense(2, 5, nil)

	var notFitted *errors.NotFittedError

	if _, err := p.Transform(X); err == nil || !errors.As(err, &notFitted) {
		t.Errorf("Transform() error = %v, want NotFittedError", err)
	}
	if _, err := p.PredictLogProba(X); err == nil || !errors.As(err, &notFitted) {
		t.Errorf("PredictLogProba() error = %v, want NotFittedError", err)
	}
	if _, err := p.Snapshot(); err == nil || !errors.As(err, &notFitted) {
		t.Errorf("Snapshot() error = %v, want NotFittedError", err)
	}
	if err := p.Save("unused.gob"); err == nil || !errors.As(err, &notFitted) {
		t.Errorf("Save() error = %v, want NotFittedError", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	X, y := syntheticData(2, 15, 4, 4.0, 11)
	p, _ := New(DefaultParams(2))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	phi := p.Phi()
	original := phi.At(0, 0)
	phi.Set(0, 0, original+1000)
	if p.Phi().At(0, 0) != original {
		t.Error("mutating the Phi copy must not affect the model")
	}

	classes := p.Classes()
	classes[0] = 12345
	if p.Classes()[0] == 12345 {
		t.Error("mutating the Classes copy must not affect the model")
	}
}

func TestScoringCacheConsistency(t *testing.T) {
	X, y := syntheticData(2, 15, 4, 4.0, 13)
	p, _ := New(DefaultParams(2))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	// Sb + Sigma = St after the EM fit.
	var st mat.Dense
	st.Add(p.Sb(), p.Sigma())
	if !mat.EqualApprox(&st, p.St(), 1e-9) {
		t.Error("St should equal Sb + Sigma after fitting")
	}

	// Caches follow from Sb/St and are populated together.
	for name, m := range map[string]*mat.Dense{
		"Lambda": p.Lambda(), "Uk": p.Uk(), "QHat": p.QHat(), "XModel": p.XModel(),
	} {
		if m == nil {
			t.Errorf("%s cache should be populated after fitting", name)
		}
	}
}

func TestPredictLogProbaModel(t *testing.T) {
	X, y := syntheticData(3, 20, 5, 4.0, 17)
	p, _ := New(DefaultParams(2))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}

	// Raw per-class means as external enrollment vectors.
	xm := mat.NewDense(3, 5, nil)
	counts := make([]float64, 3)
	for i, clz := range y {
		counts[clz]++
		for j := 0; j < 5; j++ {
			xm.Set(clz, j, xm.At(clz, j)+X.At(i, j))
		}
	}
	for clz := 0; clz < 3; clz++ {
		for j := 0; j < 5; j++ {
			xm.Set(clz, j, xm.At(clz, j)/counts[clz])
		}
	}

	scores, err := p.PredictLogProbaModel(X, xm)
	if err != nil {
		t.Fatalf("PredictLogProbaModel() error: %v", err)
	}
	same, cross := sameVsCrossMeans(scores, y)
	if same <= cross {
		t.Errorf("same-class mean score %v should exceed cross-class mean %v", same, cross)
	}

	// The model vector count must match the locked class set.
	short := mat.NewDense(2, 5, nil)
	short.Copy(xm)
	if _, err := p.PredictLogProbaModel(X, short); err == nil {
		t.Error("PredictLogProbaModel() expected error for a wrong model vector count")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	X, y := syntheticData(3, 15, 5, 4.0, 23)
	p1, _ := New(DefaultParams(2))
	if err := p1.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	want, err := p1.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}

	snap, err := p1.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	p2, _ := New(DefaultParams(2))
	if err := p2.Restore(snap); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if !p2.IsFitted() {
		t.Fatal("restored estimator should be Fitted")
	}
	got, err := p2.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	if !mat.EqualApprox(want, got, 1e-12) {
		t.Error("restored model should score identically to the original")
	}
}

func TestRestoreRejectsMismatch(t *testing.T) {
	X, y := syntheticData(3, 15, 5, 4.0, 29)
	p1, _ := New(DefaultParams(2))
	if err := p1.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	snap, err := p1.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	// Latent dimension mismatch with the receiving configuration.
	p2, _ := New(DefaultParams(3))
	if err := p2.Restore(snap); err == nil {
		t.Error("Restore() expected error for a latent dimension mismatch")
	}

	// Corrupted matrix dimensions.
	bad := *snap
	bad.Phi.Rows = snap.Phi.Rows + 1
	p3, _ := New(DefaultParams(2))
	if err := p3.Restore(&bad); err == nil {
		t.Error("Restore() expected error for inconsistent matrix dimensions")
	}
}

func TestSaveLoad(t *testing.T) {
	X, y := syntheticData(3, 15, 5, 4.0, 31)
	p1, _ := New(DefaultParams(2))
	if err := p1.Fit(X, y); err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	want, err := p1.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}

	filename := filepath.Join(t.TempDir(), "plda.gob")
	if err := p1.Save(filename); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	p2, _ := New(DefaultParams(2))
	if err := p2.Load(filename); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got, err := p2.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba() error: %v", err)
	}
	if !mat.EqualApprox(want, got, 1e-12) {
		t.Error("loaded model should score identically to the original")
	}
}
