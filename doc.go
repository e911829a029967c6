// Package sprec provides batch speaker and language recognition primitives
// for Go: vector normalization, Probabilistic Linear Discriminant Analysis
// (PLDA) and NIST-style detection cost metrics.
//
// The library follows a scikit-learn-like estimator design built on top of
// gonum dense matrices: estimators are created with explicit parameters,
// fitted with Fit, and then used through Transform or PredictLogProba.
//
// # Quick Start
//
// Fitting a PLDA model and scoring trials:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/sprec/metrics"
//	    "github.com/YuminosukeSato/sprec/plda"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // X: [num_samples, feat_dim] embeddings, y: class label per row
//	    X := mat.NewDense(6, 4, []float64{
//	        1.0, 0.1, 0.0, 0.2,
//	        0.9, 0.2, 0.1, 0.1,
//	        1.1, 0.0, 0.2, 0.0,
//	        0.0, 1.0, 0.9, 0.1,
//	        0.1, 0.9, 1.1, 0.2,
//	        0.2, 1.1, 1.0, 0.0,
//	    })
//	    y := []int{0, 0, 0, 1, 1, 1}
//
//	    model, err := plda.New(plda.DefaultParams(2))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    scores, err := model.PredictLogProba(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _, total, err := metrics.Cavg(scores, y, nil, 0.5, 1, 1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Cavg:", total)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - plda: the PLDA estimator (EM and closed-form fitting, LLR scoring)
//   - preprocessing: VectorNormalizer (centering, WCCN, unit-length)
//   - metrics: Cavg, minDCF, DET/ROC/PR curves, Levenshtein error rates
//   - core/model: estimator state machine and gob persistence
//   - core/parallel: CPU-parallel helpers
//   - pkg/errors: structured error types and warnings
//   - pkg/log: structured logging
package sprec
