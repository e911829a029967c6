// Package plda implements Probabilistic Linear Discriminant Analysis for
// speaker and language recognition.
//
// PLDA is a generative latent-variable model that separates between-class
// variation (the eigenvoice subspace Phi) from within-class residual
// variation (Sigma). Fitting is available in two modes: an iterative EM
// re-estimation of Phi and Sigma, and a closed-form maximum-likelihood
// estimate from the class scatter matrices. A fitted model scores trials
// as pairwise log-likelihood ratios between the same-class and
// different-class hypotheses.
package plda

import (
	"context"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/core/model"
	"github.com/YuminosukeSato/sprec/core/parallel"
	"github.com/YuminosukeSato/sprec/pkg/errors"
	"github.com/YuminosukeSato/sprec/pkg/log"
	"github.com/YuminosukeSato/sprec/preprocessing"
)

// Params contains the PLDA hyperparameters.
type Params struct {
	// NumPhi is the dimensionality of the latent eigenvoice space.
	// Must be strictly smaller than the feature dimension.
	NumPhi int

	// NumIter is the number of EM iterations. EM always runs exactly
	// NumIter rounds; there is no convergence check.
	NumIter int

	// Centering subtracts the global mean before fitting (default true).
	Centering bool

	// WCCN applies within-class covariance normalization before fitting
	// (default true).
	WCCN bool

	// UnitLength rescales every sample to unit Euclidean length before
	// fitting (default true).
	UnitLength bool

	// Seed for the random initialization of Sigma and Phi.
	Seed int64
}

// DefaultParams returns the standard configuration for the given latent
// dimensionality.
func DefaultParams(numPhi int) Params {
	return Params{
		NumPhi:     numPhi,
		NumIter:    12,
		Centering:  true,
		WCCN:       true,
		UnitLength: true,
		Seed:       5218,
	}
}

// PLDA is the Probabilistic LDA estimator.
//
// The estimator moves through three states: NotFitted (fresh), Initialized
// (dimensions locked, parameters randomly initialized) and Fitted (scoring
// caches and per-class model vectors available). Transform and
// PredictLogProba require the Fitted state.
//
// All internal matrices are exclusively owned by the instance; accessors
// return copies so that the scoring caches can never go stale relative to
// Sb and St.
type PLDA struct {
	model.BaseEstimator

	params     Params
	normalizer *preprocessing.VectorNormalizer
	rng        *rand.Rand

	featDim int
	classes []int

	// Model parameters.
	sigma *mat.Dense // [featDim, featDim] residual (within-class) covariance
	phi   *mat.Dense // [featDim, numPhi] factor loading (eigenvoice) matrix
	sb    *mat.Dense // [featDim, featDim] between-class scatter
	st    *mat.Dense // [featDim, featDim] total scatter

	// Scoring caches, derived from Sb/St. Refreshed synchronously on every
	// state transition that changes Sb/St.
	lambda *mat.Dense // [numPhi, numPhi] diagonal
	uk     *mat.Dense // [featDim, numPhi]
	qHat   *mat.Dense // [numPhi, numPhi]

	// Per-class centroids in the projected latent space.
	xModel *mat.Dense // [numClasses, numPhi]

	logger log.Logger
}

// New creates a PLDA estimator with the given hyperparameters.
func New(params Params) (*PLDA, error) {
	if params.NumPhi < 1 {
		return nil, errors.NewValidationError("NumPhi", "must be at least 1", params.NumPhi)
	}
	if params.NumIter < 1 {
		return nil, errors.NewValidationError("NumIter", "must be at least 1", params.NumIter)
	}
	return &PLDA{
		params:     params,
		normalizer: preprocessing.NewVectorNormalizer(params.Centering, params.WCCN, params.UnitLength),
		rng:        rand.New(rand.NewSource(params.Seed)),
		logger:     log.GetLoggerWithName("plda"),
	}, nil
}

// NumPhi returns the latent space dimensionality.
func (p *PLDA) NumPhi() int { return p.params.NumPhi }

// FeatDim returns the locked feature dimension, or 0 before initialization.
func (p *PLDA) FeatDim() int { return p.featDim }

// NumClasses returns the number of classes locked at first fit.
func (p *PLDA) NumClasses() int { return len(p.classes) }

// Classes returns a copy of the ordered class identifiers.
func (p *PLDA) Classes() []int {
	out := make([]int, len(p.classes))
	copy(out, p.classes)
	return out
}

// Normalizer returns the internal normalization pipeline.
func (p *PLDA) Normalizer() *preprocessing.VectorNormalizer { return p.normalizer }

// Sigma returns a copy of the residual covariance matrix.
func (p *PLDA) Sigma() *mat.Dense { return copyMatrix(p.sigma) }

// Phi returns a copy of the factor loading matrix.
func (p *PLDA) Phi() *mat.Dense { return copyMatrix(p.phi) }

// Sb returns a copy of the between-class scatter matrix.
func (p *PLDA) Sb() *mat.Dense { return copyMatrix(p.sb) }

// St returns a copy of the total scatter matrix.
func (p *PLDA) St() *mat.Dense { return copyMatrix(p.st) }

// Lambda returns a copy of the cached diagonal scoring matrix.
func (p *PLDA) Lambda() *mat.Dense { return copyMatrix(p.lambda) }

// Uk returns a copy of the cached latent projection matrix.
func (p *PLDA) Uk() *mat.Dense { return copyMatrix(p.uk) }

// QHat returns a copy of the cached quadratic-form scoring matrix.
func (p *PLDA) QHat() *mat.Dense { return copyMatrix(p.qHat) }

// XModel returns a copy of the per-class latent centroids.
func (p *PLDA) XModel() *mat.Dense { return copyMatrix(p.xModel) }

func copyMatrix(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}

// Initialize locks the feature dimension and class set and allocates the
// randomly initialized model parameters. X must already be normalized; the
// internal normalizer must be fitted beforehand (Fit and
// FitMaximumLikelihood do both).
//
// On an already initialized estimator, Initialize only validates that the
// input dimensions agree with the locked state.
func (p *PLDA) Initialize(X mat.Matrix, classes []int) error {
	_, featDim := X.Dims()
	if p.State() == model.NotFitted {
		if featDim <= p.params.NumPhi {
			return errors.NewValidationError("NumPhi",
				"feature dimension must be greater than the latent dimension", p.params.NumPhi)
		}
		p.featDim = featDim
		p.classes = make([]int, len(classes))
		copy(p.classes, classes)

		// Residual covariance starts near (1/d)*I with dense Gaussian noise.
		sigma := mat.NewDense(featDim, featDim, nil)
		for i := 0; i < featDim; i++ {
			for j := 0; j < featDim; j++ {
				v := p.rng.NormFloat64()
				if i == j {
					v += 1.0 / float64(featDim)
				}
				sigma.Set(i, j, v)
			}
		}
		p.sigma = sigma

		// The eigenvoice matrix starts from normalized Gaussian draws so its
		// columns share the scale of the normalized feature space.
		seed := mat.NewDense(p.params.NumPhi, featDim, nil)
		for i := 0; i < p.params.NumPhi; i++ {
			for j := 0; j < featDim; j++ {
				seed.Set(i, j, p.rng.NormFloat64())
			}
		}
		seedNorm, err := p.normalizer.Transform(seed)
		if err != nil {
			return errors.Wrap(err, "initializing the eigenvoice matrix")
		}
		phi := mat.NewDense(featDim, p.params.NumPhi, nil)
		phi.Copy(seedNorm.T())
		p.phi = phi

		p.sb = mat.NewDense(featDim, featDim, nil)
		p.st = mat.NewDense(featDim, featDim, nil)
		p.SetInitialized()
		return nil
	}

	if p.featDim != featDim {
		return errors.NewDimensionError("PLDA.Initialize", p.featDim, featDim, 1)
	}
	if len(p.classes) != len(classes) {
		return errors.NewDimensionError("PLDA.Initialize", len(p.classes), len(classes), 0)
	}
	return nil
}

// FitMaximumLikelihood fits the model in one shot from the class scatter
// matrices: St is the total covariance of the normalized data, Sb is
// St minus the pooled within-class covariance.
func (p *PLDA) FitMaximumLikelihood(X mat.Matrix, y []int) error {
	r, _ := X.Dims()
	if r == 0 {
		return errors.NewModelError("PLDA.FitMaximumLikelihood", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return errors.NewDimensionError("PLDA.FitMaximumLikelihood", r, len(y), 0)
	}

	classes := preprocessing.UniqueClasses(y)
	Xn, err := p.normalizer.FitTransform(X, y)
	if err != nil {
		return err
	}
	if err := p.Initialize(Xn, classes); err != nil {
		return err
	}

	sw, err := preprocessing.WithinClassCovariance(Xn, y, classes)
	if err != nil {
		return err
	}
	st := totalCovariance(Xn)
	p.st = st
	sb := mat.NewDense(p.featDim, p.featDim, nil)
	sb.Sub(st, denseFromSym(sw))
	p.sb = sb

	if err := p.refreshScoringCache(); err != nil {
		return err
	}
	if err := p.updateModelVectors(Xn, y, classes); err != nil {
		return err
	}
	p.SetFitted()
	return nil
}

// Fit runs EM re-estimation of the eigenvoice subspace and the residual
// covariance. EM always runs exactly NumIter rounds with no early stop;
// the per-iteration log-likelihood is a debug diagnostic only.
func (p *PLDA) Fit(X mat.Matrix, y []int) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PLDA.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return errors.NewDimensionError("PLDA.Fit", r, len(y), 0)
	}

	classes := preprocessing.UniqueClasses(y)
	Xn, err := p.normalizer.FitTransform(X, y)
	if err != nil {
		return err
	}
	if err := p.Initialize(Xn, classes); err != nil {
		return err
	}
	counts := preprocessing.ClassCounts(y, classes)

	p.logger.Info("re-estimating the eigenvoice subspace",
		log.OperationKey, "fit",
		log.SamplesKey, r,
		log.FeaturesKey, p.featDim,
		log.ClassesKey, len(classes),
		log.LatentDimKey, p.params.NumPhi,
	)

	// Per-class sums of the normalized samples.
	index := make(map[int]int, len(classes))
	for i, clz := range classes {
		index[clz] = i
	}
	F := mat.NewDense(len(classes), p.featDim, nil)
	for i := 0; i < r; i++ {
		k := index[y[i]]
		for j := 0; j < p.featDim; j++ {
			F.Set(k, j, F.At(k, j)+Xn.At(i, j))
		}
	}

	var xSqr mat.Dense
	xSqr.Mul(Xn.T(), Xn)

	debugLLK := p.logger.Enabled(context.Background(), log.LevelDebug)
	for iter := 0; iter < p.params.NumIter; iter++ {
		start := time.Now()
		ey, eyy, err := p.expectation(F, counts)
		if err != nil {
			return errors.Wrapf(err, "EM expectation step, iteration %d", iter+1)
		}
		if err := p.maximization(&xSqr, F, ey, eyy, r); err != nil {
			return errors.Wrapf(err, "EM maximization step, iteration %d", iter+1)
		}
		elapsed := time.Since(start)

		if debugLLK {
			llk, err := p.computeLLK(Xn)
			if err != nil {
				return errors.Wrapf(err, "log-likelihood diagnostic, iteration %d", iter+1)
			}
			p.logger.Debug("EM iteration",
				log.IterationKey, iter+1,
				log.LogLikelihoodKey, llk,
				log.DurationMsKey, elapsed.Milliseconds(),
			)
		}
	}

	var sb mat.Dense
	sb.Mul(p.phi, p.phi.T())
	p.sb = &sb
	st := mat.NewDense(p.featDim, p.featDim, nil)
	st.Add(&sb, p.sigma)
	p.st = st

	if err := p.refreshScoringCache(); err != nil {
		return err
	}
	if err := p.updateModelVectors(Xn, y, classes); err != nil {
		return err
	}
	p.SetFitted()
	return nil
}

// updateModelVectors projects the per-class averages of the normalized
// training data into the latent space.
func (p *PLDA) updateModelVectors(Xn mat.Matrix, y []int, classes []int) error {
	avg, err := preprocessing.ClassAverages(Xn, y, classes)
	if err != nil {
		return err
	}
	var xm mat.Dense
	xm.Mul(avg, p.uk)
	p.xModel = &xm
	return nil
}

// Transform projects X through the normalizer and the cached Uk basis into
// the num_phi-dimensional latent space.
func (p *PLDA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "Transform")
	}
	Xn, err := p.normalizer.Transform(X)
	if err != nil {
		return nil, err
	}
	var proj mat.Dense
	proj.Mul(Xn, p.uk)
	return &proj, nil
}

// PredictLogProba scores X against the per-class model vectors extracted
// from the fitted data, returning a [num_samples, num_classes] matrix of
// log-likelihood ratios (higher means more likely same class).
func (p *PLDA) PredictLogProba(X mat.Matrix) (*mat.Dense, error) {
	return p.PredictLogProbaModel(X, nil)
}

// PredictLogProbaModel scores X against externally supplied model vectors.
// XModel is a [num_classes, feat_dim] matrix of raw (unnormalized) class
// representatives; if nil, the centroids from the fitted data are used.
func (p *PLDA) PredictLogProbaModel(X mat.Matrix, XModel mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "PredictLogProba")
	}

	var xm *mat.Dense
	if XModel == nil {
		xm = p.xModel
	} else {
		norm, err := p.normalizer.Transform(XModel)
		if err != nil {
			return nil, err
		}
		projected := &mat.Dense{}
		projected.Mul(norm, p.uk)
		xm = projected
	}
	modelRows, _ := xm.Dims()
	if modelRows != len(p.classes) {
		return nil, errors.NewDimensionError("PLDA.PredictLogProba", len(p.classes), modelRows, 0)
	}

	Xn, err := p.normalizer.Transform(X)
	if err != nil {
		return nil, err
	}
	var xp mat.Dense
	xp.Mul(Xn, p.uk)
	numSamples, _ := xp.Dims()
	numClasses := modelRows

	// scoreH1[c] = xm_c * Q_hat * xm_c^T
	var xmQ mat.Dense
	xmQ.Mul(xm, p.qHat)
	scoreH1 := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		sum := 0.0
		for j := 0; j < p.params.NumPhi; j++ {
			sum += xmQ.At(c, j) * xm.At(c, j)
		}
		scoreH1[c] = sum
	}

	// scoreH2[i] = x_i * Q_hat * x_i^T
	var xpQ mat.Dense
	xpQ.Mul(&xp, p.qHat)
	scoreH2 := make([]float64, numSamples)
	parallel.Parallelize(numSamples, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for j := 0; j < p.params.NumPhi; j++ {
				sum += xpQ.At(i, j) * xp.At(i, j)
			}
			scoreH2[i] = sum
		}
	})

	// Cross term 2 * X * (XModel * Lambda)^T plus both quadratic forms.
	var xmLambda mat.Dense
	xmLambda.Mul(xm, p.lambda)
	scores := mat.NewDense(numSamples, numClasses, nil)
	scores.Mul(&xp, xmLambda.T())
	parallel.Parallelize(numSamples, func(start, end int) {
		for i := start; i < end; i++ {
			for c := 0; c < numClasses; c++ {
				scores.Set(i, c, 2*scores.At(i, c)+scoreH1[c]+scoreH2[i])
			}
		}
	})
	return scores, nil
}

// totalCovariance computes the sample covariance of the rows of X with the
// usual n-1 denominator.
func totalCovariance(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	mean := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			mean[j] += X.At(i, j)
		}
	}
	for j := 0; j < c; j++ {
		mean[j] /= float64(r)
	}
	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-mean[j])
		}
	}
	var cov mat.Dense
	cov.Mul(centered.T(), centered)
	denom := float64(r - 1)
	if r < 2 {
		denom = 1
	}
	cov.Scale(1/denom, &cov)
	return &cov
}

func denseFromSym(s *mat.SymDense) *mat.Dense {
	n := s.SymmetricDim()
	d := mat.NewDense(n, n, nil)
	d.Copy(s)
	return d
}
