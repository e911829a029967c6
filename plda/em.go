package plda

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// expectation computes the posterior mean Ey [numClasses, numPhi] and the
// accumulated posterior second moment Eyy [numPhi, numPhi] of the latent
// factors, given the per-class sum vectors F and per-class sample counts.
//
// Classes are bucketed by sample count so the posterior precision inverse
// (I + n*Phi^T Sigma^-1 Phi)^-1 is computed once per distinct count.
func (p *PLDA) expectation(F *mat.Dense, counts []int) (*mat.Dense, *mat.Dense, error) {
	numClasses, _ := F.Dims()
	numPhi := p.params.NumPhi

	// PhiT_invS = (Sigma^T \ Phi)^T, i.e. Phi^T Sigma^-1.
	var z mat.Dense
	if err := z.Solve(p.sigma.T(), p.phi); err != nil {
		return nil, nil, errors.NewModelError("PLDA.expectation", "residual covariance solve failed", err)
	}
	phiTinvS := mat.DenseCopyOf(z.T()) // [numPhi, featDim]

	var phiTinvSPhi mat.Dense
	phiTinvSPhi.Mul(phiTinvS, p.phi) // [numPhi, numPhi]

	// Distinct sample counts in first-occurrence order.
	uniq := make([]int, 0, len(counts))
	bucket := make(map[int]int, len(counts))
	for _, n := range counts {
		if _, ok := bucket[n]; !ok {
			bucket[n] = len(uniq)
			uniq = append(uniq, n)
		}
	}

	eye := identity(numPhi)
	invTerms := make([]*mat.Dense, len(uniq))
	for ix, n := range uniq {
		var m mat.Dense
		m.Scale(float64(n), &phiTinvSPhi)
		m.Add(&m, eye)
		inv, err := inverse(&m)
		if err != nil {
			return nil, nil, errors.Wrap(err, "posterior precision inverse")
		}
		invTerms[ix] = inv
	}

	ey := mat.NewDense(numClasses, numPhi, nil)
	eyy := mat.NewDense(numPhi, numPhi, nil)
	var phiTinvSy, eyRow mat.VecDense
	var scaled mat.Dense
	for clz := 0; clz < numClasses; clz++ {
		n := counts[clz]
		cyy := invTerms[bucket[n]]

		phiTinvSy.MulVec(phiTinvS, F.RowView(clz))
		eyRow.MulVec(cyy, &phiTinvSy)
		for j := 0; j < numPhi; j++ {
			ey.Set(clz, j, eyRow.AtVec(j))
		}

		scaled.Scale(float64(n), cyy)
		eyy.Add(eyy, &scaled)
	}

	// Outer-product correction: Eyy += (Ey .* counts)^T Ey.
	weighted := mat.NewDense(numClasses, numPhi, nil)
	for clz := 0; clz < numClasses; clz++ {
		n := float64(counts[clz])
		for j := 0; j < numPhi; j++ {
			weighted.Set(clz, j, ey.At(clz, j)*n)
		}
	}
	var corr mat.Dense
	corr.Mul(weighted.T(), ey)
	eyy.Add(eyy, &corr)

	return ey, eyy, nil
}

// maximization re-estimates Phi and Sigma from the posterior expectations.
// Uses the previous iteration's statistics only; the caller guarantees the
// expectation step has fully completed.
func (p *PLDA) maximization(xSqr *mat.Dense, F, ey, eyy *mat.Dense, numSamples int) error {
	var eyFT mat.Dense
	eyFT.Mul(ey.T(), F) // [numPhi, featDim]

	// Phi = (Eyy^T \ (Ey^T F))^T
	var w mat.Dense
	if err := w.Solve(eyy.T(), &eyFT); err != nil {
		return errors.NewModelError("PLDA.maximization", "posterior moment solve failed", err)
	}
	phi := mat.NewDense(p.featDim, p.params.NumPhi, nil)
	phi.Copy(w.T())
	p.phi = phi

	// Sigma = (X^T X - Phi (Ey^T F)) / numSamples
	var pe mat.Dense
	pe.Mul(p.phi, &eyFT)
	sigma := mat.NewDense(p.featDim, p.featDim, nil)
	sigma.Sub(xSqr, &pe)
	sigma.Scale(1/float64(numSamples), sigma)
	p.sigma = sigma
	return nil
}

// computeLLK computes the marginal log-likelihood of the normalized data
// under the current Phi and Sigma. Diagnostic only; it never gates the EM
// loop.
func (p *PLDA) computeLLK(Xn mat.Matrix) (float64, error) {
	numSamples, _ := Xn.Dims()

	var s mat.Dense
	s.Mul(p.phi, p.phi.T())
	s.Add(&s, p.sigma) // [featDim, featDim]

	ld, err := logDet(&s)
	if err != nil {
		return 0, err
	}

	var z mat.Dense
	if err := z.Solve(&s, Xn.T()); err != nil {
		return 0, errors.NewModelError("PLDA.computeLLK", "marginal covariance solve failed", err)
	}

	quad := 0.0
	for i := 0; i < numSamples; i++ {
		for j := 0; j < p.featDim; j++ {
			quad += Xn.At(i, j) * z.At(j, i)
		}
	}

	llk := -0.5 * (float64(p.featDim*numSamples)*math.Log(2*math.Pi) +
		float64(numSamples)*ld +
		quad)
	return llk, nil
}
