package plda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/pkg/errors"
)

// refreshScoringCache recomputes Lambda, Uk and Q_hat from Sb and St.
// It is invoked synchronously at the end of every state transition that
// changes Sb/St, so the cache is never observably stale.
func (p *PLDA) refreshScoringCache() error {
	iSt, err := inverse(p.st)
	if err != nil {
		return errors.Wrap(err, "inverting the total scatter")
	}

	// iS = inv(St - Sb*iSt*Sb)
	var tmp, sbIStSb, inner mat.Dense
	tmp.Mul(p.sb, iSt)
	sbIStSb.Mul(&tmp, p.sb)
	inner.Sub(p.st, &sbIStSb)
	iS, err := inverse(&inner)
	if err != nil {
		return errors.Wrap(err, "inverting the conditional scatter")
	}

	// Q = iSt - iS, P = iSt*Sb*iS
	q := mat.NewDense(p.featDim, p.featDim, nil)
	q.Sub(iSt, iS)
	var iStSb, pMat mat.Dense
	iStSb.Mul(iSt, p.sb)
	pMat.Mul(&iStSb, iS)

	// Top num_phi left singular vectors of P carry the discriminative
	// directions; the singular values become the diagonal Lambda.
	var svd mat.SVD
	if ok := svd.Factorize(&pMat, mat.SVDThin); !ok {
		return errors.NewNumericalInstabilityError("svd", nil, 0)
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	numPhi := p.params.NumPhi
	lambda := mat.NewDense(numPhi, numPhi, nil)
	for i := 0; i < numPhi; i++ {
		lambda.Set(i, i, values[i])
	}
	uk := mat.NewDense(p.featDim, numPhi, nil)
	uk.Copy(u.Slice(0, p.featDim, 0, numPhi))

	var ukTQ, qHat mat.Dense
	ukTQ.Mul(uk.T(), q)
	qHat.Mul(&ukTQ, uk)

	p.lambda = lambda
	p.uk = uk
	p.qHat = &qHat
	return nil
}
