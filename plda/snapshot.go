package plda

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sprec/core/model"
	"github.com/YuminosukeSato/sprec/pkg/errors"
	"github.com/YuminosukeSato/sprec/pkg/log"
	"github.com/YuminosukeSato/sprec/preprocessing"
)

// MatrixData is a gob-friendly dense matrix representation.
type MatrixData struct {
	Rows, Cols int
	Data       []float64
}

func toMatrixData(m *mat.Dense) MatrixData {
	if m == nil {
		return MatrixData{}
	}
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return MatrixData{Rows: r, Cols: c, Data: data}
}

func (d MatrixData) matrix() *mat.Dense {
	if d.Rows == 0 || d.Cols == 0 {
		return nil
	}
	return mat.NewDense(d.Rows, d.Cols, d.Data)
}

// Snapshot is the serializable bundle of a fitted PLDA model: the
// hyperparameters, the locked dimensions and class set, the normalizer
// state, the model parameters and the scoring caches.
type Snapshot struct {
	NumPhi  int
	NumIter int
	Seed    int64

	Centering  bool
	WCCN       bool
	UnitLength bool

	FeatDim int
	Classes []int

	NormMean []float64
	NormW    MatrixData

	Sigma  MatrixData
	Phi    MatrixData
	Sb     MatrixData
	St     MatrixData
	Lambda MatrixData
	Uk     MatrixData
	QHat   MatrixData
	XModel MatrixData
}

// Snapshot exports the fitted model state. The model must be Fitted.
func (p *PLDA) Snapshot() (*Snapshot, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "Snapshot")
	}
	snap := &Snapshot{
		NumPhi:     p.params.NumPhi,
		NumIter:    p.params.NumIter,
		Seed:       p.params.Seed,
		Centering:  p.params.Centering,
		WCCN:       p.params.WCCN,
		UnitLength: p.params.UnitLength,
		FeatDim:    p.featDim,
		Classes:    p.Classes(),
		NormW:      toMatrixData(p.normalizer.W),
		Sigma:      toMatrixData(p.sigma),
		Phi:        toMatrixData(p.phi),
		Sb:         toMatrixData(p.sb),
		St:         toMatrixData(p.st),
		Lambda:     toMatrixData(p.lambda),
		Uk:         toMatrixData(p.uk),
		QHat:       toMatrixData(p.qHat),
		XModel:     toMatrixData(p.xModel),
	}
	if p.normalizer.Mean != nil {
		mean := make([]float64, p.normalizer.Mean.Len())
		copy(mean, p.normalizer.Mean.RawVector().Data)
		snap.NormMean = mean
	}
	return snap, nil
}

// Restore loads a snapshot into the estimator. The snapshot's feature
// dimension and latent dimension must be consistent with the receiving
// instance's configuration; otherwise the restore is rejected.
func (p *PLDA) Restore(snap *Snapshot) error {
	if snap.NumPhi != p.params.NumPhi {
		return errors.NewDimensionError("PLDA.Restore", p.params.NumPhi, snap.NumPhi, 1)
	}
	if p.featDim != 0 && p.featDim != snap.FeatDim {
		return errors.NewDimensionError("PLDA.Restore", p.featDim, snap.FeatDim, 1)
	}
	if snap.FeatDim <= snap.NumPhi {
		return errors.NewValidationError("FeatDim",
			"feature dimension must be greater than the latent dimension", snap.FeatDim)
	}
	if snap.Sigma.Rows != snap.FeatDim || snap.Sigma.Cols != snap.FeatDim {
		return errors.NewDimensionError("PLDA.Restore", snap.FeatDim, snap.Sigma.Rows, 0)
	}
	if snap.Phi.Rows != snap.FeatDim || snap.Phi.Cols != snap.NumPhi {
		return errors.NewDimensionError("PLDA.Restore", snap.FeatDim, snap.Phi.Rows, 0)
	}
	if snap.Uk.Rows != snap.FeatDim || snap.Uk.Cols != snap.NumPhi {
		return errors.NewDimensionError("PLDA.Restore", snap.FeatDim, snap.Uk.Rows, 0)
	}
	if snap.XModel.Rows != len(snap.Classes) {
		return errors.NewDimensionError("PLDA.Restore", len(snap.Classes), snap.XModel.Rows, 0)
	}

	p.params.NumIter = snap.NumIter
	p.params.Seed = snap.Seed
	p.params.Centering = snap.Centering
	p.params.WCCN = snap.WCCN
	p.params.UnitLength = snap.UnitLength
	p.rng = rand.New(rand.NewSource(snap.Seed))

	norm := preprocessing.NewVectorNormalizer(snap.Centering, snap.WCCN, snap.UnitLength)
	norm.NFeatures = snap.FeatDim
	if snap.NormMean != nil {
		mean := make([]float64, len(snap.NormMean))
		copy(mean, snap.NormMean)
		norm.Mean = mat.NewVecDense(len(mean), mean)
	}
	norm.W = snap.NormW.matrix()
	norm.SetFitted()
	p.normalizer = norm

	p.featDim = snap.FeatDim
	p.classes = make([]int, len(snap.Classes))
	copy(p.classes, snap.Classes)
	p.sigma = snap.Sigma.matrix()
	p.phi = snap.Phi.matrix()
	p.sb = snap.Sb.matrix()
	p.st = snap.St.matrix()
	p.lambda = snap.Lambda.matrix()
	p.uk = snap.Uk.matrix()
	p.qHat = snap.QHat.matrix()
	p.xModel = snap.XModel.matrix()
	p.SetFitted()
	return nil
}

// Save writes the fitted model to a gob file.
func (p *PLDA) Save(filename string) error {
	snap, err := p.Snapshot()
	if err != nil {
		return err
	}
	if err := model.SaveModel(snap, filename); err != nil {
		return errors.NewModelError("PLDA.Save", "persistence failed", err)
	}
	p.logger.Info("model saved",
		log.OperationKey, "save",
		log.FeaturesKey, p.featDim,
		log.ClassesKey, len(p.classes),
	)
	return nil
}

// Load reads a gob snapshot from a file into the estimator, applying the
// same consistency checks as Restore.
func (p *PLDA) Load(filename string) error {
	var snap Snapshot
	if err := model.LoadModel(&snap, filename); err != nil {
		return errors.NewModelError("PLDA.Load", "persistence failed", err)
	}
	return p.Restore(&snap)
}
