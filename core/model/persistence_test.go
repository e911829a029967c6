package model

import (
	"bytes"
	"path/filepath"
	"testing"
)

type fakeModel struct {
	Name    string
	Weights []float64
	Classes []int
}

func TestSaveLoadModel(t *testing.T) {
	original := fakeModel{
		Name:    "plda",
		Weights: []float64{0.1, -2.5, 3.75},
		Classes: []int{0, 1, 2},
	}
	filename := filepath.Join(t.TempDir(), "model.gob")

	if err := SaveModel(original, filename); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}

	var restored fakeModel
	if err := LoadModel(&restored, filename); err != nil {
		t.Fatalf("LoadModel() error: %v", err)
	}

	if restored.Name != original.Name {
		t.Errorf("Name = %q, want %q", restored.Name, original.Name)
	}
	if len(restored.Weights) != len(original.Weights) {
		t.Fatalf("Weights length = %d, want %d", len(restored.Weights), len(original.Weights))
	}
	for i := range original.Weights {
		if restored.Weights[i] != original.Weights[i] {
			t.Errorf("Weights[%d] = %v, want %v", i, restored.Weights[i], original.Weights[i])
		}
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	var m fakeModel
	if err := LoadModel(&m, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("LoadModel() expected error for a missing file")
	}
}

func TestWriteReadModel(t *testing.T) {
	original := fakeModel{Name: "normalizer", Weights: []float64{1, 2}}

	var buf bytes.Buffer
	if err := WriteModel(original, &buf); err != nil {
		t.Fatalf("WriteModel() error: %v", err)
	}

	var restored fakeModel
	if err := ReadModel(&restored, &buf); err != nil {
		t.Fatalf("ReadModel() error: %v", err)
	}
	if restored.Name != original.Name || len(restored.Weights) != 2 {
		t.Errorf("round trip mismatch: %+v", restored)
	}
}
