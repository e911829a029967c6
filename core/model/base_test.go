package model

import "testing"

func TestEstimatorStateTransitions(t *testing.T) {
	var e BaseEstimator

	if e.State() != NotFitted {
		t.Errorf("initial state = %v, want NotFitted", e.State())
	}
	if e.IsFitted() || e.IsInitialized() {
		t.Error("fresh estimator should be neither fitted nor initialized")
	}

	e.SetInitialized()
	if e.State() != Initialized {
		t.Errorf("state = %v, want Initialized", e.State())
	}
	if !e.IsInitialized() || e.IsFitted() {
		t.Error("initialized estimator should not be fitted")
	}

	e.SetFitted()
	if e.State() != Fitted {
		t.Errorf("state = %v, want Fitted", e.State())
	}
	// 学習済みは初期化済みを包含する
	if !e.IsInitialized() || !e.IsFitted() {
		t.Error("fitted estimator should also report initialized")
	}

	e.Reset()
	if e.State() != NotFitted {
		t.Errorf("state after Reset = %v, want NotFitted", e.State())
	}
}

func TestEstimatorStateString(t *testing.T) {
	tests := []struct {
		state EstimatorState
		want  string
	}{
		{NotFitted, "NotFitted"},
		{Initialized, "Initialized"},
		{Fitted, "Fitted"},
		{EstimatorState(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
