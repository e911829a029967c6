package model

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Initialized はモデルの次元が確定しパラメータが初期化された状態
	Initialized
	// Fitted はモデルが学習済みの状態
	Fitted
)

// String は状態の文字列表現を返す
func (s EstimatorState) String() string {
	switch s {
	case NotFitted:
		return "NotFitted"
	case Initialized:
		return "Initialized"
	case Fitted:
		return "Fitted"
	default:
		return "Unknown"
	}
}

// BaseEstimator は全てのモデルの基底となる構造体
type BaseEstimator struct {
	state EstimatorState
}

// State は現在の学習状態を返す
func (e *BaseEstimator) State() EstimatorState {
	return e.state
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// IsInitialized はモデルが初期化済み（または学習済み）かどうかを返す
func (e *BaseEstimator) IsInitialized() bool {
	return e.state == Initialized || e.state == Fitted
}

// SetInitialized はモデルを初期化済み状態に設定する
func (e *BaseEstimator) SetInitialized() {
	e.state = Initialized
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
