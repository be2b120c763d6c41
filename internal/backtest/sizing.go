package backtest

import (
	"math"

	"github.com/jeden-/LLM-EA-sub001/internal/errors"
)

// Default sizing parameters. Sizes are expressed in lots.
const (
	DefaultRiskPct  = 2.0
	DefaultPipValue = 0.0001
	DefaultMinSize  = 0.01
	DefaultMaxSize  = 100.0
	DefaultSizeStep = 0.01
)

// SizerParams controls risk-based position sizing.
type SizerParams struct {
	RiskPct  float64 // percent of balance risked per trade
	PipValue float64 // price units per pip
	MinSize  float64
	MaxSize  float64
	SizeStep float64
}

// DefaultSizerParams returns the sizing defaults.
func DefaultSizerParams() SizerParams {
	return SizerParams{
		RiskPct:  DefaultRiskPct,
		PipValue: DefaultPipValue,
		MinSize:  DefaultMinSize,
		MaxSize:  DefaultMaxSize,
		SizeStep: DefaultSizeStep,
	}
}

// ComputeSize converts the account risk budget into a position size:
// riskAmount / (stopDistance / pipValue), rounded down to the size step
// and clamped to [MinSize, MaxSize]. A non-positive stop distance fails
// with INVALID_STOP_DISTANCE so a zero-risk trade is never sized.
func ComputeSize(balance, stopDistance float64, p SizerParams) (float64, error) {
	if stopDistance <= 0 {
		return 0, errors.NewRunError(errors.CodeInvalidStopDistance,
			"stop distance must be positive, got %.5f", stopDistance)
	}
	riskAmount := balance * p.RiskPct / 100
	pips := stopDistance / p.PipValue
	size := riskAmount / pips

	if p.SizeStep > 0 {
		size = math.Floor(size/p.SizeStep) * p.SizeStep
	}
	if size < p.MinSize {
		size = p.MinSize
	}
	if size > p.MaxSize {
		size = p.MaxSize
	}
	return size, nil
}
