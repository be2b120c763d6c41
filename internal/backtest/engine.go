// Package backtest implements the bar-by-bar simulation engine: the
// position state machine, risk-based sizing, the trade ledger and
// equity curve, and the metrics derived from them.
package backtest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/logging"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
	"github.com/jeden-/LLM-EA-sub001/internal/strategy"
)

// Request describes a single backtest run. Params carries the
// strategy-specific options; unrecognized keys are ignored and missing
// keys fall back to documented defaults.
type Request struct {
	Symbol         string          `json:"symbol"`
	Timeframe      string          `json:"timeframe"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	InitialBalance float64         `json:"initial_balance"`
	Strategy       string          `json:"strategy"`
	Params         strategy.Params `json:"params,omitempty"`
}

// Result is the outcome of a run. On failure Success is false, Error
// carries the failure code, and the ledger and curve are empty.
// Truncated marks a run cut short by context cancellation; its ledger
// and metrics cover the bars processed before the cut.
type Result struct {
	Success     bool                 `json:"success"`
	Truncated   bool                 `json:"truncated,omitempty"`
	Metrics     Metrics              `json:"metrics"`
	Trades      []models.Trade       `json:"trades"`
	EquityCurve []models.EquityPoint `json:"equity_curve"`
	Error       *errors.RunError     `json:"error,omitempty"`
}

// Engine runs backtest simulations. It holds no per-run state, so a
// single Engine may serve concurrent runs.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates an engine that logs through the given logger.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

func fail(err *errors.RunError) Result {
	return Result{
		Success:     false,
		Trades:      []models.Trade{},
		EquityCurve: []models.EquityPoint{},
		Error:       err,
	}
}

// Run simulates the strategy over the bar series. One call performs a
// full synchronous pass; the only suspension point is the per-bar
// cancellation check, which turns a cancelled run into a truncated
// partial result rather than an inconsistent one.
func (e *Engine) Run(ctx context.Context, bars models.Series, req Request) Result {
	started := time.Now()
	logger := logging.WithStrategy(logging.WithSymbol(e.logger, req.Symbol), req.Strategy)

	strat, err := strategy.Get(req.Strategy)
	if err != nil {
		var re *errors.RunError
		if !errors.As(err, &re) {
			re = errors.NewRunError(errors.CodeUnknownStrategy, "%v", err)
		}
		return fail(re)
	}

	if !req.Start.IsZero() && !req.End.IsZero() && !req.End.After(req.Start) {
		return fail(errors.NewRunError(errors.CodeInvalidDateRange,
			"end %s is not after start %s",
			req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339)))
	}
	if req.InitialBalance <= 0 {
		return fail(errors.NewRunError(errors.CodeInvalidBalance,
			"initial balance must be positive, got %.2f", req.InitialBalance))
	}

	if !req.Start.IsZero() || !req.End.IsZero() {
		bars = bars.Between(req.Start, req.End)
	}

	params := req.Params
	minLook := strat.MinLookback(params)
	if minLook < 1 {
		minLook = 1
	}
	if len(bars) < minLook {
		return fail(errors.NewRunError(errors.CodeInsufficientData,
			"%d bars available, strategy %q needs at least %d",
			len(bars), req.Strategy, minLook))
	}

	// Required columns are validated once up front against the last bar:
	// by then every indicator has warmed up, so a column still absent
	// there is absent for the whole series. Per-bar warmup gaps inside
	// the series are handled by skipping entries, not by failing.
	last := bars[len(bars)-1]
	for _, col := range append(strat.RequiredColumns(params), models.ColumnATR) {
		if _, ok := last.Indicator(col); !ok {
			return fail(errors.NewRunError(errors.CodeMissingIndicator,
				"required indicator column %q is absent from the series", col))
		}
	}

	stopMult := params.Float("atr_stop_multiplier", DefaultATRStopMultiplier)
	targetMult := params.Float("atr_target_multiplier", DefaultATRTargetMultiplier)
	sizer := SizerParams{
		RiskPct:  params.Float("risk_pct", DefaultRiskPct),
		PipValue: params.Float("pip_value", DefaultPipValue),
		MinSize:  params.Float("min_size", DefaultMinSize),
		MaxSize:  params.Float("max_size", DefaultMaxSize),
		SizeStep: params.Float("size_step", DefaultSizeStep),
	}

	state := newRunState(req.InitialBalance, bars[0].Timestamp)
	truncated := false
	lastIdx := len(bars) - 1

	for i := minLook - 1; i < len(bars); i++ {
		select {
		case <-ctx.Done():
			// Liquidate at the current bar's close so the partial
			// result stays internally consistent.
			truncated = true
			lastIdx = i
		default:
		}
		if truncated {
			break
		}
		bar := bars[i]

		if pos := state.position; pos != nil {
			// Stop before target on the same bar: assume the worse
			// outcome hits first. At most one transition per bar, and
			// no new entry on the bar a position closes.
			switch {
			case stopHit(pos, bar):
				e.logClose(logger, state.close(req.Symbol, pos.StopLoss, bar.Timestamp, models.CloseReasonStop))
			case targetHit(pos, bar):
				e.logClose(logger, state.close(req.Symbol, pos.TakeProfit, bar.Timestamp, models.CloseReasonTarget))
			default:
				sig := strat.Evaluate(bars[:i+1], params)
				if side := sig.Side(); side != "" && side != pos.Side {
					e.logClose(logger, state.close(req.Symbol, bar.Close, bar.Timestamp, models.CloseReasonSignalReversal))
				}
			}
			continue
		}

		if i == len(bars)-1 {
			// An entry on the final bar would be force-closed at the
			// same timestamp; skip it.
			continue
		}
		sig := strat.Evaluate(bars[:i+1], params)
		side := sig.Side()
		if side == "" {
			continue
		}
		atr, ok := bar.Indicator(models.ColumnATR)
		if !ok || atr <= 0 {
			continue
		}

		entry := bar.Close
		stop, target := stopTarget(side, entry, atr, stopMult, targetMult)
		stopDistance := entry - stop
		if side == models.SideShort {
			stopDistance = stop - entry
		}

		size, err := ComputeSize(state.balance, stopDistance, sizer)
		if err != nil {
			// Recoverable: the candidate entry is discarded, never
			// silently sized to zero risk.
			logger.Warn().
				Err(err).
				Time("bar", bar.Timestamp).
				Str("setup", sig.Setup).
				Msg("Entry skipped")
			continue
		}

		state.open(models.Position{
			Side:       side,
			Setup:      sig.Setup,
			Reason:     sig.Reason,
			EntryPrice: entry,
			EntryTime:  bar.Timestamp,
			StopLoss:   stop,
			TakeProfit: target,
			Size:       size,
			RiskAmount: state.balance * sizer.RiskPct / 100,
		})
		logger.Debug().
			Str("side", string(side)).
			Str("setup", sig.Setup).
			Float64("entry", entry).
			Float64("stop", stop).
			Float64("target", target).
			Float64("size", size).
			Time("bar", bar.Timestamp).
			Msg("Position opened")
	}

	if state.position != nil && lastIdx >= 0 {
		last := bars[lastIdx]
		e.logClose(logger, state.close(req.Symbol, last.Close, last.Timestamp, models.CloseReasonEndOfData))
	}

	result := Result{
		Success:     true,
		Truncated:   truncated,
		Metrics:     ComputeMetrics(state.trades, state.curve, req.InitialBalance),
		Trades:      state.trades,
		EquityCurve: state.curve,
	}
	logging.LogRunComplete(logger, req.Strategy, len(state.trades), state.balance, time.Since(started))
	return result
}

func (e *Engine) logClose(logger zerolog.Logger, t models.Trade) {
	logging.LogTradeClosed(logger, t.Symbol, string(t.Side), t.Setup, string(t.CloseReason), t.ProfitLoss)
}

func stopHit(pos *models.Position, bar models.Bar) bool {
	if pos.Side == models.SideLong {
		return bar.Low <= pos.StopLoss
	}
	return bar.High >= pos.StopLoss
}

func targetHit(pos *models.Position, bar models.Bar) bool {
	if pos.Side == models.SideLong {
		return bar.High >= pos.TakeProfit
	}
	return bar.Low <= pos.TakeProfit
}
