package backtest

import (
	"time"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// Default ATR multipliers for stop and target placement.
const (
	DefaultATRStopMultiplier   = 1.5
	DefaultATRTargetMultiplier = 3.0
)

// stopTarget places the stop and target around the entry price, scaled
// by the ATR at entry time so risk stays comparable across volatility
// regimes.
func stopTarget(side models.Side, entry, atr, stopMult, targetMult float64) (stop, target float64) {
	if side == models.SideLong {
		return entry - atr*stopMult, entry + atr*targetMult
	}
	return entry + atr*stopMult, entry - atr*targetMult
}

// profitLoss is the realized PnL of a closed position.
func profitLoss(side models.Side, entry, exit, size float64) float64 {
	if side == models.SideLong {
		return (exit - entry) * size
	}
	return (entry - exit) * size
}

// runState is the per-run mutable state. Each run owns its state
// exclusively, so independent runs are safe to execute in parallel.
type runState struct {
	balance  float64
	position *models.Position
	trades   []models.Trade
	curve    []models.EquityPoint
}

func newRunState(initialBalance float64, seed time.Time) *runState {
	return &runState{
		balance: initialBalance,
		trades:  []models.Trade{},
		curve:   []models.EquityPoint{{Timestamp: seed, Equity: initialBalance}},
	}
}

func (s *runState) open(pos models.Position) {
	s.position = &pos
}

// close realizes the open position at the given price, appends the trade
// to the ledger and a fresh point to the equity curve, and returns the
// completed trade.
func (s *runState) close(symbol string, price float64, at time.Time, reason models.CloseReason) models.Trade {
	pos := s.position
	pnl := profitLoss(pos.Side, pos.EntryPrice, price, pos.Size)
	s.balance += pnl

	trade := models.Trade{
		Symbol:      symbol,
		Side:        pos.Side,
		Setup:       pos.Setup,
		Reason:      pos.Reason,
		EntryTime:   pos.EntryTime,
		ExitTime:    at,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   price,
		Size:        pos.Size,
		ProfitLoss:  pnl,
		CloseReason: reason,
	}
	s.trades = append(s.trades, trade)
	s.curve = append(s.curve, models.EquityPoint{Timestamp: at, Equity: s.balance})
	s.position = nil
	return trade
}
