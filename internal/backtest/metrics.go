package backtest

import (
	"encoding/json"
	"math"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// tradingDaysPerYear annualizes the per-trade Sharpe ratio.
const tradingDaysPerYear = 252

// minReturnStdev floors the return deviation so a constant return
// series does not divide by zero.
const minReturnStdev = 1e-4

// Metrics summarizes a completed run. All values are derived from the
// trade ledger and equity curve alone, so recomputing them from the
// same run yields identical results.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	NetProfit      float64 `json:"net_profit"`
	AverageWin     float64 `json:"average_win"`
	AverageLoss    float64 `json:"average_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	FinalBalance   float64 `json:"final_balance"`
}

// MarshalJSON renders a non-finite profit factor (all-winning ledger)
// as null, since JSON has no representation for infinity.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	out := struct {
		alias
		ProfitFactor interface{} `json:"profit_factor"`
	}{alias: alias(m)}
	if !math.IsInf(m.ProfitFactor, 0) && !math.IsNaN(m.ProfitFactor) {
		out.ProfitFactor = m.ProfitFactor
	}
	return json.Marshal(out)
}

// ComputeMetrics derives the run metrics from the trade ledger and
// equity curve. An empty ledger yields all-zero metrics.
func ComputeMetrics(trades []models.Trade, curve []models.EquityPoint, initialBalance float64) Metrics {
	m := Metrics{
		TotalTrades:  len(trades),
		FinalBalance: initialBalance,
	}
	if len(trades) == 0 {
		return m
	}

	balance := initialBalance
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.ProfitLoss > 0 {
			m.WinningTrades++
			m.GrossProfit += t.ProfitLoss
		} else if t.ProfitLoss < 0 {
			m.LosingTrades++
			m.GrossLoss += -t.ProfitLoss
		}
		if balance > 0 {
			returns = append(returns, t.ProfitLoss/balance)
		}
		balance += t.ProfitLoss
	}

	m.NetProfit = m.GrossProfit - m.GrossLoss
	m.FinalBalance = balance
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	if m.WinningTrades > 0 {
		m.AverageWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = m.GrossLoss / float64(m.LosingTrades)
	}
	m.ProfitFactor = profitFactor(m.GrossProfit, m.GrossLoss)
	m.MaxDrawdownPct = maxDrawdownPct(curve)
	m.SharpeRatio = sharpeRatio(returns)
	return m
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxDrawdownPct walks the equity curve in timestamp order and returns
// the largest peak-to-trough decline as a percentage of the peak.
func maxDrawdownPct(curve []models.EquityPoint) float64 {
	var peak, maxDD float64
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - pt.Equity) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpeRatio annualizes the mean per-trade return over its deviation.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	stdev := math.Sqrt(variance)
	if stdev < minReturnStdev {
		stdev = minReturnStdev
	}
	return mean / stdev * math.Sqrt(tradingDaysPerYear)
}
