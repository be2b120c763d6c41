package strategy

import (
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// Default multi-setup parameters.
const (
	DefaultTrendSMAPeriod    = 50
	DefaultATRPeriod         = 14
	DefaultVWAPDeviation     = 0.002
	DefaultRangeATRThreshold = 0.7
)

// Setup filter values for the setup_filter param.
const (
	SetupAll           = "all"
	SetupTrendReverter = "trend_reverter"
	SetupVWAPBouncer   = "vwap_bouncer"
	SetupRangeRider    = "range_rider"
)

// MultiSetup is a composite strategy that evaluates three mutually
// exclusive setups in fixed priority and returns the first that fires:
//
//  1. Trend Reverter: price deviates from VWAP against the prevailing
//     trend and the prior bar shows a reversal candlestick pattern.
//  2. VWAP Bouncer: price touches VWAP from the trend side and closes
//     back beyond it in the trend direction.
//  3. Range Rider: the bar's range has consumed most of the current ATR,
//     followed by a reversal pattern consistent with the trend.
//
// Params: sma_period, atr_period, vwap_deviation, range_atr_threshold,
// setup_filter.
type MultiSetup struct{}

// NewMultiSetup creates a new composite multi-setup strategy.
func NewMultiSetup() *MultiSetup {
	return &MultiSetup{}
}

func (s *MultiSetup) Name() string {
	return "multi_setup"
}

func (s *MultiSetup) MinLookback(p Params) int {
	look := p.Int("sma_period", DefaultTrendSMAPeriod)
	if atr := p.Int("atr_period", DefaultATRPeriod) + 1; atr > look {
		look = atr
	}
	if look < 3 {
		// Two prior bars are needed for the pattern checks.
		look = 3
	}
	return look
}

func (s *MultiSetup) RequiredColumns(p Params) []string {
	return []string{
		models.ColumnATR,
		models.ColumnVWAP,
		models.SMAColumn(p.Int("sma_period", DefaultTrendSMAPeriod)),
	}
}

func (s *MultiSetup) Evaluate(window []models.Bar, p Params) models.Signal {
	if len(window) < 3 {
		return none()
	}

	curr := window[len(window)-1]
	prev := window[len(window)-2]

	sma, okSMA := curr.Indicator(models.SMAColumn(p.Int("sma_period", DefaultTrendSMAPeriod)))
	atr, okATR := curr.Indicator(models.ColumnATR)
	vwap, okVWAP := curr.Indicator(models.ColumnVWAP)
	if !okSMA || !okATR || !okVWAP || atr <= 0 || vwap <= 0 {
		return none()
	}

	uptrend := curr.Close > sma
	deviation := p.Float("vwap_deviation", DefaultVWAPDeviation)
	vwapDiff := (curr.Close - vwap) / vwap
	filter := p.String("setup_filter", SetupAll)

	if filter == SetupAll || filter == SetupTrendReverter {
		if sig, ok := s.trendReverter(prev, uptrend, vwapDiff, deviation); ok {
			return sig
		}
	}
	if filter == SetupAll || filter == SetupVWAPBouncer {
		if sig, ok := s.vwapBouncer(prev, curr, uptrend, vwap, deviation); ok {
			return sig
		}
	}
	if filter == SetupAll || filter == SetupRangeRider {
		threshold := p.Float("range_atr_threshold", DefaultRangeATRThreshold)
		if sig, ok := s.rangeRider(prev, curr, uptrend, vwapDiff, deviation, atr, threshold); ok {
			return sig
		}
	}
	return none()
}

// trendReverter looks for a short-term reversal back in the direction of
// the prevailing trend after the close has stretched away from VWAP.
func (s *MultiSetup) trendReverter(prev models.Bar, uptrend bool, vwapDiff, deviation float64) (models.Signal, bool) {
	if uptrend && vwapDiff < -deviation && bullishReversal(prev) {
		return models.Signal{
			Action: models.SignalEnterLong,
			Setup:  "Trend Reverter (Long)",
			Reason: "reversal toward the uptrend after stretching below VWAP",
		}, true
	}
	if !uptrend && vwapDiff > deviation && bearishReversal(prev) {
		return models.Signal{
			Action: models.SignalEnterShort,
			Setup:  "Trend Reverter (Short)",
			Reason: "reversal toward the downtrend after stretching above VWAP",
		}, true
	}
	return models.Signal{}, false
}

// vwapBouncer looks for a touch of VWAP from the trend side with a close
// back beyond it in the trend direction.
func (s *MultiSetup) vwapBouncer(prev, curr models.Bar, uptrend bool, vwap, deviation float64) (models.Signal, bool) {
	if uptrend && prev.Low <= vwap*(1-deviation) && curr.Close > vwap && curr.Bullish() {
		return models.Signal{
			Action: models.SignalEnterLong,
			Setup:  "VWAP Bouncer (Long)",
			Reason: "bounce off VWAP in the direction of the uptrend",
		}, true
	}
	if !uptrend && prev.High >= vwap*(1+deviation) && curr.Close < vwap && curr.Bearish() {
		return models.Signal{
			Action: models.SignalEnterShort,
			Setup:  "VWAP Bouncer (Short)",
			Reason: "bounce off VWAP in the direction of the downtrend",
		}, true
	}
	return models.Signal{}, false
}

// rangeRider fires once the bar has consumed most of the current ATR and
// a reversal pattern consistent with the trend appears. The ATR here is
// the running series value; it is not reset per session (see the
// range_atr_threshold param for tuning the exhaustion level).
func (s *MultiSetup) rangeRider(prev, curr models.Bar, uptrend bool, vwapDiff, deviation, atr, threshold float64) (models.Signal, bool) {
	if curr.Range()/atr < threshold {
		return models.Signal{}, false
	}
	if uptrend && vwapDiff < -deviation && bullishReversal(prev) {
		return models.Signal{
			Action: models.SignalEnterLong,
			Setup:  "Range Rider (Long)",
			Reason: "pullback in an uptrend after most of the average range was consumed",
		}, true
	}
	if !uptrend && vwapDiff > deviation && bearishReversal(prev) {
		return models.Signal{
			Action: models.SignalEnterShort,
			Setup:  "Range Rider (Short)",
			Reason: "pullback in a downtrend after most of the average range was consumed",
		}, true
	}
	return models.Signal{}, false
}

// bullishReversal reports whether the bar carries a bullish reversal
// pattern: hammer, bullish engulfing, or a long lower wick. Engulfing
// flags are annotated against the bar's own predecessor.
func bullishReversal(b models.Bar) bool {
	return b.Pattern(models.PatternHammer) ||
		b.Pattern(models.PatternBullishEngulfing) ||
		b.Pattern(models.PatternJohnWick)
}

// bearishReversal reports whether the bar carries a bearish reversal
// pattern: shooting star, bearish engulfing, or a long upper wick.
func bearishReversal(b models.Bar) bool {
	return b.Pattern(models.PatternShootingStar) ||
		b.Pattern(models.PatternBearishEngulfing) ||
		b.Pattern(models.PatternPowerTower)
}

func init() {
	Register(NewMultiSetup())
}
