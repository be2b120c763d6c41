package marketdata

import (
	talib "github.com/markcheno/go-talib"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// AnnotateOptions selects the indicator columns to compute.
type AnnotateOptions struct {
	SMAPeriods []int // one sma_<period> column per entry
	ATRPeriod  int   // 0 skips the atr column
	VWAP       bool
}

// Annotate returns a copy of the series with the requested indicator
// columns filled in. Warmup bars (where an indicator is not yet defined)
// simply lack the key; the input series is left untouched.
func Annotate(bars models.Series, opts AnnotateOptions) models.Series {
	out := make(models.Series, len(bars))
	copy(out, bars)
	for i := range out {
		ind := make(map[string]float64, len(opts.SMAPeriods)+2)
		for k, v := range bars[i].Indicators {
			ind[k] = v
		}
		out[i].Indicators = ind
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	for _, period := range opts.SMAPeriods {
		if period <= 0 || len(bars) < period {
			continue
		}
		col := models.SMAColumn(period)
		sma := talib.Sma(closes, period)
		for i := period - 1; i < len(out); i++ {
			out[i].Indicators[col] = sma[i]
		}
	}

	// Wilder-smoothed ATR; the first defined value is at index period.
	if p := opts.ATRPeriod; p > 0 && len(bars) > p {
		atr := talib.Atr(highs, lows, closes, p)
		for i := p; i < len(out); i++ {
			out[i].Indicators[models.ColumnATR] = atr[i]
		}
	}

	if opts.VWAP {
		annotateVWAP(out)
	}
	return out
}

// annotateVWAP fills the cumulative volume-weighted average price of the
// typical price (H+L+C)/3. Bars before the first nonzero volume carry
// no value.
func annotateVWAP(bars models.Series) {
	var cumPV, cumVol float64
	for i := range bars {
		typical := (bars[i].High + bars[i].Low + bars[i].Close) / 3
		cumPV += typical * float64(bars[i].Volume)
		cumVol += float64(bars[i].Volume)
		if cumVol > 0 {
			bars[i].Indicators[models.ColumnVWAP] = cumPV / cumVol
		}
	}
}
