package marketdata

import (
	"math"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// Pattern detection thresholds.
const (
	dojiBodyRatio     = 0.05  // body / range below this is a doji
	hammerWickRatio   = 2.0   // dominant wick vs body
	hammerMinorRatio  = 0.5   // opposite wick vs body
	longWickThreshold = 0.003 // wick relative to price level
)

// AnnotatePatterns returns a copy of the series with candlestick-pattern
// flags set on each bar. Engulfing flags compare a bar against its
// predecessor, so the first bar never carries them.
func AnnotatePatterns(bars models.Series) models.Series {
	out := make(models.Series, len(bars))
	copy(out, bars)
	for i := range out {
		flags := make(map[string]bool, 7)
		for k, v := range bars[i].Patterns {
			flags[k] = v
		}
		b := out[i]
		flags[models.PatternDoji] = isDoji(b)
		flags[models.PatternHammer] = isHammer(b)
		flags[models.PatternShootingStar] = isShootingStar(b)
		flags[models.PatternJohnWick] = isJohnWick(b)
		flags[models.PatternPowerTower] = isPowerTower(b)
		if i > 0 {
			flags[models.PatternBullishEngulfing] = isBullishEngulfing(out[i-1], b)
			flags[models.PatternBearishEngulfing] = isBearishEngulfing(out[i-1], b)
		}
		out[i].Patterns = flags
	}
	return out
}

func bodySize(b models.Bar) float64 {
	return math.Abs(b.Close - b.Open)
}

func lowerWick(b models.Bar) float64 {
	return math.Min(b.Open, b.Close) - b.Low
}

func upperWick(b models.Bar) float64 {
	return b.High - math.Max(b.Open, b.Close)
}

func isDoji(b models.Bar) bool {
	r := b.Range()
	return r > 0 && bodySize(b)/r < dojiBodyRatio
}

func isHammer(b models.Bar) bool {
	body := bodySize(b)
	return body > 0 &&
		lowerWick(b) > hammerWickRatio*body &&
		upperWick(b) < hammerMinorRatio*body
}

func isShootingStar(b models.Bar) bool {
	body := bodySize(b)
	return body > 0 &&
		upperWick(b) > hammerWickRatio*body &&
		lowerWick(b) < hammerMinorRatio*body
}

// isJohnWick flags a long lower wick relative to the price level, a
// looser rejection signal than a strict hammer.
func isJohnWick(b models.Bar) bool {
	wick := lowerWick(b)
	return b.Low > 0 && wick > bodySize(b) && wick/b.Low > longWickThreshold
}

// isPowerTower is the upper-wick mirror of isJohnWick.
func isPowerTower(b models.Bar) bool {
	wick := upperWick(b)
	return b.High > 0 && wick > bodySize(b) && wick/b.High > longWickThreshold
}

func isBullishEngulfing(prev, curr models.Bar) bool {
	return prev.Bearish() && curr.Bullish() &&
		curr.Open < prev.Close && curr.Close > prev.Open
}

func isBearishEngulfing(prev, curr models.Bar) bool {
	return prev.Bullish() && curr.Bearish() &&
		curr.Open > prev.Close && curr.Close < prev.Open
}
