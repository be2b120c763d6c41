package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

func flatSeries(n int, price float64) models.Series {
	bars := make(models.Series, n)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: testStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    100,
		}
	}
	return bars
}

func TestAnnotateSMA(t *testing.T) {
	bars := flatSeries(10, 100)
	out := Annotate(bars, AnnotateOptions{SMAPeriods: []int{3}})

	col := models.SMAColumn(3)
	for i := 0; i < 2; i++ {
		if _, ok := out[i].Indicator(col); ok {
			t.Errorf("bar %d should have no SMA during warmup", i)
		}
	}
	for i := 2; i < len(out); i++ {
		v, ok := out[i].Indicator(col)
		if !ok {
			t.Fatalf("bar %d missing SMA", i)
		}
		if math.Abs(v-100) > 1e-9 {
			t.Errorf("bar %d SMA = %v, want 100", i, v)
		}
	}

	// The input series must be untouched.
	for i := range bars {
		if _, ok := bars[i].Indicator(col); ok {
			t.Fatalf("input bar %d was mutated", i)
		}
	}
}

func TestAnnotateATRConstantRange(t *testing.T) {
	// Every bar has a true range of 2, so the Wilder ATR is 2 once warm.
	bars := flatSeries(20, 100)
	out := Annotate(bars, AnnotateOptions{ATRPeriod: 14})

	for i := 0; i < 14; i++ {
		if _, ok := out[i].Indicator(models.ColumnATR); ok {
			t.Errorf("bar %d should have no ATR during warmup", i)
		}
	}
	for i := 14; i < len(out); i++ {
		v, ok := out[i].Indicator(models.ColumnATR)
		if !ok {
			t.Fatalf("bar %d missing ATR", i)
		}
		if math.Abs(v-2) > 1e-9 {
			t.Errorf("bar %d ATR = %v, want 2", i, v)
		}
	}
}

func TestAnnotateVWAPFlatPrice(t *testing.T) {
	// Typical price is constant, so VWAP equals it on every bar.
	bars := flatSeries(5, 100)
	out := Annotate(bars, AnnotateOptions{VWAP: true})

	for i := range out {
		v, ok := out[i].Indicator(models.ColumnVWAP)
		if !ok {
			t.Fatalf("bar %d missing VWAP", i)
		}
		if math.Abs(v-100) > 1e-9 {
			t.Errorf("bar %d VWAP = %v, want 100", i, v)
		}
	}
}

func TestAnnotateVWAPWeightsByVolume(t *testing.T) {
	bars := models.Series{
		{Timestamp: testStart, Open: 100, High: 100, Low: 100, Close: 100, Volume: 100},
		{Timestamp: testStart.Add(5 * time.Minute), Open: 110, High: 110, Low: 110, Close: 110, Volume: 300},
	}
	out := Annotate(bars, AnnotateOptions{VWAP: true})

	// (100*100 + 110*300) / 400 = 107.5
	v, _ := out[1].Indicator(models.ColumnVWAP)
	if math.Abs(v-107.5) > 1e-9 {
		t.Errorf("VWAP = %v, want 107.5", v)
	}
}

func TestAnnotateSkipsShortSeries(t *testing.T) {
	bars := flatSeries(5, 100)
	out := Annotate(bars, AnnotateOptions{SMAPeriods: []int{10}, ATRPeriod: 14})

	for i := range out {
		if _, ok := out[i].Indicator(models.SMAColumn(10)); ok {
			t.Errorf("bar %d should have no SMA for a too-short series", i)
		}
		if _, ok := out[i].Indicator(models.ColumnATR); ok {
			t.Errorf("bar %d should have no ATR for a too-short series", i)
		}
	}
}

func TestAnnotatePreservesExistingIndicators(t *testing.T) {
	bars := flatSeries(5, 100)
	bars[0].Indicators = map[string]float64{"custom": 42}

	out := Annotate(bars, AnnotateOptions{VWAP: true})
	if v, ok := out[0].Indicator("custom"); !ok || v != 42 {
		t.Errorf("custom indicator lost: %v %v", v, ok)
	}
}
