// Package marketdata loads bar series from CSV files and annotates them
// with the indicator columns and candlestick-pattern flags the engine
// consumes.
package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// csvTime accepts the timestamp formats seen in exported bar files.
type csvTime struct {
	time.Time
}

var csvTimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04", // MT5 export format
}

func (t *csvTime) UnmarshalCSV(field string) error {
	for _, layout := range csvTimeFormats {
		if parsed, err := time.Parse(layout, field); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", field)
}

func (t csvTime) MarshalCSV() (string, error) {
	return t.Format(time.RFC3339), nil
}

type csvBar struct {
	Timestamp csvTime `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

// FilePath returns the conventional bar file location for a symbol and
// timeframe under the data directory, e.g. EURUSD_M5.csv.
func FilePath(dir, symbol, timeframe string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", symbol, timeframe))
}

// LoadCSV reads a bar series from a CSV file with columns
// timestamp,open,high,low,close,volume and validates its ordering.
func LoadCSV(path string) (models.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDataError("csv", path, "bar file not found", errors.ErrDataNotFound)
		}
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	rows := []*csvBar{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewDataError("csv", path, "parsing bar file", err)
	}

	bars := make(models.Series, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, models.Bar{
			Timestamp: r.Timestamp.Time,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	if err := bars.Validate(); err != nil {
		return nil, errors.NewDataError("csv", path, "invalid bar series", err)
	}
	return bars, nil
}

// LoadSeries loads the bar file for a symbol and timeframe from the
// data directory.
func LoadSeries(dir, symbol, timeframe string) (models.Series, error) {
	return LoadCSV(FilePath(dir, symbol, timeframe))
}
