package store

import (
	"context"
	stderrors "errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeden-/LLM-EA-sub001/internal/backtest"
	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() *RunRecord {
	entry := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	exit := entry.Add(30 * time.Minute)
	return &RunRecord{
		Symbol:    "EURUSD",
		Timeframe: "M5",
		Strategy:  "ma_cross",
		Start:     entry.Add(-24 * time.Hour),
		End:       exit.Add(24 * time.Hour),
		Balance:   10000,
		Params:    map[string]interface{}{"fast_ma_period": float64(10)},
		Metrics: backtest.Metrics{
			TotalTrades:    1,
			WinningTrades:  1,
			WinRate:        1,
			GrossProfit:    50,
			NetProfit:      50,
			ProfitFactor:   math.Inf(1),
			SharpeRatio:    0,
			MaxDrawdownPct: 0,
			FinalBalance:   10050,
		},
		Trades: []models.Trade{{
			Symbol:      "EURUSD",
			Side:        models.SideLong,
			Setup:       "MA Cross (Long)",
			Reason:      "SMA(10) crossed above SMA(50)",
			EntryTime:   entry,
			ExitTime:    exit,
			EntryPrice:  1.05,
			ExitPrice:   1.055,
			Size:        0.1,
			ProfitLoss:  50,
			CloseReason: models.CloseReasonTarget,
		}},
		EquityCurve: []models.EquityPoint{
			{Timestamp: entry, Equity: 10000},
			{Timestamp: exit, Equity: 10050},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	id, err := s.SaveRun(ctx, rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveRun returned id 0")
	}

	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Symbol != rec.Symbol || got.Strategy != rec.Strategy || got.Timeframe != rec.Timeframe {
		t.Errorf("run header = %s/%s/%s", got.Symbol, got.Strategy, got.Timeframe)
	}
	if got.Balance != 10000 {
		t.Errorf("balance = %v, want 10000", got.Balance)
	}
	if got.Metrics.TotalTrades != 1 || got.Metrics.FinalBalance != 10050 {
		t.Errorf("metrics = %+v", got.Metrics)
	}
	if len(got.Trades) != 1 {
		t.Fatalf("loaded %d trades, want 1", len(got.Trades))
	}
	tr := got.Trades[0]
	if tr.Side != models.SideLong || tr.CloseReason != models.CloseReasonTarget {
		t.Errorf("trade = %+v", tr)
	}
	if !tr.EntryTime.Equal(rec.Trades[0].EntryTime) {
		t.Errorf("entry time = %s, want %s", tr.EntryTime, rec.Trades[0].EntryTime)
	}
	if len(got.EquityCurve) != 2 {
		t.Fatalf("loaded %d curve points, want 2", len(got.EquityCurve))
	}
	if got.EquityCurve[1].Equity != 10050 {
		t.Errorf("final equity = %v, want 10050", got.EquityCurve[1].Equity)
	}
	if v, ok := got.Params["fast_ma_period"]; !ok || v.(float64) != 10 {
		t.Errorf("params = %v", got.Params)
	}
}

func TestInfiniteProfitFactorRoundTrip(t *testing.T) {
	// All-winning runs have an infinite profit factor, stored as NULL.
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !math.IsInf(got.Metrics.ProfitFactor, 1) {
		t.Errorf("profit factor = %v, want +Inf", got.Metrics.ProfitFactor)
	}
}

func TestFiniteProfitFactorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	rec.Metrics.ProfitFactor = 1.8
	id, err := s.SaveRun(ctx, rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Metrics.ProfitFactor != 1.8 {
		t.Errorf("profit factor = %v, want 1.8", got.Metrics.ProfitFactor)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), 9999)
	if err == nil {
		t.Fatal("expected error for missing run")
	}
	if !stderrors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("error should wrap ErrDataNotFound, got %v", err)
	}
}

func TestListRunsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, setup := range []struct{ symbol, strat string }{
		{"EURUSD", "ma_cross"},
		{"EURUSD", "multi_setup"},
		{"GBPUSD", "ma_cross"},
	} {
		rec := sampleRecord()
		rec.Symbol = setup.symbol
		rec.Strategy = setup.strat
		if _, err := s.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d runs, want 3", len(all))
	}
	// Summaries carry no ledger or curve.
	if len(all[0].Trades) != 0 || len(all[0].EquityCurve) != 0 {
		t.Error("summaries should not include trades or curve")
	}

	bySymbol, err := s.ListRuns(ctx, RunFilter{Symbol: "EURUSD"})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(bySymbol) != 2 {
		t.Errorf("listed %d EURUSD runs, want 2", len(bySymbol))
	}

	byBoth, err := s.ListRuns(ctx, RunFilter{Symbol: "EURUSD", Strategy: "multi_setup"})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(byBoth) != 1 {
		t.Errorf("listed %d runs, want 1", len(byBoth))
	}

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("listed %d runs with limit 2, want 2", len(limited))
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var lastID int64
	for i := 0; i < 3; i++ {
		id, err := s.SaveRun(ctx, sampleRecord())
		if err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		lastID = id
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if runs[0].ID != lastID {
		t.Errorf("first run id = %d, want newest %d", runs[0].ID, lastID)
	}
}

func TestSaveRunWithoutDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	rec.Start = time.Time{}
	rec.End = time.Time{}
	id, err := s.SaveRun(ctx, rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.Start.IsZero() || !got.End.IsZero() {
		t.Errorf("date range = %s..%s, want zero times", got.Start, got.End)
	}
}
