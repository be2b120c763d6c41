// Package store persists backtest run results.
package store

import (
	"context"
	"time"

	"github.com/jeden-/LLM-EA-sub001/internal/backtest"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// RunRecord is a persisted backtest run: the request, its metrics, and
// the resulting ledger and equity curve.
type RunRecord struct {
	ID          int64                  `json:"id"`
	CreatedAt   time.Time              `json:"created_at"`
	Symbol      string                 `json:"symbol"`
	Timeframe   string                 `json:"timeframe"`
	Strategy    string                 `json:"strategy"`
	Start       time.Time              `json:"start,omitempty"`
	End         time.Time              `json:"end,omitempty"`
	Balance     float64                `json:"initial_balance"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Truncated   bool                   `json:"truncated,omitempty"`
	Metrics     backtest.Metrics       `json:"metrics"`
	Trades      []models.Trade         `json:"trades,omitempty"`
	EquityCurve []models.EquityPoint   `json:"equity_curve,omitempty"`
}

// RunFilter narrows ListRuns results. Zero fields match everything.
type RunFilter struct {
	Symbol   string
	Strategy string
	Limit    int
}

// RunStore defines the persistence interface for backtest runs.
type RunStore interface {
	// SaveRun persists a run and returns its assigned ID.
	SaveRun(ctx context.Context, rec *RunRecord) (int64, error)
	// GetRun loads a run with its full ledger and equity curve.
	GetRun(ctx context.Context, id int64) (*RunRecord, error)
	// ListRuns returns run summaries (no ledger or curve), newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	Close() error
}
