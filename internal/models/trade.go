package models

import "time"

// Side represents the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SignalAction is the action a strategy requests for the current bar.
type SignalAction string

const (
	SignalNone       SignalAction = "NONE"
	SignalEnterLong  SignalAction = "ENTER_LONG"
	SignalEnterShort SignalAction = "ENTER_SHORT"
)

// Signal is a strategy's verdict for one bar. It is produced fresh per
// bar and never persisted.
type Signal struct {
	Action SignalAction
	Setup  string
	Reason string
}

// Side returns the position side the signal asks to enter, or "" for NONE.
func (s Signal) Side() Side {
	switch s.Action {
	case SignalEnterLong:
		return SideLong
	case SignalEnterShort:
		return SideShort
	}
	return ""
}

// CloseReason explains why a position was closed.
type CloseReason string

const (
	CloseReasonStop           CloseReason = "STOP"
	CloseReasonTarget         CloseReason = "TARGET"
	CloseReasonSignalReversal CloseReason = "SIGNAL_REVERSAL"
	CloseReasonEndOfData      CloseReason = "END_OF_DATA"
)

// Position is the single open position during a simulation run. It is
// owned exclusively by the simulation loop and converted into a Trade
// on close.
type Position struct {
	Side       Side
	Setup      string
	Reason     string
	EntryPrice float64
	EntryTime  time.Time
	StopLoss   float64
	TakeProfit float64
	Size       float64
	RiskAmount float64
}

// Trade is the immutable record materialized when a position closes.
type Trade struct {
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Setup       string      `json:"setup"`
	Reason      string      `json:"reason"`
	EntryTime   time.Time   `json:"entry_time"`
	ExitTime    time.Time   `json:"exit_time"`
	EntryPrice  float64     `json:"entry_price"`
	ExitPrice   float64     `json:"exit_price"`
	Size        float64     `json:"size"`
	ProfitLoss  float64     `json:"profit_loss"`
	CloseReason CloseReason `json:"close_reason"`
}

// EquityPoint is a snapshot of the account balance, appended once per
// trade close (plus one seed point at run start).
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}
