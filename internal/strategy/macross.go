package strategy

import (
	"fmt"

	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// Default moving-average cross periods.
const (
	DefaultFastMAPeriod = 10
	DefaultSlowMAPeriod = 50
)

// MACross enters long when the fast SMA crosses above the slow SMA and
// short on the opposite cross. Params: fast_ma_period, slow_ma_period.
type MACross struct{}

// NewMACross creates a new moving-average cross strategy.
func NewMACross() *MACross {
	return &MACross{}
}

func (s *MACross) Name() string {
	return "ma_cross"
}

func (s *MACross) periods(p Params) (fast, slow int) {
	fast = p.Int("fast_ma_period", DefaultFastMAPeriod)
	slow = p.Int("slow_ma_period", DefaultSlowMAPeriod)
	if fast > slow {
		fast, slow = slow, fast
	}
	return fast, slow
}

func (s *MACross) MinLookback(p Params) int {
	_, slow := s.periods(p)
	return slow
}

func (s *MACross) RequiredColumns(p Params) []string {
	fast, slow := s.periods(p)
	return []string{models.SMAColumn(fast), models.SMAColumn(slow)}
}

func (s *MACross) Evaluate(window []models.Bar, p Params) models.Signal {
	if len(window) < 2 {
		return none()
	}
	fast, slow := s.periods(p)
	fastCol := models.SMAColumn(fast)
	slowCol := models.SMAColumn(slow)

	curr := window[len(window)-1]
	prev := window[len(window)-2]

	currFast, okF := curr.Indicator(fastCol)
	currSlow, okS := curr.Indicator(slowCol)
	if !okF || !okS {
		return none()
	}

	// When the previous bar has no averages yet (first evaluable bar),
	// treat them as equal so the first defined separation counts as the
	// initial cross.
	prevFast, okPF := prev.Indicator(fastCol)
	prevSlow, okPS := prev.Indicator(slowCol)
	if !okPF || !okPS {
		prevFast, prevSlow = 0, 0
	}

	if prevFast <= prevSlow && currFast > currSlow {
		return models.Signal{
			Action: models.SignalEnterLong,
			Setup:  "MA Cross (Long)",
			Reason: fmt.Sprintf("SMA(%d) crossed above SMA(%d)", fast, slow),
		}
	}
	if prevFast >= prevSlow && currFast < currSlow {
		return models.Signal{
			Action: models.SignalEnterShort,
			Setup:  "MA Cross (Short)",
			Reason: fmt.Sprintf("SMA(%d) crossed below SMA(%d)", fast, slow),
		}
	}
	return none()
}

func init() {
	Register(NewMACross())
}
