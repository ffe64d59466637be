// Package limits computes rolling-window usage from transfer history and
// decides whether a proposed amount is admissible. It is purely functional
// over a (records, now) pair; the history store stays the source of truth.
package limits

import (
	"fmt"
	"time"

	"send-money-api/internal/models"
)

// Period selects a trailing lookback window ending at "now".
type Period string

const (
	PeriodDaily    Period = "daily"
	PeriodMonthly  Period = "monthly"
	PeriodSemester Period = "semester"
)

// InvalidPeriodError reports an unknown period token.
type InvalidPeriodError struct {
	Period Period
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period: %s", e.Period)
}

// LimitExceededError reports a rolling-window rejection. Limits carries the
// snapshot so callers can surface remaining headroom per window.
type LimitExceededError struct {
	Reason string
	Limits TransferLimits
}

func (e *LimitExceededError) Error() string {
	return e.Reason
}

func window(period Period) (time.Duration, error) {
	switch period {
	case PeriodDaily:
		return 24 * time.Hour, nil
	case PeriodMonthly:
		return 30 * 24 * time.Hour, nil
	case PeriodSemester:
		return 180 * 24 * time.Hour, nil
	default:
		return 0, &InvalidPeriodError{Period: period}
	}
}

// CalculatePeriodUsage sums the amounts of every record whose timestamp is
// at or after now minus the period's window. The cutoff is inclusive: a
// record exactly at the cutoff instant counts.
func CalculatePeriodUsage(records []models.HistoryRecord, now time.Time, period Period) (float64, error) {
	w, err := window(period)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-w)

	var total float64
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			total += r.Amount
		}
	}

	return total, nil
}

// TransferLimits is a disposable snapshot of usage against the fixed
// ceilings. It is recomputed fresh on every inquiry and never persisted.
type TransferLimits struct {
	DailyLimit    float64
	MonthlyLimit  float64
	SemesterLimit float64

	DailyUsed    float64
	MonthlyUsed  float64
	SemesterUsed float64
}

func (l TransferLimits) DailyRemaining() float64 {
	return l.DailyLimit - l.DailyUsed
}

func (l TransferLimits) MonthlyRemaining() float64 {
	return l.MonthlyLimit - l.MonthlyUsed
}

func (l TransferLimits) SemesterRemaining() float64 {
	return l.SemesterLimit - l.SemesterUsed
}

// CanTransfer checks the amount against each window in strict order: daily,
// then monthly, then semester. The first window without headroom names the
// rejection; later windows are not reported even if also exceeded.
func (l TransferLimits) CanTransfer(amount float64) (bool, string) {
	if amount > l.DailyRemaining() {
		return false, fmt.Sprintf(
			"Transfer would exceed daily limit. Remaining: $%.2f USD", l.DailyRemaining())
	}

	if amount > l.MonthlyRemaining() {
		return false, fmt.Sprintf(
			"Transfer would exceed monthly limit. Remaining: $%.2f USD", l.MonthlyRemaining())
	}

	if amount > l.SemesterRemaining() {
		return false, fmt.Sprintf(
			"Transfer would exceed semester limit. Remaining: $%.2f USD", l.SemesterRemaining())
	}

	return true, ""
}

// AddTransfer adds an amount to all three usage counters. Only this
// in-memory snapshot changes, never the underlying history.
func (l *TransferLimits) AddTransfer(amount float64) {
	l.DailyUsed += amount
	l.MonthlyUsed += amount
	l.SemesterUsed += amount
}

// Tracker evaluates limits for one user's history at a fixed instant.
type Tracker struct {
	records []models.HistoryRecord
	now     time.Time
}

// NewTracker builds a tracker. A zero now defaults to the current time.
func NewTracker(records []models.HistoryRecord, now time.Time) *Tracker {
	if now.IsZero() {
		now = time.Now()
	}
	return &Tracker{records: records, now: now}
}

// CurrentLimits computes the three window sums against the same (records,
// now) pair. The windows nest: a transfer inside the daily window is also
// counted in the monthly and semester sums.
func (t *Tracker) CurrentLimits() TransferLimits {
	daily, _ := CalculatePeriodUsage(t.records, t.now, PeriodDaily)
	monthly, _ := CalculatePeriodUsage(t.records, t.now, PeriodMonthly)
	semester, _ := CalculatePeriodUsage(t.records, t.now, PeriodSemester)

	return TransferLimits{
		DailyLimit:    models.DailyLimit,
		MonthlyLimit:  models.MonthlyLimit,
		SemesterLimit: models.SemesterLimit,
		DailyUsed:     daily,
		MonthlyUsed:   monthly,
		SemesterUsed:  semester,
	}
}

// CheckLimits reports whether the amount fits every window, with the
// rejecting window's reason when it does not.
func (t *Tracker) CheckLimits(amount float64) (bool, string) {
	return t.CurrentLimits().CanTransfer(amount)
}
