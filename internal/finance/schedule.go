package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationMethod is the closed set of supported repayment strategies.
type AmortizationMethod string

const MethodAmerican AmortizationMethod = "AMERICAN"

// ParseMethod maps a stored or requested method name onto a supported
// method. An empty name means American.
func ParseMethod(s string) (AmortizationMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AMERICAN", "AMERICANO", "BULLET":
		return MethodAmerican, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// Variant distinguishes plain bullet bonds from those with grace periods.
type Variant string

const (
	VariantAmericanPure      Variant = "AMERICAN_PURE"
	VariantAmericanWithGrace Variant = "AMERICAN_WITH_GRACE"
)

// BondTerms is the issuer's definition of a bond. It is never mutated by
// the engine.
type BondTerms struct {
	FaceValue           decimal.Decimal
	CouponRate          Rate
	TermYears           int
	Frequency           int
	IssueDate           time.Time
	TotalGracePeriods   int
	PartialGracePeriods int
	Method              AmortizationMethod
}

// Periods is N, the number of coupon periods after disbursement.
func (t BondTerms) Periods() int {
	return t.TermYears * t.Frequency
}

func (t BondTerms) Validate() error {
	if !t.FaceValue.IsPositive() {
		return invalid("face_value", "must be positive, got %s", t.FaceValue)
	}
	if t.CouponRate.Value.IsNegative() {
		return invalid("coupon_rate", "must not be negative, got %s", t.CouponRate)
	}
	if t.TermYears <= 0 {
		return invalid("term_years", "must be positive, got %d", t.TermYears)
	}
	if t.Frequency <= 0 {
		return invalid("frequency", "must be positive, got %d", t.Frequency)
	}
	if 12%t.Frequency != 0 {
		return invalid("frequency", "%d does not divide 12 months", t.Frequency)
	}
	if t.IssueDate.IsZero() {
		return invalid("issue_date", "is required")
	}
	if t.TotalGracePeriods < 0 || t.PartialGracePeriods < 0 {
		return invalid("grace_periods", "must not be negative")
	}
	if n := t.Periods(); t.TotalGracePeriods+t.PartialGracePeriods >= n {
		return invalid("grace_periods", "%d grace periods leave no repayment period out of %d",
			t.TotalGracePeriods+t.PartialGracePeriods, n)
	}
	if _, err := ParseMethod(string(t.Method)); err != nil {
		return err
	}
	return nil
}

func (t BondTerms) Variant() Variant {
	if t.TotalGracePeriods > 0 || t.PartialGracePeriods > 0 {
		return VariantAmericanWithGrace
	}
	return VariantAmericanPure
}

// PeriodKind classifies a schedule row.
type PeriodKind string

const (
	KindDisbursement PeriodKind = "disbursement"
	KindTotalGrace   PeriodKind = "total_grace"
	KindPartialGrace PeriodKind = "partial_grace"
	KindRegular      PeriodKind = "regular"
	KindMaturity     PeriodKind = "maturity"
)

// CashFlowPeriod is one row of a bond schedule. Installment is what the
// issuer pays in the period; CashFlow is the bondholder's net flow.
type CashFlowPeriod struct {
	Period       int             `json:"period"`
	Date         time.Time       `json:"date"`
	Installment  decimal.Decimal `json:"installment"`
	Interest     decimal.Decimal `json:"interest"`
	Amortization decimal.Decimal `json:"amortization"`
	Balance      decimal.Decimal `json:"balance"`
	CashFlow     decimal.Decimal `json:"cash_flow"`
	Kind         PeriodKind      `json:"kind"`
}

// stepFunc derives period i from period i-1.
type stepFunc func(prev CashFlowPeriod, i int) CashFlowPeriod

type strategy func(e *Engine, t BondTerms) stepFunc

var strategies = map[AmortizationMethod]strategy{
	MethodAmerican: americanStep,
}

// CouponPeriodRate is the nominal coupon split evenly across periods.
func (e *Engine) CouponPeriodRate(t BondTerms) decimal.Decimal {
	return e.prec.div(t.CouponRate.Fraction(), decimal.NewFromInt(int64(t.Frequency)))
}

// BuildSchedule returns periods 0..N for the bond. Each period is folded
// from the previous one; nothing outside the returned slice is touched.
func (e *Engine) BuildSchedule(t BondTerms) ([]CashFlowPeriod, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	method, _ := ParseMethod(string(t.Method))
	step := strategies[method](e, t)

	face := e.prec.quantize(t.FaceValue)
	n := t.Periods()
	schedule := make([]CashFlowPeriod, 0, n+1)
	schedule = append(schedule, CashFlowPeriod{
		Period:       0,
		Date:         t.IssueDate,
		Installment:  decimal.Zero,
		Interest:     decimal.Zero,
		Amortization: decimal.Zero,
		Balance:      face,
		CashFlow:     face.Neg(),
		Kind:         KindDisbursement,
	})
	for i := 1; i <= n; i++ {
		schedule = append(schedule, step(schedule[i-1], i))
	}
	return schedule, nil
}

// RoundSchedule returns a copy of schedule with every money field at
// MoneyScale. The fold and the metrics run on the unrounded schedule.
func (e *Engine) RoundSchedule(schedule []CashFlowPeriod) []CashFlowPeriod {
	out := make([]CashFlowPeriod, len(schedule))
	for i, p := range schedule {
		p.Installment = p.Installment.Round(e.prec.MoneyScale)
		p.Interest = p.Interest.Round(e.prec.MoneyScale)
		p.Amortization = p.Amortization.Round(e.prec.MoneyScale)
		p.Balance = p.Balance.Round(e.prec.MoneyScale)
		p.CashFlow = p.CashFlow.Round(e.prec.MoneyScale)
		out[i] = p
	}
	return out
}

func americanStep(e *Engine, t BondTerms) stepFunc {
	rate := e.CouponPeriodRate(t)
	n := t.Periods()
	totalEnd := t.TotalGracePeriods
	partialEnd := t.TotalGracePeriods + t.PartialGracePeriods
	monthsPerPeriod := 12 / t.Frequency

	return func(prev CashFlowPeriod, i int) CashFlowPeriod {
		interest := e.prec.mul(prev.Balance, rate)
		row := CashFlowPeriod{
			Period:       i,
			Date:         addMonths(t.IssueDate, i*monthsPerPeriod),
			Interest:     interest,
			Amortization: decimal.Zero,
			Balance:      prev.Balance,
		}
		switch {
		case i <= totalEnd:
			row.Kind = KindTotalGrace
			row.Balance = prev.Balance.Add(interest)
			row.Installment = decimal.Zero
			row.CashFlow = decimal.Zero
		case i <= partialEnd:
			row.Kind = KindPartialGrace
			row.Installment = interest
			row.CashFlow = interest
		case i == n:
			row.Kind = KindMaturity
			row.Amortization = prev.Balance
			row.Balance = decimal.Zero
			row.Installment = interest.Add(prev.Balance)
			row.CashFlow = row.Installment
		default:
			row.Kind = KindRegular
			row.Installment = interest
			row.CashFlow = interest
		}
		return row
	}
}

// addMonths steps like a spreadsheet EDATE: Jan 31 + 1 month is the last
// day of February, not March 3.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
