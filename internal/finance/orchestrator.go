package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BondValuation holds the derived fields of a bond at its own coupon rate.
type BondValuation struct {
	TCEA         decimal.Decimal  `json:"tcea"`
	Duration     decimal.Decimal  `json:"duration"`
	Convexity    decimal.Decimal  `json:"convexity"`
	DiscountRate decimal.Decimal  `json:"discount_rate"`
	Variant      Variant          `json:"variant"`
	Schedule     []CashFlowPeriod `json:"schedule"`
}

// InvestmentEvaluation is an investor's view of a bond at a required rate.
type InvestmentEvaluation struct {
	ExpectedRate decimal.Decimal `json:"expected_rate"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	TREA         decimal.Decimal `json:"trea"`
	Duration     decimal.Decimal `json:"duration"`
	Convexity    decimal.Decimal `json:"convexity"`
	Yield        YieldResult     `json:"yield"`
	Variant      Variant         `json:"variant"`
}

// ProcessBond computes TCEA, builds the schedule and measures duration and
// convexity discounting at the TCEA itself.
func (e *Engine) ProcessBond(t BondTerms) (BondValuation, error) {
	schedule, err := e.BuildSchedule(t)
	if err != nil {
		return BondValuation{}, err
	}
	tcea, err := e.TCEA(t)
	if err != nil {
		return BondValuation{}, err
	}
	m, err := e.Metrics(schedule, t.Frequency, Fraction(tcea))
	if err != nil {
		return BondValuation{}, fmt.Errorf("metrics at tcea %s: %w", tcea, err)
	}
	return BondValuation{
		TCEA:         tcea,
		Duration:     m.Duration,
		Convexity:    m.Convexity,
		DiscountRate: tcea,
		Variant:      t.Variant(),
		Schedule:     e.RoundSchedule(schedule),
	}, nil
}

// EvaluateInvestment prices the bond at the expected effective annual rate
// and solves the realized TREA back from that price.
func (e *Engine) EvaluateInvestment(t BondTerms, expected Rate) (InvestmentEvaluation, error) {
	schedule, err := e.BuildSchedule(t)
	if err != nil {
		return InvestmentEvaluation{}, err
	}
	m, err := e.Metrics(schedule, t.Frequency, expected)
	if err != nil {
		return InvestmentEvaluation{}, err
	}
	y, err := e.SolveYield(schedule, t.Frequency, m.Price)
	if err != nil {
		return InvestmentEvaluation{}, err
	}
	return InvestmentEvaluation{
		ExpectedRate: expected.Fraction().Round(e.prec.RateScale),
		MaxPrice:     m.Price,
		TREA:         y.Rate,
		Duration:     m.Duration,
		Convexity:    m.Convexity,
		Yield:        y,
		Variant:      t.Variant(),
	}, nil
}

// PriceReport renders the inputs and intermediate figures behind the price
// of a bond at rate.
func (e *Engine) PriceReport(t BondTerms, rate Rate) (string, error) {
	schedule, err := e.BuildSchedule(t)
	if err != nil {
		return "", err
	}
	periodic, err := e.PeriodicRateFromAnnual(rate, t.Frequency)
	if err != nil {
		return "", err
	}
	price, err := e.Price(schedule, t.Frequency, rate)
	if err != nil {
		return "", err
	}
	coupon := e.prec.mul(t.FaceValue, e.CouponPeriodRate(t))

	var b strings.Builder
	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- Face value: %s\n", t.FaceValue.StringFixed(e.prec.MoneyScale))
	fmt.Fprintf(&b, "- Coupon rate: %s%%\n", t.CouponRate.Fraction().Mul(hundred).StringFixed(2))
	fmt.Fprintf(&b, "- Payment frequency: %d\n", t.Frequency)
	fmt.Fprintf(&b, "- Total periods: %d\n", t.Periods())
	fmt.Fprintf(&b, "- Total grace periods: %d\n", t.TotalGracePeriods)
	fmt.Fprintf(&b, "- Partial grace periods: %d\n", t.PartialGracePeriods)
	fmt.Fprintf(&b, "- Variant: %s\n", t.Variant())
	fmt.Fprintf(&b, "- Discount rate (TREA): %s%%\n", rate.Fraction().Mul(hundred).StringFixed(2))
	fmt.Fprintf(&b, "- Periodic rate: %s%%\n", periodic.Mul(hundred).StringFixed(4))
	fmt.Fprintf(&b, "- Periodic coupon: %s\n", coupon.StringFixed(e.prec.MoneyScale))
	fmt.Fprintf(&b, "\nComputed price: %s\n", price.StringFixed(e.prec.MoneyScale))
	return b.String(), nil
}
