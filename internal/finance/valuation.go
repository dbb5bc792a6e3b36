package finance

import (
	"github.com/shopspring/decimal"
)

// Metrics are the discount-rate dependent figures of a schedule.
type Metrics struct {
	Price     decimal.Decimal `json:"price"`
	Duration  decimal.Decimal `json:"duration"`
	Convexity decimal.Decimal `json:"convexity"`
}

// TCEA compounds the nominal coupon over one year:
// (1 + coupon/f)^f - 1, at RateScale.
func (e *Engine) TCEA(t BondTerms) (decimal.Decimal, error) {
	if t.Frequency <= 0 {
		return decimal.Zero, invalid("frequency", "must be positive, got %d", t.Frequency)
	}
	tcea, err := e.AnnualEffectiveFromNominal(t.CouponRate, t.Frequency)
	if err != nil {
		return decimal.Zero, err
	}
	return tcea.Round(e.prec.RateScale), nil
}

type discountedFlow struct {
	t  int
	pv decimal.Decimal
}

// discount returns the present value of every strictly positive flow after
// period 0, the unrounded total and the periodic rate used.
func (e *Engine) discount(schedule []CashFlowPeriod, frequency int, rate Rate) ([]discountedFlow, decimal.Decimal, decimal.Decimal, error) {
	periodic, err := e.PeriodicRateFromAnnual(rate, frequency)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}
	base := one.Add(periodic)
	flows := make([]discountedFlow, 0, len(schedule))
	total := decimal.Zero
	for _, row := range schedule {
		if row.Period <= 0 || !row.CashFlow.IsPositive() {
			continue
		}
		pv := e.prec.div(row.CashFlow, e.prec.powInt(base, row.Period))
		flows = append(flows, discountedFlow{t: row.Period, pv: pv})
		total = total.Add(pv)
	}
	return flows, total, periodic, nil
}

// Metrics discounts the schedule once and derives price, Macaulay duration
// in years and annualized convexity. Duration and convexity are zero when
// the discounted price is not positive.
func (e *Engine) Metrics(schedule []CashFlowPeriod, frequency int, rate Rate) (Metrics, error) {
	flows, price, periodic, err := e.discount(schedule, frequency, rate)
	if err != nil {
		return Metrics{}, err
	}
	m := Metrics{
		Price:     price.Round(e.prec.MoneyScale),
		Duration:  decimal.Zero,
		Convexity: decimal.Zero,
	}
	if !price.IsPositive() {
		return m, nil
	}

	f := decimal.NewFromInt(int64(frequency))
	weighted := decimal.Zero
	curved := decimal.Zero
	for _, fl := range flows {
		t := decimal.NewFromInt(int64(fl.t))
		weighted = weighted.Add(t.Mul(fl.pv))
		curved = curved.Add(t.Mul(t.Add(one)).Mul(fl.pv))
	}

	duration := e.prec.div(e.prec.div(weighted, price), f)
	m.Duration = duration.Round(e.prec.MetricScale)

	growth := e.prec.powInt(one.Add(periodic), 2)
	convexity := e.prec.div(curved, e.prec.mul(price, growth))
	m.Convexity = e.prec.div(convexity, f.Mul(f)).Round(e.prec.MetricScale)
	return m, nil
}

// Price is the present value of the schedule's positive flows at rate, an
// effective annual rate, rounded to MoneyScale.
func (e *Engine) Price(schedule []CashFlowPeriod, frequency int, rate Rate) (decimal.Decimal, error) {
	_, total, _, err := e.discount(schedule, frequency, rate)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Round(e.prec.MoneyScale), nil
}

func (e *Engine) Duration(schedule []CashFlowPeriod, frequency int, rate Rate) (decimal.Decimal, error) {
	m, err := e.Metrics(schedule, frequency, rate)
	return m.Duration, err
}

func (e *Engine) Convexity(schedule []CashFlowPeriod, frequency int, rate Rate) (decimal.Decimal, error) {
	m, err := e.Metrics(schedule, frequency, rate)
	return m.Convexity, err
}
