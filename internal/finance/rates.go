package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RateUnit tags how a rate value is expressed.
type RateUnit int

const (
	UnitFraction RateUnit = iota // 0.085
	UnitPercent                  // 8.5
)

func (u RateUnit) String() string {
	if u == UnitPercent {
		return "percent"
	}
	return "fraction"
}

// ParseRateUnit accepts "percent"/"%" and "fraction"/"decimal".
func ParseRateUnit(s string) (RateUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent", "percentage", "%":
		return UnitPercent, nil
	case "fraction", "decimal":
		return UnitFraction, nil
	}
	return UnitFraction, invalid("rate_unit", "unknown unit %q", s)
}

// Rate is a rate value with an explicit unit. The engine never guesses the
// unit of a Rate.
type Rate struct {
	Value decimal.Decimal
	Unit  RateUnit
}

var (
	hundred          = decimal.NewFromInt(100)
	one              = decimal.NewFromInt(1)
	percentThreshold = decimal.RequireFromString("0.1")
)

func Fraction(v decimal.Decimal) Rate { return Rate{Value: v, Unit: UnitFraction} }

func Percent(v decimal.Decimal) Rate { return Rate{Value: v, Unit: UnitPercent} }

// InferRate applies the legacy magnitude convention: any value whose
// magnitude exceeds 0.1 is a percentage. It is ambiguous (0.5 meaning 50%
// is read as 0.5%) and exists only for callers that send no unit.
func InferRate(v decimal.Decimal) Rate {
	if v.Abs().GreaterThan(percentThreshold) {
		return Percent(v)
	}
	return Fraction(v)
}

// NewRate builds a Rate from a value and an optional unit name. An empty
// unit falls back to InferRate.
func NewRate(v decimal.Decimal, unit string) (Rate, error) {
	if strings.TrimSpace(unit) == "" {
		return InferRate(v), nil
	}
	u, err := ParseRateUnit(unit)
	if err != nil {
		return Rate{}, err
	}
	return Rate{Value: v, Unit: u}, nil
}

// Fraction returns the rate as a decimal fraction.
func (r Rate) Fraction() decimal.Decimal {
	if r.Unit == UnitPercent {
		return r.Value.Div(hundred)
	}
	return r.Value
}

func (r Rate) String() string {
	if r.Unit == UnitPercent {
		return r.Value.String() + "%"
	}
	return r.Value.String()
}

// RateKind names the rate conventions handled by ConvertRate.
type RateKind string

const (
	NominalAnnual   RateKind = "TNA" // nominal annual, compounded m times a year
	EffectiveAnnual RateKind = "TEA"
	EffectivePeriod RateKind = "TEP"
)

// PeriodicRateFromAnnual converts an effective annual rate into the
// equivalent effective rate per period: (1+r)^(1/f) - 1.
func (e *Engine) PeriodicRateFromAnnual(annual Rate, frequency int) (decimal.Decimal, error) {
	if frequency <= 0 {
		return decimal.Zero, invalid("frequency", "must be positive, got %d", frequency)
	}
	base := one.Add(e.prec.quantize(annual.Fraction()))
	if !base.IsPositive() {
		return decimal.Zero, invalid("rate", "annual rate %s must be above -100%%", annual)
	}
	if frequency == 1 {
		return e.prec.quantize(base.Sub(one)), nil
	}
	return e.prec.powFloat(base, 1/float64(frequency)).Sub(one), nil
}

// AnnualEffectiveFromNominal returns (1 + j/m)^m - 1.
func (e *Engine) AnnualEffectiveFromNominal(nominal Rate, m int) (decimal.Decimal, error) {
	if m <= 0 {
		return decimal.Zero, invalid("compoundings", "must be positive, got %d", m)
	}
	periodic := e.prec.div(nominal.Fraction(), decimal.NewFromInt(int64(m)))
	return e.prec.powInt(one.Add(periodic), m).Sub(one), nil
}

// FutureValue compounds principal over the given number of periods.
func (e *Engine) FutureValue(principal decimal.Decimal, rate Rate, periods int) (decimal.Decimal, error) {
	if periods < 0 {
		return decimal.Zero, invalid("periods", "must not be negative, got %d", periods)
	}
	factor := e.prec.powInt(one.Add(rate.Fraction()), periods)
	return e.prec.mul(principal, factor), nil
}

// PresentValue discounts amount over the given number of periods.
func (e *Engine) PresentValue(amount decimal.Decimal, rate Rate, periods int) (decimal.Decimal, error) {
	if periods < 0 {
		return decimal.Zero, invalid("periods", "must not be negative, got %d", periods)
	}
	factor := e.prec.powInt(one.Add(rate.Fraction()), periods)
	if factor.IsZero() {
		return decimal.Zero, invalid("rate", "discount factor is zero for rate %s", rate)
	}
	return e.prec.div(amount, factor), nil
}

// EquivalentValue sums amounts[i] / (1+rate)^periods[i].
func (e *Engine) EquivalentValue(amounts []decimal.Decimal, periods []int, rate Rate) (decimal.Decimal, error) {
	if len(amounts) != len(periods) {
		return decimal.Zero, invalid("amounts", "%d amounts for %d periods", len(amounts), len(periods))
	}
	total := decimal.Zero
	for i, amount := range amounts {
		pv, err := e.PresentValue(amount, rate, periods[i])
		if err != nil {
			return decimal.Zero, fmt.Errorf("amount %d: %w", i, err)
		}
		total = total.Add(pv)
	}
	return e.prec.quantize(total), nil
}

// ConvertRate converts between nominal annual, effective annual and
// effective periodic rates for m periods (or compoundings) a year.
func (e *Engine) ConvertRate(rate Rate, from, to RateKind, m int) (decimal.Decimal, error) {
	if m <= 0 {
		return decimal.Zero, invalid("compoundings", "must be positive, got %d", m)
	}
	r := e.prec.quantize(rate.Fraction())
	if from == to {
		return r, nil
	}
	switch {
	case from == NominalAnnual && to == EffectiveAnnual:
		return e.AnnualEffectiveFromNominal(Fraction(r), m)
	case from == EffectiveAnnual && to == NominalAnnual:
		periodic, err := e.PeriodicRateFromAnnual(Fraction(r), m)
		if err != nil {
			return decimal.Zero, err
		}
		return e.prec.mul(periodic, decimal.NewFromInt(int64(m))), nil
	case from == EffectiveAnnual && to == EffectivePeriod:
		return e.PeriodicRateFromAnnual(Fraction(r), m)
	case from == EffectivePeriod && to == EffectiveAnnual:
		return e.prec.powInt(one.Add(r), m).Sub(one), nil
	}
	return decimal.Zero, invalid("rate_kind", "no conversion from %s to %s", from, to)
}
