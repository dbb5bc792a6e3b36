package finance

import (
	"github.com/shopspring/decimal"
)

// YieldMethod records which path of the solver produced a rate.
type YieldMethod string

const (
	YieldLinear     YieldMethod = "closed-form-linear"
	YieldRoot       YieldMethod = "closed-form-root"
	YieldQuadratic  YieldMethod = "closed-form-quadratic"
	YieldBisection  YieldMethod = "bisection"
	YieldDegenerate YieldMethod = "degenerate"
)

// Solver constants.
var (
	bisectLow       = decimal.RequireFromString("-0.5")
	bisectHigh      = decimal.RequireFromString("2.0")
	bisectTolerance = decimal.RequireFromString("0.0001")
	two             = decimal.NewFromInt(2)
	four            = decimal.NewFromInt(4)
)

const bisectMaxIter = 100

// YieldResult is the output of SolveYield. Rate is the effective annual
// return (TREA) as a fraction; Residual is the net present value left at
// that rate.
type YieldResult struct {
	Rate         decimal.Decimal `json:"rate"`
	PeriodicRate decimal.Decimal `json:"periodic_rate"`
	Method       YieldMethod     `json:"method"`
	Iterations   int             `json:"iterations"`
	Converged    bool            `json:"converged"`
	Residual     decimal.Decimal `json:"residual"`
}

type positiveFlow struct {
	t  int
	cf decimal.Decimal
}

func positiveFlows(schedule []CashFlowPeriod) []positiveFlow {
	var flows []positiveFlow
	for _, row := range schedule {
		if row.Period > 0 && row.CashFlow.IsPositive() {
			flows = append(flows, positiveFlow{t: row.Period, cf: row.CashFlow})
		}
	}
	return flows
}

// SolveYield finds the effective annual rate at which the schedule's
// positive flows are worth price. Schedules with one positive flow, or two
// at periods 1 and 2, are solved in closed form; everything else, and any
// closed form without a valid root, is bisected over [-0.5, 2.0].
//
// A non-positive price or a schedule without positive flows yields a zero
// rate with Method degenerate. Bisection that exhausts its iterations
// returns the final midpoint with Converged false.
func (e *Engine) SolveYield(schedule []CashFlowPeriod, frequency int, price decimal.Decimal) (YieldResult, error) {
	if frequency <= 0 {
		return YieldResult{}, invalid("frequency", "must be positive, got %d", frequency)
	}
	flows := positiveFlows(schedule)
	if !price.IsPositive() || len(flows) == 0 {
		return YieldResult{Rate: decimal.Zero, PeriodicRate: decimal.Zero, Method: YieldDegenerate, Residual: decimal.Zero}, nil
	}

	if periodic, method, ok := e.closedForm(flows, price); ok {
		return e.fromPeriodic(flows, price, frequency, periodic, method), nil
	}
	return e.bisect(flows, price, frequency), nil
}

// closedForm returns the periodic rate when the flows admit a direct
// solution with 1+p > 1.
func (e *Engine) closedForm(flows []positiveFlow, price decimal.Decimal) (decimal.Decimal, YieldMethod, bool) {
	switch {
	case len(flows) == 1:
		ratio := e.prec.div(flows[0].cf, price)
		if flows[0].t == 1 {
			return ratio.Sub(one), YieldLinear, true
		}
		x := e.prec.powFloat(ratio, 1/float64(flows[0].t))
		if !x.IsPositive() {
			return decimal.Zero, "", false
		}
		return x.Sub(one), YieldRoot, true
	case len(flows) == 2 && flows[0].t == 1 && flows[1].t == 2:
		// price·x² - c1·x - c2 = 0 with x = 1+p
		c1, c2 := flows[0].cf, flows[1].cf
		disc := c1.Mul(c1).Add(four.Mul(price).Mul(c2))
		if disc.IsNegative() {
			e.log.Debug().Str("disc", disc.String()).Msg("quadratic has no real root, bisecting")
			return decimal.Zero, "", false
		}
		x := e.prec.div(c1.Add(e.prec.sqrt(disc)), two.Mul(price))
		if !x.GreaterThan(one) {
			e.log.Debug().Str("root", x.String()).Msg("quadratic root not above 1, bisecting")
			return decimal.Zero, "", false
		}
		return x.Sub(one), YieldQuadratic, true
	}
	return decimal.Zero, "", false
}

func (e *Engine) fromPeriodic(flows []positiveFlow, price decimal.Decimal, frequency int, periodic decimal.Decimal, method YieldMethod) YieldResult {
	annual := e.prec.powInt(one.Add(periodic), frequency).Sub(one)
	residual := e.npv(flows, price, one.Add(periodic))
	return YieldResult{
		Rate:         annual.Round(e.prec.RateScale),
		PeriodicRate: periodic.Round(e.prec.RateScale),
		Method:       method,
		Converged:    true,
		Residual:     residual,
	}
}

// npv is -price plus every flow discounted by base^t.
func (e *Engine) npv(flows []positiveFlow, price, base decimal.Decimal) decimal.Decimal {
	total := price.Neg()
	for _, fl := range flows {
		total = total.Add(e.prec.div(fl.cf, e.prec.powInt(base, fl.t)))
	}
	return total
}

func (e *Engine) periodicBase(annual decimal.Decimal, frequency int) decimal.Decimal {
	base := one.Add(annual)
	if frequency == 1 {
		return base
	}
	return e.prec.powFloat(base, 1/float64(frequency))
}

// bisect searches the annual rate. A positive NPV at mid means the rate is
// still too low.
func (e *Engine) bisect(flows []positiveFlow, price decimal.Decimal, frequency int) YieldResult {
	lo, hi := bisectLow, bisectHigh
	mid := decimal.Zero
	residual := decimal.Zero
	converged := false
	iter := 0
	for iter < bisectMaxIter {
		iter++
		mid = e.prec.div(lo.Add(hi), two)
		residual = e.npv(flows, price, e.periodicBase(mid, frequency))
		if residual.Abs().LessThan(bisectTolerance) {
			converged = true
			break
		}
		if residual.IsPositive() {
			lo = mid
		} else {
			hi = mid
		}
		// the bracket can no longer be split at the working scale
		if mid.Equal(e.prec.div(lo.Add(hi), two)) {
			break
		}
	}

	if !converged {
		mid = e.prec.div(lo.Add(hi), two)
		residual = e.npv(flows, price, e.periodicBase(mid, frequency))
		e.log.Warn().
			Str("rate", mid.String()).
			Str("residual", residual.String()).
			Int("iterations", iter).
			Msg("yield bisection did not converge")
	}
	periodic := e.periodicBase(mid, frequency).Sub(one)
	return YieldResult{
		Rate:         mid.Round(e.prec.RateScale),
		PeriodicRate: periodic.Round(e.prec.RateScale),
		Method:       YieldBisection,
		Iterations:   iter,
		Converged:    converged,
		Residual:     residual,
	}
}
