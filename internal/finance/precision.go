package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the fixed-point configuration threaded through every
// calculation. Scale is the working precision for intermediate values; the
// other scales are display precisions for the published metrics.
type Precision struct {
	Scale       int32 `json:"scale"`
	RateScale   int32 `json:"rate_scale"`
	MoneyScale  int32 `json:"money_scale"`
	MetricScale int32 `json:"metric_scale"`
}

const minWorkingScale = 10

// DefaultPrecision: 10 working digits, TCEA at 8, money at 2, duration and
// convexity at 4.
func DefaultPrecision() Precision {
	return Precision{Scale: 10, RateScale: 8, MoneyScale: 2, MetricScale: 4}
}

func (p Precision) Validate() error {
	if p.Scale < minWorkingScale {
		return invalid("scale", "must be at least %d, got %d", minWorkingScale, p.Scale)
	}
	if p.RateScale < 0 || p.MoneyScale < 0 || p.MetricScale < 0 {
		return invalid("scale", "display scales must not be negative")
	}
	return nil
}

func (p Precision) quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Scale)
}

func (p Precision) div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, p.Scale)
}

func (p Precision) mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(p.Scale)
}

// powInt raises base to a non-negative integer power by repeated squaring,
// quantizing every product to the working scale.
func (p Precision) powInt(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	b := p.quantize(base)
	for n > 0 {
		if n&1 == 1 {
			result = p.mul(result, b)
		}
		n >>= 1
		if n > 0 {
			b = p.mul(b, b)
		}
	}
	return result
}

// powFloat handles fractional exponents through float64 and re-quantizes
// the result. Exact decimal roots are impractical at this precision.
// Callers guarantee a positive base; a non-finite result collapses to zero.
func (p Precision) powFloat(base decimal.Decimal, exp float64) decimal.Decimal {
	return p.fromFloat(math.Pow(base.InexactFloat64(), exp))
}

func (p Precision) sqrt(d decimal.Decimal) decimal.Decimal {
	return p.fromFloat(math.Sqrt(d.InexactFloat64()))
}

func (p Precision) fromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return p.quantize(decimal.NewFromFloat(v))
}
