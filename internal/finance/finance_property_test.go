package finance

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func propertyParams() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	parameters.Rng.Seed(20240115)
	return parameters
}

var frequencies = []int{1, 2, 3, 4, 6, 12}

// termsFrom keeps grace counts inside the term so every generated bond is
// valid.
func termsFrom(face int64, coupon float64, years, freqIdx, total, partial int) BondTerms {
	t := BondTerms{
		FaceValue:           decimal.NewFromInt(face),
		CouponRate:          Percent(decimal.NewFromFloat(coupon).Round(2)),
		TermYears:           years,
		Frequency:           frequencies[freqIdx],
		IssueDate:           issued,
		TotalGracePeriods:   total,
		PartialGracePeriods: partial,
	}
	if total+partial >= t.Periods() {
		t.TotalGracePeriods, t.PartialGracePeriods = 0, 0
	}
	return t
}

func bondGens() []gopter.Gen {
	return []gopter.Gen{
		gen.Int64Range(10000, 1000000),
		gen.Float64Range(0.5, 20),
		gen.IntRange(1, 8),
		gen.IntRange(0, len(frequencies)-1),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
	}
}

func TestProperty_ScheduleBalances(t *testing.T) {
	e := Default()
	properties := gopter.NewProperties(propertyParams())

	properties.Property("balance starts at face value and ends at zero", prop.ForAll(
		func(face int64, coupon float64, years, freqIdx, total, partial int) bool {
			terms := termsFrom(face, coupon, years, freqIdx, total, partial)
			s, err := e.BuildSchedule(terms)
			if err != nil || len(s) != terms.Periods()+1 {
				return false
			}
			return s[0].Balance.Equal(terms.FaceValue) && s[len(s)-1].Balance.IsZero()
		},
		bondGens()...,
	))

	properties.Property("paying periods flow interest plus amortization", prop.ForAll(
		func(face int64, coupon float64, years, freqIdx, total, partial int) bool {
			terms := termsFrom(face, coupon, years, freqIdx, total, partial)
			s, err := e.BuildSchedule(terms)
			if err != nil {
				return false
			}
			for _, row := range s[1:] {
				if row.Kind == KindTotalGrace {
					if !row.CashFlow.IsZero() {
						return false
					}
					continue
				}
				if !row.CashFlow.Equal(row.Interest.Add(row.Amortization)) {
					return false
				}
			}
			return true
		},
		bondGens()...,
	))

	properties.TestingRun(t)
}

func TestProperty_PriceDecreasesWithRate(t *testing.T) {
	e := Default()
	properties := gopter.NewProperties(propertyParams())

	gens := append(bondGens(), gen.Float64Range(0.0001, 0.99))
	properties.Property("higher discount rate gives a lower price", prop.ForAll(
		func(face int64, coupon float64, years, freqIdx, total, partial int, r float64) bool {
			terms := termsFrom(face, coupon, years, freqIdx, total, partial)
			s, err := e.BuildSchedule(terms)
			if err != nil {
				return false
			}
			low := decimal.NewFromFloat(r).Round(4)
			high := low.Add(decimal.RequireFromString("0.05"))
			p1, err1 := e.Price(s, terms.Frequency, Fraction(low))
			p2, err2 := e.Price(s, terms.Frequency, Fraction(high))
			return err1 == nil && err2 == nil && p1.GreaterThan(p2)
		},
		gens...,
	))

	properties.Property("duration is positive and within the term", prop.ForAll(
		func(face int64, coupon float64, years, freqIdx, total, partial int, r float64) bool {
			terms := termsFrom(face, coupon, years, freqIdx, total, partial)
			s, err := e.BuildSchedule(terms)
			if err != nil {
				return false
			}
			m, err := e.Metrics(s, terms.Frequency, Fraction(decimal.NewFromFloat(r).Round(4)))
			if err != nil {
				return false
			}
			return m.Duration.IsPositive() &&
				m.Duration.LessThanOrEqual(decimal.NewFromInt(int64(years))) &&
				m.Convexity.IsPositive()
		},
		gens...,
	))

	properties.TestingRun(t)
}

func TestProperty_EvaluateInvestmentRoundTrip(t *testing.T) {
	e := Default()
	properties := gopter.NewProperties(propertyParams())

	gens := append(bondGens(), gen.Float64Range(0.01, 0.5))
	properties.Property("TREA recovers the expected rate", prop.ForAll(
		func(face int64, coupon float64, years, freqIdx, total, partial int, r float64) bool {
			terms := termsFrom(face, coupon, years, freqIdx, total, partial)
			expected := decimal.NewFromFloat(r).Round(4)
			ev, err := e.EvaluateInvestment(terms, Fraction(expected))
			if err != nil {
				return false
			}
			return ev.TREA.Sub(expected).Abs().LessThan(decimal.RequireFromString("0.001"))
		},
		gens...,
	))

	properties.TestingRun(t)
}
