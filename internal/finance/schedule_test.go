package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issued = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func bullet(face, coupon string, years, freq int) BondTerms {
	return BondTerms{
		FaceValue:  dec(face),
		CouponRate: Percent(dec(coupon)),
		TermYears:  years,
		Frequency:  freq,
		IssueDate:  issued,
		Method:     MethodAmerican,
	}
}

func TestBuildSchedule_AnnualBullet(t *testing.T) {
	s, err := Default().BuildSchedule(bullet("1000", "8", 3, 1))
	require.NoError(t, err)
	require.Len(t, s, 4)

	assert.Equal(t, KindDisbursement, s[0].Kind)
	assertDecimal(t, "1000", s[0].Balance)
	assertDecimal(t, "-1000", s[0].CashFlow)
	assert.True(t, s[0].Interest.IsZero())

	for i := 1; i <= 2; i++ {
		assert.Equal(t, KindRegular, s[i].Kind)
		assertDecimal(t, "80", s[i].Interest)
		assertDecimal(t, "80", s[i].CashFlow)
		assertDecimal(t, "1000", s[i].Balance)
		assert.True(t, s[i].Amortization.IsZero())
	}

	last := s[3]
	assert.Equal(t, KindMaturity, last.Kind)
	assertDecimal(t, "80", last.Interest)
	assertDecimal(t, "1000", last.Amortization)
	assertDecimal(t, "1080", last.CashFlow)
	assertDecimal(t, "1080", last.Installment)
	assert.True(t, last.Balance.IsZero())
	assert.Equal(t, time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC), last.Date)
}

func TestBuildSchedule_Semiannual(t *testing.T) {
	s, err := Default().BuildSchedule(bullet("1000", "10", 1, 2))
	require.NoError(t, err)
	require.Len(t, s, 3)

	assertDecimal(t, "50", s[1].Interest)
	assertDecimal(t, "1000", s[1].Balance)
	assertDecimal(t, "50", s[1].CashFlow)
	assert.Equal(t, time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC), s[1].Date)

	assertDecimal(t, "50", s[2].Interest)
	assertDecimal(t, "1000", s[2].Amortization)
	assertDecimal(t, "1050", s[2].CashFlow)
	assert.True(t, s[2].Balance.IsZero())
}

func TestBuildSchedule_GracePeriods(t *testing.T) {
	terms := bullet("1000", "8", 3, 1)
	terms.TotalGracePeriods = 1
	terms.PartialGracePeriods = 1
	s, err := Default().BuildSchedule(terms)
	require.NoError(t, err)
	require.Len(t, s, 4)

	assert.Equal(t, KindTotalGrace, s[1].Kind)
	assertDecimal(t, "80", s[1].Interest)
	assert.True(t, s[1].CashFlow.IsZero())
	assert.True(t, s[1].Installment.IsZero())
	assertDecimal(t, "1080", s[1].Balance)

	assert.Equal(t, KindPartialGrace, s[2].Kind)
	assertDecimal(t, "86.4", s[2].Interest)
	assertDecimal(t, "86.4", s[2].CashFlow)
	assertDecimal(t, "1080", s[2].Balance)

	assert.Equal(t, KindMaturity, s[3].Kind)
	assertDecimal(t, "1080", s[3].Amortization)
	assertDecimal(t, "1166.4", s[3].CashFlow)
	assert.True(t, s[3].Balance.IsZero())
}

func TestBuildSchedule_Idempotent(t *testing.T) {
	terms := bullet("2500", "6.75", 4, 4)
	terms.PartialGracePeriods = 2
	a, err := Default().BuildSchedule(terms)
	require.NoError(t, err)
	b, err := Default().BuildSchedule(terms)
	require.NoError(t, err)
	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].CashFlow.Equal(b[i].CashFlow))
		assert.True(t, a[i].Balance.Equal(b[i].Balance))
		assert.Equal(t, a[i].Date, b[i].Date)
	}
}

func TestBondTerms_Validate(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*BondTerms)
		field string
	}{
		{"zero face value", func(b *BondTerms) { b.FaceValue = dec("0") }, "face_value"},
		{"negative coupon", func(b *BondTerms) { b.CouponRate = Percent(dec("-1")) }, "coupon_rate"},
		{"zero term", func(b *BondTerms) { b.TermYears = 0 }, "term_years"},
		{"zero frequency", func(b *BondTerms) { b.Frequency = 0 }, "frequency"},
		{"frequency not dividing 12", func(b *BondTerms) { b.Frequency = 5 }, "frequency"},
		{"missing issue date", func(b *BondTerms) { b.IssueDate = time.Time{} }, "issue_date"},
		{"negative grace", func(b *BondTerms) { b.PartialGracePeriods = -1 }, "grace_periods"},
		{"grace covers maturity", func(b *BondTerms) { b.TotalGracePeriods = 2; b.PartialGracePeriods = 1 }, "grace_periods"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms := bullet("1000", "8", 3, 1)
			tc.edit(&terms)
			err := terms.Validate()
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tc.field, argErr.Field)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			_, err = Default().BuildSchedule(terms)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"", "american", "AMERICANO", " Bullet "} {
		m, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, MethodAmerican, m)
	}
	_, err := ParseMethod("FRENCH")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	terms := bullet("1000", "8", 3, 1)
	terms.Method = "GERMAN"
	assert.ErrorIs(t, terms.Validate(), ErrUnsupportedMethod)
}

func TestBondTerms_Variant(t *testing.T) {
	terms := bullet("1000", "8", 3, 1)
	assert.Equal(t, VariantAmericanPure, terms.Variant())
	terms.PartialGracePeriods = 1
	assert.Equal(t, VariantAmericanWithGrace, terms.Variant())
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), addMonths(jan31, 1))
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), addMonths(jan31, 13))
	assert.Equal(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), addMonths(jan31, 3))
	assert.Equal(t, jan31, addMonths(jan31, 0))
}

func TestRoundSchedule_MoneyScaleCopy(t *testing.T) {
	e := Default()
	raw, err := e.BuildSchedule(bullet("1000", "7", 1, 12))
	require.NoError(t, err)
	require.Len(t, raw, 13)

	rounded := e.RoundSchedule(raw)
	require.Len(t, rounded, len(raw))
	assert.Equal(t, "5.83", rounded[1].Interest.StringFixed(2))
	assertDecimal(t, "5.83", rounded[1].Interest)
	assertDecimal(t, "5.83", rounded[1].CashFlow)
	assertDecimal(t, "1005.83", rounded[12].CashFlow)
	assert.Equal(t, raw[5].Date, rounded[5].Date)

	// the working-scale schedule is left alone
	assert.False(t, raw[1].Interest.Equal(rounded[1].Interest), raw[1].Interest.String())
}
