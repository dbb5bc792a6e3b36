// Package cli is the bondcalc command line: offline access to the bond
// engine without a database or server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"bonofacil-backend/internal/finance"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// App holds what every subcommand needs.
type App struct {
	Engine *finance.Engine
	Logger zerolog.Logger
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "bondcalc",
		Short: "American bond schedules, prices and yields",
		Long: `bondcalc runs the bond engine on terms given as flags.

Rates accept a value plus an optional unit ("percent" or "fraction").
Without a unit, values above 0.1 are read as percentages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
				engine, err := finance.NewEngine(app.Engine.Precision(), finance.WithLogger(app.Logger))
				if err != nil {
					return err
				}
				app.Engine = engine
			}
			return nil
		},
	}
	root.PersistentFlags().Bool("json", false, "output in JSON format")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	root.AddCommand(
		newScheduleCmd(app),
		newMetricsCmd(app),
		newYieldCmd(app),
		newEvaluateCmd(app),
		newReportCmd(app),
		newConvertCmd(app),
	)
	return root
}

func addTermsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("face", "1000", "face value")
	f.String("coupon", "", "annual coupon rate")
	f.String("coupon-unit", "", "coupon rate unit: percent or fraction")
	f.Int("years", 0, "term in years")
	f.Int("freq", 1, "coupon payments per year (must divide 12)")
	f.String("issued", time.Now().UTC().Format(dateLayout), "issue date, YYYY-MM-DD")
	f.Int("total-grace", 0, "total grace periods (interest capitalizes)")
	f.Int("partial-grace", 0, "partial grace periods (interest only)")
	f.String("method", "AMERICAN", "amortization method")
	_ = cmd.MarkFlagRequired("coupon")
	_ = cmd.MarkFlagRequired("years")
}

func termsFromFlags(cmd *cobra.Command) (finance.BondTerms, error) {
	f := cmd.Flags()
	faceStr, _ := f.GetString("face")
	couponStr, _ := f.GetString("coupon")
	couponUnit, _ := f.GetString("coupon-unit")
	years, _ := f.GetInt("years")
	freq, _ := f.GetInt("freq")
	issuedStr, _ := f.GetString("issued")
	totalGrace, _ := f.GetInt("total-grace")
	partialGrace, _ := f.GetInt("partial-grace")
	methodStr, _ := f.GetString("method")

	face, err := decimal.NewFromString(faceStr)
	if err != nil {
		return finance.BondTerms{}, fmt.Errorf("--face: %w", err)
	}
	coupon, err := rateFlag(couponStr, couponUnit)
	if err != nil {
		return finance.BondTerms{}, fmt.Errorf("--coupon: %w", err)
	}
	issued, err := time.Parse(dateLayout, issuedStr)
	if err != nil {
		return finance.BondTerms{}, fmt.Errorf("--issued: %w", err)
	}
	method, err := finance.ParseMethod(methodStr)
	if err != nil {
		return finance.BondTerms{}, err
	}
	t := finance.BondTerms{
		FaceValue:           face,
		CouponRate:          coupon,
		TermYears:           years,
		Frequency:           freq,
		IssueDate:           issued,
		TotalGracePeriods:   totalGrace,
		PartialGracePeriods: partialGrace,
		Method:              method,
	}
	return t, t.Validate()
}

func rateFlag(value, unit string) (finance.Rate, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return finance.Rate{}, err
	}
	return finance.NewRate(v, unit)
}

func isJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
