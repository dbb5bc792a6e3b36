package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"bonofacil-backend/internal/finance"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the cash-flow schedule",
		Example: `  bondcalc schedule --coupon 8 --years 3
  bondcalc schedule --coupon 0.06 --coupon-unit fraction --years 5 --freq 2 --total-grace 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			built, err := app.Engine.BuildSchedule(t)
			if err != nil {
				return err
			}
			schedule := app.Engine.RoundSchedule(built)
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), schedule)
			}
			return printSchedule(cmd, schedule)
		},
	}
	addTermsFlags(cmd)
	return cmd
}

func newMetricsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "metrics",
		Short:   "TCEA, duration and convexity of a bond",
		Example: `  bondcalc metrics --coupon 8 --years 3 --partial-grace 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			v, err := app.Engine.ProcessBond(t)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Variant:   %s\n", v.Variant)
			fmt.Fprintf(out, "TCEA:      %s%%\n", pct(v.TCEA))
			fmt.Fprintf(out, "Duration:  %s\n", v.Duration.StringFixed(4))
			fmt.Fprintf(out, "Convexity: %s\n", v.Convexity.StringFixed(4))
			return nil
		},
	}
	addTermsFlags(cmd)
	return cmd
}

func newYieldCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "yield",
		Short:   "Solve the effective annual yield for a purchase price",
		Example: `  bondcalc yield --coupon 8 --years 3 --price 950.26`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			priceStr, _ := cmd.Flags().GetString("price")
			price, err := decimal.NewFromString(priceStr)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			schedule, err := app.Engine.BuildSchedule(t)
			if err != nil {
				return err
			}
			res, err := app.Engine.SolveYield(schedule, t.Frequency, price)
			if err != nil {
				return err
			}
			if !res.Converged {
				app.Logger.Warn().Str("method", string(res.Method)).Int("iterations", res.Iterations).
					Str("residual", res.Residual.String()).Msg("yield did not converge")
			}
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TREA:       %s%%\n", pct(res.Rate))
			fmt.Fprintf(out, "Periodic:   %s%%\n", pct(res.PeriodicRate))
			fmt.Fprintf(out, "Method:     %s\n", res.Method)
			fmt.Fprintf(out, "Iterations: %d\n", res.Iterations)
			return nil
		},
	}
	addTermsFlags(cmd)
	cmd.Flags().String("price", "", "purchase price")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newEvaluateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Maximum price and TREA for an investor's expected rate",
		Example: `  bondcalc evaluate --coupon 8 --years 3 --rate 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			rate, err := expectedRate(cmd)
			if err != nil {
				return err
			}
			ev, err := app.Engine.EvaluateInvestment(t, rate)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), ev)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Max price: %s\n", ev.MaxPrice.StringFixed(2))
			fmt.Fprintf(out, "TREA:      %s%%\n", pct(ev.TREA))
			fmt.Fprintf(out, "Duration:  %s\n", ev.Duration.StringFixed(4))
			fmt.Fprintf(out, "Convexity: %s\n", ev.Convexity.StringFixed(4))
			fmt.Fprintf(out, "Method:    %s\n", ev.Yield.Method)
			return nil
		},
	}
	addTermsFlags(cmd)
	addRateFlags(cmd)
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Plain-text price report at a discount rate",
		Example: `  bondcalc report --coupon 8 --years 3 --rate 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			rate, err := expectedRate(cmd)
			if err != nil {
				return err
			}
			report, err := app.Engine.PriceReport(t, rate)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"report": report})
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}
	addTermsFlags(cmd)
	addRateFlags(cmd)
	return cmd
}

func newConvertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <rate>",
		Short: "Convert between TNA, TEA and TEP",
		Example: `  bondcalc convert 12 --from TNA --to TEA --m 12
  bondcalc convert 0.1 --unit fraction --from TEA --to TEP --m 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, _ := cmd.Flags().GetString("unit")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			m, _ := cmd.Flags().GetInt("m")
			rate, err := rateFlag(args[0], unit)
			if err != nil {
				return err
			}
			got, err := app.Engine.ConvertRate(rate,
				finance.RateKind(strings.ToUpper(from)), finance.RateKind(strings.ToUpper(to)), m)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"from": strings.ToUpper(from), "to": strings.ToUpper(to), "m": m, "rate": got,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", got.String())
			return nil
		},
	}
	cmd.Flags().String("unit", "", "input rate unit: percent or fraction")
	cmd.Flags().String("from", string(finance.NominalAnnual), "source convention: TNA, TEA or TEP")
	cmd.Flags().String("to", string(finance.EffectiveAnnual), "target convention: TNA, TEA or TEP")
	cmd.Flags().Int("m", 12, "compoundings or periods per year")
	return cmd
}

func addRateFlags(cmd *cobra.Command) {
	cmd.Flags().String("rate", "", "investor's expected annual effective rate")
	cmd.Flags().String("rate-unit", "", "rate unit: percent or fraction")
	_ = cmd.MarkFlagRequired("rate")
}

func expectedRate(cmd *cobra.Command) (finance.Rate, error) {
	value, _ := cmd.Flags().GetString("rate")
	unit, _ := cmd.Flags().GetString("rate-unit")
	r, err := rateFlag(value, unit)
	if err != nil {
		return finance.Rate{}, fmt.Errorf("--rate: %w", err)
	}
	return r, nil
}

func printSchedule(cmd *cobra.Command, schedule []finance.CashFlowPeriod) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tDate\tInterest\tAmortization\tInstallment\tBalance\tCash flow\tKind\t")
	for _, p := range schedule {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Period, p.Date.Format(dateLayout),
			p.Interest.StringFixed(2), p.Amortization.StringFixed(2), p.Installment.StringFixed(2),
			p.Balance.StringFixed(2), p.CashFlow.StringFixed(2), p.Kind)
	}
	return w.Flush()
}

func pct(fraction decimal.Decimal) string {
	return fraction.Shift(2).StringFixed(4)
}
