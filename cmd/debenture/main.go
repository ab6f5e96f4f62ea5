/*
main.go - Command-line returns calculator

PURPOSE:
  Offline companion to the server: runs the same returns engine against a
  principal and start date from the terminal. Useful for relationship
  managers quoting over the phone and for sanity-checking the API.

COMMANDS:
  debenture project  --principal 5000000 --start 2024-01-01
  debenture accrual  --principal 2000000 --start 2023-01-01 --as-of 2025-07-02
  debenture schedule --principal 5000000 --start 2024-01-01
  debenture exit     --principal 2000000 --start 2023-01-01

FLAGS:
  --principal  Amount invested (required)
  --start      Investment start date, YYYY-MM-DD (required)
  --as-of      Evaluation date (default: today)
  --config     Policy YAML file (default: built-in policy)

SEE ALSO:
  - returns/: the engine these commands call
  - config/config.go: policy file format
*/
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nivesh/debenture-engine/config"
	"github.com/nivesh/debenture-engine/inr"
	"github.com/nivesh/debenture-engine/returns"
)

const dateLayout = "2006-01-02"

var (
	flagPrincipal string
	flagStart     string
	flagAsOf      string
	flagConfig    string
)

func main() {
	root := &cobra.Command{
		Use:           "debenture",
		Short:         "Debenture returns calculator",
		Long:          "Compute projections, accruals, schedules and exit values for a debenture investment.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagPrincipal, "principal", "", "amount invested (required)")
	root.PersistentFlags().StringVar(&flagStart, "start", "", "investment start date, YYYY-MM-DD (required)")
	root.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "evaluation date, YYYY-MM-DD (default: today)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "policy YAML file (default: built-in policy)")

	root.AddCommand(projectCmd(), accrualCmd(), scheduleCmd(), exitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// inputs parses and validates the shared flags.
func inputs() (returns.Policy, decimal.Decimal, time.Time, time.Time, error) {
	policy, err := config.Load(flagConfig)
	if err != nil {
		return returns.Policy{}, decimal.Decimal{}, time.Time{}, time.Time{}, err
	}

	principal, err := decimal.NewFromString(flagPrincipal)
	if err != nil || !principal.IsPositive() {
		return returns.Policy{}, decimal.Decimal{}, time.Time{}, time.Time{},
			fmt.Errorf("--principal must be a positive amount")
	}

	start, err := time.Parse(dateLayout, flagStart)
	if err != nil {
		return returns.Policy{}, decimal.Decimal{}, time.Time{}, time.Time{},
			fmt.Errorf("--start must be YYYY-MM-DD")
	}

	asOf := returns.DateOnly(time.Now())
	if flagAsOf != "" {
		if asOf, err = time.Parse(dateLayout, flagAsOf); err != nil {
			return returns.Policy{}, decimal.Decimal{}, time.Time{}, time.Time{},
				fmt.Errorf("--as-of must be YYYY-MM-DD")
		}
	}
	return policy, principal, start, asOf, nil
}

func projectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Full-term returns projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, principal, start, _, err := inputs()
			if err != nil {
				return err
			}

			proj, err := policy.Project(principal, start)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "Year\tRate %\tDividend\tBonus\tTotal\tDisburses On\t")
			for _, y := range proj.Years {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
					y.Year, y.RatePercent, inr.Format(y.Dividend), inr.Format(y.Bonus),
					inr.Format(y.Total), y.DisbursesOn.Format(dateLayout))
			}
			w.Flush()

			fmt.Println()
			fmt.Println("Principal:      ", inr.Format(proj.Summary.Principal))
			fmt.Println("Total dividends:", inr.Format(proj.Summary.TotalDividends))
			fmt.Println("Total bonuses:  ", inr.Format(proj.Summary.TotalBonuses))
			fmt.Println("Maturity value: ", inr.Format(proj.Summary.MaturityValue))
			return nil
		},
	}
}

func accrualCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accrual",
		Short: "Accrued returns to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, principal, start, asOf, err := inputs()
			if err != nil {
				return err
			}

			a, err := policy.Accrue(principal, start, asOf)
			if err != nil {
				return err
			}

			fmt.Println("As of:           ", a.AsOf.Format(dateLayout))
			fmt.Println("Completed years: ", a.CompletedYears)
			if a.Matured {
				fmt.Println("Status:           matured")
			} else {
				fmt.Printf("Current year:     %d (%s%% rate, %s elapsed)\n",
					a.CurrentYear, a.CurrentRate, a.YearProgress.Round(4))
				fmt.Println("Daily interest:  ", inr.Format(a.DailyInterest))
			}
			fmt.Println("Interest accrued:", inr.Format(a.InterestAccrued))
			fmt.Println("Bonus accrued:   ", inr.Format(a.BonusAccrued))
			fmt.Println("Total accrued:   ", inr.Format(a.TotalAccrued()))
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Per-year disbursement schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, principal, start, asOf, err := inputs()
			if err != nil {
				return err
			}

			// No ledger offline, so nothing shows as disbursed.
			events, err := policy.Schedule(principal, start, asOf, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "Year\tScheduled\tInterest\tBonus\tStatus\t")
			for _, e := range events {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n",
					e.Year, e.ScheduledDate.Format(dateLayout),
					inr.Format(e.Interest), inr.Format(e.Bonus), e.Status)
			}
			return w.Flush()
		},
	}
}

func exitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit",
		Short: "Early-exit availability and value",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, principal, start, asOf, err := inputs()
			if err != nil {
				return err
			}

			q, err := policy.EarlyExit(principal, start, asOf)
			if err != nil {
				return err
			}

			if !q.Available {
				fmt.Printf("Early exit not available: %d of %d lock-in years completed.\n",
					q.CompletedYears, q.LockInYears)
				fmt.Println("Eligible on:", q.EligibleOn.Format(dateLayout))
				return nil
			}
			fmt.Println("Early exit available.")
			fmt.Println("Exit value:", inr.Format(q.Value))
			return nil
		},
	}
}
