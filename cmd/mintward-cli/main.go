package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mintward/internal/budget"
	"mintward/internal/core"
	"mintward/internal/feed"
	"mintward/internal/services"
	"mintward/internal/sheets/memory"
)

const version = "1.0.0"

var (
	flagFile     string
	flagDir      string
	flagTemplate string
	flagDate     string
	flagLookback int
	flagHTML     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mintward",
	Short: "Classify transaction exports and report on cash flow",
	Long: `Mintward reads a transaction export, classifies each row against the
budget taxonomy, and reports daily spending and the month's cash-flow
projection.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mintward v%s\n", version)
		fmt.Println("Use --help for available commands")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFile, "file", "", "path to a single transactions export")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "./downloads", "download directory holding transaction exports")
	rootCmd.PersistentFlags().StringVar(&flagTemplate, "template", "", "budget template TOML file (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "report date as YYYY-MM-DD (default today)")

	reportCmd.Flags().IntVar(&flagLookback, "lookback", 8, "trailing window of days to summarize")
	reportCmd.Flags().BoolVar(&flagHTML, "html", false, "emit the HTML summary instead of plain text")

	rootCmd.AddCommand(reportCmd, classifyCmd, cashflowCmd, versionCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the spending summary for the trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := loadTemplate()
		if err != nil {
			return err
		}
		today, err := reportDate()
		if err != nil {
			return err
		}

		svc := services.NewReportService(source(), memory.New(tpl), nil, nil).
			WithClock(func() time.Time { return today.Time })
		report, err := svc.Preview(cmd.Context(), services.RunConfig{LookbackDays: flagLookback})
		if err != nil {
			return err
		}

		if flagHTML {
			fmt.Println(report.HTML)
		} else {
			fmt.Print(report.Text)
		}
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print every transaction with its assigned group and subgroup",
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := loadTemplate()
		if err != nil {
			return err
		}
		txs, err := source().Load(cmd.Context())
		if err != nil {
			return err
		}

		classified := core.ClassifyAll(txs, tpl.Recurring, tpl.Investments)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tAMOUNT\tGROUP\tSUBGROUP\tDESCRIPTION")
		for _, tx := range classified {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				tx.Date.Format("2006-01-02"), tx.Amount.USD(), tx.Group, tx.Subgroup, tx.Description)
		}
		return w.Flush()
	},
}

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Print the month's cash-flow projection table",
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := loadTemplate()
		if err != nil {
			return err
		}
		today, err := reportDate()
		if err != nil {
			return err
		}
		txs, err := source().Load(cmd.Context())
		if err != nil {
			return err
		}

		classified := core.ClassifyAll(txs, tpl.Recurring, tpl.Investments)
		table, err := core.ProjectCashFlow(core.NewStore(classified), tpl, today.Year(), today.Month())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tSUBGROUP\tEXPECTED\tREALIZED\tPROJECTED\tREMAIN CF\tREMAIN NW")
		for _, row := range table.Rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				row.Key.Group, row.Key.Subgroup,
				row.Expected.USD(), row.Realized.USD(), row.Projected.USD(),
				remaining(row.RemainingCF), remaining(row.RemainingNW))
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mintward v%s\n", version)
	},
}

func source() feed.Source {
	if flagFile != "" {
		return feed.FileSource{Path: flagFile}
	}
	return feed.DirSource{Dir: flagDir}
}

func loadTemplate() (core.BudgetTemplate, error) {
	if flagTemplate == "" {
		return memory.NewDefault().ReadTemplate(context.Background())
	}
	return budget.LoadFile(flagTemplate)
}

func reportDate() (core.Date, error) {
	if flagDate == "" {
		return core.DateOf(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", flagDate)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flagDate)
	}
	return core.DateOf(t), nil
}

func remaining(m *core.Money) string {
	if m == nil {
		return ""
	}
	return m.USD()
}
