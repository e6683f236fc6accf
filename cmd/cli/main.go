package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/HelioWoi/liveplan3/pkg/bridge"
	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/config"
	"github.com/HelioWoi/liveplan3/pkg/csv"
	"github.com/HelioWoi/liveplan3/pkg/goals"
	"github.com/HelioWoi/liveplan3/pkg/importer"
	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/localstore"
	"github.com/HelioWoi/liveplan3/pkg/models"
	"github.com/HelioWoi/liveplan3/pkg/remote"
	"github.com/HelioWoi/liveplan3/pkg/weekly"
)

var (
	cfgFile    string
	cliFilters filters
)

// app bundles the wired stores for the CLI commands.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	ledger *ledger.Store
	weekly *weekly.Store
	goals  *goals.Store
	bridge *bridge.Bridge
}

func buildApp(logger *log.Logger) (*app, error) {
	cfg, err := config.Build(cfgFile, nil)
	if err != nil {
		return nil, err
	}
	local, err := localstore.Open(cfg.DataFile)
	if err != nil {
		return nil, err
	}
	client := remote.New(cfg.Remote.URL, cfg.Remote.APIKey, logger)
	notifications := bus.New(logger)

	a := &app{cfg: cfg, logger: logger}
	a.ledger = ledger.New(client, local, notifications, logger)
	a.weekly = weekly.New(local, notifications, logger)
	a.goals = goals.New(client, a.ledger, logger)
	a.bridge = bridge.New(a.ledger, a.weekly, notifications, logger)

	if session := cfg.Session(); session != nil {
		a.ledger.SetSession(session)
		a.goals.SetSession(session)
	}
	return a, nil
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "liveplan-cli",
	})
}

var rootCmd = &cobra.Command{
	Use:   "liveplan-cli",
	Short: "LivePlan3 command-line interface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <spreadsheet.csv|spreadsheet.xls|manifest.yaml>",
	Short: "Import spreadsheet transactions into the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}

		clearFirst, _ := cmd.Flags().GetBool("clear")
		inspect, _ := cmd.Flags().GetBool("inspect")

		imp := importer.New(logger)
		path := args[0]

		var drafts []models.TransactionDraft
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			manifest, err := importer.LoadManifest(path)
			if err != nil {
				return err
			}
			clearFirst = clearFirst || manifest.ClearFirst
			for _, file := range manifest.Files {
				fileDrafts, err := file.Drafts(imp)
				if err != nil {
					return err
				}
				drafts = append(drafts, fileDrafts...)
			}
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			drafts, err = imp.ProcessBytes(data, filepath.Base(path))
			if err != nil {
				return err
			}
		}

		if inspect {
			pp.Println(drafts)
		}

		ctx := context.Background()
		if clearFirst {
			if err := a.ledger.Clear(ctx); err != nil {
				return fmt.Errorf("clear ledger: %w", err)
			}
		}
		created, err := a.ledger.BulkCreate(ctx, drafts)
		logger.Info("import finished", "created", len(created), "rows", len(drafts))
		if err != nil {
			logger.Warn("some records failed", "err", err)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the ledger as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		transactions := a.ledger.List(context.Background())
		fmt.Print(string(csv.Create(transactions, cliFilters.toFilterFunc())))
		return nil
	},
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List savings goals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		all, err := a.goals.List(context.Background())
		if err != nil {
			return err
		}
		for _, g := range all {
			fmt.Printf("%-36s %-20s %8.2f / %8.2f (%3.0f%%)\n",
				g.ID, g.Title, g.CurrentAmount, g.TargetAmount, g.Progress()*100)
		}
		return nil
	},
}

var contributeCmd = &cobra.Command{
	Use:   "contribute <goal-id> <amount>",
	Short: "Add to a savings goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		goal, err := a.goals.Contribute(context.Background(), args[0], amount)
		if err != nil {
			return err
		}
		logger.Info("contribution recorded", "goal", goal.Title, "current", goal.CurrentAmount)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push locally queued records to the remote tier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		pushed, err := a.ledger.SyncPending(context.Background())
		if err != nil {
			return err
		}
		logger.Info("push finished", "pushed", pushed)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair divergence between the ledger and the weekly budget",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		a, err := buildApp(logger)
		if err != nil {
			return err
		}
		ctx := context.Background()

		dryRun, _ := cmd.Flags().GetBool("dry-run")

		syncedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
		missingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green

		for _, item := range a.bridge.Plan(ctx) {
			line := fmt.Sprintf("%s %s %d | %-30s | %.2f", item.Entry.Week, item.Entry.Month, item.Entry.Year, item.Entry.Description, item.Entry.Amount)
			if item.Synced {
				fmt.Println(syncedStyle.Render("= " + line))
				continue
			}
			fmt.Println(missingStyle.Render(fmt.Sprintf("+ %s (missing: current=%v bills=%d)", line, item.MissingCurrent, item.MissingBills)))
		}

		if dryRun {
			return nil
		}

		report := a.bridge.Reconcile(ctx)
		if report.Clean() {
			fmt.Println("\nReconcile: everything in sync")
			return nil
		}
		fmt.Printf("\nReconcile: derived %d, future bills %d, orphans removed %d, income bucketed %d\n",
			report.DerivedCreated, report.FutureBillsCreated, report.OrphansRemoved, report.IncomeBucketed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")

	// Export filter flags (global)
	rootCmd.PersistentFlags().StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.minAmount, "min", 0, "Minimum amount")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.maxAmount, "max", 0, "Maximum amount")
	rootCmd.PersistentFlags().StringVar(&cliFilters.category, "category", "", "Filter by category")

	importCmd.Flags().Bool("clear", false, "Clear the ledger before importing")
	importCmd.Flags().Bool("inspect", false, "Pretty-print parsed rows before importing")
	reconcileCmd.Flags().Bool("dry-run", false, "Show the plan without writing")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	goalsCmd.AddCommand(contributeCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
