package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/account-history/internal/cli"
	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/model"
	"github.com/Veraticus/account-history/internal/storage"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived history runs",
		Long: `List the runs archived with "history build --db" and print their
report lines.`,
		Example: `  # List the most recent runs
  history runs

  # Print the report of one run
  history runs show 3f1c...

  # Every archived line for one customer
  history runs customer joe@signifyd.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), dbPath, func(store *storage.SQLiteStorage) error {
				return listRuns(cmd.Context(), store, limit, cmd.OutOrStdout())
			})
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Archive database (default: database.path from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the report lines of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), dbPath, func(store *storage.SQLiteStorage) error {
				return showRun(cmd.Context(), store, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "customer CUSTOMER_ID",
		Short: "Print every archived report line for a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), dbPath, func(store *storage.SQLiteStorage) error {
				return showCustomer(cmd.Context(), store, args[0], cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

func withStore(ctx context.Context, flagValue string, fn func(*storage.SQLiteStorage) error) error {
	dbPath, err := databasePath(flagValue)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(store)
}

func listRuns(ctx context.Context, store *storage.SQLiteStorage, limit int, w io.Writer) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, cli.FormatInfo("No runs archived yet. Use: history build --db PATH"))
		return nil
	}

	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Archived runs (%d)", len(runs))))
	fmt.Fprint(w, cli.RenderRunsTable(runs))
	return nil
}

func showRun(ctx context.Context, store *storage.SQLiteStorage, runID string, stdout, stderr io.Writer) error {
	run, err := store.GetRun(ctx, runID)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("run %s not found", runID), err)
	}
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	if !run.Finished() {
		fmt.Fprintln(stderr, cli.FormatWarning("Run did not finish; the report is incomplete."))
	}

	lines, err := store.GetReportLines(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get report lines: %w", err)
	}

	return printLines(stdout, lines)
}

func showCustomer(ctx context.Context, store *storage.SQLiteStorage, customerID string, w io.Writer) error {
	lines, err := store.GetCustomerReportLines(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to get customer report lines: %w", err)
	}

	if len(lines) == 0 {
		return common.NewUserError(fmt.Sprintf("no archived report lines for %s", customerID), common.ErrNotFound)
	}

	return printLines(w, lines)
}

func printLines(w io.Writer, lines []model.ReportLine) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return fmt.Errorf("failed to write report line: %w", err)
		}
	}
	return nil
}
