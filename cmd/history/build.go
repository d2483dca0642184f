package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/account-history/internal/cli"
	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/config"
	"github.com/Veraticus/account-history/internal/eventsource"
	"github.com/Veraticus/account-history/internal/history"
	"github.com/Veraticus/account-history/internal/ledger"
	"github.com/Veraticus/account-history/internal/model"
	"github.com/Veraticus/account-history/internal/report"
	"github.com/Veraticus/account-history/internal/service"
	"github.com/Veraticus/account-history/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const stdinSource = "stdin"

type buildOptions struct {
	input    string
	output   string
	dbPath   string
	progress bool
	summary  bool
}

type buildIO struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func buildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build [FILE]",
		Short: "Classify account history for every purchase",
		Long: `Read "<date>,<customer>,<PURCHASE|FRAUD_REPORT>" lines in ascending date
order and print "<date>,<customer>,<STATUS>[:<count>]" for every purchase.

The status reflects only events strictly before the purchase. Processing
stops at the first malformed line.`,
		Example: `  # Classify a file and print the report
  history build events.csv

  # Read from stdin and archive the run
  cat events.csv | history build --db ~/history.db

  # Use a 30 day aging window and show a summary
  history build events.csv --aging-days 30 --summary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}

			cfg, err := currentConfig()
			if err != nil {
				return err
			}

			interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx, stop := interruptHandler.HandleInterrupts(cmd.Context(), opts.dbPath != "")
			defer stop()

			return runBuild(ctx, cfg, opts, buildIO{
				stdin:  cmd.InOrStdin(),
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Also archive the run into this SQLite database")
	cmd.Flags().Int("aging-days", ledger.DefaultAgingDays, "Days after which a purchase counts as good history")
	cmd.Flags().Int("batch-size", storage.DefaultBatchSize, "Report lines per archive write")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Show a progress bar while reading a file")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Show run statistics when done")

	_ = viper.BindPFlag("history.aging_days", cmd.Flags().Lookup("aging-days"))
	_ = viper.BindPFlag("database.batch_size", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config, opts buildOptions, stdio buildIO) error {
	start := time.Now()

	l, err := ledger.New(cfg.LedgerOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	input, source, closeInput, err := openInput(opts, stdio)
	if err != nil {
		return err
	}
	defer closeInput()

	out, closeOutput, err := openOutput(opts.output, stdio.stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	text := report.NewTextSink(out)
	sinks := report.MultiSink{text}

	var archive *runArchive
	if opts.dbPath != "" {
		archive, err = startArchive(ctx, config.ExpandPath(opts.dbPath), source, l.AgingDays(), cfg.Database.BatchSize)
		if err != nil {
			return err
		}
		defer archive.close()
		sinks = append(sinks, archive.sink)
	}

	slog.Info("Building account history",
		"source", source,
		"aging_days", l.AgingDays(),
		"archive", opts.dbPath != "")

	builder := history.New(l, sinks)
	stats, runErr := builder.Run(ctx, eventsource.NewSource(input))

	// Lines emitted before a failure are still part of the report.
	if err := text.Flush(); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to write report: %w", err))
	}

	if archive != nil {
		if err := archive.finish(ctx, stats, runErr); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("history build stopped after %d events: %w", stats.Events, runErr)
	}

	if opts.summary {
		fmt.Fprintln(stdio.stderr, cli.RenderRunSummary(stats, l.Snapshot(), time.Since(start)))
	}

	return nil
}

func openInput(opts buildOptions, stdio buildIO) (io.Reader, string, func(), error) {
	if opts.input == "" || opts.input == "-" {
		return stdio.stdin, stdinSource, func() {}, nil
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return nil, "", nil, common.NewUserError(fmt.Sprintf("cannot open %s", opts.input), err)
	}
	closeFn := func() { _ = f.Close() }

	if !opts.progress {
		return f, opts.input, closeFn, nil
	}

	info, err := f.Stat()
	if err != nil {
		closeFn()
		return nil, "", nil, fmt.Errorf("failed to stat %s: %w", opts.input, err)
	}

	bar := cli.NewProgressBar(stdio.stderr, info.Size(), "Reading events...")
	return cli.TrackReader(f, bar), opts.input, closeFn, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return f, func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close output file", "path", path, "error", err)
		}
	}, nil
}

// runArchive records one build in the SQLite archive.
type runArchive struct {
	store service.RunStore
	sink  *storage.RunSink
	run   *model.Run
}

func startArchive(ctx context.Context, dbPath, source string, agingDays, batchSize int) (*runArchive, error) {
	store, err := openStore(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Source:    source,
		AgingDays: agingDays,
		StartedAt: time.Now().UTC(),
	}
	if err := store.CreateRun(ctx, run); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	common.LogDebug("Archiving run", common.Fields{"run_id": run.ID, "database": dbPath})

	return &runArchive{
		store: store,
		sink:  storage.NewRunSink(store, run.ID, batchSize),
		run:   run,
	}, nil
}

// finish writes the buffered lines. A failed or interrupted run keeps its
// lines but is not marked finished.
func (a *runArchive) finish(ctx context.Context, stats model.RunStats, runErr error) error {
	ctx = context.WithoutCancel(ctx)

	if err := a.sink.Flush(ctx); err != nil {
		return err
	}

	if runErr != nil {
		common.LogError(runErr, "Run left unfinished", common.Fields{"run_id": a.run.ID, "lines": stats.Lines})
		return nil
	}

	a.run.Stats = stats
	if err := a.store.FinishRun(ctx, a.run); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	common.LogInfo("Run archived", common.Fields{"run_id": a.run.ID, "lines": stats.Lines})
	return nil
}

func (a *runArchive) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close archive", "error", err)
	}
}
