package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/config"
	"github.com/Veraticus/account-history/internal/storage"
	"github.com/Veraticus/account-history/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	cfg.Database.Path = testutil.TestDBPath(t)
	return cfg
}

func reportLines(out string) []string {
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

func TestRunBuild_FromFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := buildOptions{input: testutil.WriteEventsFile(t, testutil.SampleEvents), summary: true, progress: true}

	err := runBuild(context.Background(), testConfig(t), opts, buildIO{stdout: &stdout, stderr: &stderr})
	require.NoError(t, err)

	assert.Equal(t, testutil.SampleReport, reportLines(stdout.String()))
	assert.Contains(t, stderr.String(), "History Complete")
	assert.Contains(t, stderr.String(), "Reading events")
}

func TestRunBuild_FromStdin(t *testing.T) {
	var stdout bytes.Buffer
	stdin := strings.NewReader(strings.Join(testutil.SampleEvents, "\n"))

	err := runBuild(context.Background(), testConfig(t), buildOptions{input: "-"}, buildIO{stdin: stdin, stdout: &stdout, stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Equal(t, testutil.SampleReport, reportLines(stdout.String()))
}

func TestRunBuild_OutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.txt")
	var stdout bytes.Buffer
	opts := buildOptions{input: testutil.WriteEventsFile(t, testutil.SampleEvents), output: outPath}

	require.NoError(t, runBuild(context.Background(), testConfig(t), opts, buildIO{stdout: &stdout, stderr: &bytes.Buffer{}}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleReport, reportLines(string(data)))
	assert.Empty(t, stdout.String())
}

func TestRunBuild_CustomAgingWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.AgingDays = 30

	var stdout bytes.Buffer
	stdin := strings.NewReader("2021-01-01,c,PURCHASE\n2021-02-15,c,PURCHASE\n")

	require.NoError(t, runBuild(context.Background(), cfg, buildOptions{}, buildIO{stdin: stdin, stdout: &stdout, stderr: &bytes.Buffer{}}))
	assert.Equal(t, []string{"2021-01-01,c,NO_HISTORY", "2021-02-15,c,GOOD_HISTORY:1"}, reportLines(stdout.String()))
}

func TestRunBuild_MalformedInputKeepsEarlierLines(t *testing.T) {
	var stdout bytes.Buffer
	stdin := strings.NewReader("2021-01-01,a,PURCHASE\n2021-01-02,b,REFUND\n2021-01-03,c,PURCHASE\n")

	err := runBuild(context.Background(), testConfig(t), buildOptions{}, buildIO{stdin: stdin, stdout: &stdout, stderr: &bytes.Buffer{}})
	require.ErrorIs(t, err, common.ErrUnknownEventType)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, "2021-01-01,a,NO_HISTORY\n", stdout.String())
}

func TestRunBuild_MissingFile(t *testing.T) {
	err := runBuild(context.Background(), testConfig(t), buildOptions{input: filepath.Join(t.TempDir(), "missing.csv")}, buildIO{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunBuild_ArchivesRun(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.BatchSize = 2
	opts := buildOptions{input: testutil.WriteEventsFile(t, testutil.SampleEvents), dbPath: cfg.Database.Path}

	require.NoError(t, runBuild(ctx, cfg, opts, buildIO{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}))

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.True(t, run.Finished())
	assert.Equal(t, opts.input, run.Source)
	assert.Equal(t, 90, run.AgingDays)
	assert.Equal(t, 6, run.Stats.Lines)
	assert.Equal(t, 2, run.Stats.Customers)

	lines, err := store.GetReportLines(ctx, run.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(lines))
	for _, line := range lines {
		got = append(got, line.String())
	}
	assert.Equal(t, testutil.SampleReport, got)
}

func TestRunBuild_FailedRunStaysUnfinished(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stdin := strings.NewReader("2021-01-01,a,PURCHASE\nbroken\n")

	err := runBuild(ctx, cfg, buildOptions{dbPath: cfg.Database.Path}, buildIO{stdin: stdin, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
	require.ErrorIs(t, err, common.ErrMalformedLine)

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Finished())
	assert.Equal(t, stdinSource, runs[0].Source)

	lines, err := store.GetReportLines(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "2021-01-01,a,NO_HISTORY", lines[0].String())
}

func TestBuildCmd(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := buildCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{testutil.WriteEventsFile(t, testutil.SampleEvents)})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, testutil.SampleReport, reportLines(stdout.String()))
	assert.NotContains(t, stderr.String(), "interrupted")
}
