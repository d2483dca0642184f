// Package testutil provides shared helpers for tests that need a database or sample event data.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/account-history/internal/storage"
)

// SetupTestDB creates a migrated in-memory archive that is closed when the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// TestDBPath returns a database path inside the test's temporary directory.
func TestDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "history.db")
}

// SampleEvents is the reference input covering every status.
var SampleEvents = []string{
	"2021-01-01,joe@signifyd.com,PURCHASE",
	"2021-02-01,fraudster@fraud.com,FRAUD_REPORT",
	"2021-02-03,fraudster@fraud.com,FRAUD_REPORT",
	"2021-02-10,joe@signifyd.com,PURCHASE",
	"2021-02-14,fraudster@fraud.com,PURCHASE",
	"2021-03-15,joe@signifyd.com,PURCHASE",
	"2021-05-01,joe@signifyd.com,PURCHASE",
	"2021-10-01,joe@signifyd.com,PURCHASE",
}

// SampleReport is the expected output for SampleEvents.
var SampleReport = []string{
	"2021-01-01,joe@signifyd.com,NO_HISTORY",
	"2021-02-10,joe@signifyd.com,UNCONFIRMED_HISTORY:1",
	"2021-02-14,fraudster@fraud.com,FRAUD_HISTORY:2",
	"2021-03-15,joe@signifyd.com,UNCONFIRMED_HISTORY:2",
	"2021-05-01,joe@signifyd.com,GOOD_HISTORY:1",
	"2021-10-01,joe@signifyd.com,GOOD_HISTORY:4",
}

// WriteEventsFile writes lines to a file in the test's temporary directory.
func WriteEventsFile(t *testing.T, lines []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("failed to write events file: %v", err)
	}
	return path
}
