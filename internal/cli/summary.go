package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/account-history/internal/ledger"
	"github.com/Veraticus/account-history/internal/model"
)

// RenderRunSummary renders the statistics of a finished run and the ledger's status breakdown.
func RenderRunSummary(stats model.RunStats, summary ledger.Summary, elapsed time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Events:          %d\n", stats.Events)
	fmt.Fprintf(&b, "Purchases:       %d\n", stats.Purchases)
	fmt.Fprintf(&b, "Fraud reports:   %d\n", stats.FraudReports)
	fmt.Fprintf(&b, "Report lines:    %d\n", stats.Lines)
	fmt.Fprintf(&b, "Customers:       %d\n", stats.Customers)
	fmt.Fprintf(&b, "Time taken:      %s\n", elapsed.Round(time.Millisecond))

	b.WriteString("\nCurrent standing:\n")
	for _, status := range model.Statuses {
		label := StatusStyle(status).Render(fmt.Sprintf("%-20s", status))
		fmt.Fprintf(&b, "  %s %d\n", label, summary.ByStatus[status])
	}

	return RenderBox("History Complete", strings.TrimRight(b.String(), "\n"))
}

// RenderRunsTable renders archived runs as a table.
func RenderRunsTable(runs []model.Run) string {
	headers := []string{"ID", "SOURCE", "STARTED", "EVENTS", "LINES", "CUSTOMERS", "STATE"}
	widths := make([]int, len(headers))
	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		state := "running"
		if run.Finished() {
			state = "finished"
		}
		rows = append(rows, []string{
			run.ID,
			run.Source,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprint(run.Stats.Events),
			fmt.Sprint(run.Stats.Lines),
			fmt.Sprint(run.Stats.Customers),
			state,
		})
	}

	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	padded := make([]string, len(headers))
	for i, h := range headers {
		// Match the cell padding so columns line up.
		padded[i] = fmt.Sprintf("%-*s", widths[i]+2, h)
	}

	var b strings.Builder
	// The header style draws an underline, so the header spans two lines.
	b.WriteString(TableHeaderStyle.Render(strings.Join(padded, "")))
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(TableCellStyle.Render(fmt.Sprintf("%-*s", widths[i], cell)))
		}
		b.WriteString("\n")
	}

	return b.String()
}
