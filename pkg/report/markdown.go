package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethpandaops/testreportoor/pkg/logparse"
)

// Section headings shared by the renderer and the summary parser.
const (
	headingPassed = "## ✅ Passed Tests"
	headingFailed = "## ❌ Failed Tests"
)

// Render produces the markdown report for a parsed run. The output is
// byte-identical for identical input. logRef is printed verbatim in the
// logs section; see LogRef.
func Render(result logparse.RunResult, logRef string) string {
	var sb strings.Builder

	sb.Grow(1024)

	writeTitle(&sb, result.Timestamp)
	writeSummary(&sb, result)
	writePassedTests(&sb, result.PassedNames)
	writeFailedTests(&sb, result.FailedEntries)
	writeLogs(&sb, logRef)

	return sb.String()
}

// SuccessRate returns passed/total as a percentage, or 0 when total is 0.
func SuccessRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(passed) / float64(total) * 100
}

// LogRef returns the log path relative to its grandparent directory,
// e.g. "logs/test_run_2026-01-02_10-00-00.log".
func LogRef(logPath string) string {
	dir := filepath.Base(filepath.Dir(logPath))
	if dir == "." || dir == string(filepath.Separator) {
		return filepath.Base(logPath)
	}

	return filepath.ToSlash(filepath.Join(dir, filepath.Base(logPath)))
}

func writeTitle(sb *strings.Builder, timestamp string) {
	sb.WriteString("# Test Report\n")
	fmt.Fprintf(sb, "**Run Date**: %s\n\n", timestamp)
}

func writeSummary(sb *strings.Builder, result logparse.RunResult) {
	sb.WriteString("## Summary\n")
	fmt.Fprintf(sb, "- **Total Tests**: %d\n", result.Total)
	fmt.Fprintf(sb, "- **Passed**: %d ✅\n", result.Passed)
	fmt.Fprintf(sb, "- **Failed**: %d ❌\n", result.Failed)
	fmt.Fprintf(sb, "- **Success Rate**: %.2f%%\n\n",
		SuccessRate(result.Passed, result.Total))
}

func writePassedTests(sb *strings.Builder, names []string) {
	if len(names) == 0 {
		return
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	fmt.Fprintf(sb, "%s (%d)\n\n", headingPassed, len(sorted))

	for _, name := range sorted {
		fmt.Fprintf(sb, "- %s\n", name)
	}

	sb.WriteByte('\n')
}

func writeFailedTests(sb *strings.Builder, entries []logparse.FailedEntry) {
	if len(entries) == 0 {
		return
	}

	// Stable so that equal names keep their parse order.
	sorted := make([]logparse.FailedEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	fmt.Fprintf(sb, "%s (%d)\n\n", headingFailed, len(sorted))

	for _, entry := range sorted {
		fmt.Fprintf(sb, "- **%s**\n", entry.Name)

		switch entry.Kind {
		case logparse.KindExitCode:
			fmt.Fprintf(sb, "  - Exit Code: %s\n", entry.Detail)
		case logparse.KindTimeout:
			fmt.Fprintf(sb, "  - Timeout: %s\n", entry.Detail)
		}
	}

	sb.WriteByte('\n')
}

func writeLogs(sb *strings.Builder, logRef string) {
	sb.WriteString("## Logs\n")
	fmt.Fprintf(sb, "Full output: `%s`\n", logRef)
}
