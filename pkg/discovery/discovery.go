// Package discovery locates test run logs and generated reports on disk.
//
// Logs are named test_run_<timestamp>.log and reports test_<timestamp>.md.
// Both are treated as immutable once written, so selection is a plain
// sort over directory entries.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

const (
	// LogGlob matches test run logs written by the runner.
	LogGlob = "test_run_*.log"

	// ReportGlob matches generated markdown reports.
	ReportGlob = "test_*.md"

	// FilenameTimeLayout is used when a report name cannot be derived
	// from the log name.
	FilenameTimeLayout = "2006-01-02_15-04-05"
)

// ErrNoLogs is returned when a logs directory holds no test run logs.
var ErrNoLogs = errors.New("no log files found")

var logNamePattern = regexp.MustCompile(`test_run_(.+)\.log`)

// LatestLog returns the most recently modified test run log in dir.
func LatestLog(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, LogGlob))
	if err != nil {
		return "", fmt.Errorf("listing logs in %s: %w", dir, err)
	}

	var (
		latest     string
		latestTime time.Time
	)

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}

		if info.IsDir() {
			continue
		}

		mod := info.ModTime()

		// Equal modification times fall back to the later name.
		if latest == "" || mod.After(latestTime) ||
			(mod.Equal(latestTime) && path > latest) {
			latest, latestTime = path, mod
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}

	return latest, nil
}

// RecentReports returns up to n reports from dir, newest first by the
// timestamp embedded in the file name. A missing directory yields an
// empty list.
func RecentReports(dir string, n int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ReportGlob))
	if err != nil {
		return nil, fmt.Errorf("listing reports in %s: %w", dir, err)
	}

	reports := make([]string, 0, len(matches))

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		reports = append(reports, path)
	}

	sort.Slice(reports, func(i, j int) bool {
		return filepath.Base(reports[i]) > filepath.Base(reports[j])
	})

	if n >= 0 && len(reports) > n {
		reports = reports[:n]
	}

	return reports, nil
}

// ReportPath derives the report location for a log. The timestamp is
// taken from a test_run_<ts>.log name, or from now when the log does not
// follow that convention.
func ReportPath(reportsDir, logPath string, now time.Time) string {
	stamp := now.Format(FilenameTimeLayout)

	if m := logNamePattern.FindStringSubmatch(filepath.Base(logPath)); m != nil {
		stamp = m[1]
	}

	return filepath.Join(reportsDir, "test_"+stamp+".md")
}
