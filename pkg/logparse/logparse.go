package logparse

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
)

// UnknownTimestamp is used when a log carries no "Test run started" line.
const UnknownTimestamp = "Unknown"

// FailureKind identifies how a failed test ended.
type FailureKind string

const (
	// KindExitCode marks a test that exited with a non-zero status.
	KindExitCode FailureKind = "exit_code"
	// KindTimeout marks a test that was killed after exceeding its limit.
	KindTimeout FailureKind = "timeout"
)

// FailedEntry is a single failed test extracted from a log.
// Detail holds the exit code for KindExitCode and the duration
// string for KindTimeout.
type FailedEntry struct {
	Name   string      `json:"name"`
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

// RunResult contains everything extracted from one test run log.
//
// Summary counts and the itemized lists are extracted independently.
// A malformed log can make Failed disagree with len(FailedEntries);
// both values are kept as found.
type RunResult struct {
	Timestamp     string        `json:"timestamp"`
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	PassedNames   []string      `json:"passed_names"`
	FailedEntries []FailedEntry `json:"failed_entries"`
}

var (
	// csiPattern covers the full CSI grammar, including final bytes and
	// intermediates that stripansi does not recognise.
	csiPattern = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

	// escFePattern catches two byte ESC sequences that stripansi leaves behind.
	escFePattern = regexp.MustCompile(`\x1b[@-Z\\-_]`)

	startedPattern = regexp.MustCompile(`Test run started: (.+)`)

	// summaryBlockPattern spans the final summary block so that per-suite
	// subtotals printed earlier in the log are not picked up.
	summaryBlockPattern = regexp.MustCompile(
		`(?s)Test Results Summary.*?Total Tests: (\d+).*?Passed: (\d+).*?Failed: (\d+)`,
	)

	totalPattern  = regexp.MustCompile(`Total Tests: (\d+)`)
	passedPattern = regexp.MustCompile(`Passed: (\d+)`)
	failedPattern = regexp.MustCompile(`Failed: (\d+)`)

	passedNamePattern = regexp.MustCompile(`✓ PASSED: (.+)`)
	exitCodePattern   = regexp.MustCompile(`✗ FAILED: (.+?) \(exit code: (\d+)\)`)
	timeoutPattern    = regexp.MustCompile(`✗ TIMEOUT: (.+?) \(exceeded (.+?)\)`)
)

// ParseFile reads a log file and parses it. Only I/O problems are
// reported as errors; unrecognised content degrades to zero values.
func ParseFile(path string) (RunResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path supplied by the operator
	if err != nil {
		return RunResult{}, fmt.Errorf("reading log file: %w", err)
	}

	return Parse(string(data)), nil
}

// Parse extracts a RunResult from raw runner output. It never fails.
func Parse(text string) RunResult {
	clean := StripANSI(text)

	result := RunResult{
		Timestamp:     parseTimestamp(clean),
		PassedNames:   parsePassedNames(clean),
		FailedEntries: parseFailedEntries(clean),
	}

	var ok bool

	result.Total, result.Passed, result.Failed, ok = parseSummaryBlock(clean)
	if !ok {
		result.Total, result.Passed, result.Failed = parseLastCounts(clean)
	}

	return result
}

// StripANSI removes terminal color and control sequences. CSI runs
// first so that OSC and other sequences reach stripansi intact.
func StripANSI(text string) string {
	text = csiPattern.ReplaceAllString(text, "")

	return escFePattern.ReplaceAllString(stripansi.Strip(text), "")
}

func parseTimestamp(text string) string {
	m := startedPattern.FindStringSubmatch(text)
	if m == nil {
		return UnknownTimestamp
	}

	return strings.TrimRight(m[1], "\r")
}

// parseSummaryBlock is the preferred source of counts.
func parseSummaryBlock(text string) (total, passed, failed int, ok bool) {
	m := summaryBlockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0, false
	}

	return atoi(m[1]), atoi(m[2]), atoi(m[3]), true
}

// parseLastCounts takes the last occurrence of each count line,
// independently of the others.
func parseLastCounts(text string) (total, passed, failed int) {
	return lastInt(totalPattern, text),
		lastInt(passedPattern, text),
		lastInt(failedPattern, text)
}

func lastInt(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}

	return atoi(matches[len(matches)-1][1])
}

func parsePassedNames(text string) []string {
	matches := passedNamePattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))

	for _, m := range matches {
		names = append(names, strings.TrimRight(m[1], "\r"))
	}

	return names
}

// parseFailedEntries collects every exit-code failure in text order,
// followed by every timeout in text order.
func parseFailedEntries(text string) []FailedEntry {
	exits := exitCodePattern.FindAllStringSubmatch(text, -1)
	timeouts := timeoutPattern.FindAllStringSubmatch(text, -1)
	entries := make([]FailedEntry, 0, len(exits)+len(timeouts))

	for _, m := range exits {
		entries = append(entries, FailedEntry{
			Name:   m[1],
			Kind:   KindExitCode,
			Detail: normalizeInt(m[2]),
		})
	}

	for _, m := range timeouts {
		entries = append(entries, FailedEntry{
			Name:   m[1],
			Kind:   KindTimeout,
			Detail: m[2],
		})
	}

	return entries
}

// atoi converts a digit run matched by \d+. Values that overflow int
// are treated like a missing count.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

// normalizeInt drops leading zeros from an exit code, keeping the raw
// digits if they do not fit in an int.
func normalizeInt(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}

	return strconv.Itoa(n)
}
