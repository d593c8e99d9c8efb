package report

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/ethpandaops/testreportoor/pkg/logparse"
)

var (
	runDatePattern = regexp.MustCompile(`\*\*Run Date\*\*: (.+)`)
	totalPattern   = regexp.MustCompile(`\*\*Total Tests\*\*: (\d+)`)
	passedPattern  = regexp.MustCompile(`\*\*Passed\*\*: (\d+)`)
	failedPattern  = regexp.MustCompile(`\*\*Failed\*\*: (\d+)`)

	// failedSectionPattern captures the failed tests section body up to
	// the next level-two heading or the end of the document.
	failedSectionPattern = regexp.MustCompile(
		`(?s)` + regexp.QuoteMeta(headingFailed) + `.*?\n\n(.*?)(?:\n## |\z)`,
	)
	failedBulletPattern = regexp.MustCompile(`- \*\*(.+?)\*\*`)
)

// Summary is the subset of a rendered report needed for comparison.
// The count fields are plain values. The failed-name set is private and
// only read through FailedNames, which returns a fresh slice, and
// HasFailed.
type Summary struct {
	Path      string
	Timestamp string
	Total     int
	Passed    int
	Failed    int

	failed map[string]struct{}
}

// NewSummary builds a Summary from already known values. Duplicate
// failed names collapse into one.
func NewSummary(path, timestamp string, total, passed, failed int, failedNames ...string) Summary {
	set := make(map[string]struct{}, len(failedNames))
	for _, name := range failedNames {
		set[name] = struct{}{}
	}

	return Summary{
		Path:      path,
		Timestamp: timestamp,
		Total:     total,
		Passed:    passed,
		Failed:    failed,
		failed:    set,
	}
}

// FailedNames returns the failed test names in lexicographic order.
func (s Summary) FailedNames() []string {
	names := make([]string, 0, len(s.failed))
	for name := range s.failed {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// HasFailed reports whether name is listed as failed.
func (s Summary) HasFailed(name string) bool {
	_, ok := s.failed[name]

	return ok
}

// LoadSummary reads and parses a rendered report.
func LoadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // discovered report path
	if err != nil {
		return Summary{}, fmt.Errorf("reading report %s: %w", path, err)
	}

	return ParseSummary(path, string(data)), nil
}

// ParseSummary extracts a Summary from report markdown. Missing fields
// degrade to "Unknown" and zero counts.
func ParseSummary(path, content string) Summary {
	timestamp := logparse.UnknownTimestamp
	if m := runDatePattern.FindStringSubmatch(content); m != nil {
		timestamp = m[1]
	}

	var names []string

	if section := failedSectionPattern.FindStringSubmatch(content); section != nil {
		for _, m := range failedBulletPattern.FindAllStringSubmatch(section[1], -1) {
			names = append(names, m[1])
		}
	}

	return NewSummary(
		path,
		timestamp,
		firstInt(totalPattern, content),
		firstInt(passedPattern, content),
		firstInt(failedPattern, content),
		names...,
	)
}

func firstInt(re *regexp.Regexp, content string) int {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return 0
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}

	return n
}
