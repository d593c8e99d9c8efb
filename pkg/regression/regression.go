package regression

import (
	"sort"

	"github.com/ethpandaops/testreportoor/pkg/report"
)

// Verdict describes why the current run needs attention.
// All name lists are sorted lexicographically.
type Verdict struct {
	// NewFailures failed now but not in the previous run.
	NewFailures []string
	// Recovered failed in the previous run but not now.
	Recovered []string
	// PassDelta is current passed minus previous passed. Negative
	// values mean fewer tests pass than before.
	PassDelta int
	// AllFailures is every failure in the current run.
	AllFailures []string
}

// Detect compares the current report with the previous one. It returns
// nil only when the current run has no failures, no new failures and
// no drop in the pass count.
func Detect(current, previous report.Summary) *Verdict {
	currentFailed := current.FailedNames()
	previousFailed := previous.FailedNames()

	newFailures := difference(currentFailed, previous)
	recovered := difference(previousFailed, current)
	passDelta := current.Passed - previous.Passed

	// Any current failure triggers, which already includes new failures.
	if len(newFailures) == 0 && passDelta >= 0 && len(currentFailed) == 0 {
		return nil
	}

	return &Verdict{
		NewFailures: newFailures,
		Recovered:   recovered,
		PassDelta:   passDelta,
		AllFailures: currentFailed,
	}
}

// HasNewFailures reports whether the verdict includes failures that
// were not present in the previous run.
func (v *Verdict) HasNewFailures() bool {
	return v != nil && len(v.NewFailures) > 0
}

// difference returns names not failed in other, sorted.
func difference(names []string, other report.Summary) []string {
	out := make([]string, 0, len(names))

	for _, name := range names {
		if !other.HasFailed(name) {
			out = append(out, name)
		}
	}

	sort.Strings(out)

	return out
}
