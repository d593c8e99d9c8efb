package notify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethpandaops/testreportoor/pkg/regression"
	"github.com/ethpandaops/testreportoor/pkg/report"
)

// Message is a formatted notification.
type Message struct {
	Subject string
	Body    string
}

// Format builds the notification for a verdict. It depends on nothing
// but its arguments so it can be previewed without a transport.
func Format(
	suite string,
	verdict *regression.Verdict,
	current, previous report.Summary,
) Message {
	nNew := len(verdict.NewFailures)
	nTotal := len(verdict.AllFailures)

	var subject string
	if nNew > 0 {
		subject = fmt.Sprintf("[REGRESSION] %s: %d new, %d total failures",
			suite, nNew, nTotal)
	} else {
		subject = fmt.Sprintf("[TEST FAILURES] %s: %d failing", suite, nTotal)
	}

	var sb strings.Builder

	sb.WriteString("Test Report\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&sb, "Current report:  %s\n", filepath.Base(current.Path))
	fmt.Fprintf(&sb, "Previous report: %s\n\n", filepath.Base(previous.Path))
	fmt.Fprintf(&sb, "Pass count: %d -> %d (%+d)\n\n",
		previous.Passed, current.Passed, verdict.PassDelta)

	writeBlock(&sb, "NEW FAILURES", "-", verdict.NewFailures)
	writeBlock(&sb, "RECOVERED", "+", verdict.Recovered)
	writeBlock(&sb, "ALL CURRENT FAILURES", "x", verdict.AllFailures)

	return Message{
		Subject: subject,
		Body:    strings.TrimSuffix(sb.String(), "\n"),
	}
}

func writeBlock(sb *strings.Builder, title, marker string, names []string) {
	if len(names) == 0 {
		return
	}

	fmt.Fprintf(sb, "%s (%d):\n", title, len(names))

	for _, name := range names {
		fmt.Fprintf(sb, "  %s %s\n", marker, name)
	}

	sb.WriteByte('\n')
}
