package notify

import (
	"strings"
	"testing"

	"github.com/ethpandaops/testreportoor/pkg/regression"
	"github.com/ethpandaops/testreportoor/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Regression(t *testing.T) {
	previous := report.NewSummary("reports/test_2026-01-01.md", "a", 7, 5, 2, "test_a", "test_b")
	current := report.NewSummary("reports/test_2026-01-02.md", "b", 8, 6, 2, "test_b", "test_c")

	verdict := regression.Detect(current, previous)
	require.NotNil(t, verdict)

	msg := Format("Kernel Agent Tests", verdict, current, previous)

	assert.Equal(t, "[REGRESSION] Kernel Agent Tests: 1 new, 2 total failures", msg.Subject)

	expected := "Test Report\n" +
		strings.Repeat("=", 40) + "\n" +
		"\n" +
		"Current report:  test_2026-01-02.md\n" +
		"Previous report: test_2026-01-01.md\n" +
		"\n" +
		"Pass count: 5 -> 6 (+1)\n" +
		"\n" +
		"NEW FAILURES (1):\n" +
		"  - test_c\n" +
		"\n" +
		"RECOVERED (1):\n" +
		"  + test_a\n" +
		"\n" +
		"ALL CURRENT FAILURES (2):\n" +
		"  x test_b\n" +
		"  x test_c\n"

	assert.Equal(t, expected, msg.Body)
}

func TestFormat_FailuresWithoutNewOnes(t *testing.T) {
	previous := report.NewSummary("test_1.md", "a", 3, 2, 1, "flaky")
	current := report.NewSummary("test_2.md", "b", 3, 2, 1, "flaky")

	verdict := regression.Detect(current, previous)
	require.NotNil(t, verdict)

	msg := Format("Suite", verdict, current, previous)

	assert.Equal(t, "[TEST FAILURES] Suite: 1 failing", msg.Subject)
	assert.Contains(t, msg.Body, "Pass count: 2 -> 2 (+0)\n")
	assert.NotContains(t, msg.Body, "NEW FAILURES")
	assert.NotContains(t, msg.Body, "RECOVERED")
	assert.Contains(t, msg.Body, "ALL CURRENT FAILURES (1):\n  x flaky\n")
}

func TestFormat_PassDropOnly(t *testing.T) {
	previous := report.NewSummary("test_1.md", "a", 10, 10, 0)
	current := report.NewSummary("test_2.md", "b", 8, 8, 0)

	verdict := regression.Detect(current, previous)
	require.NotNil(t, verdict)

	msg := Format("Suite", verdict, current, previous)

	assert.Equal(t, "[TEST FAILURES] Suite: 0 failing", msg.Subject)
	assert.True(t, strings.HasSuffix(msg.Body, "Pass count: 10 -> 8 (-2)\n"))
}
