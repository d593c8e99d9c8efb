package report

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummary(t *testing.T) {
	content := "# Test Report\n" +
		"**Run Date**: Fri Jan  2 10:00:00 UTC 2026\n\n" +
		"## Summary\n" +
		"- **Total Tests**: 12\n" +
		"- **Passed**: 9 ✅\n" +
		"- **Failed**: 3 ❌\n" +
		"- **Success Rate**: 75.00%\n\n" +
		"## ✅ Passed Tests (1)\n\n" +
		"- **not_a_failure**\n\n" +
		"## ❌ Failed Tests (3)\n\n" +
		"- **test_c**\n  - Exit Code: 1\n" +
		"- **test_a**\n  - Timeout: 30s\n" +
		"- **test_a**\n  - Exit Code: 2\n\n" +
		"## Logs\n" +
		"Full output: `logs/test_run_x.log`\n"

	summary := ParseSummary("reports/test_x.md", content)

	assert.Equal(t, "reports/test_x.md", summary.Path)
	assert.Equal(t, "Fri Jan  2 10:00:00 UTC 2026", summary.Timestamp)
	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 9, summary.Passed)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, []string{"test_a", "test_c"}, summary.FailedNames())
	assert.True(t, summary.HasFailed("test_c"))
	assert.False(t, summary.HasFailed("not_a_failure"))
}

func TestParseSummary_FailedSectionAtEnd(t *testing.T) {
	content := "- **Total Tests**: 1\n- **Passed**: 0\n- **Failed**: 1\n\n" +
		"## ❌ Failed Tests (1)\n\n- **only_one**\n"

	summary := ParseSummary("r.md", content)
	assert.Equal(t, []string{"only_one"}, summary.FailedNames())
}

func TestParseSummary_Malformed(t *testing.T) {
	summary := ParseSummary("r.md", "not a report at all")

	assert.Equal(t, "Unknown", summary.Timestamp)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Passed)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.FailedNames())
}

func TestNewSummary_CollapsesDuplicates(t *testing.T) {
	summary := NewSummary("r.md", "now", 3, 1, 2, "b", "a", "b")

	assert.Equal(t, []string{"a", "b"}, summary.FailedNames())
}

func TestSummary_FailedNamesReturnsCopy(t *testing.T) {
	summary := NewSummary("r.md", "ts", 2, 0, 2, "b", "a")

	names := summary.FailedNames()
	names[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, summary.FailedNames())
	assert.False(t, summary.HasFailed("mutated"))

	copied := summary
	copied.Passed = 7

	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, summary.FailedNames(), copied.FailedNames())
}

func TestLoadSummary(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSummary(filepath.Join(t.TempDir(), "nope.md"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading report")
	})

	t.Run("written report", func(t *testing.T) {
		log := logrus.New()
		log.SetOutput(io.Discard)

		path := filepath.Join(t.TempDir(), "reports", "test_1.md")
		require.NoError(t, NewWriter(log, nil).Write(path, Render(sampleResult(), "logs/x.log")))

		_, err := os.Stat(path)
		require.NoError(t, err)

		summary, err := LoadSummary(path)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Total)
		assert.Equal(t, []string{"eta", "zeta"}, summary.FailedNames())
	})
}
