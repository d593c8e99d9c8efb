package regression

import (
	"testing"

	"github.com/ethpandaops/testreportoor/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(passed int, failed ...string) report.Summary {
	return report.NewSummary("test.md", "now", passed+len(failed), passed, len(failed), failed...)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		current  report.Summary
		previous report.Summary
		want     *Verdict
	}{
		{
			name:     "new and recovered failures",
			current:  summary(6, "test_b", "test_c"),
			previous: summary(5, "test_a", "test_b"),
			want: &Verdict{
				NewFailures: []string{"test_c"},
				Recovered:   []string{"test_a"},
				PassDelta:   1,
				AllFailures: []string{"test_b", "test_c"},
			},
		},
		{
			name:     "clean run stays clean",
			current:  summary(10),
			previous: summary(10),
			want:     nil,
		},
		{
			name:     "clean run with more passes",
			current:  summary(12),
			previous: summary(10),
			want:     nil,
		},
		{
			name:     "everything recovered",
			current:  summary(10),
			previous: summary(8, "test_a", "test_b"),
			want:     nil,
		},
		{
			name:     "pass count drop without failures",
			current:  summary(8),
			previous: summary(10),
			want: &Verdict{
				NewFailures: []string{},
				Recovered:   []string{},
				PassDelta:   -2,
				AllFailures: []string{},
			},
		},
		{
			name:     "same failures as before still trigger",
			current:  summary(10, "test_z", "test_a"),
			previous: summary(10, "test_a", "test_z"),
			want: &Verdict{
				NewFailures: []string{},
				Recovered:   []string{},
				PassDelta:   0,
				AllFailures: []string{"test_a", "test_z"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.current, tt.previous))
		})
	}
}

func TestDetect_PassDeltaAntiSymmetric(t *testing.T) {
	a := summary(7, "x")
	b := summary(3, "y")

	ab := Detect(a, b)
	ba := Detect(b, a)

	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.Equal(t, -ab.PassDelta, ba.PassDelta)
}

func TestDetect_AnyCurrentFailureTriggers(t *testing.T) {
	for _, previousPassed := range []int{0, 5, 100} {
		v := Detect(summary(50, "flaky"), summary(previousPassed, "flaky"))
		require.NotNil(t, v)
		assert.Equal(t, []string{"flaky"}, v.AllFailures)
	}
}

func TestVerdict_HasNewFailures(t *testing.T) {
	var nilVerdict *Verdict

	assert.False(t, nilVerdict.HasNewFailures())
	assert.False(t, (&Verdict{}).HasNewFailures())
	assert.True(t, (&Verdict{NewFailures: []string{"a"}}).HasNewFailures())
}
