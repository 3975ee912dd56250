package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHashReporter struct {
	calls  int
	series [][]string
}

func (f *fakeHashReporter) WorkerSchemaHashes(_ context.Context) ([]string, error) {
	idx := f.calls
	if idx >= len(f.series) {
		idx = len(f.series) - 1
	}
	f.calls++
	return f.series[idx], nil
}

func TestAwaitConvergence_ReturnsAsSoonAsHashesMatch(t *testing.T) {
	reporter := &fakeHashReporter{series: [][]string{{"h1"}}}
	err := AwaitConvergence(t.Context(), reporter)
	require.NoError(t, err)
	assert.Equal(t, 1, reporter.calls)
}

func TestAwaitConvergence_EmptyReportIsConverged(t *testing.T) {
	reporter := &fakeHashReporter{series: [][]string{nil}}
	err := AwaitConvergence(t.Context(), reporter)
	require.NoError(t, err)
}

func TestAwaitConvergence_EventuallyMatches(t *testing.T) {
	reporter := &fakeHashReporter{series: [][]string{
		{"h1", "h2"},
		{"h1", "h2"},
		{"h2", "h2"},
	}}
	err := AwaitConvergence(t.Context(), reporter)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reporter.calls, 3)
}
