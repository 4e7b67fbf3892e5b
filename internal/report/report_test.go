package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeCase(passed, repeat int, allow bool) *CaseReport {
	return &CaseReport{
		Description: "case",
		Target:      "actual",
		RepeatTimes: repeat,
		Passed:      passed,
		Attr:        Attr{Allow: allow},
	}
}

func TestCasePassAndAllow(t *testing.T) {
	c := makeCase(3, 3, false)
	require.True(t, c.Pass())
	require.True(t, c.Allow(true))
	require.True(t, c.Allow(false))

	failing := makeCase(2, 3, true)
	require.False(t, failing.Pass())
	require.False(t, failing.Allow(true))
	require.True(t, failing.Allow(false))

	failingUnallowed := makeCase(2, 3, false)
	require.False(t, failingUnallowed.Allow(false))
}

func TestWorkerAndReportPropagation(t *testing.T) {
	passing := makeCase(1, 1, false)
	allowedFailure := makeCase(0, 1, true)
	hardFailure := makeCase(0, 1, false)

	wr := &WorkerReport{Name: "w", Cases: []*CaseReport{passing, allowedFailure}}
	require.False(t, wr.Pass())
	require.True(t, wr.Allow(false))
	require.False(t, wr.Allow(true))

	r := &Report{Workers: []*WorkerReport{wr}}
	require.False(t, r.Pass())
	require.True(t, r.Allow(false))

	wr2 := &WorkerReport{Name: "w2", Cases: []*CaseReport{hardFailure}}
	r2 := &Report{Workers: []*WorkerReport{wr, wr2}}
	require.False(t, r2.Allow(false))
}

func TestTruncatedMessages(t *testing.T) {
	short := []string{"a", "b"}
	require.Equal(t, short, TruncatedMessages(short))

	long := []string{"a", "b", "c", "d", "e"}
	got := TruncatedMessages(long)
	require.Equal(t, []string{"a", "b", "c", "... and 2 more"}, got)
}

func TestRenderConsoleAndMarkdown(t *testing.T) {
	DisableColor()

	c := makeCase(1, 1, false)
	wr := &WorkerReport{Name: "worker-one", Cases: []*CaseReport{c}}
	r := &Report{Workers: []*WorkerReport{wr}}

	var console bytes.Buffer
	RenderConsole(&console, r, true, map[string]bool{"configs": true})
	require.Contains(t, console.String(), "worker-one")
	require.Contains(t, console.String(), "run allowed")
	require.Contains(t, console.String(), "run aggregate")

	var md bytes.Buffer
	RenderMarkdown(&md, r, true, nil)
	require.True(t, strings.HasPrefix(md.String(), "# Run allowed"))
	require.Contains(t, md.String(), "| Case | Target | Status | Passed | p50 | p99 |")

	RenderNull(r, true)
}
