package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilTimerAndCounters(t *testing.T) {
	var timer *Timer
	idx := timer.Begin("x")
	timer.End(idx, "")
	assert.Equal(t, Report{}, timer.Report())

	var c *Counters
	c.Add("a", 1)
	assert.Zero(t, c.Get("a"))
	assert.Empty(t, c.Snapshot())
}

func TestTimerNestedPhasesCountOnce(t *testing.T) {
	timer := NewTimer()
	outer := timer.Begin("outer")
	inner := timer.Begin("inner")
	time.Sleep(2 * time.Millisecond)
	timer.End(inner, "")
	timer.End(outer, "done")

	report := timer.Report()
	require.Len(t, report.Phases, 2)
	assert.Equal(t, "done", report.Phases[0].Note)
	assert.InDelta(t, report.Phases[0].DurationMS, report.TotalMS, 0.001)
	assert.Contains(t, timer.Summary(), "outer")
}

func TestCountersSummarySorted(t *testing.T) {
	c := NewCounters()
	c.Add("types.input.modules.total", 2)
	c.Add("types.input.classes.total", 3)
	c.Add("types.input.classes.total", 1)

	assert.EqualValues(t, 4, c.Get("types.input.classes.total"))
	s := c.Summary()
	assert.Less(t, strings.Index(s, "classes"), strings.Index(s, "modules"))
}
