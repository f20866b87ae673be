package sequencer

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestEventQueueOrderingProperty checks that popDue always yields events
// in non-decreasing time order regardless of insertion order, per spec
// §4.3's ascending-time invariant.
func TestEventQueueOrderingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("popDue drains a queue of any times in non-decreasing order", prop.ForAll(
		func(times []int64) bool {
			q := &eventQueue{}
			for _, tm := range times {
				e := q.acquire()
				e.time = tm
				q.insert(e)
			}

			var last int64 = -1
			count := 0
			for {
				e := q.popDue(1 << 40)
				if e == nil {
					break
				}
				if e.time < last {
					return false
				}
				last = e.time
				count++
			}
			return count == len(times)
		},
		gen.SliceOf(gen.Int64Range(0, 1000)),
	))

	properties.TestingRun(t)
}

// TestEventQueuePopDueRespectsDeadlineProperty checks that popDue never
// returns an event whose time exceeds the queried now, and that every
// event at or before now is eventually returned by repeated calls.
func TestEventQueuePopDueRespectsDeadlineProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("popDue never returns an event later than now", prop.ForAll(
		func(times []int64, now int64) bool {
			q := &eventQueue{}
			due := 0
			for _, tm := range times {
				e := q.acquire()
				e.time = tm
				q.insert(e)
				if tm <= now {
					due++
				}
			}

			popped := 0
			for {
				e := q.popDue(now)
				if e == nil {
					break
				}
				if e.time > now {
					return false
				}
				popped++
			}
			return popped == due
		},
		gen.SliceOf(gen.Int64Range(0, 1000)),
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}
