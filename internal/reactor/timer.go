package reactor

import "container/heap"

// Timer is a one-shot deadline callback; returning a positive duration
// reschedules it that far in the future (the teacher's serverCron-style
// "repeat" idiom), returning <= 0 drops it.
type Timer struct {
	At       int64 // unix-ms deadline
	Interval int64 // not set by Add or read by RunDue; Fn's return value decides rescheduling
	Fn       func(nowMs int64) (nextInterval int64)
	index    int
}

type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].At < h[j].At }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// TimerQueue is a min-heap of upcoming periodic tasks (active expiration,
// rehash ticks, background-save scheduling, replication pings), driving
// the reactor's poll timeout the way spec.md §4.1 describes ("wait no
// longer than the next due timer").
type TimerQueue struct {
	h timerHeap
}

// NewTimerQueue returns an empty queue.
func NewTimerQueue() *TimerQueue { return &TimerQueue{} }

// Add schedules fn to first fire at atMs.
func (q *TimerQueue) Add(atMs int64, fn func(nowMs int64) int64) *Timer {
	t := &Timer{At: atMs, Fn: fn}
	heap.Push(&q.h, t)
	return t
}

// NextDeadline returns the next timer's deadline and whether one exists.
func (q *TimerQueue) NextDeadline() (int64, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].At, true
}

// RunDue fires every timer whose deadline is <= nowMs, rescheduling any
// whose Fn returns a positive interval.
func (q *TimerQueue) RunDue(nowMs int64) {
	for len(q.h) > 0 && q.h[0].At <= nowMs {
		t := heap.Pop(&q.h).(*Timer)
		next := t.Fn(nowMs)
		if next > 0 {
			t.At = nowMs + next
			heap.Push(&q.h, t)
		}
	}
}
