package host

import "github.com/roach88/slicemap/internal/action"

// step is one queued dispatch.
type step struct {
	action  action.Action
	payload any
}

// stepQueue is a FIFO of pending dispatches. It is not synchronized; the
// App guards it with its own mutex.
type stepQueue struct {
	steps []step
}

func newStepQueue() *stepQueue {
	return &stepQueue{steps: make([]step, 0, 16)}
}

func (q *stepQueue) push(s step) {
	q.steps = append(q.steps, s)
}

// pop removes the front step. Returns false when empty.
func (q *stepQueue) pop() (step, bool) {
	if len(q.steps) == 0 {
		return step{}, false
	}
	s := q.steps[0]

	// Drop the reference so the action and payload can be collected.
	q.steps[0] = step{}
	if len(q.steps) == 1 {
		q.steps = q.steps[:0]
	} else {
		q.steps = q.steps[1:]
	}
	return s, true
}

func (q *stepQueue) len() int {
	return len(q.steps)
}

// reset drops every pending step.
func (q *stepQueue) reset() {
	clear(q.steps)
	q.steps = q.steps[:0]
}
