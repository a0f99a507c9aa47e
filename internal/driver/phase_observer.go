package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a pipeline phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Resolve.
type PhaseObserver func(PhaseEvent)

// observe emits the start event of name and returns the matching end call.
func (o PhaseObserver) observe(name string) func() {
	if o == nil {
		return func() {}
	}
	start := time.Now()
	o(PhaseEvent{Name: name, Status: PhaseStart})
	return func() {
		o(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}
}
