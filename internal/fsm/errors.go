package fsm

import "fmt"

// NoSuchStateError is raised when a state name used to resolve an event or
// a routine step is not declared in the machine.
type NoSuchStateError struct {
	State string
}

func (e *NoSuchStateError) Error() string {
	return fmt.Sprintf("fsm: no such state %q", e.State)
}

// InvalidTransitionError is raised when a user transition function returns
// a next-state name outside the allowed graph: neither in from.To nor an
// entry substate of one of from.To's members.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("fsm: invalid transition %q -> %q (allowed: %v)", e.From, e.To, e.Allowed)
}

// NoSuchRoutineError is raised when a routine name is not declared.
type NoSuchRoutineError struct {
	Name string
}

func (e *NoSuchRoutineError) Error() string {
	return fmt.Sprintf("fsm: no such routine %q", e.Name)
}

// BrokenRoutineError is raised when a routine step's actual resulting
// state diverges from the routine's declared trajectory.
type BrokenRoutineError struct {
	NextStep  string
	NextState string
	Remaining []string
}

func (e *BrokenRoutineError) Error() string {
	return fmt.Sprintf("fsm: broken routine: expected step %q, got state %q (remaining: %v)",
		e.NextStep, e.NextState, e.Remaining)
}

// RejectedError wraps a user transition function's own returned error,
// giving routines (which must halt uniformly on any failure) something to
// carry. Machine.Event callers instead see this information as a non-fatal
// Result{OK: false}, per spec: user-returned errors are values, not raised
// failures.
type RejectedError struct {
	State string
	Input Input
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("fsm: transition rejected in state %q: %v", e.State, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}
