// Package operator implements the thin, load-bearing coordinator that sits
// in front of an fsm.Machine: it remembers current_state_name and mediates
// every external input into the machine as one atomic read-apply-write step.
package operator

import (
	"fmt"
	"sync"

	"github.com/senutpal/quorumfsm/internal/fsm"
)

// Operator is a single-participant wrapper around one fsm.Machine. Its whole
// job is serializing concurrent inputs: everything else is delegated to the
// machine. An Operator is itself the actor/critical section spec.md
// describes — Input holds mu for its entire read-event-write
// sequence, so two concurrent callers are strictly ordered, never
// interleaved.
type Operator struct {
	machine *fsm.Machine

	mu           sync.Mutex
	currentState string
	lastErr      error
}

// Start brings an Operator up over machine, beginning at startState. It does
// not validate machine — callers are expected to have called
// machine.Validate() (directly, or implicitly via fsm.Builder.Build())
// before Start.
func Start(machine *fsm.Machine, startState string, ctx fsm.Ctx) (*Operator, error) {
	if _, ok := machine.State(startState); !ok {
		return nil, &fsm.NoSuchStateError{State: startState}
	}
	machine.SetContext(ctx)
	return &Operator{machine: machine, currentState: startState}, nil
}

// CurrentState returns the operator's current leaf state name.
func (o *Operator) CurrentState() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentState
}

// LastError returns the most recent raised failure (NoSuchState,
// InvalidTransition) this operator observed, if any. A non-fatal rejection
// (Result.OK == false) is not recorded here — it comes back from Input
// itself as part of the Result.
func (o *Operator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// History delegates to the underlying machine's bounded trace.
func (o *Operator) History() []fsm.HistoryEntry {
	return o.machine.History()
}

// Input applies one external input atomically: read current_state, call
// fsm.Event(current_state, input), and on success write
// current_state := next. A raised failure (NoSuchState, InvalidTransition)
// leaves current_state untouched and is both returned and recorded as
// LastError. A non-fatal rejection (the user transition returned an error)
// also leaves current_state untouched, but is not an Operator-level error —
// it comes back inside Result with OK == false.
func (o *Operator) Input(input fsm.Input) (fsm.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result, err := o.machine.Event(o.currentState, input)
	if err != nil {
		o.lastErr = err
		return fsm.Result{}, err
	}
	if !result.OK {
		return result, nil
	}
	o.currentState = result.Next
	return result, nil
}

func (o *Operator) String() string {
	return fmt.Sprintf("operator(machine=%s, state=%s)", o.machine.Name(), o.CurrentState())
}
