package fsm

// Routines are declarative, non-branching scripts of expected state names,
// executed as a lazy, finite, non-restartable chain of events. A Step is
// the pull-based closure spec.md describes: forcing it runs exactly one
// event and returns either the next Step or a terminal outcome.
type Step func() (StepResult, error)

// StepRecord names the step just executed and the input it was given.
type StepRecord struct {
	StepName string
	Input    Input
}

// StepResult is the tagged union a forced Step produces. Exactly one of
// the "halted" or "continuing" shapes is populated:
//
//   - continuing: Halted == false, Next is the closure for the remaining
//     steps.
//   - halted, clean completion: Halted && Done, Output holds the final
//     event's output.
//   - halted, failure: Halted && !Done, Err is a *BrokenRoutineError or a
//     *RejectedError (wrapping the user transition's own error) or a
//     raised *NoSuchStateError/*InvalidTransitionError.
type StepResult struct {
	JustRan StepRecord

	Halted bool
	Done   bool
	Output Output
	Err    error

	Next Step
}

// Routine begins a chained routine: it resolves name against the
// machine's declared routines and returns the first step closure paired
// with its own JustRan-equivalent (first step name, initial input), per
// spec.md's (step_closure, (first_step_name, initial_input)) return shape
// — callers get that pairing by forcing the returned Step once.
func (m *Machine) Routine(name string, initialInput Input) (Step, error) {
	steps, ok := m.routines[name]
	if !ok {
		return nil, &NoSuchRoutineError{Name: name}
	}
	return m.routineStep(steps, 0, initialInput), nil
}

func (m *Machine) routineStep(steps []string, pos int, input Input) Step {
	return func() (StepResult, error) {
		stepName := steps[pos]
		record := StepRecord{StepName: stepName, Input: input}

		result, err := m.Event(stepName, input)
		if err != nil {
			return StepResult{JustRan: record, Halted: true, Err: err}, nil
		}
		if !result.OK {
			return StepResult{
				JustRan: record,
				Halted:  true,
				Err:     &RejectedError{State: result.RejectedState, Input: result.RejectedInput, Err: result.RejectedErr},
			}, nil
		}

		if pos+1 >= len(steps) {
			return StepResult{JustRan: record, Halted: true, Done: true, Output: result.Output}, nil
		}

		expectedNext := steps[pos+1]
		if result.Next != expectedNext {
			remaining := make([]string, len(steps[pos+2:]))
			copy(remaining, steps[pos+2:])
			return StepResult{
				JustRan: record,
				Halted:  true,
				Err: &BrokenRoutineError{
					NextStep:  expectedNext,
					NextState: result.Next,
					Remaining: remaining,
				},
			}, nil
		}

		return StepResult{
			JustRan: record,
			Halted:  false,
			Next:    m.routineStep(steps, pos+1, result.Output),
		}, nil
	}
}

// RoutineSteps returns the declared trajectory for a routine, for tests
// and introspection.
func (m *Machine) RoutineSteps(name string) ([]string, bool) {
	steps, ok := m.routines[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out, true
}
