// Package fsm implements the hierarchical finite state machine engine: a
// state graph with declarative multi-step routines, enforcing the
// allowed-transitions graph and hierarchical entry into composite states.
package fsm

import (
	"fmt"
	"sync"
)

// Input, Output, and Ctx are intentionally opaque: the machine never
// inspects them, only threads them through to the user's Transition and
// Output functions. Ctx must be effect-free and identical across replicas
// replaying the same log — determinism is the caller's responsibility.
type Input interface{}
type Output interface{}
type Ctx interface{}

// TransitionFunc computes the next state name for input given the current
// ctx, or an error if input is not accepted in the calling state.
type TransitionFunc func(input Input, ctx Ctx) (next string, err error)

// OutputFunc computes the value an event application emits.
type OutputFunc func(input Input, ctx Ctx) Output

// State is a single node in the machine's graph. A state with a non-empty
// Substates list is composite: a transition that targets it implicitly
// descends into Substates[0], its entry substate.
type State struct {
	Name       string
	To         []string
	Substates  []string
	Transition TransitionFunc
	Output     OutputFunc
}

// IsComposite reports whether s has child states.
func (s *State) IsComposite() bool {
	return len(s.Substates) > 0
}

// EntrySubstate returns the first declared substate, the default leaf on
// hierarchical descent. Only valid when IsComposite is true.
func (s *State) EntrySubstate() string {
	return s.Substates[0]
}

// Result is the outcome of one event application. OK is false exactly when
// the state's own Transition function returned a user error: that is a
// value, not a raised failure (raised failures — NoSuchState,
// InvalidTransition — come back as Machine.Event's error return instead).
type Result struct {
	OK     bool
	Next   string
	Output Output

	RejectedState string
	RejectedInput Input
	RejectedErr   error
}

// historyEntry is one row of a machine's bounded trace ring buffer.
type historyEntry struct {
	From   string
	Input  Input
	Result Result
	Err    error
}

// Machine is a user-defined hierarchical state graph plus its declared
// routines. States and routines are fixed after Validate; Ctx is the only
// mutable piece, and only through SetContext.
type Machine struct {
	name     string
	states   map[string]*State
	order    []string
	routines map[string][]string

	ctxMu sync.RWMutex
	ctx   Ctx

	historyMu  sync.Mutex
	history    []historyEntry
	historyCap int
}

// New returns an empty, unvalidated machine named name. Use a Builder (see
// builder.go) for declarative construction, or AddState/AddRoutine
// directly followed by Validate.
func New(name string) *Machine {
	return &Machine{
		name:       name,
		states:     make(map[string]*State),
		routines:   make(map[string][]string),
		historyCap: 64,
	}
}

// Name returns the machine's symbolic name.
func (m *Machine) Name() string { return m.name }

// AddState declares a state. Name must be unique within the machine.
func (m *Machine) AddState(s *State) error {
	if _, exists := m.states[s.Name]; exists {
		return fmt.Errorf("fsm: duplicate state name %q", s.Name)
	}
	m.states[s.Name] = s
	m.order = append(m.order, s.Name)
	return nil
}

// AddRoutine declares a routine: a name paired with its expected ordered
// trajectory of state names. Routine names must be unique.
func (m *Machine) AddRoutine(name string, steps []string) error {
	if _, exists := m.routines[name]; exists {
		return fmt.Errorf("fsm: duplicate routine name %q", name)
	}
	if len(steps) == 0 {
		return fmt.Errorf("fsm: routine %q has no steps", name)
	}
	cp := make([]string, len(steps))
	copy(cp, steps)
	m.routines[name] = cp
	return nil
}

// SetHistoryCapacity bounds the trace ring buffer; 0 disables history.
func (m *Machine) SetHistoryCapacity(n int) {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	m.historyCap = n
	if len(m.history) > n {
		m.history = m.history[len(m.history)-n:]
	}
}

// Validate checks spec.md's declaration invariants: every name in a
// state's To and Substates resolves to a declared state, every routine
// step resolves to a declared state, and (defensively) every state's own
// name matches its map key. It must succeed before Event or Routine is
// called.
func (m *Machine) Validate() error {
	for name, s := range m.states {
		if s.Name != name {
			return fmt.Errorf("fsm: state map key %q does not match State.Name %q", name, s.Name)
		}
		for _, to := range s.To {
			if _, ok := m.states[to]; !ok {
				return fmt.Errorf("fsm: state %q has undeclared To target %q", name, to)
			}
		}
		for _, sub := range s.Substates {
			if _, ok := m.states[sub]; !ok {
				return fmt.Errorf("fsm: state %q has undeclared substate %q", name, sub)
			}
		}
	}
	for name, steps := range m.routines {
		for _, step := range steps {
			if _, ok := m.states[step]; !ok {
				return fmt.Errorf("fsm: routine %q references undeclared state %q", name, step)
			}
		}
	}
	return nil
}

// TransitionMatrix returns the derived per-state candidate list spec.md §3
// defines: the calling state's own entry-substate chain (if it is
// composite) followed by its declared To targets. It is computed on each
// call as an introspection aid, distinct from the normative validation rule
// Event applies — see Event's doc comment.
func (m *Machine) TransitionMatrix(stateName string) ([]string, error) {
	s, ok := m.states[stateName]
	if !ok {
		return nil, &NoSuchStateError{State: stateName}
	}
	var out []string
	if s.IsComposite() {
		out = append(out, s.EntrySubstate())
	}
	out = append(out, s.To...)
	return out, nil
}

// SetContext installs ctx as the opaque data passed to every Transition and
// Output call from now on. Callers must keep it effect-free and identical
// across replicas replaying the same log.
func (m *Machine) SetContext(ctx Ctx) {
	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()
	m.ctx = ctx
}

// GetContext returns the currently installed ctx.
func (m *Machine) GetContext() Ctx {
	m.ctxMu.RLock()
	defer m.ctxMu.RUnlock()
	return m.ctx
}

// Event applies one transition step from fromStateName, per spec.md §4.1's
// normative algorithm:
//
//  1. Resolve from = states[fromStateName]; raise NoSuchState otherwise.
//  2. Call from.Transition(input, ctx).
//  3. On error, return Result{OK: false, ...} — not a raised failure.
//  4. On ok, validate next is in from.To, or is the entry substate of some
//     member of from.To. Anything else raises InvalidTransition. This is
//     the conservative reading of spec.md §9's open question: a transition
//     reachable only through a *superstate's* To list, from an inner
//     state, is rejected rather than propagated through the hierarchy.
//  5. Compute output = from.Output(input, ctx).
//  6. If the resolved target is composite, descend: call
//     Event(entrySubstate, output) and return its result as this event's
//     result. Otherwise return {ok, (next, output)}.
func (m *Machine) Event(fromStateName string, input Input) (Result, error) {
	from, ok := m.states[fromStateName]
	if !ok {
		return Result{}, &NoSuchStateError{State: fromStateName}
	}

	next, err := from.Transition(input, m.GetContext())
	if err != nil {
		result := Result{OK: false, RejectedState: from.Name, RejectedInput: input, RejectedErr: err}
		m.recordHistory(fromStateName, input, result, nil)
		return result, nil
	}

	target, allowed, valid := m.resolveTarget(from, next)
	if !valid {
		rerr := &InvalidTransitionError{From: from.Name, To: next, Allowed: allowed}
		m.recordHistory(fromStateName, input, Result{}, rerr)
		return Result{}, rerr
	}

	output := from.Output(input, m.GetContext())

	if target.IsComposite() {
		result, derr := m.Event(target.EntrySubstate(), output)
		m.recordHistory(fromStateName, input, result, derr)
		return result, derr
	}

	result := Result{OK: true, Next: next, Output: output}
	m.recordHistory(fromStateName, input, result, nil)
	return result, nil
}

// resolveTarget validates next against from's allowed successors (from.To,
// or the entry substate of a member of from.To) and returns the resolved
// *State plus the allowed-name list for error reporting.
func (m *Machine) resolveTarget(from *State, next string) (*State, []string, bool) {
	allowed := make([]string, 0, len(from.To))
	for _, candidate := range from.To {
		allowed = append(allowed, candidate)
		if candidate == next {
			return m.states[candidate], allowed, true
		}
		if cs, ok := m.states[candidate]; ok && cs.IsComposite() && cs.EntrySubstate() == next {
			return m.states[next], allowed, true
		}
	}
	return nil, allowed, false
}

func (m *Machine) recordHistory(from string, input Input, result Result, err error) {
	if m.historyCap == 0 {
		return
	}
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	m.history = append(m.history, historyEntry{From: from, Input: input, Result: result, Err: err})
	if len(m.history) > m.historyCap {
		m.history = m.history[len(m.history)-m.historyCap:]
	}
}

// HistoryEntry is the read-only view of a past event application returned
// by History.
type HistoryEntry struct {
	From   string
	Input  Input
	OK     bool
	Next   string
	Output Output
	Err    error
}

// History returns the bounded trace of past event applications, oldest
// first. This is an in-memory observability aid, not state-machine
// snapshotting: it carries no durability or replay semantics and is
// unrelated to the distributed log.
func (m *Machine) History() []HistoryEntry {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	out := make([]HistoryEntry, len(m.history))
	for i, h := range m.history {
		out[i] = HistoryEntry{
			From:   h.From,
			Input:  h.Input,
			OK:     h.Result.OK,
			Next:   h.Result.Next,
			Output: h.Result.Output,
			Err:    h.Err,
		}
	}
	return out
}

// StateNames returns every declared state name, in declaration order.
func (m *Machine) StateNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// State returns the declared state named name, if any.
func (m *Machine) State(name string) (*State, bool) {
	s, ok := m.states[name]
	return s, ok
}
