package fsm

// Builder assembles a Machine declaratively, matching the fluent shape the
// fsm examples in this corpus use (noru-rfsm's chained DefinitionBuilder,
// xenzh-gofsm's Builder.Fsm() validate-on-build). Build runs Validate
// before returning the machine, so a Builder can never hand back a machine
// with a dangling To/Substates/routine reference.
type Builder struct {
	machine *Machine
	err     error
}

// NewBuilder starts building a machine named name.
func NewBuilder(name string) *Builder {
	return &Builder{machine: New(name)}
}

// State declares a state and returns the builder for chaining. A state
// declared twice, or any error from an earlier call, is latched and
// surfaced by Build.
func (b *Builder) State(name string, to, substates []string, transition TransitionFunc, output OutputFunc) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.machine.AddState(&State{
		Name:       name,
		To:         to,
		Substates:  substates,
		Transition: transition,
		Output:     output,
	})
	return b
}

// Routine declares a routine and returns the builder for chaining.
func (b *Builder) Routine(name string, steps []string) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.machine.AddRoutine(name, steps)
	return b
}

// Context installs the machine's initial ctx.
func (b *Builder) Context(ctx Ctx) *Builder {
	b.machine.SetContext(ctx)
	return b
}

// Build validates and returns the assembled machine, or the first error
// latched by a prior State/Routine call, or a validation error.
func (b *Builder) Build() (*Machine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.machine.Validate(); err != nil {
		return nil, err
	}
	return b.machine, nil
}
