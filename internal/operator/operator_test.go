package operator

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/senutpal/quorumfsm/internal/fsm"
)

func buildCycle(t *testing.T) *fsm.Machine {
	t.Helper()
	plus := map[string]int{"A": 1, "B": 2, "C": 3}
	threshold := map[string]int{"A": 10, "B": 20, "C": 30}
	next := map[string]string{"A": "B", "B": "C", "C": "A"}

	m := fsm.New("cycle")
	for _, name := range []string{"A", "B", "C"} {
		name := name
		require.NoError(t, m.AddState(&fsm.State{
			Name: name,
			To:   []string{name, next[name]},
			Transition: func(input fsm.Input, _ fsm.Ctx) (string, error) {
				n := input.(int)
				out := n + plus[name]
				if out > threshold[name] {
					return "", errors.New("threshold exceeded")
				}
				if n%2 == 1 {
					return next[name], nil
				}
				return name, nil
			},
			Output: func(input fsm.Input, _ fsm.Ctx) fsm.Output {
				return input.(int) + plus[name]
			},
		}))
	}
	require.NoError(t, m.Validate())
	return m
}

func TestOperatorStartAndInput(t *testing.T) {
	op, err := Start(buildCycle(t), "A", nil)
	require.NoError(t, err)
	require.Equal(t, "A", op.CurrentState())

	result, err := op.Input(1)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, "B", op.CurrentState())
	require.Equal(t, 2, result.Output)
}

func TestOperatorStateUnchangedOnRejection(t *testing.T) {
	op, err := Start(buildCycle(t), "C", nil)
	require.NoError(t, err)

	_, err = op.Input(100)
	require.NoError(t, err)
	require.Equal(t, "C", op.CurrentState(), "a rejected input must not move current_state")
}

func TestOperatorStartWithUnknownStateFails(t *testing.T) {
	_, err := Start(buildCycle(t), "Z", nil)
	require.Error(t, err)
}

func TestOperatorRaisedFailureRecordedAsLastError(t *testing.T) {
	m := fsm.New("tiny")
	require.NoError(t, m.AddState(&fsm.State{
		Name: "A",
		To:   []string{"A"},
		Transition: func(fsm.Input, fsm.Ctx) (string, error) {
			return "nonexistent", nil
		},
		Output: func(fsm.Input, fsm.Ctx) fsm.Output { return nil },
	}))
	require.NoError(t, m.Validate())

	op, err := Start(m, "A", nil)
	require.NoError(t, err)

	_, err = op.Input(nil)
	require.Error(t, err)
	require.Equal(t, err, op.LastError())
}

// TestOperatorSerializesConcurrentInputs drives many goroutines' worth of
// inputs through one operator and checks every input was applied exactly
// once in some serial order — the atomic read-apply-write invariant.
func TestOperatorSerializesConcurrentInputs(t *testing.T) {
	op, err := Start(buildCycle(t), "A", nil)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(input int) {
			defer wg.Done()
			_, _ = op.Input(input % 2)
		}(i)
	}
	wg.Wait()

	require.Len(t, op.History(), n)
	final := op.CurrentState()
	require.Contains(t, []string{"A", "B", "C"}, final)
}
