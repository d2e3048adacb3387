package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLearnerDeliversOnlyOncePerInstance(t *testing.T) {
	l := NewLearner()

	value, ok := l.HandleDecide(Decide{Instance: 1, Value: []byte("x")})
	require.True(t, ok)
	require.Equal(t, []byte("x"), value)

	_, ok = l.HandleDecide(Decide{Instance: 1, Value: []byte("x")})
	require.False(t, ok, "duplicate decide must not be delivered twice")
}

func TestLearnerResetAllowsNextInstance(t *testing.T) {
	l := NewLearner()
	_, _ = l.HandleDecide(Decide{Value: []byte("x")})
	l.Reset()

	value, ok := l.HandleDecide(Decide{Value: []byte("y")})
	require.True(t, ok)
	require.Equal(t, []byte("y"), value)
}

func TestLearnerValueBeforeAnyDecide(t *testing.T) {
	l := NewLearner()
	_, ok := l.Value()
	require.False(t, ok)
}
