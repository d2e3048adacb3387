package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBallotOrderIsLexicographic(t *testing.T) {
	require.True(t, Ballot{Number: 2, ParticipantID: "a"}.Less(Ballot{Number: 3, ParticipantID: "a"}))
	require.True(t, Ballot{Number: 2, ParticipantID: "a"}.Less(Ballot{Number: 2, ParticipantID: "b"}))
	require.False(t, Ballot{Number: 3, ParticipantID: "a"}.Less(Ballot{Number: 2, ParticipantID: "z"}))
}

func TestBallotGreaterOrEqual(t *testing.T) {
	b := Ballot{Number: 1, ParticipantID: "p1"}
	require.True(t, b.GreaterOrEqual(b))
	require.True(t, Ballot{Number: 2, ParticipantID: "p1"}.GreaterOrEqual(b))
	require.False(t, Ballot{Number: 0, ParticipantID: "p1"}.GreaterOrEqual(b))
}

func TestIncreaseProducesStrictlyHigherBallot(t *testing.T) {
	last := Ballot{Number: 4, ParticipantID: "p2"}
	next := Increase(last, "p1")
	require.True(t, next.GreaterThan(last))
	require.Equal(t, uint64(5), next.Number)
	require.Equal(t, "p1", next.ParticipantID)
}

func TestIsZero(t *testing.T) {
	require.True(t, Ballot{}.IsZero())
	require.False(t, Ballot{Number: 0, ParticipantID: "p1"}.IsZero())
}
