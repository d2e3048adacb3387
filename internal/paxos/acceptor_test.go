package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptorPromisesIncreasingBallots(t *testing.T) {
	a := NewAcceptor("p1")

	promise, ok := a.HandlePrepare(Prepare{Instance: 1, Ballot: Ballot{Number: 1, ParticipantID: "p2"}, LeaderName: "p2"})
	require.True(t, ok)
	require.True(t, promise.AcceptedRecord.IsUnset())
	require.Equal(t, Ballot{Number: 1, ParticipantID: "p2"}, a.LatestKnownBallot())
}

func TestAcceptorIgnoresStalePrepare(t *testing.T) {
	a := NewAcceptor("p1")
	_, ok := a.HandlePrepare(Prepare{Instance: 1, Ballot: Ballot{Number: 2, ParticipantID: "p2"}})
	require.True(t, ok)

	_, ok = a.HandlePrepare(Prepare{Instance: 1, Ballot: Ballot{Number: 1, ParticipantID: "p3"}})
	require.False(t, ok)
}

func TestAcceptorBallotMonotonicity(t *testing.T) {
	a := NewAcceptor("p1")
	_, _ = a.HandlePrepare(Prepare{Ballot: Ballot{Number: 1, ParticipantID: "p2"}})
	first := a.LatestKnownBallot()
	_, _ = a.HandlePrepare(Prepare{Ballot: Ballot{Number: 1, ParticipantID: "p1"}}) // stale, ignored
	require.Equal(t, first, a.LatestKnownBallot())
	_, _ = a.HandlePrepare(Prepare{Ballot: Ballot{Number: 5, ParticipantID: "p2"}})
	require.True(t, a.LatestKnownBallot().GreaterThan(first))
}

func TestAcceptorAcceptsAtOrAboveLatestKnownBallot(t *testing.T) {
	a := NewAcceptor("p1")
	_, _ = a.HandlePrepare(Prepare{Ballot: Ballot{Number: 3, ParticipantID: "leader"}})

	accept, ok := a.HandlePropose(Propose{Instance: 1, Ballot: Ballot{Number: 3, ParticipantID: "leader"}, Value: []byte("v1")})
	require.True(t, ok)
	require.Equal(t, []byte("v1"), accept.Value)

	_, ok = a.HandlePropose(Propose{Instance: 1, Ballot: Ballot{Number: 2, ParticipantID: "other"}, Value: []byte("v2")})
	require.False(t, ok)
}
