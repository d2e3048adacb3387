package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsQuorum(t *testing.T) {
	require.True(t, isQuorum(2, 3))
	require.False(t, isQuorum(1, 3))
	require.True(t, isQuorum(3, 4))
	require.False(t, isQuorum(2, 4))
}

func TestSelectProposalValuePrefersHighestBallotAccepted(t *testing.T) {
	fallback := []byte("leader-value")
	promises := []Promise{
		{AcceptedRecord: Accepted{Value: []byte("old"), Ballot: Ballot{Number: 1, ParticipantID: "a"}}},
		{AcceptedRecord: Accepted{Value: []byte("new"), Ballot: Ballot{Number: 2, ParticipantID: "a"}}},
		{AcceptedRecord: Accepted{}}, // unset, ignored
	}
	require.Equal(t, []byte("new"), selectProposalValue(promises, fallback))
}

func TestSelectProposalValueFallsBackWhenNothingAccepted(t *testing.T) {
	fallback := []byte("leader-value")
	promises := []Promise{{AcceptedRecord: Accepted{}}, {AcceptedRecord: Accepted{}}}
	require.Equal(t, fallback, selectProposalValue(promises, fallback))
}

func TestSelectProposalValueTieBreaksOnFullBallotOrder(t *testing.T) {
	// Equal ballot numbers, different participant IDs: must pick the one
	// with the greater participant ID, not the first one seen — this is
	// the promise tie-break fix (full (number, pid) order, not number alone).
	fallback := []byte("leader-value")
	promises := []Promise{
		{AcceptedRecord: Accepted{Value: []byte("from-a"), Ballot: Ballot{Number: 5, ParticipantID: "a"}}},
		{AcceptedRecord: Accepted{Value: []byte("from-z"), Ballot: Ballot{Number: 5, ParticipantID: "z"}}},
	}
	require.Equal(t, []byte("from-z"), selectProposalValue(promises, fallback))
}

// TestSingleProposerReachesAgreement exercises the leader and acceptors
// wired directly (no Processor/Network), driving one instance end to end:
// a single proposer with 3 acceptors reaches a decision every acceptor's
// learner agrees on.
func TestSingleProposerReachesAgreement(t *testing.T) {
	const n = 3
	acceptors := []*Acceptor{NewAcceptor("p1"), NewAcceptor("p2"), NewAcceptor("p3")}
	learners := []*Learner{NewLearner(), NewLearner(), NewLearner()}
	leader := NewLeader("p1", n)

	leader.SetValue([]byte("X"))
	prepare := leader.StartBallot(1)

	var propose Propose
	var gotPropose bool
	for _, a := range acceptors {
		promise, ok := a.HandlePrepare(prepare)
		require.True(t, ok)
		if p, ready := leader.HandlePromise(promise); ready {
			propose = p
			gotPropose = true
		}
	}
	require.True(t, gotPropose, "quorum of promises must trigger a propose")

	var decide Decide
	var gotDecide bool
	for _, a := range acceptors {
		accept, ok := a.HandlePropose(propose)
		require.True(t, ok)
		if d, ready := leader.HandleAccept(accept); ready {
			decide = d
			gotDecide = true
		}
	}
	require.True(t, gotDecide, "quorum of accepts must trigger a decide")
	require.Equal(t, []byte("X"), decide.Value)

	for _, l := range learners {
		value, ok := l.HandleDecide(decide)
		require.True(t, ok)
		require.Equal(t, []byte("X"), value)
	}
}

// TestDuelingProposersAgreeOnOneValue runs two proposers racing for the same
// instance; the one whose ballot ultimately wins quorum is the value every
// acceptor/learner agrees on — Paxos safety under concurrent proposers.
func TestDuelingProposersAgreeOnOneValue(t *testing.T) {
	const n = 3
	acceptors := []*Acceptor{NewAcceptor("p1"), NewAcceptor("p2"), NewAcceptor("p3")}

	leader1 := NewLeader("p1", n)
	leader1.SetValue([]byte("X"))
	prepare1 := leader1.StartBallot(1)

	leader2 := NewLeader("p2", n)
	leader2.SetValue([]byte("Y"))
	prepare2 := leader2.StartBallot(1) // p2 > p1 lexicographically at equal ballot number

	// p1's prepare reaches acceptors first, then p2's preempts it.
	for _, a := range acceptors {
		_, ok := a.HandlePrepare(prepare1)
		require.True(t, ok)
	}
	var promises2 []Promise
	for _, a := range acceptors {
		promise, ok := a.HandlePrepare(prepare2)
		require.True(t, ok, "p2's higher ballot must preempt p1's")
		promises2 = append(promises2, promise)
	}

	var propose2 Propose
	for _, promise := range promises2 {
		if p, ready := leader2.HandlePromise(promise); ready {
			propose2 = p
		}
	}
	require.Equal(t, []byte("Y"), propose2.Value)

	var decide Decide
	for _, a := range acceptors {
		accept, ok := a.HandlePropose(propose2)
		require.True(t, ok)
		if d, ready := leader2.HandleAccept(accept); ready {
			decide = d
		}
	}
	require.Equal(t, []byte("Y"), decide.Value)

	// p1's stale propose, arriving late, must now be ignored by every
	// acceptor since they have all promised p2's higher ballot.
	for _, a := range acceptors {
		_, ok := a.HandlePropose(Propose{Instance: 1, Ballot: prepare1.Ballot, Value: []byte("X")})
		require.False(t, ok)
	}
}
