package paxos

import "sync"

// Leader drives one Paxos instance to a decision: it picks ballots, runs
// phase 1 (prepare/promise) and phase 2 (propose/accept), and broadcasts the
// decision once a quorum of acceptors has accepted a value.
//
// Leader is fire-and-forget from the caller's perspective (spec'd async
// API): StartBallot and the Handle* methods return the message(s) to send,
// if any, and the owning Processor performs the actual network I/O. This
// keeps quorum counting and value selection — the safety-relevant logic —
// free of transport concerns and directly unit-testable.
type Leader struct {
	selfID            string
	totalParticipants int

	mu                sync.Mutex
	currentValue      []byte
	promisesReceived  []Promise
	acceptsReceived   []Accept
	latestKnownBallot Ballot
	currentBallot     Ballot
	currentInstance   Instance
}

// NewLeader returns a Leader for selfID, deciding among totalParticipants
// acceptors.
func NewLeader(selfID string, totalParticipants int) *Leader {
	return &Leader{
		selfID:            selfID,
		totalParticipants: totalParticipants,
	}
}

// SetValue installs the value this leader will propose in its next ballot,
// discarding any promises/accepts collected for an in-flight ballot.
func (l *Leader) SetValue(value []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentValue = value
	l.promisesReceived = nil
	l.acceptsReceived = nil
}

// StartBallot begins a new prepare phase for instance with a strictly
// higher ballot than any this leader has used, and returns the Prepare to
// broadcast to every acceptor. Starting a ballot for a new instance
// preempts any ballot still in flight for a previous one: accepts for the
// old ballot are dropped by acceptors once they promise the new one.
func (l *Leader) StartBallot(instance Instance) Prepare {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := Increase(l.latestKnownBallot, l.selfID)
	l.latestKnownBallot = b
	l.currentBallot = b
	l.currentInstance = instance
	l.promisesReceived = nil
	l.acceptsReceived = nil
	return Prepare{Instance: instance, Ballot: b, LeaderName: l.selfID}
}

// HandlePromise records a Promise and, once a quorum has been collected for
// the current ballot, returns the Propose to broadcast. ok is false when no
// quorum has formed yet (nothing to send), including when msg belongs to a
// stale ballot or a different instance than this leader is currently
// running.
func (l *Leader) HandlePromise(msg Promise) (Propose, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.Instance != l.currentInstance || !msg.Ballot.Equal(l.currentBallot) {
		return Propose{}, false
	}
	l.promisesReceived = append(l.promisesReceived, msg)
	if !isQuorum(len(l.promisesReceived), l.totalParticipants) {
		return Propose{}, false
	}
	value := selectProposalValue(l.promisesReceived, l.currentValue)
	l.promisesReceived = nil
	return Propose{Instance: l.currentInstance, Ballot: l.currentBallot, Value: value, LeaderName: l.selfID}, true
}

// HandleAccept records an Accept and, once a quorum has accepted for the
// current ballot, returns the Decide to broadcast to learners.
func (l *Leader) HandleAccept(msg Accept) (Decide, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.Instance != l.currentInstance || !msg.Ballot.Equal(l.currentBallot) {
		return Decide{}, false
	}
	l.acceptsReceived = append(l.acceptsReceived, msg)
	if !isQuorum(len(l.acceptsReceived), l.totalParticipants) {
		return Decide{}, false
	}
	value := msg.Value
	l.acceptsReceived = nil
	return Decide{Instance: l.currentInstance, Value: value}, true
}

func isQuorum(count, total int) bool {
	return count*2 > total
}

// selectProposalValue implements the proposer's critical safety rule: adopt
// the value of the highest-ballot accepted record seen across promises, or
// fall back to the leader's own pending value if every promise reports
// nothing accepted. Ties are broken by full (number, participant) ballot
// order, not by round number alone.
func selectProposalValue(promises []Promise, fallback []byte) []byte {
	var best Ballot
	var bestValue []byte
	found := false
	for _, p := range promises {
		if p.AcceptedRecord.IsUnset() {
			continue
		}
		if !found || p.AcceptedRecord.Ballot.GreaterThan(best) {
			best = p.AcceptedRecord.Ballot
			bestValue = p.AcceptedRecord.Value
			found = true
		}
	}
	if !found {
		return fallback
	}
	return bestValue
}
