package paxos

import "sync"

// Acceptor holds one participant's voting state for a single Paxos
// instance. Its two handlers are the whole of Paxos safety: once it
// promises a ballot it never again accepts anything below it, and an
// accepted value always carries the ballot it was accepted at so a later
// leader can recover it.
type Acceptor struct {
	selfID string

	mu                sync.Mutex
	latestKnownBallot Ballot
	lastAccepted      Accepted
}

// NewAcceptor returns an Acceptor with latest_known_ballot = (0, selfID) and
// no accepted value, per the data model's initial state.
func NewAcceptor(selfID string) *Acceptor {
	return &Acceptor{
		selfID:            selfID,
		latestKnownBallot: Ballot{Number: 0, ParticipantID: selfID},
		lastAccepted:      Accepted{Ballot: Ballot{Number: 0, ParticipantID: selfID}},
	}
}

// HandlePrepare implements the acceptor's phase-1 rule. ok is false when the
// ballot is stale and the prepare must be silently ignored — no message is
// sent back.
func (a *Acceptor) HandlePrepare(msg Prepare) (Promise, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !msg.Ballot.GreaterOrEqual(a.latestKnownBallot) {
		return Promise{}, false
	}
	a.latestKnownBallot = msg.Ballot
	return Promise{
		Instance:       msg.Instance,
		Ballot:         msg.Ballot,
		AcceptedRecord: a.lastAccepted,
		From:           a.selfID,
	}, true
}

// HandlePropose implements the acceptor's phase-2 rule. ok is false when
// the ballot is stale and the propose must be silently ignored.
func (a *Acceptor) HandlePropose(msg Propose) (Accept, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !msg.Ballot.GreaterOrEqual(a.latestKnownBallot) {
		return Accept{}, false
	}
	a.lastAccepted = Accepted{Value: msg.Value, Ballot: msg.Ballot}
	return Accept{
		Instance: msg.Instance,
		Ballot:   msg.Ballot,
		Value:    msg.Value,
		From:     a.selfID,
	}, true
}

// LatestKnownBallot returns the acceptor's current promise ceiling, for
// tests asserting the ballot-monotonicity invariant.
func (a *Acceptor) LatestKnownBallot() Ballot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latestKnownBallot
}
