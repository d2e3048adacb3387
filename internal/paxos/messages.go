package paxos

// Role tags the envelope a message travels in, so a Processor can multiplex
// an inbound message to the right child without inspecting its payload type.
type Role string

const (
	ToAcceptors Role = "to_acceptors"
	ToLeader    Role = "to_leader"
	ToLearners  Role = "to_learners"
)

// Envelope is the unit the Network actually transports. Payload is one of
// Prepare, Promise, Propose, Accept, or Decide below.
type Envelope struct {
	Role    Role
	Payload interface{}
}

// Instance identifies which run of single-decree Paxos a message belongs
// to. The core decides one value per instance (spec.md §1); a Processor
// runs many instances over its lifetime, one per distributed-log append,
// each independently from a fresh ballot — this is sequential reuse of
// single-decree Paxos, not the multi-decree/leader-lease optimization that
// is explicitly out of scope.
type Instance uint64

// Prepare opens phase 1: "I want to propose with ballot Ballot."
type Prepare struct {
	Instance   Instance
	Ballot     Ballot
	LeaderName string
}

// Promise is an acceptor's phase-1 response: "I won't accept anything below
// Ballot. Here's what I'd already accepted, if anything."
type Promise struct {
	Instance       Instance
	Ballot         Ballot
	AcceptedRecord Accepted
	From           string
}

// Propose opens phase 2: "Accept Value at Ballot."
type Propose struct {
	Instance   Instance
	Ballot     Ballot
	Value      []byte
	LeaderName string
}

// Accept is an acceptor's phase-2 response: "I have accepted Value at
// Ballot."
type Accept struct {
	Instance Instance
	Ballot   Ballot
	Value    []byte
	From     string
}

// Decide is the learner broadcast once a value is chosen for Instance.
type Decide struct {
	Instance Instance
	Value    []byte
}
