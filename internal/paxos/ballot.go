package paxos

import "fmt"

// Ballot totally orders proposals across every participant: lexicographically
// by (Number, ParticipantID). Zero value (0, "") sorts below any ballot a
// participant actually issues, since participant IDs are non-empty.
type Ballot struct {
	Number        uint64
	ParticipantID string
}

// IsZero reports whether b is the unset sentinel ballot (0, "").
func (b Ballot) IsZero() bool {
	return b.Number == 0 && b.ParticipantID == ""
}

// Less reports whether b sorts strictly before other.
func (b Ballot) Less(other Ballot) bool {
	if b.Number != other.Number {
		return b.Number < other.Number
	}
	return b.ParticipantID < other.ParticipantID
}

// GreaterThan reports whether b sorts strictly after other.
func (b Ballot) GreaterThan(other Ballot) bool {
	return other.Less(b)
}

// Equal reports whether b and other are the same ballot.
func (b Ballot) Equal(other Ballot) bool {
	return b.Number == other.Number && b.ParticipantID == other.ParticipantID
}

// GreaterOrEqual implements the acceptor's "b >= latest_known_ballot" test.
func (b Ballot) GreaterOrEqual(other Ballot) bool {
	return b.Equal(other) || b.GreaterThan(other)
}

// Increase produces the next ballot this participant should use: strictly
// higher than last, tagged with participantID as the tiebreaker.
func Increase(last Ballot, participantID string) Ballot {
	return Ballot{Number: last.Number + 1, ParticipantID: participantID}
}

func (b Ballot) String() string {
	return fmt.Sprintf("(%d, %s)", b.Number, b.ParticipantID)
}
