package paxos

// Accepted is the record an acceptor holds: the value it last accepted and
// the ballot it accepted that value at. A nil Value is the null/unset
// marker — the acceptor has never accepted anything.
type Accepted struct {
	Value  []byte
	Ballot Ballot
}

// IsUnset reports whether this record represents "nothing accepted yet".
func (a Accepted) IsUnset() bool {
	return a.Value == nil
}
