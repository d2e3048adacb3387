package paxos

import "sync"

// Learner is the role that receives Decide broadcasts and reports the
// decided value to the upper process exactly once per instance. Safety
// never depends on the learner — acceptors and the leader's quorum already
// guarantee agreement — but a sloppy learner can still double-deliver (two
// leaders' quorums both broadcasting Decide for the same instance) or
// deliver late, so it tracks whether this instance has already reported.
type Learner struct {
	mu       sync.Mutex
	reported bool
	value    []byte
}

// NewLearner returns a Learner ready for a fresh instance.
func NewLearner() *Learner {
	return &Learner{}
}

// HandleDecide records msg and reports ok=true exactly the first time a
// Decide is observed for this instance; every subsequent call (duplicate
// broadcast, retransmission) returns ok=false.
func (l *Learner) HandleDecide(msg Decide) (value []byte, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reported {
		return nil, false
	}
	l.reported = true
	l.value = msg.Value
	return l.value, true
}

// Reset prepares the learner for the next instance.
func (l *Learner) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reported = false
	l.value = nil
}

// Value returns the last value this learner reported, if any.
func (l *Learner) Value() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.reported {
		return nil, false
	}
	return l.value, true
}
