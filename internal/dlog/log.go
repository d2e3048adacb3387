// Package dlog implements the distributed log: a consensus-backed,
// append-only sequence of decided commands. Every append is one Paxos
// instance; the instance number doubles as the log sequence number, which
// is how this package resolves spec's open "duplicate decide" question —
// see Append's doc comment. The instance/seq space is shared by the whole
// cluster, not owned by any one replica, so every Log folds instances it
// merely learns about (via OnDecide, proposed by some other replica) into
// its own next-reservation counter — see reserve's doc comment.
package dlog

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/senutpal/quorumfsm/internal/paxos"
	"github.com/senutpal/quorumfsm/internal/storage"
)

// ErrOverridden is returned by Append when this caller's value lost the race
// for its instance to a concurrently-proposed value. The caller's value was
// not recorded; retry with a fresh Append.
var ErrOverridden = fmt.Errorf("dlog: value overridden by a concurrent proposal")

// Log is the per-replica append-only log. It shares its Processor by
// reference (the Processor is not exclusively owned — the same actor also
// serves any other consumer of this replica's Paxos role), but it
// exclusively owns the Storage Backend, per spec.md's ownership model.
type Log struct {
	backend   storage.Backend
	processor *paxos.Processor
	logger    *log.Logger

	mu         sync.Mutex
	nextSeq    uint64
	waiters    map[paxos.Instance]chan []byte
	subscriber func(value []byte, seq uint64)
}

// Open wires backend and processor together into a Log. subscriber, if
// non-nil, is called once per delivered decision, in decision order, after
// it has been durably written to backend; it is not called for a decision
// whose write the backend rejected.
func Open(backend storage.Backend, processor *paxos.Processor, logger *log.Logger, subscriber func(value []byte, seq uint64)) *Log {
	if logger == nil {
		logger = log.Default()
	}
	l := &Log{
		backend:    backend,
		processor:  processor,
		logger:     logger,
		waiters:    make(map[paxos.Instance]chan []byte),
		subscriber: subscriber,
	}
	return l
}

// OnDecide is the callback a Log's owner wires into paxos.NewProcessor. It
// must run for every instance this replica's learner delivers, in the order
// delivered (the Processor's own actor loop already guarantees this since
// it is single-threaded).
func (l *Log) OnDecide(instance paxos.Instance, value []byte) {
	seq := uint64(instance)

	if err := l.backend.Write(storage.Entry{Seq: seq, Value: value}); err != nil {
		// A write here means either an instance was decided out of the
		// expected seq order (a Log bug) or this instance was already
		// written — the second decide for an instance the learner should
		// have deduplicated already. Either way there is nothing safe to
		// do but log and drop; the in-flight waiter (if any) is still
		// released below so Append does not hang.
		l.logger.Printf("dlog: instance %d: %v", instance, err)
	} else {
		// Once an instance is durably written it can never be revisited —
		// the decision is final — so every older instance's acceptor/leader/
		// learner bookkeeping in the Processor can be released.
		l.processor.Forget(instance)
		if l.subscriber != nil {
			l.subscriber(value, seq)
		}
	}

	l.mu.Lock()
	if seq > l.nextSeq {
		l.nextSeq = seq
	}
	waiter, ok := l.waiters[instance]
	if ok {
		delete(l.waiters, instance)
	}
	l.mu.Unlock()
	if ok {
		waiter <- value
	}
}

// Append submits value to consensus and blocks until the instance it was
// given resolves. The instance number is reserved before proposing and
// doubles as this value's destined log sequence number — duplicate or
// repeat decide deliveries for an instance land on a seq already written
// and are rejected by the backend (see OnDecide), so idempotency holds
// without any separate dedup table.
//
// If a concurrently-proposed value wins this instance's ballot instead,
// Append returns ErrOverridden; the caller must retry, which reserves a new
// (higher) instance/seq.
func (l *Log) Append(ctx context.Context, value []byte) (seq uint64, err error) {
	instance, waiter := l.reserve()

	l.processor.Propose(instance, value)

	select {
	case decided := <-waiter:
		if !bytes.Equal(decided, value) {
			return 0, ErrOverridden
		}
		return uint64(instance), nil
	case <-ctx.Done():
		l.abandon(instance)
		return 0, ctx.Err()
	}
}

// reserve allocates the next instance/seq past every instance this replica
// has seen decided so far — whether decided by its own Append or learned
// from another replica's concurrently-driven proposal via OnDecide. Without
// that fold-in, a replica that has never called Append would keep reserving
// instance 1 even after the cluster has moved well past it, re-running
// consensus on an already-decided instance and silently dropping its own
// value to the safety rule in paxos.selectProposalValue.
func (l *Log) reserve() (paxos.Instance, chan []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSeq++
	instance := paxos.Instance(l.nextSeq)
	waiter := make(chan []byte, 1)
	l.waiters[instance] = waiter
	return instance, waiter
}

func (l *Log) abandon(instance paxos.Instance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.waiters, instance)
}

// Latest returns the most recently written entry, or storage.ErrEmpty.
func (l *Log) Latest() (storage.Entry, error) {
	return l.backend.Latest()
}

// Replay returns every entry with Seq >= from, in order. from == 0 replays
// the whole log.
func (l *Log) Replay(from uint64) ([]storage.Entry, error) {
	return l.backend.All(from)
}

// Close releases the log's storage backend. It does not stop the
// Processor, which the Replicated State Machine owns and shuts down
// separately (the Log only shares it by reference).
func (l *Log) Close() error {
	return l.backend.Close()
}
