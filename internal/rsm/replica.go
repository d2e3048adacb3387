// Package rsm composes one replica: a Network endpoint, a Distributed Log
// backed by a Paxos Processor and a Storage Backend, and an Operator driving
// the caller's FSM from the log's decided commands in order. It is the
// outermost layer named in the spec — everything else is a leaf dependency
// wired together here.
package rsm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/senutpal/quorumfsm/internal/dlog"
	"github.com/senutpal/quorumfsm/internal/fsm"
	"github.com/senutpal/quorumfsm/internal/network"
	"github.com/senutpal/quorumfsm/internal/operator"
	"github.com/senutpal/quorumfsm/internal/paxos"
	"github.com/senutpal/quorumfsm/internal/storage"
)

// commandEnvelope is the value actually proposed to Paxos and written to the
// log: the client's raw command plus a correlation ID minted at submission
// time. The ID is never used for consensus ordering (that is ballots' and
// sequence numbers' job) — it exists only so client-side retries and demo
// tracing have a stable handle across an Append that gets overridden by a
// concurrent proposal.
type commandEnvelope struct {
	ID      uuid.UUID `json:"id"`
	Payload []byte    `json:"payload"`
}

// Config is everything a Replica needs to start, per spec.md §4.6's
// four-step sequence.
type Config struct {
	// Name is this replica's unique Network participant name.
	Name string
	// Participants is the full cluster, including Name, used for quorum
	// sizing — every replica must be started with the same list.
	Participants []string
	Net          network.Network
	Backend      storage.Backend
	Machine      *fsm.Machine
	StartState   string
	Ctx          fsm.Ctx
	Logger       *log.Logger
}

// Replica is one running participant: Network endpoint + Distributed Log
// (Storage Backend + Paxos Processor) + Operator over the caller's FSM. Each
// decided log entry is delivered to the Operator's input in decision order,
// which is how every replica applies identical transitions regardless of
// which one proposed the command (spec.md §4.6).
type Replica struct {
	name      string
	processor *paxos.Processor
	log       *dlog.Log
	operator  *operator.Operator
	logger    *log.Logger

	mu              sync.Mutex
	appliedSeq      uint64
	lastOutput      fsm.Output
	lastApplied     error
	lastCorrelation uuid.UUID
}

// Start brings up a replica, in this order:
//  1. Start the Operator over cfg.Machine with cfg.StartState.
//  2. Start the Paxos Processor, which registers its Network endpoint under
//     cfg.Name; fails with network.ErrDuplicateName if the name is taken.
//  3. Open the Distributed Log over cfg.Backend (already started by the
//     caller) and that Processor.
//  4. Log deliveries reach the Operator through the Processor's onDecide
//     callback (Replica.onDecide).
func Start(cfg Config) (*Replica, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	op, err := operator.Start(cfg.Machine, cfg.StartState, cfg.Ctx)
	if err != nil {
		return nil, fmt.Errorf("rsm: starting operator: %w", err)
	}

	r := &Replica{name: cfg.Name, operator: op, logger: cfg.Logger}

	processor, err := paxos.NewProcessor(cfg.Name, len(cfg.Participants), cfg.Net, r.onDecide, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("rsm: starting processor: %w", err)
	}
	processor.Start()

	r.processor = processor
	r.log = dlog.Open(cfg.Backend, processor, cfg.Logger, nil)
	return r, nil
}

// onDecide is the Distributed Log's learner-delivery path: it is wired as
// the Processor's onDecide callback (via dlog.Log.OnDecide) and, after the
// entry is durably written, drives the Operator — applying commands in
// strict decision order since the Processor's actor loop is single
// threaded.
func (r *Replica) onDecide(instance paxos.Instance, value []byte) {
	r.log.OnDecide(instance, value)

	var env commandEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		r.logger.Printf("replica %s: instance %d: undecodable command envelope: %v", r.name, instance, err)
		return
	}

	result, err := r.operator.Input(env.Payload)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.appliedSeq = uint64(instance)
	r.lastCorrelation = env.ID
	if err != nil {
		r.lastApplied = err
		r.logger.Printf("replica %s: instance %d: operator raised %v", r.name, instance, err)
		return
	}
	if !result.OK {
		r.lastApplied = nil
		r.logger.Printf("replica %s: instance %d: command rejected in state %q: %v", r.name, instance, result.RejectedState, result.RejectedErr)
		return
	}
	r.lastApplied = nil
	r.lastOutput = result.Output
}

// Submit is the external client-facing call: Log.append(cmd), per
// spec.md §4.6. It returns the sequence number the command was durably
// recorded at. If a concurrently-submitted command won this attempt's Paxos
// instance instead, Submit returns dlog.ErrOverridden and the caller should
// retry. Each attempt is stamped with a fresh correlation ID before it
// reaches the log, so a caller retrying after ErrOverridden can tell its
// own attempts apart in a trace even though the wire value they produce is
// identical otherwise.
func (r *Replica) Submit(ctx context.Context, cmd []byte) (seq uint64, err error) {
	encoded, err := json.Marshal(commandEnvelope{ID: uuid.New(), Payload: cmd})
	if err != nil {
		return 0, fmt.Errorf("rsm: encoding command envelope: %w", err)
	}
	return r.log.Append(ctx, encoded)
}

// CurrentState returns the Operator's current leaf FSM state.
func (r *Replica) CurrentState() string {
	return r.operator.CurrentState()
}

// Snapshot is the supplemental read-only view of a replica's progress: its
// current FSM state, the last applied log sequence number, and the most
// recent output produced. This is a point-in-time introspection aid, not
// the state-machine snapshotting spec.md's Non-goals exclude — it carries
// no restore path and changes nothing about the replay-from-log recovery
// story.
type Snapshot struct {
	State           string
	AppliedSeq      uint64
	LastOutput      fsm.Output
	LastError       error
	LastCorrelation uuid.UUID
}

// Snapshot returns the replica's current point-in-time view.
func (r *Replica) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		State:           r.operator.CurrentState(),
		AppliedSeq:      r.appliedSeq,
		LastOutput:      r.lastOutput,
		LastError:       r.lastApplied,
		LastCorrelation: r.lastCorrelation,
	}
}

// Replay returns every decided command from starting_from onward (0 means
// the whole log), for a replica recovering or a caller auditing history.
func (r *Replica) Replay(startingFrom uint64) ([]storage.Entry, error) {
	return r.log.Replay(startingFrom)
}

// Close shuts the replica down in reverse dependency order: the Paxos
// Processor (which leaves the Network itself on Stop), then the Storage
// Backend.
func (r *Replica) Close() error {
	r.processor.Stop()
	return r.log.Close()
}

// Name returns this replica's Network participant name.
func (r *Replica) Name() string {
	return r.name
}
