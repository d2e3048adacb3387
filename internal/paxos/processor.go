package paxos

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/senutpal/quorumfsm/internal/network"
)

// defaultRetryBaseDelay and defaultRetryMaxDelay are the leader's liveness
// backoff for re-issuing start_ballot when an instance has not decided
// after one prepare/propose round — dueling proposers or a dropped message
// can otherwise stall an instance indefinitely. This never affects safety;
// it only decides how eagerly a leader retries. Grounded on the teacher's
// own "LIVENESS CONSIDERATIONS ... randomized backoff" notes.
const (
	defaultRetryBaseDelay = 50 * time.Millisecond
	defaultRetryMaxDelay  = 1 * time.Second
	maxRetryAttempts      = 6
)

// Processor is the per-participant actor that multiplexes inbound messages
// by role tag to its acceptor, leader, or learner, and performs the network
// I/O those roles decide on. Acceptor, Leader, and Learner are private to
// it, as spec.md's ownership model requires.
//
// A Processor lives for the whole replica's lifetime and runs many Paxos
// instances over that lifetime — one per distributed-log append. Each
// instance gets its own fresh Acceptor, Leader, and Learner, keyed by
// Instance number: state from one decision never leaks into the next. This
// is sequential reuse of single-decree Paxos, not the multi-decree
// leader-lease optimization spec.md places out of scope — there is no
// phase-1 reuse across instances and no log compaction here.
type Processor struct {
	id                string
	totalParticipants int

	net      network.Network
	inbox    *network.Inbox
	onDecide func(Instance, []byte)
	logger   *log.Logger

	mu        sync.Mutex
	acceptors map[Instance]*Acceptor
	leaders   map[Instance]*Leader
	learners  map[Instance]*Learner

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	rngMu          sync.Mutex
	rng            *rand.Rand
}

// NewProcessor builds a Processor for participant id and joins it on net
// under that name. onDecide is invoked from the actor's own goroutine
// exactly once per instance, when this replica's learner for that instance
// first observes a Decide.
func NewProcessor(id string, totalParticipants int, net network.Network, onDecide func(Instance, []byte), logger *log.Logger) (*Processor, error) {
	if logger == nil {
		logger = log.Default()
	}
	inbox := network.NewInbox(id, 256, logger)
	if err := net.Join(id, inbox); err != nil {
		return nil, err
	}
	return &Processor{
		id:                id,
		totalParticipants: totalParticipants,
		net:               net,
		inbox:             inbox,
		onDecide:          onDecide,
		logger:            logger,
		acceptors:         make(map[Instance]*Acceptor),
		leaders:           make(map[Instance]*Leader),
		learners:          make(map[Instance]*Learner),
		stopCh:            make(chan struct{}),
		retryBaseDelay:    defaultRetryBaseDelay,
		retryMaxDelay:     defaultRetryMaxDelay,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(len(id)))),
	}, nil
}

// SetRetryBackoff overrides the leader's liveness retry schedule. A base of
// 0 disables retries entirely — useful for tests that want deterministic
// timing and assert on a single prepare/propose round.
func (p *Processor) SetRetryBackoff(base, max time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retryBaseDelay = base
	p.retryMaxDelay = max
}

// Start launches the processor's message loop. Non-blocking.
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.wg.Add(1)
	go p.run()
}

// Stop halts the message loop and leaves the network registry.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
	p.net.Leave(p.id)
}

func (p *Processor) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case msg := <-p.inbox.C():
			p.handle(msg)
		}
	}
}

func (p *Processor) acceptorFor(instance Instance) *Acceptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.acceptors[instance]
	if !ok {
		a = NewAcceptor(p.id)
		p.acceptors[instance] = a
	}
	return a
}

func (p *Processor) leaderFor(instance Instance) *Leader {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.leaders[instance]
	if !ok {
		l = NewLeader(p.id, p.totalParticipants)
		p.leaders[instance] = l
	}
	return l
}

func (p *Processor) learnerFor(instance Instance) *Learner {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.learners[instance]
	if !ok {
		l = NewLearner()
		p.learners[instance] = l
	}
	return l
}

func (p *Processor) handle(msg interface{}) {
	env, ok := msg.(Envelope)
	if !ok {
		p.logger.Printf("processor %s: dropping non-envelope message %T", p.id, msg)
		return
	}
	switch env.Role {
	case ToAcceptors:
		p.handleToAcceptors(env.Payload)
	case ToLeader:
		p.handleToLeader(env.Payload)
	case ToLearners:
		p.handleToLearners(env.Payload)
	default:
		p.logger.Printf("processor %s: unknown role %q", p.id, env.Role)
	}
}

func (p *Processor) handleToAcceptors(payload interface{}) {
	switch m := payload.(type) {
	case Prepare:
		if promise, ok := p.acceptorFor(m.Instance).HandlePrepare(m); ok {
			p.net.SendTo(m.LeaderName, Envelope{Role: ToLeader, Payload: promise})
		}
	case Propose:
		if accept, ok := p.acceptorFor(m.Instance).HandlePropose(m); ok {
			p.net.SendTo(m.LeaderName, Envelope{Role: ToLeader, Payload: accept})
		}
	default:
		p.logger.Printf("processor %s: unexpected to_acceptors payload %T", p.id, payload)
	}
}

func (p *Processor) handleToLeader(payload interface{}) {
	switch m := payload.(type) {
	case Promise:
		if propose, ok := p.leaderFor(m.Instance).HandlePromise(m); ok {
			p.net.Broadcast(Envelope{Role: ToAcceptors, Payload: propose})
		}
	case Accept:
		if decide, ok := p.leaderFor(m.Instance).HandleAccept(m); ok {
			p.net.Broadcast(Envelope{Role: ToLearners, Payload: decide})
		}
	default:
		p.logger.Printf("processor %s: unexpected to_leader payload %T", p.id, payload)
	}
}

func (p *Processor) handleToLearners(payload interface{}) {
	m, ok := payload.(Decide)
	if !ok {
		p.logger.Printf("processor %s: unexpected to_learners payload %T", p.id, payload)
		return
	}
	if value, delivered := p.learnerFor(m.Instance).HandleDecide(m); delivered {
		p.onDecide(m.Instance, value)
	}
}

// Propose sets the pending value for instance and starts a ballot for it.
// Fire-and-forget: the decision is delivered asynchronously to onDecide
// once reached. If the instance has not decided after one round, Propose
// arms a randomized-backoff watchdog that re-issues start_ballot until it
// does (or retries are exhausted) — see SetRetryBackoff to disable this for
// deterministic tests.
func (p *Processor) Propose(instance Instance, value []byte) {
	p.leaderFor(instance).SetValue(value)
	p.StartBallot(instance)

	p.mu.Lock()
	base := p.retryBaseDelay
	p.mu.Unlock()
	if base > 0 {
		p.wg.Add(1)
		go p.retryUntilDecided(instance, base)
	}
}

func (p *Processor) retryUntilDecided(instance Instance, delay time.Duration) {
	defer p.wg.Done()
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		select {
		case <-p.stopCh:
			return
		case <-time.After(p.jitter(delay)):
		}
		if _, delivered := p.learnerFor(instance).Value(); delivered {
			return
		}
		p.StartBallot(instance)

		p.mu.Lock()
		max := p.retryMaxDelay
		p.mu.Unlock()
		delay *= 2
		if delay > max {
			delay = max
		}
	}
}

func (p *Processor) jitter(base time.Duration) time.Duration {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	if base <= 0 {
		return 0
	}
	return base/2 + time.Duration(p.rng.Int63n(int64(base)))
}

// StartBallot begins a new prepare phase for instance with a strictly
// higher ballot, broadcasting Prepare to every acceptor.
func (p *Processor) StartBallot(instance Instance) {
	prepare := p.leaderFor(instance).StartBallot(instance)
	p.net.Broadcast(Envelope{Role: ToAcceptors, Payload: prepare})
}

// ID returns this processor's participant name.
func (p *Processor) ID() string {
	return p.id
}

// Forget discards the per-instance acceptor/leader/learner state for every
// instance below upTo, once the distributed log has durably recorded their
// decisions and they can no longer be revisited. This is cleanup, not log
// compaction: decided values already live in storage; only the transient
// consensus bookkeeping is released.
func (p *Processor) Forget(upTo Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for instance := range p.acceptors {
		if instance < upTo {
			delete(p.acceptors, instance)
			delete(p.leaders, instance)
			delete(p.learners, instance)
		}
	}
}
