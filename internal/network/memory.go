package network

import (
	"log"
	"os"
	"sync"
)

// Memory is the in-process Network: a mutex-guarded map from participant
// name to Endpoint. All join/leave/resolve calls serialize through mu,
// matching the single-actor registry spec.md requires; a mutex is a valid
// realization of that actor so long as no handler blocks inside it, which
// none do here.
type Memory struct {
	mu      sync.Mutex
	byName  map[string]Endpoint
	order   []string
	logger  Logger
}

// NewMemory returns an empty in-process registry. A nil logger defaults to
// a new stderr logger with the "network: " prefix.
func NewMemory(logger Logger) *Memory {
	if logger == nil {
		logger = log.New(os.Stderr, "network: ", log.LstdFlags)
	}
	return &Memory{byName: make(map[string]Endpoint), logger: logger}
}

func (m *Memory) Join(name string, endpoint Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[name]; exists {
		return ErrDuplicateName
	}
	m.byName[name] = endpoint
	m.order = append(m.order, name)
	return nil
}

func (m *Memory) Leave(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[name]; !exists {
		return
	}
	delete(m.byName, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Memory) Resolve(name string) (Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byName[name]
	return e, ok
}

func (m *Memory) Participants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Memory) SendTo(name string, msg interface{}) error {
	endpoint, ok := m.Resolve(name)
	if !ok {
		m.logger.Printf("send_to %s: %v, dropping message", name, ErrNoSuchParticipant)
		return nil
	}
	endpoint.Deliver(msg)
	return nil
}

func (m *Memory) Broadcast(msg interface{}) error {
	for _, name := range m.Participants() {
		_ = m.SendTo(name, msg)
	}
	return nil
}

// Inbox is the reference Endpoint: a buffered channel. Delivery is
// non-blocking — a full inbox drops the message, simulating the fair-lossy
// transport the spec assumes rather than letting a slow participant stall
// every sender.
type Inbox struct {
	ch     chan interface{}
	logger Logger
	name   string
}

// NewInbox returns an Endpoint with room for buffer pending messages.
func NewInbox(name string, buffer int, logger Logger) *Inbox {
	if logger == nil {
		logger = log.New(os.Stderr, "network: ", log.LstdFlags)
	}
	return &Inbox{ch: make(chan interface{}, buffer), logger: logger, name: name}
}

func (ib *Inbox) Deliver(msg interface{}) {
	select {
	case ib.ch <- msg:
	default:
		ib.logger.Printf("inbox %s full, dropping message %T", ib.name, msg)
	}
}

// C exposes the underlying channel for an actor's select loop.
func (ib *Inbox) C() <-chan interface{} {
	return ib.ch
}
