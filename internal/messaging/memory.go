package messaging

import (
	"fmt"
	"sync"
	"time"
)

// MemoryTransport is a process-local Transport used for development and
// testing. Queue-group semantics match the distributed substrate: each
// message on a subject reaches exactly one member of every queue group, and
// a single subscription sees its messages serially.
type MemoryTransport struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[string]*queueGroup // subject -> queue -> group
	closed bool
}

type queueGroup struct {
	members []*memorySubscription
	next    int
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{subs: make(map[string]map[string]*queueGroup)}
}

func (t *MemoryTransport) QueueSubscribe(subject, queue string, handler Handler) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("memory transport is closed")
	}

	s := &memorySubscription{
		transport: t,
		subject:   subject,
		queue:     queue,
		id:        t.nextID,
		ch:        make(chan *memoryMessage, 64),
	}
	t.nextID++

	if _, ok := t.subs[subject]; !ok {
		t.subs[subject] = make(map[string]*queueGroup)
	}
	if _, ok := t.subs[subject][queue]; !ok {
		t.subs[subject][queue] = &queueGroup{}
	}
	group := t.subs[subject][queue]
	group.members = append(group.members, s)

	// One dispatcher per subscription keeps delivery serial within it.
	go func() {
		for m := range s.ch {
			handler(m)
		}
	}()

	return s, nil
}

func (t *MemoryTransport) Request(subject string, data []byte, timeout time.Duration) ([]byte, error) {
	replyCh := make(chan []byte, 1)
	var once sync.Once
	msg := &memoryMessage{
		subject: subject,
		data:    append([]byte(nil), data...),
		reply: func(payload []byte) error {
			// First response wins; extras are discarded like late replies
			// to an expired inbox.
			once.Do(func() { replyCh <- append([]byte(nil), payload...) })
			return nil
		},
	}
	t.deliver(msg)

	select {
	case payload := <-replyCh:
		return payload, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// deliver routes one message to a single member of each queue group on the
// subject, rotating members round-robin.
func (t *MemoryTransport) deliver(msg *memoryMessage) {
	t.mu.Lock()
	var targets []*memorySubscription
	for _, group := range t.subs[msg.subject] {
		if len(group.members) == 0 {
			continue
		}
		targets = append(targets, group.members[group.next%len(group.members)])
		group.next++
	}
	t.mu.Unlock()

	for _, s := range targets {
		s.send(msg)
	}
}

func (t *MemoryTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, groups := range t.subs {
		for _, group := range groups {
			for _, s := range group.members {
				s.close()
			}
		}
	}
	t.subs = make(map[string]map[string]*queueGroup)
}

type memorySubscription struct {
	transport *MemoryTransport
	subject   string
	queue     string
	id        int

	// sendMu orders sends against channel close so a delivery snapshotted
	// before an Unsubscribe cannot hit a closed channel.
	sendMu   sync.Mutex
	ch       chan *memoryMessage
	detached bool
}

func (s *memorySubscription) send(msg *memoryMessage) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.detached {
		return
	}
	s.ch <- msg
}

func (s *memorySubscription) close() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.detached {
		return
	}
	s.detached = true
	close(s.ch)
}

func (s *memorySubscription) Unsubscribe() error {
	t := s.transport
	t.mu.Lock()
	defer t.mu.Unlock()

	if groups, ok := t.subs[s.subject]; ok {
		if group, ok := groups[s.queue]; ok {
			for i, member := range group.members {
				if member.id == s.id {
					group.members = append(group.members[:i], group.members[i+1:]...)
					break
				}
			}
			if len(group.members) == 0 {
				delete(groups, s.queue)
			}
		}
		if len(groups) == 0 {
			delete(t.subs, s.subject)
		}
	}
	s.close()
	return nil
}

type memoryMessage struct {
	subject string
	data    []byte
	reply   func(payload []byte) error
}

func (m *memoryMessage) Subject() string { return m.subject }
func (m *memoryMessage) Data() []byte    { return m.data }

func (m *memoryMessage) Respond(data []byte) error {
	if m.reply == nil {
		return fmt.Errorf("no reply destination for subject %s", m.subject)
	}
	return m.reply(data)
}
