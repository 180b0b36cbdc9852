package local

import (
	"context"
	"sync"
)

// Message is one delivered pub/sub payload.
type Message struct {
	Channel string
	Payload string
}

// PubSub fans messages out to in-process subscribers. Delivery is
// best-effort: a subscriber that falls behind its buffer loses messages
// rather than stalling the publisher.
type PubSub struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]chan *Message
	buf    int
}

// NewPubSub creates a PubSub whose subscribers each buffer up to buf
// undelivered messages.
func NewPubSub(buf int) *PubSub {
	if buf <= 0 {
		buf = 256
	}
	return &PubSub{
		topics: make(map[string]map[uint64]chan *Message),
		buf:    buf,
	}
}

// Publish hands message to every current subscriber of channel,
// including the publisher's own subscriptions.
func (ps *PubSub) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	ps.mu.RLock()
	for _, ch := range ps.topics[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	ps.mu.RUnlock()
	return nil
}

// Subscribe returns a stream of messages published to any of the named
// channels, and a cancel func that detaches the subscription and closes
// the stream. Cancel is safe to call more than once.
func (ps *PubSub) Subscribe(_ context.Context, channels ...string) (<-chan *Message, func(), error) {
	ch := make(chan *Message, ps.buf)

	ps.mu.Lock()
	id := ps.nextID
	ps.nextID++
	for _, name := range channels {
		subs := ps.topics[name]
		if subs == nil {
			subs = make(map[uint64]chan *Message)
			ps.topics[name] = subs
		}
		subs[id] = ch
	}
	ps.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ps.mu.Lock()
			for _, name := range channels {
				delete(ps.topics[name], id)
				if len(ps.topics[name]) == 0 {
					delete(ps.topics, name)
				}
			}
			ps.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
