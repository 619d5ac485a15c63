package notify

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var ErrRejectedToken = errors.New("token rejected")

// FakeSender records deliveries in memory. Tokens listed in Reject fail.
type FakeSender struct {
	mu     sync.Mutex
	Reject map[string]bool
	Sent   map[string]Message
}

func NewFakeSender(reject ...string) *FakeSender {
	f := &FakeSender{Reject: map[string]bool{}, Sent: map[string]Message{}}
	for _, t := range reject {
		f.Reject[t] = true
	}
	return f
}

func (f *FakeSender) Send(ctx context.Context, token string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Reject[token] {
		return ErrRejectedToken
	}
	f.Sent[token] = msg
	return nil
}

// Tokens returns the delivered tokens in sorted order.
func (f *FakeSender) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Sent))
	for t := range f.Sent {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
