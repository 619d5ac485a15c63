package mailer

import (
	"context"
	"sync"
	"time"
)

// FakeMailer captures codes instead of sending them.
type FakeMailer struct {
	mu    sync.Mutex
	Codes map[string]string
	Err   error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{Codes: map[string]string{}}
}

func (f *FakeMailer) SendOTP(ctx context.Context, to, code string, validFor time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Codes[to] = code
	return nil
}

// Code returns the last code sent to address.
func (f *FakeMailer) Code(to string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Codes[to]
}
