// Package notify delivers push notifications to device tokens over FCM.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	fcm "google.golang.org/api/fcm/v1"
)

// MaxConcurrentSends bounds the number of in-flight FCM requests.
const MaxConcurrentSends = 10

// Message is the visible part of a push.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers one message to one device token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// FCMSender sends through the FCM HTTP v1 API.
type FCMSender struct {
	srv    *fcm.Service
	parent string
}

func NewFCMSender(srv *fcm.Service, projectID string) *FCMSender {
	return &FCMSender{srv: srv, parent: "projects/" + projectID}
}

func (s *FCMSender) Send(ctx context.Context, token string, msg Message) error {
	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: token,
			Notification: &fcm.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		},
	}
	if _, err := s.srv.Projects.Messages.Send(s.parent, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send fcm message: %w", err)
	}
	return nil
}

// Result counts per-token outcomes of a fan-out.
type Result struct {
	Sent   int `json:"sentCount"`
	Failed int `json:"failedCount"`
}

// SendAll delivers msg to every token. A failed token is counted, never
// fatal; only context cancellation aborts the fan-out.
func SendAll(ctx context.Context, s Sender, tokens []string, msg Message) (Result, error) {
	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentSends)
	for _, token := range Dedupe(tokens) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.Send(gctx, token, msg); err != nil {
				failed.Add(1)
				slog.Warn("Push delivery failed", "token", redact(token), "error", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return Result{Sent: int(sent.Load()), Failed: int(failed.Load())}, err
}

// Dedupe drops blank and repeated tokens, keeping first-seen order.
func Dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
