package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAllCountsOutcomes(t *testing.T) {
	s := NewFakeSender("bad-token")
	msg := Message{Title: "Alert", Body: "Report to station"}

	res, err := SendAll(context.Background(), s, []string{"t1", "", "t2", "t1", "bad-token"}, msg)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 1}, res)
	assert.Equal(t, []string{"t1", "t2"}, s.Tokens())
	assert.Equal(t, msg, s.Sent["t2"])
}

func TestSendAllManyTokens(t *testing.T) {
	s := NewFakeSender()
	tokens := make([]string, 57)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%02d", i)
	}
	res, err := SendAll(context.Background(), s, tokens, Message{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, 57, res.Sent)
	assert.Zero(t, res.Failed)
}

func TestSendAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := SendAll(ctx, NewFakeSender(), []string{"a", "b"}, Message{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Sent)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"", "a", "b", "a", ""}))
	assert.Empty(t, Dedupe(nil))
}
