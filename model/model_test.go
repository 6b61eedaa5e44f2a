package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	base := errors.New("provider says no")

	assert.True(t, IsAuth(ClassifyStatus(401, base)))
	assert.True(t, IsAuth(ClassifyStatus(403, base)))
	assert.True(t, IsRateLimit(ClassifyStatus(429, base)))

	// Anything else passes through as transient.
	err := ClassifyStatus(500, base)
	assert.False(t, IsAuth(err))
	assert.False(t, IsRateLimit(err))
	assert.Same(t, base, err)
}

func TestErrorClassifiersSeeWrappedErrors(t *testing.T) {
	auth := &AuthError{Err: errors.New("invalid key")}
	wrapped := fmt.Errorf("request failed: %w", auth)
	assert.True(t, IsAuth(wrapped))
	assert.False(t, IsRateLimit(wrapped))

	rate := &RateLimitError{Err: errors.New("429"), RetryAfter: 2 * time.Second}
	wrapped = fmt.Errorf("request failed: %w", rate)
	assert.True(t, IsRateLimit(wrapped))

	var re *RateLimitError
	require.ErrorAs(t, wrapped, &re)
	assert.Equal(t, 2*time.Second, re.RetryAfter)
}

func TestMockModelScript(t *testing.T) {
	m := NewMockModel("scripted")
	m.EnqueueText("first").
		EnqueueToolCalls(ToolCall{ID: "c1", Name: "write_file"}).
		EnqueueError(errors.New("boom"))

	resp, err := m.Generate(context.Background(), Request{System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "write_file", resp.ToolCalls[0].Name)

	_, err = m.Generate(context.Background(), Request{})
	assert.EqualError(t, err, "boom")

	// Exhausted script is an error, not a panic.
	_, err = m.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")

	assert.Equal(t, 4, m.CallCount())
	assert.Equal(t, "sys", m.Requests()[0].System)
}
