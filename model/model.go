// Package model defines the normalized request/response types exchanged with
// hosted LLM providers, the Model interface the execution engine drives, and
// the error classification (authentication, rate limit, transient) the
// engine's retry policy depends on.
package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ToolCall is a function invocation surfaced by a provider. The ID must be
// echoed back in the corresponding tool-result message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult carries a tool's output back to the provider, correlated by
// call id.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one turn of the accumulated conversation.
//
// Role "assistant" may carry ToolCalls; role "tool" carries ToolResults for
// a preceding assistant turn; role "user" carries plain text.
type Message struct {
	Role        string       `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolDefinition is the wire schema advertising one callable capability.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is the normalized model input.
type Request struct {
	System      string           `json:"system,omitempty"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	MaxTokens   int64            `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

// Usage captures token accounting for a response.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response is the provider's reply: accumulated text plus zero or more tool
// calls, in the order the model emitted them.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Usage      Usage      `json:"usage"`
}

// Info describes a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the interface the execution engine drives.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// AuthError signals rejected credentials. Never retried: the engine
// short-circuits the whole agent immediately.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }

// Unwrap exposes the provider error for errors.Is/As.
func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError signals a provider 429. Recoverable via bounded
// exponential backoff.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration // zero when the provider gave no hint
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("rate limited: %v", e.Err) }

// Unwrap exposes the provider error for errors.Is/As.
func (e *RateLimitError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRateLimit reports whether err is (or wraps) a rate-limit response.
func IsRateLimit(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// ClassifyStatus wraps a provider error according to its HTTP status code.
// Unrecognized statuses pass through unchanged (treated as transient).
func ClassifyStatus(status int, err error) error {
	switch status {
	case 401, 403:
		return &AuthError{Err: err}
	case 429:
		return &RateLimitError{Err: err}
	default:
		return err
	}
}
