package errors

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRateLimited signals a chat exceeded its message window.
	ErrRateLimited = errors.New("rate limited")
)

// ConfigError reports a missing or invalid required setting. Fatal at
// startup only, never per-request.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required config: %s", e.Key)
}

// StoreError wraps a storage failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// RetrievalError wraps an embedding/retrieval provider failure. Distinct
// from an empty result set.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval: %v", e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a completion provider failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// SendError wraps an outbound chat-platform failure.
type SendError struct {
	Status int
	Err    error
}

func (e *SendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("send (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("send: %v", e.Err)
}
func (e *SendError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a deadline expiry anywhere in the chain.
// A timed-out step classifies as that step's error.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
