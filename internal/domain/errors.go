package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrSessionNotFound    = errors.New("workout session not found")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrSetNotFound        = errors.New("set not found")
	ErrTranscriptNotFound = errors.New("chat transcript not found")
	ErrIndexOutOfRange    = errors.New("chat transcript index out of range")
	ErrKeyNotFound        = errors.New("key not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersistence        = errors.New("persistence failure")
	ErrTransport          = errors.New("assistant transport failure")
)

// PersistenceError reports a failed read or write against the key-value
// store. It matches ErrPersistence with errors.Is and unwraps to the cause.
type PersistenceError struct {
	Key string
	Op  string // "get", "set", "delete", "decode", "encode"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsNotFound reports whether err is one of the lookup misses callers
// surface as "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrSetNotFound) ||
		errors.Is(err, ErrTranscriptNotFound)
}
