package core

import (
	"errors"
	"fmt"
)

// NotFoundMsg is the message carried by a Result synthesized for a job name
// that is not registered on the queue.
const NotFoundMsg = "Job not found."

// Validation and lookup errors
var (
	ErrInvalidJobName     = errors.New("queues: invalid job name (must not be empty)")
	ErrJobNameTooLong     = errors.New("queues: job name too long")
	ErrInvalidQueueName   = errors.New("queues: invalid queue name (must not be empty)")
	ErrQueueNameTooLong   = errors.New("queues: queue name too long")
	ErrInvalidAction      = errors.New("queues: job action must be a function")
	ErrJobNotFound        = errors.New("queues: job not found")
	ErrRunNotFound        = errors.New("queues: run not found")
	ErrInputNotAssignable = errors.New("queues: input cannot be converted to the action's argument type")
)

// PanicError wraps a value recovered from a panicking action or listener.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the recovered value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
