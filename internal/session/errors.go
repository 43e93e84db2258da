package session

import (
	"errors"
	"sync"

	"jobtrack/internal/api"
)

// ErrorSlot holds the one error the banner shows. Newer errors replace older
// ones; validation errors and upload aborts never land here.
type ErrorSlot struct {
	mu  sync.Mutex
	err error
}

// Set stores err unless it is nil, a validation error or an upload abort
func (e *ErrorSlot) Set(err error) {
	if err == nil || api.IsValidation(err) || errors.Is(err, api.ErrUploadAborted) {
		return
	}
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Peek returns the current error without clearing it
func (e *ErrorSlot) Peek() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Take returns the current error and clears the slot
func (e *ErrorSlot) Take() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.err
	e.err = nil
	return err
}
