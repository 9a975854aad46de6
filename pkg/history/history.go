// Package history provides the in-memory record of past evaluations.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/tapelabs/deskcalc/pkg/types"
)

// EntryState represents the outcome state of a recorded evaluation.
type EntryState string

const (
	EntrySucceeded EntryState = "SUCCEEDED"
	EntryFailed    EntryState = "FAILED"
)

// Entry represents one recorded evaluation.
type Entry struct {
	ID         string      `json:"id"`
	Expression string      `json:"expression"`
	State      EntryState  `json:"state"`
	Result     string      `json:"result,omitempty"` // formatted value, empty when failed
	Value      float64     `json:"value"`            // raw value, zero when failed
	Error      *EntryError `json:"error,omitempty"`
	CreateTime time.Time   `json:"createTime"`
}

// EntryError represents the failure recorded for a failed evaluation.
type EntryError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// History is a thread-safe in-memory log of evaluations, newest first.
// Entries live only for the lifetime of the process.
type History struct {
	mu      sync.RWMutex
	entries []*Entry
	limit   int

	// Counter for generating unique entry IDs
	counter int64
}

// New creates an empty history. A limit of 0 keeps every entry; otherwise
// the oldest entries are dropped once the limit is exceeded.
func New(limit int) *History {
	return &History{limit: limit}
}

// Record stores the outcome of one evaluation at the head of the log.
// Every evaluation is recorded, including failed ones and repeats of the
// same expression.
func (h *History) Record(expression string, value float64, evalErr error) *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counter++
	e := &Entry{
		ID:         fmt.Sprintf("eval-%d", h.counter),
		Expression: expression,
		CreateTime: time.Now(),
	}

	if evalErr != nil {
		ce := types.AsCalcError(evalErr)
		e.State = EntryFailed
		e.Error = &EntryError{Kind: string(ce.Kind), Message: ce.Message}
	} else {
		e.State = EntrySucceeded
		e.Value = value
		e.Result = types.FormatNumber(value)
	}

	h.entries = append([]*Entry{e}, h.entries...)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return e
}

// List returns a copy of the log, newest entry first.
func (h *History) List() []*Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]*Entry, len(h.entries))
	copy(result, h.entries)
	return result
}

// Get retrieves an entry by ID.
func (h *History) Get(id string) (*Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("history entry '%s' not found", id)
}

// Clear removes all entries and returns how many were dropped.
func (h *History) Clear() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	h.entries = nil
	return n
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}
