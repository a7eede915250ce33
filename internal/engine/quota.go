package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxEvents is the default event budget of a session.
const DefaultMaxEvents = 10000

// QuotaEnforcer counts the events a session has processed and enforces
// a maximum. Rejected events count against the budget too.
type QuotaEnforcer struct {
	maxEvents int
	current   int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxEvents int) *QuotaEnforcer {
	return &QuotaEnforcer{maxEvents: maxEvents}
}

// Check increments the event counter and validates it against the limit.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxEvents {
		return &EventLimitError{Events: q.current, Limit: q.maxEvents}
	}
	return nil
}

// EventLimitError is returned for every event past the session budget.
type EventLimitError struct {
	Events int
	Limit  int
}

// Error implements the error interface.
func (e *EventLimitError) Error() string {
	return fmt.Sprintf("session exceeded event budget: %d events > %d limit", e.Events, e.Limit)
}

// IsEventLimitError returns true if the error is an EventLimitError.
// Uses errors.As to handle wrapped errors.
func IsEventLimitError(err error) bool {
	var le *EventLimitError
	return errors.As(err, &le)
}
