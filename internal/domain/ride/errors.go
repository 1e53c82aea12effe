package ride

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrOfferNotFound    = fmt.Errorf("ride offer %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("ride request %w", ErrNotFound)
	ErrPhotoNotFound    = fmt.Errorf("car photo %w", ErrNotFound)
	ErrOwnerNotFound    = fmt.Errorf("owner user %w", ErrNotFound)
	ErrNotOwner         = errors.New("only the owner may modify this record")
	ErrDriverRequired   = errors.New("driver id is required")
	ErrPassengerMissing = errors.New("passenger id is required")
	ErrLocationRequired = errors.New("start and end location are required")
	ErrCarModelRequired = errors.New("car model is required")
	ErrBadSeatCounts    = errors.New("free seats must be between 0 and total seats")
	ErrNegativePrice    = errors.New("price cannot be negative")
)

// ParseError reports malformed caller input such as a date or a seat count.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DatastoreError wraps a connectivity or query fault.
// Queue consumers treat it as retryable.
type DatastoreError struct {
	Op  string
	Err error
}

func (e *DatastoreError) Error() string {
	return fmt.Sprintf("datastore %s: %v", e.Op, e.Err)
}

func (e *DatastoreError) Unwrap() error { return e.Err }

// Temporary reports that the operation may succeed when retried.
func (e *DatastoreError) Temporary() bool { return true }

// Datastore wraps err as a DatastoreError unless it is nil, a not-found or already wrapped.
func Datastore(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var de *DatastoreError
	if errors.As(err, &de) {
		return err
	}
	return &DatastoreError{Op: op, Err: err}
}

// DeliveryError reports a single failed outbound notification.
type DeliveryError struct {
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
