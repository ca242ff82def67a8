package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request the caller can fix; wrap it with the detail.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotOrderOwner is returned when someone other than the owner acts on an order.
	ErrNotOrderOwner = errors.New("order does not belong to requester")
	// ErrInvalidTransition indicates an illegal order status change.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrStateConflict is returned when a record left the expected state before the write.
	ErrStateConflict = errors.New("state changed concurrently")
)
