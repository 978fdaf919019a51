package database

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is owned by another user.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when no database is configured or it cannot be reached.
	ErrUnavailable = errors.New("database not available")

	// ErrEmptyUserID is returned when an operation needs a user and none was given.
	ErrEmptyUserID = errors.New("user id cannot be empty")
)
