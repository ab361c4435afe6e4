package repository

import "errors"

var (
	// ErrActivityNotFound indicates no activity exists for the identifier.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityNotPending indicates a conditional transition lost to a prior one.
	ErrActivityNotPending = errors.New("activity is not pending")
	// ErrActivityNotApproved indicates credential fields were attached to a non-approved record.
	ErrActivityNotApproved = errors.New("activity is not approved")
	// ErrStudentNotFound indicates no student exists for the identifier.
	ErrStudentNotFound = errors.New("student not found")
)
