package service

import (
	"errors"

	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/storage"
)

var (
	// ErrActivityNotFound indicates the activity id does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrInvalidAction indicates a moderation action other than approved or rejected.
	ErrInvalidAction = errors.New("invalid moderation action")
	// ErrAlreadyFinalized indicates the activity already left pending.
	ErrAlreadyFinalized = errors.New("activity already finalized")
	// ErrActivityNotApproved indicates a credential was requested for a non-approved activity.
	ErrActivityNotApproved = errors.New("activity is not approved")
	// ErrIssuanceFailed indicates the status change committed but the credential could not
	// be produced. The returned record reflects the committed state.
	ErrIssuanceFailed = errors.New("credential issuance failed")
	// ErrDocument indicates the certificate could not be rendered or published.
	ErrDocument = errors.New("certificate document failed")
	// ErrInvalidActivity indicates submission content that fails domain checks.
	ErrInvalidActivity = errors.New("invalid activity")
	// ErrInvalidDate indicates an unparseable activity date.
	ErrInvalidDate = errors.New("invalid activity date")
	// ErrInvalidStatus indicates an unknown status filter.
	ErrInvalidStatus = errors.New("invalid activity status")
	// ErrStudentNotFound indicates the student id does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidCSV indicates the import file is missing required columns.
	ErrInvalidCSV = errors.New("invalid student csv")

	// ErrSigningConfig is the credential layer's configuration fault.
	ErrSigningConfig = credential.ErrSigningConfig
	// ErrSinkUnavailable is the document sink's retryable fault.
	ErrSinkUnavailable = storage.ErrSinkUnavailable
)
