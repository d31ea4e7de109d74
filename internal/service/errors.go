package service

import "errors"

// Domain errors shared across services. Handlers map these to status codes.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidDateRange       = errors.New("end date is before start date")
	ErrInvalidDate            = errors.New("invalid date")
	ErrSelfAction             = errors.New("cannot deactivate or delete your own account")
	ErrNotExamAuthor          = errors.New("not the author of this exam")
	ErrNoQuestions            = errors.New("exam has no questions")
	ErrClassAccessDenied      = errors.New("not assigned to this class")
	ErrNotParticipant         = errors.New("not a participant of this conversation")
	ErrNoRelationship         = errors.New("no parent-child relationship")
	ErrInvalidRoleCombination = errors.New("conversations are only between a parent and a student")
	ErrMessageRequired        = errors.New("message is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrSpreadsheetInvalid     = errors.New("spreadsheet is missing required columns")
)
