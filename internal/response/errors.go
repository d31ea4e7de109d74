package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrAccountInactive    ErrCode = "ACCOUNT_INACTIVE"
	ErrSessionRevoked     ErrCode = "SESSION_REVOKED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden      ErrCode = "FORBIDDEN"
	ErrRoleNotAllowed ErrCode = "ROLE_NOT_ALLOWED"
	ErrClassAccess    ErrCode = "CLASS_ACCESS_DENIED"
	ErrNotParticipant ErrCode = "NOT_CONVERSATION_PARTICIPANT"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDate    ErrCode = "INVALID_DATE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Domain-specific ───────────────────────────────────────────────
	ErrNotExamAuthor       ErrCode = "NOT_EXAM_AUTHOR"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrNoRelationship      ErrCode = "NO_PARENT_CHILD_RELATIONSHIP"
	ErrInvalidRolePair     ErrCode = "INVALID_ROLE_COMBINATION"
	ErrMessageRequired     ErrCode = "MESSAGE_REQUIRED"
	ErrTitleRequired       ErrCode = "TITLE_REQUIRED"
	ErrSpreadsheetRequired ErrCode = "SPREADSHEET_REQUIRED"
	ErrSpreadsheetInvalid  ErrCode = "SPREADSHEET_INVALID"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Email or password is incorrect.",
	ErrAccountInactive:    "This account has been deactivated.",
	ErrSessionRevoked:     "Your session has ended. Please sign in again.",
	ErrTokenRequired:      "An authentication token is required.",
	ErrTokenInvalid:       "The authentication token is invalid or expired.",

	ErrForbidden:      "You are not allowed to access this resource.",
	ErrRoleNotAllowed: "Your role cannot access this resource.",
	ErrClassAccess:    "You are not assigned to this class.",
	ErrNotParticipant: "You are not a participant in this conversation.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidID:      "Invalid ID format.",
	ErrInvalidPayload: "Invalid request payload.",
	ErrInvalidDate:    "Dates must use the YYYY-MM-DD format.",

	ErrNotFound:         "Resource not found.",
	ErrConflict:         "Resource already exists.",
	ErrDependencyExists: "This record is still referenced by other data.",
	ErrActionForbidden:  "This action is not allowed.",

	ErrNotExamAuthor:       "You are not the author of this examination.",
	ErrNoQuestions:         "An examination needs at least one question.",
	ErrNoRelationship:      "No parent-child relationship exists between these users.",
	ErrInvalidRolePair:     "Family messaging is only available between a parent and their child.",
	ErrMessageRequired:     "A message is required.",
	ErrTitleRequired:       "A title is required.",
	ErrSpreadsheetRequired: "An .xlsx file upload is required.",
	ErrSpreadsheetInvalid:  "The spreadsheet could not be read.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "Internal server error.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
