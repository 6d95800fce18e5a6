package handler

// Machine-readable error codes returned in the {error, code} envelope.
// The frontend matches on these to render specific messages.
const (
	codeMissingEmail     = "MISSING_EMAIL"
	codeInvalidDomain    = "INVALID_EMAIL_DOMAIN"
	codeDuplicateEmail   = "DUPLICATE_EMAIL"
	codeStoreUnavailable = "STORE_UNAVAILABLE"
	codeInternalError    = "INTERNAL_ERROR"
)

const (
	errMissingEmail     = "Email is required"
	errInvalidDomain    = "Only institutional emails are allowed"
	errDuplicateEmail   = "Email already subscribed"
	errStoreUnavailable = "Database connection failed. Please try again later."
	errInternalServer   = "Internal server error"
)
