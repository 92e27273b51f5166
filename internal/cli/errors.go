// Package cli implements the command-line interface.
package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Query errors
	ErrQueryInvalid = "QUERY_INVALID"
	ErrNoClient     = "NO_CLIENT"

	// Archive errors
	ErrSearchFailed = "SEARCH_FAILED"
	ErrFetchFailed  = "FETCH_FAILED"

	// Ledger errors
	ErrLedger = "LEDGER_ERROR"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// Docs errors
	ErrTopicNotFound = "TOPIC_NOT_FOUND"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnBranchFailed   = "BRANCH_FAILED"
	WarnNoClient       = "NO_CLIENT"
	WarnNoURL          = "NO_FILE_URL"
	WarnDownloadFailed = "DOWNLOAD_FAILED"
)
