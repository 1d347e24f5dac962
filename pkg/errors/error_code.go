package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTimeframe     ErrorCode = 102
	ErrCodeInvalidDate          ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidProvider      ErrorCode = 105
	ErrCodeInvalidWriter        ErrorCode = 106

	// Symbol list errors (200-299)
	ErrCodeNoSymbols         ErrorCode = 200
	ErrCodeSymbolsFileFailed ErrorCode = 201

	// Market data errors (300-399)
	ErrCodeBarsFetchFailed     ErrorCode = 300
	ErrCodeSnapshotFetchFailed ErrorCode = 301
	ErrCodeBarsWriteFailed     ErrorCode = 302
	ErrCodeSnapshotUnsupported ErrorCode = 303

	// Activity errors (400-499)
	ErrCodeActivityFetchFailed ErrorCode = 400
	ErrCodeActivityParseFailed ErrorCode = 401

	// Reconstruction errors (500-599)
	ErrCodeMalformedEvent ErrorCode = 500

	// Report errors (600-699)
	ErrCodeReportWriteFailed ErrorCode = 600
)
