package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPairSymbol    ErrorCode = 101
	ErrCodeTooManyPairs         ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103
	ErrCodeInvalidParameter     ErrorCode = 104
	ErrCodeInvalidDateRange     ErrorCode = 105

	// Pipeline construction errors (200-299)
	ErrCodeDependencyCycle     ErrorCode = 200
	ErrCodeMissingDependency   ErrorCode = 201
	ErrCodeEventCollision      ErrorCode = 202
	ErrCodeDuplicatePlugin     ErrorCode = 203
	ErrCodeUnknownService      ErrorCode = 204
	ErrCodeUnknownEvent        ErrorCode = 205
	ErrCodePluginConfigInvalid ErrorCode = 206
	ErrCodeVersionMismatch     ErrorCode = 207

	// Registry lookup errors (300-399)
	ErrCodeUnknownBroker    ErrorCode = 300
	ErrCodeUnknownStrategy  ErrorCode = 301
	ErrCodeUnknownIndicator ErrorCode = 302

	// Trading / ledger errors (400-499)
	ErrCodeBrokerLimitsUndefined ErrorCode = 400
	ErrCodeOrderOutOfLimits      ErrorCode = 401
	ErrCodeDuplicateTrade        ErrorCode = 402
	ErrCodeInsufficientBalance   ErrorCode = 403
	ErrCodeInvalidFill           ErrorCode = 404

	// Trigger errors (500-599)
	ErrCodeTriggerTerminal ErrorCode = 500
	ErrCodeUnknownTrigger  ErrorCode = 501

	// Indicator errors (600-699)
	ErrCodeIndicatorCalculation ErrorCode = 600

	// Storage errors (700-799)
	ErrCodeStorageUnavailable ErrorCode = 700
	ErrCodeQueryFailed        ErrorCode = 701

	// Run errors (800-899)
	ErrCodeRunAborted      ErrorCode = 800
	ErrCodePluginRuntime   ErrorCode = 801
	ErrCodeFinalizeFailure ErrorCode = 802
)
