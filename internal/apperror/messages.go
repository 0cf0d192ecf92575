package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Backend API errors
	CodeAPIConnectionFailed: "Failed to reach trading API",
	CodeAPIError:            "Trading API returned an error",
	CodeAPIUnauthorized:     "Trading API rejected the credentials",
	CodeInvalidResponse:     "Trading API returned an unexpected payload",

	// Authentication errors
	CodeAuthChallengeFailed: "Failed to obtain login challenge",
	CodeAuthLoginFailed:     "Login failed",
	CodeSigningFailed:       "Wallet failed to sign message",
	CodeInvalidWallet:       "Invalid wallet configuration",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Market data errors
	CodeMarketNotFound:       "Market not found",
	CodeOrderbookFetchFailed: "Failed to fetch orderbook",
	CodeInvalidOrderbook:     "Invalid orderbook data",
	CodeAmmStateFetchFailed:  "Failed to fetch AMM state",
	CodeInvalidAmmState:      "Invalid AMM state data",
	CodeFeeRatesFetchFailed:  "Failed to fetch fee rates",
	CodeSnapshotStale:        "Market snapshot is stale",

	// Quote errors
	CodeInsufficientLiquidity:   "Insufficient liquidity for trade size",
	CodeInvalidFeeConfiguration: "Fee rate must be below 100%",
	CodeAmmStateMismatch:        "AMM state does not match market type",
	CodeUnsupportedMarketType:   "Unsupported market type",
	CodeInvalidTradeSize:        "Invalid trade size",
	CodeCurveGraduated:          "Bonding curve has graduated",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
