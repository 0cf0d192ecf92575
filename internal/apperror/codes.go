package apperror

// Code represents a unique error code for the SDK
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Trading SDK error codes
const (
	// Backend API errors
	CodeAPIConnectionFailed Code = "API_CONNECTION_FAILED"
	CodeAPIError            Code = "API_ERROR"
	CodeAPIUnauthorized     Code = "API_UNAUTHORIZED"
	CodeInvalidResponse     Code = "INVALID_RESPONSE"

	// Authentication errors
	CodeAuthChallengeFailed Code = "AUTH_CHALLENGE_FAILED"
	CodeAuthLoginFailed     Code = "AUTH_LOGIN_FAILED"
	CodeSigningFailed       Code = "SIGNING_FAILED"
	CodeInvalidWallet       Code = "INVALID_WALLET"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Market data errors
	CodeMarketNotFound       Code = "MARKET_NOT_FOUND"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook     Code = "INVALID_ORDERBOOK"
	CodeAmmStateFetchFailed  Code = "AMM_STATE_FETCH_FAILED"
	CodeInvalidAmmState      Code = "INVALID_AMM_STATE"
	CodeFeeRatesFetchFailed  Code = "FEE_RATES_FETCH_FAILED"
	CodeSnapshotStale        Code = "SNAPSHOT_STALE"

	// Quote errors
	CodeInsufficientLiquidity   Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidFeeConfiguration Code = "INVALID_FEE_CONFIGURATION"
	CodeAmmStateMismatch        Code = "AMM_STATE_MISMATCH"
	CodeUnsupportedMarketType   Code = "UNSUPPORTED_MARKET_TYPE"
	CodeInvalidTradeSize        Code = "INVALID_TRADE_SIZE"
	CodeCurveGraduated          Code = "CURVE_GRADUATED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
