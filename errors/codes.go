package errors

// ErrorCode identifies an application error category in API responses.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1002
	ErrorCode_NOT_FOUND        ErrorCode = 1003

	// Auth
	ErrorCode_UNAUTHENTICATED    ErrorCode = 2000
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001

	// Calls / access
	ErrorCode_CALL_NOT_FOUND     ErrorCode = 3000
	ErrorCode_CALL_ACCESS_DENIED ErrorCode = 3001

	// Transcription pipeline
	ErrorCode_TRANSCRIPTION_CONFLICT      ErrorCode = 4000
	ErrorCode_TRANSCRIPTION_JOB_NOT_FOUND ErrorCode = 4001
	ErrorCode_TRANSCRIPTION_FAILED        ErrorCode = 4002
	ErrorCode_PROVIDER_FAILED             ErrorCode = 4003
	ErrorCode_STORAGE_UNAVAILABLE         ErrorCode = 4004
	ErrorCode_JOB_TIMEOUT                 ErrorCode = 4005
	ErrorCode_PERSISTENCE_FAILED          ErrorCode = 4006
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                     "OK",
	ErrorCode_INTERNAL:                    "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:             "INVALID_PAYLOAD",
	ErrorCode_NOT_FOUND:                   "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:             "UNAUTHENTICATED",
	ErrorCode_AUTH_INVALID_TOKEN:          "AUTH_INVALID_TOKEN",
	ErrorCode_CALL_NOT_FOUND:              "CALL_NOT_FOUND",
	ErrorCode_CALL_ACCESS_DENIED:          "CALL_ACCESS_DENIED",
	ErrorCode_TRANSCRIPTION_CONFLICT:      "TRANSCRIPTION_CONFLICT",
	ErrorCode_TRANSCRIPTION_JOB_NOT_FOUND: "TRANSCRIPTION_JOB_NOT_FOUND",
	ErrorCode_TRANSCRIPTION_FAILED:        "TRANSCRIPTION_FAILED",
	ErrorCode_PROVIDER_FAILED:             "PROVIDER_FAILED",
	ErrorCode_STORAGE_UNAVAILABLE:         "STORAGE_UNAVAILABLE",
	ErrorCode_JOB_TIMEOUT:                 "JOB_TIMEOUT",
	ErrorCode_PERSISTENCE_FAILED:          "PERSISTENCE_FAILED",
}

// String returns the stable name used in logs and responses.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
