package transcription

// TranscribeResponse acknowledges an admitted transcription job
type TranscribeResponse struct {
	JobID   string `json:"job_id"`
	CallID  string `json:"call_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse is the polling snapshot for a call's transcription
type StatusResponse struct {
	Status       string `json:"status"`
	Stage        string `json:"stage,omitempty"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// CancelResponse acknowledges a cancelled transcription job
type CancelResponse struct {
	JobID  string `json:"job_id"`
	CallID string `json:"call_id"`
	Status string `json:"status"`
}
