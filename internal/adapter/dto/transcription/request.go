package transcription

// TranscribeRequest is the admission payload for POST /v1/calls/:id/transcribe
type TranscribeRequest struct {
	Language          string `json:"language,omitempty" validate:"omitempty,max=10"`
	Prompt            string `json:"prompt,omitempty" validate:"omitempty,max=2000"`
	ForceRetranscribe bool   `json:"force_retranscribe,omitempty"`
}
