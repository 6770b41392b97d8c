package entities

import "errors"

// Domain errors
var (
	// Call / access errors
	ErrCallNotFound       = errors.New("call not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrStorageUnavailable = errors.New("recording storage unavailable")

	// Job errors
	ErrJobNotFound          = errors.New("transcription job not found")
	ErrTranscriptConflict   = errors.New("transcript already completed or in progress")
	ErrNoActiveJob          = errors.New("no active transcription job for call")
	ErrPersistenceFailed    = errors.New("persistence failed")
	ErrJobTimeout           = errors.New("transcription job timed out")
	ErrJobCancelled         = errors.New("transcription job cancelled")
	ErrTranscriptionFailure = errors.New("transcription failed")
)
