package ai

import (
	"context"
	"fmt"
	"math"
)

// TranscribeOptions carries per-attempt hints. The facade passes the
// exact same options to the fallback provider that the primary saw.
type TranscribeOptions struct {
	Language string // ISO-639-1 hint, empty = provider auto-detect
	Prompt   string // steering prompt, providers that cannot use it ignore it
}

// TranscriptSegment is a timestamped slice of provider output.
type TranscriptSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogProb float64 `json:"avg_logprob,omitempty"`
}

// TranscribeResult is the normalized provider output.
type TranscribeResult struct {
	Text       string
	Language   string // what the provider believes it transcribed
	Segments   []TranscriptSegment
	Confidence float64 // [0,1]
	Provider   string
}

// Provider transcribes a downloadable audio URL.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioURL string, opts TranscribeOptions) (*TranscribeResult, error)
}

// ProviderError wraps a provider failure with enough information for
// the facade to decide whether falling back makes sense.
type ProviderError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Raw        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Raw)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Raw)
}

func (e *ProviderError) Unwrap() error {
	return e.Raw
}

// IsRetryable reports whether err is a provider failure worth retrying
// or falling back on. Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*ProviderError); ok {
		return pe.Retryable
	}
	return false
}

// retryableStatus classifies HTTP status codes from provider APIs.
func retryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// ConfidenceFromSegments derives a [0,1] confidence from Whisper-style
// average log probabilities: the mean of exp(avg_logprob) over all
// segments. Returns 0.5 when no segments carry probabilities.
func ConfidenceFromSegments(segments []TranscriptSegment) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range segments {
		sum += math.Exp(s.AvgLogProb)
	}
	confidence := sum / float64(len(segments))
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
