package ai

import (
	"context"

	"go.uber.org/zap"
)

// Facade runs the primary provider first and falls back to the
// secondary only on retryable failures. Non-retryable failures (bad
// audio, auth) surface immediately: the fallback would fail the same way.
type Facade struct {
	primary         Provider
	secondary       Provider
	fallbackEnabled bool
	logger          *zap.Logger
}

// NewFacade creates a provider facade. secondary may be nil when no
// fallback is configured.
func NewFacade(primary, secondary Provider, fallbackEnabled bool, logger *zap.Logger) *Facade {
	return &Facade{
		primary:         primary,
		secondary:       secondary,
		fallbackEnabled: fallbackEnabled,
		logger:          logger,
	}
}

func (f *Facade) Name() string {
	return "facade"
}

// Transcribe tries the primary provider and, when allowed, the
// secondary with the exact same options. If the fallback also fails,
// the primary's error is returned: it describes the first failure.
func (f *Facade) Transcribe(ctx context.Context, audioURL string, opts TranscribeOptions) (*TranscribeResult, error) {
	result, primaryErr := f.primary.Transcribe(ctx, audioURL, opts)
	if primaryErr == nil {
		return result, nil
	}

	if !f.fallbackEnabled || f.secondary == nil || !IsRetryable(primaryErr) {
		return nil, primaryErr
	}

	f.logger.Warn("⚠️ Primary transcription provider failed, falling back",
		zap.String("primary", f.primary.Name()),
		zap.String("secondary", f.secondary.Name()),
		zap.Error(primaryErr))

	result, secondaryErr := f.secondary.Transcribe(ctx, audioURL, opts)
	if secondaryErr != nil {
		f.logger.Error("❌ Fallback transcription provider failed",
			zap.String("secondary", f.secondary.Name()),
			zap.Error(secondaryErr))
		return nil, primaryErr
	}
	return result, nil
}
