package ai

import (
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/callscopehq/callscope/pkg/config"
)

// AssemblyAIClient is the fallback transcription provider, wrapping
// the official SDK's synchronous transcribe-from-URL flow.
type AssemblyAIClient struct {
	client *aai.Client
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
func NewAssemblyAIClient(cfg *config.AssemblyConfig) *AssemblyAIClient {
	return &AssemblyAIClient{
		client: aai.NewClient(cfg.APIKey),
	}
}

func (c *AssemblyAIClient) Name() string {
	return "assemblyai"
}

// Transcribe submits the audio URL and polls until the transcript is
// ready. The steering prompt has no AssemblyAI equivalent and is ignored.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL string, opts TranscribeOptions) (*TranscribeResult, error) {
	params := &aai.TranscriptOptionalParams{}
	if opts.Language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(opts.Language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Retryable: true, Raw: err}
	}
	if transcript.Status == aai.TranscriptStatusError {
		return nil, &ProviderError{
			Provider:  c.Name(),
			Retryable: false,
			Raw:       fmt.Errorf("transcript failed: %s", aai.ToString(transcript.Error)),
		}
	}

	text := aai.ToString(transcript.Text)
	result := &TranscribeResult{
		Text:       text,
		Language:   string(transcript.LanguageCode),
		Confidence: aai.ToFloat64(transcript.Confidence),
		Provider:   c.Name(),
	}

	result.Segments = c.sentenceSegments(ctx, transcript)
	if len(result.Segments) == 0 && text != "" {
		result.Segments = []TranscriptSegment{{
			Start: 0,
			End:   aai.ToFloat64(transcript.AudioDuration),
			Text:  text,
		}}
	}
	return result, nil
}

// sentenceSegments fetches sentence timings, best effort. Timestamps
// come back in milliseconds and are converted to seconds.
func (c *AssemblyAIClient) sentenceSegments(ctx context.Context, transcript aai.Transcript) []TranscriptSegment {
	resp, err := c.client.Transcripts.GetSentences(ctx, aai.ToString(transcript.ID))
	if err != nil {
		return nil
	}

	segments := make([]TranscriptSegment, 0, len(resp.Sentences))
	for _, s := range resp.Sentences {
		segments = append(segments, TranscriptSegment{
			Start: float64(aai.ToInt64(s.Start)) / 1000,
			End:   float64(aai.ToInt64(s.End)) / 1000,
			Text:  aai.ToString(s.Text),
		})
	}
	return segments
}
