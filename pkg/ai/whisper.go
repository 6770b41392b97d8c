package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/callscopehq/callscope/pkg/config"
)

// WhisperClient transcribes audio through an OpenAI-compatible
// transcription endpoint (Groq-hosted Whisper in production).
type WhisperClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewWhisperClient creates a Whisper client using values from the provided config.
func NewWhisperClient(cfg *config.WhisperConfig) *WhisperClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &WhisperClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (w *WhisperClient) Name() string {
	return "whisper"
}

// verboseTranscription is the verbose_json response shape
type verboseTranscription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		Text       string  `json:"text"`
		AvgLogProb float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe downloads the audio and submits it to the transcription
// endpoint, retrying transient failures with exponential backoff.
func (w *WhisperClient) Transcribe(ctx context.Context, audioURL string, opts TranscribeOptions) (*TranscribeResult, error) {
	audio, err := w.downloadAudio(ctx, audioURL)
	if err != nil {
		return nil, &ProviderError{Provider: w.Name(), Retryable: true, Raw: err}
	}

	var result *TranscribeResult
	operation := func() error {
		var attemptErr error
		result, attemptErr = w.submit(ctx, audio, opts)
		if attemptErr != nil && !IsRetryable(attemptErr) {
			return backoff.Permanent(attemptErr)
		}
		return attemptErr
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *WhisperClient) downloadAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("recording download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (w *WhisperClient) submit(ctx context.Context, audio []byte, opts TranscribeOptions) (*TranscribeResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "recording.mp3")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}

	_ = mw.WriteField("model", w.model)
	_ = mw.WriteField("response_format", "verbose_json")
	_ = mw.WriteField("timestamp_granularities[]", "segment")
	if opts.Language != "" {
		_ = mw.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		_ = mw.WriteField("prompt", opts.Prompt)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint := w.baseURL + "/openai/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: w.Name(), Retryable: true, Raw: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &ProviderError{
			Provider:   w.Name(),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
			Raw:        fmt.Errorf("transcription returned status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var vt verboseTranscription
	if err := json.NewDecoder(resp.Body).Decode(&vt); err != nil {
		return nil, &ProviderError{Provider: w.Name(), Retryable: false, Raw: err}
	}

	segments := make([]TranscriptSegment, 0, len(vt.Segments))
	for _, s := range vt.Segments {
		segments = append(segments, TranscriptSegment{
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			AvgLogProb: s.AvgLogProb,
		})
	}

	return &TranscribeResult{
		Text:       vt.Text,
		Language:   vt.Language,
		Segments:   segments,
		Confidence: ConfidenceFromSegments(segments),
		Provider:   w.Name(),
	}, nil
}
