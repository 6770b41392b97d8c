package transcription

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/infrastructure/cache"
	"github.com/callscopehq/callscope/internal/usecase/embedding"
	"github.com/callscopehq/callscope/pkg/ai"
	"github.com/callscopehq/callscope/pkg/config"
)

// --- fakes ---

type fakeJobRepo struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*entities.TranscriptionJob
	requeued   []uuid.UUID
	failures   []string
	increments int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*entities.TranscriptionJob)}
}

func (f *fakeJobRepo) Create(_ context.Context, job *entities.TranscriptionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) GetActiveByCallID(_ context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.CallID == callID && job.IsActive() {
			copied := *job
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) GetLatestByCallID(_ context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entities.TranscriptionJob
	for _, job := range f.jobs {
		if job.CallID != callID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeJobRepo) ListByStatus(_ context.Context, status entities.TranscriptionJobStatus, _ int) ([]*entities.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.TranscriptionJob
	for _, job := range f.jobs {
		if job.Status == status {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ClaimPending(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.Status != entities.JobStatusPending {
		return false, nil
	}
	job.MarkAsProcessing()
	return true, nil
}

func (f *fakeJobRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.MarkAsCompleted()
	}
	return nil
}

func (f *fakeJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, incrementRetry bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.MarkAsFailed(errMsg)
		if incrementRetry {
			job.RetryCount++
			f.increments++
		}
	}
	f.failures = append(f.failures, errMsg)
	return nil
}

func (f *fakeJobRepo) MarkCancelled(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.MarkAsCancelled()
	}
	return nil
}

func (f *fakeJobRepo) Requeue(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.Status = entities.JobStatusPending
		job.RetryCount++
	}
	f.requeued = append(f.requeued, id)
	return nil
}

func (f *fakeJobRepo) UpdateMetadata(_ context.Context, id uuid.UUID, meta entities.JobMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		job.Metadata = meta
	}
	return nil
}

func (f *fakeJobRepo) ResetStuck(_ context.Context, _ int) (int64, error) {
	return 0, nil
}

func (f *fakeJobRepo) get(id uuid.UUID) *entities.TranscriptionJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[id]
	if job == nil {
		return nil
	}
	copied := *job
	return &copied
}

type fakeTranscriptRepo struct {
	mu      sync.Mutex
	byCall  map[uuid.UUID]*entities.Transcript
	upserts int
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{byCall: make(map[uuid.UUID]*entities.Transcript)}
}

func (f *fakeTranscriptRepo) GetByCallID(_ context.Context, callID uuid.UUID) (*entities.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byCall[callID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTranscriptRepo) Upsert(_ context.Context, t *entities.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *t
	f.byCall[t.CallID] = &copied
	f.upserts++
	return nil
}

func (f *fakeTranscriptRepo) get(callID uuid.UUID) *entities.Transcript {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.byCall[callID]
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

type fakeGateway struct {
	calls map[uuid.UUID]*entities.Call
	url   string
}

func (f *fakeGateway) Authorize(_ context.Context, userID, callID uuid.UUID) (*entities.Call, error) {
	call, ok := f.calls[callID]
	if !ok {
		return nil, entities.ErrCallNotFound
	}
	if call.OwnerID != userID {
		return nil, entities.ErrAccessDenied
	}
	return call, nil
}

func (f *fakeGateway) ResolveAudio(ctx context.Context, userID, callID uuid.UUID) (*entities.Call, string, error) {
	call, err := f.Authorize(ctx, userID, callID)
	if err != nil {
		return nil, "", err
	}
	if !call.HasRecording() {
		return call, "", nil
	}
	return call, f.url, nil
}

// fakeProvider returns scripted results/errors per call, in order.
type fakeProvider struct {
	mu      sync.Mutex
	results []*ai.TranscribeResult
	errs    []error
	opts    []ai.TranscribeOptions
	block   bool // block until context is done, then return ctx.Err()
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Transcribe(ctx context.Context, _ string, opts ai.TranscribeOptions) (*ai.TranscribeResult, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	idx := len(f.opts) - 1
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return &ai.TranscribeResult{Text: "default", Language: "en", Confidence: 0.9}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opts)
}

type fakeTranslator struct {
	out string
	err error
}

func (f *fakeTranslator) TranslateToEnglish(_ context.Context, _ string) (string, error) {
	return f.out, f.err
}

type passthroughCorrector struct{}

func (passthroughCorrector) Apply(_ context.Context, _ uuid.UUID, text string) (string, error) {
	return text, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) GetOrCompute(_ context.Context, _, _ uuid.UUID, _ string, _ string) (*embedding.Result, error) {
	return &embedding.Result{Vector: []float32{0}, Cached: false}, nil
}

type fakeProgress struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]cache.Progress
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{snapshots: make(map[uuid.UUID]cache.Progress)}
}

func (f *fakeProgress) Set(_ context.Context, callID uuid.UUID, stage string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[callID] = cache.Progress{Stage: stage, Progress: progress}
	return nil
}

func (f *fakeProgress) Get(_ context.Context, callID uuid.UUID) (*cache.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.snapshots[callID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProgress) Clear(_ context.Context, callID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, callID)
	return nil
}

// --- harness ---

type harness struct {
	svc            *Service
	jobRepo        *fakeJobRepo
	transcriptRepo *fakeTranscriptRepo
	provider       *fakeProvider
	translator     *fakeTranslator
	progress       *fakeProgress
	call           *entities.Call
	owner          uuid.UUID
}

func newHarness(call *entities.Call, provider *fakeProvider, translator *fakeTranslator) *harness {
	return newHarnessWithTimeout(call, provider, translator, time.Minute)
}

func newHarnessWithTimeout(call *entities.Call, provider *fakeProvider, translator *fakeTranslator, timeout time.Duration) *harness {
	jobRepo := newFakeJobRepo()
	transcriptRepo := newFakeTranscriptRepo()
	progress := newFakeProgress()
	gateway := &fakeGateway{
		calls: map[uuid.UUID]*entities.Call{call.ID: call},
		url:   "https://storage.local/recording.mp3",
	}
	if translator == nil {
		translator = &fakeTranslator{out: "translated"}
	}
	cfg := config.PipelineConfig{
		Workers:        1,
		MaxConcurrent:  2,
		JobTimeout:     timeout,
		PollInterval:   10 * time.Millisecond,
		ZombieAfter:    time.Minute,
		MinCallSeconds: 6,
	}
	svc := NewService(jobRepo, transcriptRepo, gateway, provider, translator,
		passthroughCorrector{}, fakeEmbedder{}, progress, cfg, zap.NewNop())
	return &harness{
		svc:            svc,
		jobRepo:        jobRepo,
		transcriptRepo: transcriptRepo,
		provider:       provider,
		translator:     translator,
		progress:       progress,
		call:           call,
		owner:          call.OwnerID,
	}
}

func testCall(duration int, direction entities.CallDirection) *entities.Call {
	return &entities.Call{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		RecordingObject: "recordings/test.mp3",
		Direction:       direction,
		DurationSeconds: duration,
	}
}

// startJob admits a job and waits for the dispatched run to finish.
func (h *harness) waitForTerminal(t *testing.T, jobID uuid.UUID) *entities.TranscriptionJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := h.jobRepo.get(jobID)
		if job != nil && job.Status != entities.JobStatusProcessing && job.Status != entities.JobStatusPending {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return nil
}

// --- tests ---

func TestStartTranscription_ShortCallPlaceholder(t *testing.T) {
	call := testCall(4, entities.CallDirectionInbound)
	provider := &fakeProvider{}
	h := newHarness(call, provider, nil)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != MsgCallTooShort {
		t.Fatalf("message %q, want %q", result.Message, MsgCallTooShort)
	}
	if result.Job.Status != entities.JobStatusCompleted {
		t.Fatalf("job status %s, want completed", result.Job.Status)
	}

	transcript := h.transcriptRepo.get(call.ID)
	if transcript == nil {
		t.Fatal("placeholder transcript not persisted")
	}
	if transcript.CorrectedText != MsgCallTooShort {
		t.Fatalf("transcript text %q", transcript.CorrectedText)
	}
	if transcript.ConfidenceScore != 0 {
		t.Fatalf("placeholder confidence %v, want 0", transcript.ConfidenceScore)
	}
	if provider.callCount() != 0 {
		t.Fatal("provider must not be called for short calls")
	}
}

func TestStartTranscription_NoRecordingPlaceholder(t *testing.T) {
	call := testCall(120, entities.CallDirectionInbound)
	call.RecordingObject = ""
	provider := &fakeProvider{}
	h := newHarness(call, provider, nil)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != MsgNoRecording {
		t.Fatalf("message %q, want %q", result.Message, MsgNoRecording)
	}
	if provider.callCount() != 0 {
		t.Fatal("provider must not be called without a recording")
	}
}

func TestStartTranscription_ConflictWithoutForce(t *testing.T) {
	call := testCall(120, entities.CallDirectionOutbound)
	provider := &fakeProvider{}
	h := newHarness(call, provider, nil)

	first, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.waitForTerminal(t, first.Job.ID)

	// A completed transcript now exists; re-admission needs force.
	_, err = h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if !errors.Is(err, entities.ErrTranscriptConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	forced, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{ForceRetranscribe: true})
	if err != nil {
		t.Fatalf("force should be admitted: %v", err)
	}
	if forced.Job.ID == first.Job.ID {
		t.Fatal("force must create a new job")
	}
	h.waitForTerminal(t, forced.Job.ID)
}

func TestStartTranscription_ConflictWhileJobActive(t *testing.T) {
	call := testCall(120, entities.CallDirectionOutbound)
	provider := &fakeProvider{block: true}
	h := newHarness(call, provider, nil)

	first, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait until the attempt is actually in flight.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if job := h.jobRepo.get(first.Job.ID); job != nil && job.Status == entities.JobStatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never started processing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err = h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if !errors.Is(err, entities.ErrTranscriptConflict) {
		t.Fatalf("expected conflict while a job is in flight, got %v", err)
	}

	// Release the blocked attempt.
	if _, err := h.svc.Cancel(context.Background(), h.owner, call.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
}

func TestStartTranscription_AccessDenied(t *testing.T) {
	call := testCall(120, entities.CallDirectionOutbound)
	h := newHarness(call, &fakeProvider{}, nil)

	_, err := h.svc.StartTranscription(context.Background(), uuid.New(), call.ID, StartRequest{})
	if !errors.Is(err, entities.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
}

func TestPipeline_SpanishMisdetectionRerunAndTranslate(t *testing.T) {
	call := testCall(180, entities.CallDirectionInbound)
	provider := &fakeProvider{
		results: []*ai.TranscribeResult{
			// First attempt: labeled English but full of Spanish markers.
			{Text: "gracias for calling, por favor hold", Language: "en", Confidence: 0.7},
			// Quality re-run detects Spanish.
			{Text: "gracias por llamar, por favor espere", Language: "es", Confidence: 0.92},
		},
	}
	translator := &fakeTranslator{out: "thank you for calling, please hold"}
	h := newHarness(call, provider, translator)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := h.waitForTerminal(t, result.Job.ID)
	if job.Status != entities.JobStatusCompleted {
		t.Fatalf("job status %s, want completed", job.Status)
	}

	if provider.callCount() != 2 {
		t.Fatalf("provider called %d times, want 2 (attempt + quality re-run)", provider.callCount())
	}
	// The re-run goes back to auto-detect with a steering prompt.
	rerunOpts := provider.opts[1]
	if rerunOpts.Language != "" {
		t.Fatalf("re-run must auto-detect, got language %q", rerunOpts.Language)
	}
	if rerunOpts.Prompt == provider.opts[0].Prompt {
		t.Fatal("re-run should use a different steering prompt")
	}

	transcript := h.transcriptRepo.get(call.ID)
	if transcript == nil {
		t.Fatal("transcript not persisted")
	}
	if !transcript.WasTranslated {
		t.Fatal("expected was_translated=true")
	}
	if transcript.OriginalLanguage != "es" {
		t.Fatalf("original_language %q, want es", transcript.OriginalLanguage)
	}
	if transcript.Language != "en" {
		t.Fatalf("language %q, want en", transcript.Language)
	}
	if transcript.CorrectedText != "thank you for calling, please hold" {
		t.Fatalf("corrected text %q", transcript.CorrectedText)
	}
	if transcript.RawText != "gracias por llamar, por favor espere" {
		t.Fatalf("raw text should be the re-run output, got %q", transcript.RawText)
	}
}

func TestPipeline_TranslationFailureKeepsOriginal(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	provider := &fakeProvider{
		results: []*ai.TranscribeResult{
			{Text: "hola, buenos días", Language: "es", Confidence: 0.9},
		},
	}
	translator := &fakeTranslator{err: errors.New("translator down")}
	h := newHarness(call, provider, translator)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := h.waitForTerminal(t, result.Job.ID)
	if job.Status != entities.JobStatusCompleted {
		t.Fatalf("translation failure must not fail the job, status %s", job.Status)
	}

	transcript := h.transcriptRepo.get(call.ID)
	if transcript.WasTranslated {
		t.Fatal("was_translated must be false after a failed translation")
	}
	if transcript.CorrectedText != "hola, buenos días" {
		t.Fatalf("corrected text %q", transcript.CorrectedText)
	}
	if transcript.Language != "es" {
		t.Fatalf("language %q, want es", transcript.Language)
	}
}

func TestRunJob_RetryableFailureRequeues(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	provider := &fakeProvider{
		errs: []error{&ai.ProviderError{Provider: "fake", StatusCode: 503, Retryable: true, Raw: errors.New("service unavailable")}},
	}
	h := newHarness(call, provider, nil)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := h.jobRepo.get(result.Job.ID)
		if job != nil && job.Status == entities.JobStatusPending && job.RetryCount == 1 {
			// A requeued job is not a terminal failure; no failed
			// transcript row may appear.
			if h.transcriptRepo.get(call.ID) != nil {
				t.Fatal("requeued job must not write a transcript")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("retryable failure should requeue with retry_count=1")
}

func TestRunJob_NonRetryableFailureIsTerminal(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	provider := &fakeProvider{
		errs: []error{&ai.ProviderError{Provider: "fake", StatusCode: 422, Retryable: false, Raw: errors.New("unprocessable audio")}},
	}
	h := newHarness(call, provider, nil)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := h.waitForTerminal(t, result.Job.ID)
	if job.Status != entities.JobStatusFailed {
		t.Fatalf("status %s, want failed", job.Status)
	}
	if job.RetryCount != 1 {
		t.Fatalf("retry_count %d, want 1", job.RetryCount)
	}
	if job.Metadata.FailedStage != StageTranscribe {
		t.Fatalf("failed stage %q, want %q", job.Metadata.FailedStage, StageTranscribe)
	}
	if len(h.jobRepo.requeued) != 0 {
		t.Fatal("non-retryable failure must not requeue")
	}

	transcript := h.transcriptRepo.get(call.ID)
	if transcript == nil {
		t.Fatal("terminal failure must upsert a failed transcript")
	}
	if transcript.Status != entities.TranscriptStatusFailed {
		t.Fatalf("transcript status %s, want failed", transcript.Status)
	}
	if !strings.Contains(transcript.ErrorMessage, "unprocessable audio") {
		t.Fatalf("transcript error message %q", transcript.ErrorMessage)
	}
}

func TestRunJob_TimeoutIncrementsRetryOnceWithoutRequeue(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	provider := &fakeProvider{block: true}
	h := newHarnessWithTimeout(call, provider, nil, 30*time.Millisecond)

	result, err := h.svc.StartTranscription(context.Background(), h.owner, call.ID, StartRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := h.waitForTerminal(t, result.Job.ID)
	if job.Status != entities.JobStatusFailed {
		t.Fatalf("status %s, want failed", job.Status)
	}
	if job.RetryCount != 1 {
		t.Fatalf("timeout must burn exactly one retry, got %d", job.RetryCount)
	}
	if job.ErrorMessage == nil || !strings.Contains(*job.ErrorMessage, "timeout") {
		t.Fatalf("error message should be timeout-tagged, got %v", job.ErrorMessage)
	}
	if len(h.jobRepo.requeued) != 0 {
		t.Fatal("timed-out jobs are not requeued")
	}

	transcript := h.transcriptRepo.get(call.ID)
	if transcript == nil || transcript.Status != entities.TranscriptStatusFailed {
		t.Fatalf("timeout must upsert a failed transcript, got %+v", transcript)
	}
	if !strings.Contains(transcript.ErrorMessage, "timeout") {
		t.Fatalf("transcript error message %q", transcript.ErrorMessage)
	}
}

func TestGetStatus_ProgressWhileProcessing(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	h := newHarness(call, &fakeProvider{}, nil)

	job := entities.NewTranscriptionJob(call, entities.JobMetadata{})
	job.MarkAsProcessing()
	if err := h.jobRepo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if err := h.progress.Set(context.Background(), call.ID, StageTranscribe, 25); err != nil {
		t.Fatal(err)
	}

	status, err := h.svc.GetStatus(context.Background(), h.owner, call.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != entities.JobStatusProcessing {
		t.Fatalf("status %s", status.Status)
	}
	if status.Stage != StageTranscribe || status.Progress != 25 {
		t.Fatalf("stage/progress %q/%d", status.Stage, status.Progress)
	}
}

func TestGetStatus_NoJob(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	h := newHarness(call, &fakeProvider{}, nil)

	_, err := h.svc.GetStatus(context.Background(), h.owner, call.ID)
	if !errors.Is(err, entities.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestCancel_ActiveJob(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	h := newHarness(call, &fakeProvider{}, nil)

	job := entities.NewTranscriptionJob(call, entities.JobMetadata{})
	if err := h.jobRepo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	cancelled, err := h.svc.Cancel(context.Background(), h.owner, call.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != entities.JobStatusCancelled {
		t.Fatalf("status %s, want cancelled", cancelled.Status)
	}

	stored := h.jobRepo.get(job.ID)
	if stored.Status != entities.JobStatusCancelled {
		t.Fatalf("stored status %s", stored.Status)
	}
}

func TestCancel_NoActiveJob(t *testing.T) {
	call := testCall(180, entities.CallDirectionOutbound)
	h := newHarness(call, &fakeProvider{}, nil)

	_, err := h.svc.Cancel(context.Background(), h.owner, call.ID)
	if !errors.Is(err, entities.ErrNoActiveJob) {
		t.Fatalf("expected ErrNoActiveJob, got %v", err)
	}
}
