package transcription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
	"github.com/callscopehq/callscope/internal/infrastructure/cache"
	"github.com/callscopehq/callscope/internal/usecase/embedding"
	"github.com/callscopehq/callscope/pkg/ai"
	"github.com/callscopehq/callscope/pkg/config"
	"github.com/callscopehq/callscope/pkg/jobcontext"
)

// Admission placeholder texts for calls that cannot be transcribed.
const (
	MsgNoRecording  = "No recording available for this call."
	MsgCallTooShort = "Call too short to transcribe."
)

// AccessGateway authorizes callers and resolves recording URLs.
type AccessGateway interface {
	Authorize(ctx context.Context, userID, callID uuid.UUID) (*entities.Call, error)
	ResolveAudio(ctx context.Context, userID, callID uuid.UUID) (*entities.Call, string, error)
}

// Translator turns transcript text into English.
type Translator interface {
	TranslateToEnglish(ctx context.Context, text string) (string, error)
}

// Corrector applies user correction rules to transcript text.
type Corrector interface {
	Apply(ctx context.Context, ownerID uuid.UUID, text string) (string, error)
}

// Embedder computes or fetches transcript embeddings.
type Embedder interface {
	GetOrCompute(ctx context.Context, callID, ownerID uuid.UUID, text, kind string) (*embedding.Result, error)
}

// ProgressStore publishes transient per-call progress for polling.
type ProgressStore interface {
	Set(ctx context.Context, callID uuid.UUID, stage string, progress int) error
	Get(ctx context.Context, callID uuid.UUID) (*cache.Progress, error)
	Clear(ctx context.Context, callID uuid.UUID) error
}

// StartRequest carries the caller's transcription options.
type StartRequest struct {
	Language          string
	Prompt            string
	ForceRetranscribe bool
}

// StartResult is the admission outcome.
type StartResult struct {
	Job     *entities.TranscriptionJob
	Message string
}

// StatusResult is the polling snapshot for a call's transcription.
type StatusResult struct {
	Status       entities.TranscriptionJobStatus
	Stage        string
	Progress     int
	ErrorMessage string
}

// Service orchestrates the transcription pipeline: admission, the
// background worker pool, progress, and cancellation.
type Service struct {
	jobRepo        repositories.TranscriptionJobRepository
	transcriptRepo repositories.TranscriptRepository
	gateway        AccessGateway
	transcriber    ai.Provider
	translator     Translator
	corrector      Corrector
	embedder       Embedder
	progress       ProgressStore
	cfg            config.PipelineConfig
	logger         *zap.Logger

	// Per-call cancel funcs for in-flight attempts.
	cancelMu    sync.Mutex
	cancelFuncs map[uuid.UUID]context.CancelFunc

	// Worker pool state
	jobSemaphore        chan struct{}
	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	workerMutex         sync.Mutex
	isWorkerPoolRunning bool
}

// NewService creates the transcription orchestrator.
func NewService(
	jobRepo repositories.TranscriptionJobRepository,
	transcriptRepo repositories.TranscriptRepository,
	gateway AccessGateway,
	transcriber ai.Provider,
	translator Translator,
	corrector Corrector,
	embedder Embedder,
	progress ProgressStore,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *Service {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		jobRepo:        jobRepo,
		transcriptRepo: transcriptRepo,
		gateway:        gateway,
		transcriber:    transcriber,
		translator:     translator,
		corrector:      corrector,
		embedder:       embedder,
		progress:       progress,
		cfg:            cfg,
		logger:         logger,
		cancelFuncs:    make(map[uuid.UUID]context.CancelFunc),
		jobSemaphore:   make(chan struct{}, maxConcurrent),
		workerStopChan: make(chan struct{}),
	}
}

// StartTranscription admits a transcription request for a call. Calls
// that cannot produce provider work (no recording, too short) complete
// immediately with a placeholder transcript. An active or completed
// transcription blocks re-admission unless force_retranscribe is set.
func (s *Service) StartTranscription(ctx context.Context, userID, callID uuid.UUID, req StartRequest) (*StartResult, error) {
	call, err := s.gateway.Authorize(ctx, userID, callID)
	if err != nil {
		return nil, err
	}

	if !call.HasRecording() {
		return s.completeWithPlaceholder(ctx, call, req, MsgNoRecording)
	}
	if call.DurationSeconds < s.cfg.MinCallSeconds {
		return s.completeWithPlaceholder(ctx, call, req, MsgCallTooShort)
	}

	active, err := s.jobRepo.GetActiveByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}

	if !req.ForceRetranscribe {
		if active != nil {
			return nil, entities.ErrTranscriptConflict
		}
		existing, err := s.transcriptRepo.GetByCallID(ctx, callID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Status == entities.TranscriptStatusCompleted {
			return nil, entities.ErrTranscriptConflict
		}
	} else if active != nil {
		// Best-effort takeover: stop the running attempt and supersede
		// it. The new result wins via last-write upsert either way.
		s.cancelInFlight(callID)
		if err := s.jobRepo.MarkCancelled(ctx, active.ID); err != nil {
			s.logger.Warn("⚠️ Failed to cancel superseded job",
				zap.String("job_id", active.ID.String()),
				zap.Error(err))
		}
	}

	job := entities.NewTranscriptionJob(call, entities.JobMetadata{
		Language:          req.Language,
		Prompt:            req.Prompt,
		ForceRetranscribe: req.ForceRetranscribe,
	})
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("🎙️ Transcription job admitted",
		zap.String("job_id", job.ID.String()),
		zap.String("call_id", callID.String()),
		zap.String("language_hint", req.Language),
		zap.Bool("force", req.ForceRetranscribe))

	// Dispatch immediately; the pending-job worker is the safety net
	// for jobs admitted while no dispatcher was alive.
	go s.runJob(job.ID)

	return &StartResult{Job: job, Message: "Transcription started"}, nil
}

// completeWithPlaceholder records a terminal job plus a completed
// placeholder transcript without calling any provider.
func (s *Service) completeWithPlaceholder(ctx context.Context, call *entities.Call, req StartRequest, message string) (*StartResult, error) {
	job := entities.NewTranscriptionJob(call, entities.JobMetadata{
		Language:          req.Language,
		Prompt:            req.Prompt,
		ForceRetranscribe: req.ForceRetranscribe,
	})
	job.MarkAsCompleted()
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	transcript := entities.NewTranscript(call.ID, call.OwnerID)
	transcript.Status = entities.TranscriptStatusCompleted
	transcript.CorrectedText = message
	transcript.DisplayText = message
	transcript.ConfidenceScore = 0
	if err := s.transcriptRepo.Upsert(ctx, transcript); err != nil {
		return nil, err
	}

	s.logger.Info("ℹ️ Call not transcribable, recorded placeholder",
		zap.String("call_id", call.ID.String()),
		zap.String("reason", message))
	return &StartResult{Job: job, Message: message}, nil
}

// GetStatus returns the transcription status for a call. Live progress
// comes from Redis while the job is running.
func (s *Service) GetStatus(ctx context.Context, userID, callID uuid.UUID) (*StatusResult, error) {
	if _, err := s.gateway.Authorize(ctx, userID, callID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetLatestByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, entities.ErrJobNotFound
	}

	result := &StatusResult{Status: job.Status}
	if job.ErrorMessage != nil {
		result.ErrorMessage = *job.ErrorMessage
	}

	switch job.Status {
	case entities.JobStatusCompleted:
		result.Stage = StageCompleted
		result.Progress = 100
	case entities.JobStatusPending, entities.JobStatusProcessing:
		if snapshot, err := s.progress.Get(ctx, callID); err == nil && snapshot != nil {
			result.Stage = snapshot.Stage
			result.Progress = snapshot.Progress
		}
	}
	return result, nil
}

// Cancel stops the active transcription for a call. The in-flight
// attempt, if any, is interrupted via its context.
func (s *Service) Cancel(ctx context.Context, userID, callID uuid.UUID) (*entities.TranscriptionJob, error) {
	if _, err := s.gateway.Authorize(ctx, userID, callID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetActiveByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, entities.ErrNoActiveJob
	}

	s.cancelInFlight(callID)
	if err := s.jobRepo.MarkCancelled(ctx, job.ID); err != nil {
		return nil, err
	}
	if err := s.progress.Clear(ctx, callID); err != nil {
		s.logger.Debug("Progress clear failed", zap.Error(err))
	}

	job.MarkAsCancelled()
	s.logger.Info("🛑 Transcription job cancelled",
		zap.String("job_id", job.ID.String()),
		zap.String("call_id", callID.String()))
	return job, nil
}

// runJob claims and executes one job end to end. Safe to call from
// multiple dispatchers; the atomic claim makes duplicates no-ops.
func (s *Service) runJob(jobID uuid.UUID) {
	claimed, err := s.jobRepo.ClaimPending(context.Background(), jobID)
	if err != nil {
		s.logger.Error("❌ Failed to claim job",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	job, err := s.jobRepo.GetByID(context.Background(), jobID)
	if err != nil || job == nil {
		s.logger.Error("❌ Claimed job vanished",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return
	}

	// Bounded concurrency across the whole process.
	s.jobSemaphore <- struct{}{}
	defer func() { <-s.jobSemaphore }()

	ctx, cancel := jobcontext.JobBegin(context.Background(), job.ID, "transcription", 0, s.cfg.JobTimeout)
	s.registerCancel(job.CallID, cancel)
	defer s.unregisterCancel(job.CallID)
	defer cancel()

	attemptErr := s.executeAttempt(ctx, job)
	if attemptErr == nil {
		if err := s.jobRepo.MarkCompleted(context.Background(), job.ID); err != nil {
			s.logger.Error("❌ Failed to mark job completed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		return
	}

	s.handleAttemptFailure(job, attemptErr, ctx.Err())
}

// handleAttemptFailure routes a failed attempt: cancelled jobs stay
// cancelled, timeouts burn exactly one retry without requeueing, and
// retryable errors requeue while budget remains.
func (s *Service) handleAttemptFailure(job *entities.TranscriptionJob, attemptErr, ctxErr error) {
	ctx := context.Background()

	// Cancel() already transitioned the row; don't fight it.
	if errors.Is(ctxErr, context.Canceled) {
		s.logger.Info("🛑 Attempt interrupted by cancellation",
			zap.String("job_id", job.ID.String()))
		return
	}

	stage := ""
	var se *stageError
	if errors.As(attemptErr, &se) {
		stage = se.stage
	}
	if stage != "" {
		meta := job.Metadata
		meta.FailedStage = stage
		if err := s.jobRepo.UpdateMetadata(ctx, job.ID, meta); err != nil {
			s.logger.Debug("Failed to record failed stage", zap.Error(err))
		}
	}

	if errors.Is(ctxErr, context.DeadlineExceeded) {
		msg := fmt.Sprintf("timeout after %s: %v", s.cfg.JobTimeout, attemptErr)
		if err := s.jobRepo.MarkFailed(ctx, job.ID, msg, true); err != nil {
			s.logger.Error("❌ Failed to mark timed-out job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		s.recordFailedTranscript(ctx, job, msg)
		s.logger.Warn("⏱️ Job timed out",
			zap.String("job_id", job.ID.String()),
			zap.String("stage", stage))
		return
	}

	retryable := ai.IsRetryable(attemptErr) || jobcontext.IsRetryableError(attemptErr) ||
		errors.Is(attemptErr, entities.ErrStorageUnavailable)

	if retryable && job.RetryCount+1 < job.MaxRetries {
		if err := s.jobRepo.Requeue(ctx, job.ID); err != nil {
			s.logger.Error("❌ Failed to requeue job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
			return
		}
		s.logger.Warn("🔁 Job requeued after retryable failure",
			zap.String("job_id", job.ID.String()),
			zap.String("stage", stage),
			zap.Int("retry_count", job.RetryCount+1),
			zap.Error(attemptErr))
		return
	}

	if err := s.jobRepo.MarkFailed(ctx, job.ID, attemptErr.Error(), true); err != nil {
		s.logger.Error("❌ Failed to mark job failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
	s.recordFailedTranscript(ctx, job, attemptErr.Error())
	s.logger.Error("❌ Job failed terminally",
		zap.String("job_id", job.ID.String()),
		zap.String("stage", stage),
		zap.Error(attemptErr))
}

// recordFailedTranscript mirrors a terminal job failure onto the
// transcript row so readers see the outcome without joining jobs.
func (s *Service) recordFailedTranscript(ctx context.Context, job *entities.TranscriptionJob, errMsg string) {
	transcript := entities.NewTranscript(job.CallID, job.OwnerID)
	transcript.Status = entities.TranscriptStatusFailed
	transcript.ErrorMessage = errMsg
	if err := s.transcriptRepo.Upsert(ctx, transcript); err != nil {
		s.logger.Error("❌ Failed to record failed transcript",
			zap.String("call_id", job.CallID.String()),
			zap.Error(err))
	}
}

func (s *Service) registerCancel(callID uuid.UUID, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	s.cancelFuncs[callID] = cancel
}

func (s *Service) unregisterCancel(callID uuid.UUID) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	delete(s.cancelFuncs, callID)
}

func (s *Service) cancelInFlight(callID uuid.UUID) {
	s.cancelMu.Lock()
	cancel, ok := s.cancelFuncs[callID]
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// StartWorkerPool starts the pending-job dispatcher and the zombie
// cleanup routine.
func (s *Service) StartWorkerPool(ctx context.Context) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	s.logger.Info("🚀 Starting transcription worker pool",
		zap.Int("workers", s.cfg.Workers),
		zap.Int("max_concurrent", s.cfg.MaxConcurrent))

	for i := 0; i < s.cfg.Workers; i++ {
		s.workerWg.Add(1)
		go s.pendingJobWorker(ctx, i)
	}

	s.workerWg.Add(1)
	go s.cleanupZombieJobs(ctx)

	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *Service) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	s.logger.Info("🛑 Stopping transcription worker pool...")
	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false
	s.logger.Info("✅ Transcription worker pool stopped")

	return nil
}

// pendingJobWorker polls for pending jobs and executes them. It is the
// recovery path for jobs whose admission-time dispatch was lost.
func (s *Service) pendingJobWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-s.workerStopChan:
			s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			jobs, err := s.jobRepo.ListByStatus(parentCtx, entities.JobStatusPending, 5)
			if err != nil {
				s.logger.Error("❌ Failed to poll pending jobs",
					zap.Int("worker_id", workerID),
					zap.Error(err))
				continue
			}
			for _, job := range jobs {
				s.runJob(job.ID)
			}
		}
	}
}

// cleanupZombieJobs rescues jobs stuck in processing after a worker
// crash or deploy.
func (s *Service) cleanupZombieJobs(parentCtx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			n, err := s.jobRepo.ResetStuck(parentCtx, int(s.cfg.ZombieAfter.Seconds()))
			if err != nil {
				s.logger.Error("❌ Zombie cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Warn("🧹 Rescued stuck transcription jobs", zap.Int64("count", n))
			}
		}
	}
}
