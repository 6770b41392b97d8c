package transcription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/pkg/ai"
)

// Pipeline stage names, also published as progress labels.
const (
	StageFetch      = "fetch"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSave       = "save"
	StageCompleted  = "completed"
)

// stageError tags a pipeline failure with the stage it happened in, so
// the job record can say where an attempt died.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

func failStage(stage string, err error) *stageError {
	return &stageError{stage: stage, err: err}
}

// executeAttempt runs one full pipeline attempt for a claimed job.
// Steps are strictly sequential; the returned error, if any, is a
// *stageError naming where the attempt failed.
func (s *Service) executeAttempt(ctx context.Context, job *entities.TranscriptionJob) error {
	started := time.Now()
	meta := job.Metadata

	// Resolve the recording URL under the owner's authority; admission
	// already verified the caller.
	s.publish(ctx, job.CallID, StageFetch, 10)
	call, audioURL, err := s.gateway.ResolveAudio(ctx, job.OwnerID, job.CallID)
	if err != nil {
		return failStage(StageFetch, err)
	}
	if audioURL == "" {
		return failStage(StageFetch, entities.ErrStorageUnavailable)
	}

	hint := ChooseHint(call, meta.Language, meta.Prompt)

	s.publish(ctx, job.CallID, StageTranscribe, 25)
	result, err := s.transcriber.Transcribe(ctx, audioURL, ai.TranscribeOptions{
		Language: hint.Language,
		Prompt:   hint.Prompt,
	})
	if err != nil {
		return failStage(StageTranscribe, err)
	}

	// One post-hoc quality re-run when the first result smells wrong.
	// A failed re-run keeps the first result; a successful one replaces
	// it unconditionally.
	if NeedsQualityRerun(call, hint, result.Language, result.Text) {
		s.publish(ctx, job.CallID, StageTranscribe, 40)
		s.logger.Info("🔍 Quality re-run triggered",
			zap.String("call_id", job.CallID.String()),
			zap.String("detected_language", result.Language))

		rerun := RerunHint()
		second, rerunErr := s.transcriber.Transcribe(ctx, audioURL, ai.TranscribeOptions{
			Language: rerun.Language,
			Prompt:   rerun.Prompt,
		})
		if rerunErr != nil {
			s.logger.Warn("⚠️ Quality re-run failed, keeping first result",
				zap.String("call_id", job.CallID.String()),
				zap.Error(rerunErr))
		} else {
			result = second
		}
	}

	text := result.Text
	language := result.Language
	wasTranslated := false
	originalLanguage := ""

	if IsSpanish(language) {
		s.publish(ctx, job.CallID, StageTranslate, 75)
		translated, translateErr := s.translator.TranslateToEnglish(ctx, text)
		if translateErr != nil {
			// Translation is best-effort: a Spanish transcript is still
			// a usable transcript.
			s.logger.Warn("⚠️ Translation failed, keeping original text",
				zap.String("call_id", job.CallID.String()),
				zap.Error(translateErr))
		} else {
			text = translated
			wasTranslated = true
			originalLanguage = "es"
			language = "en"
		}
	}

	corrected, err := s.corrector.Apply(ctx, job.OwnerID, text)
	if err != nil {
		s.logger.Warn("⚠️ Correction rules unavailable, using uncorrected text",
			zap.String("call_id", job.CallID.String()),
			zap.Error(err))
		corrected = text
	}

	s.publish(ctx, job.CallID, StageSave, 90)
	segments := make([]entities.Segment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		segments = append(segments, entities.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	transcript := entities.NewTranscript(job.CallID, job.OwnerID)
	transcript.RawText = result.Text
	transcript.CorrectedText = corrected
	transcript.DisplayText = corrected
	transcript.Status = entities.TranscriptStatusCompleted
	transcript.ConfidenceScore = result.Confidence
	transcript.Language = language
	transcript.WasTranslated = wasTranslated
	transcript.OriginalLanguage = originalLanguage
	transcript.Segments = segments
	transcript.ProcessingTimeMs = time.Since(started).Milliseconds()

	if err := s.transcriptRepo.Upsert(ctx, transcript); err != nil {
		return failStage(StageSave, err)
	}

	// Embedding generation must never delay or fail the job.
	go s.triggerEmbedding(job.CallID, job.OwnerID, corrected)

	s.publish(ctx, job.CallID, StageCompleted, 100)
	s.logger.Info("✅ Transcription pipeline completed",
		zap.String("job_id", job.ID.String()),
		zap.String("call_id", job.CallID.String()),
		zap.String("language", language),
		zap.Bool("was_translated", wasTranslated),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_time_ms", transcript.ProcessingTimeMs))
	return nil
}

// triggerEmbedding computes the transcript embedding in the background
// with its own deadline, detached from the job context.
func (s *Service) triggerEmbedding(callID, ownerID uuid.UUID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.embedder.GetOrCompute(ctx, callID, ownerID, text, "transcript"); err != nil {
		s.logger.Warn("⚠️ Embedding generation failed",
			zap.String("call_id", callID.String()),
			zap.Error(err))
	}
}

// publish pushes a best-effort progress snapshot for polling clients.
func (s *Service) publish(ctx context.Context, callID uuid.UUID, stage string, progress int) {
	if err := s.progress.Set(ctx, callID, stage, progress); err != nil {
		s.logger.Debug("Progress publish failed",
			zap.String("call_id", callID.String()),
			zap.Error(err))
	}
}
