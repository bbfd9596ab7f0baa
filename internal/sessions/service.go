// Package sessions owns the analysis session lifecycle: intake, the
// extraction-and-dialogue run, answer submission, report synthesis, and the
// status poll. Status moves forward only; FAILED is terminal.
package sessions

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ayuv-backend/internal/dialogue"
	"ayuv-backend/internal/extract"
	"ayuv-backend/internal/profile"
	"ayuv-backend/internal/report"
	"ayuv-backend/internal/shared/metrics"
	"ayuv-backend/internal/shared/storage/object"
	"ayuv-backend/internal/shared/telemetry"
)

// DocumentExtractor converts uploaded bytes into raw text plus mined values.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (extract.Result, error)
}

// QuestionGenerator produces the follow-up question list.
type QuestionGenerator interface {
	Generate(ctx context.Context, in dialogue.Input) (dialogue.Result, error)
}

// ReportSynthesizer produces the final markdown report.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, in report.Input) (string, error)
}

// Service coordinates the pipeline. Both runs are synchronous: StartPipeline
// carries a session from RECEIVED to QUESTIONS_READY in one call chain, and
// SubmitAnswers carries it from QUESTIONS_READY to REPORT_READY. Any external
// failure is converted to MarkFailed with the causing message; there are no
// retries inside a session.
type Service struct {
	Repo        Repo
	Store       object.ObjectStore
	Extractor   DocumentExtractor
	Generator   QuestionGenerator
	Synthesizer ReportSynthesizer
}

// CreateIntake stores the uploaded report and creates the session record in
// RECEIVED. The profile snapshot is immutable from here on.
func (s *Service) CreateIntake(ctx context.Context, p profile.Profile, fileName string, file io.Reader) (Session, error) {
	id := uuid.NewString()

	key, size, mime, err := s.Store.Save(ctx, id, fileName, file)
	if err != nil {
		return Session{}, fmt.Errorf("store report: %w", err)
	}

	now := time.Now().UTC()
	session := Session{
		ID:     id,
		Status: StatusReceived,
		Intake: Intake{
			Profile:    p,
			ReportPath: key,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	telemetry.Info("session.created", map[string]any{
		"sessionId": id,
		"fileName":  fileName,
		"sizeBytes": size,
		"mimeType":  mime,
	})
	return session, nil
}

// StartPipeline runs extraction and question generation for a RECEIVED
// session. On success the session is QUESTIONS_READY; on any stage failure it
// is FAILED with the stage's message and the error is returned to the caller.
func (s *Service) StartPipeline(ctx context.Context, sessionID string) (out Session, err error) {
	// A panicking stage still has to land the session in FAILED.
	defer func() {
		if r := recover(); r != nil {
			out = Session{}
			err = s.fail(ctx, sessionID, fmt.Errorf("panic: %v", r))
		}
	}()

	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.Status != StatusReceived {
		return Session{}, fmt.Errorf("%w: pipeline start requires RECEIVED, session is %s", ErrInvalidState, session.Status)
	}

	if err := s.transition(ctx, sessionID, session.Status, StatusProcessing); err != nil {
		return Session{}, err
	}
	metrics.IncPipelineStarted()

	data, err := s.download(ctx, session.Intake.ReportPath)
	if err != nil {
		return Session{}, s.fail(ctx, sessionID, fmt.Errorf("download report: %w", err))
	}

	started := time.Now()
	result, err := s.Extractor.Extract(ctx, data, filepath.Base(session.Intake.ReportPath))
	if err != nil {
		return Session{}, s.fail(ctx, sessionID, err)
	}
	metrics.ObserveStageDurationMs("extract", float64(time.Since(started).Milliseconds()))

	extracted := ExtractedText{RawText: result.RawText, KeyValuePairs: result.KeyValuePairs}
	if err := s.Repo.SetExtracted(ctx, sessionID, extracted); err != nil {
		return Session{}, fmt.Errorf("persist extraction: %w", err)
	}
	s.logTransition(sessionID, StatusProcessing, StatusOCRComplete)

	started = time.Now()
	questions, err := s.Generator.Generate(ctx, dialogue.Input{
		Profile:       session.Intake.Profile,
		RawText:       result.RawText,
		KeyValuePairs: result.KeyValuePairs,
	})
	if err != nil {
		return Session{}, s.fail(ctx, sessionID, err)
	}
	metrics.ObserveStageDurationMs("dialogue", float64(time.Since(started).Milliseconds()))

	if err := s.Repo.SetQuestions(ctx, sessionID, questions.Questions, questions.Degraded); err != nil {
		return Session{}, fmt.Errorf("persist questions: %w", err)
	}
	s.logTransition(sessionID, StatusOCRComplete, StatusQuestionsReady)
	metrics.IncQuestionsReady()

	return s.Repo.GetByID(ctx, sessionID)
}

// SubmitAnswers records the user's answers and synthesizes the final report.
// Every generated question must have a non-blank answer; answers are stored
// in question order regardless of submission order.
func (s *Service) SubmitAnswers(ctx context.Context, sessionID string, answers map[string]string) (out Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Session{}
			err = s.fail(ctx, sessionID, fmt.Errorf("panic: %v", r))
		}
	}()

	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.Status != StatusQuestionsReady {
		return Session{}, fmt.Errorf("%w: report generation requires QUESTIONS_READY, session is %s", ErrInvalidState, session.Status)
	}

	ordered, err := orderAnswers(session.Questions, answers)
	if err != nil {
		return Session{}, err
	}

	if err := s.Repo.SetAnswers(ctx, sessionID, ordered); err != nil {
		return Session{}, fmt.Errorf("persist answers: %w", err)
	}
	s.logTransition(sessionID, StatusQuestionsReady, StatusGeneratingReport)

	in := report.Input{
		Profile: session.Intake.Profile,
		Answers: make([]report.QA, 0, len(ordered)),
	}
	if session.Extracted != nil {
		in.RawText = session.Extracted.RawText
		in.KeyValuePairs = session.Extracted.KeyValuePairs
	}
	for _, a := range ordered {
		in.Answers = append(in.Answers, report.QA{Question: a.Question, Answer: a.Answer})
	}

	started := time.Now()
	text, err := s.Synthesizer.Synthesize(ctx, in)
	if err != nil {
		return Session{}, s.fail(ctx, sessionID, err)
	}
	metrics.ObserveStageDurationMs("report", float64(time.Since(started).Milliseconds()))

	if err := s.Repo.SetReport(ctx, sessionID, text); err != nil {
		return Session{}, fmt.Errorf("persist report: %w", err)
	}
	s.logTransition(sessionID, StatusGeneratingReport, StatusReportReady)
	metrics.IncReportGenerated()

	return s.Repo.GetByID(ctx, sessionID)
}

// Get returns the current session snapshot for polling and report retrieval.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	return s.Repo.GetByID(ctx, sessionID)
}

func (s *Service) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *Service) transition(ctx context.Context, sessionID string, from, to Status) error {
	if err := s.Repo.UpdateStatus(ctx, sessionID, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.logTransition(sessionID, from, to)
	return nil
}

func (s *Service) logTransition(sessionID string, from, to Status) {
	telemetry.Info("session.status", map[string]any{
		"sessionId": sessionID,
		"from":      string(from),
		"to":        string(to),
	})
}

// fail marks the session FAILED with the causing message and returns the
// cause so the synchronous caller sees the same error the poller will.
func (s *Service) fail(ctx context.Context, sessionID string, cause error) error {
	if err := s.Repo.MarkFailed(ctx, sessionID, cause.Error()); err != nil {
		telemetry.Error("session.mark_failed", map[string]any{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
	telemetry.Error("session.failed", map[string]any{
		"sessionId": sessionID,
		"error":     cause.Error(),
	})
	metrics.IncPipelineFailed()
	return cause
}

// orderAnswers validates completeness and reorders answers by question order.
func orderAnswers(questions []string, answers map[string]string) ([]Answer, error) {
	out := make([]Answer, 0, len(questions))
	for _, q := range questions {
		a, ok := answers[q]
		if !ok || len(a) == 0 {
			return nil, fmt.Errorf("%w: missing answer for %q", ErrAnswersIncomplete, q)
		}
		out = append(out, Answer{Question: q, Answer: a})
	}
	return out, nil
}
