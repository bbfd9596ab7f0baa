package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. JSON artifacts live in jsonb columns
// so each stage write touches only its own column plus status and updated_at.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO sessions (id, status, intake, questions_degraded, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4, $5, $6)`

	intake, err := json.Marshal(session.Intake)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		string(session.Status),
		intake,
		session.QuestionsDegraded,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	const query = `
SELECT id, status, intake, extracted, questions, questions_degraded, answers,
       final_report, error_message, created_at, updated_at
FROM sessions
WHERE id = $1
LIMIT 1`

	var s Session
	var status string
	var intake []byte
	var extracted sql.NullString
	var questions sql.NullString
	var answers sql.NullString
	var finalReport sql.NullString
	var errorMessage sql.NullString
	err := r.DB.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&status,
		&intake,
		&extracted,
		&questions,
		&s.QuestionsDegraded,
		&answers,
		&finalReport,
		&errorMessage,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.Status = Status(status)
	if err := json.Unmarshal(intake, &s.Intake); err != nil {
		return Session{}, fmt.Errorf("decode intake: %w", err)
	}
	if extracted.Valid {
		var e ExtractedText
		if err := json.Unmarshal([]byte(extracted.String), &e); err != nil {
			return Session{}, fmt.Errorf("decode extracted: %w", err)
		}
		s.Extracted = &e
	}
	if questions.Valid {
		if err := json.Unmarshal([]byte(questions.String), &s.Questions); err != nil {
			return Session{}, fmt.Errorf("decode questions: %w", err)
		}
	}
	if answers.Valid {
		if err := json.Unmarshal([]byte(answers.String), &s.Answers); err != nil {
			return Session{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	if finalReport.Valid {
		s.FinalReport = finalReport.String
	}
	if errorMessage.Valid {
		s.ErrorMessage = errorMessage.String
	}
	return s, nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, sessionID string, status Status) error {
	const query = `
UPDATE sessions
SET status = $1,
    updated_at = now()
WHERE id = $2`

	return r.exec(ctx, query, string(status), sessionID)
}

func (r *PGRepo) SetExtracted(ctx context.Context, sessionID string, extracted ExtractedText) error {
	const query = `
UPDATE sessions
SET status = $1,
    extracted = $2::jsonb,
    updated_at = now()
WHERE id = $3`

	payload, err := json.Marshal(extracted)
	if err != nil {
		return err
	}
	return r.exec(ctx, query, string(StatusOCRComplete), payload, sessionID)
}

func (r *PGRepo) SetQuestions(ctx context.Context, sessionID string, questions []string, degraded bool) error {
	const query = `
UPDATE sessions
SET status = $1,
    questions = $2::jsonb,
    questions_degraded = $3,
    updated_at = now()
WHERE id = $4`

	payload, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return r.exec(ctx, query, string(StatusQuestionsReady), payload, degraded, sessionID)
}

func (r *PGRepo) SetAnswers(ctx context.Context, sessionID string, answers []Answer) error {
	const query = `
UPDATE sessions
SET status = $1,
    answers = $2::jsonb,
    updated_at = now()
WHERE id = $3`

	payload, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	return r.exec(ctx, query, string(StatusGeneratingReport), payload, sessionID)
}

func (r *PGRepo) SetReport(ctx context.Context, sessionID string, report string) error {
	const query = `
UPDATE sessions
SET status = $1,
    final_report = $2,
    updated_at = now()
WHERE id = $3`

	return r.exec(ctx, query, string(StatusReportReady), report, sessionID)
}

func (r *PGRepo) MarkFailed(ctx context.Context, sessionID string, message string) error {
	const query = `
UPDATE sessions
SET status = $1,
    error_message = $2,
    updated_at = now()
WHERE id = $3`

	return r.exec(ctx, query, string(StatusFailed), message, sessionID)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
