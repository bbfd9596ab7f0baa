package sessions

import "context"

// Repo defines persistence for session records. Each mutator writes a
// disjoint field set plus status and updatedAt, so last-write-wins semantics
// on the backing store are sufficient; no compare-and-swap is needed.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	// UpdateStatus performs the RECEIVED -> PROCESSING transition.
	UpdateStatus(ctx context.Context, sessionID string, status Status) error
	// SetExtracted writes the extraction artifact and moves to OCR_COMPLETE.
	SetExtracted(ctx context.Context, sessionID string, extracted ExtractedText) error
	// SetQuestions writes the generated questions and moves to QUESTIONS_READY.
	SetQuestions(ctx context.Context, sessionID string, questions []string, degraded bool) error
	// SetAnswers writes the ordered answers and moves to GENERATING_REPORT.
	SetAnswers(ctx context.Context, sessionID string, answers []Answer) error
	// SetReport writes the final report and moves to REPORT_READY.
	SetReport(ctx context.Context, sessionID string, report string) error
	// MarkFailed moves to FAILED with the causing message.
	MarkFailed(ctx context.Context, sessionID string, message string) error
}
