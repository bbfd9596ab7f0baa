package sessions

import (
	"time"

	"ayuv-backend/internal/profile"
)

// Status is the pipeline stage of a session. Transitions are forward-only
// along the declared order; FAILED is reachable from any non-terminal state.
type Status string

const (
	StatusReceived         Status = "RECEIVED"
	StatusProcessing       Status = "PROCESSING"
	StatusOCRComplete      Status = "OCR_COMPLETE"
	StatusQuestionsReady   Status = "QUESTIONS_READY"
	StatusGeneratingReport Status = "GENERATING_REPORT"
	StatusReportReady      Status = "REPORT_READY"
	StatusFailed           Status = "FAILED"
)

var statusRank = map[Status]int{
	StatusReceived:         0,
	StatusProcessing:       1,
	StatusOCRComplete:      2,
	StatusQuestionsReady:   3,
	StatusGeneratingReport: 4,
	StatusReportReady:      5,
}

// Rank returns the forward-order position of a status; FAILED has no rank.
func (s Status) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

// Terminal reports whether no further automatic transition occurs.
func (s Status) Terminal() bool {
	return s == StatusReportReady || s == StatusFailed
}

// Intake is the immutable snapshot captured when the session is created.
type Intake struct {
	profile.Profile
	ReportPath string `json:"reportPath"`
}

// ExtractedText is the extraction artifact written at OCR_COMPLETE.
type ExtractedText struct {
	RawText       string            `json:"rawText"`
	KeyValuePairs map[string]string `json:"keyValuePairs"`
}

// Answer is one answered follow-up question, appended in question order.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is the single mutable record per analysis attempt. Each pipeline
// stage writes a disjoint field set; no stage rewrites an earlier artifact.
type Session struct {
	ID                string         `json:"sessionId"`
	Status            Status         `json:"status"`
	Intake            Intake         `json:"intake"`
	Extracted         *ExtractedText `json:"extractedText,omitempty"`
	Questions         []string       `json:"generatedQuestions,omitempty"`
	QuestionsDegraded bool           `json:"questionsDegraded,omitempty"`
	Answers           []Answer       `json:"userAnswers,omitempty"`
	FinalReport       string         `json:"finalReport,omitempty"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}
