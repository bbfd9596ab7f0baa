package sessions

// startRequest begins the extraction-and-dialogue run for a created session.
type startRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// reportRequest submits the user's answers keyed by question text.
type reportRequest struct {
	SessionID   string            `json:"sessionId" binding:"required"`
	UserAnswers map[string]string `json:"userAnswers" binding:"required"`
}

// startResponse is returned by the start run. Success is false when the
// pipeline failed; the session itself is FAILED and Message carries the cause.
type startResponse struct {
	Success           bool     `json:"success"`
	SessionID         string   `json:"sessionId"`
	Status            Status   `json:"status"`
	Questions         []string `json:"questions,omitempty"`
	QuestionsDegraded bool     `json:"questionsDegraded,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// reportResponse is returned by the report run.
type reportResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Status    Status `json:"status"`
	Report    string `json:"report,omitempty"`
	Message   string `json:"message,omitempty"`
}

// statusResponse is the poll payload: the status plus every artifact the
// pipeline has populated so far. ErrorMessage is set only for FAILED.
type statusResponse struct {
	SessionID     string         `json:"sessionId"`
	Status        Status         `json:"status"`
	ExtractedText *ExtractedText `json:"extractedText,omitempty"`
	Questions     []string       `json:"questions,omitempty"`
	FinalReport   string         `json:"finalReport,omitempty"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
}
