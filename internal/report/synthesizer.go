// Package report produces the final markdown report from the profile, mined
// values, and the answered follow-up questions.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ayuv-backend/internal/llm"
	"ayuv-backend/internal/profile"
)

// ErrEmptyReport is returned when the model produced no usable report text.
var ErrEmptyReport = errors.New("report generation failed: empty model output")

// QA is one answered follow-up question.
type QA struct {
	Question string
	Answer   string
}

// Input carries everything the synthesis prompt needs. The caller guarantees
// every generated question has a matching answer.
type Input struct {
	Profile       profile.Profile
	RawText       string
	KeyValuePairs map[string]string
	Answers       []QA
}

// Synthesizer builds the synthesis prompt, invokes the model once, and
// post-processes the returned markdown.
type Synthesizer struct {
	LLM llm.Client
}

// Synthesize returns the final report. The result is guaranteed non-empty and
// mentions every short mined parameter at least once.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (string, error) {
	raw, err := s.LLM.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: BuildPrompt(in),
	})
	if err != nil {
		return "", fmt.Errorf("report model call: %w", err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyReport
	}

	return appendMissingFindings(text, in.KeyValuePairs), nil
}
