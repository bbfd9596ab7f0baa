// Package dialogue generates personalized follow-up questions from the user
// profile and mined report values. A malformed model response degrades to a
// fixed generic question set instead of failing the pipeline.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ayuv-backend/internal/llm"
	"ayuv-backend/internal/profile"
	"ayuv-backend/internal/shared/metrics"
	"ayuv-backend/internal/shared/telemetry"
)

const maxQuestions = 10

// fallbackQuestions is the generic lifestyle set used when the model response
// cannot be parsed. Downstream stages require a non-empty question list.
var fallbackQuestions = []string{
	"How would you describe your energy levels through a typical day?",
	"How many hours do you usually sleep, and do you wake up rested?",
	"How often do you exercise in a typical week?",
	"Have you noticed any recent changes in appetite or weight?",
	"Do you currently take any medications or supplements?",
}

var questionsSchema = jsonschema.MustCompileString("questions.schema.json", `{
	"type": "object",
	"required": ["finalQuestions"],
	"properties": {
		"thoughtProcess": {"type": "string"},
		"finalQuestions": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`)

// Input carries everything the dialogue prompt needs.
type Input struct {
	Profile       profile.Profile
	RawText       string
	KeyValuePairs map[string]string
}

// Result is the dialogue outcome. Degraded marks the fallback path so callers
// can tell a generic set from a fully modeled one.
type Result struct {
	Questions []string
	Degraded  bool
}

type modelResponse struct {
	ThoughtProcess string   `json:"thoughtProcess"`
	FinalQuestions []string `json:"finalQuestions"`
}

// Generator builds the prompt, invokes the model once and parses the
// two-part response.
type Generator struct {
	LLM llm.Client
}

// Generate returns the follow-up question list. Transport errors propagate;
// parse failures degrade to the fallback set.
func (g *Generator) Generate(ctx context.Context, in Input) (Result, error) {
	raw, err := g.LLM.Complete(ctx, llm.Request{
		System:   systemPrompt,
		Prompt:   BuildPrompt(in),
		JSONMode: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("dialogue model call: %w", err)
	}

	questions, parseErr := parseQuestions(raw)
	if parseErr != nil {
		telemetry.Warn("dialogue.fallback", map[string]any{
			"error":    parseErr.Error(),
			"raw_size": len(raw),
		})
		metrics.IncFallbackQuestions()
		return Result{Questions: append([]string(nil), fallbackQuestions...), Degraded: true}, nil
	}
	return Result{Questions: questions}, nil
}

// parseQuestions parses the model output strictly as JSON, salvaging an
// embedded object if the model wrapped it in prose, and validates the shape.
func parseQuestions(raw string) ([]string, error) {
	candidate := strings.TrimSpace(raw)

	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		embedded, ok := embeddedObject(candidate)
		if !ok {
			return nil, fmt.Errorf("response is not JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(embedded), &decoded); err != nil {
			return nil, fmt.Errorf("embedded object is not JSON: %w", err)
		}
		candidate = embedded
	}

	if err := questionsSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("response shape invalid: %w", err)
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, fmt.Errorf("response decode: %w", err)
	}

	questions := make([]string, 0, len(parsed.FinalQuestions))
	for _, q := range parsed.FinalQuestions {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no usable questions in response")
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions, nil
}

// embeddedObject pulls the outermost {...} span out of surrounding prose.
func embeddedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// FallbackQuestions exposes a copy of the generic set for tests and callers.
func FallbackQuestions() []string {
	return append([]string(nil), fallbackQuestions...)
}
