package dialogue

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = "You are a careful health assistant preparing follow-up questions for a user who uploaded a lab report. You never diagnose. Respond with a single JSON object only."

const maxRawTextChars = 4000

// BuildPrompt assembles the single dialogue prompt from profile, derived BMI
// and the extraction artifact.
func BuildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orUnknown(in.Profile.Name))
	fmt.Fprintf(&b, "- Age: %d\n", in.Profile.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", orUnknown(in.Profile.Gender))
	fmt.Fprintf(&b, "- BMI: %s\n", in.Profile.BMIContext())
	fmt.Fprintf(&b, "- Diet: %s\n", orUnknown(in.Profile.Diet))
	fmt.Fprintf(&b, "- Occupation: %s\n", orUnknown(in.Profile.Occupation))
	fmt.Fprintf(&b, "- Sleep habits: %s\n", orUnknown(in.Profile.SleepHabits))

	b.WriteString("\nValues detected in the uploaded report:\n")
	if len(in.KeyValuePairs) == 0 {
		b.WriteString("- none detected\n")
	} else {
		for _, key := range sortedKeys(in.KeyValuePairs) {
			fmt.Fprintf(&b, "- %s: %s\n", key, in.KeyValuePairs[key])
		}
	}

	if raw := strings.TrimSpace(in.RawText); raw != "" {
		if len(raw) > maxRawTextChars {
			raw = raw[:maxRawTextChars]
		}
		b.WriteString("\nRaw report text (may be partial or garbled):\n")
		b.WriteString(raw)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `
Analyze the report values against the profile and prepare follow-up questions
that would help produce a personalized lifestyle report.

Return a JSON object with exactly two fields:
- "thoughtProcess": your internal analysis, hypotheses and question strategy.
  This is never shown to the user.
- "finalQuestions": between 3 and 10 short follow-up questions in plain
  %s, one string each, no numbering.
`, in.Profile.PreferredLanguage())

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
