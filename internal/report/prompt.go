package report

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = "You are a careful health assistant writing a lifestyle-oriented report from lab values and user answers. You never diagnose and never name drugs. Respond in markdown."

const maxRawTextChars = 4000

// BuildPrompt assembles the synthesis prompt with strict, enumerated output rules.
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

	b.WriteString("\nFollow-up questions and the user's answers:\n")
	for _, qa := range in.Answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
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
Write a personalized health and lifestyle report in %s. Follow every rule:

1. Do not make diagnostic claims; describe what values may suggest in plain language.
2. Do not name specific drugs or dosages.
3. Use markdown with clear section headings.
4. Include a table cross-referencing each significant detected parameter
   against its standard reference range, marking values outside it.
5. Only if any detected value is critically abnormal, include an
   "Urgent Action" section advising prompt consultation with a doctor;
   omit the section entirely otherwise.
6. Cover diet, activity, and sleep suggestions grounded in the profile
   and the user's answers.
7. End with this exact disclaimer: "This report is for informational
   purposes only and is not a substitute for professional medical advice."
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
