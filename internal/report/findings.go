package report

import (
	"fmt"
	"sort"
	"strings"
)

const maxFindingValueLen = 300

// appendMissingFindings guarantees no mined parameter is silently dropped:
// every key absent from the report text is listed in a demarcated block.
// Long raw blobs and raw-text keys are skipped.
func appendMissingFindings(text string, pairs map[string]string) string {
	var missing []string
	for key, value := range pairs {
		if strings.Contains(strings.ToLower(key), "raw") {
			continue
		}
		if len(value) > maxFindingValueLen {
			continue
		}
		if strings.Contains(text, key) {
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return text
	}
	sort.Strings(missing)

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n---\n\n### Additional Findings (Auto-Added)\n\n")
	b.WriteString("The following values were detected in your report but not covered above:\n\n")
	for _, key := range missing {
		fmt.Fprintf(&b, "- %s: %s\n", key, pairs[key])
	}
	return b.String()
}
