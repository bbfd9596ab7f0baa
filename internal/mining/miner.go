// Package mining implements the key-value miner: a deterministic single-pass
// heuristic that scans raw report text for a curated vocabulary of medical
// parameter names and pairs each with the adjacent value run. It is a hint
// generator for the model downstream, not a validated parse; no range checks
// or unit normalization happen here.
package mining

import (
	"regexp"
	"sort"
	"strings"
)

// valuePattern captures a numeric run (decimals, ranges like 120/80 or 4-11)
// followed by an optional short unit token such as g/dL, mmHg or %.
const valuePattern = `([0-9]+(?:\.[0-9]+)?(?:\s*[-/]\s*[0-9]+(?:\.[0-9]+)?)?(?:\s*[A-Za-zµ%]{1,8}(?:/[A-Za-z0-9]{1,8})?)?)`

var minerRe = buildPattern()

func buildPattern() *regexp.Regexp {
	aliases := Aliases()
	// Longest alias first so "Blood Pressure" wins over "BP" at the same spot.
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	escaped := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		escaped = append(escaped, regexp.QuoteMeta(alias))
	}
	pattern := `(?i)\b(` + strings.Join(escaped, "|") + `)\b[\s:=\-]{0,6}` + valuePattern
	return regexp.MustCompile(pattern)
}

// Mine scans rawText and returns canonical parameter names mapped to the
// value string found next to them. The first hit per canonical name wins.
func Mine(rawText string) map[string]string {
	pairs := make(map[string]string)
	if strings.TrimSpace(rawText) == "" {
		return pairs
	}
	for _, match := range minerRe.FindAllStringSubmatch(rawText, -1) {
		canonical, ok := CanonicalFor(match[1])
		if !ok {
			continue
		}
		value := strings.TrimSpace(match[2])
		if value == "" {
			continue
		}
		if _, exists := pairs[canonical]; exists {
			continue
		}
		pairs[canonical] = value
	}
	return pairs
}
