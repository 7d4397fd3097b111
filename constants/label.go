package constants

import "strings"

// PageLabel is the classifier verdict for a single page.
type PageLabel string

const (
	DocumentStart PageLabel = "DOCUMENT_START"
	Continuation  PageLabel = "CONTINUATION"
)

var allLabels = []PageLabel{DocumentStart, Continuation}

// CanonicalLabel maps model class names and loose spellings onto a PageLabel.
func CanonicalLabel(input string) (PageLabel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Continuation, false
	}

	// class names used by the header model and by LLM verdicts
	synonyms := map[string]PageLabel{
		"wz":           DocumentStart,
		"start":        DocumentStart,
		"first":        DocumentStart,
		"first_page":   DocumentStart,
		"no_wz":        Continuation,
		"not_wz":       Continuation,
		"continuation": Continuation,
		"next":         Continuation,
	}
	if l, ok := synonyms[normalized]; ok {
		return l, true
	}

	for _, l := range allLabels {
		if normalized == strings.ToLower(string(l)) {
			return l, true
		}
	}
	return Continuation, false
}

// LabelsAsStrings lists every label value, e.g. for JSON Schema enums.
func LabelsAsStrings() []string {
	out := make([]string, len(allLabels))
	for i, l := range allLabels {
		out[i] = string(l)
	}
	return out
}
