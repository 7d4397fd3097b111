package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/wz-splitter/constants"
)

var verdictKeys = map[string]bool{"label": true, "confidence": true, "identifier": true, "reason": true}

// SanitizeVerdict repairs the usual near-misses in a model verdict so the
// document can still validate: class-name labels, percentage or string
// confidences, nulls and unknown keys. It returns the keys it dropped.
func SanitizeVerdict(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string
	for k, v := range m {
		if !verdictKeys[k] || v == nil {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	if v, ok := m["label"].(string); ok {
		if l, ok := constants.CanonicalLabel(v); ok {
			m["label"] = string(l)
		}
	}

	switch t := m["confidence"].(type) {
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			delete(m, "confidence")
			dropped = append(dropped, "confidence")
			break
		}
		m["confidence"] = clampConfidence(f)
	case float64:
		m["confidence"] = clampConfidence(t)
	}

	for _, k := range []string{"identifier", "reason"} {
		if s, ok := m[k].(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				delete(m, k)
				continue
			}
			m[k] = s
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// clampConfidence treats values above 1 as percentages.
func clampConfidence(f float64) float64 {
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
