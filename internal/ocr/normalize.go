package ocr

import "strings"

var lineFlattener = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\f", " ")

// Normalize flattens OCR output onto one line so patterns can match across
// line wraps. Every line break becomes one space; nothing else is touched, so
// the probe length stays comparable to the raw engine output.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	return lineFlattener.Replace(s)
}
