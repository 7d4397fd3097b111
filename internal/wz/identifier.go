// Package wz recognises delivery-note (WZ) identifiers in OCR text.
package wz

import (
	"regexp"
	"strings"
)

// CharWhitelist restricts OCR output to the characters an identifier can contain.
const CharWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789/-"

// ShortCode is the flagged short identifier.
const ShortCode = "WZK"

var reIdentifier = regexp.MustCompile(`WZK|WZ-\d+/\d+/[A-Z]+/\d+`)

var fileNameReplacer = strings.NewReplacer("/", "_", `\`, "_")

// Find returns the first identifier in text. Matching is case-sensitive.
func Find(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	m := reIdentifier.FindString(text)
	return m, m != ""
}

// FileName turns an identifier into a name safe to use as a single path element.
func FileName(id string) string {
	return fileNameReplacer.Replace(id)
}
