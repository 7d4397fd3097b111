package constants

import "strings"

// PDFExt is the only source format the splitter accepts.
const PDFExt = "pdf"

// AllowedExtensions holds the extensions picked up by batch and watch discovery.
var AllowedExtensions = map[string]struct{}{
	PDFExt: {},
}

// ArchiveDateLayout names the dated archive directory (DD-MM-YYYY).
const ArchiveDateLayout = "02-01-2006"

// DefaultOutputDirName is created next to the input when --output is not given.
const DefaultOutputDirName = "output"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
