package constants

import (
	"path/filepath"
	"strings"
)

// PDF is the only source format the batch processor accepts.
const PDF = "PDF"

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	default:
		return ""
	}
}

// IsPDF reports whether a file name carries a PDF extension.
func IsPDF(name string) bool {
	return MapExtToFormat(filepath.Ext(name)) == PDF
}
