package tabular

import "regexp"

// CompileMetadata compiles a metadata pattern. User-defined patterns run in
// dot-all mode so "." also matches line breaks.
func CompileMetadata(src string, dotAll bool) (*regexp.Regexp, error) {
	if src == "" {
		return nil, nil
	}
	if dotAll {
		src = "(?s)" + src
	}
	return regexp.Compile(src)
}

// CompileTable compiles a table row pattern. Empty source yields nil.
func CompileTable(src string) (*regexp.Regexp, error) {
	if src == "" {
		return nil, nil
	}
	return regexp.Compile(src)
}
