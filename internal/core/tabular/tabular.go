// Package tabular turns document text plus two patterns into a canonical,
// fixed-width row stream: metadata rows, one header row, then data rows.
package tabular

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
)

// Result is the outcome of extracting one document.
//
// Rows is the combined stream: one [key, value, "", ...] row per metadata
// field, then the header row, then the data rows.
type Result struct {
	Metadata Fields
	Rows     [][]string
}

// ExtractFunc is the extraction contract shared by the default extractor and
// per-parser overrides. A nil pattern means "not configured".
type ExtractFunc func(text string, metadata, table *regexp.Regexp) Result

// Split separates the header row and data rows from the combined stream
// using the metadata field count.
func (r Result) Split() (header []string, data [][]string) {
	n := len(r.Metadata)
	if len(r.Rows) > n {
		header = r.Rows[n]
	}
	if len(r.Rows) > n+1 {
		data = r.Rows[n+1:]
	}
	return header, data
}

// Extract is the default, general-purpose extractor.
func Extract(text string, metadata, table *regexp.Regexp) Result {
	fields := ExtractMetadata(text, metadata)
	header, data := ExtractTable(text, table)

	rows := MetadataRows(fields, constants.CanonicalWidth)
	rows = append(rows, header)
	rows = append(rows, data...)
	return Result{Metadata: fields, Rows: rows}
}

// ExtractMetadata applies re once. Each named group becomes one field with a
// trimmed value; a group that did not participate yields "".
func ExtractMetadata(text string, re *regexp.Regexp) Fields {
	fields := Fields{}
	if re == nil {
		return fields
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return fields
	}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		fields.Set(name, strings.TrimSpace(group(text, loc, i)))
	}
	return fields
}

// ExtractTable applies re repeatedly. Headers come from the first match:
// humanized group names, or Col 1..N for positional groups. Header and data
// rows are forced to the canonical width; cells are trimmed and stripped of
// commas. Without a match the header is a blank row.
func ExtractTable(text string, re *regexp.Regexp) (header []string, data [][]string) {
	width := constants.CanonicalWidth
	if re == nil {
		return Normalize(nil, width), nil
	}
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return Normalize(nil, width), nil
	}

	idx := groupIndexes(re)
	names := re.SubexpNames()
	if hasNamedGroups(re) {
		for _, i := range idx {
			header = append(header, Humanize(names[i]))
		}
	} else {
		for n := range idx {
			header = append(header, "Col "+strconv.Itoa(n+1))
		}
	}
	header = Normalize(header, width)

	data = make([][]string, 0, len(matches))
	for _, loc := range matches {
		row := make([]string, 0, len(idx))
		for _, i := range idx {
			row = append(row, CleanCell(group(text, loc, i)))
		}
		data = append(data, Normalize(row, width))
	}
	return header, data
}

// MetadataRows renders fields as [key, value, "", ...] rows of the given width.
func MetadataRows(fields Fields, width int) [][]string {
	rows := make([][]string, 0, len(fields))
	for _, kv := range fields {
		rows = append(rows, Normalize([]string{kv.Key, kv.Value}, width))
	}
	return rows
}

// Normalize truncates or right-pads row with empty strings to width.
func Normalize(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Humanize upper-cases the first letter of a group name and turns the
// remaining underscores into spaces.
func Humanize(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(name[size:], "_", " ")
}

// CleanCell trims a data cell and drops its commas (thousands separators).
func CleanCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// hasNamedGroups reports whether any capture group of re carries a name.
func hasNamedGroups(re *regexp.Regexp) bool {
	for _, name := range re.SubexpNames()[1:] {
		if name != "" {
			return true
		}
	}
	return false
}

// groupIndexes returns the capture groups that feed columns: the named ones
// when any exist, else all positional ones.
func groupIndexes(re *regexp.Regexp) []int {
	named := hasNamedGroups(re)
	var idx []int
	for i, name := range re.SubexpNames() {
		if i == 0 || (named && name == "") {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func group(text string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}
