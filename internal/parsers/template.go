package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
)

// BlockSeparator joins exported definitions.
const BlockSeparator = "\n\n---\n\n"

var (
	fieldTerminator = regexp.MustCompile(`;;[ \t]*\r?\n`)
	blankLine       = regexp.MustCompile(`\n[ \t]*\n`)
)

// BlockError reports a template block that could not be imported.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %s", e.Index+1, common.Message(e.Err))
}

func (e *BlockError) Unwrap() error { return e.Err }

// FormatTemplate renders one definition as a text block.
func FormatTemplate(d Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name:%s;;\n", d.Name)
	fmt.Fprintf(&b, "matches:%s;;\n", strings.Join(d.Matches, ", "))
	fmt.Fprintf(&b, "metadata:%s;;\n", d.Metadata)
	fmt.Fprintf(&b, "table:%s", d.Table)
	return b.String()
}

// FormatTemplates renders definitions as text blocks separated by a --- line.
func FormatTemplates(defs []Definition) string {
	blocks := make([]string, len(defs))
	for i, d := range defs {
		blocks[i] = FormatTemplate(d)
	}
	return strings.Join(blocks, BlockSeparator)
}

// ParseTemplate parses a single text block into a custom definition.
// Patterns are not compiled here.
func ParseTemplate(block string) (Definition, error) {
	block = strings.TrimSpace(strings.ReplaceAll(block, "\r\n", "\n"))
	block = strings.TrimSuffix(block, ";;")

	var d Definition
	var haveMatches bool
	var rawMatches string
	seen := map[string]bool{}
	for _, field := range fieldTerminator.Split(block, -1) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case "name", "matches", "metadata", "table":
			if seen[key] {
				// usually two blocks run together without a separator
				return Definition{}, common.NewAppError("INVALID_PARSER", fmt.Sprintf("The %s: field appears more than once.", key), common.ErrInvalidInput)
			}
			seen[key] = true
		}
		switch key {
		case "name":
			d.Name = value
		case "matches":
			haveMatches = true
			rawMatches = value
		case "metadata":
			d.Metadata = value
		case "table":
			d.Table = value
		}
	}
	if d.Name == "" || !haveMatches {
		return Definition{}, common.NewAppError("INVALID_PARSER", "Parser Name (name:) and Match Strings (matches:) are required.", common.ErrInvalidInput)
	}
	d.Matches = SplitMatches(rawMatches)
	if len(d.Matches) == 0 {
		return Definition{}, common.NewAppError("INVALID_PARSER", "The matches: value cannot be empty.", common.ErrInvalidInput)
	}
	d.Custom = true
	return d, nil
}

// ParseTemplates parses a blob of text blocks. Blocks are separated by a
// line holding only ---, or by blank lines when no such line exists. Invalid
// blocks are reported and skipped; the rest are returned in order.
func ParseTemplates(raw string) ([]Definition, []error) {
	var defs []Definition
	var errs []error
	for i, block := range splitBlocks(raw) {
		d, err := ParseTemplate(block)
		if err != nil {
			errs = append(errs, &BlockError{Index: i, Err: err})
			continue
		}
		defs = append(defs, d)
	}
	return defs, errs
}

func splitBlocks(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")

	hasRule := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "---" {
			hasRule = true
			break
		}
	}

	var parts []string
	if hasRule {
		var cur []string
		for _, l := range lines {
			if strings.TrimSpace(l) == "---" {
				parts = append(parts, strings.Join(cur, "\n"))
				cur = nil
				continue
			}
			cur = append(cur, l)
		}
		parts = append(parts, strings.Join(cur, "\n"))
	} else {
		parts = blankLine.Split(raw, -1)
	}

	blocks := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}
