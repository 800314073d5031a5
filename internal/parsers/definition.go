// Package parsers holds parser definitions: the built-in set and the
// text block format used to import and export user-defined ones.
package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
)

const maxNameLength = 200

// Definition describes how to recognise a document type and pull its data.
type Definition struct {
	Name     string
	Matches  []string
	Metadata string
	Table    string
	Extract  tabular.ExtractFunc
	Custom   bool
}

// DisplayName is the name shown to operators; custom entries carry a suffix so
// they stay distinguishable from built-ins of the same name.
func (d Definition) DisplayName() string {
	if d.Custom {
		return d.Name + constants.CustomSuffix
	}
	return d.Name
}

// Compile compiles both pattern sources. Custom metadata patterns run in
// dot-all mode; built-in sources carry their own flags.
func (d Definition) Compile() (metadata, table *regexp.Regexp, err error) {
	metadata, err = tabular.CompileMetadata(d.Metadata, d.Custom)
	if err != nil {
		return nil, nil, invalidPattern(err)
	}
	table, err = tabular.CompileTable(d.Table)
	if err != nil {
		return nil, nil, invalidPattern(err)
	}
	return metadata, table, nil
}

// Run extracts text with this definition. A pattern that fails to compile
// is treated as absent.
func (d Definition) Run(text string) tabular.Result {
	metadata, _ := tabular.CompileMetadata(d.Metadata, d.Custom)
	table, _ := tabular.CompileTable(d.Table)
	fn := d.Extract
	if fn == nil {
		fn = tabular.Extract
	}
	return fn(text, metadata, table)
}

// Recognizes reports whether every keyword occurs in text, ignoring case.
// text is expected to be lower-cased and whitespace-collapsed already.
func (d Definition) Recognizes(normalized string) bool {
	if len(d.Matches) == 0 {
		return false
	}
	for _, kw := range d.Matches {
		if !strings.Contains(normalized, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// Validate checks the mandatory fields and that both patterns compile.
func (d Definition) Validate() error {
	v := common.NewValidator().
		Field("name", d.Name, common.Required, common.MaxLength(maxNameLength)).
		Field("matches", d.Matches, common.NonEmptyList)
	if v.HasErrors() {
		return common.NewAppError("INVALID_PARSER", "Parser Name (name:) and Match Strings (matches:) are required.",
			fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage()))
	}
	_, _, err := d.Compile()
	return err
}

// SplitMatches splits a comma-separated keyword list, trimming entries and
// dropping empty ones.
func SplitMatches(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func invalidPattern(err error) error {
	return common.NewAppError("INVALID_PATTERN", fmt.Sprintf("Invalid Regex: %v", err), common.ErrInvalidPattern)
}
