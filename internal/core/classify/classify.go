// Package classify decides which parser definition handles a document and
// runs its extraction. Dispatch is an ordered list of rules; the first rule
// whose predicate accepts the text wins.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
)

type Kind string

const (
	KindAuto    Kind = "auto"
	KindForced  Kind = "forced"
	KindOneShot Kind = "one-shot"
)

// Mode is the operator's classification choice for a batch.
type Mode struct {
	Kind    Kind   `json:"kind"`
	Parser  string `json:"parser,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Global  bool   `json:"global,omitempty"`
}

// ParseMode maps a selector ("auto", "one-shot" or a parser name) to a Mode.
func ParseMode(selector, pattern string, global bool) Mode {
	switch s := strings.TrimSpace(selector); s {
	case "", string(KindAuto):
		return Mode{Kind: KindAuto}
	case string(KindOneShot):
		return Mode{Kind: KindOneShot, Pattern: pattern, Global: global}
	default:
		return Mode{Kind: KindForced, Parser: s}
	}
}

func (m Mode) String() string {
	if m.Kind == KindForced {
		return m.Parser
	}
	return string(m.Kind)
}

// Definitions is the view of the parser registry the classifier needs.
type Definitions interface {
	All() []parsers.Definition
	Resolve(name string) (parsers.Definition, bool)
}

// Match is a successful classification plus its extraction.
type Match struct {
	DocType string
	Result  tabular.Result
	// Entries are the metadata records this document contributes.
	Entries []tabular.Fields
}

type rule struct {
	docType string
	accepts func(normalized string) bool
	handle  func(text string) Match
}

// Classifier is immutable once built; one is created per batch.
type Classifier struct {
	mode  Mode
	rules []rule
}

// New snapshots the definitions and builds the rule list for mode. A
// one-shot pattern that is empty or does not compile is rejected here.
func New(mode Mode, defs Definitions) (*Classifier, error) {
	c := &Classifier{mode: mode}
	switch mode.Kind {
	case KindOneShot:
		r, err := oneShotRule(mode)
		if err != nil {
			return nil, err
		}
		c.rules = []rule{r}
	case KindForced:
		// an unknown name leaves no rules: every document is unrecognised
		if d, ok := defs.Resolve(mode.Parser); ok {
			c.rules = []rule{definitionRule(d, func(string) bool { return true })}
		}
	default:
		for _, d := range defs.All() {
			c.rules = append(c.rules, definitionRule(d, d.Recognizes))
		}
	}
	return c, nil
}

func (c *Classifier) Mode() Mode { return c.mode }

// Classify picks the first accepting rule and extracts text with it. The
// original text is passed to extraction; matching runs on a lower-cased,
// whitespace-collapsed copy.
func (c *Classifier) Classify(text string) (Match, error) {
	normalized := Normalize(text)
	for _, r := range c.rules {
		if r.accepts(normalized) {
			return r.run(text)
		}
	}
	return Match{}, common.NewAppError("UNRECOGNIZED", "Unrecognized document type", common.ErrUnrecognizedDocumentType)
}

// run contains panics raised by extraction overrides.
func (r rule) run(text string) (m Match, err error) {
	defer func() {
		if p := recover(); p != nil {
			m = Match{}
			err = common.NewAppError("EXTRACTION_FAILED", fmt.Sprintf("Parser %q failed: %v", r.docType, p), common.ErrExtractionFailure)
		}
	}()
	return r.handle(text), nil
}

// Normalize collapses whitespace runs to one space and lower-cases text.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func definitionRule(d parsers.Definition, accepts func(string) bool) rule {
	return rule{
		docType: d.Name,
		accepts: accepts,
		handle: func(text string) Match {
			res := d.Run(text)
			m := Match{DocType: d.Name, Result: res}
			if len(res.Metadata) > 0 {
				m.Entries = []tabular.Fields{res.Metadata}
			}
			return m
		},
	}
}

func oneShotRule(mode Mode) (rule, error) {
	if strings.TrimSpace(mode.Pattern) == "" {
		return rule{}, common.NewAppError("INVALID_PATTERN", "One-shot Regex is empty. Please enter a valid regex.", common.ErrInvalidPattern)
	}
	accept := func(string) bool { return true }

	if !mode.Global {
		meta, err := tabular.CompileMetadata(mode.Pattern, true)
		if err != nil {
			return rule{}, invalidOneShot(err)
		}
		return rule{
			docType: constants.DocTypeOneShot,
			accepts: accept,
			handle: func(text string) Match {
				res := tabular.Extract(text, meta, nil)
				m := Match{DocType: constants.DocTypeOneShot, Result: res}
				if len(res.Metadata) > 0 {
					m.Entries = []tabular.Fields{res.Metadata}
				}
				return m
			},
		}, nil
	}

	table, err := tabular.CompileTable(mode.Pattern)
	if err != nil {
		return rule{}, invalidOneShot(err)
	}
	return rule{
		docType: constants.DocTypeOneShot,
		accepts: accept,
		handle: func(text string) Match {
			return Match{
				DocType: constants.DocTypeOneShot,
				Result:  tabular.Extract(text, nil, table),
				Entries: matchEntries(text, table),
			}
		},
	}, nil
}

// matchEntries turns every match into one metadata entry: named groups when
// the pattern has any, else "Group N" for positional groups, else the whole
// match as "Match".
func matchEntries(text string, re *regexp.Regexp) []tabular.Fields {
	names := re.SubexpNames()
	named := false
	for _, n := range names[1:] {
		if n != "" {
			named = true
			break
		}
	}

	var entries []tabular.Fields
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		f := tabular.Fields{}
		switch {
		case named:
			for i, n := range names {
				if i > 0 && n != "" {
					f.Set(n, strings.TrimSpace(m[i]))
				}
			}
		case len(m) > 1:
			for i, v := range m[1:] {
				f.Set("Group "+strconv.Itoa(i+1), strings.TrimSpace(v))
			}
		default:
			f.Set("Match", strings.TrimSpace(m[0]))
		}
		entries = append(entries, f)
	}
	return entries
}

func invalidOneShot(err error) error {
	return common.NewAppError("INVALID_PATTERN", fmt.Sprintf("Invalid One-shot Regex: %v", err), common.ErrInvalidPattern)
}
