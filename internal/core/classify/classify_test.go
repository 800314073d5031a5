package classify

import (
	"errors"
	"regexp"
	"testing"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
)

type staticDefs []parsers.Definition

func (s staticDefs) All() []parsers.Definition { return s }

func (s staticDefs) Resolve(name string) (parsers.Definition, bool) {
	for _, d := range s {
		if d.Name == name || d.DisplayName() == name {
			return d, true
		}
	}
	return parsers.Definition{}, false
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		sel  string
		want Kind
	}{
		{"", KindAuto},
		{"auto", KindAuto},
		{"one-shot", KindOneShot},
		{"GST Challan", KindForced},
	}
	for _, tc := range cases {
		if got := ParseMode(tc.sel, "x", false).Kind; got != tc.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tc.sel, got, tc.want)
		}
	}
}

func TestAutoFirstMatchWins(t *testing.T) {
	defs := staticDefs{
		{Name: "Specific", Matches: []string{"alpha", "beta"}, Custom: true},
		{Name: "Broad", Matches: []string{"alpha"}},
	}
	c, err := New(Mode{Kind: KindAuto}, defs)
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.Classify("ALPHA\n\n   report   BETA")
	if err != nil {
		t.Fatal(err)
	}
	if m.DocType != "Specific" {
		t.Errorf("doc type = %q", m.DocType)
	}
	m, err = c.Classify("alpha only")
	if err != nil || m.DocType != "Broad" {
		t.Errorf("second = %q, %v", m.DocType, err)
	}
}

func TestAutoKeywordSpanningWhitespace(t *testing.T) {
	defs := staticDefs{{Name: "Union", Matches: []string{"Statement of Account"}}}
	c, _ := New(Mode{Kind: KindAuto}, defs)
	if _, err := c.Classify("statement\n of\t\taccount"); err != nil {
		t.Errorf("expected match across whitespace runs: %v", err)
	}
}

func TestAutoUnrecognized(t *testing.T) {
	c, _ := New(Mode{Kind: KindAuto}, staticDefs{{Name: "A", Matches: []string{"zzz"}}})
	_, err := c.Classify("nothing")
	if !errors.Is(err, common.ErrUnrecognizedDocumentType) {
		t.Errorf("err = %v", err)
	}
	if common.Message(err) != "Unrecognized document type" {
		t.Errorf("message = %q", common.Message(err))
	}
}

func TestForcedIgnoresKeywords(t *testing.T) {
	defs := staticDefs{{Name: "Invoice", Matches: []string{"never present"}, Metadata: `No (?<No>\d+)`, Custom: true}}
	c, _ := New(Mode{Kind: KindForced, Parser: "Invoice (Custom)"}, defs)
	m, err := c.Classify("No 42")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Result.Metadata.Get("No"); v != "42" {
		t.Errorf("No = %q", v)
	}
	if len(m.Entries) != 1 {
		t.Errorf("entries = %v", m.Entries)
	}
}

func TestForcedUnknownParser(t *testing.T) {
	c, err := New(Mode{Kind: KindForced, Parser: "Ghost"}, staticDefs{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Classify("x"); !errors.Is(err, common.ErrUnrecognizedDocumentType) {
		t.Errorf("err = %v", err)
	}
}

func TestOneShotInvalidPattern(t *testing.T) {
	for _, p := range []string{"", "   ", "(?<x>"} {
		_, err := New(Mode{Kind: KindOneShot, Pattern: p}, staticDefs{})
		if !errors.Is(err, common.ErrInvalidPattern) {
			t.Errorf("pattern %q: err = %v", p, err)
		}
	}
}

func TestOneShotSingle(t *testing.T) {
	c, err := New(Mode{Kind: KindOneShot, Pattern: `Total:\s+(?<Total>[\d.]+)`}, staticDefs{})
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.Classify("Total:\n 12.50")
	if err != nil {
		t.Fatal(err)
	}
	if m.DocType != constants.DocTypeOneShot {
		t.Errorf("doc type = %q", m.DocType)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("entries = %v", m.Entries)
	}
	if v, _ := m.Entries[0].Get("Total"); v != "12.50" {
		t.Errorf("Total = %q", v)
	}
}

func TestOneShotGlobalEntries(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		first   string
	}{
		{`(?<Code>[A-Z]\d)`, "Code", "A1"},
		{`([A-Z])(\d)`, "Group 2", "1"},
		{`[A-Z]\d`, "Match", "A1"},
	}
	for _, tc := range cases {
		c, err := New(Mode{Kind: KindOneShot, Pattern: tc.pattern, Global: true}, staticDefs{})
		if err != nil {
			t.Fatal(err)
		}
		m, err := c.Classify("x A1 y B2")
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Entries) != 2 {
			t.Fatalf("%s: entries = %v", tc.pattern, m.Entries)
		}
		if v, _ := m.Entries[0].Get(tc.key); v != tc.first {
			t.Errorf("%s: %s = %q", tc.pattern, tc.key, v)
		}
		if _, data := m.Result.Split(); len(data) != 2 {
			t.Errorf("%s: data rows = %v", tc.pattern, data)
		}
	}
}

func TestOverridePanicIsContained(t *testing.T) {
	defs := staticDefs{{
		Name:    "Boom",
		Matches: []string{"boom"},
		Extract: func(string, *regexp.Regexp, *regexp.Regexp) tabular.Result { panic("bad index") },
	}}
	c, _ := New(Mode{Kind: KindAuto}, defs)
	_, err := c.Classify("boom")
	if !errors.Is(err, common.ErrExtractionFailure) {
		t.Errorf("err = %v", err)
	}
}
