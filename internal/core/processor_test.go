package core

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/classify"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
)

type staticDefs []parsers.Definition

func (s staticDefs) All() []parsers.Definition { return s }

func (s staticDefs) Resolve(name string) (parsers.Definition, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return parsers.Definition{}, false
}

type fakeFile struct {
	text     string
	password string
	fail     error
}

// fakeExtractor serves canned text per file name and counts calls.
type fakeExtractor struct {
	files map[string]fakeFile
	calls map[string]int
	seen  []string
}

func newFakeExtractor(files map[string]fakeFile) *fakeExtractor {
	return &fakeExtractor{files: files, calls: map[string]int{}}
}

func (f *fakeExtractor) Extract(_ context.Context, src extract.Source, password string) (extract.TextExtractionResult, error) {
	f.calls[src.Name]++
	f.seen = append(f.seen, src.Name+":"+password)
	file := f.files[src.Name]
	if file.fail != nil {
		return extract.TextExtractionResult{}, file.fail
	}
	if file.password != "" && password != file.password {
		if password == "" {
			return extract.TextExtractionResult{}, common.ErrCredentialRequired
		}
		return extract.TextExtractionResult{}, common.ErrCredentialIncorrect
	}
	return extract.TextExtractionResult{Text: file.text, Method: "fake"}, nil
}

var testDefs = staticDefs{
	{Name: "Invoice", Matches: []string{"invoice"}, Metadata: `No (?<No>\d+)`, Table: `(?<item>[a-z]+)=(?<qty>\d+)`, Custom: true},
}

func sources(names ...string) []extract.Source {
	out := make([]extract.Source, len(names))
	for i, n := range names {
		out[i] = extract.Source{Name: n}
	}
	return out
}

func TestBatchProcessesInOrder(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{
		"a.pdf": {text: "INVOICE No 1 apple=2"},
		"b.pdf": {text: "nothing known"},
		"c.pdf": {fail: common.NewAppError("EXTRACTION_FAILED", "Could not read c.pdf: broken", common.ErrExtractionFailure)},
	})
	p := NewProcessor(fx, testDefs, nil)

	snap, err := p.Start(context.Background(), sources("a.pdf", "notes.txt", "b.pdf", "c.pdf"), classify.Mode{Kind: classify.KindAuto})
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateDone || snap.Total != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Documents) != 3 {
		t.Fatalf("documents = %+v", snap.Documents)
	}
	wantStatus := []constants.DocStatus{constants.DocStatusSuccess, constants.DocStatusError, constants.DocStatusError}
	for i, d := range snap.Documents {
		if d.Status != wantStatus[i] {
			t.Errorf("doc %d (%s) status = %s", i, d.FileName, d.Status)
		}
	}
	if snap.Documents[1].Message != "Error: Unrecognized document type" {
		t.Errorf("unrecognized message = %q", snap.Documents[1].Message)
	}
	if snap.Documents[1].RawText == "" {
		t.Error("raw text should be kept for unrecognized documents")
	}
	if len(snap.Metadata) != 1 || snap.Metadata[0].DocType != "Invoice" {
		t.Errorf("metadata = %+v", snap.Metadata)
	}
	if snap.Status.Message != "Successfully processed 1 of 3 files!" || snap.Status.Kind != constants.StatusSuccess {
		t.Errorf("status = %+v", snap.Status)
	}
	doc := snap.Documents[0]
	if doc.Header[0] != "Item" || len(doc.Rows) != 1 || doc.Rows[0][1] != "2" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestStartWithoutPDFsKeepsPreviousBatch(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{"a.pdf": {text: "invoice No 1"}})
	p := NewProcessor(fx, testDefs, nil)
	first, err := p.Start(context.Background(), sources("a.pdf"), classify.Mode{Kind: classify.KindAuto})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Start(context.Background(), sources("readme.md"), classify.Mode{Kind: classify.KindAuto})
	if !errors.Is(err, common.ErrNoDocuments) {
		t.Fatalf("err = %v", err)
	}
	if got := p.Snapshot(); got.BatchID != first.BatchID {
		t.Error("previous batch discarded")
	}
}

func TestStartRejectsBadOneShot(t *testing.T) {
	p := NewProcessor(newFakeExtractor(nil), testDefs, nil)
	_, err := p.Start(context.Background(), sources("a.pdf"), classify.Mode{Kind: classify.KindOneShot, Pattern: "("})
	if !errors.Is(err, common.ErrInvalidPattern) {
		t.Fatalf("err = %v", err)
	}
	if p.Snapshot().State != StateIdle {
		t.Error("batch started despite invalid pattern")
	}
}

func TestCredentialPauseAndResume(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{
		"a.pdf": {text: "invoice No 1"},
		"b.pdf": {text: "invoice No 2", password: "pw"},
		"c.pdf": {text: "invoice No 3"},
	})
	p := NewProcessor(fx, testDefs, nil)
	ctx := context.Background()

	snap, err := p.Start(ctx, sources("a.pdf", "b.pdf", "c.pdf"), classify.Mode{Kind: classify.KindAuto})
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateAwaitingCredential || snap.PendingFile != "b.pdf" || snap.Index != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Documents) != 1 {
		t.Fatalf("documents before resume = %d", len(snap.Documents))
	}

	if _, err := p.SubmitCredential(ctx, "", false); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty password: %v", err)
	}
	snap, err = p.SubmitCredential(ctx, "nope", false)
	if !errors.Is(err, common.ErrCredentialIncorrect) {
		t.Fatalf("wrong password: %v", err)
	}
	if snap.State != StateAwaitingCredential || snap.Status.Message != "Incorrect password. Please try again." {
		t.Errorf("after wrong password = %+v", snap)
	}

	snap, err = p.SubmitCredential(ctx, "pw", false)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateDone {
		t.Fatalf("state = %s", snap.State)
	}
	if len(snap.Documents) != 3 {
		t.Fatalf("documents = %+v", snap.Documents)
	}
	count := 0
	for _, d := range snap.Documents {
		if d.FileName == "b.pdf" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("b.pdf has %d records", count)
	}
	if snap.Documents[1].FileName != "b.pdf" || snap.Documents[1].Status != constants.DocStatusSuccess {
		t.Errorf("resumed record = %+v", snap.Documents[1])
	}
	// c.pdf must be tried with an empty saved password
	if last := fx.seen[len(fx.seen)-1]; last != "c.pdf:" {
		t.Errorf("last call = %q", last)
	}
}

func TestReusedCredentialAppliesToLaterFiles(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{
		"a.pdf": {text: "invoice No 1", password: "pw"},
		"b.pdf": {text: "invoice No 2", password: "pw"},
	})
	p := NewProcessor(fx, testDefs, nil)
	ctx := context.Background()
	if _, err := p.Start(ctx, sources("a.pdf", "b.pdf"), classify.Mode{Kind: classify.KindAuto}); err != nil {
		t.Fatal(err)
	}
	snap, err := p.SubmitCredential(ctx, "pw", true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateDone || snap.SuccessCount != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	// a new batch forgets the saved password
	snap, _ = p.Start(ctx, sources("b.pdf"), classify.Mode{Kind: classify.KindAuto})
	if snap.State != StateAwaitingCredential {
		t.Errorf("state after restart = %s", snap.State)
	}
}

func TestSkip(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{
		"a.pdf": {text: "invoice", password: "pw"},
		"b.pdf": {text: "invoice No 2"},
	})
	p := NewProcessor(fx, testDefs, nil)
	ctx := context.Background()
	if _, err := p.Skip(ctx); !errors.Is(err, common.ErrInvalidState) {
		t.Errorf("skip while idle: %v", err)
	}
	if _, err := p.Start(ctx, sources("a.pdf", "b.pdf"), classify.Mode{Kind: classify.KindAuto}); err != nil {
		t.Fatal(err)
	}
	snap, err := p.Skip(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateDone || len(snap.Documents) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	d := snap.Documents[0]
	if d.Status != constants.DocStatusSkipped || d.DocType != constants.DocTypeSkipped || d.Message != "Skipped by user." {
		t.Errorf("skipped record = %+v", d)
	}
	if snap.Status.Message != "Successfully processed 1 of 2 files!" {
		t.Errorf("status = %+v", snap.Status)
	}
	if _, err := p.SubmitCredential(ctx, "pw", false); !errors.Is(err, common.ErrInvalidState) {
		t.Errorf("submit after done: %v", err)
	}
}

func TestOneShotGlobalAcrossFiles(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{
		"a.pdf": {text: "ref A1 and ref B2"},
		"b.pdf": {text: "ref C3 then ref D4"},
	})
	p := NewProcessor(fx, testDefs, nil)
	mode := classify.ParseMode("one-shot", `ref (?<Code>[A-Z]\d)`, true)
	snap, err := p.Start(context.Background(), sources("a.pdf", "b.pdf"), mode)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Metadata) != 4 {
		t.Fatalf("metadata = %+v", snap.Metadata)
	}
	for _, m := range snap.Metadata {
		if m.DocType != constants.DocTypeOneShot {
			t.Errorf("doc type = %q", m.DocType)
		}
	}
	if v, _ := snap.Metadata[2].Fields.Get("Code"); v != "C3" || snap.Metadata[2].FileName != "b.pdf" {
		t.Errorf("third record = %+v", snap.Metadata[2])
	}
}

func TestSkippedRecordCountsForFinalStatus(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{"a.pdf": {text: "x", password: "pw"}})
	p := NewProcessor(fx, testDefs, nil)
	ctx := context.Background()
	if _, err := p.Start(ctx, sources("a.pdf"), classify.Mode{Kind: classify.KindAuto}); err != nil {
		t.Fatal(err)
	}
	snap, _ := p.Skip(ctx)
	if snap.Status.Kind != constants.StatusSuccess || snap.Status.Message != "Successfully processed 0 of 1 files!" {
		t.Errorf("status = %+v", snap.Status)
	}
}

func TestTripleSpacesCollapsed(t *testing.T) {
	fx := newFakeExtractor(map[string]fakeFile{"a.pdf": {text: "invoice   No   7"}})
	p := NewProcessor(fx, testDefs, nil)
	snap, err := p.Start(context.Background(), sources("a.pdf"), classify.Mode{Kind: classify.KindAuto})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := snap.Documents[0].Metadata.Get("No"); v != "7" {
		t.Errorf("No = %q (raw %q)", v, snap.Documents[0].RawText)
	}
}

func TestBrokenPatternOnlyDisablesItsOwnSide(t *testing.T) {
	tests := []struct {
		name     string
		def      parsers.Definition
		wantMeta int
		wantRows int
	}{
		{
			name:     "broken metadata keeps table",
			def:      parsers.Definition{Name: "Ledger", Matches: []string{"ledger"}, Metadata: `(?<a>`, Table: `row (?<n>\d+)`, Custom: true},
			wantMeta: 0,
			wantRows: 2,
		},
		{
			name:     "broken table keeps metadata",
			def:      parsers.Definition{Name: "Ledger", Matches: []string{"ledger"}, Metadata: `Ref (?<Ref>\w+)`, Table: `(?<n>`, Custom: true},
			wantMeta: 1,
			wantRows: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFakeExtractor(map[string]fakeFile{"a.pdf": {text: "LEDGER Ref X1 row 1 row 2"}})
			p := NewProcessor(fx, staticDefs{tt.def}, nil)
			snap, err := p.Start(context.Background(), sources("a.pdf"), classify.Mode{Kind: classify.KindAuto})
			if err != nil {
				t.Fatal(err)
			}
			doc := snap.Documents[0]
			if doc.Status != constants.DocStatusSuccess || doc.DocType != "Ledger" {
				t.Fatalf("doc = %+v", doc)
			}
			if len(doc.Metadata) != tt.wantMeta || len(doc.Rows) != tt.wantRows {
				t.Errorf("metadata = %v rows = %v", doc.Metadata, doc.Rows)
			}
			if len(doc.Header) != constants.CanonicalWidth {
				t.Errorf("header width = %d", len(doc.Header))
			}
		})
	}
}
