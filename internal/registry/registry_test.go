package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
)

type failingStore struct{ repository.KVStore }

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestUpsertAddsThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	r := New(ctx, store, nil)

	out, err := r.Upsert(ctx, parsers.Definition{Name: " Acme ", Matches: []string{"acme, invoice"}, Metadata: `No (?<No>\d+)`})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if out.Action != ActionAdded || out.Message != `Custom parser "Acme" successfully added!` {
		t.Errorf("add outcome = %+v", out)
	}

	out, err = r.Upsert(ctx, parsers.Definition{Name: "Acme", Matches: []string{"acme"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Action != ActionUpdated || out.Index != 0 {
		t.Errorf("update outcome = %+v", out)
	}

	custom := r.Custom()
	if len(custom) != 1 || len(custom[0].Matches) != 1 {
		t.Fatalf("custom = %+v", custom)
	}

	all := r.All()
	if all[0].DisplayName() != "Acme (Custom)" {
		t.Errorf("first entry = %q", all[0].DisplayName())
	}
	if len(all) != 1+len(parsers.BuiltIn()) {
		t.Errorf("len(all) = %d", len(all))
	}
}

func TestUpsertRejectsInvalidPattern(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	r := New(ctx, store, nil)

	_, err := r.Upsert(ctx, parsers.Definition{Name: "Bad", Matches: []string{"x"}, Table: `(?<a>`})
	if !errors.Is(err, common.ErrInvalidPattern) {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(common.Message(err), "Invalid Regex: ") {
		t.Errorf("message = %q", common.Message(err))
	}
	if len(r.Custom()) != 0 {
		t.Error("invalid parser was stored")
	}
	if _, ok, _ := store.Get(ctx, constants.CustomParsersKey); ok {
		t.Error("store written on failed upsert")
	}
}

func TestUpsertRequiresNameAndMatches(t *testing.T) {
	r := New(context.Background(), repository.NewMemoryStore(), nil)
	_, err := r.Upsert(context.Background(), parsers.Definition{Name: "x", Matches: []string{" , "}})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	r := New(ctx, store, nil)
	for _, name := range []string{"A", "B", "C"} {
		if _, err := r.Upsert(ctx, parsers.Definition{Name: name, Matches: []string{name}}); err != nil {
			t.Fatal(err)
		}
	}
	out, err := r.Remove(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != `Custom parser "B" removed.` {
		t.Errorf("message = %q", out.Message)
	}

	reloaded := New(ctx, store, nil).Custom()
	if len(reloaded) != 2 || reloaded[0].Name != "A" || reloaded[1].Name != "C" {
		t.Errorf("reloaded = %+v", reloaded)
	}
	if !reloaded[0].Custom {
		t.Error("reloaded entries must be custom")
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	r := New(context.Background(), repository.NewMemoryStore(), nil)
	if _, err := r.Remove(context.Background(), 0); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestPersistFailureLeavesRegistryUnchanged(t *testing.T) {
	ctx := context.Background()
	r := New(ctx, failingStore{repository.NewMemoryStore()}, nil)
	if _, err := r.Upsert(ctx, parsers.Definition{Name: "A", Matches: []string{"a"}}); err == nil {
		t.Fatal("expected error")
	}
	if len(r.Custom()) != 0 {
		t.Error("in-memory list changed despite failed write")
	}
}

func TestLoadIgnoresMalformedList(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	_ = store.Put(ctx, constants.CustomParsersKey, []byte(`[{"name":"x"}]`))
	if got := New(ctx, store, nil).Custom(); len(got) != 0 {
		t.Errorf("custom = %+v", got)
	}
	_ = store.Put(ctx, constants.CustomParsersKey, []byte(`not json`))
	if got := New(ctx, store, nil).Custom(); len(got) != 0 {
		t.Errorf("custom = %+v", got)
	}
}

func TestResolveCustomShadowsBuiltIn(t *testing.T) {
	ctx := context.Background()
	r := New(ctx, repository.NewMemoryStore(), nil)
	if _, err := r.Upsert(ctx, parsers.Definition{Name: "TDS", Matches: []string{"mine"}}); err != nil {
		t.Fatal(err)
	}
	d, ok := r.Resolve("TDS")
	if !ok || !d.Custom {
		t.Errorf("resolved %+v", d)
	}
	if d, ok = r.Resolve("TDS (Custom)"); !ok || !d.Custom {
		t.Errorf("display name lookup: %+v", d)
	}
	if d, ok = r.Resolve("GSTR-3B"); !ok || d.Custom {
		t.Errorf("builtin lookup: %+v", d)
	}
	if _, ok = r.Resolve("nope"); ok {
		t.Error("unknown name resolved")
	}
}

func TestImportTemplatesReplacesList(t *testing.T) {
	ctx := context.Background()
	r := New(ctx, repository.NewMemoryStore(), nil)
	if _, err := r.Upsert(ctx, parsers.Definition{Name: "Old", Matches: []string{"old"}}); err != nil {
		t.Fatal(err)
	}
	raw := "name:One;;\nmatches:a;;\n---\nname:Two;;\nmatches:b;;\ntable:(bad\n---\nname:Three;;\nmatches:c"
	out, skipped, err := r.ImportTemplates(ctx, raw)
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != "Updated 2 custom parsers." {
		t.Errorf("message = %q", out.Message)
	}
	if len(skipped) != 1 {
		t.Errorf("skipped = %v", skipped)
	}
	names := []string{}
	for _, d := range r.Custom() {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "One,Three" {
		t.Errorf("names = %v", names)
	}
	if !strings.Contains(r.ExportTemplates(), "name:One;;") {
		t.Errorf("export = %q", r.ExportTemplates())
	}
}

func TestValidateUpsertRequest(t *testing.T) {
	if err := ValidateJSONAgainstSchema(UpsertRequestSchema, []byte(`{"name":"a","matches":"x, y"}`)); err != nil {
		t.Errorf("string matches: %v", err)
	}
	if err := ValidateJSONAgainstSchema(UpsertRequestSchema, []byte(`{"name":"a","matches":["x"]}`)); err != nil {
		t.Errorf("list matches: %v", err)
	}
	if err := ValidateJSONAgainstSchema(UpsertRequestSchema, []byte(`{"name":"a"}`)); err == nil {
		t.Error("missing matches accepted")
	}
}

func TestUpsertKeepsPatternWhitespace(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	r := New(ctx, store, nil)

	table := `\s\s(?<amount>\d+) `
	metadata := ` Ref (?<Ref>\w+)`
	if _, err := r.Upsert(ctx, parsers.Definition{Name: " Padded ", Matches: []string{" pad "}, Metadata: metadata, Table: table}); err != nil {
		t.Fatal(err)
	}

	reloaded := New(ctx, store, nil).Custom()
	if len(reloaded) != 1 {
		t.Fatalf("custom = %+v", reloaded)
	}
	got := reloaded[0]
	if got.Name != "Padded" || got.Matches[0] != "pad" {
		t.Errorf("name/matches = %q %v", got.Name, got.Matches)
	}
	if got.Table != table || got.Metadata != metadata {
		t.Errorf("patterns = %q %q", got.Metadata, got.Table)
	}
}
