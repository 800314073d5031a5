package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
	repo "github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
)

func TestAddListRemove(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(ctx, repo.NewMemoryStore(), nil)

	var out bytes.Buffer
	blocks := "name: Bill;;\nmatches: bill, due;;\nmetadata: Due (?<Due>\\S+)"
	if err := run(ctx, reg, []string{"add", "-"}, strings.NewReader(blocks), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `Custom parser "Bill" successfully added!`) {
		t.Errorf("add output = %q", out.String())
	}

	out.Reset()
	if err := run(ctx, reg, []string{"list"}, nil, &out); err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(out.String(), "\n", 2)[0]
	if !strings.Contains(first, "Bill (Custom)") || !strings.HasPrefix(first, " 0.") {
		t.Errorf("first line = %q", first)
	}

	out.Reset()
	if err := run(ctx, reg, []string{"remove", "0"}, nil, &out); err != nil {
		t.Fatal(err)
	}
	if err := run(ctx, reg, []string{"remove", "0"}, nil, &out); err == nil {
		t.Error("removing a missing index should fail")
	}
	if err := run(ctx, reg, []string{"bogus"}, nil, &out); err == nil {
		t.Error("unknown command should fail")
	}
}
