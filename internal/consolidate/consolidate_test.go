package consolidate

import (
	"reflect"
	"testing"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
)

func fields(kv ...string) tabular.Fields {
	f := tabular.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

func TestBuildUnionsKeys(t *testing.T) {
	records := []core.MetadataRecord{
		{FileName: "x.pdf", DocType: "T", Fields: fields("A", "1", "B", "2")},
		{FileName: "y.pdf", DocType: "T", Fields: fields("A", "3", "C", "4")},
	}
	got := Build(records)
	if len(got) != 1 {
		t.Fatalf("tables = %+v", got)
	}
	want := Table{
		DocType: "T",
		Header:  []string{"Source File", "A", "B", "C"},
		Rows: [][]string{
			{"x.pdf", "1", "2", ""},
			{"y.pdf", "3", "", "4"},
		},
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("got %+v\nwant %+v", got[0], want)
	}
}

func TestBuildGroupsInFirstSeenOrder(t *testing.T) {
	records := []core.MetadataRecord{
		{FileName: "1.pdf", DocType: "Bank", Fields: fields("Acc", "1")},
		{FileName: "2.pdf", DocType: "Tax", Fields: fields("PAN", "X")},
		{FileName: "3.pdf", DocType: "Bank", Fields: fields("Acc", "2")},
	}
	got := Build(records)
	if len(got) != 2 || got[0].DocType != "Bank" || got[1].DocType != "Tax" {
		t.Fatalf("tables = %+v", got)
	}
	if len(got[0].Rows) != 2 || got[0].Rows[1][0] != "3.pdf" {
		t.Errorf("bank rows = %v", got[0].Rows)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	records := []core.MetadataRecord{{FileName: "a.pdf", DocType: "T", Fields: fields("K", "v")}}
	before := fields("K", "v")
	Build(records)
	Build(records)
	if !reflect.DeepEqual(records[0].Fields, before) {
		t.Errorf("input changed: %v", records[0].Fields)
	}
	if len(Build(nil)) != 0 {
		t.Error("expected no tables for no records")
	}
}
