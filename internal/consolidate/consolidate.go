// Package consolidate groups metadata records by document type into
// summary tables, one row per source file.
package consolidate

import (
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
)

// SourceFileColumn heads the first column of every consolidated table.
const SourceFileColumn = "Source File"

// Table is the summary of one document type.
type Table struct {
	DocType string     `json:"docType"`
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
}

// Build groups records by doc type in first-seen order. Each table's
// columns are the union of its members' keys in first-seen order; a key a
// member lacks yields an empty cell. records is not modified.
func Build(records []core.MetadataRecord) []Table {
	var order []string
	groups := map[string][]core.MetadataRecord{}
	for _, r := range records {
		if _, ok := groups[r.DocType]; !ok {
			order = append(order, r.DocType)
		}
		groups[r.DocType] = append(groups[r.DocType], r)
	}

	tables := make([]Table, 0, len(order))
	for _, docType := range order {
		members := groups[docType]

		var keys []string
		seen := map[string]bool{}
		for _, m := range members {
			for _, kv := range m.Fields {
				if !seen[kv.Key] {
					seen[kv.Key] = true
					keys = append(keys, kv.Key)
				}
			}
		}

		t := Table{DocType: docType, Header: append([]string{SourceFileColumn}, keys...)}
		for _, m := range members {
			row := make([]string, 0, len(keys)+1)
			row = append(row, m.FileName)
			for _, k := range keys {
				v, _ := m.Fields.Get(k)
				row = append(row, v)
			}
			t.Rows = append(t.Rows, row)
		}
		tables = append(tables, t)
	}
	return tables
}
