package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/consolidate"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
)

const (
	documentsSheet = "Documents"
	maxSheetName   = 31
	maxCellChars   = 32767
)

// Service renders batch results as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook (as bytes) with a Documents overview sheet,
// one sheet per consolidated doc type and one sheet per extracted document.
func (s *Service) ExportXLSX(ctx context.Context, snap core.Snapshot) ([]byte, error) {
	start := time.Now()
	tables := consolidate.Build(snap.Metadata)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	names := sheetNamer{used: map[string]bool{strings.ToLower(documentsSheet): true}}

	overview := [][]string{}
	for _, d := range snap.Documents {
		overview = append(overview, []string{d.FileName, d.DocType, string(d.Status), fmt.Sprint(len(d.Rows)), d.Message})
	}
	if err := writeTable(f, documentsSheet, bold, nil, []string{"File", "Doc Type", "Status", "Rows", "Message"}, overview); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(documentsSheet, "A", "B", 32)
	_ = f.SetColWidth(documentsSheet, "E", "E", 48)

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := names.next(t.DocType)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeTable(f, sheet, bold, nil, t.Header, t.Rows); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sheet, "A", "A", 32)
	}

	for _, d := range snap.Documents {
		if len(d.Rows) == 0 && len(d.Metadata) == 0 {
			continue
		}
		sheet := names.next(strings.TrimSuffix(d.FileName, ".pdf"))
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		meta := make([][]string, 0, len(d.Metadata))
		for _, kv := range d.Metadata {
			meta = append(meta, []string{kv.Key, kv.Value})
		}
		if err := writeTable(f, sheet, bold, meta, d.Header, d.Rows); err != nil {
			return nil, err
		}
	}

	idx, _ := f.GetSheetIndex(documentsSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"batch_id", snap.BatchID,
		"documents", len(snap.Documents),
		"tables", len(tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeTable writes optional key/value rows, then a bold header row, then
// the data rows, starting at A1.
func writeTable(f *excelize.File, sheet string, headerStyle int, meta [][]string, header []string, rows [][]string) error {
	r := 1
	write := func(cells []string) error {
		vals := make([]interface{}, len(cells))
		for i, c := range cells {
			vals[i] = truncate(c, maxCellChars)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r)
		r++
		return f.SetSheetRow(sheet, cell, &vals)
	}

	for _, m := range meta {
		if err := write(m); err != nil {
			return err
		}
	}
	if len(meta) > 0 {
		r++
	}
	if len(header) > 0 {
		hr := r
		if err := write(header); err != nil {
			return err
		}
		first, _ := excelize.CoordinatesToCellName(1, hr)
		last, _ := excelize.CoordinatesToCellName(len(header), hr)
		if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := write(row); err != nil {
			return err
		}
	}
	return nil
}

// sheetNamer produces unique, Excel-safe sheet names.
type sheetNamer struct {
	used map[string]bool
}

func (n *sheetNamer) next(base string) string {
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(base))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Sheet"
	}
	name := clip(base, maxSheetName)
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = clip(base, maxSheetName-len([]rune(suffix))) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
