package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// PdftotextExtractor shells out to poppler's pdftotext.
type PdftotextExtractor struct {
	Bin      string
	MaxPages int
	runner   Runner
	logger   *slog.Logger
}

func NewPdftotextExtractor(bin string, maxPages int, runner Runner, logger *slog.Logger) *PdftotextExtractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PdftotextExtractor{Bin: bin, MaxPages: maxPages, runner: runner, logger: logger}
}

func (e *PdftotextExtractor) Extract(ctx context.Context, src Source, password string) (TextExtractionResult, error) {
	start := time.Now()
	res := TextExtractionResult{Method: "pdftotext"}

	path := src.Path
	if src.Data != nil || path == "" {
		tmp, cleanup, err := spill(src)
		if err != nil {
			return res, extractionFailure(src, err)
		}
		defer cleanup()
		path = tmp
	}

	// pdftotext -layout -enc UTF-8 -eol unix [-l N] [-upw pw] <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.MaxPages))
	}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, path, "-")

	out, errb, err := e.runner.Run(ctx, e.Bin, e.logger, args...)
	if err != nil {
		if strings.Contains(strings.ToLower(string(errb)), "password") {
			return res, credentialError(src, password)
		}
		return res, extractionFailure(src, fmt.Errorf("%s: %w: %s", e.Bin, err, strings.TrimSpace(string(errb))))
	}

	// a form-feed separates pages
	text := string(out)
	res.Pages = 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	res.Text = strings.ReplaceAll(text, "\f", " ")
	res.Duration = time.Since(start)
	return res, nil
}

// spill writes in-memory data to a temp file for tools that need a path.
func spill(src Source) (string, func(), error) {
	data, err := src.bytes()
	if err != nil {
		return "", func() {}, err
	}
	tmp, err := os.CreateTemp("", "pdfx-*.pdf")
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return name, cleanup, nil
}
