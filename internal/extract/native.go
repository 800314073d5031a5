package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
)

// NativeExtractor reads PDFs in-process with ledongthuc/pdf, including
// RC4 and AES-128 encrypted files.
type NativeExtractor struct {
	MaxPages int
	logger   *slog.Logger
}

func NewNativeExtractor(maxPages int, logger *slog.Logger) *NativeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeExtractor{MaxPages: maxPages, logger: logger}
}

func (e *NativeExtractor) Extract(ctx context.Context, src Source, password string) (res TextExtractionResult, err error) {
	start := time.Now()
	res.Method = "pdf-native"

	data, err := src.bytes()
	if err != nil {
		return res, extractionFailure(src, err)
	}

	// the reader panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf reader panic", "file", src.Name, "panic", r)
			err = extractionFailure(src, fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	offered := false
	reader, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return res, credentialError(src, password)
		}
		return res, extractionFailure(src, err)
	}

	n := reader.NumPage()
	if e.MaxPages > 0 && n > e.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", e.MaxPages, n))
		n = e.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		b.WriteString(text)
		b.WriteString(" ")
	}

	res.Text = b.String()
	res.Pages = reader.NumPage()
	res.Duration = time.Since(start)
	e.logger.Debug("pdf text extracted", "file", src.Name, "batch_id", common.BatchIDFromContext(ctx), "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (s Source) bytes() ([]byte, error) {
	if s.Data != nil {
		return s.Data, nil
	}
	if s.Path == "" {
		return nil, errors.New("source has neither data nor path")
	}
	return os.ReadFile(s.Path)
}

func credentialError(src Source, password string) error {
	if password == "" {
		return common.NewAppError("PASSWORD_REQUIRED", fmt.Sprintf("%s is password protected.", src.Name), common.ErrCredentialRequired)
	}
	return common.NewAppError("PASSWORD_INCORRECT", "Incorrect password. Please try again.", common.ErrCredentialIncorrect)
}

func extractionFailure(src Source, err error) error {
	return common.NewAppError("EXTRACTION_FAILED", fmt.Sprintf("Could not read %s: %v", src.Name, err), common.ErrExtractionFailure)
}
