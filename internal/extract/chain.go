package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
)

// Chain tries each extractor in order. Credential signals stop the chain
// immediately; any other failure moves on to the next extractor.
type Chain struct {
	extractors []TextExtractor
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, extractors ...TextExtractor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{extractors: extractors, logger: logger}
}

func (c *Chain) Extract(ctx context.Context, src Source, password string) (TextExtractionResult, error) {
	var lastErr error
	for i, ex := range c.extractors {
		res, err := ex.Extract(ctx, src, password)
		if err == nil {
			if i > 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("fell back to %s", res.Method))
			}
			return res, nil
		}
		if common.IsCredentialError(err) || ctx.Err() != nil {
			return res, err
		}
		c.logger.Warn("text extractor failed, trying next", "file", src.Name, "step", i, "error", err,
			"batch_id", common.BatchIDFromContext(ctx), "session_id", common.SessionIDFromContext(ctx))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = common.NewAppError("EXTRACTION_FAILED", "no text extractor configured", common.ErrExtractionFailure)
	}
	return TextExtractionResult{}, lastErr
}

// New builds the extractor selected by cfg.Method.
func New(cfg common.ExtractConfig, logger *slog.Logger) TextExtractor {
	native := NewNativeExtractor(cfg.MaxPages, logger)
	poppler := NewPdftotextExtractor(cfg.Pdftotext, cfg.MaxPages, nil, logger)
	switch cfg.Method {
	case "native":
		return native
	case "pdftotext":
		return poppler
	default:
		return NewChain(logger, native, poppler)
	}
}
