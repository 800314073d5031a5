package extract

import (
	"context"
	"time"
)

// Source is one input file. Data, when set, wins over Path.
type Source struct {
	Name string
	Path string
	Data []byte
}

// TextExtractor turns a PDF into plain text. password may be empty.
//
// Implementations signal a missing password with common.ErrCredentialRequired,
// a rejected one with common.ErrCredentialIncorrect, and every other failure
// with common.ErrExtractionFailure.
type TextExtractor interface {
	Extract(ctx context.Context, src Source, password string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-native" | "pdftotext"
	Duration time.Duration
	Warnings []string
}
