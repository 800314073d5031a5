package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/classify"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
)

// Processor drives one batch at a time through extraction, classification
// and tabular extraction. Files are handled strictly in order; a protected
// file suspends the batch until SubmitCredential or Skip is called.
type Processor struct {
	mu        sync.Mutex
	extractor extract.TextExtractor
	defs      classify.Definitions
	logger    *slog.Logger
	batch     *batch
}

func NewProcessor(extractor extract.TextExtractor, defs classify.Definitions, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: extractor, defs: defs, logger: logger}
}

// Start discards any previous batch, including its saved password, and
// processes sources until the batch finishes or needs a password. Non-PDF
// sources are dropped; when none remain the previous batch is kept.
func (p *Processor) Start(ctx context.Context, sources []extract.Source, mode classify.Mode) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	files := make([]extract.Source, 0, len(sources))
	for _, s := range sources {
		if constants.IsPDF(s.Name) {
			files = append(files, s)
		}
	}
	if len(files) == 0 {
		return p.snapshot(), common.NewAppError("NO_DOCUMENTS", "Please select one or more PDF files.", common.ErrNoDocuments)
	}

	classifier, err := classify.New(mode, p.defs)
	if err != nil {
		return p.snapshot(), err
	}

	p.batch = &batch{
		id:         uuid.NewString(),
		mode:       mode,
		files:      files,
		classifier: classifier,
		state:      StateRunning,
	}
	p.logger.Info("batch.start", "batch_id", p.batch.id, "files", len(files), "mode", mode.String())
	p.advance(common.WithBatchID(ctx, p.batch.id))
	return p.snapshot(), nil
}

// SubmitCredential retries the suspended file with password. With reuse set
// the password is kept for the rest of the batch, otherwise the saved
// password is cleared. A rejected password keeps the batch suspended and
// returns an error wrapping common.ErrCredentialIncorrect.
func (p *Processor) SubmitCredential(ctx context.Context, password string, reuse bool) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.batch
	if b == nil || b.state != StateAwaitingCredential {
		return p.snapshot(), common.NewAppError("INVALID_STATE", "No file is waiting for a password.", common.ErrInvalidState)
	}
	if password == "" {
		b.status = Status{Message: "Please enter a password.", Kind: constants.StatusError}
		return p.snapshot(), common.NewAppError("PASSWORD_REQUIRED", "Please enter a password.", common.ErrInvalidInput)
	}

	if reuse {
		b.savedPassword = password
	} else {
		b.savedPassword = ""
	}

	ctx = common.WithBatchID(ctx, b.id)
	src := b.files[b.index]
	res, err := p.extractor.Extract(ctx, src, password)
	if common.IsCredentialError(err) {
		b.status = Status{Message: "Incorrect password. Please try again.", Kind: constants.StatusError}
		p.logger.Warn("batch.credential.rejected", "batch_id", b.id, "file", src.Name)
		return p.snapshot(), common.NewAppError("PASSWORD_INCORRECT", b.status.Message, common.ErrCredentialIncorrect)
	}

	b.state = StateRunning
	b.pending = ""
	p.finishFile(src, res, err)
	b.index++
	p.advance(ctx)
	return p.snapshot(), nil
}

// Skip records the suspended file as skipped and continues the batch. The
// saved password is left as it is.
func (p *Processor) Skip(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.batch
	if b == nil || b.state != StateAwaitingCredential {
		return p.snapshot(), common.NewAppError("INVALID_STATE", "No file is waiting for a password.", common.ErrInvalidState)
	}
	src := b.files[b.index]
	b.documents = append(b.documents, DocumentRecord{
		FileName: src.Name,
		DocType:  constants.DocTypeSkipped,
		Message:  "Skipped by user.",
		Status:   constants.DocStatusSkipped,
	})
	p.logger.Info("batch.file.skipped", "batch_id", b.id, "file", src.Name)

	b.state = StateRunning
	b.pending = ""
	b.index++
	p.advance(common.WithBatchID(ctx, b.id))
	return p.snapshot(), nil
}

// Snapshot returns a copy of the current batch state.
func (p *Processor) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// advance processes files from the current index until the list is
// exhausted or a file needs a password.
func (p *Processor) advance(ctx context.Context) {
	b := p.batch
	for b.index < len(b.files) {
		src := b.files[b.index]
		b.status = Status{
			Message: fmt.Sprintf("Processing %d of %d: %s...", b.index+1, len(b.files), src.Name),
			Kind:    constants.StatusInfo,
		}
		p.logger.Info("batch.file.start", "batch_id", b.id, "file", src.Name, "index", b.index, "total", len(b.files))

		res, err := p.extractor.Extract(ctx, src, b.savedPassword)
		if common.IsCredentialError(err) {
			b.state = StateAwaitingCredential
			b.pending = src.Name
			b.status = Status{Message: fmt.Sprintf("%s is password protected.", src.Name), Kind: constants.StatusInfo}
			p.logger.Info("batch.file.locked", "batch_id", b.id, "file", src.Name)
			return
		}
		p.finishFile(src, res, err)
		b.index++
	}
	p.finalize()
}

// finishFile appends exactly one document record for src.
func (p *Processor) finishFile(src extract.Source, res extract.TextExtractionResult, err error) {
	b := p.batch
	if err != nil {
		b.documents = append(b.documents, DocumentRecord{
			FileName: src.Name,
			DocType:  constants.DocTypeFailed,
			Message:  "Error: " + common.Message(err),
			Status:   constants.DocStatusError,
		})
		p.logger.Error("batch.file.extract_failed", "batch_id", b.id, "file", src.Name, "err", err)
		return
	}

	text := strings.ReplaceAll(res.Text, "   ", " ")
	match, err := b.classifier.Classify(text)
	if err != nil {
		b.documents = append(b.documents, DocumentRecord{
			FileName: src.Name,
			DocType:  constants.DocTypeFailed,
			RawText:  text,
			Message:  "Error: " + common.Message(err),
			Status:   constants.DocStatusError,
		})
		p.logger.Warn("batch.file.unrecognized", "batch_id", b.id, "file", src.Name, "err", err)
		return
	}

	header, data := match.Result.Split()
	b.documents = append(b.documents, DocumentRecord{
		FileName: src.Name,
		DocType:  match.DocType,
		Metadata: match.Result.Metadata,
		Header:   header,
		Rows:     data,
		RawText:  text,
		Status:   constants.DocStatusSuccess,
	})
	for _, fields := range match.Entries {
		b.metadata = append(b.metadata, MetadataRecord{FileName: src.Name, DocType: match.DocType, Fields: fields})
	}
	b.successCount++
	p.logger.Info("batch.file.done", "batch_id", b.id, "file", src.Name, "doc_type", match.DocType,
		"rows", len(data), "metadata", len(match.Entries), "method", res.Method)
}

func (p *Processor) finalize() {
	b := p.batch
	b.state = StateDone
	if len(b.documents) == 0 && len(b.metadata) == 0 {
		b.status = Status{Message: "Processed files but found no recognized data.", Kind: constants.StatusInfo}
	} else {
		b.status = Status{
			Message: fmt.Sprintf("Successfully processed %d of %d files!", b.successCount, len(b.files)),
			Kind:    constants.StatusSuccess,
		}
	}
	p.logger.Info("batch.done", "batch_id", b.id, "success", b.successCount, "total", len(b.files), "status", b.status.Message)
}

func (p *Processor) snapshot() Snapshot {
	b := p.batch
	if b == nil {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		BatchID:      b.id,
		State:        b.state,
		Mode:         b.mode,
		Total:        len(b.files),
		Index:        b.index,
		SuccessCount: b.successCount,
		PendingFile:  b.pending,
		Status:       b.status,
		Documents:    append([]DocumentRecord(nil), b.documents...),
		Metadata:     append([]MetadataRecord(nil), b.metadata...),
	}
}
