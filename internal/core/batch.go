package core

import (
	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/classify"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
)

type State string

const (
	StateIdle               State = "idle"
	StateRunning            State = "running"
	StateAwaitingCredential State = "awaiting_credential"
	StateDone               State = "done"
)

// DocumentRecord is the outcome for one file. It is never changed after
// being appended to a batch.
type DocumentRecord struct {
	FileName string              `json:"fileName"`
	DocType  string              `json:"docType"`
	Metadata tabular.Fields      `json:"metadata"`
	Header   []string            `json:"headers"`
	Rows     [][]string          `json:"rows"`
	RawText  string              `json:"rawText,omitempty"`
	Message  string              `json:"text,omitempty"`
	Status   constants.DocStatus `json:"status"`
}

// MetadataRecord is one row of input for consolidation.
type MetadataRecord struct {
	FileName string         `json:"fileName"`
	DocType  string         `json:"docType"`
	Fields   tabular.Fields `json:"fields"`
}

// Status is the operator-facing message of a batch.
type Status struct {
	Message string               `json:"message"`
	Kind    constants.StatusKind `json:"kind"`
}

// Snapshot is a read-only copy of a batch.
type Snapshot struct {
	BatchID      string           `json:"batchId,omitempty"`
	State        State            `json:"state"`
	Mode         classify.Mode    `json:"mode"`
	Total        int              `json:"total"`
	Index        int              `json:"index"`
	SuccessCount int              `json:"successCount"`
	PendingFile  string           `json:"pendingFile,omitempty"`
	Status       Status           `json:"status"`
	Documents    []DocumentRecord `json:"documents"`
	Metadata     []MetadataRecord `json:"metadata"`
}

type batch struct {
	id            string
	mode          classify.Mode
	files         []extract.Source
	index         int
	documents     []DocumentRecord
	metadata      []MetadataRecord
	successCount  int
	savedPassword string
	classifier    *classify.Classifier
	pending       string
	state         State
	status        Status
}
