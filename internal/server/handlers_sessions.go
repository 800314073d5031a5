package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/consolidate"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/classify"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/export"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
)

type credentialRequest struct {
	Password string `json:"password"`
	Reuse    bool   `json:"reuse"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.add(core.NewProcessor(s.extractor, s.registry, s.log))
	s.log.Info("session.create", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    sess.ID,
		"state": core.StateIdle,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.proc.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil || !s.sessions.remove(id) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartBatch reads uploaded files (form field "files") plus the mode
// fields parser, regex and global, and runs the batch until it finishes or
// needs a password.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var sources []extract.Source
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open upload", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			jsonError(w, "failed to read upload", http.StatusInternalServerError)
			return
		}
		sources = append(sources, extract.Source{Name: filepath.Base(fh.Filename), Data: data})
	}

	global, _ := strconv.ParseBool(r.FormValue("global"))
	mode := classify.ParseMode(r.FormValue("parser"), r.FormValue("regex"), global)

	snap, err := sess.proc.Start(s.batchContext(r, sess), sources, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSubmitCredential(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := sess.proc.SubmitCredential(s.batchContext(r, sess), req.Password, req.Reuse)
	if err != nil {
		writeJSON(w, common.HTTPStatus(err), map[string]any{
			"error":    common.Message(err),
			"snapshot": snap,
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := sess.proc.Skip(s.batchContext(r, sess))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleConsolidated(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	tables := consolidate.Build(sess.proc.Snapshot().Metadata)
	if tables == nil {
		tables = []consolidate.Table{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleDocumentTSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.proc.Snapshot()
	i, err := strconv.Atoi(chi.URLParam(r, "docIndex"))
	if err != nil || i < 0 || i >= len(snap.Documents) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	doc := snap.Documents[i]
	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	if err := export.TSV(w, doc.Header, doc.Rows); err != nil {
		s.log.Warn("tsv write failed", "error", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.proc.Snapshot()
	if len(snap.Documents) == 0 {
		jsonError(w, "no documents to export", http.StatusConflict)
		return
	}
	b, err := s.exporter.ExportXLSX(r.Context(), snap)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "extracted-"+snap.BatchID+".xlsx"))
	w.Write(b)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "invalid session id", http.StatusBadRequest)
		return nil, false
	}
	sess, ok := s.sessions.get(id)
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// batchContext keeps request values but not cancellation: a client going
// away must not turn the file in progress into an extraction failure.
func (s *Server) batchContext(r *http.Request, sess *session) context.Context {
	return common.WithSessionID(context.WithoutCancel(r.Context()), sess.ID.String())
}
