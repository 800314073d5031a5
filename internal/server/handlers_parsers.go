package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
)

const maxParserBody = 1 << 20

type parserView struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Matches     []string `json:"matches"`
	Metadata    string   `json:"metadata,omitempty"`
	Table       string   `json:"table,omitempty"`
	Custom      bool     `json:"custom"`
	// Index is the position in the custom list; built-ins have none.
	Index *int `json:"index,omitempty"`
}

type upsertRequest struct {
	Name     string          `json:"name"`
	Matches  json.RawMessage `json:"matches"`
	Metadata string          `json:"metadata"`
	Table    string          `json:"table"`
}

func (s *Server) handleListParsers(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	out := make([]parserView, 0, len(all))
	custom := 0
	for _, d := range all {
		v := parserView{
			Name:        d.Name,
			DisplayName: d.DisplayName(),
			Matches:     d.Matches,
			Metadata:    d.Metadata,
			Table:       d.Table,
			Custom:      d.Custom,
		}
		if d.Custom {
			i := custom
			v.Index = &i
			custom++
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"parsers": out})
}

func (s *Server) handleUpsertParser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxParserBody))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if err := registry.ValidateJSONAgainstSchema(registry.UpsertRequestSchema, body); err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", "Parser Name (name:) and Match Strings (matches:) are required.", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)))
		return
	}
	var req upsertRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	def := parsers.Definition{Name: req.Name, Metadata: req.Metadata, Table: req.Table}
	var list []string
	if err := json.Unmarshal(req.Matches, &list); err == nil {
		def.Matches = list
	} else {
		var str string
		_ = json.Unmarshal(req.Matches, &str)
		def.Matches = parsers.SplitMatches(str)
	}

	out, err := s.registry.Upsert(r.Context(), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if out.Action == registry.ActionAdded {
		code = http.StatusCreated
	}
	writeJSON(w, code, out)
}

func (s *Server) handleRemoveParser(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	out, err := s.registry.Remove(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportTemplates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.registry.ExportTemplates())
}

func (s *Server) handleImportTemplates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxParserBody))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	out, skipped, err := s.registry.ImportTemplates(r.Context(), string(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reasons := make([]string, 0, len(skipped))
	for _, e := range skipped {
		reasons = append(reasons, e.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": out.Message,
		"count":   out.Index,
		"skipped": reasons,
	})
}
