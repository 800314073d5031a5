package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError answers with the status mapped from err's taxonomy and the
// operator-facing message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "request_id", common.RequestIDFromContext(r.Context()), "error", err)
	}
	jsonError(w, common.Message(err), code)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxParserBody))
	return dec.Decode(v)
}
