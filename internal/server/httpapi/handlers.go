package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/moodlog-app/moodlog/internal/common"
)

type upsertRequest struct {
	LocalID         string          `json:"local_id"`
	OwnerID         string          `json:"owner_id"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAtClient int64           `json:"created_at_client"`
}

type upsertResponse struct {
	ServerID        string `json:"server_id"`
	CreatedAtServer int64  `json:"created_at_server"`
}

type entryResponse struct {
	ServerID        string          `json:"server_id"`
	LocalID         string          `json:"local_id"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAtClient int64           `json:"created_at_client"`
	CreatedAtServer int64           `json:"created_at_server"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUpsertEntry(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	// The owner comes from the verified token, never from the body.
	owner := ownerFromContext(r.Context())

	entry, err := s.entryService.Upsert(r.Context(), owner, req.LocalID, req.Payload, req.CreatedAtClient)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{
		ServerID:        entry.ID,
		CreatedAtServer: entry.CreatedAt.UnixMilli(),
	})
}

func (s *Server) handleRecentEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := s.entryService.Recent(r.Context(), ownerFromContext(r.Context()), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	entries := make([]entryResponse, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, entryResponse{
			ServerID:        e.ID,
			LocalID:         e.LocalID,
			Payload:         e.Payload,
			CreatedAtClient: e.CreatedAtClient,
			CreatedAtServer: e.CreatedAt.UnixMilli(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handlePresignAttachment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryLocalID string `json:"entry_local_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	key, url, err := s.entryService.GetPresignedPutURL(r.Context(), ownerFromContext(r.Context()), req.EntryLocalID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
