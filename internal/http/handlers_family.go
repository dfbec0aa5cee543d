package http

import (
	"net/http"

	"aytam/internal/core"
	"aytam/internal/log"
)

// familyRequest is the payload for creating or replacing a family bundle:
// one deceased, one guardian, and the orphans they leave behind.
type familyRequest struct {
	Deceased core.DeceasedInput `json:"deceased"`
	Guardian core.GuardianInput `json:"guardian"`
	Orphans  []core.OrphanInput `json:"orphans"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.composer.CreateDeceasedBundle(r.Context(), req.Deceased, req.Guardian, req.Orphans)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Family registered",
		log.FieldDeceasedID, id,
		"orphans", len(req.Orphans))

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req familyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.composer.UpdateDeceasedBundle(r.Context(), id, req.Deceased, req.Guardian, req.Orphans); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.composer.DeleteDeceasedCascade(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListDeceased(w http.ResponseWriter, r *http.Request) {
	out, err := s.directory.ListDeceased(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeceasedDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.directory.DeceasedDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
