package http

import (
	"net/http"

	"aytam/internal/core"
)

func (s *Server) handleListGuardians(w http.ResponseWriter, r *http.Request) {
	out, err := s.directory.ListGuardians(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGuardianDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.directory.GuardianDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req core.GuardianInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.composer.UpdateGuardian(r.Context(), id, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleDeleteGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.composer.DeleteGuardian(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusNoContent, nil)
}
