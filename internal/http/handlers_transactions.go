package http

import (
	"net/http"

	"aytam/internal/core"
	"aytam/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	orphanID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in core.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.txManager.Create(r.Context(), orphanID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction recorded",
		log.FieldTransactionID, id,
		log.FieldOrphanID, orphanID,
		log.FieldCurrency, in.Currency,
		log.FieldTransactionType, in.Type.String())

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in core.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.txManager.Update(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.txManager.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusNoContent, nil)
}
