package http

import (
	"net/http"
	"strings"

	"aytam/internal/core"
)

func (s *Server) handleListOrphans(w http.ResponseWriter, r *http.Request) {
	out, err := s.directory.ListOrphans(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOrphanDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.directory.OrphanDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// reconcileRequest replaces an orphan's basic record and declares the full
// intended set of its transactions. Transactions present in the database but
// absent from the list are removed, ones without an id are created, and the
// rest are updated in place.
type reconcileRequest struct {
	Orphan       core.OrphanInput       `json:"orphan"`
	Transactions []core.TransactionInput `json:"transactions"`
}

func (s *Server) handleReconcileOrphan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req reconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.composer.ReconcileOrphanTransactions(r.Context(), id, req.Orphan, req.Transactions); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReportCaches()
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleOrphanBalances(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	balances, err := s.directory.OrphanBalances(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleOrphanTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transactions, err := s.directory.OrphanTransactions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	out, err := s.directory.Currencies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	nationalID := strings.TrimSpace(r.URL.Query().Get("national_id"))
	if nationalID == "" {
		writeError(w, r, core.Validationf("national_id query parameter is required"))
		return
	}

	result, err := s.directory.SearchByNationalID(r.Context(), nationalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
