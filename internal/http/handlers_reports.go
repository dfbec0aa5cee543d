package http

import (
	"fmt"
	"net/http"

	"aytam/internal/amqp"
	"aytam/internal/core"
	"aytam/internal/services"
)

const defaultReportMonths = 12

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	key := s.cacheKey("summary")
	if counts, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, counts)
		return
	}

	counts, err := s.reporting.SummaryCounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Set(key, counts)
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleOrphansByMonth(w http.ResponseWriter, r *http.Request) {
	months := queryMonths(r, defaultReportMonths)

	key := s.cacheKey(fmt.Sprintf("orphans-by-month:%d", months))
	if series, ok := s.monthsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, series)
		return
	}

	series, err := s.reporting.OrphansCountByMonth(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.monthsCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleMinorsByMonth(w http.ResponseWriter, r *http.Request) {
	months := queryMonths(r, defaultReportMonths)

	key := s.cacheKey(fmt.Sprintf("minors-by-month:%d", months))
	if series, ok := s.monthsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, series)
		return
	}

	series, err := s.reporting.MinorsCountByMonth(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.monthsCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleAgeDistribution(w http.ResponseWriter, r *http.Request) {
	out, err := s.reporting.AgeDistribution(r.Context(), services.DefaultAgeBuckets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdultOrphans(w http.ResponseWriter, r *http.Request) {
	out, err := s.reporting.AdultOrphans(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReportContext serves the assembled report context for one entity as
// JSON, the same document the export worker flattens for the sink.
func (s *Server) handleReportContext(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var doc any
	switch typ := r.PathValue("type"); typ {
	case amqp.EntityOrphan:
		doc, err = s.reports.Orphan(r.Context(), id)
	case amqp.EntityDeceased:
		doc, err = s.reports.Deceased(r.Context(), id)
	case amqp.EntityGuardian:
		doc, err = s.reports.Guardian(r.Context(), id)
	default:
		writeError(w, r, core.Validationf("unknown report type %q", typ))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// exportRequest queues a report build for the worker. entity_id is required
// for the per-entity report types, months applies to monthly_minors only.
type exportRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id,omitempty"`
	Months     int    `json:"months,omitempty"`
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "exports are not configured"})
		return
	}

	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var msg *amqp.ReportExportMessage
	switch req.EntityType {
	case amqp.EntityOrphan, amqp.EntityDeceased, amqp.EntityGuardian:
		if req.EntityID < 1 {
			writeError(w, r, core.Validationf("entity_id is required for %s exports", req.EntityType))
			return
		}
		msg = amqp.NewReportExportMessage(req.EntityType, req.EntityID)
	case amqp.EntityMonthlyMinors:
		months := req.Months
		if months <= 0 {
			months = defaultReportMonths
		}
		msg = amqp.NewMonthlyMinorsMessage(months)
	default:
		writeError(w, r, core.Validationf("unknown entity type %q", req.EntityType))
		return
	}

	if err := s.publisher.PublishReportExport(r.Context(), msg); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
