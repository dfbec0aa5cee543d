package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"aytam/internal/amqp"
	"aytam/internal/report"
	"aytam/internal/services"
	"aytam/internal/storage"
)

type stubPublisher struct {
	published []*amqp.ReportExportMessage
	err       error
}

func (p *stubPublisher) PublishReportExport(_ context.Context, msg *amqp.ReportExportMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func newTestServer(t *testing.T, publisher ExportPublisher) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	directory := services.NewDirectory(repo)
	reporting := services.NewReporting(repo)
	s := NewServer(":0",
		services.NewComposer(repo),
		services.NewTransactionManager(repo),
		directory,
		reporting,
		report.NewBuilder(directory, reporting, "Care Committee"),
		publisher)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

var serverTestSeq int

func testNationalID() string {
	serverTestSeq++
	return fmt.Sprintf("%09d", 500000000+serverTestSeq)
}

func familyBody(orphanBirth string) map[string]any {
	return map[string]any{
		"deceased": map[string]any{
			"name":          "Mahmoud Odeh",
			"national_id":   testNationalID(),
			"date_of_death": "2020-03-12",
		},
		"guardian": map[string]any{
			"name":             "Huda Odeh",
			"national_id":      testNationalID(),
			"phone":            "0599000000",
			"relationship":     2,
			"appointment_date": "2020-04-01",
		},
		"orphans": []map[string]any{
			{
				"name":          "Yousef Odeh",
				"national_id":   testNationalID(),
				"date_of_birth": orphanBirth,
				"gender":        1,
			},
		},
	}
}

func createTestFamily(t *testing.T, s *Server) (deceasedID, orphanID int64) {
	t.Helper()
	body := familyBody("2015-01-01")
	w := doJSON(t, s, http.MethodPost, "/families", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create family: status %d, body %s", w.Code, w.Body)
	}
	deceasedID = decodeBody[idResponse](t, w).ID

	lw := doJSON(t, s, http.MethodGet, fmt.Sprintf("/deceaseds/%d", deceasedID), nil)
	if lw.Code != http.StatusOK {
		t.Fatalf("deceased detail: status %d", lw.Code)
	}
	detail := decodeBody[services.DeceasedDetail](t, lw)
	if len(detail.Orphans) == 0 {
		t.Fatal("family has no orphans")
	}
	return deceasedID, detail.Orphans[0].ID
}

func TestFamilyLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	deceasedID, _ := createTestFamily(t, s)

	t.Run("family detail alias", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/families/%d", deceasedID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("detail", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/deceaseds/%d", deceasedID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		detail := decodeBody[services.DeceasedDetail](t, w)
		if detail.Deceased.Name != "Mahmoud Odeh" {
			t.Errorf("name = %q", detail.Deceased.Name)
		}
		if detail.Guardian == nil {
			t.Error("guardian missing from detail")
		}
	})

	t.Run("invalid national id", func(t *testing.T) {
		body := familyBody("2015-01-01")
		body["deceased"].(map[string]any)["national_id"] = "12345"
		w := doJSON(t, s, http.MethodPost, "/families", body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("delete cascade", func(t *testing.T) {
		w := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/families/%d", deceasedID), nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}

		w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/deceaseds/%d", deceasedID), nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status after delete = %d, want 404", w.Code)
		}
	})

	t.Run("delete missing family", func(t *testing.T) {
		w := doJSON(t, s, http.MethodDelete, "/families/424242", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/deceaseds/abc", nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})
}

func TestTransactionEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	_, orphanID := createTestFamily(t, s)

	deposit := map[string]any{
		"currency": "NIS",
		"type":     "deposit",
		"amount":   "100",
		"date":     "2023-06-10",
	}
	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/orphans/%d/transactions", orphanID), deposit)
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", w.Code, w.Body)
	}
	txID := decodeBody[idResponse](t, w).ID

	t.Run("balance reflects deposit", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/orphans/%d/balances", orphanID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		balances := decodeBody[[]struct {
			Currency string
			Amount   decimal.Decimal
		}](t, w)
		if len(balances) != 1 {
			t.Fatalf("balances = %d, want 1", len(balances))
		}
		if balances[0].Currency != "NIS" || !balances[0].Amount.Equal(decimal.RequireFromString("100")) {
			t.Errorf("balance = %s %s, want NIS 100", balances[0].Currency, balances[0].Amount)
		}
	})

	t.Run("update to withdrawal", func(t *testing.T) {
		update := map[string]any{
			"currency": "NIS",
			"type":     "withdrawal",
			"amount":   "40",
			"date":     "2023-07-02",
		}
		w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/transactions/%d", txID), update)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body)
		}

		bw := doJSON(t, s, http.MethodGet, fmt.Sprintf("/orphans/%d/balances", orphanID), nil)
		balances := decodeBody[[]struct {
			Currency string
			Amount   decimal.Decimal
		}](t, bw)
		if !balances[0].Amount.Equal(decimal.RequireFromString("-40")) {
			t.Errorf("balance = %s, want -40", balances[0].Amount)
		}
	})

	t.Run("unknown currency", func(t *testing.T) {
		bad := map[string]any{
			"currency": "GBP",
			"type":     "deposit",
			"amount":   "5",
			"date":     "2023-06-10",
		}
		w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/orphans/%d/transactions", orphanID), bad)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		bad := map[string]any{
			"currency": "NIS",
			"type":     "deposit",
			"amount":   "-5",
			"date":     "2023-06-10",
		}
		w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/orphans/%d/transactions", orphanID), bad)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/transactions/%d", txID), nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}

		w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/transactions/%d", txID), nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", w.Code)
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	_, orphanID := createTestFamily(t, s)

	dw := doJSON(t, s, http.MethodGet, fmt.Sprintf("/orphans/%d", orphanID), nil)
	detail := decodeBody[services.OrphanDetail](t, dw)

	w := doJSON(t, s, http.MethodGet, "/search?national_id="+detail.Orphan.NationalID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	result := decodeBody[services.SearchResult](t, w)
	if result.Orphan == nil || result.Orphan.ID != orphanID {
		t.Errorf("search did not find orphan %d", orphanID)
	}
	if result.Guardian != nil || result.Deceased != nil {
		t.Error("unexpected guardian or deceased match")
	}

	t.Run("missing parameter", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/search", nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("no match", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/search?national_id=999999999", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		result := decodeBody[services.SearchResult](t, w)
		if result.Orphan != nil || result.Guardian != nil || result.Deceased != nil {
			t.Error("expected empty result")
		}
	})
}

func TestReportEndpointsAndCacheInvalidation(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/reports/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	before := decodeBody[services.SummaryCounts](t, w)
	if before.Orphans != 0 {
		t.Errorf("orphans = %d, want 0", before.Orphans)
	}

	createTestFamily(t, s)

	w = doJSON(t, s, http.MethodGet, "/reports/summary", nil)
	after := decodeBody[services.SummaryCounts](t, w)
	if after.Orphans != 1 {
		t.Errorf("orphans after create = %d, want 1 (stale cache?)", after.Orphans)
	}

	t.Run("age distribution", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/reports/age-distribution", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		buckets := decodeBody[[]services.BucketCount](t, w)
		if len(buckets) != 4 {
			t.Errorf("buckets = %d, want 4", len(buckets))
		}
	})

	t.Run("orphans by month", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/reports/orphans-by-month?months=3", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		series := decodeBody[[]services.MonthCount](t, w)
		if len(series) != 3 {
			t.Errorf("series = %d, want 3", len(series))
		}
	})
}

func TestReportContextEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	deceasedID, orphanID := createTestFamily(t, s)

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/reports/orphan/%d", orphanID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	ctx := decodeBody[report.OrphanContext](t, w)
	if ctx.Orphan.ID != orphanID {
		t.Errorf("orphan id = %d, want %d", ctx.Orphan.ID, orphanID)
	}
	if ctx.Deceased == nil || ctx.Guardian == nil {
		t.Error("family context missing from report")
	}
	if ctx.Organization != "Care Committee" {
		t.Errorf("organization = %q", ctx.Organization)
	}

	t.Run("deceased report", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/reports/deceased/%d", deceasedID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		ctx := decodeBody[report.DeceasedContext](t, w)
		if len(ctx.Children) != 1 {
			t.Errorf("children = %d, want 1", len(ctx.Children))
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/reports/invoice/1", nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("missing entity", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/reports/orphan/424242", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestExportEndpoint(t *testing.T) {
	pub := &stubPublisher{}
	s := newTestServer(t, pub)
	_, orphanID := createTestFamily(t, s)

	w := doJSON(t, s, http.MethodPost, "/exports", map[string]any{
		"entity_type": "orphan",
		"entity_id":   orphanID,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	if pub.published[0].EntityType != amqp.EntityOrphan || pub.published[0].EntityID != orphanID {
		t.Errorf("message = %+v", pub.published[0])
	}

	t.Run("missing entity id", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/exports", map[string]any{"entity_type": "orphan"})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("unknown entity type", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/exports", map[string]any{"entity_type": "invoice"})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("monthly minors defaults months", func(t *testing.T) {
		w := doJSON(t, s, http.MethodPost, "/exports", map[string]any{"entity_type": "monthly_minors"})
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
		last := pub.published[len(pub.published)-1]
		if last.Months != defaultReportMonths {
			t.Errorf("months = %d, want %d", last.Months, defaultReportMonths)
		}
	})
}

func TestExportEndpointWithoutPublisher(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/exports", map[string]any{"entity_type": "monthly_minors"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
