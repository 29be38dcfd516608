package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"renewals/internal/core"
	"renewals/internal/ledger"
	"renewals/internal/log"
	"renewals/internal/records"
	"renewals/internal/services"
	"renewals/internal/sheets"
	"renewals/internal/sheets/memory"
	"renewals/internal/storage"
)

var fixedNow = time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	sheet *memory.Sheet
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := storage.NewMemoryBackend()
	clock := func() time.Time { return fixedNow }
	opts := []services.Option{services.WithClock(clock), services.WithLogger(log.Discard())}

	store := records.NewStore(backend, records.WithLogger(log.Discard()))
	l := ledger.New(backend, ledger.WithLogger(log.Discard()), ledger.WithClock(clock))
	sheet := memory.New()
	open := func(context.Context, sheets.Settings) (sheets.RangeWriter, error) { return sheet, nil }

	srv := NewServer(":0", Deps{
		Renewals: services.NewRenewalService(store, opts...),
		Billing:  services.NewBillingService(l, store, core.Money{Cents: 1000000}, opts...),
		Sync:     services.NewSyncService(store, sheets.NewSettingsStore(backend), open, time.UTC, opts...),
		Location: time.UTC,
		Logger:   log.Discard(),
		Now:      clock,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, sheet: sheet}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (ts *testServer) create(t *testing.T, plate, name, date string) recordResponse {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/records", map[string]any{
		"date": date, "plateNumber": plate, "name": name, "vehicleType": "Car",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create %s: status=%d body=%s", plate, rr.Code, rr.Body.String())
	}
	return decode[recordResponse](t, rr)
}

func TestHealthAndHeaders(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing security headers")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id")
	}

	rr = ts.do(t, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestRecordLifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := ts.create(t, "WXY 1234", "Aminah", "2024-03-05")
	if created.ID == "" || created.Date.String() != "2024-03-05" {
		t.Fatalf("unexpected created record: %+v", created)
	}
	if created.NumberOfQuotations != 1 || created.Status != core.StatusRenew {
		t.Fatalf("form defaults not applied: %+v", created.Entry)
	}

	rr := ts.do(t, http.MethodGet, "/api/records/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodPut, "/api/records/"+created.ID, map[string]any{"remarks": "called", "date": "2024-03-06"})
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}
	edited := decode[recordResponse](t, rr)
	if edited.Remarks != "called" || edited.PlateNumber != "WXY 1234" || edited.Date.String() != "2024-03-06" {
		t.Fatalf("unexpected edit result: %+v", edited)
	}

	rr = ts.do(t, http.MethodPatch, "/api/records/"+created.ID, map[string]string{"field": "status", "value": "Not Renew"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodPatch, "/api/records/"+created.ID, map[string]string{"field": "createdAt", "value": "x"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("immutable field status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodDelete, "/api/records/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/records/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}
}

func TestCreateRecord_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, "WXY 1234", "Aminah", "2024-03-05")

	rr := ts.do(t, http.MethodPost, "/api/records", map[string]any{
		"date": "2024-03-05", "plateNumber": "wxy 1234", "name": "Other",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate status=%d", rr.Code)
	}
	resp := decode[validationResponse](t, rr)
	if !resp.Errors.HasField("duplicate") {
		t.Fatalf("expected duplicate error, got %+v", resp.Errors)
	}

	rr = ts.do(t, http.MethodPost, "/api/records", map[string]any{"plateNumber": "??", "ic": "12345", "numberOfQuotations": -1})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status=%d", rr.Code)
	}
	if n := len(decode[validationResponse](t, rr).Errors); n != 4 {
		t.Fatalf("expected 4 errors, got %d", n)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader("{"))
	rr = httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status=%d", rr.Code)
	}
}

func TestListStatsAndMonths(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, "WXY 1234", "Aminah", "2024-03-05")
	ts.create(t, "JKL 88", "Boon", "2024-04-02")
	ts.create(t, "ABC 1", "Chong", "2024-04-02")

	rr := ts.do(t, http.MethodGet, "/api/records?sort=name", nil)
	list := decode[listResponse](t, rr)
	if list.Total != 3 || len(list.Groups) != 2 || list.Groups[0].Date.String() != "2024-04-02" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Groups[0].Entries[0].Name != "Boon" {
		t.Fatalf("entries not sorted by name: %+v", list.Groups[0].Entries)
	}

	rr = ts.do(t, http.MethodGet, "/api/records?search=aminah", nil)
	if got := decode[listResponse](t, rr).Total; got != 1 {
		t.Fatalf("search total=%d", got)
	}

	rr = ts.do(t, http.MethodGet, "/api/records/stats", nil)
	stats := decode[core.RecordSummary](t, rr)
	if stats.TotalEntries != 3 || stats.TotalDates != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// a write bumps the revision, so the cached summary is not reused
	ts.create(t, "QRS 9", "Dewi", "2024-04-03")
	stats = decode[core.RecordSummary](t, ts.do(t, http.MethodGet, "/api/records/stats", nil))
	if stats.TotalEntries != 4 {
		t.Fatalf("stale stats: %+v", stats)
	}

	months := decode[[]core.MonthSection](t, ts.do(t, http.MethodGet, "/api/records/months", nil))
	if len(months) != 2 || months[0].Key != "2024-04" || months[0].Label != "April 2024" {
		t.Fatalf("unexpected months: %+v", months)
	}

	rr = ts.do(t, http.MethodDelete, "/api/records", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("clear without confirm status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodDelete, "/api/records?confirm=true", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/export?format=csv", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("empty export status=%d", rr.Code)
	}

	ts.create(t, "WXY 1234", "Aminah", "2024-03-05")
	rr = ts.do(t, http.MethodGet, "/api/export?format=csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d body=%s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "renewals_2024-03-07.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "March 2024") {
		t.Fatalf("csv body starts with %q", rr.Body.String()[:20])
	}

	rr = ts.do(t, http.MethodGet, "/api/export", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != contentTypeXLSX {
		t.Fatalf("xlsx status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Fatal("xlsx body is not a zip archive")
	}

	rr = ts.do(t, http.MethodGet, "/api/export?format=pdf", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("pdf status=%d", rr.Code)
	}
}

func TestBills(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.create(t, "WXY 1234", "Aminah", "2024-03-05")

	draft := decode[core.CashBill](t, ts.do(t, http.MethodGet, "/api/bills/new", nil))
	if !strings.HasPrefix(draft.BillNumber, "CB-") || len(draft.Items) != 1 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	draft.Tax = core.Money{Cents: 3000}

	rr := ts.do(t, http.MethodPost, "/api/bills", finalizeRequest{RecordID: rec.ID, Bill: &draft})
	if rr.Code != http.StatusCreated {
		t.Fatalf("finalize status=%d body=%s", rr.Code, rr.Body.String())
	}
	summary := decode[core.BillSummary](t, rr)
	if summary.CustomerName != "Aminah" || summary.Total.Cents != 53000 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	empty := core.CashBill{BillNumber: "CB-000001"}
	rr = ts.do(t, http.MethodPost, "/api/bills", finalizeRequest{RecordID: rec.ID, Bill: &empty})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty bill status=%d", rr.Code)
	}

	bills := decode[[]core.BillSummary](t, ts.do(t, http.MethodGet, "/api/bills?filter=current-month", nil))
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}

	rr = ts.do(t, http.MethodGet, "/api/bills/report", nil)
	var report map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report["billCount"].(float64) != 1 || report["monthTotal"].(float64) != 530 {
		t.Fatalf("unexpected report: %v", report)
	}

	rr = ts.do(t, http.MethodDelete, "/api/bills/"+summary.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete bill status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodDelete, "/api/bills/"+summary.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
}

func TestSync(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, "WXY 1234", "Aminah", "2024-03-05")

	rr := ts.do(t, http.MethodPost, "/api/sync", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("unconnected sync status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/sync/settings", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unconnected settings status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodPut, "/api/sync/settings", settingsRequest{SheetURL: "https://example.com/nope"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad url status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodPut, "/api/sync/settings", settingsRequest{
		SheetURL:  "https://docs.google.com/spreadsheets/d/abc123/edit",
		APIKey:    "secret",
		SheetName: "Renewals",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("connect status=%d body=%s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Fatal("api key leaked in response")
	}
	if !decode[settingsView](t, rr).HasAPIKey {
		t.Fatal("hasApiKey should be true")
	}

	rr = ts.do(t, http.MethodPost, "/api/sync", map[string]string{"reason": "manual"})
	if rr.Code != http.StatusOK {
		t.Fatalf("sync status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode[syncResponse](t, rr); got.Queued || got.Pushed != 1 {
		t.Fatalf("unexpected sync response: %+v", got)
	}
	if rows := ts.sheet.Rows("Renewals"); len(rows) != 2 {
		t.Fatalf("sheet rows = %d, want 2", len(rows))
	}

	rr = ts.do(t, http.MethodDelete, "/api/sync/settings", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("disconnect status=%d", rr.Code)
	}
}

func TestSyncRateLimited(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 6; i++ {
		if rr := ts.do(t, http.MethodPost, "/api/sync", nil); rr.Code != http.StatusConflict {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := ts.do(t, http.MethodPost, "/api/sync", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", rr.Header().Get("Retry-After"))
	}

	if rr := ts.do(t, http.MethodGet, "/api/sync/settings", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("settings should not be limited, status=%d", rr.Code)
	}
}
