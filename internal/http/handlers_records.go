package http

import (
	"errors"
	"net/http"
	"strings"

	"renewals/internal/cache"
	"renewals/internal/core"
	"renewals/internal/records"
	"renewals/internal/report"
)

// recordRequest is a record form: the entry fields plus the group date.
type recordRequest struct {
	Date core.Date `json:"date"`
	core.Entry
}

type recordResponse struct {
	Date core.Date `json:"date"`
	core.Record
}

type listResponse struct {
	Groups []core.DateGroup `json:"groups"`
	Total  int              `json:"total"`
}

func criteriaFrom(r *http.Request) report.Criteria {
	q := r.URL.Query()
	return report.Criteria{
		Search:      strings.TrimSpace(q.Get("search")),
		Status:      strings.TrimSpace(q.Get("status")),
		VehicleType: strings.TrimSpace(q.Get("vehicleType")),
		Source:      strings.TrimSpace(q.Get("source")),
	}
}

func criteriaKey(c report.Criteria) string {
	return strings.Join([]string{c.Search, c.Status, c.VehicleType, c.Source}, "\x1f")
}

// filtered returns the matching groups, newest date first.
func (s *Server) filtered(c report.Criteria) []core.DateGroup {
	return records.SortByDate(report.Filter(s.renewals.Groups(), c), true)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	groups := s.filtered(criteriaFrom(r))
	if order := report.RecordOrder(r.URL.Query().Get("sort")); order != "" {
		for i := range groups {
			groups[i].Entries = report.SortRecords(groups[i].Entries, order)
		}
	}
	writeJSON(w, http.StatusOK, listResponse{Groups: groups, Total: records.Count(groups)})
}

func (s *Server) handleRecordStats(w http.ResponseWriter, r *http.Request) {
	c := criteriaFrom(r)
	key := cache.Key("summary", s.renewals.Revision(), criteriaKey(c))
	summary := cache.GetOrCompute[core.RecordSummary](s.summaryCache, key, func() core.RecordSummary {
		return report.Summarize(s.filtered(c))
	})
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecordMonths(w http.ResponseWriter, r *http.Request) {
	c := criteriaFrom(r)
	key := cache.Key("months", s.renewals.Revision(), criteriaKey(c))
	months := cache.GetOrCompute[[]core.MonthSection](s.monthsCache, key, func() []core.MonthSection {
		return report.GroupByMonth(s.filtered(c), true)
	})
	writeJSON(w, http.StatusOK, months)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	req := recordRequest{Entry: core.NewEntry()}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rec, verrs, err := s.renewals.CreateRecord(r.Context(), req.Entry, req.Date)
	switch {
	case err != nil:
		s.writeServiceError(w, r, "create record", err)
	case len(verrs) > 0:
		writeValidation(w, verrs)
	default:
		_, date, _ := s.renewals.GetRecord(rec.ID)
		writeJSON(w, http.StatusCreated, recordResponse{Date: date, Record: rec})
	}
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, date, err := s.renewals.GetRecord(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Date: date, Record: rec})
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, _, err := s.renewals.GetRecord(id)
	if err != nil {
		s.writeServiceError(w, r, "edit record", err)
		return
	}

	req := recordRequest{Entry: current.Entry}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rec, verrs, err := s.renewals.EditRecord(r.Context(), id, req.Entry, req.Date)
	switch {
	case err != nil:
		s.writeServiceError(w, r, "edit record", err)
	case len(verrs) > 0:
		writeValidation(w, verrs)
	default:
		_, date, _ := s.renewals.GetRecord(rec.ID)
		writeJSON(w, http.StatusOK, recordResponse{Date: date, Record: rec})
	}
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	update, err := core.NewFieldUpdate(body.Field, body.Value)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid field", err)
		return
	}

	rec, verrs, err := s.renewals.SetField(r.Context(), r.PathValue("id"), update)
	switch {
	case err != nil:
		s.writeServiceError(w, r, "update field", err)
	case len(verrs) > 0:
		writeValidation(w, verrs)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.renewals.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, r, http.StatusBadRequest, "clearing every record requires confirm=true", nil)
		return
	}
	if err := s.renewals.ClearAll(r.Context()); err != nil {
		s.writeServiceError(w, r, "clear records", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, op, err)
	case errors.Is(err, core.ErrInvalidDate):
		writeError(w, r, http.StatusBadRequest, op, err)
	case errors.Is(err, core.ErrEmptyBill), errors.Is(err, core.ErrInvalidAmount):
		writeError(w, r, http.StatusUnprocessableEntity, op, err)
	default:
		writeError(w, r, http.StatusInternalServerError, op+" failed", err)
	}
}
