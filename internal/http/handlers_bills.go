package http

import (
	"net/http"

	"renewals/internal/core"
	"renewals/internal/report"
)

type finalizeRequest struct {
	RecordID string         `json:"recordId"`
	Bill     *core.CashBill `json:"bill"`
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.BillFilter(q.Get("filter"))
	order := report.BillOrder(q.Get("sort"))
	bills := s.billing.Bills(filter, order)
	if bills == nil {
		bills = []core.BillSummary{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// handleDraftBill returns a fresh bill for the client to edit before
// finalizing it.
func (s *Server) handleDraftBill(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.billing.NewCashBill())
}

func (s *Server) handleFinalizeBill(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	bill := s.billing.NewCashBill()
	if req.Bill != nil {
		bill = *req.Bill
	}
	if bill.BillNumber == "" {
		writeError(w, r, http.StatusBadRequest, "bill number is required", nil)
		return
	}

	summary, err := s.billing.FinalizeBill(r.Context(), req.RecordID, bill)
	if err != nil {
		s.writeServiceError(w, r, "finalize bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.billing.DeleteBill(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, "delete bill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBillReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.billing.Report())
}
