package services

import (
	"context"
	"fmt"

	"renewals/internal/core"
	"renewals/internal/ledger"
	"renewals/internal/log"
	"renewals/internal/records"
	"renewals/internal/report"
)

// BillingService issues cash bills for records and keeps the bill history.
type BillingService struct {
	ledger *ledger.Ledger
	store  *records.Store
	target core.Money
	deps
}

// NewBillingService wires the ledger to the record store. target is the
// monthly revenue goal used by Report.
func NewBillingService(l *ledger.Ledger, store *records.Store, target core.Money, opts ...Option) *BillingService {
	d := newDeps(opts)
	d.logger = d.logger.WithComponent(log.ComponentLedger)
	return &BillingService{ledger: l, store: store, target: target, deps: d}
}

// NewCashBill drafts a bill with a fresh number and the default line.
func (s *BillingService) NewCashBill() core.CashBill {
	return core.NewCashBill(s.now())
}

// FinalizeBill records the bill total against the customer of recordID.
// A record that no longer exists is billed to core.UnknownCustomer.
func (s *BillingService) FinalizeBill(ctx context.Context, recordID string, bill core.CashBill) (core.BillSummary, error) {
	if err := bill.Validate(); err != nil {
		return core.BillSummary{}, err
	}

	customer := core.UnknownCustomer
	if r, _, ok := s.store.Find(recordID); ok && r.Name != "" {
		customer = r.Name
	}

	summary, err := s.ledger.RecordBill(ctx, bill.BillNumber, customer, bill.Total())
	if err != nil {
		return core.BillSummary{}, fmt.Errorf("finalize bill: %w", err)
	}
	s.logger.InfoContext(ctx, "Bill finalized",
		log.NewFields().WithBill(summary.BillNumber, summary.Total.Cents).ToSlice()...)
	return summary, nil
}

// DeleteBill removes a history entry by id.
func (s *BillingService) DeleteBill(ctx context.Context, id string) error {
	ok, err := s.ledger.DeleteBill(ctx, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if !ok {
		return core.ErrNotFound
	}
	return nil
}

// Bills lists the history through a filter and an order.
func (s *BillingService) Bills(filter report.BillFilter, order report.BillOrder) []core.BillSummary {
	return report.SortBills(report.FilterBills(s.ledger.Bills(), filter, s.now()), order)
}

// Report computes the bill views at the service clock.
func (s *BillingService) Report() report.BillReport {
	return report.BuildBillReport(s.ledger.Bills(), s.now(), s.target)
}

// Target is the monthly revenue goal.
func (s *BillingService) Target() core.Money {
	return s.target
}
