package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnknownCustomer is recorded when a bill has no matching record.
const UnknownCustomer = "Unknown Customer"

// MaxBillAmount caps every amount on a bill at RM 1,000,000,000 so totals
// stay far from int64 overflow.
var MaxBillAmount = Money{Cents: 100_000_000_000}

// BillSummary is one entry of the cash-bill history, keyed by BillNumber.
type BillSummary struct {
	ID           string    `json:"id"`
	BillNumber   string    `json:"billNumber"`
	CustomerName string    `json:"customerName"`
	Total        Money     `json:"total"`
	Date         time.Time `json:"date"`
}

// LineItem is a single charge on a cash bill.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unitPrice"`
}

// CashBill is the billing document a BillSummary is taken from.
type CashBill struct {
	BillNumber string     `json:"billNumber"`
	IssueDate  Date       `json:"issueDate"`
	DueDate    Date       `json:"dueDate"`
	Items      []LineItem `json:"items"`
	Tax        Money      `json:"tax"`
	Discount   Money      `json:"discount"`
	Notes      string     `json:"notes"`
}

// NewBillNumber derives a bill number from the last six digits of the
// millisecond clock, e.g. CB-482913.
func NewBillNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "CB-" + ms
}

// NewCashBill returns a bill with a fresh number, a 30 day due date and the
// default premium line.
func NewCashBill(now time.Time) CashBill {
	issue := DateOf(now)
	return CashBill{
		BillNumber: NewBillNumber(now),
		IssueDate:  issue,
		DueDate:    Date{Time: issue.AddDate(0, 0, 30)},
		Items: []LineItem{
			{Description: "Insurance Premium", Quantity: 1, UnitPrice: Money{Cents: 50000}},
		},
	}
}

func (li LineItem) Total() Money {
	return li.UnitPrice.Times(li.Quantity)
}

func (b CashBill) Subtotal() Money {
	var sum Money
	for _, it := range b.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}

// Total is subtotal plus tax minus discount, floored at zero.
func (b CashBill) Total() Money {
	t := b.Subtotal().Add(b.Tax).Sub(b.Discount)
	if t.Cents < 0 {
		return Money{}
	}
	return t
}

// Validate returns ErrEmptyBill or ErrInvalidAmount. No amount on the bill
// may exceed MaxBillAmount.
func (b CashBill) Validate() error {
	if strings.TrimSpace(b.BillNumber) == "" {
		return ErrEmptyBill
	}
	if len(b.Items) == 0 {
		return ErrEmptyBill
	}
	limit := MaxBillAmount.Cents
	var subtotal int64
	for _, it := range b.Items {
		if it.Quantity < 0 {
			return ErrInvalidAmount
		}
		if err := it.UnitPrice.Validate(); err != nil {
			return err
		}
		if it.UnitPrice.Cents > 0 && int64(it.Quantity) > limit/it.UnitPrice.Cents {
			return fmt.Errorf("%w: line %q exceeds %s", ErrInvalidAmount, it.Description, MaxBillAmount)
		}
		subtotal += it.Total().Cents
		if subtotal > limit {
			return fmt.Errorf("%w: subtotal exceeds %s", ErrInvalidAmount, MaxBillAmount)
		}
	}
	for _, m := range []Money{b.Tax, b.Discount} {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.Cents > limit {
			return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, m, MaxBillAmount)
		}
	}
	return nil
}
