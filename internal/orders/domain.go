// Package orders exposes the order listing consumed by the admin table page,
// fronted by a short-lived in-process cache.
package orders

import (
	"time"

	"github.com/besy-hub/besy-orders/internal/filter"
)

// Status enumerates order workflow states.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOrdered    Status = "ORDERED"
	StatusDelivered  Status = "DELIVERED"
	StatusInvoiced   Status = "INVOICED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every workflow state in progression order.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusInProgress,
		StatusOrdered,
		StatusDelivered,
		StatusInvoiced,
		StatusCompleted,
		StatusCancelled,
	}
}

// Order is one purchase order row of the listing.
type Order struct {
	ID                  int64     `json:"id"`
	OrderNumber         string    `json:"order_number"`
	Title               string    `json:"title"`
	Status              Status    `json:"status"`
	OwnerID             string    `json:"owner_id"`
	PrimaryCostCenterID int64     `json:"primary_cost_center_id"`
	SupplierID          int64     `json:"supplier_id"`
	DeliveryPersonID    int64     `json:"delivery_person_id"`
	InvoicePersonID     int64     `json:"invoice_person_id"`
	QueriesPersonID     int64     `json:"queries_person_id"`
	QuotePrice          float64   `json:"quote_price"`
	BookingYear         string    `json:"booking_year"`
	CreatedDate         time.Time `json:"created_date"`
}

// Page is the standard page envelope of the listing endpoint.
type Page struct {
	Content       []Order `json:"content"`
	TotalElements int64   `json:"total_elements"`
	TotalPages    int     `json:"total_pages"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
}

// ListFilters carries the per-field listing parameters: id arrays for chip
// based fields, scalar bounds for date and numeric fields. Field tags match
// the listing endpoint's query parameters.
type ListFilters struct {
	PrimaryCostCenterIDs []string   `json:"primary_cost_center_id,omitempty"`
	OwnerIDs             []string   `json:"owner_id,omitempty"`
	DeliveryPersonIDs    []string   `json:"delivery_person_id,omitempty"`
	InvoicePersonIDs     []string   `json:"invoice_person_id,omitempty"`
	QueriesPersonIDs     []string   `json:"queries_person_id,omitempty"`
	Statuses             []string   `json:"status,omitempty"`
	SupplierIDs          []string   `json:"supplier_id,omitempty"`
	BookingYears         []string   `json:"booking_year,omitempty"`
	CreatedFrom          *time.Time `json:"created_from,omitempty"`
	CreatedTo            *time.Time `json:"created_to,omitempty"`
	QuotePriceMin        *float64   `json:"quote_price_min,omitempty"`
	QuotePriceMax        *float64   `json:"quote_price_max,omitempty"`
}

// FiltersFromActive translates the live active-filter value into listing
// parameters.
func FiltersFromActive(active filter.ActiveFilters) ListFilters {
	var out ListFilters
	out.PrimaryCostCenterIDs = active.SelectedChipIDs(filter.FieldPrimaryCostCenter)
	out.OwnerIDs = active.SelectedChipIDs(filter.FieldOwner)
	out.DeliveryPersonIDs = active.SelectedChipIDs(filter.FieldDeliveryPerson)
	out.InvoicePersonIDs = active.SelectedChipIDs(filter.FieldInvoicePerson)
	out.QueriesPersonIDs = active.SelectedChipIDs(filter.FieldQueriesPerson)
	out.Statuses = active.SelectedChipIDs(filter.FieldStatus)
	out.SupplierIDs = active.SelectedChipIDs(filter.FieldSupplier)
	out.BookingYears = active.SelectedChipIDs(filter.FieldBookingYear)
	if dr, ok := active.DateRanges[filter.FieldCreatedDate]; ok && !dr.IsZero() {
		out.CreatedFrom = dr.Start
		out.CreatedTo = dr.End
	}
	if nr, ok := active.Ranges[filter.FieldQuotePrice]; ok {
		if spec, found := filter.FieldByName(filter.FieldQuotePrice); !found || nr != spec.DefaultRange() {
			min, max := nr.Start, nr.End
			out.QuotePriceMin = &min
			out.QuotePriceMax = &max
		}
	}
	return out
}
