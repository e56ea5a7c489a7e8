package orders

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/besy-hub/besy-orders/internal/platform/httpx"
)

// Handler exposes the cached order listing endpoint.
type Handler struct {
	logger *slog.Logger
	cache  *CachedLister
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, cache *CachedLister) *Handler {
	return &Handler{logger: logger, cache: cache}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 20
	}

	filters := ListFilters{
		PrimaryCostCenterIDs: q["primary_cost_center_id"],
		OwnerIDs:             q["owner_id"],
		DeliveryPersonIDs:    q["delivery_person_id"],
		InvoicePersonIDs:     q["invoice_person_id"],
		QueriesPersonIDs:     q["queries_person_id"],
		Statuses:             q["status"],
		SupplierIDs:          q["supplier_id"],
		BookingYears:         q["booking_year"],
	}
	if from, ok := parseTime(q.Get("created_from")); ok {
		filters.CreatedFrom = &from
	}
	if to, ok := parseTime(q.Get("created_to")); ok {
		filters.CreatedTo = &to
	}
	if min, ok := parseFloat(q.Get("quote_price_min")); ok {
		filters.QuotePriceMin = &min
	}
	if max, ok := parseFloat(q.Get("quote_price_max")); ok {
		filters.QuotePriceMax = &max
	}

	result, err := h.cache.AllOrders(r.Context(), page, size, q["sort"], filters, q.Get("search"))
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Listing Failed", "order listing backend unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
