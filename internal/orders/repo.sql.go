package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/besy-hub/besy-orders/internal/shared"
)

// Repository provides the PostgreSQL backed order listing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Sortable listing columns keyed by their API field name.
var sortColumns = map[string]string{
	"order_number":           "order_number",
	"title":                  "title",
	"status":                 "status",
	"owner_id":               "owner_id",
	"primary_cost_center_id": "primary_cost_center_id",
	"supplier_id":            "supplier_id",
	"quote_price":            "quote_price",
	"booking_year":           "booking_year",
	"created_date":           "created_date",
}

// ListOrders runs the listing query for one page.
func (r *Repository) ListOrders(ctx context.Context, page, size int, sort []string, filters ListFilters, search string) (Page, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	addIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", column, argPos))
		args = append(args, values)
		argPos++
	}
	addInInt := func(column string, values []string) {
		ids := int64Slice(values)
		if len(ids) == 0 {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", column, argPos))
		args = append(args, ids)
		argPos++
	}

	addInInt("primary_cost_center_id", filters.PrimaryCostCenterIDs)
	addIn("owner_id", filters.OwnerIDs)
	addInInt("delivery_person_id", filters.DeliveryPersonIDs)
	addInInt("invoice_person_id", filters.InvoicePersonIDs)
	addInInt("queries_person_id", filters.QueriesPersonIDs)
	addIn("status", filters.Statuses)
	addInInt("supplier_id", filters.SupplierIDs)
	addIn("booking_year", filters.BookingYears)

	if filters.CreatedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_date >= $%d", argPos))
		args = append(args, *filters.CreatedFrom)
		argPos++
	}
	if filters.CreatedTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_date <= $%d", argPos))
		args = append(args, *filters.CreatedTo)
		argPos++
	}
	if filters.QuotePriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("quote_price >= $%d", argPos))
		args = append(args, *filters.QuotePriceMin)
		argPos++
	}
	if filters.QuotePriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("quote_price <= $%d", argPos))
		args = append(args, *filters.QuotePriceMax)
		argPos++
	}
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(order_number ILIKE $%d OR title ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM purchase_orders %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	pagination := shared.NewPagination(page, size, total)
	query := fmt.Sprintf(`
		SELECT id, order_number, title, status, owner_id,
		       COALESCE(primary_cost_center_id, 0), COALESCE(supplier_id, 0),
		       COALESCE(delivery_person_id, 0), COALESCE(invoice_person_id, 0),
		       COALESCE(queries_person_id, 0), quote_price, booking_year, created_date
		FROM purchase_orders
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderByClause(sort), argPos, argPos+1)
	args = append(args, pagination.Size, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	content := make([]Order, 0, pagination.Size)
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Title, &o.Status, &o.OwnerID,
			&o.PrimaryCostCenterID, &o.SupplierID,
			&o.DeliveryPersonID, &o.InvoicePersonID,
			&o.QueriesPersonID, &o.QuotePrice, &o.BookingYear, &o.CreatedDate,
		); err != nil {
			return Page{}, err
		}
		content = append(content, o)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{
		Content:       content,
		TotalElements: pagination.Total,
		TotalPages:    pagination.TotalPages,
		Page:          pagination.Page,
		Size:          pagination.Size,
	}, nil
}

// orderByClause builds the ORDER BY from "field,asc|desc" directives,
// silently skipping unknown fields.
func orderByClause(sort []string) string {
	var parts []string
	for _, directive := range sort {
		field, dir, _ := strings.Cut(directive, ",")
		column, ok := sortColumns[field]
		if !ok {
			continue
		}
		if strings.EqualFold(dir, "desc") {
			column += " DESC"
		}
		parts = append(parts, column)
	}
	if len(parts) == 0 {
		return "ORDER BY created_date DESC, id DESC"
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

func int64Slice(values []string) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
