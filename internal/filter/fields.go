package filter

// FieldKind declares how a field is filtered.
type FieldKind string

const (
	KindChips     FieldKind = "chips"
	KindDateRange FieldKind = "dateRange"
	KindRange     FieldKind = "range"
)

// Filterable order field names.
const (
	FieldPrimaryCostCenter = "primary_cost_center_id"
	FieldOwner             = "owner_id"
	FieldDeliveryPerson    = "delivery_person_id"
	FieldInvoicePerson     = "invoice_person_id"
	FieldQueriesPerson     = "queries_person_id"
	FieldStatus            = "status"
	FieldSupplier          = "supplier_id"
	FieldCreatedDate       = "created_date"
	FieldQuotePrice        = "quote_price"
	FieldBookingYear       = "booking_year"
)

// Field describes one filterable order field. Min/Max are only meaningful
// for KindRange fields and seed the default NumericRange.
type Field struct {
	Name string
	Kind FieldKind
	Min  float64
	Max  float64
}

// DefaultRange returns the configured default numeric range.
func (f Field) DefaultRange() NumericRange {
	return NumericRange{Start: f.Min, End: f.Max}
}

var fields = []Field{
	{Name: FieldPrimaryCostCenter, Kind: KindChips},
	{Name: FieldOwner, Kind: KindChips},
	{Name: FieldDeliveryPerson, Kind: KindChips},
	{Name: FieldInvoicePerson, Kind: KindChips},
	{Name: FieldQueriesPerson, Kind: KindChips},
	{Name: FieldStatus, Kind: KindChips},
	{Name: FieldSupplier, Kind: KindChips},
	{Name: FieldCreatedDate, Kind: KindDateRange},
	{Name: FieldQuotePrice, Kind: KindRange, Min: 0, Max: 250000},
	{Name: FieldBookingYear, Kind: KindChips},
}

// Fields lists every filterable field in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldByName looks a field up by its order field name.
func FieldByName(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Table column ids known to the orders page.
var columnIDs = []string{
	"order_number",
	"title",
	"status",
	"owner",
	"primary_cost_center",
	"supplier",
	"delivery_person",
	"invoice_person",
	"queries_person",
	"quote_price",
	"booking_year",
	"created_date",
}

var defaultColumnIDs = []string{
	"order_number",
	"title",
	"status",
	"owner",
	"supplier",
	"created_date",
}

// ColumnIDs lists every column the orders table can show.
func ColumnIDs() []string {
	out := make([]string, len(columnIDs))
	copy(out, columnIDs)
	return out
}

// DefaultColumnIDs lists the columns visible before any customisation.
func DefaultColumnIDs() []string {
	out := make([]string, len(defaultColumnIDs))
	copy(out, defaultColumnIDs)
	return out
}
