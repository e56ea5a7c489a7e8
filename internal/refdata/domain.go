// Package refdata loads the read-only reference collections the filter menu
// builds its chip domains from.
package refdata

// CostCenter is one bookable cost center.
type CostCenter struct {
	ID   int64
	Code string
	Name string
}

// StaffUser is an account that can own orders.
type StaffUser struct {
	ID   string
	Name string
}

// Person is a contact usable in the delivery, invoice and queries roles.
type Person struct {
	ID   int64
	Name string
}

// Supplier is one supplier master record.
type Supplier struct {
	ID   int64
	Name string
}
