package refdata

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reference collections.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CostCenters returns every active cost center.
func (r *Repository) CostCenters(ctx context.Context) ([]CostCenter, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM cost_centers WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var centers []CostCenter
	for rows.Next() {
		var cc CostCenter
		if err := rows.Scan(&cc.ID, &cc.Code, &cc.Name); err != nil {
			return nil, err
		}
		centers = append(centers, cc)
	}
	return centers, rows.Err()
}

// Users returns every staff account.
func (r *Repository) Users(ctx context.Context) ([]StaffUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, full_name FROM users WHERE is_active ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []StaffUser
	for rows.Next() {
		var u StaffUser
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Persons returns every contact person. The same collection serves the
// delivery, invoice and queries roles.
func (r *Repository) Persons(ctx context.Context) ([]Person, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM persons ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var persons []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// Suppliers returns every supplier.
func (r *Repository) Suppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}
