package preferences

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/besy-hub/besy-orders/internal/shared"
)

// Repository provides PostgreSQL backed persistence for preferences.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByUser returns every preference of the given type owned by the user.
func (r *Repository) ListByUser(ctx context.Context, userID, preferenceType string) ([]Preference, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, preference_type, preferences FROM user_preferences WHERE user_id=$1 AND preference_type=$2 ORDER BY id`,
		userID, preferenceType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var prefs []Preference
	for rows.Next() {
		var pref Preference
		if err := rows.Scan(&pref.ID, &pref.UserID, &pref.PreferenceType, &pref.Preferences); err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	return prefs, rows.Err()
}

// Create inserts a preference and returns it with the assigned id.
func (r *Repository) Create(ctx context.Context, pref Preference) (Preference, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_preferences (user_id, preference_type, preferences, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		pref.UserID, pref.PreferenceType, pref.Preferences, time.Now()).Scan(&pref.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "fk_user_preferences_user" {
			return Preference{}, shared.ErrNotFound
		}
		return Preference{}, err
	}
	return pref, nil
}

// Update overwrites the payload of an existing preference.
func (r *Repository) Update(ctx context.Context, id int64, pref Preference) (Preference, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE user_preferences SET preference_type=$2, preferences=$3, updated_at=$4 WHERE id=$1 RETURNING id, user_id, preference_type, preferences`,
		id, pref.PreferenceType, pref.Preferences, time.Now()).
		Scan(&pref.ID, &pref.UserID, &pref.PreferenceType, &pref.Preferences)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preference{}, shared.ErrNotFound
		}
		return Preference{}, err
	}
	return pref, nil
}

// Delete removes a preference by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_preferences WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
