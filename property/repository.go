package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested property does not exist.
var ErrNotFound = errors.New("property: not found")

// Repository provides access to property records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `id, title, address, city, state, property_type, bedrooms, bathrooms, monthly_rent_cents, available, landlord_id, created_at, updated_at`

// GetByID fetches a property by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	p, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, fmt.Errorf("property: query by id: %w", err)
	}

	return p, nil
}

// SetAvailable flips the availability flag. The update is a plain flag set so
// retrying it after a partial failure is safe.
func (r *Repository) SetAvailable(ctx context.Context, id string, available bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE properties
		SET available = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, available)
	if err != nil {
		return fmt.Errorf("property: set available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List fetches properties matching the filters, newest first, with a total
// count for pagination.
func (r *Repository) List(ctx context.Context, filters Filters) ([]Property, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}

	if filters.City != "" {
		where = append(where, fmt.Sprintf("city=$%d", len(args)+1))
		args = append(args, filters.City)
	}
	if filters.LandlordID != "" {
		where = append(where, fmt.Sprintf("landlord_id=$%d", len(args)+1))
		args = append(args, filters.LandlordID)
	}
	if filters.AvailableOnly {
		where = append(where, "available")
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM properties%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		propertyColumns, whereClause, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("property: list: %w", err)
	}
	defer rows.Close()

	list := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("property: scan: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("property: iterate: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM properties%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("property: count: %w", err)
	}

	return list, total, nil
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	return p, row.Scan(
		&p.ID,
		&p.Title,
		&p.Address,
		&p.City,
		&p.State,
		&p.PropertyType,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.MonthlyRentCents,
		&p.Available,
		&p.LandlordID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
