package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that no purchase request exists for the identifier.
var ErrNotFound = errors.New("purchase: not found")

// Repository defines durable storage for purchase requests. It carries no
// business validation; legality of writes is the workflow's concern.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, req Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Request, error)
	RecordDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string, at time.Time) (Request, error)
	RecordOrder(ctx context.Context, tx pgx.Tx, id string, orderID string) (Request, error)
	RecordSettlement(ctx context.Context, tx pgx.Tx, params SettlementParams) (Request, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Request, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Request, error)
	PageByTenant(ctx context.Context, tenantID string, page Page) (ListResult, error)
	ListByLandlord(ctx context.Context, landlordID string) ([]Request, error)
	PageByLandlord(ctx context.Context, landlordID string, page Page) (ListResult, error)
}

// SettlementParams enumerates the writes applied when a payment is verified.
type SettlementParams struct {
	RequestID string
	PaymentID string
	Signature string
	PaidAt    time.Time
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requestColumns = `id, property_id, tenant_id, landlord_id, request_date, status, response_date, response_notes,
	purchase_price_cents, gateway_order_id, gateway_payment_id, gateway_signature, payment_status, payment_date,
	invoice_url, created_at, updated_at`

// Create inserts a new purchase request row.
func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, req Request) (Request, error) {
	query := fmt.Sprintf(`
		INSERT INTO purchase_requests (id, property_id, tenant_id, landlord_id, request_date, status,
			purchase_price_cents, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s
	`, requestColumns)

	row := tx.QueryRow(ctx, query,
		req.ID,
		req.PropertyID,
		req.TenantID,
		req.LandlordID,
		req.RequestDate,
		req.Status,
		req.PurchasePriceCents,
		req.PaymentStatus,
	)

	created, err := scanRequest(row)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: insert: %w", err)
	}
	return created, nil
}

// GetByID fetches a purchase request without locking it.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE id = $1`, requestColumns)

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("purchase: get by id: %w", err)
	}
	return req, nil
}

// GetForUpdate fetches a purchase request and takes a row lock so the caller's
// precondition check and subsequent write are atomic for this request id.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE id = $1 FOR UPDATE`, requestColumns)

	req, err := scanRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("purchase: get for update: %w", err)
	}
	return req, nil
}

// RecordDecision stores the landlord's approve/reject outcome.
func (r *PGRepository) RecordDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string, at time.Time) (Request, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_requests
		SET status = $2,
		    response_date = $3,
		    response_notes = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, requestColumns)

	req, err := scanRequest(tx.QueryRow(ctx, query, id, status, at, nullableString(notes)))
	if err != nil {
		return Request{}, fmt.Errorf("purchase: record decision: %w", err)
	}
	return req, nil
}

// RecordOrder stores the provider order id and advances to payment pending.
func (r *PGRepository) RecordOrder(ctx context.Context, tx pgx.Tx, id string, orderID string) (Request, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_requests
		SET status = $2,
		    gateway_order_id = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, requestColumns)

	req, err := scanRequest(tx.QueryRow(ctx, query, id, StatusPaymentPending, orderID))
	if err != nil {
		return Request{}, fmt.Errorf("purchase: record order: %w", err)
	}
	return req, nil
}

// RecordSettlement stores the verified payment and completes the request.
func (r *PGRepository) RecordSettlement(ctx context.Context, tx pgx.Tx, params SettlementParams) (Request, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_requests
		SET status = $2,
		    payment_status = $3,
		    gateway_payment_id = $4,
		    gateway_signature = $5,
		    payment_date = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, requestColumns)

	req, err := scanRequest(tx.QueryRow(ctx, query,
		params.RequestID,
		StatusPaymentCompleted,
		PaymentCompleted,
		params.PaymentID,
		params.Signature,
		params.PaidAt,
	))
	if err != nil {
		return Request{}, fmt.Errorf("purchase: record settlement: %w", err)
	}
	return req, nil
}

// UpdateStatus rewrites the status column only.
func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Request, error) {
	query := fmt.Sprintf(`
		UPDATE purchase_requests
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, requestColumns)

	req, err := scanRequest(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		return Request{}, fmt.Errorf("purchase: update status: %w", err)
	}
	return req, nil
}

// ListByTenant returns all of a tenant's requests, newest first.
func (r *PGRepository) ListByTenant(ctx context.Context, tenantID string) ([]Request, error) {
	return r.listBy(ctx, "tenant_id", tenantID)
}

// PageByTenant returns one page of a tenant's requests plus the total count.
func (r *PGRepository) PageByTenant(ctx context.Context, tenantID string, page Page) (ListResult, error) {
	return r.pageBy(ctx, "tenant_id", tenantID, page)
}

// ListByLandlord returns all of a landlord's incoming requests, newest first.
func (r *PGRepository) ListByLandlord(ctx context.Context, landlordID string) ([]Request, error) {
	return r.listBy(ctx, "landlord_id", landlordID)
}

// PageByLandlord returns one page of a landlord's requests plus the total count.
func (r *PGRepository) PageByLandlord(ctx context.Context, landlordID string, page Page) (ListResult, error) {
	return r.pageBy(ctx, "landlord_id", landlordID, page)
}

func (r *PGRepository) listBy(ctx context.Context, column, id string) ([]Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE %s = $1 ORDER BY created_at DESC`, requestColumns, column)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("purchase: list by %s: %w", column, err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (r *PGRepository) pageBy(ctx context.Context, column, id string, page Page) (ListResult, error) {
	if page.Number <= 0 {
		page.Number = 1
	}
	if page.Size <= 0 || page.Size > 100 {
		page.Size = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE %s = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		requestColumns, column, page.Size, (page.Number-1)*page.Size)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return ListResult{}, fmt.Errorf("purchase: page by %s: %w", column, err)
	}
	defer rows.Close()

	items, err := collectRequests(rows)
	if err != nil {
		return ListResult{}, err
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM purchase_requests WHERE %s = $1`, column)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("purchase: count by %s: %w", column, err)
	}

	return ListResult{Items: items, Total: total}, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	list := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("purchase: scan: %w", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("purchase: iterate: %w", err)
	}
	return list, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	return req, row.Scan(
		&req.ID,
		&req.PropertyID,
		&req.TenantID,
		&req.LandlordID,
		&req.RequestDate,
		&req.Status,
		&req.ResponseDate,
		&req.ResponseNotes,
		&req.PurchasePriceCents,
		&req.GatewayOrderID,
		&req.GatewayPaymentID,
		&req.GatewaySignature,
		&req.PaymentStatus,
		&req.PaymentDate,
		&req.InvoiceURL,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
