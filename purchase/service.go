package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propertyflow/gateway"
	"propertyflow/property"
)

var (
	// ErrInvalidState signals the operation is not legal from the request's
	// current status: double decisions, replayed payment callbacks, and
	// post-completion cancellations all land here.
	ErrInvalidState = errors.New("purchase: invalid state")
	// ErrForbidden signals the acting identity is not a party to the request.
	ErrForbidden = errors.New("purchase: forbidden")
	// ErrVerificationFailed signals the payment signature did not check out.
	// The request stays payment-pending so a corrected callback can succeed.
	ErrVerificationFailed = errors.New("purchase: payment verification failed")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PropertyDirectory is the slice of the property service the workflow needs:
// lookups at creation and the availability flip at settlement.
type PropertyDirectory interface {
	GetByID(ctx context.Context, id string) (property.Property, error)
	SetAvailable(ctx context.Context, id string, available bool) error
}

// Workflow owns the purchase request state machine. Every mutation loads the
// row under a FOR UPDATE lock inside one transaction, so concurrent calls
// against the same request serialize while distinct requests proceed in
// parallel.
type Workflow struct {
	pool        TxBeginner
	repo        Repository
	properties  PropertyDirectory
	payments    gateway.Client
	idGenerator func() string
	now         func() time.Time
}

// NewWorkflow wires the purchase workflow and its collaborators.
func NewWorkflow(pool TxBeginner, repo Repository, properties PropertyDirectory, payments gateway.Client) *Workflow {
	return &Workflow{
		pool:        pool,
		repo:        repo,
		properties:  properties,
		payments:    payments,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithIDGenerator overrides request id generation, mainly for tests.
func (w *Workflow) WithIDGenerator(gen func() string) *Workflow {
	w.idGenerator = gen
	return w
}

// WithClock overrides the time source, mainly for tests.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// Create opens a purchase request for an available property. The purchase
// price is fixed here as twelve months of the property's current rent and is
// never recomputed afterwards. The landlord is captured from the property
// record, not re-derived later.
func (w *Workflow) Create(ctx context.Context, propertyID, tenantID string) (Request, error) {
	if propertyID == "" {
		return Request{}, fmt.Errorf("purchase: missing property id")
	}
	if tenantID == "" {
		return Request{}, fmt.Errorf("purchase: missing tenant id")
	}

	prop, err := w.properties.GetByID(ctx, propertyID)
	if err != nil {
		return Request{}, err
	}
	if !prop.Available {
		return Request{}, fmt.Errorf("%w: property %s is not available for purchase", ErrInvalidState, propertyID)
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req := Request{
		ID:                 w.idGenerator(),
		PropertyID:         prop.ID,
		TenantID:           tenantID,
		LandlordID:         prop.LandlordID,
		RequestDate:        w.now(),
		Status:             StatusPending,
		PurchasePriceCents: prop.MonthlyRentCents * priceMonths,
		PaymentStatus:      PaymentNone,
	}

	created, err := w.repo.Create(ctx, tx, req)
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("purchase: commit create: %w", err)
	}

	return created, nil
}

// DecideParams carries a landlord's approve/reject decision.
type DecideParams struct {
	RequestID  string
	ActorID    string
	NextStatus Status
	Notes      string
}

// Decide records the landlord's decision on a pending request. Only the
// request's landlord may decide, and only once.
func (w *Workflow) Decide(ctx context.Context, params DecideParams) (Request, error) {
	if params.RequestID == "" {
		return Request{}, fmt.Errorf("purchase: missing request id")
	}
	if params.NextStatus != StatusApproved && params.NextStatus != StatusRejected {
		return Request{}, fmt.Errorf("%w: decision must be %s or %s", ErrInvalidState, StatusApproved, StatusRejected)
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := w.repo.GetForUpdate(ctx, tx, params.RequestID)
	if err != nil {
		return Request{}, err
	}
	if req.LandlordID != params.ActorID {
		return Request{}, fmt.Errorf("%w: only the landlord may decide request %s", ErrForbidden, req.ID)
	}
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("%w: request %s already decided (status=%s)", ErrInvalidState, req.ID, req.Status)
	}

	updated, err := w.repo.RecordDecision(ctx, tx, req.ID, params.NextStatus, params.Notes, w.now())
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("purchase: commit decision: %w", err)
	}

	return updated, nil
}

// InitiatePayment creates a provider order for an approved request. The
// status only advances after the provider call succeeds, so a gateway failure
// leaves the request approved and retryable.
func (w *Workflow) InitiatePayment(ctx context.Context, requestID, actorID string) (Request, error) {
	if requestID == "" {
		return Request{}, fmt.Errorf("purchase: missing request id")
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := w.repo.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.TenantID != actorID {
		return Request{}, fmt.Errorf("%w: only the tenant may pay for request %s", ErrForbidden, req.ID)
	}
	if req.Status != StatusApproved {
		return Request{}, fmt.Errorf("%w: cannot initiate payment from status %s", ErrInvalidState, req.Status)
	}

	orderID, err := w.payments.CreateOrder(ctx, gateway.OrderParams{
		AmountCents: req.PurchasePriceCents,
		Currency:    "INR",
		Receipt:     req.ID,
		Notes: map[string]string{
			"property_id": req.PropertyID,
			"tenant_id":   req.TenantID,
		},
	})
	if err != nil {
		return Request{}, err
	}

	updated, err := w.repo.RecordOrder(ctx, tx, req.ID, orderID)
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("purchase: commit order: %w", err)
	}

	return updated, nil
}

// ProcessPayment settles a payment-pending request from a gateway completion
// callback. The signature is verified against the stored order id before any
// write. A replayed callback for an already-settled request fails with
// ErrInvalidState rather than being re-applied; a bad signature fails with
// ErrVerificationFailed and leaves the request payment-pending.
//
// The property availability flip happens only after the settlement commits.
// If the flip fails, the committed request is returned together with the
// error so the caller can retry the flip; re-running it is a plain flag set.
func (w *Workflow) ProcessPayment(ctx context.Context, requestID, paymentID, signature string) (Request, error) {
	if requestID == "" {
		return Request{}, fmt.Errorf("purchase: missing request id")
	}
	if paymentID == "" || signature == "" {
		return Request{}, fmt.Errorf("purchase: missing payment id or signature")
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := w.repo.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPaymentPending {
		return Request{}, fmt.Errorf("%w: cannot process payment from status %s", ErrInvalidState, req.Status)
	}
	if req.GatewayOrderID == nil || *req.GatewayOrderID == "" {
		return Request{}, fmt.Errorf("%w: request %s has no gateway order", ErrInvalidState, req.ID)
	}

	if !w.payments.VerifyPaymentSignature(*req.GatewayOrderID, paymentID, signature) {
		return Request{}, fmt.Errorf("%w: signature mismatch for order %s", ErrVerificationFailed, *req.GatewayOrderID)
	}

	updated, err := w.repo.RecordSettlement(ctx, tx, SettlementParams{
		RequestID: req.ID,
		PaymentID: paymentID,
		Signature: signature,
		PaidAt:    w.now(),
	})
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("purchase: commit settlement: %w", err)
	}

	if err := w.properties.SetAvailable(ctx, updated.PropertyID, false); err != nil {
		return updated, fmt.Errorf("purchase: payment settled but property %s not marked unavailable, retry the flip: %w", updated.PropertyID, err)
	}

	return updated, nil
}

// Cancel moves a request to cancelled from any state the lifecycle graph
// allows. A completed purchase cannot be unwound here.
func (w *Workflow) Cancel(ctx context.Context, requestID, actorID string) (Request, error) {
	if requestID == "" {
		return Request{}, fmt.Errorf("purchase: missing request id")
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("purchase: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := w.repo.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.TenantID != actorID && req.LandlordID != actorID {
		return Request{}, fmt.Errorf("%w: only a party to request %s may cancel it", ErrForbidden, req.ID)
	}
	if !req.Status.CanTransitionTo(StatusCancelled) {
		return Request{}, fmt.Errorf("%w: cannot cancel request in status %s", ErrInvalidState, req.Status)
	}

	updated, err := w.repo.UpdateStatus(ctx, tx, req.ID, StatusCancelled)
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, fmt.Errorf("purchase: commit cancel: %w", err)
	}

	return updated, nil
}

// Get fetches a request visible to the given actor. Tenant and landlord of
// the request are its only parties.
func (w *Workflow) Get(ctx context.Context, requestID, actorID string) (Request, error) {
	req, err := w.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.TenantID != actorID && req.LandlordID != actorID {
		return Request{}, fmt.Errorf("%w: request %s does not involve this caller", ErrForbidden, requestID)
	}
	return req, nil
}

// TenantRequests returns all requests opened by the tenant.
func (w *Workflow) TenantRequests(ctx context.Context, tenantID string) ([]Request, error) {
	return w.repo.ListByTenant(ctx, tenantID)
}

// TenantRequestsPage returns one page of the tenant's requests.
func (w *Workflow) TenantRequestsPage(ctx context.Context, tenantID string, page Page) (ListResult, error) {
	return w.repo.PageByTenant(ctx, tenantID, page)
}

// LandlordRequests returns all requests addressed to the landlord.
func (w *Workflow) LandlordRequests(ctx context.Context, landlordID string) ([]Request, error) {
	return w.repo.ListByLandlord(ctx, landlordID)
}

// LandlordRequestsPage returns one page of the landlord's incoming requests.
func (w *Workflow) LandlordRequestsPage(ctx context.Context, landlordID string, page Page) (ListResult, error) {
	return w.repo.PageByLandlord(ctx, landlordID, page)
}

// IsPending reports whether the request currently awaits a decision.
func (w *Workflow) IsPending(ctx context.Context, requestID string) (bool, error) {
	return w.hasStatus(ctx, requestID, StatusPending)
}

// IsApproved reports whether the landlord approved the request.
func (w *Workflow) IsApproved(ctx context.Context, requestID string) (bool, error) {
	return w.hasStatus(ctx, requestID, StatusApproved)
}

// IsRejected reports whether the landlord rejected the request.
func (w *Workflow) IsRejected(ctx context.Context, requestID string) (bool, error) {
	return w.hasStatus(ctx, requestID, StatusRejected)
}

// IsCancelled reports whether the request was cancelled.
func (w *Workflow) IsCancelled(ctx context.Context, requestID string) (bool, error) {
	return w.hasStatus(ctx, requestID, StatusCancelled)
}

// IsPaymentCompleted reports whether the purchase settled.
func (w *Workflow) IsPaymentCompleted(ctx context.Context, requestID string) (bool, error) {
	return w.hasStatus(ctx, requestID, StatusPaymentCompleted)
}

func (w *Workflow) hasStatus(ctx context.Context, requestID string, status Status) (bool, error) {
	req, err := w.repo.GetByID(ctx, requestID)
	if err != nil {
		return false, err
	}
	return req.Status == status, nil
}
