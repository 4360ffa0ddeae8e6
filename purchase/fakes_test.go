package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"propertyflow/gateway"
	"propertyflow/property"
)

// fakePool hands out fakeTx instances and remembers the last one so tests can
// assert on commit/rollback behavior.
type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}

// fakeStore keeps requests in memory. Writes apply immediately; the fakes do
// not model transactional rollback, tests assert on commit flags instead.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]Request
	creates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]Request{}}
}

func (s *fakeStore) Create(ctx context.Context, tx pgx.Tx, req Request) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	req.CreatedAt = req.RequestDate
	req.UpdatedAt = req.RequestDate
	s.byID[req.ID] = req
	return req, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Request, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeStore) RecordDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string, at time.Time) (Request, error) {
	return s.mutate(id, func(req *Request) {
		req.Status = status
		req.ResponseDate = &at
		if notes != "" {
			req.ResponseNotes = &notes
		}
	})
}

func (s *fakeStore) RecordOrder(ctx context.Context, tx pgx.Tx, id string, orderID string) (Request, error) {
	return s.mutate(id, func(req *Request) {
		req.Status = StatusPaymentPending
		req.GatewayOrderID = &orderID
	})
}

func (s *fakeStore) RecordSettlement(ctx context.Context, tx pgx.Tx, params SettlementParams) (Request, error) {
	return s.mutate(params.RequestID, func(req *Request) {
		req.Status = StatusPaymentCompleted
		req.PaymentStatus = PaymentCompleted
		req.GatewayPaymentID = &params.PaymentID
		req.GatewaySignature = &params.Signature
		paidAt := params.PaidAt
		req.PaymentDate = &paidAt
	})
}

func (s *fakeStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Request, error) {
	return s.mutate(id, func(req *Request) {
		req.Status = status
	})
}

func (s *fakeStore) ListByTenant(ctx context.Context, tenantID string) ([]Request, error) {
	return s.filter(func(req Request) bool { return req.TenantID == tenantID }), nil
}

func (s *fakeStore) PageByTenant(ctx context.Context, tenantID string, page Page) (ListResult, error) {
	items := s.filter(func(req Request) bool { return req.TenantID == tenantID })
	return ListResult{Items: items, Total: len(items)}, nil
}

func (s *fakeStore) ListByLandlord(ctx context.Context, landlordID string) ([]Request, error) {
	return s.filter(func(req Request) bool { return req.LandlordID == landlordID }), nil
}

func (s *fakeStore) PageByLandlord(ctx context.Context, landlordID string, page Page) (ListResult, error) {
	items := s.filter(func(req Request) bool { return req.LandlordID == landlordID })
	return ListResult{Items: items, Total: len(items)}, nil
}

func (s *fakeStore) mutate(id string, apply func(*Request)) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	apply(&req)
	s.byID[id] = req
	return req, nil
}

func (s *fakeStore) filter(keep func(Request) bool) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Request{}
	for _, req := range s.byID {
		if keep(req) {
			out = append(out, req)
		}
	}
	return out
}

// fakeDirectory is an in-memory property directory.
type fakeDirectory struct {
	mu         sync.Mutex
	byID       map[string]property.Property
	flipErr    error
	flipCalls  int
	lastFlipID string
}

func newFakeDirectory(props ...property.Property) *fakeDirectory {
	d := &fakeDirectory{byID: map[string]property.Property{}}
	for _, p := range props {
		d.byID[p.ID] = p
	}
	return d
}

func (d *fakeDirectory) GetByID(ctx context.Context, id string) (property.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return property.Property{}, property.ErrNotFound
	}
	return p, nil
}

func (d *fakeDirectory) SetAvailable(ctx context.Context, id string, available bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flipCalls++
	d.lastFlipID = id
	if d.flipErr != nil {
		return d.flipErr
	}
	p, ok := d.byID[id]
	if !ok {
		return property.ErrNotFound
	}
	p.Available = available
	d.byID[id] = p
	return nil
}

func (d *fakeDirectory) available(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byID[id].Available
}

// fakeGateway signs orders deterministically so tests can present valid and
// invalid signatures.
type fakeGateway struct {
	mu        sync.Mutex
	orders    int
	createErr error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, params gateway.OrderParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	g.orders++
	return fmt.Sprintf("order_%d", g.orders), nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == validSignature(orderID, paymentID)
}

func validSignature(orderID, paymentID string) string {
	return "sig:" + orderID + "|" + paymentID
}
