package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"propertyflow/property"
	"propertyflow/purchase"
	"propertyflow/user"
)

// PurchaseWorkflow is the slice of the purchase workflow the API exposes.
type PurchaseWorkflow interface {
	Create(ctx context.Context, propertyID, tenantID string) (purchase.Request, error)
	Decide(ctx context.Context, params purchase.DecideParams) (purchase.Request, error)
	InitiatePayment(ctx context.Context, requestID, actorID string) (purchase.Request, error)
	ProcessPayment(ctx context.Context, requestID, paymentID, signature string) (purchase.Request, error)
	Cancel(ctx context.Context, requestID, actorID string) (purchase.Request, error)
	Get(ctx context.Context, requestID, actorID string) (purchase.Request, error)
	TenantRequestsPage(ctx context.Context, tenantID string, page purchase.Page) (purchase.ListResult, error)
	LandlordRequestsPage(ctx context.Context, landlordID string, page purchase.Page) (purchase.ListResult, error)
}

// PropertyReader is the read surface of the property directory exposed here.
type PropertyReader interface {
	GetByID(ctx context.Context, id string) (property.Property, error)
	List(ctx context.Context, filters property.Filters) ([]property.Property, int, error)
}

// UserReader resolves caller identities to profile records.
type UserReader interface {
	GetByID(ctx context.Context, userID string) (user.User, error)
}

// Server routes API requests to the purchase workflow and its collaborators.
type Server struct {
	workflow   PurchaseWorkflow
	properties PropertyReader
	users      UserReader
	verifier   TokenVerifier
}

// NewServer wires the API server.
func NewServer(workflow PurchaseWorkflow, properties PropertyReader, users UserReader, verifier TokenVerifier) *Server {
	return &Server{
		workflow:   workflow,
		properties: properties,
		users:      users,
		verifier:   verifier,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Gateway completion callbacks authenticate through their signature, not
	// a bearer token.
	r.Post("/purchase-requests/{id}/payment/callback", s.handlePaymentCallback)

	r.Group(func(r chi.Router) {
		r.Use(requireIdentity(s.verifier))

		r.Get("/me", s.handleMe)

		r.Get("/properties", s.handleListProperties)
		r.Get("/properties/{id}", s.handleGetProperty)

		r.Post("/purchase-requests", s.handleCreateRequest)
		r.Get("/purchase-requests/mine", s.handleTenantRequests)
		r.Get("/purchase-requests/incoming", s.handleLandlordRequests)
		r.Get("/purchase-requests/{id}", s.handleGetRequest)
		r.Post("/purchase-requests/{id}/decision", s.handleDecision)
		r.Post("/purchase-requests/{id}/payment", s.handleInitiatePayment)
		r.Post("/purchase-requests/{id}/cancel", s.handleCancel)
	})

	return r
}
