package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"propertyflow/property"
	"propertyflow/purchase"
	"propertyflow/user"
)

type requestResponse struct {
	ID                 string  `json:"id"`
	PropertyID         string  `json:"propertyId"`
	TenantID           string  `json:"tenantId"`
	LandlordID         string  `json:"landlordId"`
	RequestDate        string  `json:"requestDate"`
	Status             string  `json:"status"`
	ResponseDate       *string `json:"responseDate,omitempty"`
	ResponseNotes      *string `json:"responseNotes,omitempty"`
	PurchasePriceCents int64   `json:"purchasePriceCents"`
	GatewayOrderID     *string `json:"gatewayOrderId,omitempty"`
	PaymentStatus      string  `json:"paymentStatus"`
	PaymentDate        *string `json:"paymentDate,omitempty"`
	InvoiceURL         *string `json:"invoiceUrl,omitempty"`
}

func toRequestResponse(req purchase.Request) requestResponse {
	resp := requestResponse{
		ID:                 req.ID,
		PropertyID:         req.PropertyID,
		TenantID:           req.TenantID,
		LandlordID:         req.LandlordID,
		RequestDate:        req.RequestDate.UTC().Format(time.RFC3339),
		Status:             string(req.Status),
		ResponseNotes:      req.ResponseNotes,
		PurchasePriceCents: req.PurchasePriceCents,
		GatewayOrderID:     req.GatewayOrderID,
		PaymentStatus:      string(req.PaymentStatus),
		InvoiceURL:         req.InvoiceURL,
	}
	if req.ResponseDate != nil {
		v := req.ResponseDate.UTC().Format(time.RFC3339)
		resp.ResponseDate = &v
	}
	if req.PaymentDate != nil {
		v := req.PaymentDate.UTC().Format(time.RFC3339)
		resp.PaymentDate = &v
	}
	return resp
}

type listResponse struct {
	Items []requestResponse `json:"items"`
	Total int               `json:"total"`
}

type propertyResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Address          string `json:"address"`
	City             string `json:"city"`
	State            string `json:"state"`
	PropertyType     string `json:"propertyType"`
	Bedrooms         int    `json:"bedrooms"`
	Bathrooms        int    `json:"bathrooms"`
	MonthlyRentCents int64  `json:"monthlyRentCents"`
	Available        bool   `json:"available"`
	LandlordID       string `json:"landlordId"`
}

func toPropertyResponse(p property.Property) propertyResponse {
	return propertyResponse{
		ID:               p.ID,
		Title:            p.Title,
		Address:          p.Address,
		City:             p.City,
		State:            p.State,
		PropertyType:     string(p.PropertyType),
		Bedrooms:         p.Bedrooms,
		Bathrooms:        p.Bathrooms,
		MonthlyRentCents: p.MonthlyRentCents,
		Available:        p.Available,
		LandlordID:       p.LandlordID,
	}
}

type userResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByID(r.Context(), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Phone:    u.Phone,
		Role:     string(u.Role),
	})
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	if callerRole(r) != user.RoleTenant {
		writeError(w, http.StatusForbidden, "only tenants may open purchase requests")
		return
	}

	body, ok := readJSON[struct {
		PropertyID string `json:"propertyId"`
	}](w, r)
	if !ok {
		return
	}
	if body.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "propertyId is required")
		return
	}

	req, err := s.workflow.Create(r.Context(), body.PropertyID, callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestResponse(req))
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	if callerRole(r) != user.RoleLandlord {
		writeError(w, http.StatusForbidden, "only landlords may decide purchase requests")
		return
	}

	body, ok := readJSON[struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}](w, r)
	if !ok {
		return
	}

	status := purchase.Status(body.Status)
	if status != purchase.StatusApproved && status != purchase.StatusRejected {
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	req, err := s.workflow.Decide(r.Context(), purchase.DecideParams{
		RequestID:  chi.URLParam(r, "id"),
		ActorID:    callerID(r),
		NextStatus: status,
		Notes:      body.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	req, err := s.workflow.InitiatePayment(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[struct {
		PaymentID string `json:"gatewayPaymentId"`
		Signature string `json:"gatewaySignature"`
	}](w, r)
	if !ok {
		return
	}
	if body.PaymentID == "" || body.Signature == "" {
		writeError(w, http.StatusBadRequest, "gatewayPaymentId and gatewaySignature are required")
		return
	}

	req, err := s.workflow.ProcessPayment(r.Context(), chi.URLParam(r, "id"), body.PaymentID, body.Signature)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	req, err := s.workflow.Cancel(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.workflow.Get(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}

func (s *Server) handleTenantRequests(w http.ResponseWriter, r *http.Request) {
	result, err := s.workflow.TenantRequestsPage(r.Context(), callerID(r), pageFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(result))
}

func (s *Server) handleLandlordRequests(w http.ResponseWriter, r *http.Request) {
	if callerRole(r) != user.RoleLandlord {
		writeError(w, http.StatusForbidden, "only landlords have incoming purchase requests")
		return
	}

	result, err := s.workflow.LandlordRequestsPage(r.Context(), callerID(r), pageFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(result))
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPropertyResponse(p))
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	filters := property.Filters{
		City:          r.URL.Query().Get("city"),
		AvailableOnly: r.URL.Query().Get("available") == "true",
		Page:          page.Number,
		PageSize:      page.Size,
	}

	items, total, err := s.properties.List(r.Context(), filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := struct {
		Items []propertyResponse `json:"items"`
		Total int                `json:"total"`
	}{Items: make([]propertyResponse, 0, len(items)), Total: total}
	for _, p := range items {
		resp.Items = append(resp.Items, toPropertyResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

func toListResponse(result purchase.ListResult) listResponse {
	resp := listResponse{Items: make([]requestResponse, 0, len(result.Items)), Total: result.Total}
	for _, req := range result.Items {
		resp.Items = append(resp.Items, toRequestResponse(req))
	}
	return resp
}

func pageFromQuery(r *http.Request) purchase.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return purchase.Page{Number: number, Size: size}
}
