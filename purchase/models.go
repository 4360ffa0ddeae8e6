package purchase

import "time"

// PaymentStatus tracks settlement of a purchase request's payment.
type PaymentStatus string

const (
	PaymentNone      PaymentStatus = "none"
	PaymentCompleted PaymentStatus = "completed"
)

// Request is a tenant's application to buy a rented property from its
// landlord. Monetary amounts are integer cents; the purchase price is fixed
// at creation and never recomputed, even if the property's rent changes.
type Request struct {
	ID                 string
	PropertyID         string
	TenantID           string
	LandlordID         string
	RequestDate        time.Time
	Status             Status
	ResponseDate       *time.Time
	ResponseNotes      *string
	PurchasePriceCents int64
	GatewayOrderID     *string
	GatewayPaymentID   *string
	GatewaySignature   *string
	PaymentStatus      PaymentStatus
	PaymentDate        *time.Time
	InvoiceURL         *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Page addresses one page of a listing query.
type Page struct {
	Number int
	Size   int
}

// ListResult bundles one page of requests with the total match count.
type ListResult struct {
	Items []Request
	Total int
}

// Rent-to-price policy: a purchase offer is priced at twelve months of rent.
const priceMonths = 12
