package property

import "time"

// Type categorises a listed property.
type Type string

const (
	TypeApartment Type = "apartment"
	TypeHouse     Type = "house"
	TypeCondo     Type = "condo"
	TypeCommercial Type = "commercial"
)

// Property is the directory's view of a listed property. Monetary amounts
// are integer cents so rent-derived prices multiply without rounding.
type Property struct {
	ID               string
	Title            string
	Address          string
	City             string
	State            string
	PropertyType     Type
	Bedrooms         int
	Bathrooms        int
	MonthlyRentCents int64
	Available        bool
	LandlordID       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filters narrows List results.
type Filters struct {
	City          string
	AvailableOnly bool
	LandlordID    string
	Page          int
	PageSize      int
}
