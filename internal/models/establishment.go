package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstablishmentCategory identifies the kind of business unit.
type EstablishmentCategory string

const (
	CategoryRestaurant EstablishmentCategory = "restaurant"
	CategoryBar        EstablishmentCategory = "bar"
	CategoryApartment  EstablishmentCategory = "apartment"
)

// Valid reports whether the category is one of the known values.
func (c EstablishmentCategory) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryBar, CategoryApartment:
		return true
	}
	return false
}

// Establishment represents a managed business unit.
type Establishment struct {
	// ID is the storage-assigned identifier.
	ID int64

	// Name is the display name, unique across establishments. CSV import
	// resolves establishment columns against it with an exact match.
	Name string

	Category EstablishmentCategory

	// RentDay is the day of month (1-31) rent or recurring charges fall due.
	// Only meaningful for apartments; nil when not configured. Short months
	// clamp the effective date to their last day.
	RentDay *int

	// RentAmount is the configured monthly rent, if known.
	RentAmount *decimal.Decimal

	Active    bool
	CreatedAt time.Time
}

// IsApartment reports whether the establishment is an apartment.
func (e *Establishment) IsApartment() bool {
	return e.Category == CategoryApartment
}
