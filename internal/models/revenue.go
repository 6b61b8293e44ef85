package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Revenue represents a dated incoming payment.
type Revenue struct {
	ID int64

	Date time.Time

	EstablishmentID *int64

	// Gross is the amount before fees, Fees what intermediaries kept and
	// Net what actually arrived. Net = Gross - Fees when all three are set.
	Gross decimal.Decimal
	Fees  decimal.Decimal
	Net   decimal.Decimal

	Notes     string
	CreatedAt time.Time
}
