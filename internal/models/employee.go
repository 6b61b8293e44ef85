package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType describes how an employee is paid.
type PaymentType string

const (
	PaymentFixed  PaymentType = "fixed"
	PaymentDaily  PaymentType = "daily"
	PaymentHourly PaymentType = "hourly"
)

// Employee represents a worker, optionally linked to an establishment.
// A fixed-pay employee linked to an establishment with a rent day is
// treated as salary-due on that day each month by the alert classifier.
type Employee struct {
	ID   int64
	Name string

	PaymentType PaymentType

	// BaseAmount is the salary for fixed employees, or the day/hour rate
	// for daily/hourly ones.
	BaseAmount decimal.Decimal

	// EstablishmentID links the employee to an establishment; nil for
	// unattached staff.
	EstablishmentID *int64

	Active    bool
	CreatedAt time.Time
}
