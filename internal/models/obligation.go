package models

import "time"

// Periodicity is how often an obligation recurs.
type Periodicity string

const (
	PeriodicityMonthly   Periodicity = "monthly"
	PeriodicityQuarterly Periodicity = "quarterly"
	PeriodicityAnnual    Periodicity = "annual"
)

// Valid reports whether the periodicity is one of the known values.
func (p Periodicity) Valid() bool {
	switch p {
	case PeriodicityMonthly, PeriodicityQuarterly, PeriodicityAnnual:
		return true
	}
	return false
}

// Obligation represents a recurring tax or administrative payment (VAT,
// social security, IMI, ...) not tied to a specific establishment.
type Obligation struct {
	ID   int64
	Name string

	Periodicity Periodicity

	// StartDay and EndDay delimit the due day of month. The end day takes
	// precedence when both are set; an obligation with neither is never due.
	StartDay *int
	EndDay   *int

	Notes     string
	CreatedAt time.Time
}

// DueDay returns the effective due day of month and whether one is set.
func (o *Obligation) DueDay() (int, bool) {
	if o.EndDay != nil && *o.EndDay > 0 {
		return *o.EndDay, true
	}
	if o.StartDay != nil && *o.StartDay > 0 {
		return *o.StartDay, true
	}
	return 0, false
}
