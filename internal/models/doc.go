// Package models defines the core domain records for Gestor.
//
// # Entities
//
//   - Establishment: a managed business unit (restaurant, bar or apartment)
//   - Supplier: a vendor that expenses can reference
//   - Employee: a worker optionally linked to an establishment
//   - Expense / Revenue: dated money movements
//   - Obligation: a recurring tax/administrative payment
//
// # Derived values
//
// AlertItem and AlertReport are transient classification results, and
// recurrence templates are inferred from historical rows on every call.
// Neither is ever persisted.
//
// # Design principles
//
//  1. Relationships are plain integer IDs, resolved through the storage
//     layer at read time. No entity owns another.
//  2. Optional fields are pointers, not zero-value sentinels.
//  3. Money is decimal.Decimal throughout; float64 never carries an amount.
package models
