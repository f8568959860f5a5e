// Package models defines the core domain records for Splitr.
//
// # Records
//
//   - User: a registered account, referenced by ID everywhere else
//   - Expense: a shared expense with one payer and per-participant Splits
//   - Settlement: a direct repayment between two users outside any expense
//   - Group: a named set of members that expenses and settlements can belong to
//
// Expenses and settlements carry an optional GroupID. An empty GroupID means
// the record is a one-on-one transaction between two users; a non-empty one
// scopes it to a group. The ledger engine relies on this convention to keep
// two-person views and group views disjoint.
//
// # Design principles
//
//  1. Monetary amounts are int64 minor units (cents). Balance netting and the
//     conservation invariant require exact integer arithmetic.
//  2. Relationships use ID strings, never pointers, to avoid cycles.
//  3. Records are read-only snapshots from the engine's point of view; only
//     the storage layer mutates them.
package models
