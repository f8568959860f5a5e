// Package ledger computes who owes whom from expense and settlement records.
//
// The package exposes two pure functions: ComputePairwiseBalance for the
// running balance between two users, and ComputeGroupLedger for a group-wide
// pairwise-netted debt matrix with per-member summaries. Both operate on
// read-only snapshots, hold no state, perform no I/O, and are safe to call
// concurrently.
//
// Netting is strictly pairwise: opposite debts between the same two users
// collapse into one direction, but chains across three or more users are
// never simplified (A→B→C is not reduced to A→C).
//
// All amounts are int64 minor units so netting and the conservation
// invariant (group totals sum to zero) hold exactly.
package ledger
