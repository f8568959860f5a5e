package models

// Settlement represents a direct repayment between two users.
// Settlements are append-only from the ledger engine's point of view.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// Amount is the repayment amount in minor units (cents). Positive.
	Amount int64

	// Date is the Unix timestamp the settlement is recorded for.
	Date int64

	// PaidByUserID is the user who paid (debtor settling up).
	PaidByUserID string

	// ReceivedByUserID is the user who received the payment.
	ReceivedByUserID string

	// GroupID scopes the settlement to a group. Empty means a one-on-one
	// settlement between the two users.
	GroupID string

	// CreatedBy is the user who recorded this settlement.
	CreatedBy string

	// Note is an optional description.
	Note string
}
