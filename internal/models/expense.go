package models

// Split is one participant's assigned share of an expense.
type Split struct {
	// UserID identifies the participant this share belongs to.
	UserID string

	// Amount is this participant's share in minor units (cents).
	// Non-negative. The sum of an expense's split amounts should equal
	// the expense total; the storage layer validates this on write.
	Amount int64

	// Paid marks the share as settled. A paid split no longer
	// contributes to any balance.
	Paid bool
}

// Expense represents a shared expense paid by one user and split among
// participants. The payer always appears in Splits with their own share.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is a short human-readable label (e.g. "Groceries").
	Description string

	// Amount is the total expense amount in minor units (cents).
	Amount int64

	// Date is the Unix timestamp the expense is recorded for.
	// Used as the ordering key when listing.
	Date int64

	// PaidByUserID is the user who paid the full amount.
	PaidByUserID string

	// GroupID scopes the expense to a group. Empty means a one-on-one
	// expense between the payer and a single counterpart.
	GroupID string

	// SplitType records how the splits were produced ("equal",
	// "percentage", "exact"). Informational; balances only read the
	// resulting split amounts.
	SplitType string

	// CreatedBy is the user who recorded the expense. Only the creator
	// or the payer may delete it.
	CreatedBy string

	// Splits holds one share per participant, including the payer's own.
	Splits []Split
}

// SplitFor returns the split belonging to userID, or nil if the user has
// no share on this expense.
func (e *Expense) SplitFor(userID string) *Split {
	for i := range e.Splits {
		if e.Splits[i].UserID == userID {
			return &e.Splits[i]
		}
	}
	return nil
}

// Involves reports whether userID is the payer or holds a split.
func (e *Expense) Involves(userID string) bool {
	return e.PaidByUserID == userID || e.SplitFor(userID) != nil
}
