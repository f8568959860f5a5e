package ledger

import (
	"errors"
	"sort"

	"github.com/splitr-app/splitr/internal/models"
)

// ErrSameUser is returned when a pairwise balance is requested between a
// user and themself.
var ErrSameUser = errors.New("cannot compute a balance against yourself")

// PairwiseResult is the two-party balance view between self and other.
type PairwiseResult struct {
	// Balance is the signed net position in minor units.
	// Positive: other owes self. Negative: self owes other.
	Balance int64

	// Expenses are the qualifying one-on-one expenses, most recent first.
	Expenses []models.Expense

	// Settlements are the one-on-one settlements between the pair,
	// most recent first.
	Settlements []models.Settlement
}

// ComputePairwiseBalance computes the running balance between selfID and
// otherID from the supplied candidate records.
//
// Callers supply a cheaply narrowed candidate set: one-on-one expenses
// (empty GroupID) where either user is the payer, and one-on-one settlements
// touching either user. The precise filter applied here keeps only expenses
// involving BOTH users and settlements strictly between the two, so a
// payer's unrelated expenses with third parties never leak into the view.
//
// An expense whose required counterpart split is missing is skipped rather
// than failing the whole computation.
func ComputePairwiseBalance(selfID, otherID string, expenses []models.Expense, settlements []models.Settlement) (*PairwiseResult, error) {
	if selfID == otherID {
		return nil, ErrSameUser
	}

	shared := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.GroupID != "" {
			continue
		}
		if e.Involves(selfID) && e.Involves(otherID) {
			shared = append(shared, e)
		}
	}

	direct := make([]models.Settlement, 0, len(settlements))
	for _, s := range settlements {
		if s.GroupID != "" {
			continue
		}
		between := (s.PaidByUserID == selfID && s.ReceivedByUserID == otherID) ||
			(s.PaidByUserID == otherID && s.ReceivedByUserID == selfID)
		if between {
			direct = append(direct, s)
		}
	}

	var balance int64
	for _, e := range shared {
		if e.PaidByUserID == selfID {
			if split := e.SplitFor(otherID); split != nil && !split.Paid {
				balance += split.Amount // they owe me
			}
		} else if e.PaidByUserID == otherID {
			if split := e.SplitFor(selfID); split != nil && !split.Paid {
				balance -= split.Amount // I owe them
			}
		}
	}
	for _, s := range direct {
		if s.PaidByUserID == selfID {
			balance += s.Amount // I paid them back
		} else {
			balance -= s.Amount // they paid me back
		}
	}

	sort.SliceStable(shared, func(i, j int) bool { return shared[i].Date > shared[j].Date })
	sort.SliceStable(direct, func(i, j int) bool { return direct[i].Date > direct[j].Date })

	return &PairwiseResult{
		Balance:     balance,
		Expenses:    shared,
		Settlements: direct,
	}, nil
}
