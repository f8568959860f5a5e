package ledger

import (
	"errors"

	"github.com/splitr-app/splitr/internal/models"
)

// ErrNoMembers is returned when a group ledger is requested for an empty
// member set.
var ErrNoMembers = errors.New("group has no members")

// Debt is one directed edge of the pairwise debt graph.
type Debt struct {
	// UserID is the counterparty on the other end of the edge.
	UserID string

	// Amount is the debt in minor units. Always positive.
	Amount int64
}

// MemberBalance summarizes one member's position within a group.
type MemberBalance struct {
	// UserID identifies the member.
	UserID string

	// TotalBalance is the member's signed net position across the whole
	// group. Positive: the group owes this member on net.
	TotalBalance int64

	// Owes lists members this member owes money to, after netting.
	Owes []Debt

	// OwedBy lists members who owe this member money, after netting.
	OwedBy []Debt
}

// GroupLedgerResult is the full output of a group ledger computation.
type GroupLedgerResult struct {
	// Totals maps member ID to net balance. Sums to zero.
	Totals map[string]int64

	// Balances holds one entry per member, in member order.
	Balances []MemberBalance
}

// ComputeGroupLedger computes each member's net balance and the
// pairwise-netted debt graph for a group.
//
// members must be the group's member IDs; duplicates are collapsed.
// expenses and settlements must already be filtered to the group. Splits or
// settlements referencing users outside the member set are skipped, so one
// malformed record cannot take down the whole ledger; totals still conserve
// across the members that remain.
func ComputeGroupLedger(members []string, expenses []models.Expense, settlements []models.Settlement) (*GroupLedgerResult, error) {
	ids, index := memberIndex(members)
	if len(ids) == 0 {
		return nil, ErrNoMembers
	}

	n := len(ids)
	totals := make([]int64, n)

	// owed[a][b] = how much a owes b, before netting.
	owed := make([][]int64, n)
	for i := range owed {
		owed[i] = make([]int64, n)
	}

	for _, e := range expenses {
		payer, ok := index[e.PaidByUserID]
		if !ok {
			continue // payer is not a member; nothing to attribute
		}
		for _, split := range e.Splits {
			debtor, ok := index[split.UserID]
			if !ok || debtor == payer || split.Paid {
				continue // skip non-members, the payer's own share, settled shares
			}
			totals[payer] += split.Amount
			totals[debtor] -= split.Amount
			owed[debtor][payer] += split.Amount
		}
	}

	for _, s := range settlements {
		payer, okP := index[s.PaidByUserID]
		receiver, okR := index[s.ReceivedByUserID]
		if !okP || !okR || payer == receiver {
			continue
		}
		totals[payer] += s.Amount
		totals[receiver] -= s.Amount
		// A repayment reduces what the payer owed the receiver. The cell
		// can go negative here; netting restores the invariant.
		owed[payer][receiver] -= s.Amount
	}

	netPairs(owed)

	result := &GroupLedgerResult{
		Totals:   make(map[string]int64, n),
		Balances: make([]MemberBalance, n),
	}
	for i, id := range ids {
		result.Totals[id] = totals[i]

		mb := MemberBalance{UserID: id, TotalBalance: totals[i]}
		for j, other := range ids {
			if owed[i][j] > 0 {
				mb.Owes = append(mb.Owes, Debt{UserID: other, Amount: owed[i][j]})
			}
			if owed[j][i] > 0 {
				mb.OwedBy = append(mb.OwedBy, Debt{UserID: other, Amount: owed[j][i]})
			}
		}
		result.Balances[i] = mb
	}
	return result, nil
}

// netPairs visits each unordered pair once and collapses the two opposing
// cells into at most one positive direction. Totals are untouched; netting
// only reshapes the pairwise view.
func netPairs(owed [][]int64) {
	for a := range owed {
		for b := a + 1; b < len(owed); b++ {
			diff := owed[a][b] - owed[b][a]
			switch {
			case diff > 0:
				owed[a][b] = diff
				owed[b][a] = 0
			case diff < 0:
				owed[b][a] = -diff
				owed[a][b] = 0
			default:
				owed[a][b] = 0
				owed[b][a] = 0
			}
		}
	}
}

// memberIndex deduplicates members preserving order and returns the stable
// id→row mapping used to address the debt matrix.
func memberIndex(members []string) ([]string, map[string]int) {
	ids := make([]string, 0, len(members))
	index := make(map[string]int, len(members))
	for _, id := range members {
		if id == "" {
			continue
		}
		if _, seen := index[id]; seen {
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
	}
	return ids, index
}
