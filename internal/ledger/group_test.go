package ledger

import (
	"errors"
	"testing"

	"github.com/splitr-app/splitr/internal/models"
)

func checkConservation(t *testing.T, result *GroupLedgerResult) {
	t.Helper()
	var sum int64
	for _, total := range result.Totals {
		sum += total
	}
	if sum != 0 {
		t.Errorf("totals do not conserve: sum = %d, want 0", sum)
	}
}

func balanceFor(t *testing.T, result *GroupLedgerResult, userID string) MemberBalance {
	t.Helper()
	for _, b := range result.Balances {
		if b.UserID == userID {
			return b
		}
	}
	t.Fatalf("no balance entry for %s", userID)
	return MemberBalance{}
}

func debtTo(balance MemberBalance, creditor string) int64 {
	for _, d := range balance.Owes {
		if d.UserID == creditor {
			return d.Amount
		}
	}
	return 0
}

func TestComputeGroupLedger_EmptyMembers(t *testing.T) {
	_, err := ComputeGroupLedger(nil, nil, nil)
	if !errors.Is(err, ErrNoMembers) {
		t.Fatalf("expected ErrNoMembers, got %v", err)
	}
}

func TestComputeGroupLedger_SingleExpense(t *testing.T) {
	// X pays 60.00 split evenly three ways, 20.00 each, unpaid.
	members := []string{"x", "y", "z"}
	expenses := []models.Expense{
		{
			PaidByUserID: "x",
			Amount:       6000,
			Splits: []models.Split{
				{UserID: "x", Amount: 2000},
				{UserID: "y", Amount: 2000},
				{UserID: "z", Amount: 2000},
			},
		},
	}

	result, err := ComputeGroupLedger(members, expenses, nil)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	checkConservation(t, result)

	wantTotals := map[string]int64{"x": 4000, "y": -2000, "z": -2000}
	for id, want := range wantTotals {
		if got := result.Totals[id]; got != want {
			t.Errorf("totals[%s] = %d, want %d", id, got, want)
		}
	}

	if got := debtTo(balanceFor(t, result, "y"), "x"); got != 2000 {
		t.Errorf("y owes x %d, want 2000", got)
	}
	if got := debtTo(balanceFor(t, result, "z"), "x"); got != 2000 {
		t.Errorf("z owes x %d, want 2000", got)
	}
	if owes := balanceFor(t, result, "x").Owes; len(owes) != 0 {
		t.Errorf("x should owe nobody, got %v", owes)
	}

	// x's owedBy mirrors the two debts
	owedBy := balanceFor(t, result, "x").OwedBy
	if len(owedBy) != 2 {
		t.Errorf("x owedBy = %v, want entries from y and z", owedBy)
	}
}

func TestComputeGroupLedger_SettlementReducesDebt(t *testing.T) {
	// Continues the single-expense scenario: y settles 10.00 to x.
	members := []string{"x", "y", "z"}
	expenses := []models.Expense{
		{
			PaidByUserID: "x",
			Amount:       6000,
			Splits: []models.Split{
				{UserID: "x", Amount: 2000},
				{UserID: "y", Amount: 2000},
				{UserID: "z", Amount: 2000},
			},
		},
	}
	settlements := []models.Settlement{
		{PaidByUserID: "y", ReceivedByUserID: "x", Amount: 1000},
	}

	result, err := ComputeGroupLedger(members, expenses, settlements)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	checkConservation(t, result)

	wantTotals := map[string]int64{"x": 3000, "y": -1000, "z": -2000}
	for id, want := range wantTotals {
		if got := result.Totals[id]; got != want {
			t.Errorf("totals[%s] = %d, want %d", id, got, want)
		}
	}
	if got := debtTo(balanceFor(t, result, "y"), "x"); got != 1000 {
		t.Errorf("y owes x %d, want 1000", got)
	}
	if got := debtTo(balanceFor(t, result, "z"), "x"); got != 2000 {
		t.Errorf("z owes x %d, want 2000", got)
	}
}

func TestComputeGroupLedger_OverpaymentFlipsDirection(t *testing.T) {
	// b owes a 500, then settles 800; the surplus flips the pair.
	members := []string{"a", "b"}
	expenses := []models.Expense{
		{
			PaidByUserID: "a",
			Amount:       1000,
			Splits: []models.Split{
				{UserID: "a", Amount: 500},
				{UserID: "b", Amount: 500},
			},
		},
	}
	settlements := []models.Settlement{
		{PaidByUserID: "b", ReceivedByUserID: "a", Amount: 800},
	}

	result, err := ComputeGroupLedger(members, expenses, settlements)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	checkConservation(t, result)

	if got := debtTo(balanceFor(t, result, "a"), "b"); got != 300 {
		t.Errorf("a owes b %d, want 300", got)
	}
	if got := debtTo(balanceFor(t, result, "b"), "a"); got != 0 {
		t.Errorf("b owes a %d, want 0", got)
	}
}

func TestComputeGroupLedger_NonMemberSplitSkipped(t *testing.T) {
	members := []string{"a", "b"}
	expenses := []models.Expense{
		{
			PaidByUserID: "a",
			Amount:       3000,
			Splits: []models.Split{
				{UserID: "a", Amount: 1000},
				{UserID: "b", Amount: 1000},
				{UserID: "ghost", Amount: 1000}, // not in the member set
			},
		},
	}

	result, err := ComputeGroupLedger(members, expenses, nil)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	checkConservation(t, result)

	if _, ok := result.Totals["ghost"]; ok {
		t.Error("non-member must not appear in totals")
	}
	if got := result.Totals["a"]; got != 1000 {
		t.Errorf("totals[a] = %d, want 1000", got)
	}
	if got := result.Totals["b"]; got != -1000 {
		t.Errorf("totals[b] = %d, want -1000", got)
	}
}

func TestComputeGroupLedger_NonMemberSettlementSkipped(t *testing.T) {
	members := []string{"a", "b"}
	settlements := []models.Settlement{
		{PaidByUserID: "ghost", ReceivedByUserID: "a", Amount: 500},
		{PaidByUserID: "b", ReceivedByUserID: "ghost", Amount: 500},
	}

	result, err := ComputeGroupLedger(members, nil, settlements)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	checkConservation(t, result)
	if got := result.Totals["a"]; got != 0 {
		t.Errorf("totals[a] = %d, want 0", got)
	}
	if got := result.Totals["b"]; got != 0 {
		t.Errorf("totals[b] = %d, want 0", got)
	}
}

func TestComputeGroupLedger_DuplicateMembersCollapsed(t *testing.T) {
	members := []string{"a", "b", "a", "b"}
	result, err := ComputeGroupLedger(members, nil, nil)
	if err != nil {
		t.Fatalf("ComputeGroupLedger failed: %v", err)
	}
	if len(result.Balances) != 2 {
		t.Errorf("expected 2 balance entries, got %d", len(result.Balances))
	}
}

func TestNetPairs_CircularDebtsNetPerPairOnly(t *testing.T) {
	// a owes b 10, b owes c 15, c owes a 5. Each pair has a single
	// direction already, so netting changes nothing; in particular no
	// transitive collapse happens across the cycle.
	owed := [][]int64{
		{0, 1000, 0},
		{0, 0, 1500},
		{500, 0, 0},
	}
	netPairs(owed)

	want := [][]int64{
		{0, 1000, 0},
		{0, 0, 1500},
		{500, 0, 0},
	}
	for i := range want {
		for j := range want[i] {
			if owed[i][j] != want[i][j] {
				t.Errorf("owed[%d][%d] = %d, want %d", i, j, owed[i][j], want[i][j])
			}
		}
	}
}

func TestNetPairs_Idempotent(t *testing.T) {
	owed := [][]int64{
		{0, 700, 200},
		{300, 0, 0},
		{900, -100, 0},
	}
	netPairs(owed)

	snapshot := make([][]int64, len(owed))
	for i := range owed {
		snapshot[i] = append([]int64(nil), owed[i]...)
	}

	netPairs(owed)
	for i := range snapshot {
		for j := range snapshot[i] {
			if owed[i][j] != snapshot[i][j] {
				t.Errorf("netting not idempotent at [%d][%d]: %d then %d",
					i, j, snapshot[i][j], owed[i][j])
			}
		}
	}
}

func TestNetPairs_MutualExclusivity(t *testing.T) {
	owed := [][]int64{
		{0, 700, 200, -50},
		{300, 0, 450, 0},
		{900, 450, 0, 25},
		{60, 0, 25, 0},
	}
	netPairs(owed)

	for a := range owed {
		for b := range owed {
			if a == b {
				continue
			}
			if owed[a][b] > 0 && owed[b][a] != 0 {
				t.Errorf("pair (%d,%d) not mutually exclusive: %d and %d",
					a, b, owed[a][b], owed[b][a])
			}
			if owed[a][b] < 0 {
				t.Errorf("owed[%d][%d] = %d, negative after netting", a, b, owed[a][b])
			}
		}
	}
}
