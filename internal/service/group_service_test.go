package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"connectrpc.com/connect"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/middleware"
	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage/sqlite"
)

// testAuthInterceptor injects the user ID from the Test-User-ID header into
// the request context, standing in for the JWT interceptor.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if userID := req.Header().Get("Test-User-ID"); userID != "" {
				ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
			}
			return next(ctx, req)
		}
	}
}

type testEnv struct {
	server *httptest.Server
	store  *sqlite.SQLiteStore
}

// setupTestServer creates a test server with all services mounted and the
// given users pre-created. Returned user IDs are keyed by name.
func setupTestServer(t *testing.T, names ...string) (*testEnv, map[string]string) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "splitr-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	users := make(map[string]string, len(names))
	for _, name := range names {
		user := &models.User{Email: name + "@example.com", Name: name, PasswordHash: "hash"}
		if err := store.CreateUser(context.Background(), user); err != nil {
			t.Fatalf("failed to create user %s: %v", name, err)
		}
		users[name] = user.ID
	}

	opts := []connect.Option{
		api.WithJSONCodec(),
		connect.WithInterceptors(testAuthInterceptor()),
	}

	mux := http.NewServeMux()
	expensePath, expenseHandler := NewExpenseServiceHandler(NewExpenseService(store), opts...)
	mux.Handle(expensePath, expenseHandler)
	settlementPath, settlementHandler := NewSettlementServiceHandler(NewSettlementService(store), opts...)
	mux.Handle(settlementPath, settlementHandler)
	groupPath, groupHandler := NewGroupServiceHandler(NewGroupService(store), opts...)
	mux.Handle(groupPath, groupHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{server: server, store: store}, users
}

// call invokes a unary procedure as the given user.
func call[Req, Res any](t *testing.T, env *testEnv, procedure, userID string, msg *Req) (*connect.Response[Res], error) {
	t.Helper()
	client := connect.NewClient[Req, Res](http.DefaultClient, env.server.URL+procedure, api.WithJSONCodec())
	req := connect.NewRequest(msg)
	req.Header().Set("Test-User-ID", userID)
	return client.CallUnary(context.Background(), req)
}

func TestCreateGroup(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob", "carol")

	resp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, users["alice"],
		&api.CreateGroupRequest{
			Name:      "Roommates",
			MemberIDs: []string{users["bob"], users["carol"]},
		})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got %q", group.Name)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members: expected 3, got %d", len(group.Members))
	}

	var creatorRole string
	for _, m := range group.Members {
		if m.ID == users["alice"] {
			creatorRole = m.Role
		}
	}
	if creatorRole != models.RoleAdmin {
		t.Errorf("creator role: expected admin, got %q", creatorRole)
	}
}

func TestGetGroupRequiresMembership(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob", "mallory")

	createResp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, users["alice"],
		&api.CreateGroupRequest{Name: "Trip", MemberIDs: []string{users["bob"]}})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	if _, err := call[api.GetGroupRequest, api.GetGroupResponse](
		t, env, api.GroupGetProcedure, users["bob"],
		&api.GetGroupRequest{GroupID: groupID}); err != nil {
		t.Fatalf("GetGroup as member failed: %v", err)
	}

	_, err = call[api.GetGroupRequest, api.GetGroupResponse](
		t, env, api.GroupGetProcedure, users["mallory"],
		&api.GetGroupRequest{GroupID: groupID})
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("expected PermissionDenied for non-member, got %v", err)
	}
}

func TestListGroups(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob")

	for _, name := range []string{"A", "B"} {
		if _, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
			t, env, api.GroupCreateProcedure, users["alice"],
			&api.CreateGroupRequest{Name: name}); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}

	resp, err := call[api.ListGroupsRequest, api.ListGroupsResponse](
		t, env, api.GroupListProcedure, users["alice"], &api.ListGroupsRequest{})
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(resp.Msg.Groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(resp.Msg.Groups))
	}

	bobResp, err := call[api.ListGroupsRequest, api.ListGroupsResponse](
		t, env, api.GroupListProcedure, users["bob"], &api.ListGroupsRequest{})
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(bobResp.Msg.Groups) != 0 {
		t.Errorf("expected 0 groups for non-member, got %d", len(bobResp.Msg.Groups))
	}
}

func TestDeleteGroupCreatorOnly(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob")

	createResp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, users["alice"],
		&api.CreateGroupRequest{Name: "Doomed", MemberIDs: []string{users["bob"]}})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	_, err = call[api.DeleteGroupRequest, api.DeleteGroupResponse](
		t, env, api.GroupDeleteProcedure, users["bob"],
		&api.DeleteGroupRequest{GroupID: groupID})
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("expected PermissionDenied for non-creator, got %v", err)
	}

	if _, err := call[api.DeleteGroupRequest, api.DeleteGroupResponse](
		t, env, api.GroupDeleteProcedure, users["alice"],
		&api.DeleteGroupRequest{GroupID: groupID}); err != nil {
		t.Fatalf("DeleteGroup as creator failed: %v", err)
	}

	_, err = call[api.GetGroupRequest, api.GetGroupResponse](
		t, env, api.GroupGetProcedure, users["alice"],
		&api.GetGroupRequest{GroupID: groupID})
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestGetGroupLedger(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob", "carol")
	alice, bob, carol := users["alice"], users["bob"], users["carol"]

	createResp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, alice,
		&api.CreateGroupRequest{Name: "Ski Trip", MemberIDs: []string{bob, carol}})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	// Alice fronts 6000 split evenly three ways.
	_, err = call[api.CreateExpenseRequest, api.CreateExpenseResponse](
		t, env, api.ExpenseCreateProcedure, alice,
		&api.CreateExpenseRequest{
			Description:  "Cabin",
			Amount:       6000,
			PaidByUserID: alice,
			GroupID:      groupID,
			Splits: []api.Split{
				{UserID: alice, Amount: 2000},
				{UserID: bob, Amount: 2000},
				{UserID: carol, Amount: 2000},
			},
		})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Bob pays 500 of his share back.
	_, err = call[api.CreateSettlementRequest, api.CreateSettlementResponse](
		t, env, api.SettlementCreateProcedure, bob,
		&api.CreateSettlementRequest{
			Amount:           500,
			ReceivedByUserID: alice,
			GroupID:          groupID,
		})
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	resp, err := call[api.GetGroupLedgerRequest, api.GetGroupLedgerResponse](
		t, env, api.GroupLedgerProcedure, carol,
		&api.GetGroupLedgerRequest{GroupID: groupID})
	if err != nil {
		t.Fatalf("GetGroupLedger failed: %v", err)
	}

	if len(resp.Msg.Expenses) != 1 || len(resp.Msg.Settlements) != 1 {
		t.Fatalf("expected 1 expense and 1 settlement, got %d and %d",
			len(resp.Msg.Expenses), len(resp.Msg.Settlements))
	}

	balanceFor := func(id string) api.MemberBalance {
		for _, b := range resp.Msg.Balances {
			if b.ID == id {
				return b
			}
		}
		t.Fatalf("no balance entry for %s", id)
		return api.MemberBalance{}
	}

	wantTotals := map[string]int64{alice: 3500, bob: -1500, carol: -2000}
	var sum int64
	for id, want := range wantTotals {
		got := balanceFor(id).TotalBalance
		if got != want {
			t.Errorf("total for %s: expected %d, got %d", resp.Msg.UserLookup[id].Name, want, got)
		}
		sum += got
	}
	if sum != 0 {
		t.Errorf("totals do not conserve: sum = %d", sum)
	}

	bobBalance := balanceFor(bob)
	if len(bobBalance.Owes) != 1 || bobBalance.Owes[0].UserID != alice || bobBalance.Owes[0].Amount != 1500 {
		t.Errorf("bob owes: expected [{%s 1500}], got %+v", alice, bobBalance.Owes)
	}
	if len(bobBalance.OwedBy) != 0 {
		t.Errorf("bob owed_by: expected empty, got %+v", bobBalance.OwedBy)
	}

	aliceBalance := balanceFor(alice)
	if len(aliceBalance.OwedBy) != 2 {
		t.Errorf("alice owed_by: expected 2 entries, got %+v", aliceBalance.OwedBy)
	}

	if resp.Msg.UserLookup[carol].Name != "carol" {
		t.Errorf("user lookup: expected carol, got %+v", resp.Msg.UserLookup[carol])
	}
}

func TestGetGroupLedgerRequiresMembership(t *testing.T) {
	env, users := setupTestServer(t, "alice", "mallory")

	createResp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, users["alice"],
		&api.CreateGroupRequest{Name: "Private"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	_, err = call[api.GetGroupLedgerRequest, api.GetGroupLedgerResponse](
		t, env, api.GroupLedgerProcedure, users["mallory"],
		&api.GetGroupLedgerRequest{GroupID: createResp.Msg.Group.ID})
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("expected PermissionDenied for non-member, got %v", err)
	}
}

func TestUpdateGroupKeepsCreator(t *testing.T) {
	env, users := setupTestServer(t, "alice", "bob", "carol")

	createResp, err := call[api.CreateGroupRequest, api.CreateGroupResponse](
		t, env, api.GroupCreateProcedure, users["alice"],
		&api.CreateGroupRequest{Name: "Lunch", MemberIDs: []string{users["bob"]}})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	// Bob rewrites membership without alice; the creator is re-added.
	updateResp, err := call[api.UpdateGroupRequest, api.UpdateGroupResponse](
		t, env, api.GroupUpdateProcedure, users["bob"],
		&api.UpdateGroupRequest{
			GroupID:   groupID,
			Name:      "Team Lunch",
			MemberIDs: []string{users["bob"], users["carol"]},
		})
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}

	group := updateResp.Msg.Group
	if group.Name != "Team Lunch" {
		t.Errorf("name: expected 'Team Lunch', got %q", group.Name)
	}
	found := false
	for _, m := range group.Members {
		if m.ID == users["alice"] {
			found = true
		}
	}
	if !found {
		t.Error("expected creator to remain a member after update")
	}
}
