package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/ledger"
	"github.com/splitr-app/splitr/internal/middleware"
	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage"
)

// ExpenseService handles expense CRUD and the one-on-one balance view.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// NewExpenseServiceHandler builds the HTTP handler for the service and
// returns the path prefix to mount it on.
func NewExpenseServiceHandler(svc *ExpenseService, opts ...connect.Option) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(api.ExpenseCreateProcedure, connect.NewUnaryHandler(api.ExpenseCreateProcedure, svc.CreateExpense, connect.WithOptions(opts...)))
	mux.Handle(api.ExpenseGetProcedure, connect.NewUnaryHandler(api.ExpenseGetProcedure, svc.GetExpense, connect.WithOptions(opts...)))
	mux.Handle(api.ExpenseDeleteProcedure, connect.NewUnaryHandler(api.ExpenseDeleteProcedure, svc.DeleteExpense, connect.WithOptions(opts...)))
	mux.Handle(api.ExpenseBalanceProcedure, connect.NewUnaryHandler(api.ExpenseBalanceProcedure, svc.GetBalanceBetweenUsers, connect.WithOptions(opts...)))
	return "/splitr.v1.ExpenseService/", mux
}

// CreateExpense records a new expense. The acting user must be involved in
// it, and for group expenses must be a member of the group.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	splits := make([]models.Split, len(req.Msg.Splits))
	involved := req.Msg.PaidByUserID == userID
	for i, split := range req.Msg.Splits {
		splits[i] = models.Split{UserID: split.UserID, Amount: split.Amount, Paid: split.Paid}
		if split.UserID == userID {
			involved = true
		}
	}
	if !involved {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you must be a participant to record this expense"))
	}

	if req.Msg.GroupID != "" {
		group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
		if err != nil {
			slog.Error("CreateExpense: failed to get group", "group_id", req.Msg.GroupID, "error", err)
			return nil, storeError(err)
		}
		if !group.HasMember(userID) {
			return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you must be a member of this group"))
		}
	}

	expense := &models.Expense{
		Description:  req.Msg.Description,
		Amount:       req.Msg.Amount,
		Date:         req.Msg.Date,
		PaidByUserID: req.Msg.PaidByUserID,
		GroupID:      req.Msg.GroupID,
		SplitType:    req.Msg.SplitType,
		CreatedBy:    userID,
		Splits:       splits,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "amount", expense.Amount, "group_id", expense.GroupID)
	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense: toAPIExpense(expense),
	}), nil
}

// GetExpense retrieves an expense the acting user is involved in.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storeError(err)
	}

	if !expense.Involves(userID) && expense.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you must be a participant to view this expense"))
	}

	return connect.NewResponse(&api.GetExpenseResponse{
		Expense: toAPIExpense(expense),
	}), nil
}

// DeleteExpense removes an expense. Only the creator or the payer may
// delete it.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	if req.Msg.ExpenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("DeleteExpense: failed to get expense", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storeError(err)
	}

	if expense.CreatedBy != userID && expense.PaidByUserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you don't have permission to delete this expense"))
	}

	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID, "user_id", userID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetBalanceBetweenUsers computes the acting user's one-on-one position
// against another user: the signed running balance plus the supporting
// expense and settlement lists, most recent first.
//
// The candidate records are fetched in separate store calls, so a record
// inserted mid-request can skew one list; the result is a display value,
// not a snapshot-isolated read.
func (s *ExpenseService) GetBalanceBetweenUsers(ctx context.Context, req *connect.Request[api.GetBalanceBetweenUsersRequest]) (*connect.Response[api.GetBalanceBetweenUsersResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	otherID := req.Msg.UserID
	if otherID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id required"))
	}

	other, err := s.store.GetUserByID(ctx, otherID)
	if err != nil {
		slog.Error("GetBalanceBetweenUsers: failed to get user", "user_id", otherID, "error", err)
		return nil, storeError(err)
	}

	// Candidate set: one-on-one expenses either of us paid for. The
	// engine applies the precise both-involved filter.
	myPaid, err := s.store.ListOneOnOneExpensesByPayer(ctx, userID)
	if err != nil {
		slog.Error("GetBalanceBetweenUsers: failed to list expenses", "user_id", userID, "error", err)
		return nil, storeError(err)
	}
	theirPaid, err := s.store.ListOneOnOneExpensesByPayer(ctx, otherID)
	if err != nil {
		slog.Error("GetBalanceBetweenUsers: failed to list expenses", "user_id", otherID, "error", err)
		return nil, storeError(err)
	}
	candidates := make([]models.Expense, 0, len(myPaid)+len(theirPaid))
	candidates = append(candidates, myPaid...)
	candidates = append(candidates, theirPaid...)

	settlements, err := s.store.ListOneOnOneSettlementsBetween(ctx, userID, otherID)
	if err != nil {
		slog.Error("GetBalanceBetweenUsers: failed to list settlements", "error", err)
		return nil, storeError(err)
	}

	result, err := ledger.ComputePairwiseBalance(userID, otherID, candidates, settlements)
	if err != nil {
		if errors.Is(err, ledger.ErrSameUser) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("balance computation failed: %w", err))
	}

	slog.Debug("Pairwise balance computed",
		"user_id", userID,
		"other_id", otherID,
		"balance", result.Balance,
		"expenses", len(result.Expenses),
		"settlements", len(result.Settlements),
	)

	return connect.NewResponse(&api.GetBalanceBetweenUsersResponse{
		Balance:     result.Balance,
		Expenses:    toAPIExpenses(result.Expenses),
		Settlements: toAPISettlements(result.Settlements),
		OtherUser:   toAPIUser(other),
	}), nil
}
