package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage"
)

// storeError maps storage failures onto Connect codes.
func storeError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrInvalidRecord):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toAPIUser(user *models.User) api.User {
	return api.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		ImageURL:  user.ImageURL,
		CreatedAt: user.CreatedAt,
	}
}

func toAPISplit(split models.Split) api.Split {
	return api.Split{
		UserID: split.UserID,
		Amount: split.Amount,
		Paid:   split.Paid,
	}
}

func toAPIExpense(expense *models.Expense) api.Expense {
	splits := make([]api.Split, len(expense.Splits))
	for i, split := range expense.Splits {
		splits[i] = toAPISplit(split)
	}
	return api.Expense{
		ID:           expense.ID,
		Description:  expense.Description,
		Amount:       expense.Amount,
		Date:         expense.Date,
		PaidByUserID: expense.PaidByUserID,
		GroupID:      expense.GroupID,
		SplitType:    expense.SplitType,
		CreatedBy:    expense.CreatedBy,
		Splits:       splits,
	}
}

func toAPIExpenses(expenses []models.Expense) []api.Expense {
	out := make([]api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}
	return out
}

func toAPISettlement(settlement *models.Settlement) api.Settlement {
	return api.Settlement{
		ID:               settlement.ID,
		Amount:           settlement.Amount,
		Date:             settlement.Date,
		PaidByUserID:     settlement.PaidByUserID,
		ReceivedByUserID: settlement.ReceivedByUserID,
		GroupID:          settlement.GroupID,
		CreatedBy:        settlement.CreatedBy,
		Note:             settlement.Note,
	}
}

func toAPISettlements(settlements []models.Settlement) []api.Settlement {
	out := make([]api.Settlement, len(settlements))
	for i := range settlements {
		out[i] = toAPISettlement(&settlements[i])
	}
	return out
}

// toAPIGroup shapes a group with member display metadata merged from users.
// Members missing from the user map still appear with their ID as the name,
// so a stale membership row never hides the rest of the group.
func toAPIGroup(group *models.Group, users map[string]*models.User) api.Group {
	members := make([]api.Member, len(group.Members))
	for i, member := range group.Members {
		members[i] = toAPIMember(member, users)
	}
	return api.Group{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Members:     members,
		CreatedAt:   group.CreatedAt,
	}
}

func toAPIMember(member models.GroupMember, users map[string]*models.User) api.Member {
	m := api.Member{ID: member.UserID, Name: member.UserID, Role: member.Role}
	if user, ok := users[member.UserID]; ok {
		m.Name = user.Name
		m.ImageURL = user.ImageURL
	}
	return m
}
