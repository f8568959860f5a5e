package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/ledger"
	"github.com/splitr-app/splitr/internal/middleware"
	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage"
)

// GroupService handles group CRUD and the group ledger view.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// NewGroupServiceHandler builds the HTTP handler for the service and returns
// the path prefix to mount it on.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.Option) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(api.GroupCreateProcedure, connect.NewUnaryHandler(api.GroupCreateProcedure, svc.CreateGroup, connect.WithOptions(opts...)))
	mux.Handle(api.GroupGetProcedure, connect.NewUnaryHandler(api.GroupGetProcedure, svc.GetGroup, connect.WithOptions(opts...)))
	mux.Handle(api.GroupListProcedure, connect.NewUnaryHandler(api.GroupListProcedure, svc.ListGroups, connect.WithOptions(opts...)))
	mux.Handle(api.GroupUpdateProcedure, connect.NewUnaryHandler(api.GroupUpdateProcedure, svc.UpdateGroup, connect.WithOptions(opts...)))
	mux.Handle(api.GroupDeleteProcedure, connect.NewUnaryHandler(api.GroupDeleteProcedure, svc.DeleteGroup, connect.WithOptions(opts...)))
	mux.Handle(api.GroupLedgerProcedure, connect.NewUnaryHandler(api.GroupLedgerProcedure, svc.GetGroupLedger, connect.WithOptions(opts...)))
	return "/splitr.v1.GroupService/", mux
}

func membersFromIDs(ids []string) []models.GroupMember {
	members := make([]models.GroupMember, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		members = append(members, models.GroupMember{UserID: id, Role: models.RoleMember})
	}
	return members
}

func (s *GroupService) shapeGroup(ctx context.Context, group *models.Group) (api.Group, error) {
	users, err := s.store.GetUsersByIDs(ctx, group.MemberIDs())
	if err != nil {
		return api.Group{}, err
	}
	return toAPIGroup(group, users), nil
}

// CreateGroup creates a new group. The acting user becomes an admin member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	group := &models.Group{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		CreatedBy:   userID,
		Members:     membersFromIDs(req.Msg.MemberIDs),
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, storeError(err)
	}
	slog.Info("Group created", "group_id", group.ID, "name", group.Name)

	shaped, err := s.shapeGroup(ctx, group)
	if err != nil {
		slog.Error("CreateGroup: failed to load member details", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.CreateGroupResponse{Group: shaped}), nil
}

// GetGroup retrieves a group the acting user belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you are not a member of this group"))
	}

	shaped, err := s.shapeGroup(ctx, group)
	if err != nil {
		slog.Error("GetGroup: failed to load member details", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: shaped}), nil
}

// ListGroups retrieves the groups the acting user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, storeError(err)
	}

	shaped := make([]api.Group, 0, len(groups))
	for i := range groups {
		g, err := s.shapeGroup(ctx, &groups[i])
		if err != nil {
			slog.Error("ListGroups: failed to load member details", "group_id", groups[i].ID, "error", err)
			return nil, storeError(err)
		}
		shaped = append(shaped, g)
	}

	return connect.NewResponse(&api.ListGroupsResponse{Groups: shaped}), nil
}

// UpdateGroup updates a group's name, description, and membership.
// Only members may update a group; the creator always stays a member.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	existing, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("UpdateGroup: failed to get group", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}
	if !existing.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you are not a member of this group"))
	}

	members := membersFromIDs(req.Msg.MemberIDs)
	group := &models.Group{
		ID:          req.Msg.GroupID,
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		CreatedBy:   existing.CreatedBy,
		Members:     members,
	}
	if existing.CreatedBy != "" && !group.HasMember(existing.CreatedBy) {
		group.Members = append(group.Members, models.GroupMember{
			UserID: existing.CreatedBy,
			Role:   models.RoleAdmin,
		})
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}
	slog.Info("Group updated", "group_id", group.ID)

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		slog.Error("UpdateGroup: failed to fetch updated group", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}
	shaped, err := s.shapeGroup(ctx, updated)
	if err != nil {
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.UpdateGroupResponse{Group: shaped}), nil
}

// DeleteGroup removes a group. Only the creator may delete it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("DeleteGroup: failed to get group", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}
	if group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the group creator can delete it"))
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID, "user_id", userID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupLedger computes the full balance view for a group: raw expense
// and settlement history, each member's net total, and the pairwise-netted
// who-owes-whom graph, all shaped with member display metadata.
//
// Expenses and settlements are read in separate store calls; a record
// inserted between them can skew the view until the next refresh. That is
// an accepted staleness window for a display value, not a correctness bug.
func (s *GroupService) GetGroupLedger(ctx context.Context, req *connect.Request[api.GetGroupLedgerRequest]) (*connect.Response[api.GetGroupLedgerResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	if req.Msg.GroupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroupLedger: failed to get group", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you are not a member of this group"))
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("GetGroupLedger: failed to list expenses", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}
	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("GetGroupLedger: failed to list settlements", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}

	result, err := ledger.ComputeGroupLedger(group.MemberIDs(), expenses, settlements)
	if err != nil {
		if errors.Is(err, ledger.ErrNoMembers) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		slog.Error("GetGroupLedger: computation failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	users, err := s.store.GetUsersByIDs(ctx, group.MemberIDs())
	if err != nil {
		slog.Error("GetGroupLedger: failed to load member details", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}

	members := make([]api.Member, len(group.Members))
	lookup := make(map[string]api.Member, len(group.Members))
	roleByID := make(map[string]string, len(group.Members))
	for i, member := range group.Members {
		members[i] = toAPIMember(member, users)
		lookup[member.UserID] = members[i]
		roleByID[member.UserID] = member.Role
	}

	balances := make([]api.MemberBalance, len(result.Balances))
	for i, balance := range result.Balances {
		mb := api.MemberBalance{
			ID:           balance.UserID,
			Name:         balance.UserID,
			Role:         roleByID[balance.UserID],
			TotalBalance: balance.TotalBalance,
		}
		if user, ok := users[balance.UserID]; ok {
			mb.Name = user.Name
			mb.ImageURL = user.ImageURL
		}
		for _, debt := range balance.Owes {
			mb.Owes = append(mb.Owes, api.Debt{UserID: debt.UserID, Amount: debt.Amount})
		}
		for _, debt := range balance.OwedBy {
			mb.OwedBy = append(mb.OwedBy, api.Debt{UserID: debt.UserID, Amount: debt.Amount})
		}
		balances[i] = mb
	}

	slog.Info("Group ledger computed",
		"group_id", group.ID,
		"members", len(members),
		"expenses", len(expenses),
		"settlements", len(settlements),
	)

	return connect.NewResponse(&api.GetGroupLedgerResponse{
		Group: api.Group{
			ID:          group.ID,
			Name:        group.Name,
			Description: group.Description,
			Members:     members,
			CreatedAt:   group.CreatedAt,
		},
		Members:     members,
		Expenses:    toAPIExpenses(expenses),
		Settlements: toAPISettlements(settlements),
		Balances:    balances,
		UserLookup:  lookup,
	}), nil
}
