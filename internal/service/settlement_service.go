package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/middleware"
	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage"
)

// SettlementService records and removes direct repayments.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a new SettlementService with the given
// storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

// NewSettlementServiceHandler builds the HTTP handler for the service and
// returns the path prefix to mount it on.
func NewSettlementServiceHandler(svc *SettlementService, opts ...connect.Option) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(api.SettlementCreateProcedure, connect.NewUnaryHandler(api.SettlementCreateProcedure, svc.CreateSettlement, connect.WithOptions(opts...)))
	mux.Handle(api.SettlementDeleteProcedure, connect.NewUnaryHandler(api.SettlementDeleteProcedure, svc.DeleteSettlement, connect.WithOptions(opts...)))
	return "/splitr.v1.SettlementService/", mux
}

// CreateSettlement records the acting user paying another user back.
// For group settlements both parties must be members of the group.
func (s *SettlementService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	if req.Msg.ReceivedByUserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("received_by_user_id required"))
	}
	if req.Msg.ReceivedByUserID == userID {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("cannot settle with yourself"))
	}

	if _, err := s.store.GetUserByID(ctx, req.Msg.ReceivedByUserID); err != nil {
		slog.Error("CreateSettlement: failed to get receiver", "user_id", req.Msg.ReceivedByUserID, "error", err)
		return nil, storeError(err)
	}

	if req.Msg.GroupID != "" {
		group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
		if err != nil {
			slog.Error("CreateSettlement: failed to get group", "group_id", req.Msg.GroupID, "error", err)
			return nil, storeError(err)
		}
		if !group.HasMember(userID) || !group.HasMember(req.Msg.ReceivedByUserID) {
			return nil, connect.NewError(connect.CodePermissionDenied, errors.New("both parties must be members of the group"))
		}
	}

	settlement := &models.Settlement{
		Amount:           req.Msg.Amount,
		Date:             req.Msg.Date,
		PaidByUserID:     userID,
		ReceivedByUserID: req.Msg.ReceivedByUserID,
		GroupID:          req.Msg.GroupID,
		CreatedBy:        userID,
		Note:             req.Msg.Note,
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("CreateSettlement failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"payer", settlement.PaidByUserID,
		"receiver", settlement.ReceivedByUserID,
		"amount", settlement.Amount,
	)
	return connect.NewResponse(&api.CreateSettlementResponse{
		Settlement: toAPISettlement(settlement),
	}), nil
}

// DeleteSettlement removes a settlement. Only the creator or the payer may
// delete it.
func (s *SettlementService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	if req.Msg.SettlementID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("settlement_id required"))
	}

	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		slog.Error("DeleteSettlement: failed to get settlement", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, storeError(err)
	}

	if settlement.CreatedBy != userID && settlement.PaidByUserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you don't have permission to delete this settlement"))
	}

	if err := s.store.DeleteSettlement(ctx, req.Msg.SettlementID); err != nil {
		slog.Error("DeleteSettlement failed", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Settlement deleted", "settlement_id", req.Msg.SettlementID, "user_id", userID)
	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}
