// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitr-app/splitr/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidRecord is returned when a write is rejected at the storage
// boundary (malformed splits, non-positive amounts, unknown references).
// Record shapes are validated here, never inside the ledger engine.
var ErrInvalidRecord = errors.New("invalid record")

// Store defines the persistence operations for Splitr. The abstraction
// allows swapping storage backends (SQLite, PostgreSQL) without changing
// the service layer.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsersByIDs returns a map of user ID to user. IDs with no
	// matching user are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// Expenses
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	// ListOneOnOneExpensesByPayer returns expenses with no group where
	// payerID is the payer. This is the cheap candidate set for the
	// pairwise balance filter.
	ListOneOnOneExpensesByPayer(ctx context.Context, payerID string) ([]models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// Settlements
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	DeleteSettlement(ctx context.Context, id string) error
	// ListOneOnOneSettlementsBetween returns settlements with no group
	// paid in either direction between the two users.
	ListOneOnOneSettlementsBetween(ctx context.Context, userA, userB string) ([]models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error)

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	AddGroupMembers(ctx context.Context, groupID string, members []models.GroupMember) error

	// Close releases any resources held by the store.
	Close() error
}
