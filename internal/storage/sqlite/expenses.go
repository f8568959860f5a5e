package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitr-app/splitr/internal/models"
	"github.com/splitr-app/splitr/internal/storage"
)

// validateExpense rejects malformed expenses at the storage boundary so the
// ledger engine can trust the records it reads.
func validateExpense(expense *models.Expense) error {
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", storage.ErrInvalidRecord)
	}
	if expense.PaidByUserID == "" {
		return fmt.Errorf("%w: expense requires a payer", storage.ErrInvalidRecord)
	}
	if len(expense.Splits) == 0 {
		return fmt.Errorf("%w: expense requires at least one split", storage.ErrInvalidRecord)
	}

	var sum int64
	payerHasSplit := false
	seen := make(map[string]bool, len(expense.Splits))
	for _, split := range expense.Splits {
		if split.UserID == "" {
			return fmt.Errorf("%w: split requires a user", storage.ErrInvalidRecord)
		}
		if split.Amount < 0 {
			return fmt.Errorf("%w: split amount must be non-negative", storage.ErrInvalidRecord)
		}
		if seen[split.UserID] {
			return fmt.Errorf("%w: duplicate split for user %s", storage.ErrInvalidRecord, split.UserID)
		}
		seen[split.UserID] = true
		sum += split.Amount
		if split.UserID == expense.PaidByUserID {
			payerHasSplit = true
		}
	}
	if !payerHasSplit {
		return fmt.Errorf("%w: payer must hold a split", storage.ErrInvalidRecord)
	}
	if sum != expense.Amount {
		return fmt.Errorf("%w: splits sum to %d, expense total is %d", storage.ErrInvalidRecord, sum, expense.Amount)
	}
	return nil
}

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date == 0 {
		expense.Date = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, date, paid_by_user_id, group_id, split_type, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.Date,
		expense.PaidByUserID, nullable(expense.GroupID), nullable(expense.SplitType), expense.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO splits (expense_id, user_id, amount, paid) VALUES (?, ?, ?, ?)",
			expense.ID, split.UserID, split.Amount, split.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	var groupID, splitType sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount, date, paid_by_user_id, group_id, split_type, created_by
		 FROM expenses WHERE id = ?`,
		id,
	).Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.Date,
		&expense.PaidByUserID, &groupID, &splitType, &expense.CreatedBy)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.GroupID = groupID.String
	expense.SplitType = splitType.String

	if err := s.loadSplits(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes an expense; its splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListOneOnOneExpensesByPayer returns groupless expenses paid by payerID,
// most recent first. Uses the (paid_by_user_id, group_id) index.
func (s *SQLiteStore) ListOneOnOneExpensesByPayer(ctx context.Context, payerID string) ([]models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id, description, amount, date, paid_by_user_id, group_id, split_type, created_by
		 FROM expenses WHERE paid_by_user_id = ? AND group_id IS NULL ORDER BY date DESC`,
		payerID,
	)
}

// ListExpensesByGroup returns all expenses for a group, most recent first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id, description, amount, date, paid_by_user_id, group_id, split_type, created_by
		 FROM expenses WHERE group_id = ? ORDER BY date DESC`,
		groupID,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...interface{}) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		var groupID, splitType sql.NullString
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.Date,
			&expense.PaidByUserID, &groupID, &splitType, &expense.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.GroupID = groupID.String
		expense.SplitType = splitType.String
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.loadSplits(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *SQLiteStore) loadSplits(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount, paid FROM splits WHERE expense_id = ? ORDER BY user_id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.UserID, &split.Amount, &split.Paid); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		expense.Splits = append(expense.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}
