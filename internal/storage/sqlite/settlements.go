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

// CreateSettlement persists a new settlement.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.Amount <= 0 {
		return fmt.Errorf("%w: settlement amount must be positive", storage.ErrInvalidRecord)
	}
	if settlement.PaidByUserID == "" || settlement.ReceivedByUserID == "" {
		return fmt.Errorf("%w: settlement requires both parties", storage.ErrInvalidRecord)
	}
	if settlement.PaidByUserID == settlement.ReceivedByUserID {
		return fmt.Errorf("%w: settlement parties must differ", storage.ErrInvalidRecord)
	}
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date == 0 {
		settlement.Date = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, amount, date, paid_by_user_id, received_by_user_id, group_id, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.Amount, settlement.Date,
		settlement.PaidByUserID, settlement.ReceivedByUserID,
		nullable(settlement.GroupID), settlement.CreatedBy, nullable(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var groupID, note sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, amount, date, paid_by_user_id, received_by_user_id, group_id, created_by, note
		 FROM settlements WHERE id = ?`,
		id,
	).Scan(&settlement.ID, &settlement.Amount, &settlement.Date,
		&settlement.PaidByUserID, &settlement.ReceivedByUserID,
		&groupID, &settlement.CreatedBy, &note)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	settlement.GroupID = groupID.String
	settlement.Note = note.String
	return settlement, nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListOneOnOneSettlementsBetween returns groupless settlements paid in
// either direction between the two users, most recent first.
func (s *SQLiteStore) ListOneOnOneSettlementsBetween(ctx context.Context, userA, userB string) ([]models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, amount, date, paid_by_user_id, received_by_user_id, group_id, created_by, note
		 FROM settlements
		 WHERE group_id IS NULL
		   AND ((paid_by_user_id = ? AND received_by_user_id = ?)
		     OR (paid_by_user_id = ? AND received_by_user_id = ?))
		 ORDER BY date DESC`,
		userA, userB, userB, userA,
	)
}

// ListSettlementsByGroup returns all settlements for a group, most recent first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, amount, date, paid_by_user_id, received_by_user_id, group_id, created_by, note
		 FROM settlements WHERE group_id = ? ORDER BY date DESC`,
		groupID,
	)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...interface{}) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var settlement models.Settlement
		var groupID, note sql.NullString
		if err := rows.Scan(&settlement.ID, &settlement.Amount, &settlement.Date,
			&settlement.PaidByUserID, &settlement.ReceivedByUserID,
			&groupID, &settlement.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.GroupID = groupID.String
		settlement.Note = note.String
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
