package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/services/roster/domain"
)

// PutLeaderRecord persists one leader registry row. A second active row
// for the same normalized identity fails with domain.ErrConflict; the
// partial unique index enforces the one-area-per-leader rule at the store.
func (s *Store) PutLeaderRecord(ctx context.Context, record domain.LeaderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("leader record id is required")
	}
	if strings.TrimSpace(record.AreaCode) == "" {
		return fmt.Errorf("leader record area code is required")
	}
	normalized := record.Identity.Normalized()
	var removedAt any
	if !record.RemovedAt.IsZero() {
		removedAt = toMillis(record.RemovedAt)
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO leader_records (id, area_code, first_name, last_name, email, first_name_key, last_name_key, email_key, active, assigned_by, assigned_at, removed_by, removed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, record.ID, record.AreaCode, record.Identity.FirstName, record.Identity.LastName, record.Identity.Email,
		normalized.FirstName, normalized.LastName, normalized.Email,
		boolToInt(record.Active), record.AssignedBy, toMillis(record.AssignedAt), record.RemovedBy, removedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("put leader record: %w", err)
	}
	return nil
}

// GetActiveLeaderByIdentity loads the identity's single active registry row.
func (s *Store) GetActiveLeaderByIdentity(ctx context.Context, identity domain.Identity) (domain.LeaderRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.LeaderRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.LeaderRecord{}, fmt.Errorf("storage is not configured")
	}
	normalized := identity.Normalized()
	row := s.sqlDB.QueryRowContext(ctx, leaderSelect+`
 WHERE first_name_key = ? AND last_name_key = ? AND email_key = ? AND active = 1
`, normalized.FirstName, normalized.LastName, normalized.Email)
	record, err := scanLeaderRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LeaderRecord{}, domain.ErrNotFound
		}
		return domain.LeaderRecord{}, fmt.Errorf("get active leader by identity: %w", err)
	}
	return record, nil
}

// ListActiveLeadersByArea lists the area's active leaders.
func (s *Store) ListActiveLeadersByArea(ctx context.Context, area string) ([]domain.LeaderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, fmt.Errorf("area code is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx, leaderSelect+`
 WHERE area_code = ? AND active = 1
 ORDER BY assigned_at ASC, id ASC
`, area)
	if err != nil {
		return nil, fmt.Errorf("list active leaders by area: %w", err)
	}
	defer rows.Close()
	return collectLeaderRecords(rows)
}

// ListActiveLeaderRecords lists every active registry row, for the repair
// pass.
func (s *Store) ListActiveLeaderRecords(ctx context.Context) ([]domain.LeaderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, leaderSelect+`
 WHERE active = 1
 ORDER BY area_code ASC, assigned_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list active leader records: %w", err)
	}
	defer rows.Close()
	return collectLeaderRecords(rows)
}

// DeactivateLeaderRecord flips one registry row inactive, recording who
// removed it. A deactivated row never transitions back; deactivating an
// already-inactive row reports domain.ErrNotFound.
func (s *Store) DeactivateLeaderRecord(ctx context.Context, recordID string, removedBy string, removedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return fmt.Errorf("leader record id is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE leader_records
SET active = 0, removed_by = ?, removed_at = ?
WHERE id = ? AND active = 1
`, strings.TrimSpace(removedBy), toMillis(removedAt), recordID)
	if err != nil {
		return fmt.Errorf("deactivate leader record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate leader record rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const leaderSelect = `
SELECT id, area_code, first_name, last_name, email, active, assigned_by, assigned_at, removed_by, removed_at
FROM leader_records`

func scanLeaderRecord(scan func(dest ...any) error) (domain.LeaderRecord, error) {
	var record domain.LeaderRecord
	var active int64
	var assignedAt int64
	var removedAt sql.NullInt64
	if err := scan(&record.ID, &record.AreaCode, &record.Identity.FirstName, &record.Identity.LastName, &record.Identity.Email,
		&active, &record.AssignedBy, &assignedAt, &record.RemovedBy, &removedAt); err != nil {
		return domain.LeaderRecord{}, err
	}
	record.Active = active != 0
	record.AssignedAt = fromMillis(assignedAt)
	if removedAt.Valid {
		record.RemovedAt = fromMillis(removedAt.Int64)
	}
	return record, nil
}

func collectLeaderRecords(rows *sql.Rows) ([]domain.LeaderRecord, error) {
	var records []domain.LeaderRecord
	for rows.Next() {
		record, err := scanLeaderRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan leader record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leader records: %w", err)
	}
	return records, nil
}
