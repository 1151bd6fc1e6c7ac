// Package sqlite provides SQLite-backed persistence for the roster:
// participants, the leader registry, the reassignment ledger, and
// notification watermarks.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/fieldcount/roster/internal/platform/storage/sqlitemigrate"
	"github.com/fieldcount/roster/internal/services/roster/domain"
	"github.com/fieldcount/roster/internal/services/roster/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store implements the roster persistence boundaries over one SQLite
// database. SQLite gives atomic single-row writes but this store offers no
// cross-table transaction to its callers; the domain cascades are designed
// around that.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// Open opens the roster SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// PutParticipant persists one participant row. A second active row for the
// same normalized identity fails with domain.ErrConflict.
func (s *Store) PutParticipant(ctx context.Context, participant domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(participant.ID) == "" {
		return fmt.Errorf("participant id is required")
	}
	normalized := participant.Identity.Normalized()
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO participants (id, first_name, last_name, email, first_name_key, last_name_key, email_key, current_area, is_leader, assigned_area_leader, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, participant.ID, participant.Identity.FirstName, participant.Identity.LastName, participant.Identity.Email,
		normalized.FirstName, normalized.LastName, normalized.Email,
		participant.CurrentArea, boolToInt(participant.IsLeader), participant.AssignedAreaLeader,
		string(participant.Status), toMillis(participant.CreatedAt), toMillis(participant.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

// GetParticipant loads one participant row by id.
func (s *Store) GetParticipant(ctx context.Context, participantID string) (domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Participant{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Participant{}, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.Participant{}, fmt.Errorf("participant id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, participantSelect+` WHERE id = ?`, participantID)
	participant, err := scanParticipant(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return participant, nil
}

// FindParticipantsByIdentity loads every participant row matching the
// normalized identity, regardless of status, oldest first.
func (s *Store) FindParticipantsByIdentity(ctx context.Context, identity domain.Identity) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	normalized := identity.Normalized()
	rows, err := s.sqlDB.QueryContext(ctx, participantSelect+`
 WHERE first_name_key = ? AND last_name_key = ? AND email_key = ?
 ORDER BY created_at ASC, id ASC
`, normalized.FirstName, normalized.LastName, normalized.Email)
	if err != nil {
		return nil, fmt.Errorf("find participants by identity: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// UpdateParticipant rewrites one participant row by id.
func (s *Store) UpdateParticipant(ctx context.Context, participant domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(participant.ID) == "" {
		return fmt.Errorf("participant id is required")
	}
	normalized := participant.Identity.Normalized()
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE participants
SET first_name = ?, last_name = ?, email = ?, first_name_key = ?, last_name_key = ?, email_key = ?,
    current_area = ?, is_leader = ?, assigned_area_leader = ?, status = ?, updated_at = ?
WHERE id = ?
`, participant.Identity.FirstName, participant.Identity.LastName, participant.Identity.Email,
		normalized.FirstName, normalized.LastName, normalized.Email,
		participant.CurrentArea, boolToInt(participant.IsLeader), participant.AssignedAreaLeader,
		string(participant.Status), toMillis(participant.UpdatedAt), participant.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update participant rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteParticipant removes one participant row entirely. Deleting a
// missing row reports domain.ErrNotFound.
func (s *Store) DeleteParticipant(ctx context.Context, participantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return fmt.Errorf("participant id is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, participantID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActiveParticipantsByArea lists the area's active roster ordered by
// last name.
func (s *Store) ListActiveParticipantsByArea(ctx context.Context, area string) ([]domain.Participant, error) {
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
	rows, err := s.sqlDB.QueryContext(ctx, participantSelect+`
 WHERE current_area = ? AND status = ?
 ORDER BY last_name_key ASC, first_name_key ASC, id ASC
`, area, string(domain.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list participants by area: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// ListLeaderFlaggedParticipants lists active participants whose leadership
// flag is set, for the repair pass.
func (s *Store) ListLeaderFlaggedParticipants(ctx context.Context) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, participantSelect+`
 WHERE is_leader = 1 AND status = ?
 ORDER BY id ASC
`, string(domain.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list leader-flagged participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

const participantSelect = `
SELECT id, first_name, last_name, email, current_area, is_leader, assigned_area_leader, status, created_at, updated_at
FROM participants`

func scanParticipant(scan func(dest ...any) error) (domain.Participant, error) {
	var participant domain.Participant
	var isLeader int64
	var status string
	var createdAt, updatedAt int64
	if err := scan(&participant.ID, &participant.Identity.FirstName, &participant.Identity.LastName, &participant.Identity.Email,
		&participant.CurrentArea, &isLeader, &participant.AssignedAreaLeader, &status, &createdAt, &updatedAt); err != nil {
		return domain.Participant{}, err
	}
	participant.IsLeader = isLeader != 0
	participant.Status = domain.Status(status)
	participant.CreatedAt = fromMillis(createdAt)
	participant.UpdatedAt = fromMillis(updatedAt)
	return participant, nil
}

func collectParticipants(rows *sql.Rows) ([]domain.Participant, error) {
	var participants []domain.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
