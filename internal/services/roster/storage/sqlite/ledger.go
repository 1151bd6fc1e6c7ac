package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/services/roster/domain"
)

// AppendReassignmentEvent writes one immutable ledger row. The store
// assigns the insertion sequence; events are never updated or deleted.
func (s *Store) AppendReassignmentEvent(ctx context.Context, event domain.ReassignmentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if event.ChangedAt.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO reassignment_events (id, first_name, last_name, email, old_area, new_area, changed_by, changed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, event.ID, event.Identity.FirstName, event.Identity.LastName, event.Identity.Email,
		event.OldArea, event.NewArea, event.ChangedBy, toMillis(event.ChangedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("append reassignment event: %w", err)
	}
	return nil
}

// ListReassignmentEventsSince lists ledger rows strictly newer than since,
// ordered by changed_at ascending with insertion order breaking ties. An
// empty area returns the unfiltered ledger; a non-empty area narrows the
// result to events touching that area as a load optimization, and callers
// collapsing chains still see a consistent ordered stream.
func (s *Store) ListReassignmentEventsSince(ctx context.Context, area string, since time.Time) ([]domain.ReassignmentEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var rows *sql.Rows
	var err error
	area = strings.TrimSpace(area)
	if area == "" {
		rows, err = s.sqlDB.QueryContext(ctx, eventSelect+`
 WHERE changed_at > ?
 ORDER BY changed_at ASC, seq ASC
`, toMillis(since))
	} else {
		rows, err = s.sqlDB.QueryContext(ctx, eventSelect+`
 WHERE changed_at > ? AND (old_area = ? OR new_area = ?)
 ORDER BY changed_at ASC, seq ASC
`, toMillis(since), area, area)
	}
	if err != nil {
		return nil, fmt.Errorf("list reassignment events: %w", err)
	}
	defer rows.Close()

	var events []domain.ReassignmentEvent
	for rows.Next() {
		var event domain.ReassignmentEvent
		var changedAt int64
		if err := rows.Scan(&event.Seq, &event.ID, &event.Identity.FirstName, &event.Identity.LastName, &event.Identity.Email,
			&event.OldArea, &event.NewArea, &event.ChangedBy, &changedAt); err != nil {
			return nil, fmt.Errorf("scan reassignment event: %w", err)
		}
		event.ChangedAt = fromMillis(changedAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reassignment events: %w", err)
	}
	return events, nil
}

const eventSelect = `
SELECT seq, id, first_name, last_name, email, old_area, new_area, changed_by, changed_at
FROM reassignment_events`
