package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/services/roster/domain"
	"github.com/fieldcount/roster/internal/services/roster/reconcile"
)

// GetWatermark loads the last-processed marker for one (area, kind)
// stream, or domain.ErrNotFound when the stream has never dispatched.
func (s *Store) GetWatermark(ctx context.Context, area string, kind string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if s == nil || s.sqlDB == nil {
		return time.Time{}, fmt.Errorf("storage is not configured")
	}
	area = strings.TrimSpace(area)
	kind = strings.TrimSpace(kind)
	if area == "" || kind == "" {
		return time.Time{}, fmt.Errorf("area code and kind are required")
	}

	var lastSentAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT last_sent_at FROM notification_watermarks WHERE area_code = ? AND kind = ?
`, area, kind).Scan(&lastSentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get watermark: %w", err)
	}
	return fromMillis(lastSentAt), nil
}

// ListWatermarks lists every stored marker for one notification kind.
func (s *Store) ListWatermarks(ctx context.Context, kind string) ([]reconcile.Watermark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT area_code, kind, last_sent_at FROM notification_watermarks WHERE kind = ? ORDER BY area_code ASC
`, kind)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	var marks []reconcile.Watermark
	for rows.Next() {
		var mark reconcile.Watermark
		var lastSentAt int64
		if err := rows.Scan(&mark.Area, &mark.Kind, &lastSentAt); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		mark.LastSentAt = fromMillis(lastSentAt)
		marks = append(marks, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watermarks: %w", err)
	}
	return marks, nil
}

// AdvanceWatermark moves one (area, kind) marker forward with
// compare-and-set semantics: the write lands only when the stored value
// still equals expected. A next value at or below the stored marker is a
// monotonic no-op; losing the compare-and-set to a run that has not
// already covered next reports domain.ErrStaleWatermark.
func (s *Store) AdvanceWatermark(ctx context.Context, area string, kind string, expected time.Time, next time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	area = strings.TrimSpace(area)
	kind = strings.TrimSpace(kind)
	if area == "" || kind == "" {
		return fmt.Errorf("area code and kind are required")
	}
	if next.IsZero() {
		return fmt.Errorf("next watermark timestamp is required")
	}

	if expected.IsZero() {
		result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notification_watermarks (area_code, kind, last_sent_at)
VALUES (?, ?, ?)
ON CONFLICT (area_code, kind) DO NOTHING
`, area, kind, toMillis(next))
		if err != nil {
			return fmt.Errorf("insert watermark: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert watermark rows affected: %w", err)
		}
		if affected == 1 {
			return nil
		}
		return s.resolveAdvanceConflict(ctx, area, kind, next)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notification_watermarks
SET last_sent_at = ?
WHERE area_code = ? AND kind = ? AND last_sent_at = ? AND last_sent_at < ?
`, toMillis(next), area, kind, toMillis(expected), toMillis(next))
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance watermark rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.resolveAdvanceConflict(ctx, area, kind, next)
}

// resolveAdvanceConflict distinguishes a harmless monotonic no-op from a
// lost compare-and-set.
func (s *Store) resolveAdvanceConflict(ctx context.Context, area string, kind string, next time.Time) error {
	stored, err := s.GetWatermark(ctx, area, kind)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrStaleWatermark
		}
		return err
	}
	if !stored.Before(next) {
		return nil
	}
	return domain.ErrStaleWatermark
}
