// Package reconcile turns the raw reassignment ledger into net per-area
// roster diffs and dispatches deduplicated leader notifications.
package reconcile

import (
	"fmt"
	"strings"
)

// Kind selects which notification stream a run serves. Each (area, kind)
// pair carries its own watermark, so the two streams advance independently.
type Kind string

const (
	// KindTeamUpdate notifies an area's current leaders about roster
	// arrivals and departures.
	KindTeamUpdate Kind = "team_update"
	// KindWeeklyUpdate is the scheduled summary for leaders of areas with
	// an active leader.
	KindWeeklyUpdate Kind = "weekly_update"
)

// ParseKind validates a kind token from configuration.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindTeamUpdate:
		return KindTeamUpdate, nil
	case KindWeeklyUpdate:
		return KindWeeklyUpdate, nil
	default:
		return "", fmt.Errorf("unknown notification kind %q", raw)
	}
}
