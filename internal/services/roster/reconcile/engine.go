package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fieldcount/roster/internal/services/roster/domain"
	"github.com/fieldcount/roster/internal/services/roster/mail"
	"github.com/fieldcount/roster/internal/services/roster/render"
)

// maxAreaParallelism bounds concurrent per-area dispatch within one run.
// Diffs and watermarks are area-scoped, so areas never share mutable state.
const maxAreaParallelism = 4

// EventSource reads the reassignment ledger. An empty area returns the
// unfiltered stream; results are ordered by ChangedAt ascending with ties
// broken by insertion order and contain only events strictly newer than
// since.
type EventSource interface {
	ListReassignmentEventsSince(ctx context.Context, area string, since time.Time) ([]domain.ReassignmentEvent, error)
}

// Watermark is the last-processed marker for one (area, kind) stream.
type Watermark struct {
	Area       string
	Kind       string
	LastSentAt time.Time
}

// WatermarkStore persists per-(area, kind) processing progress.
// AdvanceWatermark is a compare-and-set: it succeeds only when the stored
// value still equals expected, is a no-op when next is not newer than the
// stored value, and fails otherwise so two concurrent runs cannot both
// claim the same window.
type WatermarkStore interface {
	ListWatermarks(ctx context.Context, kind string) ([]Watermark, error)
	AdvanceWatermark(ctx context.Context, area string, kind string, expected time.Time, next time.Time) error
}

// LeaderSource resolves an area's current active leaders at dispatch time.
type LeaderSource interface {
	ListActiveLeadersByArea(ctx context.Context, area string) ([]domain.LeaderRecord, error)
}

// RosterSource resolves an area's current active participants.
type RosterSource interface {
	ListActiveParticipantsByArea(ctx context.Context, area string) ([]domain.Participant, error)
}

// Composer renders notification copy from one area's net diff.
type Composer interface {
	ComposeTeamUpdate(diff domain.AreaDiff, roster []domain.Identity) render.Content
	ComposeWeeklySummary(diff domain.AreaDiff, roster []domain.Identity) render.Content
}

// Deps wires the engine's collaborators.
type Deps struct {
	Ledger     EventSource
	Watermarks WatermarkStore
	Leaders    LeaderSource
	Roster     RosterSource
	Composer   Composer
	Sender     mail.Sender
	Clock      func() time.Time
}

// Engine replays the ledger since each area's watermark, collapses move
// chains to net per-area diffs, and dispatches leader notifications.
// Watermarks advance only after a confirmed send, so a failed or timed-out
// send recomputes and retries the identical diff on the next invocation.
type Engine struct {
	ledger     EventSource
	watermarks WatermarkStore
	leaders    LeaderSource
	roster     RosterSource
	composer   Composer
	sender     mail.Sender
	clock      func() time.Time
}

// NewEngine constructs the reconciliation engine.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Ledger == nil || deps.Watermarks == nil || deps.Leaders == nil || deps.Roster == nil {
		return nil, fmt.Errorf("ledger, watermark, leader, and roster sources are required")
	}
	if deps.Composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if deps.Sender == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		ledger:     deps.Ledger,
		watermarks: deps.Watermarks,
		leaders:    deps.Leaders,
		roster:     deps.Roster,
		composer:   deps.Composer,
		sender:     deps.Sender,
		clock:      clock,
	}, nil
}

// Run executes one reconciliation pass for the kind and reports per-area
// results. Store failures while loading the window abort the run; per-area
// dispatch failures are recorded in the report and retried next run.
func (e *Engine) Run(ctx context.Context, kind Kind) (Report, error) {
	tracer := otel.Tracer("roster/reconcile")
	ctx, span := tracer.Start(ctx, "reconcile.run",
		trace.WithAttributes(attribute.String("notification.kind", string(kind))))
	defer span.End()

	report := Report{Kind: kind, StartedAt: e.clock().UTC()}

	marks, err := e.watermarks.ListWatermarks(ctx, string(kind))
	if err != nil {
		return report, fmt.Errorf("list watermarks: %w", err)
	}
	markByArea := make(map[string]time.Time, len(marks))
	since := time.Time{}
	for i, mark := range marks {
		markByArea[mark.Area] = mark.LastSentAt
		if i == 0 || mark.LastSentAt.Before(since) {
			since = mark.LastSentAt
		}
	}
	if len(marks) == 0 {
		since = time.Time{}
	}

	events, err := e.ledger.ListReassignmentEventsSince(ctx, "", since)
	if err != nil {
		return report, fmt.Errorf("list reassignment events: %w", err)
	}
	areas := candidateAreas(events)

	// An area seen in the stream but missing a watermark row is implicitly
	// at zero, which can sit below the stored minimum. Reload the full
	// ledger once so that area's first window is complete.
	if !since.IsZero() {
		for _, area := range areas {
			if _, ok := markByArea[area]; !ok {
				events, err = e.ledger.ListReassignmentEventsSince(ctx, "", time.Time{})
				if err != nil {
					return report, fmt.Errorf("list reassignment events: %w", err)
				}
				areas = candidateAreas(events)
				break
			}
		}
	}

	report.Events = len(events)
	span.SetAttributes(attribute.Int("reconcile.events", len(events)), attribute.Int("reconcile.areas", len(areas)))

	results := make([]AreaResult, len(areas))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxAreaParallelism)
	for i, area := range areas {
		i, area := i, area
		group.Go(func() error {
			results[i] = e.processArea(groupCtx, kind, area, markByArea[area], events)
			return nil
		})
	}
	_ = group.Wait()

	report.Areas = results
	return report, nil
}

// processArea computes one area's net diff against that area's own
// watermark and dispatches it when the gate conditions hold.
func (e *Engine) processArea(ctx context.Context, kind Kind, area string, watermark time.Time, events []domain.ReassignmentEvent) AreaResult {
	tracer := otel.Tracer("roster/reconcile")
	ctx, span := tracer.Start(ctx, "reconcile.area",
		trace.WithAttributes(attribute.String("area.code", area)))
	defer span.End()

	result := AreaResult{Area: area}

	// Only events strictly newer than this area's watermark may influence
	// its diff. Hops already reflected in a previously sent notification
	// for this area must never be counted again, even when another area's
	// lagging watermark pulled them back into the loaded window.
	fresh := make([]domain.ReassignmentEvent, 0, len(events))
	latest := time.Time{}
	for _, event := range events {
		if !event.ChangedAt.After(watermark) {
			continue
		}
		fresh = append(fresh, event)
		if event.ChangedAt.After(latest) {
			latest = event.ChangedAt
		}
	}

	diff := DiffForArea(area, EffectiveMoves(fresh))
	result.Arrivals = len(diff.Arrivals)
	result.Departures = len(diff.Departures)
	if diff.Empty() {
		result.Outcome = OutcomeNoChange
		return result
	}

	leaders, err := e.leaders.ListActiveLeadersByArea(ctx, area)
	if err != nil {
		return result.failed(OutcomeStoreFailed, fmt.Errorf("list leaders: %w", err))
	}
	if len(leaders) == 0 {
		// Nobody to notify. The diff stays pending until the area has a
		// leader again; the watermark must not move.
		result.Outcome = OutcomeNoLeader
		return result
	}

	participants, err := e.roster.ListActiveParticipantsByArea(ctx, area)
	if err != nil {
		return result.failed(OutcomeStoreFailed, fmt.Errorf("list roster: %w", err))
	}
	roster := make([]domain.Identity, 0, len(participants))
	for _, participant := range participants {
		roster = append(roster, participant.Identity)
	}

	var content render.Content
	switch kind {
	case KindWeeklyUpdate:
		content = e.composer.ComposeWeeklySummary(diff, roster)
	default:
		content = e.composer.ComposeTeamUpdate(diff, roster)
	}

	recipients := leaderRecipients(leaders)
	result.Recipients = len(recipients)
	if err := e.sender.Send(ctx, recipients, content.Subject, content.TextBody, content.HTMLBody); err != nil {
		return result.failed(OutcomeSendFailed, err)
	}

	if err := e.watermarks.AdvanceWatermark(ctx, area, string(kind), watermark, latest); err != nil {
		// The mail went out but the marker did not move; the next run may
		// resend this window, which the idempotent-retry contract allows.
		return result.failed(OutcomeAdvanceFailed, err)
	}
	result.Outcome = OutcomeSent
	result.AdvancedTo = latest
	return result
}

// candidateAreas collects every area referenced by the window's events in
// natural order. The unassigned pool is skipped: it has no leader to
// notify.
func candidateAreas(events []domain.ReassignmentEvent) []string {
	seen := make(map[string]bool)
	areas := make([]string, 0)
	add := func(area string) {
		if area == "" || area == domain.AreaUnassigned || seen[area] {
			return
		}
		seen[area] = true
		areas = append(areas, area)
	}
	for _, event := range events {
		add(event.OldArea)
		add(event.NewArea)
	}
	domain.SortAreaCodes(areas)
	return areas
}

// leaderRecipients extracts deduplicated leader email addresses.
func leaderRecipients(leaders []domain.LeaderRecord) []string {
	seen := make(map[string]bool, len(leaders))
	recipients := make([]string, 0, len(leaders))
	for _, leader := range leaders {
		email := leader.Identity.Normalized().Email
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		recipients = append(recipients, leader.Identity.Email)
	}
	return recipients
}
