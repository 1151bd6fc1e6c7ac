// Package render composes notification copy from net roster diffs. All
// composition is pure: dispatch and watermark bookkeeping stay with the
// caller.
package render

import (
	"html"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fieldcount/roster/internal/services/roster/domain"
)

// Localizer is the minimal message-printer contract required by the composer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Content is rendered notification copy ready for the mail transport.
type Content struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Composer renders team-update and weekly-summary notifications.
type Composer struct {
	loc Localizer
}

// NewComposer builds a composer; a nil localizer falls back to English.
func NewComposer(loc Localizer) *Composer {
	if loc == nil {
		loc = message.NewPrinter(language.English)
	}
	return &Composer{loc: loc}
}

// ComposeTeamUpdate renders the roster-change notice for one area's
// leaders. Moves name only effective source and destination areas; hops
// collapsed away upstream never reach this layer.
func (c *Composer) ComposeTeamUpdate(diff domain.AreaDiff, roster []domain.Identity) Content {
	subject := c.loc.Sprintf("roster.team_update.subject", diff.Area)
	intro := c.loc.Sprintf("roster.team_update.intro", diff.Area)
	return c.compose(subject, intro, diff, roster)
}

// ComposeWeeklySummary renders the scheduled summary for one area's
// leaders.
func (c *Composer) ComposeWeeklySummary(diff domain.AreaDiff, roster []domain.Identity) Content {
	subject := c.loc.Sprintf("roster.weekly_update.subject", diff.Area)
	intro := c.loc.Sprintf("roster.weekly_update.intro", diff.Area)
	return c.compose(subject, intro, diff, roster)
}

func (c *Composer) compose(subject, intro string, diff domain.AreaDiff, roster []domain.Identity) Content {
	arrivals := sortedMoves(diff.Arrivals)
	departures := sortedMoves(diff.Departures)
	names := rosterNames(roster)

	var text strings.Builder
	var htmlBody strings.Builder
	htmlBody.WriteString("<p>" + html.EscapeString(intro) + "</p>\n")
	text.WriteString(intro + "\n")

	if len(arrivals) > 0 {
		heading := c.loc.Sprintf("roster.section.arrivals")
		writeSection(&text, &htmlBody, heading, arrivals, func(move domain.Move) string {
			return c.loc.Sprintf("roster.line.arrival", move.Identity.DisplayName(), c.areaName(move.FromArea))
		})
	}
	if len(departures) > 0 {
		heading := c.loc.Sprintf("roster.section.departures")
		writeSection(&text, &htmlBody, heading, departures, func(move domain.Move) string {
			return c.loc.Sprintf("roster.line.departure", move.Identity.DisplayName(), c.areaName(move.ToArea))
		})
	}
	if len(names) > 0 {
		heading := c.loc.Sprintf("roster.section.roster", len(names))
		text.WriteString("\n" + heading + "\n")
		htmlBody.WriteString("<h3>" + html.EscapeString(heading) + "</h3>\n<ul>\n")
		for _, name := range names {
			text.WriteString("  - " + name + "\n")
			htmlBody.WriteString("  <li>" + html.EscapeString(name) + "</li>\n")
		}
		htmlBody.WriteString("</ul>\n")
	}

	return Content{
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: htmlBody.String(),
	}
}

func writeSection(text, htmlBody *strings.Builder, heading string, moves []domain.Move, line func(domain.Move) string) {
	text.WriteString("\n" + heading + "\n")
	htmlBody.WriteString("<h3>" + html.EscapeString(heading) + "</h3>\n<ul>\n")
	for _, move := range moves {
		rendered := line(move)
		text.WriteString("  - " + rendered + "\n")
		htmlBody.WriteString("  <li>" + html.EscapeString(rendered) + "</li>\n")
	}
	htmlBody.WriteString("</ul>\n")
}

// areaName renders an area code for notification copy, translating the
// unassigned pool into readable text.
func (c *Composer) areaName(area string) string {
	if area == domain.AreaUnassigned {
		return c.loc.Sprintf("roster.area.unassigned")
	}
	return c.loc.Sprintf("roster.area.code", area)
}

func sortedMoves(moves []domain.Move) []domain.Move {
	ordered := make([]domain.Move, len(moves))
	copy(ordered, moves)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Identity.DisplayName() < ordered[j].Identity.DisplayName()
	})
	return ordered
}

func rosterNames(roster []domain.Identity) []string {
	names := make([]string, 0, len(roster))
	for _, identity := range roster {
		names = append(names, identity.DisplayName())
	}
	sort.Strings(names)
	return names
}
