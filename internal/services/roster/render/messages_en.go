package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "roster.team_update.subject", "Area %s roster update")
	message.SetString(lang, "roster.team_update.intro", "The roster for area %s has changed since the last update.")
	message.SetString(lang, "roster.weekly_update.subject", "Weekly summary for area %s")
	message.SetString(lang, "roster.weekly_update.intro", "Weekly roster summary for area %s.")
	message.SetString(lang, "roster.section.arrivals", "New to your area")
	message.SetString(lang, "roster.section.departures", "Left your area")
	message.SetString(lang, "roster.section.roster", "Current roster (%d)")
	message.SetString(lang, "roster.line.arrival", "%s (from %s)")
	message.SetString(lang, "roster.line.departure", "%s (moved to %s)")
	message.SetString(lang, "roster.area.code", "area %s")
	message.SetString(lang, "roster.area.unassigned", "the unassigned pool")
}
