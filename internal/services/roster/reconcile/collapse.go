package reconcile

import (
	"sort"

	"github.com/fieldcount/roster/internal/services/roster/domain"
)

// EffectiveMoves partitions events by identity, orders each identity's
// chain by ChangedAt (insertion order breaks ties), and collapses the
// chain to its net source-to-destination pair. Chains that return to their
// starting area collapse to nothing: the identity contributes no arrival
// or departure anywhere, including areas it merely passed through.
//
// The result is ordered by identity key so callers see deterministic
// output for a given event set.
func EffectiveMoves(events []domain.ReassignmentEvent) []domain.Move {
	if len(events) == 0 {
		return nil
	}

	ordered := make([]domain.ReassignmentEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ChangedAt.Equal(ordered[j].ChangedAt) {
			return ordered[i].ChangedAt.Before(ordered[j].ChangedAt)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	chains := make(map[string][]domain.ReassignmentEvent)
	keys := make([]string, 0)
	for _, event := range ordered {
		key := event.Identity.Key()
		if _, seen := chains[key]; !seen {
			keys = append(keys, key)
		}
		chains[key] = append(chains[key], event)
	}
	sort.Strings(keys)

	moves := make([]domain.Move, 0, len(keys))
	for _, key := range keys {
		chain := chains[key]
		first := chain[0]
		last := chain[len(chain)-1]
		if first.OldArea == last.NewArea {
			continue
		}
		moves = append(moves, domain.Move{
			Identity:      last.Identity,
			FromArea:      first.OldArea,
			ToArea:        last.NewArea,
			LastChangedAt: last.ChangedAt,
		})
	}
	if len(moves) == 0 {
		return nil
	}
	return moves
}

// DiffForArea extracts one area's net arrivals and departures from a set
// of collapsed moves. Areas visited mid-chain appear in neither list.
func DiffForArea(area string, moves []domain.Move) domain.AreaDiff {
	diff := domain.AreaDiff{Area: area}
	for _, move := range moves {
		switch area {
		case move.ToArea:
			diff.Arrivals = append(diff.Arrivals, move)
		case move.FromArea:
			diff.Departures = append(diff.Departures, move)
		}
	}
	return diff
}
