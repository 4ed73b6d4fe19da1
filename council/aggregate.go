package council

import (
	"math"
	"sort"
)

// AggregateRankings converts each member's stage-3 ranking into mean
// positions per labeled response, resolved through the label map.
//
// Every parsed label occurrence counts, duplicates included; labels missing
// from the map are ignored. An entry with zero recorded positions is omitted.
// The result is sorted ascending by average rank (lower is better); the sort
// is stable, so ties keep first-seen order across the member iteration.
func AggregateRankings(stage3 []RankingResult, labelToMember map[string]string) []AggregateEntry {
	positions := make(map[string][]int)
	firstSeen := make([]string, 0, len(labelToMember))

	for _, ranking := range stage3 {
		for i, label := range ParseRanking(ranking.Ranking) {
			name, ok := labelToMember[label]
			if !ok {
				continue
			}
			if _, seen := positions[name]; !seen {
				firstSeen = append(firstSeen, name)
			}
			positions[name] = append(positions[name], i+1)
		}
	}

	entries := make([]AggregateEntry, 0, len(firstSeen))
	for _, name := range firstSeen {
		recorded := positions[name]
		sum := 0
		for _, p := range recorded {
			sum += p
		}
		avg := float64(sum) / float64(len(recorded))
		entries = append(entries, AggregateEntry{
			Model:         name,
			AverageRank:   math.Round(avg*100) / 100,
			RankingsCount: len(recorded),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AverageRank < entries[j].AverageRank
	})

	return entries
}
