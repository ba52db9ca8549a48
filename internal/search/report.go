package search

import (
	"sort"
	"time"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// BuildTable sorts the best fares ascending by total value.
// Equal totals keep the order in which their keys were first seen.
func BuildTable(best *BestFares, summary types.RunSummary, now time.Time) *types.FareTable {
	entries := best.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total.LessThan(entries[j].Total)
	})

	return &types.FareTable{
		Entries:     entries,
		Summary:     summary,
		GeneratedAt: now,
	}
}
