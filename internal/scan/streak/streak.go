package streak

import (
	"sort"
	"time"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
)

type Result struct {
	Current int
	Best    int
}

// Compute derives the current and best consecutive-day streaks from a set of
// completed-scan dates (YYYY-MM-DD). Multiple scans on one date count once.
// The current streak ends at today, or at today-1 when today has no scan yet;
// any older break resets it. Empty input yields {0, 0}. Unparseable dates are
// ignored.
func Compute(completedDates []string, today string) Result {
	days := map[int64]bool{}
	for _, d := range completedDates {
		t, err := time.Parse(scan.DateLayout, d)
		if err != nil {
			continue
		}
		days[epochDay(t)] = true
	}
	if len(days) == 0 {
		return Result{}
	}

	sorted := make([]int64, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	best := 1
	run := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	current := 0
	if t, err := time.Parse(scan.DateLayout, today); err == nil {
		anchor := epochDay(t)
		if !days[anchor] {
			anchor--
		}
		for days[anchor] {
			current++
			anchor--
		}
	}

	return Result{Current: current, Best: best}
}

func epochDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
