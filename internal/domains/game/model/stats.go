package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

const topRatedLimit = 5

// Stats là aggregate cho dashboard
type Stats struct {
	TotalGames     int              `json:"totalGames"`
	TotalHours     float64          `json:"totalHours"`
	AverageRating  float64          `json:"averageRating"`
	CompletionRate float64          `json:"completionRate"`
	ByStatus       map[Status]int   `json:"byStatus"`
	ByPlatform     map[Platform]int `json:"byPlatform"`
	TopRated       []GameSummary    `json:"topRated"`
}

// ComputeStats tổng hợp số liệu từ danh sách game.
// averageRating chỉ tính các game đã được chấm (rating > 0).
func ComputeStats(games []*Game) *Stats {
	stats := &Stats{
		TotalGames: len(games),
		ByStatus:   make(map[Status]int, len(Statuses)),
		ByPlatform: make(map[Platform]int),
		TopRated:   []GameSummary{},
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}

	hours := decimal.Zero
	ratingSum := decimal.Zero
	rated := 0
	completed := 0

	for _, g := range games {
		hours = hours.Add(decimal.NewFromFloat(g.HoursPlayed))
		if g.Rating > 0 {
			ratingSum = ratingSum.Add(decimal.NewFromFloat(g.Rating))
			rated++
		}
		if g.Status == StatusCompleted {
			completed++
		}
		stats.ByStatus[g.Status]++
		stats.ByPlatform[g.Platform]++
	}

	stats.TotalHours = hours.Round(2).InexactFloat64()
	if rated > 0 {
		stats.AverageRating = ratingSum.Div(decimal.NewFromInt(int64(rated))).Round(2).InexactFloat64()
	}
	if len(games) > 0 {
		stats.CompletionRate = decimal.NewFromInt(int64(completed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(len(games)))).
			Round(2).
			InexactFloat64()
	}

	stats.TopRated = topRated(games)
	return stats
}

func topRated(games []*Game) []GameSummary {
	rated := make([]*Game, 0, len(games))
	for _, g := range games {
		if g.Rating > 0 {
			rated = append(rated, g)
		}
	}

	sort.SliceStable(rated, func(i, j int) bool {
		if rated[i].Rating != rated[j].Rating {
			return rated[i].Rating > rated[j].Rating
		}
		return rated[i].Title < rated[j].Title
	})

	if len(rated) > topRatedLimit {
		rated = rated[:topRatedLimit]
	}

	out := make([]GameSummary, 0, len(rated))
	for _, g := range rated {
		out = append(out, g.ToSummary())
	}
	return out
}
