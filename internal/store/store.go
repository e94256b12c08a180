// Package store persists finished games locally: an append-only leaderboard
// log and a per-player aggregate upserted on every game.
package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrEmptyPlayer is returned when a record has no player name
var ErrEmptyPlayer = errors.New("store: player name is required")

// GameRecord is one row of the leaderboard log
type GameRecord struct {
	PlayerName   string    `msgpack:"player_name" json:"playerName"`
	Score        int64     `msgpack:"score" json:"score"`
	GameDuration int64     `msgpack:"game_duration" json:"gameDuration"`
	CreatedAt    time.Time `msgpack:"created_at" json:"createdAt"`
}

// PlayerStats is the aggregate of every game a player finished
type PlayerStats struct {
	PlayerName   string    `msgpack:"player_name" json:"playerName"`
	TotalGames   int64     `msgpack:"total_games" json:"totalGames"`
	BestScore    int64     `msgpack:"best_score" json:"bestScore"`
	TotalScore   int64     `msgpack:"total_score" json:"totalScore"`
	AverageScore float64   `msgpack:"average_score" json:"averageScore"`
	UpdatedAt    time.Time `msgpack:"updated_at" json:"updatedAt"`
}

// Accumulate folds one more game into the aggregate
func (p *PlayerStats) Accumulate(score int64, at time.Time) {
	p.TotalGames++
	p.TotalScore += score
	p.BestScore = max(p.BestScore, score)
	p.AverageScore = float64(p.TotalScore) / float64(p.TotalGames)
	p.UpdatedAt = at
}

// Store is the local datastore behind score submission
type Store interface {
	// RecordGame appends the game to the log and upserts the player's
	// aggregate, returning the aggregate after the update
	RecordGame(ctx context.Context, rec GameRecord) (PlayerStats, error)
	PlayerStats(ctx context.Context, playerName string) (PlayerStats, bool, error)
	TopPlayers(ctx context.Context, limit int) ([]PlayerStats, error)
	RecentGames(ctx context.Context, limit int) ([]GameRecord, error)
	Close() error
}

func sortByBest(stats []PlayerStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].BestScore != stats[j].BestScore {
			return stats[i].BestScore > stats[j].BestScore
		}
		return stats[i].PlayerName < stats[j].PlayerName
	})
}

func clampLimit(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}
