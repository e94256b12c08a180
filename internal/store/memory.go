package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Data is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	log   []GameRecord
	stats map[string]*PlayerStats
	now   func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		stats: make(map[string]*PlayerStats),
		now:   time.Now,
	}
}

func (m *Memory) RecordGame(ctx context.Context, rec GameRecord) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	if rec.PlayerName == "" {
		return PlayerStats{}, ErrEmptyPlayer
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.log = append(m.log, rec)
	stats, ok := m.stats[rec.PlayerName]
	if !ok {
		stats = &PlayerStats{PlayerName: rec.PlayerName}
		m.stats[rec.PlayerName] = stats
	}
	stats.Accumulate(rec.Score, rec.CreatedAt)
	return *stats, nil
}

func (m *Memory) PlayerStats(ctx context.Context, playerName string) (PlayerStats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats, ok := m.stats[playerName]
	if !ok {
		return PlayerStats{}, false, nil
	}
	return *stats, true, nil
}

func (m *Memory) TopPlayers(ctx context.Context, limit int) ([]PlayerStats, error) {
	m.mu.RLock()
	all := make([]PlayerStats, 0, len(m.stats))
	for _, s := range m.stats {
		all = append(all, *s)
	}
	m.mu.RUnlock()

	sortByBest(all)
	return all[:clampLimit(limit, len(all))], nil
}

func (m *Memory) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := clampLimit(limit, len(m.log))
	recent := make([]GameRecord, 0, n)
	for i := len(m.log) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, m.log[i])
	}
	return recent, nil
}

func (m *Memory) Close() error { return nil }
