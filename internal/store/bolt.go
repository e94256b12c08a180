package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketLeaderboard = []byte("leaderboard")
	bucketPlayerStats = []byte("player_stats")
)

// Bolt is a Store backed by a single bbolt file
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the database at path
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLeaderboard, bucketPlayerStats} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) RecordGame(ctx context.Context, rec GameRecord) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	if rec.PlayerName == "" {
		return PlayerStats{}, ErrEmptyPlayer
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = b.now()
	}

	var stats PlayerStats
	err := b.db.Update(func(tx *bolt.Tx) error {
		logBucket := tx.Bucket(bucketLeaderboard)
		seq, err := logBucket.NextSequence()
		if err != nil {
			return err
		}
		encoded, err := msgpack.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode game record: %w", err)
		}
		if err := logBucket.Put(sequenceKey(seq), encoded); err != nil {
			return err
		}

		statsBucket := tx.Bucket(bucketPlayerStats)
		key := []byte(rec.PlayerName)
		if existing := statsBucket.Get(key); existing != nil {
			if err := msgpack.Unmarshal(existing, &stats); err != nil {
				return fmt.Errorf("decode stats for %s: %w", rec.PlayerName, err)
			}
		} else {
			stats = PlayerStats{PlayerName: rec.PlayerName}
		}
		stats.Accumulate(rec.Score, rec.CreatedAt)

		encoded, err = msgpack.Marshal(stats)
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		return statsBucket.Put(key, encoded)
	})
	if err != nil {
		return PlayerStats{}, fmt.Errorf("record game for %s: %w", rec.PlayerName, err)
	}
	return stats, nil
}

func (b *Bolt) PlayerStats(ctx context.Context, playerName string) (PlayerStats, bool, error) {
	var (
		stats PlayerStats
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPlayerStats).Get([]byte(playerName))
		if raw == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(raw, &stats)
	})
	if err != nil {
		return PlayerStats{}, false, fmt.Errorf("read stats for %s: %w", playerName, err)
	}
	return stats, found, nil
}

func (b *Bolt) TopPlayers(ctx context.Context, limit int) ([]PlayerStats, error) {
	var all []PlayerStats
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlayerStats).ForEach(func(_, v []byte) error {
			var stats PlayerStats
			if err := msgpack.Unmarshal(v, &stats); err != nil {
				return err
			}
			all = append(all, stats)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}

	sortByBest(all)
	return all[:clampLimit(limit, len(all))], nil
}

func (b *Bolt) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	var recent []GameRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLeaderboard).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(recent) >= limit {
				break
			}
			var rec GameRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return err
			}
			recent = append(recent, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recent games: %w", err)
	}
	return recent, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
