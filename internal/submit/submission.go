// Package submit runs the score submission pipeline: a synchronous write to
// the local store and a best-effort relay to the on-chain leaderboard,
// serialized through a single queue worker.
package submit

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 20 byte hex address
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Submission is one finished game
type Submission struct {
	ID              uuid.UUID
	PlayerAddress   string
	PlayerName      string
	GameContract    string
	Score           int64
	Transactions    int64
	DurationSeconds int64
	CreatedAt       time.Time
}

// Validate checks the submission and fills defaults. A missing player name
// falls back to the address.
func (s *Submission) Validate() error {
	if !ValidAddress(s.PlayerAddress) {
		return fmt.Errorf("%w: player address %q", ErrInvalidInput, s.PlayerAddress)
	}
	if s.GameContract != "" && !ValidAddress(s.GameContract) {
		return fmt.Errorf("%w: game contract %q", ErrInvalidInput, s.GameContract)
	}
	if s.Score < 0 || s.Transactions < 0 || s.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative score, transactions or duration", ErrInvalidInput)
	}
	if s.PlayerName == "" {
		s.PlayerName = s.PlayerAddress
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ChainUpdate is the payload written to the leaderboard contract
type ChainUpdate struct {
	Player       string
	Score        int64
	Transactions int64
}

// Validate rejects updates the contract would refuse
func (u ChainUpdate) Validate() error {
	if !ValidAddress(u.Player) {
		return fmt.Errorf("%w: player address %q", ErrInvalidInput, u.Player)
	}
	if u.Score < 0 || u.Transactions < 0 {
		return fmt.Errorf("%w: negative score or transactions", ErrInvalidInput)
	}
	return nil
}

// Receipt summarizes a mined transaction
type Receipt struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Status      uint64 `json:"status"`
}

// Relay writes score updates to the chain. Implementations are called from a
// single goroutine at a time.
//
// When a transaction has been handed to the node but its outcome is unknown,
// SubmitScore returns a *PendingTxError. The queue then calls AwaitTx with
// that hash instead of sending again, and only resends once AwaitTx reports
// ErrTxDropped.
type Relay interface {
	SubmitScore(ctx context.Context, update ChainUpdate) (*Receipt, error)
	AwaitTx(ctx context.Context, hash string) (*Receipt, error)
	WalletAddress() string
}
