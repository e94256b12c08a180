package submit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fighterarena/internal/store"
)

// Status is the outcome of one leg of a submission
type Status string

const (
	StatusNotAttempted Status = "not_attempted"
	StatusPending      Status = "pending"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
)

// LocalOutcome is the result of the local store write
type LocalOutcome struct {
	Status Status
	Stats  store.PlayerStats
	Err    error
}

// ChainOutcome is the result of the relay leg
type ChainOutcome struct {
	Status   Status
	Receipt  *Receipt
	Class    ErrorClass
	Attempts int
	Err      error
}

// Result is the two-phase outcome of Submit
type Result struct {
	SubmissionID uuid.UUID
	Local        LocalOutcome
	Chain        ChainOutcome
}

// Success reports overall success, which only depends on the local write
func (r Result) Success() bool {
	return r.Local.Status == StatusSucceeded
}

// Options tunes the queue worker
type Options struct {
	// ChainWait bounds how long Submit waits for the relay leg
	ChainWait time.Duration
	// AttemptTimeout bounds one relay call, confirmation included
	AttemptTimeout  time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	DeadLetterLimit int
}

// DefaultOptions returns the production queue settings
func DefaultOptions() Options {
	return Options{
		ChainWait:       10 * time.Second,
		AttemptTimeout:  90 * time.Second,
		MaxAttempts:     5,
		BackoffBase:     2 * time.Second,
		BackoffMax:      time.Minute,
		DeadLetterLimit: 100,
	}
}

// DeadLetter is a relay item that exhausted its retries
type DeadLetter struct {
	ID       uuid.UUID
	Update   ChainUpdate
	Attempts int
	// TxHash is the last transaction sent for the item, if any. It may still
	// be mined.
	TxHash string
	Err    error
	At     time.Time
}

var errNoReceipt = errors.New("relay returned neither a receipt nor an error")

type job struct {
	id        uuid.UUID
	update    ChainUpdate
	attempts  int
	notBefore time.Time
	txHash    string // sent but unconfirmed
	done      chan ChainOutcome
}

func (j *job) resolve(outcome ChainOutcome) {
	outcome.Attempts = j.attempts
	j.done <- outcome
}

// Service owns the submission queue and its single worker
type Service struct {
	store store.Store
	relay Relay
	opts  Options
	now   func() time.Time

	mu          sync.Mutex
	queue       []*job
	deadLetters []DeadLetter

	wake       chan struct{}
	submitting atomic.Bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewService creates a submission service. relay may be nil, in which case
// only the local leg runs.
func NewService(st store.Store, relay Relay, opts Options) *Service {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = def.BackoffBase
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = max(def.BackoffMax, opts.BackoffBase)
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = def.AttemptTimeout
	}
	if opts.DeadLetterLimit <= 0 {
		opts.DeadLetterLimit = def.DeadLetterLimit
	}
	return &Service{
		store: st,
		relay: relay,
		opts:  opts,
		now:   time.Now,
		wake:  make(chan struct{}, 1),
	}
}

// RelayEnabled reports whether a chain relay is configured
func (s *Service) RelayEnabled() bool {
	return s.relay != nil
}

// WalletAddress returns the game wallet used by the relay, or "" if disabled
func (s *Service) WalletAddress() string {
	if s.relay == nil {
		return ""
	}
	return s.relay.WalletAddress()
}

// Start launches the queue worker. It runs until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	log.Printf("Submission worker started (relay enabled: %t)", s.relay != nil)
}

// Stop halts the worker and waits for an in-flight attempt to return.
// Items still queued are left in place and reported.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	if n := s.Pending(); n > 0 {
		log.Printf("Submission worker stopped with %d relay items still queued", n)
	} else {
		log.Println("Submission worker stopped")
	}
}

// Submit persists a finished game locally and relays it to the chain. It
// waits at most ChainWait for the relay leg; after that the chain status is
// pending and the item stays queued.
func (s *Service) Submit(ctx context.Context, sub Submission) Result {
	if err := sub.Validate(); err != nil {
		return Result{
			Local: LocalOutcome{Status: StatusFailed, Err: err},
			Chain: ChainOutcome{Status: StatusNotAttempted, Class: ClassValidation, Err: err},
		}
	}

	res := Result{SubmissionID: sub.ID}
	stats, err := s.store.RecordGame(ctx, store.GameRecord{
		PlayerName:   sub.PlayerName,
		Score:        sub.Score,
		GameDuration: sub.DurationSeconds,
		CreatedAt:    sub.CreatedAt,
	})
	if err != nil {
		log.Printf("Local save failed for submission %s (%s): %v", sub.ID, sub.PlayerName, err)
		res.Local = LocalOutcome{Status: StatusFailed, Err: err}
	} else {
		res.Local = LocalOutcome{Status: StatusSucceeded, Stats: stats}
	}

	// The chain leg does not depend on the local one
	res.Chain = s.relayAndWait(ctx, sub.ID, ChainUpdate{
		Player:       sub.PlayerAddress,
		Score:        sub.Score,
		Transactions: sub.Transactions,
	})
	return res
}

// Relay queues a bare chain update and waits for it like Submit does
func (s *Service) Relay(ctx context.Context, update ChainUpdate) ChainOutcome {
	if err := update.Validate(); err != nil {
		return ChainOutcome{Status: StatusNotAttempted, Class: ClassValidation, Err: err}
	}
	return s.relayAndWait(ctx, uuid.New(), update)
}

func (s *Service) relayAndWait(ctx context.Context, id uuid.UUID, update ChainUpdate) ChainOutcome {
	if s.relay == nil {
		return ChainOutcome{Status: StatusNotAttempted, Class: ClassNone, Err: ErrRelayDisabled}
	}

	j := s.enqueue(id, update)
	if s.opts.ChainWait <= 0 {
		return ChainOutcome{Status: StatusPending}
	}

	timer := time.NewTimer(s.opts.ChainWait)
	defer timer.Stop()
	select {
	case outcome := <-j.done:
		return outcome
	case <-timer.C:
		log.Printf("Relay of %s still queued after %v", id, s.opts.ChainWait)
		return ChainOutcome{Status: StatusPending}
	case <-ctx.Done():
		return ChainOutcome{Status: StatusPending, Err: ctx.Err()}
	}
}

func (s *Service) enqueue(id uuid.UUID, update ChainUpdate) *job {
	j := &job{id: id, update: update, done: make(chan ChainOutcome, 1)}

	s.mu.Lock()
	s.queue = append(s.queue, j)
	depth := len(s.queue)
	s.mu.Unlock()

	log.Printf("Queued relay %s for %s (score %d, queue depth %d)", id, update.Player, update.Score, depth)
	s.notify()
	return j
}

func (s *Service) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued relay items
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// DeadLetters returns a copy of the items that exhausted their retries
func (s *Service) DeadLetters() []DeadLetter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DeadLetter(nil), s.deadLetters...)
}

func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if wait := s.drain(ctx); wait > 0 {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// drain processes queued items one at a time. It returns how long to wait
// before the next cycle, or 0 when the queue is empty.
func (s *Service) drain(ctx context.Context) time.Duration {
	// At most one drain runs at a time; the wallet nonce depends on it
	if !s.submitting.CompareAndSwap(false, true) {
		return 0
	}
	defer s.submitting.Store(false)

	for ctx.Err() == nil {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return 0
		}
		j := s.queue[0]
		if wait := j.notBefore.Sub(s.now()); wait > 0 {
			s.mu.Unlock()
			return wait
		}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if wait := s.attempt(ctx, j); wait > 0 {
			return wait
		}
	}
	return 0
}

// attempt relays one item. A positive return means the item went back to
// the head of the queue and the drain pauses for that long.
func (s *Service) attempt(ctx context.Context, j *job) time.Duration {
	j.attempts++
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
	receipt, err := s.send(attemptCtx, j)
	cancel()

	if err == nil && receipt == nil {
		err = errNoReceipt
	}
	var pending *PendingTxError
	if errors.As(err, &pending) {
		j.txHash = pending.Hash
	}

	if err == nil {
		log.Printf("Relayed %s for %s in tx %s (attempt %d)", j.id, j.update.Player, receipt.TxHash, j.attempts)
		j.resolve(ChainOutcome{Status: StatusSucceeded, Receipt: receipt, Class: ClassNone})
		return 0
	}

	// Shutting down: keep the item for a later run
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		j.attempts--
		s.requeue(j)
		return 0
	}

	class := Classify(err)
	if !class.Retryable() {
		log.Printf("Dropping relay %s for %s (%s): %v", j.id, j.update.Player, class, err)
		j.resolve(ChainOutcome{Status: StatusFailed, Class: class, Err: err})
		return 0
	}

	if j.attempts >= s.opts.MaxAttempts {
		s.deadLetter(j, err)
		j.resolve(ChainOutcome{
			Status: StatusFailed,
			Class:  class,
			Err:    fmt.Errorf("gave up after %d attempts: %w", j.attempts, err),
		})
		return 0
	}

	wait := s.backoff(j.attempts)
	j.notBefore = s.now().Add(wait)
	s.requeue(j)
	log.Printf("Relay %s failed (attempt %d/%d), retrying in %v: %v",
		j.id, j.attempts, s.opts.MaxAttempts, wait, err)
	return wait
}

// send relays the item, or waits on the transaction an earlier attempt sent.
// A new transaction goes out only once the earlier one is known to be dropped.
func (s *Service) send(ctx context.Context, j *job) (*Receipt, error) {
	if j.txHash != "" {
		receipt, err := s.relay.AwaitTx(ctx, j.txHash)
		if !errors.Is(err, ErrTxDropped) {
			return receipt, err
		}
		log.Printf("Relay %s: tx %s was dropped, sending again", j.id, j.txHash)
		j.txHash = ""
	}
	return s.relay.SubmitScore(ctx, j.update)
}

func (s *Service) requeue(j *job) {
	s.mu.Lock()
	s.queue = append([]*job{j}, s.queue...)
	s.mu.Unlock()
}

func (s *Service) deadLetter(j *job, err error) {
	s.mu.Lock()
	s.deadLetters = append(s.deadLetters, DeadLetter{
		ID:       j.id,
		Update:   j.update,
		Attempts: j.attempts,
		TxHash:   j.txHash,
		Err:      err,
		At:       s.now(),
	})
	if over := len(s.deadLetters) - s.opts.DeadLetterLimit; over > 0 {
		s.deadLetters = s.deadLetters[over:]
	}
	s.mu.Unlock()
	log.Printf("Dead-lettered relay %s for %s after %d attempts: %v", j.id, j.update.Player, j.attempts, err)
}

func (s *Service) backoff(attempt int) time.Duration {
	wait := s.opts.BackoffBase
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= s.opts.BackoffMax {
			return s.opts.BackoffMax
		}
	}
	return min(wait, s.opts.BackoffMax)
}
