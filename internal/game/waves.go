package game

import (
	"math"
	"math/rand"
	"time"
)

// WaveState is the phase of the wave scheduler
type WaveState uint8

const (
	WaveIdle WaveState = iota
	WaveAnnouncing
	WaveSpawning
	WaveActive
	WaveComplete
)

func (s WaveState) String() string {
	switch s {
	case WaveIdle:
		return "idle"
	case WaveAnnouncing:
		return "announcing"
	case WaveSpawning:
		return "spawning"
	case WaveActive:
		return "active"
	case WaveComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Wave is one escalating batch of enemies
type Wave struct {
	Number           int
	Total            int
	RemainingToSpawn int
	Live             map[uint32]*Actor
}

// IsComplete reports whether every enemy of the wave has spawned and died
func (w *Wave) IsComplete() bool {
	return w != nil && len(w.Live) == 0 && w.RemainingToSpawn == 0
}

// TotalEnemies returns the enemy pool size of wave n
func TotalEnemies(rules Rules, n int) int {
	return rules.BaseEnemies + int(math.Floor(float64(n)*rules.EnemyMultiplier))
}

// WaveHooks connects the scheduler to the session that owns it
type WaveHooks struct {
	NextID     func() uint32
	OnAnnounce func(wave, total int)
	OnSpawn    func(enemy *Actor)
	OnComplete func(wave int)
}

// WaveScheduler drives Idle -> Announcing -> Spawning -> Active -> Complete
// and on to the next wave. Spawns are released in staggered batches through
// the session's timers, so Stop cancels everything still pending.
type WaveScheduler struct {
	rules  Rules
	arena  Arena
	timers *Timers
	rng    *rand.Rand
	hooks  WaveHooks

	state     WaveState
	wave      *Wave
	inFlight  int
	scheduled int
	pending   map[TimerID]struct{}
}

// NewWaveScheduler creates an idle scheduler
func NewWaveScheduler(rules Rules, arena Arena, timers *Timers, rng *rand.Rand, hooks WaveHooks) *WaveScheduler {
	if rules.MaxConcurrentSpawns <= 0 {
		rules.MaxConcurrentSpawns = 1
	}
	return &WaveScheduler{
		rules:   rules,
		arena:   arena,
		timers:  timers,
		rng:     rng,
		hooks:   hooks,
		pending: make(map[TimerID]struct{}),
	}
}

// State returns the current phase
func (s *WaveScheduler) State() WaveState {
	return s.state
}

// Wave returns the current wave, nil before the first StartWave
func (s *WaveScheduler) Wave() *Wave {
	return s.wave
}

// Number returns the current wave number, zero before the first wave
func (s *WaveScheduler) Number() int {
	if s.wave == nil {
		return 0
	}
	return s.wave.Number
}

// PendingSpawns returns the number of scheduled but not yet instantiated enemies
func (s *WaveScheduler) PendingSpawns() int {
	return len(s.pending)
}

// StartWave announces wave n and schedules spawning after the announce delay
func (s *WaveScheduler) StartWave(n int, now time.Duration) {
	total := TotalEnemies(s.rules, n)
	s.wave = &Wave{
		Number:           n,
		Total:            total,
		RemainingToSpawn: total,
		Live:             make(map[uint32]*Actor),
	}
	s.inFlight = 0
	s.scheduled = 0
	s.state = WaveAnnouncing
	if s.hooks.OnAnnounce != nil {
		s.hooks.OnAnnounce(n, total)
	}

	due := now + s.rules.AnnounceDelay
	var id TimerID
	id = s.timers.At(due, func() {
		delete(s.pending, id)
		s.state = WaveSpawning
		s.scheduleBatch(due)
	})
	s.track(id)
}

func (s *WaveScheduler) track(id TimerID) {
	s.pending[id] = struct{}{}
}

// scheduleBatch schedules up to MaxConcurrentSpawns enemies, one stagger
// interval apart, starting at from
func (s *WaveScheduler) scheduleBatch(from time.Duration) {
	batch := min(s.rules.MaxConcurrentSpawns, s.wave.Total-s.scheduled)
	for i := 0; i < batch; i++ {
		due := from + s.rules.SpawnStagger*time.Duration(i)
		var id TimerID
		id = s.timers.At(due, func() {
			delete(s.pending, id)
			s.spawnOne(due)
		})
		s.track(id)
		s.inFlight++
		s.scheduled++
	}
	if batch == 0 && s.wave.RemainingToSpawn == 0 {
		s.state = WaveActive
	}
}

func (s *WaveScheduler) spawnOne(now time.Duration) {
	s.inFlight--

	var id uint32
	if s.hooks.NextID != nil {
		id = s.hooks.NextID()
	}
	enemy := NewEnemy(id, ChooseEnemyKind(s.wave.Number, s.rng), s.wave.Number, EdgeSpawnPoint(s.arena, s.rng))
	s.wave.Live[enemy.ID] = enemy
	s.wave.RemainingToSpawn--
	if s.hooks.OnSpawn != nil {
		s.hooks.OnSpawn(enemy)
	}

	switch {
	case s.wave.RemainingToSpawn == 0:
		s.state = WaveActive
	case s.inFlight == 0:
		s.scheduleBatch(now + s.rules.SpawnStagger)
	}
}

// EnemyDestroyed removes a dead enemy from the live set
func (s *WaveScheduler) EnemyDestroyed(enemy *Actor) {
	if s.wave == nil || enemy == nil {
		return
	}
	delete(s.wave.Live, enemy.ID)
}

// Update detects wave completion and advances to the next wave. It returns
// true on the tick a wave completes.
func (s *WaveScheduler) Update(now time.Duration) bool {
	if s.state != WaveActive || !s.wave.IsComplete() {
		return false
	}

	finished := s.wave.Number
	s.state = WaveComplete
	if s.hooks.OnComplete != nil {
		s.hooks.OnComplete(finished)
	}
	s.StartWave(finished+1, now)
	return true
}

// Stop cancels every pending announce and spawn callback
func (s *WaveScheduler) Stop() {
	for id := range s.pending {
		s.timers.Cancel(id)
	}
	clear(s.pending)
	s.inFlight = 0
	s.state = WaveIdle
}

// EdgeSpawnPoint picks a random position along one of the four arena edges
func EdgeSpawnPoint(arena Arena, rng *rand.Rand) Vec2 {
	const inset = 10.0
	along := rng.Float64()
	switch rng.Intn(4) {
	case 0:
		return Vec2{X: along * arena.Width, Y: inset}
	case 1:
		return Vec2{X: arena.Width - inset, Y: along * arena.Height}
	case 2:
		return Vec2{X: along * arena.Width, Y: arena.Height - inset}
	default:
		return Vec2{X: inset, Y: along * arena.Height}
	}
}
