package game

import (
	"log"
	"math/rand"
	"time"
)

// EndReason explains why a session ended
type EndReason string

const (
	EndPlayerDestroyed EndReason = "player_destroyed"
	EndTimeExpired     EndReason = "time_expired"
	EndAbandoned       EndReason = "abandoned"
)

// Completed reports whether the reason counts as a finished game whose score
// should be submitted
func (r EndReason) Completed() bool {
	return r == EndPlayerDestroyed || r == EndTimeExpired
}

// GameResult is the final state of a session
type GameResult struct {
	SessionID string
	Identity
	Score    int
	Wave     int
	Kills    int
	Shots    int
	MaxCombo int
	Duration time.Duration
	Reason   EndReason
}

// DurationSeconds returns the game length in whole seconds
func (r GameResult) DurationSeconds() int {
	return int(r.Duration / time.Second)
}

// Session is one single-player game. It is not safe for concurrent use: the
// owner calls SetInput and Step from the same goroutine or under its own lock.
type Session struct {
	ID       string
	identity Identity
	rules    Rules
	arena    Arena
	rng      *rand.Rand
	clock    Clock
	timers   *Timers

	player      *Actor
	enemies     []*Actor
	playerShots *ProjectilePool
	enemyShots  *ProjectilePool
	tokens      map[uint32]*Token
	waves       *WaveScheduler
	score       *ScoreKeeper
	input       InputMsg
	events      []GameEvent

	nextID     uint32
	kills      int
	started    bool
	over       bool
	closed     bool
	result     GameResult
	onGameOver func(GameResult)
}

// NewSession creates a session. Call Start before the first Step.
func NewSession(id string, identity Identity, rules Rules, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if rules.ArenaWidth <= 0 || rules.ArenaHeight <= 0 {
		rules.ArenaWidth, rules.ArenaHeight = ArenaWidth, ArenaHeight
	}
	arena := Arena{Width: rules.ArenaWidth, Height: rules.ArenaHeight}

	s := &Session{
		ID:          id,
		identity:    identity,
		rules:       rules,
		arena:       arena,
		rng:         rng,
		clock:       NewClock(rules.TickRate),
		timers:      NewTimers(),
		playerShots: NewProjectilePool(SidePlayer, MaxProjectiles),
		enemyShots:  NewProjectilePool(SideEnemy, MaxProjectiles),
		tokens:      make(map[uint32]*Token),
		score:       NewScoreKeeper(),
		nextID:      1,
	}
	s.player = NewPlayer(s.allocID(), Vec2{arena.Width / 2, arena.Height / 2})
	s.waves = NewWaveScheduler(rules, arena, s.timers, rng, WaveHooks{
		NextID:     s.allocID,
		OnAnnounce: s.onWaveAnnounce,
		OnSpawn:    s.onEnemySpawn,
		OnComplete: s.onWaveComplete,
	})
	return s
}

// OnGameOver registers the callback fired once when the game is completed
func (s *Session) OnGameOver(fn func(GameResult)) {
	s.onGameOver = fn
}

// Start announces the first wave
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	log.Printf("Session %s started for %s", s.ID, s.identity.PlayerName)
	s.waves.StartWave(1, s.clock.Now())
}

func (s *Session) allocID() uint32 {
	id := s.nextID
	s.nextID++
	return id
}

// SetInput replaces the player's current input
func (s *Session) SetInput(input InputMsg) {
	s.input = input
}

// Player returns the player actor
func (s *Session) Player() *Actor { return s.player }

// Enemies returns the live enemies
func (s *Session) Enemies() []*Actor { return s.enemies }

// Score returns the session's score keeper
func (s *Session) Score() *ScoreKeeper { return s.score }

// Waves returns the session's wave scheduler
func (s *Session) Waves() *WaveScheduler { return s.waves }

// Clock returns the simulation clock
func (s *Session) Clock() Clock { return s.clock }

// Over reports whether the session has ended
func (s *Session) Over() bool { return s.over }

// Result returns the final result. Only meaningful once Over is true.
func (s *Session) Result() GameResult { return s.result }

// Step runs one simulation tick
func (s *Session) Step() {
	if s.over || s.closed {
		return
	}
	if !s.started {
		s.Start()
	}

	s.clock.Tick++
	now := s.clock.Now()
	dt := s.clock.Step.Seconds()

	s.timers.Advance(now)
	SweepEffects(s.player, s.clock.Tick)

	s.updatePlayer(now, dt)
	s.updateEnemies(now, dt)

	s.playerShots.Advance(dt, now, s.arena)
	s.enemyShots.Advance(dt, now, s.arena)

	s.resolvePlayerHits()
	if s.resolveEnemyHits() {
		return
	}
	s.collectTokens()
	s.pruneEnemies()

	s.score.Update(s.clock.Step)
	s.waves.Update(now)

	if s.rules.SurvivalLimit > 0 && now >= s.rules.SurvivalLimit {
		s.end(EndTimeExpired)
	}
}

func (s *Session) updatePlayer(now time.Duration, dt float64) {
	if !s.player.Alive() {
		return
	}
	steer(s.player, &s.input, s.arena, dt)
	if !s.input.Fire {
		return
	}
	if shots := Fire(s.player, s.player.Angle, now, s.playerShots, s.rng); len(shots) > 0 {
		s.score.RegisterShot()
	}
}

func (s *Session) updateEnemies(now time.Duration, dt float64) {
	perception := Perception{
		Target:    s.player.Pos,
		HasTarget: s.player.Alive(),
		Arena:     s.arena,
		Rng:       s.rng,
	}
	for _, e := range s.enemies {
		if !e.Alive() {
			continue
		}
		SweepEffects(e, s.clock.Tick)

		d := Evaluate(e, perception)
		e.Vel = d.Velocity
		e.Angle = d.Facing
		e.Pos = s.arena.Clamp(e.Pos.Add(e.Vel.Scale(dt)), e.Radius)
		if d.Fire {
			Fire(e, d.Facing, now, s.enemyShots, s.rng)
		}
	}
}

func (s *Session) resolvePlayerHits() {
	for _, hit := range ResolveHits(s.playerShots, s.enemies) {
		s.score.AddScore(ScoreHit, HitScore)
		if hit.Destroyed {
			s.enemyKilled(hit.Target, HitCauseBullet)
		}
	}
}

// resolveEnemyHits returns true if the player was destroyed
func (s *Session) resolveEnemyHits() bool {
	for _, hit := range ResolveHits(s.enemyShots, []*Actor{s.player}) {
		if hit.Destroyed {
			logKill(s.ID, s.player, HitCauseBullet)
			s.end(EndPlayerDestroyed)
			return true
		}
	}
	return false
}

func (s *Session) enemyKilled(e *Actor, cause HitCause) {
	s.kills++
	s.waves.EnemyDestroyed(e)
	logKill(s.ID, e, cause)

	if cause == HitCauseBullet {
		s.score.AddScore(ScoreKill, e.ScoreValue)
		if s.rng.Float64() < TokenDropChance {
			s.dropToken(e.Pos)
		}
	}
}

func (s *Session) pruneEnemies() {
	live := s.enemies[:0]
	for _, e := range s.enemies {
		if e.Alive() {
			live = append(live, e)
		}
	}
	clear(s.enemies[len(live):])
	s.enemies = live
}

func (s *Session) dropToken(pos Vec2) *Token {
	return s.PlaceToken(RollKind(s.rng), RollRarity(s.rng), s.arena.Clamp(pos, TokenRadius))
}

// PlaceToken puts a token into the arena at pos
func (s *Session) PlaceToken(kind PowerUpKind, rarity Rarity, pos Vec2) *Token {
	t := NewToken(s.allocID(), kind, rarity, pos)
	t.expiry = s.timers.At(s.clock.Now()+TokenLifetime, func() {
		delete(s.tokens, t.ID)
	})
	s.tokens[t.ID] = t
	return t
}

// Tokens returns the tokens lying in the arena
func (s *Session) Tokens() map[uint32]*Token { return s.tokens }

func (s *Session) collectTokens() {
	if !s.player.Alive() {
		return
	}
	for id, t := range s.tokens {
		if !overlaps(s.player.Pos, s.player.Radius, t.Pos, TokenRadius) {
			continue
		}
		s.collectToken(t)
		delete(s.tokens, id)
	}
}

// collectToken applies a token once and returns whether it had any effect
func (s *Session) collectToken(t *Token) bool {
	if !Collect(t, s.player, s.clock) {
		return false
	}
	s.timers.Cancel(t.expiry)
	s.score.AddScore(ScorePickup, PickupScore(t.Rarity))
	s.events = append(s.events, GameEvent{Kind: EventPowerUp, Text: string(t.Kind), Value: PickupScore(t.Rarity)})

	if t.Kind == PowerUpNuke {
		for _, e := range Detonate(s.enemies, int(t.Value)) {
			s.enemyKilled(e, HitCauseNuke)
		}
		s.score.AddScore(ScoreNuke, NukeBonus)
	}
	return true
}

func (s *Session) onWaveAnnounce(wave, total int) {
	log.Printf("Session %s: wave %d incoming with %d enemies", s.ID, wave, total)
	s.events = append(s.events, GameEvent{Kind: EventWaveAnnounce, Wave: wave, Value: total})
}

func (s *Session) onEnemySpawn(e *Actor) {
	s.enemies = append(s.enemies, e)
}

func (s *Session) onWaveComplete(wave int) {
	s.score.AddScore(ScoreWave, WaveBonus)
	log.Printf("Session %s: wave %d complete, score %d", s.ID, wave, s.score.Score)
	s.events = append(s.events, GameEvent{Kind: EventWaveComplete, Wave: wave, Value: WaveBonus})
}

// DrainEvents returns and clears the events raised since the last call
func (s *Session) DrainEvents() []GameEvent {
	events := s.events
	s.events = nil
	return events
}

func (s *Session) end(reason EndReason) {
	if s.over {
		return
	}
	s.over = true
	s.result = GameResult{
		SessionID: s.ID,
		Identity:  s.identity,
		Score:     s.score.Score,
		Wave:      s.waves.Number(),
		Kills:     s.kills,
		Shots:     s.score.Shots,
		MaxCombo:  s.score.MaxCombo,
		Duration:  s.clock.Now(),
		Reason:    reason,
	}
	s.teardown()

	log.Printf("Session %s over (%s): score %d, wave %d, kills %d",
		s.ID, reason, s.result.Score, s.result.Wave, s.result.Kills)

	if reason.Completed() && s.onGameOver != nil {
		s.onGameOver(s.result)
	}
}

func (s *Session) teardown() {
	s.waves.Stop()
	s.timers.CancelAll()
	s.playerShots.ReleaseAll()
	s.enemyShots.ReleaseAll()
}

// Close tears the session down. A session closed before it ended is recorded
// as abandoned and does not fire OnGameOver.
func (s *Session) Close() {
	if s.closed {
		return
	}
	if !s.over {
		s.end(EndAbandoned)
	}
	s.teardown()
	s.closed = true
}
