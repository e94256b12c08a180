package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var testIdentity = Identity{
	PlayerAddress: "0x1111111111111111111111111111111111111111",
	PlayerName:    "ace",
}

func newTestSession(t *testing.T, rules Rules) *Session {
	t.Helper()
	s := NewSession("test", testIdentity, rules, rand.New(rand.NewSource(1)))
	s.Start()
	return s
}

// stepFor runs the session for d of simulated time or until it ends
func stepFor(s *Session, d time.Duration) {
	for end := s.Clock().Now() + d; s.Clock().Now() < end && !s.Over(); {
		s.Step()
	}
}

func TestSessionSpawnsFirstWave(t *testing.T) {
	s := newTestSession(t, DefaultRules())

	stepFor(s, 4*time.Second)

	assert.Equal(t, 1, s.Waves().Number())
	assert.Len(t, s.Enemies(), 4)
	for _, e := range s.Enemies() {
		assert.Equal(t, EnemyBasic, e.Kind)
	}
}

func TestSessionGameOverFiresOnce(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	var results []GameResult
	s.OnGameOver(func(r GameResult) { results = append(results, r) })

	stepFor(s, 3*time.Second)
	require.NotEmpty(t, s.Enemies())

	// Park a volley of enemy bullets on the player
	for i := 0; i < 10; i++ {
		pr := s.enemyShots.Acquire()
		pr.Pos = s.Player().Pos
		pr.Damage = 20
		pr.Radius = ProjectileRadius
		pr.SpawnedAt = s.Clock().Now()
	}
	s.Step()
	s.Step()
	s.Close()

	require.Len(t, results, 1)
	assert.True(t, s.Over())
	assert.Equal(t, EndPlayerDestroyed, results[0].Reason)
	assert.Equal(t, testIdentity, results[0].Identity)
	assert.Equal(t, 0, s.Player().Health)
	assert.Zero(t, s.timers.Len(), "teardown cancels every timer")
	assert.Zero(t, s.enemyShots.ActiveCount())
}

func TestSessionSurvivalLimit(t *testing.T) {
	rules := DefaultRules()
	rules.SurvivalLimit = time.Second
	s := newTestSession(t, rules)
	fired := 0
	s.OnGameOver(func(GameResult) { fired++ })

	stepFor(s, 5*time.Second)

	assert.True(t, s.Over())
	assert.Equal(t, 1, fired)
	assert.Equal(t, EndTimeExpired, s.Result().Reason)
	assert.Equal(t, 1, s.Result().DurationSeconds())
}

func TestAbandonedSessionIsNotSubmitted(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	fired := false
	s.OnGameOver(func(GameResult) { fired = true })

	stepFor(s, time.Second)
	s.Close()
	s.Step()

	assert.False(t, fired)
	assert.Equal(t, EndAbandoned, s.Result().Reason)
	assert.False(t, s.Result().Reason.Completed())
}

func TestPlayerKillAwardsScore(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	stepFor(s, 4*time.Second)
	require.NotEmpty(t, s.Enemies())
	target := s.Enemies()[0]
	target.Health = 1

	pr := s.playerShots.Acquire()
	pr.Pos = target.Pos
	pr.Damage = PlayerDamage
	pr.Radius = ProjectileRadius
	pr.SpawnedAt = s.Clock().Now()
	s.resolvePlayerHits()

	assert.False(t, target.Alive())
	assert.Equal(t, 1, s.kills)
	assert.Equal(t, HitScore, s.Score().Breakdown[ScoreHit])
	assert.Equal(t, KillScore, s.Score().Breakdown[ScoreKill])
}

func TestNukeClearsTheWave(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	stepFor(s, 4*time.Second)
	live := len(s.Enemies())
	require.Positive(t, live)

	tok := s.PlaceToken(PowerUpNuke, RarityCommon, s.Player().Pos)
	s.Step()

	assert.True(t, tok.Collected)
	assert.Empty(t, s.Enemies())
	assert.Equal(t, live, s.kills)
	assert.Equal(t, NukeBonus, s.Score().Breakdown[ScoreNuke])
	assert.Zero(t, s.Score().Breakdown[ScoreKill], "nuke kills award only the nuke bonus")
}

func TestTokenCollectedOnce(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	tok := s.PlaceToken(PowerUpShield, RarityCommon, s.Player().Pos)

	assert.True(t, s.collectToken(tok))
	assert.False(t, s.collectToken(tok))
	assert.Equal(t, 25, s.Player().Shield)
	assert.Equal(t, PickupScore(RarityCommon), s.Score().Breakdown[ScorePickup])
}

func TestUncollectedTokenExpires(t *testing.T) {
	s := NewSession("test", testIdentity, DefaultRules(), rand.New(rand.NewSource(1)))
	s.PlaceToken(PowerUpSpeed, RarityCommon, Vec2{10, 10})
	require.Len(t, s.Tokens(), 1)

	s.timers.Advance(TokenLifetime - time.Millisecond)
	assert.Len(t, s.Tokens(), 1)
	s.timers.Advance(TokenLifetime)
	assert.Empty(t, s.Tokens())
}

func TestPlayerInputMovesAndFires(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	start := s.Player().Pos

	s.SetInput(InputMsg{Type: MsgTypeInput, Right: true, Fire: true, AimX: ArenaWidth, AimY: start.Y})
	stepFor(s, 500*time.Millisecond)

	assert.Greater(t, s.Player().Pos.X, start.X)
	assert.InDelta(t, start.Y, s.Player().Pos.Y, 1e-9)
	assert.Equal(t, 2, s.Score().Shots)
	assert.Positive(t, s.playerShots.ActiveCount())
}

func TestSnapshotEncodes(t *testing.T) {
	s := newTestSession(t, DefaultRules())
	stepFor(s, 3*time.Second)

	snap := s.Snapshot()
	assert.Equal(t, MsgTypeSnapshot, snap.Type)
	assert.NotEmpty(t, snap.Enemies)
	assert.Nil(t, s.DrainEvents(), "snapshot drains events")

	data, err := Encode(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, snap.Tick, decoded.Tick)
	assert.Equal(t, "player", decoded.Player.Kind)
	assert.Equal(t, len(snap.Enemies), len(decoded.Enemies))
}

func TestWaveEventsReachSnapshot(t *testing.T) {
	s := NewSession("test", testIdentity, DefaultRules(), rand.New(rand.NewSource(1)))
	s.Step()

	snap := s.Snapshot()
	require.NotEmpty(t, snap.Events)
	assert.Equal(t, EventWaveAnnounce, snap.Events[0].Kind)
	assert.Equal(t, 4, snap.Events[0].Value)
}
