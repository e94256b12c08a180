package game

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// GameEventKind names a one-off event surfaced to the client
type GameEventKind string

const (
	EventWaveAnnounce GameEventKind = "waveAnnounce"
	EventWaveComplete GameEventKind = "waveComplete"
	EventPowerUp      GameEventKind = "powerUp"
)

// GameEvent is a one-off notification carried in the next snapshot
type GameEvent struct {
	Kind  GameEventKind `msgpack:"kind"`
	Wave  int           `msgpack:"wave,omitempty"`
	Value int           `msgpack:"value,omitempty"`
	Text  string        `msgpack:"text,omitempty"`
}

// ActorView is the client-facing state of an actor
type ActorView struct {
	ID        uint32        `msgpack:"id"`
	Kind      string        `msgpack:"kind"`
	Behavior  string        `msgpack:"behavior"`
	Pos       Vec2          `msgpack:"pos"`
	Angle     float64       `msgpack:"angle"`
	Radius    float64       `msgpack:"radius"`
	Health    int           `msgpack:"health"`
	MaxHealth int           `msgpack:"maxHealth"`
	Shield    int           `msgpack:"shield"`
	Effects   []PowerUpKind `msgpack:"effects,omitempty"`
}

// ProjectileView is the client-facing state of an active projectile
type ProjectileView struct {
	ID   uint32 `msgpack:"id"`
	Side string `msgpack:"side"`
	Pos  Vec2   `msgpack:"pos"`
	Vel  Vec2   `msgpack:"vel"`
}

// TokenView is the client-facing state of a token
type TokenView struct {
	ID     uint32      `msgpack:"id"`
	Kind   PowerUpKind `msgpack:"kind"`
	Rarity Rarity      `msgpack:"rarity"`
	Pos    Vec2        `msgpack:"pos"`
}

// Snapshot represents the current game state sent to the client
type Snapshot struct {
	Type        string           `msgpack:"type"`
	Tick        uint64           `msgpack:"tick"`
	Time        int64            `msgpack:"time"` // Simulated milliseconds
	Player      ActorView        `msgpack:"player"`
	Enemies     []ActorView      `msgpack:"enemies"`
	Projectiles []ProjectileView `msgpack:"projectiles"`
	Tokens      []TokenView      `msgpack:"tokens"`
	Wave        int              `msgpack:"wave"`
	WaveState   string           `msgpack:"waveState"`
	Score       int              `msgpack:"score"`
	Combo       int              `msgpack:"combo"`
	Events      []GameEvent      `msgpack:"events,omitempty"`
}

// WelcomeMsg is sent once when a session starts
type WelcomeMsg struct {
	Type      string  `msgpack:"type"`
	SessionID string  `msgpack:"sessionId"`
	PlayerID  uint32  `msgpack:"playerId"`
	Width     float64 `msgpack:"width"`
	Height    float64 `msgpack:"height"`
	TickRate  int     `msgpack:"tickRate"`
}

// GameOverMsg is the last message of a session
type GameOverMsg struct {
	Type       string `msgpack:"type"`
	Reason     string `msgpack:"reason"`
	Score      int    `msgpack:"score"`
	Wave       int    `msgpack:"wave"`
	Kills      int    `msgpack:"kills"`
	Duration   int    `msgpack:"duration"`
	Submitted  bool   `msgpack:"submitted"`
	Blockchain string `msgpack:"blockchain,omitempty"`
	Error      string `msgpack:"error,omitempty"`
}

func viewActor(a *Actor) ActorView {
	v := ActorView{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Behavior:  a.Behavior.String(),
		Pos:       a.Pos,
		Angle:     a.Angle,
		Radius:    a.Radius,
		Health:    a.Health,
		MaxHealth: a.MaxHealth,
		Shield:    a.Shield,
	}
	if a.Side == SidePlayer {
		v.Kind = "player"
	}
	for _, e := range a.Effects {
		v.Effects = append(v.Effects, e.Kind)
	}
	return v
}

// Snapshot captures the session state and drains pending events
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Type:        MsgTypeSnapshot,
		Tick:        s.clock.Tick,
		Time:        s.clock.Now().Milliseconds(),
		Player:      viewActor(s.player),
		Enemies:     make([]ActorView, 0, len(s.enemies)),
		Projectiles: make([]ProjectileView, 0, s.playerShots.ActiveCount()+s.enemyShots.ActiveCount()),
		Tokens:      make([]TokenView, 0, len(s.tokens)),
		Wave:        s.waves.Number(),
		WaveState:   s.waves.State().String(),
		Score:       s.score.Score,
		Combo:       s.score.Combo,
		Events:      s.DrainEvents(),
	}

	for _, e := range s.enemies {
		if e.Alive() {
			snap.Enemies = append(snap.Enemies, viewActor(e))
		}
	}
	for _, pool := range []*ProjectilePool{s.playerShots, s.enemyShots} {
		for _, p := range pool.Active() {
			snap.Projectiles = append(snap.Projectiles, ProjectileView{ID: p.ID, Side: p.Side.String(), Pos: p.Pos, Vel: p.Vel})
		}
	}
	for _, t := range s.tokens {
		snap.Tokens = append(snap.Tokens, TokenView{ID: t.ID, Kind: t.Kind, Rarity: t.Rarity, Pos: t.Pos})
	}
	return snap
}

// Welcome returns the message introducing the session to its client
func (s *Session) Welcome() WelcomeMsg {
	return WelcomeMsg{
		Type:      MsgTypeWelcome,
		SessionID: s.ID,
		PlayerID:  s.player.ID,
		Width:     s.arena.Width,
		Height:    s.arena.Height,
		TickRate:  int(time.Second / s.clock.Step),
	}
}

// Encode marshals a message for the wire
func Encode(msg any) ([]byte, error) {
	return msgpack.Marshal(msg)
}
