package game

import (
	"math"
	"time"
)

// Vec2 is a position or velocity in arena units
type Vec2 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }
func FromAngle(angle, length float64) Vec2 { return Vec2{math.Cos(angle) * length, math.Sin(angle) * length} }

// Normalize returns the unit vector, or the zero vector for zero input
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Side is the collision group an actor or projectile belongs to
type Side uint8

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "enemy"
}

// PowerUpKind identifies both world tokens and timed actor effects
type PowerUpKind string

const (
	PowerUpHealth       PowerUpKind = "health"
	PowerUpShield       PowerUpKind = "shield"
	PowerUpRapidFire    PowerUpKind = "rapidfire"
	PowerUpMultiShot    PowerUpKind = "multishot"
	PowerUpSpeed        PowerUpKind = "speed"
	PowerUpInvulnerable PowerUpKind = "invulnerable"
	PowerUpNuke         PowerUpKind = "nuke"
)

// Rarity scales token value and pickup score
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Effect is a timed modifier active on an actor
type Effect struct {
	Kind          PowerUpKind
	Magnitude     float64
	ExpiresAtTick uint64
}

// Actor is any combat entity, the player or an enemy
type Actor struct {
	ID         uint32
	Side       Side
	Kind       EnemyKind
	Behavior   Behavior
	Pos        Vec2
	Vel        Vec2
	Angle      float64
	Radius     float64
	Health     int
	MaxHealth  int
	Shield     int
	Speed      float64
	BaseSpeed  float64
	Damage     int
	FireRate   time.Duration
	LastShot   time.Duration
	ScoreValue int
	Effects    []Effect

	RapidFire    bool
	MultiShot    int
	Invulnerable bool
	Destroyed    bool

	hasFired     bool
	patrolTarget Vec2
	hasPatrol    bool
	brain        *brain
}

// Alive reports whether the actor still participates in combat
func (a *Actor) Alive() bool {
	return a != nil && !a.Destroyed
}

// Projectile is a pooled bullet. Inactive projectiles are kept for reuse.
type Projectile struct {
	ID        uint32
	OwnerID   uint32
	Side      Side
	Pos       Vec2
	Vel       Vec2
	Damage    int
	Radius    float64
	Active    bool
	SpawnedAt time.Duration
}

// Token is a collectible power-up lying in the arena
type Token struct {
	ID        uint32
	Kind      PowerUpKind
	Rarity    Rarity
	Value     float64
	Duration  time.Duration
	Pos       Vec2
	Collected bool

	expiry TimerID
}

// InputMsg represents player input from client
type InputMsg struct {
	Type  string  `json:"type"`
	Up    bool    `json:"up"`
	Down  bool    `json:"down"`
	Left  bool    `json:"left"`
	Right bool    `json:"right"`
	Fire  bool    `json:"fire"`
	AimX  float64 `json:"aimX"`
	AimY  float64 `json:"aimY"`
}

// Identity is who a session is played for
type Identity struct {
	PlayerAddress string
	PlayerName    string
	GameContract  string
}

// Rules tunes a session. DefaultRules matches the shipped game.
type Rules struct {
	TickRate            int
	ArenaWidth          float64
	ArenaHeight         float64
	BaseEnemies         int
	EnemyMultiplier     float64
	AnnounceDelay       time.Duration
	SpawnStagger        time.Duration
	MaxConcurrentSpawns int
	SurvivalLimit       time.Duration // zero means play until death
}

// DefaultRules returns the standard arena rules
func DefaultRules() Rules {
	return Rules{
		TickRate:            TickRate,
		ArenaWidth:          ArenaWidth,
		ArenaHeight:         ArenaHeight,
		BaseEnemies:         3,
		EnemyMultiplier:     1.5,
		AnnounceDelay:       2 * time.Second,
		SpawnStagger:        400 * time.Millisecond,
		MaxConcurrentSpawns: 5,
		SurvivalLimit:       0,
	}
}

// Arena is the playable rectangle
type Arena struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies within the arena grown by margin on every side
func (a Arena) Contains(p Vec2, margin float64) bool {
	return p.X >= -margin && p.X <= a.Width+margin && p.Y >= -margin && p.Y <= a.Height+margin
}

// Clamp keeps a circle of the given radius inside the arena
func (a Arena) Clamp(p Vec2, radius float64) Vec2 {
	return Vec2{
		X: math.Max(radius, math.Min(a.Width-radius, p.X)),
		Y: math.Max(radius, math.Min(a.Height-radius, p.Y)),
	}
}
