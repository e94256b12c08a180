package game

import "time"

// Arena constants
const (
	ArenaWidth     = 1200.0
	ArenaHeight    = 800.0
	ArenaMargin    = 50.0 // Projectiles beyond the arena plus this margin are retired
	TickRate       = 60   // Simulation ticks per second
	MaxProjectiles = 256  // Pool capacity per side
)

// Player defaults
const (
	PlayerMaxHealth   = 100
	PlayerSpeed       = 220.0
	PlayerDamage      = 15
	PlayerFireRate    = 250 * time.Millisecond
	PlayerRadius      = 18.0
	PlayerBulletSpeed = 500.0
)

// Projectile constants
const (
	ProjectileRadius   = 4.0
	EnemyBulletSpeed   = 350.0
	SniperBulletSpeed  = 600.0
	AimDeviation       = 0.2 // Max random spread in radians for non-sniper enemy shots
	MultiShotSpread    = 0.5 // Total fan angle in radians for multi-shot
	RapidFireCooldown  = 0.3 // Cooldown multiplier while rapid-fire is active
	DefaultMultiShot   = 3
	SpeedBoostFactor   = 1.5
	ProjectileLifetime = 4 * time.Second
)

// Behavior tuning
const (
	EngagementRange     = 250.0
	DefensiveMinRange   = 150.0
	DefensiveMaxRange   = 200.0
	PatrolSpeedFactor   = 0.6
	PatrolArrivalRadius = 20.0
	PatrolAggroRange    = 200.0
	SniperRetreatRange  = 300.0
)

// Score values
const (
	HitScore        = 10
	KillScore       = 100
	WaveBonus       = 500
	NukeBonus       = 1000
	NukeDamage      = 1000
	ComboWindow     = 3000 * time.Millisecond
	TokenDropChance = 0.2
	TokenLifetime   = 12 * time.Second
	TokenRadius     = 14.0
)

// Message types for client-server communication
const (
	MsgTypeInput    = "input"
	MsgTypeWelcome  = "welcome"
	MsgTypeSnapshot = "snapshot"
	MsgTypeGameOver = "gameOver"
)
