package game

import (
	"math/rand"
	"time"
)

// EnemyKind names an enemy stat block
type EnemyKind string

const (
	EnemyBasic  EnemyKind = "basic"
	EnemyFast   EnemyKind = "fast"
	EnemyHeavy  EnemyKind = "heavy"
	EnemySniper EnemyKind = "sniper"
)

// EnemyTemplate holds the wave-one stats of an enemy kind and how they grow
// with each later wave
type EnemyTemplate struct {
	Kind     EnemyKind
	Behavior Behavior
	Radius   float64

	Health        int
	HealthPerWave int
	Speed         float64
	SpeedPerWave  float64
	Damage        int
	DamagePerWave int

	FireRate        time.Duration
	FireRatePerWave time.Duration // Subtracted per wave
	MinFireRate     time.Duration

	KillScore int // Zero means the default KillScore
}

var enemyTemplates = map[EnemyKind]EnemyTemplate{
	EnemyBasic: {
		Kind: EnemyBasic, Behavior: BehaviorAggressive, Radius: 16,
		Health: 30, HealthPerWave: 6,
		Speed: 80, SpeedPerWave: 4,
		Damage: 10, DamagePerWave: 1,
		FireRate: 1500 * time.Millisecond, FireRatePerWave: 40 * time.Millisecond, MinFireRate: 500 * time.Millisecond,
	},
	EnemyFast: {
		Kind: EnemyFast, Behavior: BehaviorPatrol, Radius: 14,
		Health: 20, HealthPerWave: 4,
		Speed: 140, SpeedPerWave: 6,
		Damage: 8, DamagePerWave: 1,
		FireRate: 1200 * time.Millisecond, FireRatePerWave: 30 * time.Millisecond, MinFireRate: 400 * time.Millisecond,
	},
	EnemyHeavy: {
		Kind: EnemyHeavy, Behavior: BehaviorDefensive, Radius: 24,
		Health: 80, HealthPerWave: 12,
		Speed: 50, SpeedPerWave: 2,
		Damage: 20, DamagePerWave: 2,
		FireRate: 2000 * time.Millisecond, FireRatePerWave: 50 * time.Millisecond, MinFireRate: 800 * time.Millisecond,
		KillScore: 150,
	},
	EnemySniper: {
		Kind: EnemySniper, Behavior: BehaviorSnipe, Radius: 15,
		Health: 25, HealthPerWave: 5,
		Speed: 60, SpeedPerWave: 3,
		Damage: 25, DamagePerWave: 2,
		FireRate: 2500 * time.Millisecond, FireRatePerWave: 60 * time.Millisecond, MinFireRate: 1000 * time.Millisecond,
	},
}

// Template returns the stat block of an enemy kind
func Template(kind EnemyKind) (EnemyTemplate, bool) {
	t, ok := enemyTemplates[kind]
	return t, ok
}

// StatsForWave scales the template linearly with the wave number
func (t EnemyTemplate) StatsForWave(wave int) (health int, speed float64, damage int, fireRate time.Duration) {
	step := max(wave-1, 0)
	health = t.Health + t.HealthPerWave*step
	speed = t.Speed + t.SpeedPerWave*float64(step)
	damage = t.Damage + t.DamagePerWave*step
	fireRate = max(t.FireRate-t.FireRatePerWave*time.Duration(step), t.MinFireRate)
	return
}

// NewEnemy creates an enemy of the given kind scaled for the wave
func NewEnemy(id uint32, kind EnemyKind, wave int, pos Vec2) *Actor {
	t, ok := enemyTemplates[kind]
	if !ok {
		t = enemyTemplates[EnemyBasic]
	}
	health, speed, damage, fireRate := t.StatsForWave(wave)

	scoreValue := t.KillScore
	if scoreValue == 0 {
		scoreValue = KillScore
	}

	enemy := &Actor{
		ID:         id,
		Side:       SideEnemy,
		Kind:       t.Kind,
		Behavior:   t.Behavior,
		Pos:        pos,
		Radius:     t.Radius,
		Health:     health,
		MaxHealth:  health,
		Speed:      speed,
		BaseSpeed:  speed,
		Damage:     damage,
		FireRate:   fireRate,
		ScoreValue: scoreValue,
		MultiShot:  1,
	}
	enemy.brain = newBrain(enemy)
	return enemy
}

// kindWeights returns the draw weights for a wave. Heavier and rarer kinds
// gain weight as waves progress.
func kindWeights(wave int) []struct {
	kind   EnemyKind
	weight int
} {
	return []struct {
		kind   EnemyKind
		weight int
	}{
		{EnemyBasic, max(60-5*wave, 15)},
		{EnemyFast, 20 + 2*wave},
		{EnemyHeavy, 10 + 3*wave},
		{EnemySniper, 5 + 2*wave},
	}
}

// ChooseEnemyKind draws the kind of the next enemy. Wave one is basic-only.
func ChooseEnemyKind(wave int, rng *rand.Rand) EnemyKind {
	if wave <= 1 {
		return EnemyBasic
	}

	weights := kindWeights(wave)
	total := 0
	for _, w := range weights {
		total += w.weight
	}

	roll := rng.Intn(total)
	for _, w := range weights {
		if roll < w.weight {
			return w.kind
		}
		roll -= w.weight
	}
	return EnemyBasic
}
