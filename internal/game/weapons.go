package game

import (
	"math/rand"
	"time"
)

// EffectiveCooldown returns the actor's fire cooldown including rapid-fire
func EffectiveCooldown(a *Actor) time.Duration {
	cooldown := a.FireRate
	if a.RapidFire {
		cooldown = time.Duration(float64(cooldown) * RapidFireCooldown)
	}
	return cooldown
}

// CanFire checks if the actor is ready to fire based on its cooldown
func CanFire(a *Actor, now time.Duration) bool {
	if !a.Alive() {
		return false
	}
	if !a.hasFired {
		return true
	}
	return now-a.LastShot >= EffectiveCooldown(a)
}

// bulletProfile returns the projectile speed and maximum aim deviation
func bulletProfile(a *Actor) (speed float64, deviation float64) {
	switch {
	case a.Side == SidePlayer:
		return PlayerBulletSpeed, 0
	case a.Behavior == BehaviorSnipe:
		return SniperBulletSpeed, 0
	default:
		return EnemyBulletSpeed, AimDeviation
	}
}

// Fire creates projectiles from the pool if the cooldown allows. Multi-shot
// fans the projectiles evenly across MultiShotSpread around the aim angle.
func Fire(a *Actor, aim float64, now time.Duration, pool *ProjectilePool, rng *rand.Rand) []*Projectile {
	if !CanFire(a, now) {
		return nil
	}

	speed, deviation := bulletProfile(a)
	if deviation > 0 && rng != nil {
		aim += (rng.Float64()*2 - 1) * deviation
	}

	count := max(a.MultiShot, 1)
	fired := make([]*Projectile, 0, count)
	for i := 0; i < count; i++ {
		angle := aim
		if count > 1 {
			// Distribute projectiles evenly across the spread angle
			angle += MultiShotSpread * (float64(i)/float64(count-1) - 0.5)
		}

		p := pool.Acquire()
		if p == nil {
			break
		}
		p.OwnerID = a.ID
		p.Side = a.Side
		p.Pos = a.Pos
		p.Vel = FromAngle(angle, speed)
		p.Damage = a.Damage
		p.Radius = ProjectileRadius
		p.SpawnedAt = now
		fired = append(fired, p)
	}

	a.LastShot = now
	a.hasFired = true
	return fired
}
