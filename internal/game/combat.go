package game

import "log"

// HitCause represents the origin of damage for logging and reward logic.
type HitCause string

const (
	HitCauseBullet HitCause = "bullet"
	HitCauseNuke   HitCause = "nuke"
)

// ApplyDamage absorbs damage with the shield first and applies the remainder
// to health. It returns true only on the call that destroys the actor, so
// destruction side effects happen exactly once.
func ApplyDamage(target *Actor, amount int) bool {
	if target == nil || target.Destroyed || amount <= 0 {
		return false
	}
	if target.Invulnerable {
		return false
	}

	absorbed := min(target.Shield, amount)
	target.Shield -= absorbed
	remainder := amount - absorbed
	if remainder == 0 {
		return false
	}

	target.Health -= remainder
	if target.Health > 0 {
		return false
	}

	target.Health = 0
	target.Destroyed = true
	target.Vel = Vec2{}
	return true
}

// Heal restores health up to the actor's maximum
func Heal(target *Actor, amount int) {
	if !target.Alive() || amount <= 0 {
		return
	}
	target.Health = min(target.MaxHealth, target.Health+amount)
}

func (cause HitCause) describe() string {
	switch cause {
	case HitCauseBullet:
		return "a bullet"
	case HitCauseNuke:
		return "a nuke"
	default:
		return string(cause)
	}
}

func logKill(sessionID string, victim *Actor, cause HitCause) {
	if victim.Side == SidePlayer {
		log.Printf("Session %s: player was destroyed by %s", sessionID, cause.describe())
		return
	}
	log.Printf("Session %s: %s enemy %d destroyed by %s", sessionID, victim.Kind, victim.ID, cause.describe())
}
