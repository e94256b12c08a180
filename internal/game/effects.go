package game

// GrantEffect inserts or refreshes a timed effect on the actor. Shield adds to
// the current shield; every other kind refreshes its expiry without stacking.
func GrantEffect(a *Actor, kind PowerUpKind, magnitude float64, expiresAtTick uint64) {
	if !a.Alive() {
		return
	}

	idx := -1
	for i := range a.Effects {
		if a.Effects[i].Kind == kind {
			idx = i
			break
		}
	}

	switch kind {
	case PowerUpShield:
		a.Shield += int(magnitude)
	case PowerUpSpeed:
		// Reapplying while active only extends the duration
		if idx < 0 {
			a.Speed = a.BaseSpeed * magnitude
		}
	case PowerUpRapidFire:
		a.RapidFire = true
	case PowerUpMultiShot:
		a.MultiShot = max(int(magnitude), 1)
	case PowerUpInvulnerable:
		a.Invulnerable = true
	default:
		return
	}

	if idx >= 0 {
		e := &a.Effects[idx]
		e.ExpiresAtTick = max(e.ExpiresAtTick, expiresAtTick)
		if kind == PowerUpShield {
			e.Magnitude += magnitude
		}
		return
	}
	a.Effects = append(a.Effects, Effect{Kind: kind, Magnitude: magnitude, ExpiresAtTick: expiresAtTick})
}

// HasEffect reports whether an effect of the given kind is active
func HasEffect(a *Actor, kind PowerUpKind) bool {
	for _, e := range a.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// SweepEffects reverts and removes every effect that expired at or before tick.
// It returns the kinds that expired.
func SweepEffects(a *Actor, tick uint64) []PowerUpKind {
	if len(a.Effects) == 0 {
		return nil
	}

	var expired []PowerUpKind
	kept := a.Effects[:0]
	for _, e := range a.Effects {
		if e.ExpiresAtTick > tick {
			kept = append(kept, e)
			continue
		}
		revertEffect(a, e)
		expired = append(expired, e.Kind)
	}
	a.Effects = kept
	return expired
}

func revertEffect(a *Actor, e Effect) {
	switch e.Kind {
	case PowerUpShield:
		a.Shield = 0
	case PowerUpSpeed:
		a.Speed = a.BaseSpeed
	case PowerUpRapidFire:
		a.RapidFire = false
	case PowerUpMultiShot:
		a.MultiShot = 1
	case PowerUpInvulnerable:
		a.Invulnerable = false
	}
}
