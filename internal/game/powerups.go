package game

import (
	"math/rand"
	"time"
)

type tokenSpec struct {
	value    float64
	duration time.Duration
	scales   bool // Whether rarity scales the value as well as the duration
}

var tokenSpecs = map[PowerUpKind]tokenSpec{
	PowerUpHealth:       {value: 25, scales: true},
	PowerUpShield:       {value: 25, duration: 10 * time.Second, scales: true},
	PowerUpRapidFire:    {value: 1, duration: 6 * time.Second},
	PowerUpMultiShot:    {value: DefaultMultiShot, duration: 6 * time.Second},
	PowerUpSpeed:        {value: SpeedBoostFactor, duration: 6 * time.Second},
	PowerUpInvulnerable: {value: 1, duration: 3 * time.Second},
	PowerUpNuke:         {value: NukeDamage},
}

var tokenKindWeights = []struct {
	kind   PowerUpKind
	weight int
}{
	{PowerUpHealth, 25},
	{PowerUpShield, 20},
	{PowerUpRapidFire, 15},
	{PowerUpMultiShot, 15},
	{PowerUpSpeed, 15},
	{PowerUpInvulnerable, 7},
	{PowerUpNuke, 3},
}

var rarityScale = map[Rarity]float64{
	RarityCommon:    1,
	RarityRare:      1.5,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// RollRarity draws a rarity: common 50%, rare 30%, epic 15%, legendary 5%
func RollRarity(rng *rand.Rand) Rarity {
	r := rng.Float64()
	switch {
	case r < 0.50:
		return RarityCommon
	case r < 0.80:
		return RarityRare
	case r < 0.95:
		return RarityEpic
	default:
		return RarityLegendary
	}
}

// RollKind draws a token kind from the weighted kind table
func RollKind(rng *rand.Rand) PowerUpKind {
	total := 0
	for _, w := range tokenKindWeights {
		total += w.weight
	}
	roll := rng.Intn(total)
	for _, w := range tokenKindWeights {
		if roll < w.weight {
			return w.kind
		}
		roll -= w.weight
	}
	return PowerUpHealth
}

// NewToken creates a token with rarity-scaled value and duration
func NewToken(id uint32, kind PowerUpKind, rarity Rarity, pos Vec2) *Token {
	spec := tokenSpecs[kind]
	scale, ok := rarityScale[rarity]
	if !ok {
		scale = 1
	}

	value := spec.value
	if spec.scales {
		value *= scale
	}
	return &Token{
		ID:       id,
		Kind:     kind,
		Rarity:   rarity,
		Value:    value,
		Duration: time.Duration(float64(spec.duration) * scale),
		Pos:      pos,
	}
}

// Collect consumes the token and applies it to the player. It returns false
// if the token was already collected. Nuke tokens only mark consumption; the
// caller detonates them against every live enemy.
func Collect(t *Token, player *Actor, clock Clock) bool {
	if t == nil || t.Collected || !player.Alive() {
		return false
	}
	t.Collected = true

	switch t.Kind {
	case PowerUpHealth:
		Heal(player, int(t.Value))
	case PowerUpNuke:
	default:
		GrantEffect(player, t.Kind, t.Value, clock.Tick+clock.TicksFor(t.Duration))
	}
	return true
}

// Detonate applies damage to every live enemy at once and returns those
// destroyed by it
func Detonate(enemies []*Actor, damage int) []*Actor {
	var destroyed []*Actor
	for _, e := range enemies {
		if !e.Alive() {
			continue
		}
		if ApplyDamage(e, damage) {
			destroyed = append(destroyed, e)
		}
	}
	return destroyed
}
