package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func perceive(target Vec2) Perception {
	return Perception{Target: target, HasTarget: true, Arena: testArena, Rng: rand.New(rand.NewSource(1))}
}

func TestAggressiveChargesAndFiresInRange(t *testing.T) {
	e := NewEnemy(1, EnemyBasic, 1, Vec2{100, 100})

	far := Evaluate(e, perceive(Vec2{600, 100}))
	assert.Equal(t, BehaviorAggressive, far.Mode)
	assert.InDelta(t, e.Speed, far.Velocity.X, 1e-9)
	assert.False(t, far.Fire)

	near := Evaluate(e, perceive(Vec2{300, 100}))
	assert.True(t, near.Fire)
}

func TestDefensiveHoldsDistanceBand(t *testing.T) {
	e := NewEnemy(1, EnemyHeavy, 1, Vec2{500, 400})

	tests := []struct {
		name   string
		target Vec2
		wantVx float64
		fire   bool
	}{
		{"too close retreats", Vec2{600, 400}, -e.Speed, true},
		{"in band holds", Vec2{680, 400}, 0, true},
		{"too far approaches at half speed", Vec2{900, 400}, e.Speed * 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(e, perceive(tt.target))
			assert.InDelta(t, tt.wantVx, d.Velocity.X, 1e-9)
			assert.Equal(t, tt.fire, d.Fire)
		})
	}
}

func TestSniperRetreatsAndAlwaysFires(t *testing.T) {
	e := NewEnemy(1, EnemySniper, 1, Vec2{500, 400})

	near := Evaluate(e, perceive(Vec2{600, 400}))
	assert.Less(t, near.Velocity.X, 0.0)
	assert.True(t, near.Fire)

	far := Evaluate(e, perceive(Vec2{1100, 400}))
	assert.Zero(t, far.Velocity.Len())
	assert.True(t, far.Fire)
}

func TestPatrolWandersUntilTargetClose(t *testing.T) {
	e := NewEnemy(1, EnemyFast, 1, Vec2{100, 100})

	wander := Evaluate(e, perceive(Vec2{1000, 700}))
	assert.Equal(t, BehaviorPatrol, wander.Mode)
	assert.False(t, wander.Fire)
	assert.InDelta(t, e.Speed*PatrolSpeedFactor, wander.Velocity.Len(), 1e-6)
	assert.True(t, e.hasPatrol)

	chase := Evaluate(e, perceive(Vec2{250, 100}))
	assert.Equal(t, BehaviorAggressive, chase.Mode, "target within aggro range pre-empts patrol")
	assert.True(t, chase.Fire)
	assert.InDelta(t, e.Speed, chase.Velocity.Len(), 1e-6)
}

func TestPatrolPicksNewWaypointOnArrival(t *testing.T) {
	e := NewEnemy(1, EnemyFast, 1, Vec2{100, 100})
	p := Perception{Arena: testArena, Rng: rand.New(rand.NewSource(1))}

	Evaluate(e, p)
	first := e.patrolTarget
	e.Pos = first
	Evaluate(e, p)

	assert.NotEqual(t, first, e.patrolTarget)
}

func TestEvaluateWithoutTarget(t *testing.T) {
	e := NewEnemy(1, EnemyBasic, 1, Vec2{100, 100})

	d := Evaluate(e, Perception{Arena: testArena})

	assert.Zero(t, d.Velocity.Len())
	assert.False(t, d.Fire)
}

func TestDeadActorsDoNothing(t *testing.T) {
	e := NewEnemy(1, EnemySniper, 1, Vec2{100, 100})
	ApplyDamage(e, 1000)

	assert.Equal(t, Decision{}, Evaluate(e, perceive(Vec2{120, 100})))
}
