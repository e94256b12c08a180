package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDamageNeverGoesNegative(t *testing.T) {
	a := NewEnemy(1, EnemyBasic, 1, Vec2{})
	a.Health = 5

	assert.True(t, ApplyDamage(a, 50), "the destroying call reports true")
	assert.Equal(t, 0, a.Health)
	assert.True(t, a.Destroyed)

	for i := 0; i < 3; i++ {
		assert.False(t, ApplyDamage(a, 10), "destroy fires exactly once")
		assert.Equal(t, 0, a.Health)
	}
}

func TestApplyDamageShield(t *testing.T) {
	tests := []struct {
		name       string
		shield     int
		damage     int
		wantShield int
		wantHealth int
	}{
		{"shield absorbs all", 30, 20, 10, 100},
		{"shield equals damage", 20, 20, 0, 100},
		{"shield breaks", 5, 20, 0, 85},
		{"no shield", 0, 35, 0, 65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(1, Vec2{})
			p.Shield = tt.shield

			ApplyDamage(p, tt.damage)

			assert.Equal(t, tt.wantShield, p.Shield)
			assert.Equal(t, tt.wantHealth, p.Health)
		})
	}
}

func TestApplyDamageIgnoresInvalidCalls(t *testing.T) {
	assert.False(t, ApplyDamage(nil, 10))

	p := NewPlayer(1, Vec2{})
	assert.False(t, ApplyDamage(p, 0))
	assert.False(t, ApplyDamage(p, -5))
	assert.Equal(t, PlayerMaxHealth, p.Health)

	p.Invulnerable = true
	assert.False(t, ApplyDamage(p, 1000))
	assert.Equal(t, PlayerMaxHealth, p.Health)
}

func TestHeal(t *testing.T) {
	p := NewPlayer(1, Vec2{})
	p.Health = 90
	Heal(p, 25)
	assert.Equal(t, PlayerMaxHealth, p.Health, "healing caps at max health")

	require.True(t, ApplyDamage(p, 1000))
	Heal(p, 50)
	assert.Equal(t, 0, p.Health, "dead actors are not healed")
}

func TestThreeEnemyHitsLeavePlayerAtForty(t *testing.T) {
	arena := Arena{Width: ArenaWidth, Height: ArenaHeight}
	player := NewPlayer(1, Vec2{600, 400})
	pool := NewProjectilePool(SideEnemy, 8)

	for i := 0; i < 3; i++ {
		pr := pool.Acquire()
		require.NotNil(t, pr)
		pr.Pos = Vec2{600, 400}
		pr.Damage = 20
		pr.Radius = ProjectileRadius
	}
	pool.Advance(0, 0, arena)

	hits := ResolveHits(pool, []*Actor{player})

	assert.Len(t, hits, 3)
	assert.Equal(t, 40, player.Health)
	assert.True(t, player.Alive())
	assert.Zero(t, pool.ActiveCount())
}
