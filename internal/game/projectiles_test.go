package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArena = Arena{Width: ArenaWidth, Height: ArenaHeight}

func TestPoolReusesInactiveProjectiles(t *testing.T) {
	pool := NewProjectilePool(SidePlayer, 2)

	a := pool.Acquire()
	b := pool.Acquire()
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Nil(t, pool.Acquire(), "pool is capped")

	pool.Release(a)
	c := pool.Acquire()
	assert.Same(t, a, c)
	assert.True(t, c.Active)
	assert.NotEqual(t, b.ID, c.ID)
	assert.Equal(t, 2, pool.Size())
}

func TestOutOfBoundsProjectileNeverCollides(t *testing.T) {
	pool := NewProjectilePool(SidePlayer, 4)
	enemy := NewEnemy(9, EnemyBasic, 1, Vec2{ArenaWidth + 60, 100})

	pr := pool.Acquire()
	pr.Pos = Vec2{ArenaWidth + 40, 100}
	pr.Vel = Vec2{X: 600}
	pr.Damage = 10
	pr.Radius = ProjectileRadius

	retired := pool.Advance(0.05, 0, testArena)
	require.Equal(t, 1, retired)
	require.False(t, pr.Active)

	// The inactive projectile sits on the enemy but must not register
	pr.Pos = enemy.Pos
	assert.Empty(t, ResolveHits(pool, []*Actor{enemy}))
	assert.Equal(t, enemy.MaxHealth, enemy.Health)
}

func TestProjectileLifetime(t *testing.T) {
	pool := NewProjectilePool(SideEnemy, 4)
	pr := pool.Acquire()
	pr.Pos = Vec2{600, 400}
	pr.SpawnedAt = time.Second

	assert.Zero(t, pool.Advance(0, time.Second+ProjectileLifetime-time.Millisecond, testArena))
	assert.Equal(t, 1, pool.Advance(0, time.Second+ProjectileLifetime, testArena))
}

func TestResolveHitsSkipsOwnSide(t *testing.T) {
	pool := NewProjectilePool(SideEnemy, 4)
	ally := NewEnemy(2, EnemyHeavy, 1, Vec2{300, 300})
	pr := pool.Acquire()
	pr.Pos = ally.Pos
	pr.Damage = 50

	assert.Empty(t, ResolveHits(pool, []*Actor{ally}))
	assert.True(t, pr.Active)
}

func TestProjectileHitsOnlyOneTarget(t *testing.T) {
	pool := NewProjectilePool(SidePlayer, 4)
	first := NewEnemy(2, EnemyBasic, 1, Vec2{300, 300})
	second := NewEnemy(3, EnemyBasic, 1, Vec2{305, 300})
	pr := pool.Acquire()
	pr.Pos = Vec2{302, 300}
	pr.Damage = 15
	pr.Radius = ProjectileRadius

	hits := ResolveHits(pool, []*Actor{first, second})

	require.Len(t, hits, 1)
	assert.Same(t, first, hits[0].Target)
	assert.Equal(t, second.MaxHealth, second.Health)
}

func TestFireRespectsCooldown(t *testing.T) {
	pool := NewProjectilePool(SidePlayer, 16)
	p := NewPlayer(1, Vec2{600, 400})

	assert.Len(t, Fire(p, 0, 0, pool, nil), 1, "first shot is always allowed")
	assert.Empty(t, Fire(p, 0, PlayerFireRate-time.Millisecond, pool, nil))
	assert.Len(t, Fire(p, 0, PlayerFireRate, pool, nil), 1)

	p.RapidFire = true
	assert.Equal(t, time.Duration(float64(PlayerFireRate)*RapidFireCooldown), EffectiveCooldown(p))
}

func TestFireMultiShotFan(t *testing.T) {
	pool := NewProjectilePool(SidePlayer, 16)
	p := NewPlayer(1, Vec2{600, 400})
	p.MultiShot = 3

	shots := Fire(p, 0, 0, pool, nil)

	require.Len(t, shots, 3)
	assert.InDelta(t, -MultiShotSpread/2, shots[0].Vel.Angle(), 1e-9)
	assert.InDelta(t, 0, shots[1].Vel.Angle(), 1e-9)
	assert.InDelta(t, MultiShotSpread/2, shots[2].Vel.Angle(), 1e-9)
	for _, s := range shots {
		assert.InDelta(t, PlayerBulletSpeed, s.Vel.Len(), 1e-6)
		assert.Equal(t, SidePlayer, s.Side)
	}
}

func TestEnemyAimDeviation(t *testing.T) {
	pool := NewProjectilePool(SideEnemy, 64)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		e := NewEnemy(uint32(i+1), EnemyBasic, 1, Vec2{100, 100})
		shots := Fire(e, 1.0, 0, pool, rng)
		require.Len(t, shots, 1)
		assert.InDelta(t, 1.0, shots[0].Vel.Angle(), AimDeviation+1e-9)
		assert.InDelta(t, EnemyBulletSpeed, shots[0].Vel.Len(), 1e-6)
	}

	sniper := NewEnemy(99, EnemySniper, 1, Vec2{100, 100})
	shots := Fire(sniper, 1.0, 0, pool, rng)
	require.Len(t, shots, 1)
	assert.InDelta(t, 1.0, shots[0].Vel.Angle(), 1e-9, "snipers never deviate")
	assert.InDelta(t, SniperBulletSpeed, shots[0].Vel.Len(), 1e-6)
}
