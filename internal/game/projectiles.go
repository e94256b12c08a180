package game

import "time"

// ProjectilePool recycles projectiles of one side. Capacity bounds allocation.
type ProjectilePool struct {
	side     Side
	capacity int
	items    []*Projectile
	nextID   uint32
}

// NewProjectilePool creates an empty pool for the given side
func NewProjectilePool(side Side, capacity int) *ProjectilePool {
	if capacity <= 0 {
		capacity = MaxProjectiles
	}
	return &ProjectilePool{side: side, capacity: capacity}
}

// Acquire returns an activated projectile, reusing an inactive one when
// possible. It returns nil when the pool is exhausted.
func (p *ProjectilePool) Acquire() *Projectile {
	p.nextID++
	for _, pr := range p.items {
		if !pr.Active {
			*pr = Projectile{ID: p.nextID, Side: p.side, Active: true}
			return pr
		}
	}
	if len(p.items) >= p.capacity {
		return nil
	}
	pr := &Projectile{ID: p.nextID, Side: p.side, Active: true}
	p.items = append(p.items, pr)
	return pr
}

// Release deactivates a projectile and returns it to the pool
func (p *ProjectilePool) Release(pr *Projectile) {
	pr.Active = false
	pr.Vel = Vec2{}
}

// ReleaseAll deactivates every projectile
func (p *ProjectilePool) ReleaseAll() {
	for _, pr := range p.items {
		p.Release(pr)
	}
}

// Active returns the active projectiles
func (p *ProjectilePool) Active() []*Projectile {
	active := make([]*Projectile, 0, len(p.items))
	for _, pr := range p.items {
		if pr.Active {
			active = append(active, pr)
		}
	}
	return active
}

// ActiveCount returns the number of active projectiles
func (p *ProjectilePool) ActiveCount() int {
	n := 0
	for _, pr := range p.items {
		if pr.Active {
			n++
		}
	}
	return n
}

// Size returns the number of allocated projectiles, active or not
func (p *ProjectilePool) Size() int {
	return len(p.items)
}

// Advance moves active projectiles and retires those that left the arena
// (plus margin) or outlived ProjectileLifetime. It returns the retired count.
func (p *ProjectilePool) Advance(dt float64, now time.Duration, arena Arena) int {
	retired := 0
	for _, pr := range p.items {
		if !pr.Active {
			continue
		}
		pr.Pos = pr.Pos.Add(pr.Vel.Scale(dt))
		if !arena.Contains(pr.Pos, ArenaMargin) || now-pr.SpawnedAt >= ProjectileLifetime {
			p.Release(pr)
			retired++
		}
	}
	return retired
}

// HitEvent describes one projectile striking an actor
type HitEvent struct {
	ProjectileID uint32
	OwnerID      uint32
	Side         Side // Side of the projectile
	Target       *Actor
	Damage       int
	Destroyed    bool
}

// ResolveHits tests every active projectile of the pool against the targets.
// A projectile hits at most one actor and is deactivated on impact. Actors on
// the projectile's own side are never tested.
func ResolveHits(pool *ProjectilePool, targets []*Actor) []HitEvent {
	var hits []HitEvent
	for _, pr := range pool.items {
		if !pr.Active {
			continue
		}
		for _, target := range targets {
			if !target.Alive() || target.Side == pr.Side {
				continue
			}
			if !overlaps(pr.Pos, pr.Radius, target.Pos, target.Radius) {
				continue
			}

			pool.Release(pr)
			hits = append(hits, HitEvent{
				ProjectileID: pr.ID,
				OwnerID:      pr.OwnerID,
				Side:         pr.Side,
				Target:       target,
				Damage:       pr.Damage,
				Destroyed:    ApplyDamage(target, pr.Damage),
			})
			break
		}
	}
	return hits
}

func overlaps(a Vec2, ra float64, b Vec2, rb float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	r := ra + rb
	return dx*dx+dy*dy <= r*r
}
