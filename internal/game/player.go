package game

// NewPlayer creates the player actor with default values
func NewPlayer(id uint32, pos Vec2) *Actor {
	return &Actor{
		ID:        id,
		Side:      SidePlayer,
		Behavior:  BehaviorPlayerControlled,
		Pos:       pos,
		Radius:    PlayerRadius,
		Health:    PlayerMaxHealth,
		MaxHealth: PlayerMaxHealth,
		Speed:     PlayerSpeed,
		BaseSpeed: PlayerSpeed,
		Damage:    PlayerDamage,
		FireRate:  PlayerFireRate,
		MultiShot: 1,
	}
}

// steer applies movement input to the player and keeps it inside the arena
func steer(player *Actor, input *InputMsg, arena Arena, dt float64) {
	var dir Vec2
	if input.Up {
		dir.Y -= 1
	}
	if input.Down {
		dir.Y += 1
	}
	if input.Left {
		dir.X -= 1
	}
	if input.Right {
		dir.X += 1
	}

	player.Vel = dir.Normalize().Scale(player.Speed)
	player.Pos = arena.Clamp(player.Pos.Add(player.Vel.Scale(dt)), player.Radius)

	// Face the cursor; keep the previous facing when it sits on the player
	aim := Vec2{input.AimX, input.AimY}.Sub(player.Pos)
	if aim.Len() > 0 {
		player.Angle = aim.Angle()
	}
}
