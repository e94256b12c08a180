package game

import "time"

// ScoreReason tags what earned a score award
type ScoreReason string

const (
	ScoreHit    ScoreReason = "hit"
	ScoreKill   ScoreReason = "kill"
	ScorePickup ScoreReason = "pickup"
	ScoreWave   ScoreReason = "wave"
	ScoreNuke   ScoreReason = "nuke"
)

var pickupScores = map[Rarity]int{
	RarityCommon:    25,
	RarityRare:      50,
	RarityEpic:      100,
	RarityLegendary: 250,
}

// PickupScore returns the score awarded for collecting a token of the rarity
func PickupScore(r Rarity) int {
	return pickupScores[r]
}

// ScoreKeeper accumulates a session's score and combo. The combo counts shots
// fired and resets once ComboWindow passes without a shot; it never gates
// game mechanics.
type ScoreKeeper struct {
	Score     int
	Combo     int
	MaxCombo  int
	Shots     int
	Breakdown map[ScoreReason]int

	comboRemaining time.Duration
}

// NewScoreKeeper creates a zeroed score keeper
func NewScoreKeeper() *ScoreKeeper {
	return &ScoreKeeper{Breakdown: make(map[ScoreReason]int)}
}

// AddScore is the only way the score changes
func (s *ScoreKeeper) AddScore(reason ScoreReason, delta int) {
	if delta <= 0 {
		return
	}
	s.Score += delta
	s.Breakdown[reason] += delta
}

// RegisterShot counts a player shot event towards the combo
func (s *ScoreKeeper) RegisterShot() {
	s.Shots++
	s.Combo++
	s.MaxCombo = max(s.MaxCombo, s.Combo)
	s.comboRemaining = ComboWindow
}

// Update runs the combo timer down by dt
func (s *ScoreKeeper) Update(dt time.Duration) {
	if s.Combo == 0 {
		return
	}
	s.comboRemaining -= dt
	if s.comboRemaining <= 0 {
		s.comboRemaining = 0
		s.Combo = 0
	}
}

// ComboRemaining returns the time left before the combo resets
func (s *ScoreKeeper) ComboRemaining() time.Duration {
	return s.comboRemaining
}
