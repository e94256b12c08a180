package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddScoreIgnoresNonPositive(t *testing.T) {
	s := NewScoreKeeper()

	s.AddScore(ScoreHit, HitScore)
	s.AddScore(ScoreKill, 0)
	s.AddScore(ScoreKill, -50)
	s.AddScore(ScoreWave, WaveBonus)

	assert.Equal(t, HitScore+WaveBonus, s.Score)
	assert.Equal(t, HitScore, s.Breakdown[ScoreHit])
	assert.Zero(t, s.Breakdown[ScoreKill])
}

func TestComboResetsAfterWindow(t *testing.T) {
	s := NewScoreKeeper()

	s.RegisterShot()
	s.RegisterShot()
	s.Update(ComboWindow - time.Millisecond)
	assert.Equal(t, 2, s.Combo)

	s.RegisterShot()
	assert.Equal(t, 3, s.Combo)
	assert.Equal(t, ComboWindow, s.ComboRemaining())

	s.Update(ComboWindow)
	assert.Zero(t, s.Combo)
	assert.Equal(t, 3, s.MaxCombo)
	assert.Equal(t, 3, s.Shots)
	assert.Zero(t, s.Score, "combo never feeds the score")
}

func TestPickupScore(t *testing.T) {
	assert.Equal(t, 25, PickupScore(RarityCommon))
	assert.Equal(t, 250, PickupScore(RarityLegendary))
}
