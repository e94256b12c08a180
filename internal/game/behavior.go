package game

import (
	"log"
	"math/rand"

	bt "github.com/joeycumines/go-behaviortree"
)

// Behavior is the decision policy of an actor
type Behavior uint8

const (
	BehaviorPlayerControlled Behavior = iota
	BehaviorAggressive
	BehaviorDefensive
	BehaviorPatrol
	BehaviorSnipe
)

func (b Behavior) String() string {
	switch b {
	case BehaviorPlayerControlled:
		return "player-controlled"
	case BehaviorAggressive:
		return "aggressive"
	case BehaviorDefensive:
		return "defensive"
	case BehaviorPatrol:
		return "patrol"
	case BehaviorSnipe:
		return "snipe"
	default:
		return "unknown"
	}
}

// Perception is what an enemy knows when it decides
type Perception struct {
	Target    Vec2
	HasTarget bool
	Arena     Arena
	Rng       *rand.Rand
}

// Decision is the outcome of one behavior evaluation
type Decision struct {
	Velocity Vec2
	Facing   float64
	Fire     bool
	Mode     Behavior // The behavior that produced the decision
}

type evaluator func(self *Actor, p Perception) Decision

var evaluators = [...]evaluator{
	BehaviorPlayerControlled: evaluateIdle,
	BehaviorAggressive:       evaluateAggressive,
	BehaviorDefensive:        evaluateDefensive,
	BehaviorPatrol:           evaluatePatrol,
	BehaviorSnipe:            evaluateSnipe,
}

func evaluatorFor(b Behavior) evaluator {
	if int(b) < len(evaluators) && evaluators[b] != nil {
		return evaluators[b]
	}
	return evaluateIdle
}

// brain wraps an actor's behavior in a behavior tree. Every kind is a single
// action leaf except patrol, a selector whose aggressive branch pre-empts
// wandering while the target is close.
type brain struct {
	self *Actor
	in   Perception
	out  Decision
	tree bt.Node
}

func newBrain(a *Actor) *brain {
	b := &brain{self: a}
	if a.Behavior == BehaviorPatrol {
		b.tree = bt.New(
			bt.Selector,
			bt.New(
				bt.Sequence,
				b.condition(b.targetWithin(PatrolAggroRange)),
				b.action(evaluateAggressive),
			),
			b.action(evaluatePatrol),
		)
		return b
	}
	b.tree = b.action(evaluatorFor(a.Behavior))
	return b
}

func (b *brain) action(eval evaluator) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		b.out = eval(b.self, b.in)
		return bt.Success, nil
	})
}

func (b *brain) condition(pred func() bool) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if pred() {
			return bt.Success, nil
		}
		return bt.Failure, nil
	})
}

func (b *brain) targetWithin(radius float64) func() bool {
	return func() bool {
		return b.in.HasTarget && b.self.Pos.Dist(b.in.Target) < radius
	}
}

// Evaluate runs the actor's behavior for one tick
func Evaluate(a *Actor, p Perception) Decision {
	if !a.Alive() {
		return Decision{}
	}
	if a.brain == nil {
		a.brain = newBrain(a)
	}

	b := a.brain
	b.in = p
	b.out = Decision{Facing: a.Angle, Mode: a.Behavior}
	if _, err := b.tree.Tick(); err != nil {
		log.Printf("Behavior tree for actor %d failed: %v", a.ID, err)
		return Decision{Facing: a.Angle, Mode: a.Behavior}
	}
	return b.out
}

func evaluateIdle(self *Actor, _ Perception) Decision {
	return Decision{Facing: self.Angle, Mode: BehaviorPlayerControlled}
}

// evaluateAggressive charges the target at full speed
func evaluateAggressive(self *Actor, p Perception) Decision {
	d := Decision{Facing: self.Angle, Mode: BehaviorAggressive}
	if !p.HasTarget {
		return d
	}
	toTarget := p.Target.Sub(self.Pos)
	dist := toTarget.Len()
	d.Facing = toTarget.Angle()
	d.Velocity = toTarget.Normalize().Scale(self.Speed)
	d.Fire = dist < EngagementRange
	return d
}

// evaluateDefensive holds a distance band around the target
func evaluateDefensive(self *Actor, p Perception) Decision {
	d := Decision{Facing: self.Angle, Mode: BehaviorDefensive}
	if !p.HasTarget {
		return d
	}
	toTarget := p.Target.Sub(self.Pos)
	dist := toTarget.Len()
	dir := toTarget.Normalize()
	d.Facing = toTarget.Angle()

	switch {
	case dist < DefensiveMinRange:
		d.Velocity = dir.Scale(-self.Speed)
	case dist > DefensiveMaxRange:
		d.Velocity = dir.Scale(self.Speed * 0.5)
	}
	d.Fire = dist <= DefensiveMaxRange
	return d
}

// evaluatePatrol wanders between random waypoints at reduced speed
func evaluatePatrol(self *Actor, p Perception) Decision {
	d := Decision{Facing: self.Angle, Mode: BehaviorPatrol}
	if !self.hasPatrol || self.Pos.Dist(self.patrolTarget) <= PatrolArrivalRadius {
		self.patrolTarget = randomPoint(p.Arena, p.Rng)
		self.hasPatrol = true
	}
	toPoint := self.patrolTarget.Sub(self.Pos)
	d.Velocity = toPoint.Normalize().Scale(self.Speed * PatrolSpeedFactor)
	if toPoint.Len() > 0 {
		d.Facing = toPoint.Angle()
	}
	return d
}

// evaluateSnipe keeps away from the target and fires on every cooldown
func evaluateSnipe(self *Actor, p Perception) Decision {
	d := Decision{Facing: self.Angle, Mode: BehaviorSnipe}
	if !p.HasTarget {
		return d
	}
	toTarget := p.Target.Sub(self.Pos)
	d.Facing = toTarget.Angle()
	if toTarget.Len() < SniperRetreatRange {
		d.Velocity = toTarget.Normalize().Scale(-self.Speed)
	}
	d.Fire = true
	return d
}

func randomPoint(arena Arena, rng *rand.Rand) Vec2 {
	if rng == nil {
		return Vec2{arena.Width / 2, arena.Height / 2}
	}
	return Vec2{X: rng.Float64() * arena.Width, Y: rng.Float64() * arena.Height}
}
