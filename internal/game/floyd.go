package game

import (
	"math"

	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Floyd is the avatar a player steers through the world.
type Floyd struct {
	Body
	Hearts      int
	Score       int
	FentStreak  int
	Multiplier  int
	BottleCount int

	cfg    *Config
	player Player
}

func newFloyd(id int, cfg *Config, p Player) *Floyd {
	return &Floyd{
		Body: Body{
			ID:       id,
			X:        cfg.FloydX,
			Y:        cfg.FloydY,
			Width:    cfg.FloydWidth,
			Height:   cfg.FloydHeight,
			Velocity: geom.Vec(cfg.FloydSpeed, 0),
			Solid:    true,
		},
		Hearts:     cfg.Hearts,
		Multiplier: 1,
		cfg:        cfg,
		player:     p,
	}
}

func (f *Floyd) Kind() Kind  { return KindFloyd }
func (f *Floyd) Base() *Body { return &f.Body }

// Player returns the owner of f.
func (f *Floyd) Player() Player { return f.player }

// Alive reports whether f still has hearts left.
func (f *Floyd) Alive() bool {
	return f.Hearts > 0
}

// Jump sets the vertical velocity to the lift impulse.
func (f *Floyd) Jump() {
	if !f.Alive() {
		return
	}
	f.Velocity.Y = f.cfg.Lift
}

// Update integrates gravity and forward motion and eases the nose
// toward the direction of travel.
func (f *Floyd) Update(dt float64) {
	f.Velocity.X = f.cfg.FloydSpeed
	f.Velocity.Y += f.cfg.Gravity * dt
	f.X += f.Velocity.X * dt
	f.Y += f.Velocity.Y * dt

	if ground := f.cfg.GroundY(); f.Y+f.Height > ground {
		f.Y = ground - f.Height
		f.Velocity.Y = 0
	}

	target := geom.Clamp(f.Velocity.Y/f.cfg.AngleMaxVelocity*math.Pi/2, -math.Pi/2, math.Pi/2)
	f.Rotation = geom.Clamp(geom.Lerp(f.Rotation, target, f.cfg.AngleSpeed), -math.Pi/2, math.Pi/2)
}

// LoseHeart removes one heart and breaks every streak.
func (f *Floyd) LoseHeart() {
	if f.Hearts > 0 {
		f.Hearts--
	}
	f.Multiplier = 1
	f.FentStreak = 0
	f.BottleCount = 0
}

// addScore credits one scoring event and returns the points gained.
func (f *Floyd) addScore() int {
	gained := f.Multiplier
	f.Score += gained
	f.FentStreak++
	if f.FentStreak >= f.cfg.StreakForMultiplier {
		f.Multiplier++
		f.FentStreak = 0
	}
	return gained
}

// collectBottle counts a bottle toward the next heart restore.
func (f *Floyd) collectBottle() {
	f.BottleCount++
	if f.BottleCount >= f.cfg.BottlesNeededForHeart {
		f.BottleCount = 0
		if f.Hearts < f.cfg.MaxHearts {
			f.Hearts++
		}
	}
}

// FloydState returns the wire form of f.
func (f *Floyd) FloydState() *protocol.FloydState {
	return &protocol.FloydState{
		ObjectState:       f.state(KindFloyd),
		Hearts:            f.Hearts,
		Score:             f.Score,
		FentStreak:        f.FentStreak,
		CurrentMultiplier: f.Multiplier,
		BottleCount:       f.BottleCount,
	}
}
