package game

import "math"

// Config holds every gameplay tuning value. Distances are world units,
// times are seconds, speeds are units per second.
type Config struct {
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`
	FloorHeight float64 `json:"floorHeight"`

	FloydX                float64 `json:"floydX"`
	FloydY                float64 `json:"floydY"`
	FloydWidth            float64 `json:"floydWidth"`
	FloydHeight           float64 `json:"floydHeight"`
	FloydSpeed            float64 `json:"floydSpeed"`
	Lift                  float64 `json:"lift"`
	Gravity               float64 `json:"gravity"`
	AngleSpeed            float64 `json:"angleSpeed"` // lerp weight per tick
	AngleMaxVelocity      float64 `json:"angleMaxVelocity"`
	Hearts                int     `json:"hearts"`
	MaxHearts             int     `json:"maxHearts"`
	StreakForMultiplier   int     `json:"streakForMultiplier"`
	BottlesNeededForHeart int     `json:"bottlesNeededForHeart"`

	PipeWidth      float64 `json:"pipeWidth"`
	PipeHeight     float64 `json:"pipeHeight"`
	PipeGap        float64 `json:"pipeGap"`
	PipeSeparation float64 `json:"pipeSeparation"`
	FirstPipeX     float64 `json:"firstPipeX"`
	PipeMargin     float64 `json:"pipeMargin"`
	PipePassOffset float64 `json:"pipePassOffset"`
	KneeGrowth     float64 `json:"kneeGrowth"`

	BottleWidth  float64 `json:"bottleWidth"`
	BottleHeight float64 `json:"bottleHeight"`
	BottleChance float64 `json:"bottleChance"`

	NarcanWidth    float64 `json:"narcanWidth"`
	NarcanHeight   float64 `json:"narcanHeight"`
	NarcanSpeed    float64 `json:"narcanSpeed"`
	NarcanLifetime float64 `json:"narcanLifetime"`
	NarcanHoming   bool    `json:"narcanHoming"`

	PoliceWidth        float64 `json:"policeWidth"`
	PoliceHeight       float64 `json:"policeHeight"`
	PoliceChance       float64 `json:"policeChance"`
	PoliceOffset       float64 `json:"policeOffset"`
	PoliceSearchRadius float64 `json:"policeSearchRadius"`
	PoliceReload       float64 `json:"policeReload"`
	PoliceShotDelay    float64 `json:"policeShotDelay"`
}

const (
	floydScale  = 1.35
	narcanScale = 0.2
	policeScale = 0.6
)

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		WorldWidth:  360,
		WorldHeight: 640,
		FloorHeight: 56,

		FloydX:                50,
		FloydY:                200,
		FloydWidth:            53 * floydScale,
		FloydHeight:           46 * floydScale,
		FloydSpeed:            180,
		Lift:                  -420,
		Gravity:               900,
		AngleSpeed:            0.22,
		AngleMaxVelocity:      600,
		Hearts:                5,
		MaxHearts:             5,
		StreakForMultiplier:   3,
		BottlesNeededForHeart: 5,

		PipeWidth:      150,
		PipeHeight:     390,
		PipeGap:        260,
		PipeSeparation: 300,
		FirstPipeX:     360,
		PipeMargin:     40,
		PipePassOffset: 20,

		BottleWidth:  60,
		BottleHeight: 60,
		BottleChance: 0.6,

		NarcanWidth:    90 * narcanScale,
		NarcanHeight:   128 * narcanScale,
		NarcanSpeed:    200,
		NarcanLifetime: 3,
		NarcanHoming:   true,

		PoliceWidth:        128 * policeScale,
		PoliceHeight:       200 * policeScale,
		PoliceChance:       0.5,
		PoliceOffset:       180,
		PoliceSearchRadius: 360,
		PoliceReload:       1.5,
		PoliceShotDelay:    0.3,
	}
}

// GroundY is the world y of the floor line.
func (c Config) GroundY() float64 {
	return c.WorldHeight - c.FloorHeight
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func clampFloat(v, minV, maxV float64) float64 {
	if math.IsNaN(v) {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// Clamp enforces safety bounds so a hand-edited tuning file cannot
// produce an unplayable or degenerate world. It mutates c in place.
func (c *Config) Clamp() {
	c.WorldWidth = clampFloat(c.WorldWidth, 100, 4000)
	c.WorldHeight = clampFloat(c.WorldHeight, 100, 4000)
	c.FloorHeight = clampFloat(c.FloorHeight, 0, c.WorldHeight/2)

	c.FloydWidth = clampFloat(c.FloydWidth, 1, c.WorldWidth/2)
	c.FloydHeight = clampFloat(c.FloydHeight, 1, c.WorldHeight/4)
	c.FloydSpeed = clampFloat(c.FloydSpeed, 0, 2000)
	c.Lift = clampFloat(c.Lift, -5000, 0)
	c.Gravity = clampFloat(c.Gravity, 0, 10000)
	c.AngleSpeed = clampFloat(c.AngleSpeed, 0, 1)
	c.AngleMaxVelocity = clampFloat(c.AngleMaxVelocity, 1, 10000)
	c.MaxHearts = clampInt(c.MaxHearts, 1, 99)
	c.Hearts = clampInt(c.Hearts, 1, c.MaxHearts)
	c.StreakForMultiplier = clampInt(c.StreakForMultiplier, 1, 100)
	c.BottlesNeededForHeart = clampInt(c.BottlesNeededForHeart, 1, 100)

	c.PipeWidth = clampFloat(c.PipeWidth, 1, c.WorldWidth)
	c.PipeHeight = clampFloat(c.PipeHeight, 1, c.WorldHeight)
	c.PipeGap = clampFloat(c.PipeGap, c.FloydHeight, c.GroundY())
	// Each pipe must start after the previous one ends.
	c.PipeSeparation = clampFloat(c.PipeSeparation, c.PipeWidth, 10*c.WorldWidth)
	c.FirstPipeX = clampFloat(c.FirstPipeX, c.FloydX+c.FloydWidth, 10*c.WorldWidth)
	c.PipeMargin = clampFloat(c.PipeMargin, 0, (c.GroundY()-c.PipeGap)/2)
	c.PipePassOffset = clampFloat(c.PipePassOffset, 0, c.WorldWidth)
	c.KneeGrowth = clampFloat(c.KneeGrowth, 0, 100)

	c.BottleWidth = clampFloat(c.BottleWidth, 1, c.PipeWidth)
	c.BottleHeight = clampFloat(c.BottleHeight, 1, c.PipeGap)
	c.BottleChance = clampFloat(c.BottleChance, 0, 1)

	c.NarcanWidth = clampFloat(c.NarcanWidth, 1, 500)
	c.NarcanHeight = clampFloat(c.NarcanHeight, 1, 500)
	c.NarcanSpeed = clampFloat(c.NarcanSpeed, 0, 5000)
	c.NarcanLifetime = clampFloat(c.NarcanLifetime, 0.1, 60)

	c.PoliceWidth = clampFloat(c.PoliceWidth, 1, c.WorldWidth)
	c.PoliceHeight = clampFloat(c.PoliceHeight, 1, c.GroundY())
	c.PoliceChance = clampFloat(c.PoliceChance, 0, 1)
	c.PoliceOffset = clampFloat(c.PoliceOffset, 0, c.WorldWidth)
	c.PoliceSearchRadius = clampFloat(c.PoliceSearchRadius, 0, 10*c.WorldWidth)
	c.PoliceReload = clampFloat(c.PoliceReload, 0.05, 60)
	c.PoliceShotDelay = clampFloat(c.PoliceShotDelay, 0, c.PoliceReload)
}
