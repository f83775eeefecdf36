package game

import (
	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// PoliceState is the stance of a police officer.
type PoliceState int

const (
	PoliceSearching PoliceState = iota
	PoliceReloading
	PoliceShooting
)

func (s PoliceState) String() string {
	switch s {
	case PoliceReloading:
		return "Reloading"
	case PoliceShooting:
		return "Shooting"
	default:
		return "Searching"
	}
}

// Police stands on the ground and fires narcan at floyds in range.
// A shot is committed by entering PoliceShooting and only leaves the
// barrel once shotTimer runs out on a later tick.
type Police struct {
	Body
	Stance    PoliceState
	shotTimer float64
	lastShot  float64
	hasShot   bool
}

func newPolice(id int, x float64, cfg *Config) *Police {
	return &Police{Body: Body{
		ID:     id,
		X:      x,
		Y:      cfg.GroundY() - cfg.PoliceHeight,
		Width:  cfg.PoliceWidth,
		Height: cfg.PoliceHeight,
	}}
}

func (p *Police) Kind() Kind  { return KindPolice }
func (p *Police) Base() *Body { return &p.Body }

func (p *Police) Update(g *Game, dt float64) {
	now := g.Elapsed()

	if p.Stance == PoliceShooting {
		p.shotTimer -= dt
		if p.shotTimer > 0 {
			return
		}
		target := p.target(g)
		if target == nil {
			p.Stance = PoliceSearching
			return
		}
		p.fire(g, target, now)
		p.Stance = PoliceReloading
		return
	}

	if p.target(g) == nil {
		p.Stance = PoliceSearching
		return
	}
	if p.hasShot && now-p.lastShot < g.cfg.PoliceReload {
		p.Stance = PoliceReloading
		return
	}
	p.Stance = PoliceShooting
	p.shotTimer = g.cfg.PoliceShotDelay
}

// target returns the nearest live floyd within search radius.
func (p *Police) target(g *Game) *Floyd {
	center := p.Center()
	f := g.nearestFloyd(center)
	if f == nil || geom.Distance(center, f.Center()) > g.cfg.PoliceSearchRadius {
		return nil
	}
	return f
}

func (p *Police) fire(g *Game, target *Floyd, now float64) {
	muzzle := geom.Vec(p.X+p.Width/2, p.Y)
	aim := target.Center().Sub(muzzle).Angle()
	pos := geom.Vec(muzzle.X-g.cfg.NarcanWidth/2, muzzle.Y-g.cfg.NarcanHeight)
	g.Spawn(newNarcan(g.nextID(), pos, aim, &g.cfg))
	p.lastShot = now
	p.hasShot = true
}

func (p *Police) State() protocol.ObjectState {
	s := p.state(KindPolice)
	s.State = p.Stance.String()
	return s
}
