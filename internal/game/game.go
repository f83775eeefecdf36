// Package game runs the world simulation of a single match.
package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// State is the lifecycle stage of a game.
type State int

const (
	StatePending State = iota
	StateStarted
	StatePaused
	StateOver
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StatePaused:
		return "Paused"
	case StateOver:
		return "Over"
	default:
		return "Pending"
	}
}

// Player is the connection side of a participant. Send must not block.
type Player interface {
	ID() int
	Username() string
	Highscore() int
	Send(f *protocol.Frame)
	Floyd() *Floyd
	AttachFloyd(f *Floyd)
}

// ResultRecorder receives a floyd's final tally when it leaves a game.
type ResultRecorder interface {
	RecordResult(p Player, f *Floyd)
}

type member struct {
	player    Player
	floyd     *Floyd
	receiving bool
	leaving   bool
	quitting  bool
}

// Game holds the world of one match. It is driven from a single
// goroutine and is not safe for concurrent use.
type Game struct {
	cfg   Config
	rng   *rand.Rand
	state State

	elapsed     float64
	maxObjectID int

	members []*member
	floyds  []*Floyd
	objects []Object
	spawned []Object
	removed map[int]bool

	frontPipeX  float64
	policeChunk int
	forward     *Floyd
	behind      *Floyd

	removedPlayerIDs []int
	removedObjectIDs []int

	results ResultRecorder
	onOver  func()
}

// New creates a pending game. A nil rng is seeded from the clock.
func New(cfg Config, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Game{
		cfg:        cfg,
		rng:        rng,
		removed:    make(map[int]bool),
		frontPipeX: cfg.FirstPipeX,
	}
}

// SetResultRecorder registers where final tallies go.
func (g *Game) SetResultRecorder(r ResultRecorder) {
	g.results = r
}

// OnOver registers a callback run once when the game ends.
func (g *Game) OnOver(fn func()) {
	g.onOver = fn
}

func (g *Game) Config() Config      { return g.cfg }
func (g *Game) State() State        { return g.state }
func (g *Game) Elapsed() float64    { return g.elapsed }
func (g *Game) Floyds() []*Floyd    { return g.floyds }
func (g *Game) Objects() []Object   { return g.objects }
func (g *Game) FrontPipeX() float64 { return g.frontPipeX }

// FurthestForward returns the leading floyd, or nil.
func (g *Game) FurthestForward() *Floyd { return g.forward }

// FurthestBehind returns the trailing floyd, or nil.
func (g *Game) FurthestBehind() *Floyd { return g.behind }

func (g *Game) nextID() int {
	g.maxObjectID++
	return g.maxObjectID
}

// AddPlayer gives p a floyd. Players can only be added before Start.
func (g *Game) AddPlayer(p Player) *Floyd {
	if g.state != StatePending {
		return nil
	}
	f := newFloyd(g.nextID(), &g.cfg, p)
	g.members = append(g.members, &member{player: p, floyd: f, receiving: true})
	g.floyds = append(g.floyds, f)
	p.AttachFloyd(f)
	return f
}

// Start begins the match and announces the world bounds.
func (g *Game) Start() {
	if g.state != StatePending {
		return
	}
	g.state = StateStarted
	g.trackFrontier()
	frame := protocol.NewFrame(protocol.ActionGameStart, protocol.GameStart{
		WorldWidth:  g.cfg.WorldWidth,
		WorldHeight: g.cfg.WorldHeight,
	})
	for _, m := range g.members {
		m.player.Send(frame)
	}
}

func (g *Game) member(p Player) *member {
	for _, m := range g.members {
		if m.player == p {
			return m
		}
	}
	return nil
}

// RemovePlayer detaches p immediately; its floyd leaves the world at
// the start of the next tick.
func (g *Game) RemovePlayer(p Player) {
	m := g.member(p)
	if m == nil {
		return
	}
	m.leaving = true
	m.receiving = false
	p.AttachFloyd(nil)
}

// QuitPlayer withdraws p's floyd from the match but keeps p connected.
func (g *Game) QuitPlayer(p Player) {
	if m := g.member(p); m != nil && m.floyd != nil {
		m.quitting = true
	}
}

// Spectate resumes snapshots for a player whose floyd is gone.
func (g *Game) Spectate(p Player) {
	if m := g.member(p); m != nil && !m.leaving {
		m.receiving = true
	}
}

// TogglePause pauses or resumes a single-floyd game.
func (g *Game) TogglePause(p Player) {
	if g.member(p) == nil || len(g.floyds) != 1 {
		return
	}
	switch g.state {
	case StateStarted:
		g.state = StatePaused
	case StatePaused:
		g.state = StateStarted
	}
}

// Quit ends the game. It is idempotent.
func (g *Game) Quit() {
	if g.state == StateOver {
		return
	}
	g.state = StateOver
	for _, m := range g.members {
		if m.floyd != nil {
			g.record(m.player, m.floyd)
			m.floyd = nil
		}
		m.player.AttachFloyd(nil)
	}
	g.floyds = nil
	g.forward, g.behind = nil, nil
	if g.onOver != nil {
		g.onOver()
	}
}

// Spawn queues o to join the world after the current iteration.
func (g *Game) Spawn(o Object) {
	g.spawned = append(g.spawned, o)
}

// Remove marks o for removal after the current iteration. Repeated
// calls within a tick are collapsed.
func (g *Game) Remove(o Object) {
	g.removed[o.Base().ID] = true
}

// Update advances the world by dt seconds and pushes a snapshot.
func (g *Game) Update(dt float64) {
	if g.state != StateStarted && g.state != StatePaused {
		return
	}

	// Departures apply even while paused.
	g.reapFloyds()
	if len(g.floyds) == 0 {
		g.broadcastState()
		g.Quit()
		return
	}
	if g.state == StatePaused {
		g.broadcastState()
		return
	}
	g.elapsed += dt

	for _, f := range g.floyds {
		f.Update(dt)
	}
	g.trackFrontier()
	g.generatePipes()
	g.generatePolice()

	for _, o := range g.objects {
		if g.removed[o.Base().ID] {
			continue
		}
		o.Update(g, dt)
	}
	g.despawn()
	g.flush()

	g.broadcastState()
}

// reapFloyds drops floyds whose owner left, quit or ran out of hearts.
func (g *Game) reapFloyds() {
	kept := g.members[:0]
	for _, m := range g.members {
		f := m.floyd
		if f != nil && (m.leaving || m.quitting || !f.Alive()) {
			g.dropFloyd(f)
			g.removedPlayerIDs = append(g.removedPlayerIDs, m.player.ID())
			g.record(m.player, f)
			m.floyd = nil
			if !m.leaving {
				m.player.AttachFloyd(nil)
				m.receiving = false
				m.player.Send(protocol.NewFrame(protocol.ActionGameQuit, protocol.GameQuit{Score: f.Score}))
				log.Debug("Floyd out", "player", m.player.Username(), "score", f.Score)
			}
		}
		if !m.leaving {
			kept = append(kept, m)
		}
	}
	g.members = kept
}

func (g *Game) dropFloyd(f *Floyd) {
	for i, o := range g.floyds {
		if o == f {
			g.floyds = append(g.floyds[:i], g.floyds[i+1:]...)
			return
		}
	}
}

func (g *Game) record(p Player, f *Floyd) {
	if g.results != nil {
		g.results.RecordResult(p, f)
	}
}

func (g *Game) trackFrontier() {
	g.forward, g.behind = nil, nil
	for _, f := range g.floyds {
		if g.forward == nil || f.X > g.forward.X {
			g.forward = f
		}
		if g.behind == nil || f.X < g.behind.X {
			g.behind = f
		}
	}
}

// generatePipes keeps pipes laid out one world width past the leader.
func (g *Game) generatePipes() {
	if g.forward == nil {
		return
	}
	for g.frontPipeX < g.forward.X+g.cfg.WorldWidth {
		g.spawnPipe(g.frontPipeX)
		g.frontPipeX += g.cfg.PipeSeparation
	}
}

func (g *Game) spawnPipe(x float64) {
	c := &g.cfg
	minY := c.PipeMargin - c.PipeHeight
	maxY := c.GroundY() - c.PipeMargin - c.PipeGap - c.PipeHeight
	y := minY
	if maxY > minY {
		y += g.rng.Float64() * (maxY - minY)
	}
	pipe := newPipe(g.nextID(), x, y, c)
	g.Spawn(pipe)
	if g.rng.Float64() < c.BottleChance {
		g.Spawn(newBottle(g.nextID(), pipe.GapCenter(), c))
	}
}

// generatePolice rolls for an officer each time the leader enters a
// new world-width chunk.
func (g *Game) generatePolice() {
	if g.forward == nil {
		return
	}
	chunk := int(math.Floor(g.forward.X / g.cfg.WorldWidth))
	if chunk <= g.policeChunk {
		return
	}
	g.policeChunk = chunk
	if g.rng.Float64() < g.cfg.PoliceChance {
		x := float64(chunk+1)*g.cfg.WorldWidth + g.cfg.PoliceOffset
		g.Spawn(newPolice(g.nextID(), x, &g.cfg))
	}
}

// isOffscreen reports whether b has fallen a full world width behind
// the trailing floyd.
func (g *Game) isOffscreen(b *Body) bool {
	return g.behind != nil && b.X < g.behind.X-g.cfg.WorldWidth
}

func (g *Game) despawn() {
	for _, o := range g.objects {
		if g.isOffscreen(o.Base()) {
			g.Remove(o)
		}
	}
}

// flush applies the removals and spawns queued during the tick.
func (g *Game) flush() {
	if len(g.removed) > 0 {
		kept := g.objects[:0]
		for _, o := range g.objects {
			id := o.Base().ID
			if g.removed[id] {
				g.removedObjectIDs = append(g.removedObjectIDs, id)
				continue
			}
			kept = append(kept, o)
		}
		for i := len(kept); i < len(g.objects); i++ {
			g.objects[i] = nil
		}
		g.objects = kept
	}
	for _, o := range g.spawned {
		if !g.removed[o.Base().ID] {
			g.objects = append(g.objects, o)
		}
	}
	g.spawned = nil
	clear(g.removed)
}

func (g *Game) nearestFloyd(pos geom.Vector2) *Floyd {
	var best *Floyd
	bestDist := math.Inf(1)
	for _, f := range g.floyds {
		if !f.Alive() {
			continue
		}
		if d := geom.Distance(pos, f.Center()); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

func (g *Game) awardScore(f *Floyd, from int) {
	gained := f.addScore()
	if f.player != nil {
		f.player.Send(protocol.NewFrame(protocol.ActionScoreIncrement, protocol.ScoreIncrement{
			From:   from,
			Gained: gained,
			Score:  f.Score,
		}))
	}
}
