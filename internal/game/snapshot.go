package game

import "github.com/floydverse/flappy-floyd/internal/protocol"

// Snapshot builds the wire form of the world as of now.
func (g *Game) Snapshot() protocol.GameState {
	s := protocol.GameState{
		State:            g.state.String(),
		Players:          make([]protocol.PlayerState, 0, len(g.members)),
		Objects:          make([]protocol.ObjectState, 0, len(g.objects)),
		RemovedPlayerIDs: append([]int{}, g.removedPlayerIDs...),
		RemovedObjectIDs: append([]int{}, g.removedObjectIDs...),
	}
	for _, m := range g.members {
		if m.floyd == nil || m.leaving {
			continue
		}
		s.Players = append(s.Players, protocol.PlayerState{
			ID:        m.player.ID(),
			Username:  m.player.Username(),
			Highscore: m.player.Highscore(),
			Floyd:     m.floyd.FloydState(),
		})
	}
	for _, o := range g.objects {
		s.Objects = append(s.Objects, o.State())
	}
	return s
}

// broadcastState sends the snapshot to every receiving player and
// resets the per-tick removal lists.
func (g *Game) broadcastState() {
	frame := protocol.NewFrame(protocol.ActionGameState, g.Snapshot())
	for _, m := range g.members {
		if m.receiving {
			m.player.Send(frame)
		}
	}
	g.removedPlayerIDs = nil
	g.removedObjectIDs = nil
}
