package server

import (
	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/store"
)

// Results applies final tallies: the connection's highscore is raised
// in memory right away and the result is queued for the database.
type Results struct {
	recorder *store.Recorder
}

// NewResults creates a Results sink. A nil recorder keeps results in memory only.
func NewResults(recorder *store.Recorder) *Results {
	return &Results{recorder: recorder}
}

func (r *Results) RecordResult(p game.Player, f *game.Floyd) {
	if c, ok := p.(*Client); ok {
		c.observeScore(f.Score)
	}
	if r.recorder != nil {
		r.recorder.Record(store.Result{Username: p.Username(), Score: f.Score})
	}
}
