package store

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	recorderBufSize    = 1024
	recorderBatchSize  = 50
	recorderFlushEvery = 5 * time.Second
)

// Recorder persists results from a background goroutine so the game
// loop never waits on disk.
type Recorder struct {
	db      *DB
	results chan Result
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewRecorder creates and starts the background writer.
func NewRecorder(db *DB) *Recorder {
	r := &Recorder{
		db:      db,
		results: make(chan Result, recorderBufSize),
		stop:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Record enqueues a result without blocking. Results are dropped when
// the queue is full or the recorder has stopped.
func (r *Recorder) Record(res Result) {
	select {
	case <-r.stop:
		return
	default:
	}
	select {
	case r.results <- res:
	default:
		log.Warn("Result queue full, dropping", "username", res.Username)
	}
}

// Stop flushes pending results and waits for the writer to exit.
func (r *Recorder) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]Result, 0, recorderBatchSize)
	ticker := time.NewTicker(recorderFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case res := <-r.results:
			batch = append(batch, res)
			if len(batch) >= recorderBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			r.flush(batch)
			batch = batch[:0]
		case <-r.stop:
			for {
				select {
				case res := <-r.results:
					batch = append(batch, res)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *Recorder) flush(batch []Result) {
	if r.db == nil || len(batch) == 0 {
		return
	}
	if err := r.db.RecordResults(batch); err != nil {
		log.Error("Failed to store results", "count", len(batch), "err", err)
	}
}
