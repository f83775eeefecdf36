package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/floydverse/flappy-floyd/internal/protocol"
	"github.com/floydverse/flappy-floyd/internal/session"
)

func TestSendAfterCloseIsDropped(t *testing.T) {
	c := NewClient(nil, nil, "127.0.0.1", 1, "floyd", false)
	c.close()
	c.close()

	c.Send(protocol.NewFrame(protocol.ActionGameOver, nil))
	if len(c.send) != 0 {
		t.Errorf("expected closed client to drop frames, %d queued", len(c.send))
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	c := NewClient(nil, nil, "127.0.0.1", 1, "floyd", false)
	frame := protocol.NewFrame(protocol.ActionGameOver, nil)
	for i := 0; i < sendBufSize+10; i++ {
		c.Send(frame)
	}
	if len(c.send) != sendBufSize {
		t.Errorf("expected %d queued, got %d", sendBufSize, len(c.send))
	}
}

// Run with -race: sends from the tick goroutine must not race the hub
// tearing the client down.
func TestSendConcurrentWithUnregister(t *testing.T) {
	registry := session.NewRegistry(session.DefaultConfig(), 20, nil)
	hub := NewHub(registry, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil, "127.0.0.1", 1, "floyd", false)
	if !hub.registerClient(c) {
		t.Fatal("register failed")
	}

	frame := protocol.NewFrame(protocol.ActionGameOver, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Send(frame)
			select {
			case <-c.send:
			default:
			}
		}
	}()
	hub.unregisterClient(c)
	wg.Wait()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister did not close the client")
	}
	c.Send(frame)
}
