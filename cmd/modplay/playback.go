package main

import (
	"sync"
	"sync/atomic"

	"github.com/quasilyte/amigamod"
)

// playback makes the stream usable from the audio device goroutine.
// The device callbacks pull the data while the main goroutine
// polls the song position for the status line.
type playback struct {
	mu sync.Mutex
	s  *amigamod.Stream

	numPositions int

	// ended is set when the song end event is received
	// and the stream doesn't loop.
	ended atomic.Bool
}

func newPlayback(s *amigamod.Stream, looping bool) *playback {
	p := &playback{
		s:            s,
		numPositions: s.GetInfo().NumPositions,
	}
	s.SetEventHandler(func(e amigamod.StreamEvent) {
		if e.Kind == amigamod.EventSongEnd && !looping {
			p.ended.Store(true)
		}
	})
	return p
}

func (p *playback) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.Read(b)
}

func (p *playback) Seek(offset int64, whence int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.Seek(offset, whence)
}

func (p *playback) Render(out []float32) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.Render(out)
}

func (p *playback) Position() (position, row int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.Position()
}

func (p *playback) Ended() bool {
	return p.ended.Load()
}
