//go:build portaudio

package main

import (
	"time"

	"github.com/gordonklaus/portaudio"
)

func playPortAudio(p *playback, sampleRate int, limit time.Duration) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	// The callback gets interleaved stereo frames.
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), 0, func(out []float32) {
		p.Render(out)
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	waitPlayback(p, limit, p.Ended)
	return stream.Stop()
}
