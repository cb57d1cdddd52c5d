package main

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

func playOto(p *playback, sampleRate int, limit time.Duration) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	// The player stops on its own when Read returns io.EOF.
	player := ctx.NewPlayer(p)
	defer player.Close()
	player.Play()

	waitPlayback(p, limit, func() bool {
		return !player.IsPlaying()
	})
	return nil
}
