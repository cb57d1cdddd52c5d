//go:build !portaudio

package main

import (
	"errors"
	"time"
)

func playPortAudio(p *playback, sampleRate int, limit time.Duration) error {
	return errors.New("portaudio backend is not available, rebuild with -tags portaudio")
}
