package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func renderWAV(filename string, r io.Reader, sampleRate int, limit time.Duration) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	maxFrames := 0
	if limit != 0 {
		maxFrames = int(limit.Seconds() * float64(sampleRate))
	}
	if _, err := writeWAV(f, r, sampleRate, maxFrames); err != nil {
		return err
	}
	return f.Close()
}

// writeWAV encodes the 16-bit stereo PCM stream into w.
// It stops at io.EOF or after maxFrames frames if maxFrames is not 0.
// The number of written frames is returned.
func writeWAV(w io.WriteSeeker, r io.Reader, sampleRate, maxFrames int) (int, error) {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)

	const chunkFrames = 2048
	pcm := make([]byte, 4*chunkFrames)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 2*chunkFrames),
		SourceBitDepth: 16,
	}

	numFrames := 0
	for maxFrames == 0 || numFrames < maxFrames {
		chunk := pcm
		if maxFrames != 0 {
			chunk = pcm[:4*min(chunkFrames, maxFrames-numFrames)]
		}
		n, err := r.Read(chunk)
		if n != 0 {
			n &^= 3
			buf.Data = buf.Data[:n/2]
			for i := range buf.Data {
				buf.Data[i] = int(int16(binary.LittleEndian.Uint16(chunk[2*i:])))
			}
			if err := enc.Write(buf); err != nil {
				return numFrames, fmt.Errorf("write WAV data: %w", err)
			}
			numFrames += n / 4
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return numFrames, err
		}
	}

	if err := enc.Close(); err != nil {
		return numFrames, fmt.Errorf("finish WAV file: %w", err)
	}
	return numFrames, nil
}
