package main

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

func playEbiten(p *playback, title string, sampleRate int, limit time.Duration) error {
	// You can have multiple players, but only one audio context.
	audioContext := audio.NewContext(sampleRate)
	player, err := audioContext.NewPlayer(p)
	if err != nil {
		return err
	}
	player.Play()

	g := &game{
		p:      p,
		player: player,
		title:  title,
		start:  time.Now(),
		limit:  limit,
	}
	ebiten.SetWindowTitle("modplay: " + title)
	ebiten.SetWindowSize(640, 480)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

type game struct {
	p      *playback
	player *audio.Player

	title  string
	paused bool

	start time.Time
	limit time.Duration
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if g.paused {
			g.player.Pause()
		} else {
			g.player.Play()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.player.Rewind(); err != nil {
			return err
		}
	}

	if g.limit != 0 && time.Since(g.start) >= g.limit {
		return ebiten.Termination
	}
	if !g.paused && !g.player.IsPlaying() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.paused {
		ebitenutil.DebugPrint(screen, "Paused... press SPACE")
		return
	}
	position, row := g.p.Position()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Playing %s...\nposition %03d/%03d row %02d\n\nSPACE pause, R rewind, ESC quit",
		g.title, position, g.p.numPositions, row))
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}
