package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quasilyte/amigamod"
	"github.com/quasilyte/amigamod/modfile"
)

// This simple CLI tool plays the specified MOD track
// through one of the supported audio backends or renders it into a WAV file.

var (
	flagHelp       = flag.Bool("help", false, "print usage and exit")
	flagAbout      = flag.Bool("about", false, "print the module info and exit")
	flagBackend    = flag.String("backend", "oto", "audio output: oto, ebiten or portaudio")
	flagWAVOut     = flag.String("wav", "", "render the song into the WAV file instead of playing it")
	flagRate       = flag.Int("rate", 48000, "output sample rate")
	flagVolume     = flag.Float64("volume", 0.66, "master volume in [0, 1]")
	flagSeparation = flag.Float64("separation", 0.5, "stereo separation in [-1, 1]")
	flagStart      = flag.Int("start", 0, "starting song position")
	flagDuration   = flag.Duration("duration", 0, "stop after this much time; play the song once if 0")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modplay: ")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: modplay [flags] path/to/music.mod\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *flagHelp {
		flag.Usage()
		return
	}
	if len(flag.Args()) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	data, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("read MOD file: %v", err)
	}
	m, err := parseModule(data)
	if err != nil {
		log.Fatalf("parsing MOD file: %v", err)
	}

	if *flagAbout {
		printAbout(m)
		return
	}

	s := amigamod.NewStream()
	s.SetVolume(*flagVolume)
	s.SetSeparation(*flagSeparation)
	// Without a time limit the song is played just once.
	s.SetLooping(*flagDuration != 0)
	if err := s.LoadModule(m, amigamod.LoadModuleConfig{SampleRate: uint(*flagRate)}); err != nil {
		log.Fatalf("compiling MOD module: %v", err)
	}
	if *flagStart != 0 {
		if err := s.SeekPosition(*flagStart); err != nil {
			log.Fatal(err)
		}
	}

	if *flagWAVOut != "" {
		if err := renderWAV(*flagWAVOut, s, *flagRate, *flagDuration); err != nil {
			log.Fatal(err)
		}
		return
	}

	p := newPlayback(s, *flagDuration != 0)
	title := m.Name
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	switch *flagBackend {
	case "oto":
		err = playOto(p, *flagRate, *flagDuration)
	case "ebiten":
		err = playEbiten(p, title, *flagRate, *flagDuration)
	case "portaudio":
		err = playPortAudio(p, *flagRate, *flagDuration)
	default:
		err = fmt.Errorf("unknown backend %q", *flagBackend)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// parseModule decodes the file contents.
// Many ripped modules have the last sample cut short, these are accepted.
func parseModule(data []byte) (*modfile.Module, error) {
	parser := modfile.NewParser(modfile.ParserConfig{
		NeedStrings:       true,
		AllowShortSamples: true,
	})
	return parser.ParseFromBytes(data)
}

func printAbout(m *modfile.Module) {
	fmt.Printf("title:     %q\n", m.Name)
	fmt.Printf("signature: %s\n", m.Signature)
	fmt.Printf("positions: %d\n", m.SongLength)
	fmt.Printf("patterns:  %d\n", len(m.Patterns))
	for i, smp := range m.Samples {
		if i == 0 || smp.Length == 0 {
			continue
		}
		loop := ""
		if smp.HasLoop() {
			loop = fmt.Sprintf(" loop=%d+%d", 2*int(smp.LoopStart), 2*int(smp.LoopLength))
		}
		fmt.Printf("  %2d %-24q len=%d vol=%d finetune=%d%s\n",
			i, smp.Name, 2*int(smp.Length), smp.Volume, smp.Finetune, loop)
	}
}

// waitPlayback blocks until the song is over or the time limit is reached.
// done reports whether the device has drained the stream.
func waitPlayback(p *playback, limit time.Duration, done func() bool) {
	status := newStatusLine(os.Stderr)
	defer status.finish()

	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if limit != 0 && time.Since(start) >= limit {
			return
		}
		if done() {
			return
		}
		position, row := p.Position()
		status.update(position, row, p.numPositions)
	}
}
