// Package audio plays level music: tracks are decoded into memory ahead of
// time and mixed into a single stream the host feeds to its sound device.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/spf13/afero"
)

// SampleRate is the rate of the mixed output.
const SampleRate = beep.SampleRate(44100)

// ErrNotLoaded is returned by Play for a track that was not preloaded.
var ErrNotLoaded = errors.New("track not preloaded")

// Player buffers level music and mixes the playing track. It is safe for
// concurrent use: the sound device reads Stream on its own goroutine.
type Player struct {
	mu      sync.Mutex
	fs      afero.Fs
	log     *slog.Logger
	mixer   *beep.Mixer
	buffers map[string]*beep.Buffer
	order   []string
	current *fader
	playing string
}

// NewPlayer creates a player reading tracks from fs.
func NewPlayer(fs afero.Fs, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		fs:      fs,
		log:     logger,
		mixer:   &beep.Mixer{},
		buffers: make(map[string]*beep.Buffer),
	}
}

// Preload decodes tracks into memory, dropping buffers of earlier levels.
// Tracks that cannot be decoded are skipped.
func (p *Player) Preload(tracks []string) {
	buffers := make(map[string]*beep.Buffer, len(tracks))
	var order []string
	for _, t := range tracks {
		if _, ok := buffers[t]; ok {
			continue
		}
		buf, err := p.decode(t)
		if err != nil {
			p.log.Warn("audio: preload failed", "track", t, "error", err)
			continue
		}
		buffers[t] = buf
		order = append(order, t)
	}

	p.mu.Lock()
	p.buffers, p.order = buffers, order
	p.mu.Unlock()
	p.log.Debug("audio: preloaded", "tracks", len(order))
}

func (p *Player) decode(track string) (*beep.Buffer, error) {
	f, err := p.fs.Open(track)
	if err != nil {
		return nil, err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", track, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != SampleRate {
		src = beep.Resample(4, format.SampleRate, SampleRate, s)
		format.SampleRate = SampleRate
	}
	buf := beep.NewBuffer(format)
	buf.Append(src)
	return buf, nil
}

// Tracks returns the preloaded tracks in preload order.
func (p *Player) Tracks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

// Play stops the current track and starts track from the beginning.
func (p *Player) Play(track string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf, ok := p.buffers[track]
	if !ok {
		return fmt.Errorf("%s: %w", track, ErrNotLoaded)
	}
	if p.current != nil {
		p.current.stop()
	}
	p.current = &fader{streamer: buf.Streamer(0, buf.Len()), gain: 1}
	p.playing = track
	p.mixer.Add(p.current)
	return nil
}

// Playing returns the track started last, or "" after a fade.
func (p *Player) Playing() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// FadeOut ramps the current track down to silence over d and then drops
// it. A non-positive d stops it at once.
func (p *Player) FadeOut(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	p.current.fadeOver(SampleRate.N(d))
	p.current, p.playing = nil, ""
}

// Stream mixes the playing tracks into samples. Silence is produced when
// nothing plays.
func (p *Player) Stream(samples [][2]float64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mixer.Len() == 0 {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}
	return p.mixer.Stream(samples)
}

// Err implements beep.Streamer.
func (p *Player) Err() error { return nil }

// fader scales a streamer by a gain that ramps linearly to zero once a fade
// starts.
type fader struct {
	streamer beep.Streamer
	gain     float64
	step     float64
	done     bool
}

func (f *fader) fadeOver(n int) {
	if n <= 0 {
		f.stop()
		return
	}
	f.step = f.gain / float64(n)
}

func (f *fader) stop() {
	f.done = true
}

func (f *fader) Stream(samples [][2]float64) (int, bool) {
	if f.done {
		return 0, false
	}
	n, ok := f.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] *= f.gain
		samples[i][1] *= f.gain
		if f.step > 0 {
			f.gain -= f.step
			if f.gain <= 0 {
				f.gain = 0
				f.done = true
				for j := i + 1; j < n; j++ {
					samples[j] = [2]float64{}
				}
				return n, true
			}
		}
	}
	return n, ok
}

func (f *fader) Err() error { return f.streamer.Err() }
