// Package playlist rotates through the music queued for the current level,
// either sequentially with wraparound or in random order.
package playlist

// Randomizer picks indexes for random-order playback.
type Randomizer interface {
	Intn(n int) int
}

// Playlist is the resolved music queue of the current level.
type Playlist struct {
	tracks []string
	cursor int
	random bool
	rng    Randomizer
}

// New creates an empty playlist drawing random picks from rng.
func New(rng Randomizer) *Playlist {
	return &Playlist{rng: rng}
}

// Clear empties the queue and rewinds the cursor. The order mode is kept.
func (p *Playlist) Clear() {
	p.tracks = nil
	p.cursor = 0
}

// Stop ends level music; an empty queue means no music is active.
func (p *Playlist) Stop() {
	p.Clear()
}

// Add appends a resolved track.
func (p *Playlist) Add(track string) {
	p.tracks = append(p.tracks, track)
}

// SetRandom selects random (true) or sequential (false) order.
func (p *Playlist) SetRandom(on bool) {
	p.random = on
}

// Random reports whether tracks are picked in random order.
func (p *Playlist) Random() bool {
	return p.random
}

// Rewind moves the sequential cursor back to the first track.
func (p *Playlist) Rewind() {
	p.cursor = 0
}

// Active reports whether any music is queued.
func (p *Playlist) Active() bool {
	return len(p.tracks) > 0
}

// Len returns the number of queued tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Cursor returns the index of the next sequential track.
func (p *Playlist) Cursor() int {
	return p.cursor
}

// Tracks returns a copy of the queue.
func (p *Playlist) Tracks() []string {
	out := make([]string, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Next returns the track to play next, or false when nothing is queued.
// A single track always repeats. In random order the pick replaces the
// cursor; otherwise the cursor advances and wraps to the first track.
func (p *Playlist) Next() (string, bool) {
	n := len(p.tracks)
	if n == 0 {
		return "", false
	}
	if n == 1 {
		return p.tracks[0], true
	}

	if p.random && p.rng != nil {
		p.cursor = p.rng.Intn(n)
	}
	if p.cursor < 0 || p.cursor >= n {
		p.cursor = 0
	}

	track := p.tracks[p.cursor]
	p.cursor++
	return track, true
}
