// Package movie tracks which movie file to show before a level or at the
// end of the game.
package movie

// Selection is the movie resolved by the latest query. It is rebuilt from
// scratch by every query; the zero value holds no movie.
type Selection struct {
	file  string
	found bool
	size  float64
	sized bool
}

// Reset forgets the resolved movie and its size.
func (s *Selection) Reset() {
	*s = Selection{}
}

// Offer records a movie file that exists. Later offers replace earlier
// ones; the size is replaced only when size is non-negative.
func (s *Selection) Offer(file string, size float64) {
	s.file = file
	s.found = true
	if size >= 0 {
		s.size = size
		s.sized = true
	}
}

// Get returns the resolved movie and its relative size, falling back to def
// when no explicit size was offered. ok is false when no movie resolved.
func (s *Selection) Get(def float64) (file string, size float64, ok bool) {
	if !s.found {
		return "", def, false
	}
	if s.sized {
		return s.file, s.size, true
	}
	return s.file, def, true
}
