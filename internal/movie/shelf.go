package movie

import (
	"context"
	"errors"
	"sync"
)

// ErrStaleRefresh is returned when a refresh finished after a newer one
// already replaced the list; its results are discarded.
var ErrStaleRefresh = errors.New("movie: refresh superseded by a newer one")

// FetchFunc produces the next card list for a shelf.
type FetchFunc func(ctx context.Context) ([]DisplayMovie, error)

// Shelf owns one rendered card list and its slider. Concurrent refreshes are
// resolved with a generation counter: only the most recently started refresh
// may publish its result, so a slow stale response never overwrites a newer
// list. The slider re-initializes whenever the list changes.
type Shelf struct {
	mu         sync.Mutex
	gen        uint64
	cardWidth  int
	frameWidth int
	movies     []DisplayMovie
	slider     SliderState
}

func NewShelf(frameWidth, cardWidth int) *Shelf {
	return &Shelf{
		frameWidth: frameWidth,
		cardWidth:  cardWidth,
		slider:     NewSliderState(0, frameWidth),
	}
}

// Refresh fetches a new card list and installs it unless a newer refresh
// started in the meantime.
func (s *Shelf) Refresh(ctx context.Context, fetch FetchFunc) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	movies, err := fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStaleRefresh
	}
	s.movies = movies
	s.slider = NewSliderState(len(movies)*s.cardWidth, s.frameWidth)
	return nil
}

// Movies returns a copy of the current card list.
func (s *Shelf) Movies() []DisplayMovie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DisplayMovie(nil), s.movies...)
}

// Slider returns the current slider state.
func (s *Shelf) Slider() SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slider
}

// Advance moves the slider and returns the new state.
func (s *Shelf) Advance(dir Direction) SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slider.Advance(dir)
	return s.slider
}

// Resize re-measures the slider frame, resetting the offset.
func (s *Shelf) Resize(frameWidth int) SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameWidth = frameWidth
	s.slider.Resize(len(s.movies)*s.cardWidth, frameWidth)
	return s.slider
}
