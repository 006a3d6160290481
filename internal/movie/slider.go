package movie

// Direction of one slider advance.
type Direction int

const (
	Back    Direction = -1
	Forward Direction = 1
)

// SliderState is the horizontal windowing state over a rendered card list.
// OffsetPx stays within [-(ContentWidth-FrameWidth), 0]; when the content
// fits inside the frame the offset is forced to 0 and both controls hide.
type SliderState struct {
	OffsetPx     int `json:"offsetPx"`
	ContentWidth int `json:"contentWidth"`
	FrameWidth   int `json:"frameWidth"`
}

func NewSliderState(contentWidth, frameWidth int) SliderState {
	s := SliderState{ContentWidth: contentWidth, FrameWidth: frameWidth}
	s.clamp()
	return s
}

// Advance shifts the window by exactly one frame width and clamps.
func (s *SliderState) Advance(dir Direction) {
	switch dir {
	case Forward:
		s.OffsetPx -= s.FrameWidth
	case Back:
		s.OffsetPx += s.FrameWidth
	}
	s.clamp()
}

// Resize re-measures the slider. The offset resets to 0; no attempt is made
// to preserve the relative scroll position.
func (s *SliderState) Resize(contentWidth, frameWidth int) {
	s.ContentWidth = contentWidth
	s.FrameWidth = frameWidth
	s.OffsetPx = 0
	s.clamp()
}

// BackHidden reports whether the back control should be hidden.
func (s SliderState) BackHidden() bool { return s.OffsetPx == 0 }

// ForwardHidden reports whether the forward control should be hidden.
func (s SliderState) ForwardHidden() bool {
	max := s.maxOffset()
	return max <= 0 || s.OffsetPx <= -max
}

func (s *SliderState) clamp() {
	max := s.maxOffset()
	if max <= 0 {
		s.OffsetPx = 0
		return
	}
	if s.OffsetPx > 0 {
		s.OffsetPx = 0
	}
	if s.OffsetPx < -max {
		s.OffsetPx = -max
	}
}

func (s SliderState) maxOffset() int { return s.ContentWidth - s.FrameWidth }
