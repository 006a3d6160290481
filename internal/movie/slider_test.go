package movie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliderContentFitsFrame(t *testing.T) {
	s := NewSliderState(500, 500)

	assert.Equal(t, 0, s.OffsetPx)
	assert.True(t, s.BackHidden())
	assert.True(t, s.ForwardHidden())

	// Advancing must not move a slider whose content fits.
	s.Advance(Forward)
	assert.Equal(t, 0, s.OffsetPx)
	assert.True(t, s.ForwardHidden())
}

func TestSliderAdvanceClampsAtEnd(t *testing.T) {
	s := NewSliderState(1500, 500)

	assert.True(t, s.BackHidden())
	assert.False(t, s.ForwardHidden())

	s.Advance(Forward)
	assert.Equal(t, -500, s.OffsetPx)
	assert.False(t, s.BackHidden())
	assert.False(t, s.ForwardHidden())

	s.Advance(Forward)
	s.Advance(Forward) // third advance clamps at -(1500-500)
	assert.Equal(t, -1000, s.OffsetPx)
	assert.True(t, s.ForwardHidden())
	assert.False(t, s.BackHidden())
}

func TestSliderBackClampsAtStart(t *testing.T) {
	s := NewSliderState(1500, 500)
	s.Advance(Forward)

	s.Advance(Back)
	assert.Equal(t, 0, s.OffsetPx)
	assert.True(t, s.BackHidden())

	s.Advance(Back)
	assert.Equal(t, 0, s.OffsetPx)
}

func TestSliderResizeResetsOffset(t *testing.T) {
	s := NewSliderState(1500, 500)
	s.Advance(Forward)
	s.Advance(Forward)

	s.Resize(1500, 800)
	assert.Equal(t, 0, s.OffsetPx)
	assert.True(t, s.BackHidden())
	assert.False(t, s.ForwardHidden())
}
