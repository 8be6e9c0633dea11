package ptz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_ClampsToRange(t *testing.T) {
	c := New()
	for i := 0; i < 100; i++ {
		_, err := c.Move(Right)
		require.NoError(t, err)
		_, err = c.Move(Up)
		require.NoError(t, err)
	}
	assert.Equal(t, PanMax, c.Position.Pan)
	assert.Equal(t, TiltMax, c.Position.Tilt)

	for i := 0; i < 200; i++ {
		c.Move(Left)
		c.Move(Down)
	}
	assert.Equal(t, PanMin, c.Position.Pan)
	assert.Equal(t, TiltMin, c.Position.Tilt)

	_, err := c.Move("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestZoom(t *testing.T) {
	c := New()
	assert.Equal(t, 3.0, c.Zoom(2).Zoom)
	assert.Equal(t, ZoomMin, c.Zoom(-10).Zoom)
	assert.Equal(t, ZoomMax, c.Zoom(50).Zoom)
}

func TestPresets(t *testing.T) {
	c := New()
	c.Move(Right)
	c.Zoom(4)
	require.NoError(t, c.SavePreset(3))
	saved := c.Position

	c.Reset()
	assert.Equal(t, Home, c.Position)

	p, err := c.GotoPreset(3)
	require.NoError(t, err)
	assert.Equal(t, saved, p)

	_, err = c.GotoPreset(4)
	assert.ErrorIs(t, err, ErrPresetNotSet)
	assert.ErrorIs(t, c.SavePreset(0), ErrInvalidPreset)
	_, err = c.GotoPreset(10)
	assert.ErrorIs(t, err, ErrInvalidPreset)
}
