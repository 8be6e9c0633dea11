// Package ptz simulates pan/tilt/zoom control for a CCTV popup. No camera is
// driven; the position is state only.
package ptz

import (
	"errors"
	"fmt"
)

const (
	PanMin, PanMax   = -180.0, 180.0
	TiltMin, TiltMax = -90.0, 90.0
	ZoomMin, ZoomMax = 1.0, 20.0

	DefaultPanStep  = 5.0
	DefaultTiltStep = 5.0
	DefaultZoomStep = 1.0

	MinPreset = 1
	MaxPreset = 9
)

var (
	ErrInvalidDirection = errors.New("invalid ptz direction")
	ErrInvalidPreset    = errors.New("preset must be between 1 and 9")
	ErrPresetNotSet     = errors.New("preset not saved")
)

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

type Position struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// Home is the position a freshly opened camera starts at.
var Home = Position{Zoom: ZoomMin}

type Controller struct {
	Position Position         `json:"position"`
	Presets  map[int]Position `json:"presets,omitempty"`
}

func New() *Controller {
	return &Controller{Position: Home}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func (c *Controller) Move(d Direction) (Position, error) {
	p := c.Position
	switch d {
	case Up:
		p.Tilt += DefaultTiltStep
	case Down:
		p.Tilt -= DefaultTiltStep
	case Left:
		p.Pan -= DefaultPanStep
	case Right:
		p.Pan += DefaultPanStep
	default:
		return c.Position, fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}
	p.Pan = clamp(p.Pan, PanMin, PanMax)
	p.Tilt = clamp(p.Tilt, TiltMin, TiltMax)
	c.Position = p
	return p, nil
}

// Zoom adds delta steps and clamps to [ZoomMin, ZoomMax].
func (c *Controller) Zoom(delta float64) Position {
	c.Position.Zoom = clamp(c.Position.Zoom+delta*DefaultZoomStep, ZoomMin, ZoomMax)
	return c.Position
}

func validPreset(n int) error {
	if n < MinPreset || n > MaxPreset {
		return fmt.Errorf("%w: %d", ErrInvalidPreset, n)
	}
	return nil
}

func (c *Controller) SavePreset(n int) error {
	if err := validPreset(n); err != nil {
		return err
	}
	if c.Presets == nil {
		c.Presets = make(map[int]Position)
	}
	c.Presets[n] = c.Position
	return nil
}

func (c *Controller) GotoPreset(n int) (Position, error) {
	if err := validPreset(n); err != nil {
		return c.Position, err
	}
	p, ok := c.Presets[n]
	if !ok {
		return c.Position, fmt.Errorf("%w: %d", ErrPresetNotSet, n)
	}
	c.Position = p
	return p, nil
}

func (c *Controller) Reset() {
	c.Position = Home
}
