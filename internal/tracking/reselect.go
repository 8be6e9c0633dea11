package tracking

import "errors"

var (
	ErrNotReselecting     = errors.New("tracking reselection not in progress")
	ErrAlreadyReselecting = errors.New("tracking reselection already in progress")
	ErrEmptyFrame         = errors.New("frame has no area")
)

// Rect is the displayed frame in client pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is the tracking rectangle position as a percentage of the frame.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultBox centres the rectangle.
var DefaultBox = Box{X: 50, Y: 50}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BoxAt maps client coordinates onto the frame, clamped to [0,100] on both axes.
func BoxAt(clientX, clientY float64, frame Rect) (Box, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return Box{}, ErrEmptyFrame
	}
	return Box{
		X: clamp((clientX-frame.Left)/frame.Width*100, 0, 100),
		Y: clamp((clientY-frame.Top)/frame.Height*100, 0, 100),
	}, nil
}

// Reselect is the "재추적" protocol shared by the CCTV, combined and
// detected-clip popups: Begin enters drag mode, Drag moves the box, Finish
// ("재선택 완료") leaves drag mode and hands back the final box.
type Reselect struct {
	Dragging bool `json:"dragging"`
	Box      Box  `json:"box"`
}

func (r *Reselect) Begin() error {
	if r.Dragging {
		return ErrAlreadyReselecting
	}
	r.Dragging = true
	if r.Box == (Box{}) {
		r.Box = DefaultBox
	}
	return nil
}

func (r *Reselect) Drag(clientX, clientY float64, frame Rect) (Box, error) {
	if !r.Dragging {
		return Box{}, ErrNotReselecting
	}
	b, err := BoxAt(clientX, clientY, frame)
	if err != nil {
		return Box{}, err
	}
	r.Box = b
	return b, nil
}

func (r *Reselect) Finish() (Box, error) {
	if !r.Dragging {
		return Box{}, ErrNotReselecting
	}
	r.Dragging = false
	return r.Box, nil
}
