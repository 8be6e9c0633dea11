package popup

import "errors"

var ErrUnknownPopup = errors.New("unknown popup")

type Kind string

const (
	KindCCTV         Kind = "cctv"
	KindCombined     Kind = "combined"
	KindDetectedClip Kind = "detected-clip"
	KindMap          Kind = "map"
	KindNotification Kind = "notification"
	KindTest         Kind = "test"
)

var Kinds = []Kind{KindCCTV, KindCombined, KindDetectedClip, KindMap, KindNotification, KindTest}

func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Coordinator tracks the six popup visibility flags and their selections.
//
// At most one popup is meant to be visible, but Open does not enforce it:
// callers that must not stack popups check AnyOpen first, as the keyboard
// dispatcher does.
type Coordinator struct {
	Visible    map[Kind]bool   `json:"visible"`
	Selections map[Kind]string `json:"selections"`
	Order      []Kind          `json:"order"` // open popups, oldest first
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		Visible:    make(map[Kind]bool),
		Selections: make(map[Kind]string),
	}
}

func (c *Coordinator) ensure() {
	if c.Visible == nil {
		c.Visible = make(map[Kind]bool)
	}
	if c.Selections == nil {
		c.Selections = make(map[Kind]string)
	}
}

// Open shows a popup and stores what it is showing (a camera id, a clip id).
func (c *Coordinator) Open(k Kind, selection string) error {
	if !k.Valid() {
		return ErrUnknownPopup
	}
	c.ensure()
	if c.Visible[k] {
		c.removeFromOrder(k)
	}
	c.Visible[k] = true
	c.Selections[k] = selection
	c.Order = append(c.Order, k)
	return nil
}

// Close hides a popup and clears its selection. Reports whether it was open.
func (c *Coordinator) Close(k Kind) (bool, error) {
	if !k.Valid() {
		return false, ErrUnknownPopup
	}
	c.ensure()
	wasOpen := c.Visible[k]
	delete(c.Visible, k)
	delete(c.Selections, k)
	c.removeFromOrder(k)
	return wasOpen, nil
}

func (c *Coordinator) IsOpen(k Kind) bool {
	return c.Visible[k]
}

func (c *Coordinator) Selection(k Kind) string {
	return c.Selections[k]
}

func (c *Coordinator) AnyOpen() bool {
	return len(c.Order) > 0
}

// Active is the most recently opened popup still visible.
func (c *Coordinator) Active() (Kind, bool) {
	if len(c.Order) == 0 {
		return "", false
	}
	return c.Order[len(c.Order)-1], true
}

// OpenCount exposes how many flags are set; more than one means the
// exclusivity convention was broken by a caller.
func (c *Coordinator) OpenCount() int {
	return len(c.Order)
}

func (c *Coordinator) removeFromOrder(k Kind) {
	for i, v := range c.Order {
		if v == k {
			c.Order = append(c.Order[:i], c.Order[i+1:]...)
			return
		}
	}
}
