// Package prefs keeps the CCTV overlay toggles in a key/value preferences
// store and fans out every change to the operator's other open consoles.
package prefs

import "errors"

// Keys are stored verbatim; values are the strings "true" and "false".
const (
	KeyShowCCTV      = "cctv-show-cctv"
	KeyShowViewAngle = "cctv-show-view-angle"
	KeyShowName      = "cctv-show-name"
)

var OverlayKeys = []string{KeyShowCCTV, KeyShowViewAngle, KeyShowName}

var (
	ErrUnknownKey   = errors.New("unknown preference key")
	ErrInvalidValue = errors.New(`preference value must be "true" or "false"`)
)

// Overlay is the three map-overlay flags.
type Overlay struct {
	ShowCCTV      bool `json:"show_cctv"`
	ShowViewAngle bool `json:"show_view_angle"`
	ShowName      bool `json:"show_name"`
}

// SetMaster turns the icon layer on or off and forces both sub-flags to match.
func (o *Overlay) SetMaster(on bool) {
	o.ShowCCTV = on
	o.ShowViewAngle = on
	o.ShowName = on
}

func (o *Overlay) SetViewAngle(on bool) { o.ShowViewAngle = on }

func (o *Overlay) SetName(on bool) { o.ShowName = on }

// Set applies a toggle by storage key.
func (o *Overlay) Set(key string, on bool) error {
	switch key {
	case KeyShowCCTV:
		o.SetMaster(on)
	case KeyShowViewAngle:
		o.SetViewAngle(on)
	case KeyShowName:
		o.SetName(on)
	default:
		return ErrUnknownKey
	}
	return nil
}

// Values returns the storage encoding of every flag.
func (o Overlay) Values() map[string]string {
	return map[string]string{
		KeyShowCCTV:      Encode(o.ShowCCTV),
		KeyShowViewAngle: Encode(o.ShowViewAngle),
		KeyShowName:      Encode(o.ShowName),
	}
}

// assign sets a single field without the master cascade; used when hydrating.
func (o *Overlay) assign(key string, on bool) {
	switch key {
	case KeyShowCCTV:
		o.ShowCCTV = on
	case KeyShowViewAngle:
		o.ShowViewAngle = on
	case KeyShowName:
		o.ShowName = on
	}
}

func Encode(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Decode treats anything other than "true" as false. Stored values are read
// this way; incoming values go through ParseValue.
func Decode(s string) bool {
	return s == "true"
}

// ParseValue accepts only the literal strings "true" and "false".
func ParseValue(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, ErrInvalidValue
}

func IsOverlayKey(key string) bool {
	for _, k := range OverlayKeys {
		if k == key {
			return true
		}
	}
	return false
}
