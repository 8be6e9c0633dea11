// Package keys maps keyboard events from a console client onto console
// commands. Which commands are reachable depends on the active popup.
package keys

import (
	"strings"

	"github.com/technosupport/ts-console/internal/playback"
	"github.com/technosupport/ts-console/internal/popup"
	"github.com/technosupport/ts-console/internal/ptz"
)

type Event struct {
	Key         string `json:"key"`
	Ctrl        bool   `json:"ctrl,omitempty"`
	Meta        bool   `json:"meta,omitempty"`
	InTextField bool   `json:"in_text_field,omitempty"`
}

type Action string

const (
	ActionNone       Action = ""
	ActionScenario   Action = "scenario"
	ActionOpenPopup  Action = "open_popup"
	ActionClosePopup Action = "close_popup"
	ActionPTZMove    Action = "ptz_move"
	ActionPTZZoom    Action = "ptz_zoom"
	ActionPTZPreset  Action = "ptz_preset"
	ActionTogglePlay Action = "toggle_play"
	ActionSeek       Action = "seek"
)

type Command struct {
	Action    Action        `json:"action"`
	Trigger   string        `json:"trigger,omitempty"`
	Popup     popup.Kind    `json:"popup,omitempty"`
	Direction ptz.Direction `json:"direction,omitempty"`
	Zoom      float64       `json:"zoom,omitempty"`
	Preset    int           `json:"preset,omitempty"`
	Seek      int           `json:"seek,omitempty"`
}

var scenarioKeys = map[string]bool{"q": true, "w": true, "e": true, "r": true}

var popupKeys = map[string]popup.Kind{
	"0": popup.KindTest,
	"9": popup.KindNotification,
}

var moveKeys = map[string]ptz.Direction{
	"ArrowUp":    ptz.Up,
	"ArrowDown":  ptz.Down,
	"ArrowLeft":  ptz.Left,
	"ArrowRight": ptz.Right,
	"w":          ptz.Up,
	"s":          ptz.Down,
	"a":          ptz.Left,
	"d":          ptz.Right,
}

var zoomKeys = map[string]float64{
	"+":        1,
	"=":        1,
	"PageUp":   1,
	"-":        -1,
	"PageDown": -1,
}

// Resolve returns the command for ev given the currently active popup
// ("" when none is open).
func Resolve(ev Event, active popup.Kind) Command {
	if ev.InTextField {
		return Command{}
	}
	key := ev.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}

	if key == "Escape" {
		if active == "" {
			return Command{}
		}
		return Command{Action: ActionClosePopup, Popup: active}
	}

	switch active {
	case "":
		if ev.Ctrl || ev.Meta {
			return Command{}
		}
		if scenarioKeys[key] {
			return Command{Action: ActionScenario, Trigger: key}
		}
		if k, ok := popupKeys[key]; ok {
			return Command{Action: ActionOpenPopup, Popup: k}
		}
	case popup.KindCCTV:
		if ev.Ctrl || ev.Meta {
			if n := digit(key); n >= ptz.MinPreset && n <= ptz.MaxPreset {
				return Command{Action: ActionPTZPreset, Preset: n}
			}
			return Command{}
		}
		if d, ok := moveKeys[key]; ok {
			return Command{Action: ActionPTZMove, Direction: d}
		}
		if z, ok := zoomKeys[key]; ok {
			return Command{Action: ActionPTZZoom, Zoom: z}
		}
		if key == " " || key == "Space" {
			return Command{Action: ActionTogglePlay}
		}
	case popup.KindCombined, popup.KindDetectedClip:
		switch key {
		case " ", "Space":
			return Command{Action: ActionTogglePlay}
		case "ArrowLeft":
			return Command{Action: ActionSeek, Seek: -playback.DefaultStep}
		case "ArrowRight":
			return Command{Action: ActionSeek, Seek: playback.DefaultStep}
		}
	}
	return Command{}
}

func digit(key string) int {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return -1
	}
	return int(key[0] - '0')
}
