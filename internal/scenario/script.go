package scenario

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-console/internal/popup"
)

//go:embed scripts/*.yaml
var scriptFS embed.FS

type State string

const (
	StateInitial State = "initial"
	StateQ       State = "q"
	StateW       State = "w"
	StateE       State = "e"
	StateR       State = "r"
)

// Patch is the bundle of updates a step applies to Flags.
type Patch struct {
	ShowPins          []string   `yaml:"show_pins" json:"show_pins,omitempty"`
	HidePins          []string   `yaml:"hide_pins" json:"hide_pins,omitempty"`
	AppendFilters     []string   `yaml:"append_filters" json:"append_filters,omitempty"`
	ShowDetectedClips *bool      `yaml:"show_detected_clips" json:"show_detected_clips,omitempty"`
	VehicleAnalysis   *bool      `yaml:"vehicle_analysis" json:"vehicle_analysis,omitempty"`
	OpenPopup         popup.Kind `yaml:"open_popup" json:"open_popup,omitempty"`
}

type Step struct {
	Trigger string `yaml:"trigger" json:"trigger"`
	From    State  `yaml:"from" json:"from"`
	To      State  `yaml:"to" json:"to"`
	Patch   Patch  `yaml:"patch" json:"patch"`
}

// Script is an ordered transition table plus the patch applied when the
// re-tracking progress completes.
type Script struct {
	Name    string `yaml:"name"`
	Steps   []Step `yaml:"steps"`
	Retrack Patch  `yaml:"retrack"`
}

// ParseScript decodes and validates a script document.
func ParseScript(raw []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario script: %w", err)
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, st := range s.Steps {
		if st.Trigger == "" || st.From == "" || st.To == "" {
			return nil, fmt.Errorf("scenario step %d: trigger, from and to are required", i)
		}
		k := string(st.From) + "|" + st.Trigger
		if seen[k] {
			return nil, fmt.Errorf("scenario step %d: duplicate transition %s on %q", i, st.From, st.Trigger)
		}
		seen[k] = true
		if st.Patch.OpenPopup != "" && !st.Patch.OpenPopup.Valid() {
			return nil, fmt.Errorf("scenario step %d: unknown popup %q", i, st.Patch.OpenPopup)
		}
	}
	return &s, nil
}

// LoadScript reads an embedded script by name.
func LoadScript(name string) (*Script, error) {
	raw, err := scriptFS.ReadFile("scripts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("load scenario script %s: %w", name, err)
	}
	return ParseScript(raw)
}

// Default is the embedded abduction walkthrough.
func Default() *Script {
	s, err := LoadScript("abduction")
	if err != nil {
		panic(err)
	}
	return s
}

// Triggers lists the distinct triggers in script order.
func (s *Script) Triggers() []string {
	var out []string
	seen := map[string]bool{}
	for _, st := range s.Steps {
		if !seen[st.Trigger] {
			seen[st.Trigger] = true
			out = append(out, st.Trigger)
		}
	}
	return out
}
