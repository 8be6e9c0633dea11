package broadcast

import (
	"github.com/technosupport/ts-console/internal/clips"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/reply"
)

// Draft collects the clips and text of a bulletin before it is sent.
type Draft struct {
	IncidentID string     `json:"incident_id,omitempty"`
	Clips      clips.List `json:"clips"`
	Text       string     `json:"text"`
}

// Compose fills Text from the bulletin template for in and the current clips.
// Without an incident the draft is left unchanged.
func (d *Draft) Compose(in *incidents.Incident) string {
	if in == nil {
		return d.Text
	}
	d.IncidentID = in.ID
	d.Text = reply.Bulletin(in, d.Clips.Labels())
	return d.Text
}

func (d *Draft) Empty() bool {
	return d.Text == "" && d.Clips.Len() == 0
}

func (d *Draft) Clear() {
	*d = Draft{}
}
