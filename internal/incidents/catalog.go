package incidents

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixturesFS embed.FS

// FallbackThumbnail is served when a camera has no known image.
const FallbackThumbnail = "/images/cctv/fallback.jpg"

type fixtureFile struct {
	Incidents []*Incident      `yaml:"incidents"`
	Cameras   []*Camera        `yaml:"cameras"`
	Timeline  []*TimelineEntry `yaml:"timeline"`
}

// Catalog holds the static incident, camera and timeline tables.
type Catalog struct {
	incidents []*Incident
	byID      map[string]*Incident
	cameras   []*Camera
	camByID   map[string]*Camera
	timeline  map[string][]*TimelineEntry
}

// LoadCatalog parses the embedded fixtures.
func LoadCatalog() (*Catalog, error) {
	raw, err := fixturesFS.ReadFile("fixtures/events.yaml")
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseCatalog(raw)
}

// MustLoadCatalog panics on broken fixtures; they are compiled in.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	c := &Catalog{
		byID:     make(map[string]*Incident, len(f.Incidents)),
		camByID:  make(map[string]*Camera, len(f.Cameras)),
		timeline: make(map[string][]*TimelineEntry),
	}
	for _, in := range f.Incidents {
		if !in.Domain.Valid() {
			return nil, fmt.Errorf("incident %s: unknown domain %q", in.ID, in.Domain)
		}
		if in.Priority < 0 || in.Priority > 100 {
			return nil, fmt.Errorf("incident %s: priority %d out of range", in.ID, in.Priority)
		}
		if _, dup := c.byID[in.ID]; dup {
			return nil, fmt.Errorf("incident %s: duplicate id", in.ID)
		}
		c.byID[in.ID] = in
		c.incidents = append(c.incidents, in)
	}
	for _, cam := range f.Cameras {
		c.camByID[cam.ID] = cam
		c.cameras = append(c.cameras, cam)
	}
	for _, e := range f.Timeline {
		c.timeline[e.IncidentID] = append(c.timeline[e.IncidentID], e)
	}
	return c, nil
}

// List returns copies sorted by priority, highest first.
func (c *Catalog) List(_ context.Context, f Filter) ([]*Incident, error) {
	out := make([]*Incident, 0, len(c.incidents))
	for _, in := range c.incidents {
		if f.Match(in) {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (c *Catalog) Get(_ context.Context, id string) (*Incident, error) {
	in, ok := c.byID[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	cp := *in
	return &cp, nil
}

func (c *Catalog) Cameras() []*Camera {
	out := make([]*Camera, len(c.cameras))
	for i, cam := range c.cameras {
		cp := *cam
		out[i] = &cp
	}
	return out
}

func (c *Catalog) Camera(id string) (*Camera, error) {
	cam, ok := c.camByID[id]
	if !ok {
		return nil, ErrCameraNotFound
	}
	cp := *cam
	return &cp, nil
}

// Thumbnail resolves the image path for a camera id.
func (c *Catalog) Thumbnail(cameraID string) string {
	if cam, ok := c.camByID[cameraID]; ok && cam.Thumbnail != "" {
		return cam.Thumbnail
	}
	return FallbackThumbnail
}

func (c *Catalog) Timeline(incidentID string) []*TimelineEntry {
	return c.timeline[incidentID]
}

// All returns every incident in fixture order; used to seed SQL stores.
func (c *Catalog) All() []*Incident {
	return c.incidents
}
