package incidents

import (
	"context"
	"errors"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrCameraNotFound   = errors.New("camera not found")
)

// Domain is the one-letter category tag partitioning incidents.
type Domain string

const (
	DomainCrime      Domain = "A"
	DomainFire       Domain = "B"
	DomainVulnerable Domain = "C"
	DomainAIBehavior Domain = "D"
	DomainTraffic    Domain = "E"
	DomainOther      Domain = "F"
)

var domainLabels = map[Domain]string{
	DomainCrime:      "범죄",
	DomainFire:       "화재·재난",
	DomainVulnerable: "취약계층",
	DomainAIBehavior: "AI 행동감지",
	DomainTraffic:    "교통",
	DomainOther:      "기타",
}

// DomainLabel returns the display label, or the raw tag when unknown.
func DomainLabel(d Domain) string {
	if l, ok := domainLabels[d]; ok {
		return l
	}
	return string(d)
}

// Valid reports whether d is one of the six known tags.
func (d Domain) Valid() bool {
	_, ok := domainLabels[d]
	return ok
}

type Risk string

const (
	RiskHigh   Risk = "HIGH"
	RiskMedium Risk = "MEDIUM"
	RiskLow    Risk = "LOW"
)

type Status string

const (
	StatusUrgent     Status = "URGENT"
	StatusActive     Status = "ACTIVE"
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
)

// Incident is a read-only record seeded at build time.
type Incident struct {
	ID          string `json:"id" yaml:"id"`
	Domain      Domain `json:"domain" yaml:"domain"`
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Location    string `json:"location" yaml:"location"`
	OccurredAt  string `json:"occurred_at" yaml:"occurred_at"`
	Priority    int    `json:"priority" yaml:"priority"`
	Risk        Risk   `json:"risk" yaml:"risk"`
	Status      Status `json:"status" yaml:"status"`
}

// Camera is CCTV metadata shown in popups and the monitoring panel.
type Camera struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Location  string  `json:"location" yaml:"location"`
	Thumbnail string  `json:"thumbnail" yaml:"thumbnail"`
	X         float64 `json:"x" yaml:"x"` // map position, percent
	Y         float64 `json:"y" yaml:"y"`
}

type TimelineEntry struct {
	IncidentID string `json:"incident_id" yaml:"incident_id"`
	Time       string `json:"time" yaml:"time"`
	Label      string `json:"label" yaml:"label"`
	Detail     string `json:"detail" yaml:"detail"`
	CameraID   string `json:"camera_id,omitempty" yaml:"camera_id"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Domain Domain
	Status Status
	Risk   Risk
}

func (f Filter) Match(in *Incident) bool {
	if f.Domain != "" && in.Domain != f.Domain {
		return false
	}
	if f.Status != "" && in.Status != f.Status {
		return false
	}
	if f.Risk != "" && in.Risk != f.Risk {
		return false
	}
	return true
}

// Repository is the read side used by the console and the API.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Incident, error)
	Get(ctx context.Context, id string) (*Incident, error)
}
