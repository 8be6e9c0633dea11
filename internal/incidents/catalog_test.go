package incidents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/incidents"
)

func TestLoadCatalog(t *testing.T) {
	c, err := incidents.LoadCatalog()
	require.NoError(t, err)

	all, err := c.List(context.Background(), incidents.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Priority, all[i].Priority, "sorted by priority desc")
	}
}

func TestCatalog_Filter(t *testing.T) {
	c := incidents.MustLoadCatalog()
	ctx := context.Background()

	vuln, err := c.List(ctx, incidents.Filter{Domain: incidents.DomainVulnerable})
	require.NoError(t, err)
	require.NotEmpty(t, vuln)
	for _, in := range vuln {
		assert.Equal(t, incidents.DomainVulnerable, in.Domain)
	}

	urgentHigh, err := c.List(ctx, incidents.Filter{Status: incidents.StatusUrgent, Risk: incidents.RiskHigh})
	require.NoError(t, err)
	require.Len(t, urgentHigh, 1)
	assert.Equal(t, "EVT-2401", urgentHigh[0].ID)
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := incidents.MustLoadCatalog()
	ctx := context.Background()

	in, err := c.Get(ctx, "EVT-2401")
	require.NoError(t, err)
	in.Title = "mutated"

	again, _ := c.Get(ctx, "EVT-2401")
	assert.NotEqual(t, "mutated", again.Title)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}

func TestCatalog_ThumbnailFallback(t *testing.T) {
	c := incidents.MustLoadCatalog()

	assert.Equal(t, "/images/cctv/cctv-7.jpg", c.Thumbnail("CCTV-7"))
	assert.Equal(t, incidents.FallbackThumbnail, c.Thumbnail("CCTV-12"), "empty thumbnail")
	assert.Equal(t, incidents.FallbackThumbnail, c.Thumbnail("CCTV-99"), "unknown camera")
}

func TestCatalog_Timeline(t *testing.T) {
	c := incidents.MustLoadCatalog()
	tl := c.Timeline("EVT-2401")
	require.Len(t, tl, 4)
	assert.Equal(t, "놀이터 목격", tl[0].Label)
	assert.Empty(t, c.Timeline("EVT-2408"))
}

func TestParseCatalog_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown domain", "incidents:\n  - {id: X, domain: Z, priority: 10}\n"},
		{"priority range", "incidents:\n  - {id: X, domain: A, priority: 101}\n"},
		{"duplicate id", "incidents:\n  - {id: X, domain: A}\n  - {id: X, domain: B}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := incidents.ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDomainLabel(t *testing.T) {
	assert.Equal(t, "범죄", incidents.DomainLabel(incidents.DomainCrime))
	assert.Equal(t, "Q", incidents.DomainLabel("Q"))
}
