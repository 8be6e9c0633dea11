package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(RepliesTotal.WithLabelValues("analysis"))
	RepliesTotal.WithLabelValues("analysis").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RepliesTotal.WithLabelValues("analysis")))

	ActiveSessions.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(ActiveSessions))
}
