package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/popup"
)

func TestDefault_QWERTimelineFilters(t *testing.T) {
	s := Default()
	p := NewProgress()

	for _, key := range []string{"q", "w", "e", "r"} {
		_, err := s.Apply(&p, key, Guard{})
		require.NoError(t, err, key)
	}

	assert.Equal(t, StateR, p.State)
	assert.Equal(t, []string{"놀이터 목격", "시민 제보", "차량 탑승", "추격"}, p.Flags.TimelineFilters)
	assert.True(t, p.Flags.ShowDetectedClips)
	assert.True(t, p.Flags.PinVisible("pursuit"))
	assert.False(t, p.Flags.PinVisible("sighting"))
}

func TestApply_WOpensNotificationPopup(t *testing.T) {
	s := Default()
	p := NewProgress()

	_, err := s.Apply(&p, "q", Guard{})
	require.NoError(t, err)
	st, err := s.Apply(&p, "w", Guard{})
	require.NoError(t, err)
	assert.Equal(t, popup.KindNotification, st.Patch.OpenPopup)
}

func TestApply_OutOfOrderAndRepeat(t *testing.T) {
	s := Default()
	p := NewProgress()

	_, err := s.Apply(&p, "e", Guard{})
	assert.ErrorIs(t, err, ErrNoTransition)
	assert.Equal(t, StateInitial, p.State)

	_, err = s.Apply(&p, "q", Guard{})
	require.NoError(t, err)
	_, err = s.Apply(&p, "q", Guard{})
	assert.ErrorIs(t, err, ErrNoTransition)
	assert.Equal(t, []string{"놀이터 목격"}, p.Flags.TimelineFilters)
}

func TestApply_Guarded(t *testing.T) {
	s := Default()
	p := NewProgress()

	_, err := s.Apply(&p, "q", Guard{AnyPopupOpen: true})
	assert.ErrorIs(t, err, ErrGuarded)
	_, err = s.Apply(&p, "q", Guard{InTextField: true})
	assert.ErrorIs(t, err, ErrGuarded)
	assert.Equal(t, StateInitial, p.State)
	assert.Empty(t, p.Flags.TimelineFilters)
}

func TestRetrack(t *testing.T) {
	s := Default()
	p := NewProgress()

	assert.ErrorIs(t, s.CompleteRetrack(&p), ErrNotRetracking)

	p.RequestRetrack()
	require.NoError(t, s.CompleteRetrack(&p))
	assert.True(t, p.Flags.PinVisible("tracking"))
	assert.True(t, p.Flags.VehicleAnalysis)
	assert.False(t, p.Flags.RetrackPending)
}

func TestReset(t *testing.T) {
	s := Default()
	p := NewProgress()
	_, err := s.Apply(&p, "q", Guard{})
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, StateInitial, p.State)
	assert.Empty(t, p.Flags.TimelineFilters)
	assert.Empty(t, p.Flags.Pins)
}

func TestParseScript_Validation(t *testing.T) {
	_, err := ParseScript([]byte("steps:\n  - trigger: q\n    from: initial\n"))
	assert.Error(t, err)

	_, err = ParseScript([]byte(`steps:
  - {trigger: q, from: initial, to: q}
  - {trigger: q, from: initial, to: w}
`))
	assert.ErrorContains(t, err, "duplicate transition")

	_, err = ParseScript([]byte(`steps:
  - {trigger: q, from: initial, to: q, patch: {open_popup: modal}}
`))
	assert.ErrorContains(t, err, "unknown popup")

	s, err := ParseScript([]byte(`steps:
  - {trigger: x, from: initial, to: a}
  - {trigger: y, from: a, to: b}
  - {trigger: x, from: b, to: c}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, s.Triggers())
}
