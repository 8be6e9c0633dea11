package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/reply"
)

func TestTranscript_AddKeepsOrder(t *testing.T) {
	var tr Transcript
	now := time.Date(2024, 5, 12, 15, 4, 0, 0, time.Local)

	tr.Add(RoleUser, "분석해줘", now)
	tr.Add(RoleAssistant, "[사건 분석]", now, WithQuickActions("용의자 특징 정리"))

	require.Equal(t, 2, tr.Len())
	assert.Equal(t, RoleUser, tr.Messages[0].Role)
	assert.Equal(t, "15:04", tr.Messages[0].Timestamp)
	assert.Equal(t, []string{"용의자 특징 정리"}, tr.Messages[1].QuickActions)

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, last.Role)
}

func TestTranscript_IDsUniqueWithinSameMillisecond(t *testing.T) {
	var tr Transcript
	now := time.Now()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		m := tr.Add(RoleUser, "x", now)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	assert.Regexp(t, `^user-[0-9A-Z]{26}$`, tr.Messages[0].ID)
}

func TestFromReply(t *testing.T) {
	var tr Transcript
	r := reply.Reply{QuickActions: []string{"CCTV-7 (현장)"}, CCTVRecommendation: true}

	m := tr.Add(RoleAssistant, "추천", time.Now(), FromReply(r))
	assert.True(t, m.CCTVRecommendation)
	assert.Equal(t, r.QuickActions, m.QuickActions)
}

func TestTranscript_LastEmpty(t *testing.T) {
	var tr Transcript
	_, ok := tr.Last()
	assert.False(t, ok)
}
