package reply_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/reply"
)

func testIncident() *incidents.Incident {
	return &incidents.Incident{
		ID:          "EVT-1",
		Domain:      incidents.DomainVulnerable,
		Type:        "아동 실종",
		Title:       "놀이터 아동 유괴 의심",
		Description: "보호자 신고 접수",
		Location:    "중앙공원 놀이터",
		OccurredAt:  "2024-05-12 15:02",
		Priority:    98,
		Risk:        incidents.RiskHigh,
		Status:      incidents.StatusUrgent,
	}
}

func TestGenerate_KeywordBranches(t *testing.T) {
	tests := []struct {
		prompt string
		want   reply.Intent
	}{
		{"분석해줘", reply.IntentAnalysis},
		{"이 사건 정리", reply.IntentAnalysis},
		{"용의자 알려줘", reply.IntentSuspect},
		{"인상 특징은?", reply.IntentSuspect},
		{"추적 시작", reply.IntentTracking},
		{"이동 경로", reply.IntentTracking},
		{"전파문 작성", reply.IntentBulletin},
		{"초안 부탁", reply.IntentBulletin},
		{"위험도는?", reply.IntentRisk},
		{"점수 재계산", reply.IntentRisk},
		{"유사 사례", reply.IntentSimilar},
		{"지난 사건", reply.IntentSimilar},
		{"cctv 보여줘", reply.IntentCCTV},
		{"CCTV 보여줘", reply.IntentCCTV},
		{"카메라 추천", reply.IntentCCTV},
		{"안녕하세요", reply.IntentFallback},
	}
	in := testIncident()
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, reply.Generate(in, tt.prompt).Intent)
		})
	}
}

func TestGenerate_PriorityOrder(t *testing.T) {
	tests := []struct {
		prompt string
		want   reply.Intent
	}{
		{"용의자 분석", reply.IntentAnalysis},
		{"용의자 추적", reply.IntentSuspect},
		{"CCTV 경로", reply.IntentTracking},
		{"추천 전파문", reply.IntentBulletin},
		{"유사 위험도", reply.IntentRisk},
		{"유사 CCTV", reply.IntentSimilar},
	}
	in := testIncident()
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, reply.Generate(in, tt.prompt).Intent)
		})
	}
}

func TestGenerate_CCTVRecommendationFlag(t *testing.T) {
	r := reply.Generate(testIncident(), "CCTV 추천")
	assert.True(t, r.CCTVRecommendation)
	assert.Contains(t, r.QuickActions, "CCTV-7 (현장)")

	r = reply.Generate(testIncident(), "분석")
	assert.False(t, r.CCTVRecommendation)
}

func TestGenerate_FallbackEchoes(t *testing.T) {
	r := reply.Generate(testIncident(), "날씨 어때")
	assert.Equal(t, reply.IntentFallback, r.Intent)
	assert.Contains(t, r.Text, "'날씨 어때'")
}

func TestGenerate_NoIncident(t *testing.T) {
	r := reply.Generate(nil, "분석")
	assert.Equal(t, reply.IntentNoSelection, r.Intent)
}

func TestGenerate_TemplatesUseIncident(t *testing.T) {
	in := testIncident()
	assert.Contains(t, reply.Generate(in, "분석").Text, in.Title)
	assert.Contains(t, reply.Generate(in, "전파문").Text, in.Location)
	assert.Contains(t, reply.Generate(in, "위험도").Text, "100점", "score capped at 100")
}

func TestGenerator_CustomRules(t *testing.T) {
	g := reply.Generator{Rules: []reply.Rule{{
		Intent: "greeting",
		Match:  reply.Contains("안녕"),
		Build: func(_ *incidents.Incident, p string) reply.Reply {
			return reply.Reply{Intent: "greeting", Text: strings.ToUpper(p)}
		},
	}}}

	assert.Equal(t, reply.Intent("greeting"), g.Generate(testIncident(), "안녕").Intent)
	assert.Equal(t, reply.IntentFallback, g.Generate(testIncident(), "분석").Intent)
}

func TestBulletin_ListsClips(t *testing.T) {
	text := reply.Bulletin(testIncident(), []string{"CCTV-7 (현장) 0:45 - 5:32"})
	assert.Contains(t, text, "첨부 영상")
	assert.Contains(t, text, "CCTV-7 (현장) 0:45 - 5:32")
}

func TestInitialInsight(t *testing.T) {
	r := reply.InitialInsight(testIncident())
	assert.Contains(t, r.Text, "취약계층")
	assert.NotEmpty(t, r.QuickActions)
}
