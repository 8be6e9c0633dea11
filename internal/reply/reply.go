// Package reply produces the assistant's canned answers for the incident
// chat. Intent selection is an ordered list of keyword rules; the first
// rule whose predicate matches the prompt builds the reply.
package reply

import (
	"fmt"
	"strings"

	"github.com/technosupport/ts-console/internal/incidents"
)

type Intent string

const (
	IntentAnalysis    Intent = "analysis"
	IntentSuspect     Intent = "suspect"
	IntentTracking    Intent = "tracking"
	IntentBulletin    Intent = "bulletin"
	IntentRisk        Intent = "risk"
	IntentSimilar     Intent = "similar"
	IntentCCTV        Intent = "cctv"
	IntentFallback    Intent = "fallback"
	IntentNoSelection Intent = "no_selection"
)

// Reply is the generated assistant message.
type Reply struct {
	Intent             Intent   `json:"intent"`
	Text               string   `json:"text"`
	QuickActions       []string `json:"quick_actions,omitempty"`
	CCTVRecommendation bool     `json:"is_cctv_recommendation,omitempty"`
}

// Rule pairs a prompt predicate with a reply builder.
type Rule struct {
	Intent Intent
	Match  func(prompt string) bool
	Build  func(in *incidents.Incident, prompt string) Reply
}

// Contains matches when the prompt contains any of the keywords.
func Contains(keywords ...string) func(string) bool {
	return func(prompt string) bool {
		for _, k := range keywords {
			if strings.Contains(prompt, k) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is evaluated top to bottom.
var DefaultRules = []Rule{
	{IntentAnalysis, Contains("분석", "이 사건"), buildAnalysis},
	{IntentSuspect, Contains("용의자", "특징"), buildSuspect},
	{IntentTracking, Contains("추적", "경로"), buildTracking},
	{IntentBulletin, Contains("전파문", "초안"), buildBulletin},
	{IntentRisk, Contains("위험도", "재계산"), buildRisk},
	{IntentSimilar, Contains("유사", "사건"), buildSimilar},
	{IntentCCTV, Contains("cctv", "CCTV", "추천"), buildCCTV},
}

// Generator evaluates a rule list; the zero value uses DefaultRules.
type Generator struct {
	Rules []Rule
}

func (g Generator) rules() []Rule {
	if g.Rules == nil {
		return DefaultRules
	}
	return g.Rules
}

// Generate returns the reply for prompt in the context of in.
func (g Generator) Generate(in *incidents.Incident, prompt string) Reply {
	if in == nil {
		return Reply{Intent: IntentNoSelection, Text: "먼저 좌측 목록에서 사건을 선택해 주세요."}
	}
	for _, r := range g.rules() {
		if r.Match(prompt) {
			return r.Build(in, prompt)
		}
	}
	return buildFallback(in, prompt)
}

// Generate uses the default rule list.
func Generate(in *incidents.Incident, prompt string) Reply {
	return Generator{}.Generate(in, prompt)
}

// InitialInsight is the AI summary posted when an incident is selected.
func InitialInsight(in *incidents.Incident) Reply {
	if in == nil {
		return Reply{Intent: IntentNoSelection, Text: "먼저 좌측 목록에서 사건을 선택해 주세요."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[AI 요약] %s\n", in.Title)
	fmt.Fprintf(&b, "- 유형: %s (%s)\n", in.Type, incidents.DomainLabel(in.Domain))
	fmt.Fprintf(&b, "- 위치: %s\n", in.Location)
	fmt.Fprintf(&b, "- 발생: %s\n", in.OccurredAt)
	fmt.Fprintf(&b, "- 우선순위 %d점 / 위험도 %s\n", in.Priority, riskLabel(in.Risk))
	b.WriteString(in.Description)
	return Reply{
		Intent:       IntentAnalysis,
		Text:         b.String(),
		QuickActions: []string{"사건 분석", "주변 CCTV 추천", "전파문 초안 작성"},
	}
}

func riskLabel(r incidents.Risk) string {
	switch r {
	case incidents.RiskHigh:
		return "높음"
	case incidents.RiskMedium:
		return "보통"
	case incidents.RiskLow:
		return "낮음"
	}
	return string(r)
}
