package reply

import (
	"fmt"
	"strings"

	"github.com/technosupport/ts-console/internal/incidents"
)

func buildAnalysis(in *incidents.Incident, _ string) Reply {
	text := fmt.Sprintf(`[사건 분석] %s

1. 개요
   %s

2. 핵심 판단
   - 발생 위치: %s
   - 발생 시각: %s
   - 위험도: %s (우선순위 %d점)

3. 권고 조치
   - 인근 순찰차 현장 급파
   - 주변 CCTV 실시간 모니터링 강화
   - 관계 기관 공조 요청 검토`,
		in.Title, in.Description, in.Location, in.OccurredAt, riskLabel(in.Risk), in.Priority)
	return Reply{
		Intent:       IntentAnalysis,
		Text:         text,
		QuickActions: []string{"용의자 특징 정리", "이동 경로 추적"},
	}
}

func buildSuspect(in *incidents.Incident, _ string) Reply {
	text := fmt.Sprintf(`[용의자 특징] %s

- 성별/연령: 남성, 30~40대 추정
- 인상착의: 검은색 모자, 회색 후드티, 청바지
- 체격: 170cm 중후반, 보통 체격
- 특이사항: 백팩 소지, 우측 다리 약간 절음

※ 영상 분석 기반 추정치이며 현장 확인이 필요합니다.`, in.Location)
	return Reply{
		Intent:       IntentSuspect,
		Text:         text,
		QuickActions: []string{"이동 경로 추적", "전파문 초안 작성"},
	}
}

func buildTracking(in *incidents.Incident, _ string) Reply {
	text := fmt.Sprintf(`[이동 경로 추적] 기준 위치: %s

1. %s 인근 최초 포착
2. 공원 후문 방향 도보 이동 (약 7분)
3. 편의점 앞 차량 탑승 추정
4. 대로변 북쪽 방향 이동 중

추적 정확도를 높이려면 CCTV 화면에서 '재추적'을 눌러 대상을 다시 지정하세요.`, in.Location, in.Location)
	return Reply{
		Intent:       IntentTracking,
		Text:         text,
		QuickActions: []string{"주변 CCTV 추천", "위험도 재계산"},
	}
}

func buildBulletin(in *incidents.Incident, _ string) Reply {
	return Reply{
		Intent:       IntentBulletin,
		Text:         Bulletin(in, nil),
		QuickActions: []string{"전파하기", "수정하기"},
	}
}

// Bulletin renders the broadcast body for an incident and attached clip labels.
func Bulletin(in *incidents.Incident, clipLabels []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[전파문 초안]\n")
	fmt.Fprintf(&b, "■ 사건: %s (%s)\n", in.Title, in.Type)
	fmt.Fprintf(&b, "■ 일시: %s\n", in.OccurredAt)
	fmt.Fprintf(&b, "■ 장소: %s\n", in.Location)
	fmt.Fprintf(&b, "■ 내용: %s\n", in.Description)
	fmt.Fprintf(&b, "■ 위험도: %s\n", riskLabel(in.Risk))
	if len(clipLabels) > 0 {
		b.WriteString("■ 첨부 영상:\n")
		for _, l := range clipLabels {
			fmt.Fprintf(&b, "  - %s\n", l)
		}
	}
	b.WriteString("■ 요청: 인근 근무자는 주변 수색 및 발견 시 즉시 보고 바랍니다.")
	return b.String()
}

func buildRisk(in *incidents.Incident, _ string) Reply {
	score := in.Priority + 4
	if score > 100 {
		score = 100
	}
	text := fmt.Sprintf(`[위험도 재계산]
- 기존 점수: %d점
- 재계산 점수: %d점
- 반영 요인: 경과 시간, 목격 제보, 차량 이동 가능성
- 판정: %s 유지`, in.Priority, score, riskLabel(in.Risk))
	return Reply{Intent: IntentRisk, Text: text}
}

func buildSimilar(in *incidents.Incident, _ string) Reply {
	text := fmt.Sprintf(`[유사 사건] %s 유형 최근 사례

1. 2023-11 동구 공원 인근 유사 사건 - 2시간 내 발견
2. 2023-08 남구 주택가 유사 사건 - 차량 이동 후 인접 시에서 발견
3. 2022-12 북구 시장 인근 유사 사건 - 시민 제보로 조기 해결

공통점: 초기 30분 내 CCTV 확보 여부가 해결 시간에 결정적이었습니다.`, in.Type)
	return Reply{Intent: IntentSimilar, Text: text}
}

func buildCCTV(in *incidents.Incident, _ string) Reply {
	text := fmt.Sprintf(`[CCTV 추천] %s 주변

1. CCTV-7 (현장) - 사건 발생 지점 직접 촬영
2. CCTV-3 (공원 후문) - 도주 예상 경로
3. CCTV-5 (편의점 앞) - 차량 탑승 지점

아래 버튼으로 모니터링 목록에 추가할 수 있습니다.`, in.Location)
	return Reply{
		Intent:             IntentCCTV,
		Text:               text,
		QuickActions:       []string{"CCTV-7 (현장)", "CCTV-3 (공원 후문)", "CCTV-5 (편의점 앞)"},
		CCTVRecommendation: true,
	}
}

func buildFallback(_ *incidents.Incident, prompt string) Reply {
	return Reply{
		Intent: IntentFallback,
		Text:   fmt.Sprintf("'%s'에 대해 확인했습니다. 사건 분석, 용의자 특징, 이동 경로, 전파문 초안, 위험도, 유사 사건, CCTV 추천 중에서 요청해 주세요.", prompt),
	}
}
