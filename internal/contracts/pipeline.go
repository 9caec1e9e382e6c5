package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 RunResult에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   fetch → market → dedup → score → mark → select → narrate → save → publish

// Stage represents a pipeline stage
type Stage string

const (
	// StageFetch 공시 수집
	// 위치: internal/external/dart/
	StageFetch Stage = "FETCH"

	// StageMarket 대상 시장 필터
	// 위치: internal/market/
	StageMarket Stage = "MARKET"

	// StageDedup 처리 이력 기반 중복 제거
	// 위치: internal/storage/
	StageDedup Stage = "DEDUP"

	// StageScore 이벤트/재무/지속성/신뢰도 채점
	// 위치: internal/scoring/
	StageScore Stage = "SCORE"

	// StageMark 채점 결과 원장 기록
	StageMark Stage = "MARK"

	// StageSelect 상위 1~2건 선정
	// 위치: internal/selection/
	StageSelect Stage = "SELECT"

	// StageNarrate 기사 생성 (LLM 또는 템플릿)
	// 위치: internal/narrative/
	StageNarrate Stage = "NARRATE"

	// StageSave 일자별 리포트 저장
	StageSave Stage = "SAVE"

	// StagePublish Slack 전송
	// 위치: internal/external/slack/
	StagePublish Stage = "PUBLISH"
)

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageFetch,
		StageMarket,
		StageDedup,
		StageScore,
		StageMark,
		StageSelect,
		StageNarrate,
		StageSave,
		StagePublish,
	}
}

// IsValidStage checks if a string is a valid stage
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
