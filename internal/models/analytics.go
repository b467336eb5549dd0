package models

type StageDwell struct {
	StageID   string  `json:"stage_id"`
	StageName string  `json:"stage_name"`
	AvgDays   float64 `json:"avg_days"`
}

type PipelineAnalytics struct {
	PipelineID      int64        `json:"pipeline_id"`
	PipelineName    string       `json:"pipeline_name"`
	WinRate         float64      `json:"win_rate"`
	PerStageAvgDays []StageDwell `json:"per_stage_avg_days"`
}

// Identity is the caller as established by the auth middleware.
type Identity struct {
	TenantID int64
	UserID   int64
	Role     string
}
