package scan

// QCResult is the advisory quality-check verdict persisted on the scan. A
// failed QC does not block estimation; it lowers downstream confidence.
type QCResult struct {
	IsValid       bool     `json:"is_valid"`
	PoseOK        bool     `json:"pose_ok"`
	LightingScore float64  `json:"lighting_score"`
	ClothingScore float64  `json:"clothing_score"`
	Confidence    float64  `json:"confidence"`
	Issues        []string `json:"issues,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Delta holds day-over-day and multi-day numeric differences plus the trend
// classification. Pointer fields are null until a prior completed scan exists.
type Delta struct {
	BFD1      *float64 `json:"bf_d1,omitempty"`
	BFD2      *float64 `json:"bf_d2,omitempty"`
	LBMD1     *float64 `json:"lbm_d1,omitempty"`
	WeightD1  *float64 `json:"weight_d1,omitempty"`
	Slope7Day *float64 `json:"slope_7day,omitempty"`
	Trend     string   `json:"trend"`
}

const (
	SeverityOK      = "ok"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

type InsightFlag struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Insight is the natural-language summary plus severity flags persisted by
// the final pipeline stage.
type Insight struct {
	Summary string        `json:"summary"`
	Flags   []InsightFlag `json:"flags,omitempty"`
}
