package scan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AngleFront = "front"
	AngleBack  = "back"
	AngleLeft  = "left"
	AngleRight = "right"
)

// Angles is the fixed capture order. All four are required before estimation.
var Angles = []string{AngleFront, AngleBack, AngleLeft, AngleRight}

const (
	StatusPendingUpload = "pending_upload"
	StatusUploaded      = "uploaded"
	StatusQCDone        = "qc_done"
	StatusEstimated     = "estimated"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
)

const DateLayout = "2006-01-02"

// Scan is one attempt at a daily body-composition capture. Status only moves
// forward; failed is terminal and recovery is a new scan, not a repair.
type Scan struct {
	ID     string    `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_scan_user_date,priority:1" json:"user_id"`
	// Calendar date (YYYY-MM-DD, user-local) the scan represents.
	Date   string `gorm:"column:date;not null;index:idx_scan_user_date,priority:2" json:"date"`
	Status string `gorm:"column:status;not null;index" json:"status"`

	WeightLb float64 `gorm:"column:weight_lb;not null" json:"weight_lb"`
	Notes    string  `gorm:"column:notes;type:text" json:"notes,omitempty"`

	// Map of angle -> photo URL, written by the upload stage.
	AngleURLs datatypes.JSON `gorm:"column:angle_urls;type:jsonb" json:"angle_urls,omitempty"`

	// Estimation results. bf_percent is a fraction in (0,1); lbm_lb is always
	// recomputed locally as weight_lb * (1 - bf_percent). Immutable once set.
	BFPercent     *float64 `gorm:"column:bf_percent" json:"bf_percent,omitempty"`
	LBMLb         *float64 `gorm:"column:lbm_lb" json:"lbm_lb,omitempty"`
	MusclePercent *float64 `gorm:"column:muscle_percent" json:"muscle_percent,omitempty"`
	BFConfidence  *float64 `gorm:"column:bf_confidence" json:"bf_confidence,omitempty"`

	QC      datatypes.JSON `gorm:"column:qc;type:jsonb" json:"qc,omitempty"`
	Deltas  datatypes.JSON `gorm:"column:deltas;type:jsonb" json:"deltas,omitempty"`
	Insight datatypes.JSON `gorm:"column:insight;type:jsonb" json:"insight,omitempty"`

	// Back-references to the scans used for delta computation.
	PrevScanID  *string `gorm:"column:prev_scan_id" json:"prev_scan_id,omitempty"`
	Prev2ScanID *string `gorm:"column:prev2_scan_id" json:"prev2_scan_id,omitempty"`

	// Human-readable reason for a terminal failed status. Never empty when
	// status is failed; the record is the user-visible source of truth.
	FailReason string `gorm:"column:fail_reason;type:text" json:"fail_reason,omitempty"`

	// Set when the scan reaches completed; latest completed wins per date.
	CompletedAt *time.Time `gorm:"column:completed_at;index" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Scan) TableName() string { return "scan" }

// NewID derives a scan id from (userID, date, creation time). Ids sort
// lexicographically within a user and day, and stay human-traceable.
func NewID(userID uuid.UUID, date string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%019d", userID.String(), date, at.UTC().UnixNano())
}

// AngleURLMap decodes the angle_urls column. Missing/invalid JSON yields an
// empty map, never nil.
func (s *Scan) AngleURLMap() map[string]string {
	out := map[string]string{}
	if s == nil || len(s.AngleURLs) == 0 {
		return out
	}
	_ = json.Unmarshal(s.AngleURLs, &out)
	return out
}

// HasAllAngles reports whether all four angle URLs are present.
func (s *Scan) HasAllAngles() bool {
	m := s.AngleURLMap()
	for _, a := range Angles {
		if m[a] == "" {
			return false
		}
	}
	return true
}

// Terminal reports whether the status admits no further transitions.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
