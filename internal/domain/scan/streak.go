package scan

import (
	"time"

	"github.com/google/uuid"
)

// Streak is the cached streak summary for a user. It is derived state: it can
// be rebuilt at any time from completed scan rows alone and is never
// authoritative.
type Streak struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentStreak int       `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	BestStreak    int       `gorm:"column:best_streak;not null;default:0" json:"best_streak"`
	// Calendar date (YYYY-MM-DD) the streak was last evaluated at.
	EvaluatedDate string    `gorm:"column:evaluated_date" json:"evaluated_date"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Streak) TableName() string { return "scan_streak" }
