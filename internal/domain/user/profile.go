package user

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the estimator context (age, gender, height). Ownership of
// profile editing lives outside the scan core; the pipeline only reads it.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	AgeYears  int       `gorm:"column:age_years" json:"age_years"`
	Gender    string    `gorm:"column:gender" json:"gender"`
	HeightIn  float64   `gorm:"column:height_in" json:"height_in"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Profile) TableName() string { return "user_profile" }
