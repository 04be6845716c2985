package scan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type StreakRepo interface {
	Upsert(dbc dbctx.Context, st *types.ScanStreak) error
	GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.ScanStreak, error)
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return &streakRepo{
		db:  db,
		log: baseLog.With("repo", "StreakRepo"),
	}
}

func (r *streakRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *streakRepo) Upsert(dbc dbctx.Context, st *types.ScanStreak) error {
	if st == nil || st.UserID == uuid.Nil {
		return nil
	}
	st.UpdatedAt = time.Now()
	return r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_streak", "best_streak", "evaluated_date", "updated_at"}),
		}).
		Create(st).Error
}

func (r *streakRepo) GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.ScanStreak, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var st types.ScanStreak
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&st).Error
	if err != nil {
		return nil, err
	}
	if st.UserID == uuid.Nil {
		return nil, nil
	}
	return &st, nil
}
