package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type UserProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error)
	Upsert(dbc dbctx.Context, p *types.UserProfile) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{
		db:  db,
		log: baseLog.With("repo", "UserProfileRepo"),
	}
}

func (r *userProfileRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var p types.UserProfile
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.UserID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *userProfileRepo) Upsert(dbc dbctx.Context, p *types.UserProfile) error {
	if p == nil || p.UserID == uuid.Nil {
		return nil
	}
	p.UpdatedAt = time.Now()
	return r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"age_years", "gender", "height_in", "updated_at"}),
		}).
		Create(p).Error
}
