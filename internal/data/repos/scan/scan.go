package scan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
)

type ScanRepo interface {
	Create(dbc dbctx.Context, s *types.Scan) error
	GetByID(dbc dbctx.Context, id string) (*types.Scan, error)
	QueryByUser(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id string, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	ListCompletedInRange(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error)
	// RecentCompletedBefore returns the scan of record (latest completed wins)
	// for up to limit distinct dates strictly before beforeDate, newest first.
	RecentCompletedBefore(dbc dbctx.Context, userID uuid.UUID, beforeDate string, limit int) ([]*types.Scan, error)
	CompletedDates(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	HasCompletedOnDate(dbc dbctx.Context, userID uuid.UUID, date string) (bool, error)
	HardDelete(dbc dbctx.Context, id string) error
}

type scanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScanRepo(db *gorm.DB, baseLog *logger.Logger) ScanRepo {
	return &scanRepo{
		db:  db,
		log: baseLog.With("repo", "ScanRepo"),
	}
}

func (r *scanRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *scanRepo) Create(dbc dbctx.Context, s *types.Scan) error {
	if s == nil {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(s).Error
}

func (r *scanRepo) GetByID(dbc dbctx.Context, id string) (*types.Scan, error) {
	if id == "" {
		return nil, nil
	}
	var s types.Scan
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *scanRepo) QueryByUser(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error) {
	var out []*types.Scan
	if userID == uuid.Nil {
		return out, nil
	}
	q := r.tx(dbc).WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if fromDate != "" {
		q = q.Where("date >= ?", fromDate)
	}
	if toDate != "" {
		q = q.Where("date <= ?", toDate)
	}
	if err := q.Order("date ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scanRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	if id == "" {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Scan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *scanRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id string, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == "" {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Scan{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *scanRepo) ListCompletedInRange(dbc dbctx.Context, userID uuid.UUID, fromDate, toDate string) ([]*types.Scan, error) {
	var out []*types.Scan
	if userID == uuid.Nil {
		return out, nil
	}
	q := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ?", userID, scandom.StatusCompleted)
	if fromDate != "" {
		q = q.Where("date >= ?", fromDate)
	}
	if toDate != "" {
		q = q.Where("date <= ?", toDate)
	}
	if err := q.Order("date ASC, completed_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scanRepo) RecentCompletedBefore(dbc dbctx.Context, userID uuid.UUID, beforeDate string, limit int) ([]*types.Scan, error) {
	if userID == uuid.Nil || beforeDate == "" || limit <= 0 {
		return nil, nil
	}
	// DISTINCT ON keeps the most recently completed row per date, however many
	// attempts a day carries.
	var rows []*types.Scan
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Scan{}).
		Select("DISTINCT ON (date) *").
		Where("user_id = ? AND status = ? AND date < ?", userID, scandom.StatusCompleted, beforeDate).
		Order("date DESC, completed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scanRepo) CompletedDates(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	var out []string
	if userID == uuid.Nil {
		return out, nil
	}
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Scan{}).
		Where("user_id = ? AND status = ?", userID, scandom.StatusCompleted).
		Distinct().
		Order("date ASC").
		Pluck("date", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scanRepo) HasCompletedOnDate(dbc dbctx.Context, userID uuid.UUID, date string) (bool, error) {
	if userID == uuid.Nil || date == "" {
		return false, nil
	}
	var count int64
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Scan{}).
		Where("user_id = ? AND status = ? AND date = ?", userID, scandom.StatusCompleted, date).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scanRepo) HardDelete(dbc dbctx.Context, id string) error {
	if id == "" {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Scan{}).Error
}
