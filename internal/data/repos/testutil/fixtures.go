package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.UserProfile {
	tb.Helper()
	p := &types.UserProfile{
		UserID:   userID,
		AgeYears: 31,
		Gender:   "male",
		HeightIn: 70,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedCompletedScan inserts a completed scan of record for the given date.
func SeedCompletedScan(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string, weightLb, bfPercent float64) *types.Scan {
	tb.Helper()
	now := time.Now().UTC()
	lbm := weightLb * (1 - bfPercent)
	s := &types.Scan{
		ID:          scandom.NewID(userID, date, now),
		UserID:      userID,
		Date:        date,
		Status:      scandom.StatusCompleted,
		WeightLb:    weightLb,
		BFPercent:   &bfPercent,
		LBMLb:       &lbm,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed completed scan: %v", err)
	}
	return s
}

func SeedPendingScan(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string, weightLb float64) *types.Scan {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Scan{
		ID:        scandom.NewID(userID, date, now),
		UserID:    userID,
		Date:      date,
		Status:    scandom.StatusPendingUpload,
		WeightLb:  weightLb,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed pending scan: %v", err)
	}
	return s
}
