package db

import (
	"gorm.io/gorm"

	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
)

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.Scan{},
		&types.ScanStreak{},
		&types.UserProfile{},
		&types.JobRun{},
	)
}

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
