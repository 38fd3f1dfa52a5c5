package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"idportal/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey serializes migrators across replicas starting together.
const migrationLockKey int64 = 7_302_026

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (AppliedMigration) TableName() string { return "schema_migrations" }

const createSchemaMigrationsSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// appliedMigrations reads schema_migrations; a missing table means nothing is applied.
func appliedMigrations(ctx context.Context, db *gorm.DB) (map[int]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return map[int]AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[int]AppliedMigration, len(rows))
	for _, r := range rows {
		out[r.Version] = r
	}
	return out, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// checkHistory rejects versions the code does not know and scripts edited
// after they were applied.
func checkHistory(applied map[int]AppliedMigration, registered []Migration) error {
	known := make(map[int]Migration, len(registered))
	for _, m := range registered {
		known[m.Version] = m
	}

	var problems []string
	for version, row := range applied {
		m, ok := known[version]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but unknown to this build", version))
		case row.Checksum != m.Checksum:
			problems = append(problems, fmt.Sprintf("%s was edited after it was applied", m))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("schema history mismatch: %s", strings.Join(problems, "; "))
}

// RunMigrations applies every pending migration in one transaction holding a
// Postgres advisory lock, so concurrent starts apply each script once.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(createSchemaMigrationsSQL).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}

		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		if err := checkHistory(applied, registry); err != nil {
			return err
		}

		for _, m := range registry {
			if _, done := applied[m.Version]; done {
				continue
			}
			started := time.Now()
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("apply %s: %w", m, err)
			}
			row := AppliedMigration{Version: m.Version, Name: m.Name, Checksum: m.Checksum, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("record %s: %w", m, err)
			}
			middleware.Logger.Info("migration applied",
				slog.String("migration", m.String()),
				slog.Duration("took", time.Since(started)))
		}
		return nil
	})
}

// RollbackMigration runs the down script of an applied migration and forgets it.
// Only the newest applied migration may be rolled back.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		if _, ok := applied[version]; !ok {
			return fmt.Errorf("migration %s has not been applied", m)
		}
		for v := range applied {
			if v > version {
				return fmt.Errorf("migration %06d is newer; roll it back first", v)
			}
		}

		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back %s: %w", m, err)
		}
		res := tx.Where("version = ?", version).Delete(&AppliedMigration{})
		if res.Error != nil {
			return fmt.Errorf("forget %s: %w", m, res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.New("schema_migrations row vanished during rollback")
		}
		middleware.Logger.Info("migration rolled back", slog.String("migration", m.String()))
		return nil
	})
}
