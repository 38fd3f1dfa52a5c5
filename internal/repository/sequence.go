package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository allocates monotonic counters per (name, year).
type SequenceRepository interface {
	// Next increments and returns the counter. The first call for a pair returns 1.
	Next(ctx context.Context, name string, year int) (int64, error)
	// Current returns the last value handed out, or 0.
	Current(ctx context.Context, name string, year int) (int64, error)
	// Taken reports whether value already occupies table.column. Rows that
	// predate the counters can hold numbers it has not handed out yet.
	Taken(ctx context.Context, table, column, value string) (bool, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository returns a SequenceRepository over db.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

const nextSequenceSQL = `INSERT INTO id_sequences (name, year, value, updated_at) VALUES (?, ?, 1, ?)
ON CONFLICT (name, year) DO UPDATE SET value = id_sequences.value + 1, updated_at = excluded.updated_at
RETURNING value`

func (r *sequenceRepository) Next(ctx context.Context, name string, year int) (int64, error) {
	var value int64
	if err := r.db.WithContext(ctx).Raw(nextSequenceSQL, name, year, time.Now().UTC()).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("allocate %s/%d: %w", name, year, err)
	}
	if value == 0 {
		return 0, fmt.Errorf("allocate %s/%d: no value returned", name, year)
	}
	return value, nil
}

func (r *sequenceRepository) Current(ctx context.Context, name string, year int) (int64, error) {
	var values []int64
	err := r.db.WithContext(ctx).
		Table("id_sequences").
		Where("name = ? AND year = ?", name, year).
		Limit(1).
		Pluck("value", &values).Error
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	return values[0], nil
}

func (r *sequenceRepository) Taken(ctx context.Context, table, column, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(table).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
