package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts e. A primary key collision gets one retry with a fresh id.
func (r *Repository) Create(ctx context.Context, e *Event) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if err == nil || !isUniqueViolation(err) {
		return err
	}
	e.ID = uuid.New()
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByTenant returns the newest events first.
func (r *Repository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *Repository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&Event{})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
