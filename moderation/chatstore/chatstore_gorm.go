package chatstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/groupwarden/warden/moderation"
)

type GormChat struct {
	gorm.Model
	ChatID int64 `gorm:"unique;index"`
	Title  string
	Active bool `gorm:"index"`
}

// GormRegistry is a gorm-backed implementation of the TargetRegistry
// interface. Soft-deleted rows (gorm DeletedAt) are excluded by gorm itself.
type GormRegistry struct {
	db *gorm.DB
}

func NewGormRegistry(db *gorm.DB) (*GormRegistry, error) {
	if err := db.AutoMigrate(&GormChat{}); err != nil {
		return nil, err
	}
	return &GormRegistry{db: db}, nil
}

func (r *GormRegistry) Upsert(ctx context.Context, t moderation.Target, active bool) error {
	row := GormChat{ChatID: t.ID, Title: t.Title, Active: active}
	return r.db.WithContext(ctx).
		Where(GormChat{ChatID: t.ID}).
		Assign(map[string]any{"title": t.Title, "active": active}).
		FirstOrCreate(&row).Error
}

func (r *GormRegistry) ListActive(ctx context.Context) ([]moderation.Target, error) {
	var rows []GormChat
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]moderation.Target, 0, len(rows))
	for _, row := range rows {
		out = append(out, moderation.Target{ID: row.ChatID, Title: row.Title})
	}
	return out, nil
}
