package auditstore

import (
	"context"

	"gorm.io/gorm"
)

type GormAuditEntry struct {
	gorm.Model
	Action     string `gorm:"index"`
	UserID     int64  `gorm:"index"`
	ActorLabel string
	Reason     string

	ChatID    int64
	MessageID int64

	ChatsAffected  int
	ChatsFailed    int
	WarningCount   int
	TrustRevoked   bool
	MessageDeleted bool
}

// GormAuditStore is a gorm-backed implementation of the AuditSink interface
type GormAuditStore struct {
	db *gorm.DB
}

func NewGormAuditStore(db *gorm.DB) (*GormAuditStore, error) {
	if err := db.AutoMigrate(&GormAuditEntry{}); err != nil {
		return nil, err
	}
	return &GormAuditStore{db: db}, nil
}

func (s *GormAuditStore) Record(ctx context.Context, entry *Entry) error {
	row := GormAuditEntry{
		Action:         entry.Action,
		UserID:         entry.UserID,
		ActorLabel:     entry.ActorLabel,
		Reason:         entry.Reason,
		ChatID:         entry.ChatID,
		MessageID:      entry.MessageID,
		ChatsAffected:  entry.ChatsAffected,
		ChatsFailed:    entry.ChatsFailed,
		WarningCount:   entry.WarningCount,
		TrustRevoked:   entry.TrustRevoked,
		MessageDeleted: entry.MessageDeleted,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Most recent entries for a user, newest first.
func (s *GormAuditStore) ListForUser(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []GormAuditEntry
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			Action:         r.Action,
			UserID:         r.UserID,
			ActorLabel:     r.ActorLabel,
			Reason:         r.Reason,
			ChatID:         r.ChatID,
			MessageID:      r.MessageID,
			ChatsAffected:  r.ChatsAffected,
			ChatsFailed:    r.ChatsFailed,
			WarningCount:   r.WarningCount,
			TrustRevoked:   r.TrustRevoked,
			MessageDeleted: r.MessageDeleted,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}
