package repository

import (
	"autoreply/internal/app/autoreply/entity"

	"gorm.io/gorm"
)

// AutoMigrate создает таблицы сервиса в PostgreSQL
// Таблица товаров принадлежит Catalog Service и здесь не мигрируется
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.GeneratedResponse{},
		&entity.AuditLogEntry{},
		&entity.FeedbackEntry{},
		&settingsRow{},
	)
}
