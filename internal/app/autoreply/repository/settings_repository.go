package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsRow - единственная строка с сериализованными настройками сервиса
type settingsRow struct {
	ID        uint   `gorm:"primaryKey"`
	Options   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (settingsRow) TableName() string {
	return "service_settings"
}

// settingsRowID - настройки хранятся одной строкой с фиксированным ID
const settingsRowID = 1

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository создает новый репозиторий настроек
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// LoadOptions возвращает сохранённый JSON настроек или nil, если настроек ещё нет
func (r *settingsRepository) LoadOptions(ctx context.Context) ([]byte, error) {
	var row settingsRow
	result := r.db.WithContext(ctx).First(&row, "id = ?", settingsRowID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings row: %w", result.Error)
	}

	return []byte(row.Options), nil
}

// SaveOptions сохраняет JSON настроек, создавая строку при первом сохранении
func (r *settingsRepository) SaveOptions(ctx context.Context, data []byte) error {
	row := settingsRow{
		ID:        settingsRowID,
		Options:   string(data),
		UpdatedAt: time.Now(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"options", "updated_at"}),
	}).Create(&row)

	if result.Error != nil {
		return fmt.Errorf("failed to save settings row: %w", result.Error)
	}

	return nil
}
