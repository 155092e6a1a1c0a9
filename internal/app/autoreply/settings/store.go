package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Repository - персистентное хранилище сериализованных настроек
type Repository interface {
	// LoadOptions возвращает сохранённый JSON настроек или nil, если настроек ещё нет
	LoadOptions(ctx context.Context) ([]byte, error)

	// SaveOptions сохраняет JSON настроек
	SaveOptions(ctx context.Context, data []byte) error
}

// Store - процессное хранилище настроек с ленивой загрузкой.
// Явно передаётся через конструкторы, глобального состояния нет.
// Изменения видны последующим чтениям сразу после Set
type Store struct {
	repo Repository

	mu     sync.RWMutex
	loaded bool
	opts   Options
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Options возвращает копию текущего дерева настроек
func (s *Store) Options(ctx context.Context) (Options, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return Options{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOptions(), nil
}

// Get возвращает значение по dotted-path ключу, либо defaultValue,
// если ключ неизвестен или настройки не загрузились
func (s *Store) Get(ctx context.Context, key string, defaultValue interface{}) interface{} {
	if err := s.ensureLoaded(ctx); err != nil {
		return defaultValue
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.opts.Get(key)
	if !ok {
		return defaultValue
	}
	return value
}

// Set устанавливает значение по dotted-path ключу и сразу персистит дерево
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.opts.Set(key, value); err != nil {
		return err
	}

	return s.persistLocked(ctx)
}

// Update применяет функцию к дереву настроек целиком и персистит результат
func (s *Store) Update(ctx context.Context, fn func(*Options)) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.opts)
	return s.persistLocked(ctx)
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	// Дефолты служат базой: сохранённый JSON накладывается поверх,
	// поэтому новые поля получают значения по умолчанию автоматически
	opts := DefaultOptions()

	data, err := s.repo.LoadOptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}

	s.opts = opts
	s.loaded = true
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.opts)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := s.repo.SaveOptions(ctx, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

func (s *Store) copyOptions() Options {
	opts := s.opts
	opts.FallbackProviders = append([]string(nil), s.opts.FallbackProviders...)
	return opts
}

// ============================================================
// Удобные геттеры (аналог типизированных методов Settings)
// ============================================================

func (s *Store) IsAutomationEnabled(ctx context.Context) bool {
	v, _ := s.Get(ctx, "automation_enabled", true).(bool)
	return v
}

func (s *Store) WorkflowMode(ctx context.Context) string {
	v, _ := s.Get(ctx, "workflow_mode", "semi_auto").(string)
	return v
}

func (s *Store) PrimaryProvider(ctx context.Context) string {
	v, _ := s.Get(ctx, "ai_provider", "openai").(string)
	return v
}

func (s *Store) FallbackProviders(ctx context.Context) []string {
	opts, err := s.Options(ctx)
	if err != nil {
		return nil
	}
	return opts.FallbackProviders
}

func (s *Store) ToneStyle(ctx context.Context) string {
	v, _ := s.Get(ctx, "tone_style", "professional").(string)
	return v
}

func (s *Store) APIKey(ctx context.Context, provider string) string {
	v, _ := s.Get(ctx, "api_keys."+provider, "").(string)
	return v
}

func (s *Store) Model(ctx context.Context, provider string) string {
	v, _ := s.Get(ctx, "ai_models."+provider, "").(string)
	return v
}

// IsExternalDataAllowed сообщает, разрешена ли отправка данных
// отзывов внешним AI провайдерам
func (s *Store) IsExternalDataAllowed(ctx context.Context) bool {
	v, _ := s.Get(ctx, "privacy_settings.allow_external_data", true).(bool)
	return v
}

func (s *Store) MaxResponseLength(ctx context.Context) int {
	v, _ := s.Get(ctx, "advanced_settings.max_response_length", 300).(int)
	if v <= 0 {
		return 300
	}
	return v
}
