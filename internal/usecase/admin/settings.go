package admin

import (
	"context"
	"fmt"

	"pix-storefront/internal/domain"
)

// SettingsService читает и сохраняет настройки витрины.
type SettingsService struct {
	repo domain.SettingsRepo
}

func NewSettingsService(repo domain.SettingsRepo) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get возвращает настройки или nil, если они ещё не сохранялись.
func (s *SettingsService) Get(ctx context.Context) (*domain.SiteSettings, error) {
	return s.repo.GetSettings(ctx)
}

// Save обновляет существующую запись, а если её нет, создаёт новую.
func (s *SettingsService) Save(ctx context.Context, settings domain.SiteSettings) (domain.SiteSettings, error) {
	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("чтение настроек: %w", err)
	}
	if current != nil {
		saved, err := s.repo.UpdateSettings(ctx, current.ID, settings)
		if err != nil {
			return domain.SiteSettings{}, fmt.Errorf("обновление настроек: %w", err)
		}
		return saved, nil
	}
	saved, err := s.repo.InsertSettings(ctx, settings)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("создание настроек: %w", err)
	}
	return saved, nil
}
