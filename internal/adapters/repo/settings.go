package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pix-storefront/internal/domain"
)

const settingsColumns = `id::text, banner_url, logo_url, avatar_url, profile_name, profile_username, profile_bio,
	button_text, subscription_price::float8, subscription_original_price::float8, discount_percent,
	primary_button_color, secondary_button_color, page_background_color, footer_button_text, footer_button_price,
	plan_30_days_price, plan_3_months_price, plan_1_year_price, plan_lifetime_price,
	stats_photos, stats_videos, stats_likes, created_at, updated_at`

func settingsDest(s *domain.SiteSettings) []any {
	return []any{
		&s.ID, &s.BannerURL, &s.LogoURL, &s.AvatarURL, &s.ProfileName, &s.ProfileUsername, &s.ProfileBio,
		&s.ButtonText, &s.SubscriptionPrice, &s.SubscriptionOriginalPrice, &s.DiscountPercent,
		&s.PrimaryButtonColor, &s.SecondaryButtonColor, &s.PageBackgroundColor, &s.FooterButtonText, &s.FooterButtonPrice,
		&s.Plan30DaysPrice, &s.Plan3MonthsPrice, &s.Plan1YearPrice, &s.PlanLifetimePrice,
		&s.StatsPhotos, &s.StatsVideos, &s.StatsLikes, &s.CreatedAt, &s.UpdatedAt,
	}
}

func settingsArgs(s domain.SiteSettings) []any {
	return []any{
		s.BannerURL, s.LogoURL, s.AvatarURL, s.ProfileName, s.ProfileUsername, s.ProfileBio,
		s.ButtonText, s.SubscriptionPrice, s.SubscriptionOriginalPrice, s.DiscountPercent,
		s.PrimaryButtonColor, s.SecondaryButtonColor, s.PageBackgroundColor, s.FooterButtonText, s.FooterButtonPrice,
		s.Plan30DaysPrice, s.Plan3MonthsPrice, s.Plan1YearPrice, s.PlanLifetimePrice,
		s.StatsPhotos, s.StatsVideos, s.StatsLikes,
	}
}

// GetSettings возвращает единственную запись настроек или nil, если её ещё нет.
func (p *Postgres) GetSettings(ctx context.Context) (*domain.SiteSettings, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var s domain.SiteSettings
	err := p.queryRow(ctx, "get_settings", "site_settings",
		`SELECT `+settingsColumns+` FROM site_settings ORDER BY created_at LIMIT 1`, nil, settingsDest(&s)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings перезаписывает запись с указанным id.
func (p *Postgres) UpdateSettings(ctx context.Context, id string, settings domain.SiteSettings) (domain.SiteSettings, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	args := append([]any{id}, settingsArgs(settings)...)
	var saved domain.SiteSettings
	err := p.queryRow(ctx, "update_settings", "site_settings", `
UPDATE site_settings SET
	banner_url = $2, logo_url = $3, avatar_url = $4, profile_name = $5, profile_username = $6, profile_bio = $7,
	button_text = $8, subscription_price = $9, subscription_original_price = $10, discount_percent = $11,
	primary_button_color = $12, secondary_button_color = $13, page_background_color = $14,
	footer_button_text = $15, footer_button_price = $16,
	plan_30_days_price = $17, plan_3_months_price = $18, plan_1_year_price = $19, plan_lifetime_price = $20,
	stats_photos = $21, stats_videos = $22, stats_likes = $23,
	updated_at = now()
WHERE id = $1
RETURNING `+settingsColumns, args, settingsDest(&saved)...)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return domain.SiteSettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return saved, nil
}

// InsertSettings создаёт первую запись настроек.
func (p *Postgres) InsertSettings(ctx context.Context, settings domain.SiteSettings) (domain.SiteSettings, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var saved domain.SiteSettings
	err := p.queryRow(ctx, "insert_settings", "site_settings", `
INSERT INTO site_settings (
	banner_url, logo_url, avatar_url, profile_name, profile_username, profile_bio,
	button_text, subscription_price, subscription_original_price, discount_percent,
	primary_button_color, secondary_button_color, page_background_color, footer_button_text, footer_button_price,
	plan_30_days_price, plan_3_months_price, plan_1_year_price, plan_lifetime_price,
	stats_photos, stats_videos, stats_likes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
RETURNING `+settingsColumns, settingsArgs(settings), settingsDest(&saved)...)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("insert settings: %w", err)
	}
	return saved, nil
}
