package domain

import (
	"strings"
	"time"
)

// User описывает пользователя админ-панели.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SiteSettings хранит содержимое витрины: профиль, цены, цвета и подписи кнопок.
type SiteSettings struct {
	ID                        string    `json:"id,omitempty"`
	BannerURL                 *string   `json:"banner_url"`
	LogoURL                   *string   `json:"logo_url"`
	AvatarURL                 *string   `json:"avatar_url"`
	ProfileName               string    `json:"profile_name"`
	ProfileUsername           string    `json:"profile_username"`
	ProfileBio                *string   `json:"profile_bio"`
	ButtonText                string    `json:"button_text"`
	SubscriptionPrice         float64   `json:"subscription_price"`
	SubscriptionOriginalPrice *float64  `json:"subscription_original_price"`
	DiscountPercent           *int      `json:"discount_percent"`
	PrimaryButtonColor        *string   `json:"primary_button_color"`
	SecondaryButtonColor      *string   `json:"secondary_button_color"`
	PageBackgroundColor       *string   `json:"page_background_color"`
	FooterButtonText          *string   `json:"footer_button_text"`
	FooterButtonPrice         *string   `json:"footer_button_price"`
	Plan30DaysPrice           *string   `json:"plan_30_days_price"`
	Plan3MonthsPrice          *string   `json:"plan_3_months_price"`
	Plan1YearPrice            *string   `json:"plan_1_year_price"`
	PlanLifetimePrice         *string   `json:"plan_lifetime_price"`
	StatsPhotos               *int      `json:"stats_photos"`
	StatsVideos               *int      `json:"stats_videos"`
	StatsLikes                *string   `json:"stats_likes"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// DefaultPrimaryColor используется, когда цвет кнопок не настроен.
const DefaultPrimaryColor = "#f97316"

// Plan — тариф, который показывается на витрине.
type Plan struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Badge     string `json:"badge,omitempty"`
	Featured  bool   `json:"featured,omitempty"`
	Highlight string `json:"highlight,omitempty"`
}

// Plans возвращает список тарифов с ценами из настроек или значениями по умолчанию.
// Тариф на 30 дней показывается, только если для него задана цена.
func (s *SiteSettings) Plans() []Plan {
	var (
		p30, p3m, p1y, pLife *string
	)
	if s != nil {
		p30, p3m, p1y, pLife = s.Plan30DaysPrice, s.Plan3MonthsPrice, s.Plan1YearPrice, s.PlanLifetimePrice
	}
	plans := make([]Plan, 0, 4)
	if price := valueOr(p30, ""); price != "" {
		plans = append(plans, Plan{ID: "30days", Name: "30 Dias", Price: price})
	}
	plans = append(plans,
		Plan{ID: "3months", Name: "3 Meses", Price: valueOr(p3m, "R$ 19,90"), Badge: "Mais popular 🔥", Featured: true, Highlight: "popular"},
		Plan{ID: "1year", Name: "1 Ano", Price: valueOr(p1y, "R$ 49,90"), Badge: "Melhor oferta", Highlight: "best"},
		Plan{ID: "lifetime", Name: "Vitalício", Price: valueOr(pLife, "R$ 89,90"), Badge: "Exclusivo", Highlight: "premium"},
	)
	return plans
}

// PrimaryColor возвращает цвет основной кнопки.
func (s *SiteSettings) PrimaryColor() string {
	if s == nil {
		return DefaultPrimaryColor
	}
	return valueOr(s.PrimaryButtonColor, DefaultPrimaryColor)
}

func valueOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

// Session описывает активную сессию пользователя админ-панели.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
