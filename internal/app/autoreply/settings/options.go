package settings

// Options - дерево настроек автоответчика
// Поля типизированы явно, dotted-path доступ реализован как тонкая
// обёртка над структурой (см. path.go)
type Options struct {
	AutomationEnabled bool     `json:"automation_enabled"`
	WorkflowMode      string   `json:"workflow_mode"` // auto, semi_auto, draft
	AIProvider        string   `json:"ai_provider"`
	FallbackProviders []string `json:"fallback_providers"`

	AIModels ModelOptions  `json:"ai_models"`
	APIKeys  APIKeyOptions `json:"api_keys"`

	ToneStyle string `json:"tone_style"` // professional, friendly, casual, technical, promotional

	ProductFields        ProductFieldOptions `json:"product_fields"`
	ReviewFilters        ReviewFilterOptions `json:"review_filters"`
	PrivacySettings      PrivacyOptions      `json:"privacy_settings"`
	NotificationSettings NotificationOptions `json:"notification_settings"`
	AdvancedSettings     AdvancedOptions     `json:"advanced_settings"`
}

type ModelOptions struct {
	OpenAI     string `json:"openai"`
	Gemini     string `json:"gemini"`
	OpenRouter string `json:"openrouter"`
}

type APIKeyOptions struct {
	OpenAI     string `json:"openai"`
	Gemini     string `json:"gemini"`
	OpenRouter string `json:"openrouter"`
}

// ProductFieldOptions управляет тем, какие поля товара попадают в промпт
type ProductFieldOptions struct {
	Title            bool `json:"title"`
	Description      bool `json:"description"`
	ShortDescription bool `json:"short_description"`
	Attributes       bool `json:"attributes"`
	SKU              bool `json:"sku"`
	Price            bool `json:"price"`
	Categories       bool `json:"categories"`
	Tags             bool `json:"tags"`
}

type ReviewFilterOptions struct {
	MinRating           int  `json:"min_rating"`
	MaxRating           int  `json:"max_rating"`
	ExcludeSpam         bool `json:"exclude_spam"`
	ExcludeNegativeOnly bool `json:"exclude_negative_only"`
	ExcludeQuestions    bool `json:"exclude_questions"`
}

type PrivacyOptions struct {
	AllowExternalData     bool `json:"allow_external_data"`
	AnonymizeCustomerData bool `json:"anonymize_customer_data"`
	DataRetentionDays     int  `json:"data_retention_days"`
}

type NotificationOptions struct {
	EmailNotifications  bool   `json:"email_notifications"`
	NotificationEmail   string `json:"notification_email"`
	NotifyOnErrors      bool   `json:"notify_on_errors"`
	NotifyOnHighVolume  bool   `json:"notify_on_high_volume"`
	HighVolumeThreshold int    `json:"high_volume_threshold"`
}

type AdvancedOptions struct {
	MaxResponseLength        int  `json:"max_response_length"`
	IncludeProductLinks      bool `json:"include_product_links"`
	IncludeContactInfo       bool `json:"include_contact_info"`
	IncludeAIAttribution     bool `json:"include_ai_attribution"`
	ProcessUnapprovedReviews bool `json:"process_unapproved_reviews"`
}

// DefaultOptions возвращает настройки по умолчанию
// Явные значения из хранилища накладываются поверх них при загрузке
func DefaultOptions() Options {
	return Options{
		AutomationEnabled: true,
		WorkflowMode:      "semi_auto",
		AIProvider:        "openai",
		FallbackProviders: []string{"gemini", "openrouter"},
		AIModels: ModelOptions{
			OpenAI:     "gpt-3.5-turbo",
			Gemini:     "gemini-pro",
			OpenRouter: "openai/gpt-3.5-turbo",
		},
		ToneStyle: "professional",
		ProductFields: ProductFieldOptions{
			Title:            true,
			Description:      true,
			ShortDescription: true,
			Attributes:       true,
			SKU:              false,
			Price:            false,
			Categories:       true,
			Tags:             true,
		},
		ReviewFilters: ReviewFilterOptions{
			MinRating:           1,
			MaxRating:           5,
			ExcludeSpam:         true,
			ExcludeNegativeOnly: false,
			ExcludeQuestions:    false,
		},
		PrivacySettings: PrivacyOptions{
			AllowExternalData:     true,
			AnonymizeCustomerData: true,
			DataRetentionDays:     365,
		},
		NotificationSettings: NotificationOptions{
			EmailNotifications:  true,
			NotificationEmail:   "",
			NotifyOnErrors:      true,
			NotifyOnHighVolume:  true,
			HighVolumeThreshold: 50,
		},
		AdvancedSettings: AdvancedOptions{
			MaxResponseLength:        300,
			IncludeProductLinks:      true,
			IncludeContactInfo:       true,
			IncludeAIAttribution:     false,
			ProcessUnapprovedReviews: true,
		},
	}
}
