package settings

import (
	"fmt"
	"strings"
)

// Get возвращает значение настройки по dotted-path ключу,
// например "review_filters.min_rating" или "workflow_mode".
// Это только удобная обёртка над типизированной структурой
func (o *Options) Get(key string) (interface{}, bool) {
	section, field, nested := strings.Cut(key, ".")

	if !nested {
		switch section {
		case "automation_enabled":
			return o.AutomationEnabled, true
		case "workflow_mode":
			return o.WorkflowMode, true
		case "ai_provider":
			return o.AIProvider, true
		case "fallback_providers":
			return o.FallbackProviders, true
		case "tone_style":
			return o.ToneStyle, true
		}
		return nil, false
	}

	switch section {
	case "ai_models":
		switch field {
		case "openai":
			return o.AIModels.OpenAI, true
		case "gemini":
			return o.AIModels.Gemini, true
		case "openrouter":
			return o.AIModels.OpenRouter, true
		}
	case "api_keys":
		switch field {
		case "openai":
			return o.APIKeys.OpenAI, true
		case "gemini":
			return o.APIKeys.Gemini, true
		case "openrouter":
			return o.APIKeys.OpenRouter, true
		}
	case "product_fields":
		switch field {
		case "title":
			return o.ProductFields.Title, true
		case "description":
			return o.ProductFields.Description, true
		case "short_description":
			return o.ProductFields.ShortDescription, true
		case "attributes":
			return o.ProductFields.Attributes, true
		case "sku":
			return o.ProductFields.SKU, true
		case "price":
			return o.ProductFields.Price, true
		case "categories":
			return o.ProductFields.Categories, true
		case "tags":
			return o.ProductFields.Tags, true
		}
	case "review_filters":
		switch field {
		case "min_rating":
			return o.ReviewFilters.MinRating, true
		case "max_rating":
			return o.ReviewFilters.MaxRating, true
		case "exclude_spam":
			return o.ReviewFilters.ExcludeSpam, true
		case "exclude_negative_only":
			return o.ReviewFilters.ExcludeNegativeOnly, true
		case "exclude_questions":
			return o.ReviewFilters.ExcludeQuestions, true
		}
	case "privacy_settings":
		switch field {
		case "allow_external_data":
			return o.PrivacySettings.AllowExternalData, true
		case "anonymize_customer_data":
			return o.PrivacySettings.AnonymizeCustomerData, true
		case "data_retention_days":
			return o.PrivacySettings.DataRetentionDays, true
		}
	case "notification_settings":
		switch field {
		case "email_notifications":
			return o.NotificationSettings.EmailNotifications, true
		case "notification_email":
			return o.NotificationSettings.NotificationEmail, true
		case "notify_on_errors":
			return o.NotificationSettings.NotifyOnErrors, true
		case "notify_on_high_volume":
			return o.NotificationSettings.NotifyOnHighVolume, true
		case "high_volume_threshold":
			return o.NotificationSettings.HighVolumeThreshold, true
		}
	case "advanced_settings":
		switch field {
		case "max_response_length":
			return o.AdvancedSettings.MaxResponseLength, true
		case "include_product_links":
			return o.AdvancedSettings.IncludeProductLinks, true
		case "include_contact_info":
			return o.AdvancedSettings.IncludeContactInfo, true
		case "include_ai_attribution":
			return o.AdvancedSettings.IncludeAIAttribution, true
		case "process_unapproved_reviews":
			return o.AdvancedSettings.ProcessUnapprovedReviews, true
		}
	}

	return nil, false
}

// Set устанавливает значение настройки по dotted-path ключу.
// Тип значения должен совпадать с типом поля
func (o *Options) Set(key string, value interface{}) error {
	switch key {
	case "automation_enabled":
		return setBool(&o.AutomationEnabled, key, value)
	case "workflow_mode":
		return setString(&o.WorkflowMode, key, value)
	case "ai_provider":
		return setString(&o.AIProvider, key, value)
	case "fallback_providers":
		providers, ok := value.([]string)
		if !ok {
			return fmt.Errorf("setting %s expects []string, got %T", key, value)
		}
		o.FallbackProviders = providers
		return nil
	case "tone_style":
		return setString(&o.ToneStyle, key, value)

	case "ai_models.openai":
		return setString(&o.AIModels.OpenAI, key, value)
	case "ai_models.gemini":
		return setString(&o.AIModels.Gemini, key, value)
	case "ai_models.openrouter":
		return setString(&o.AIModels.OpenRouter, key, value)

	case "api_keys.openai":
		return setString(&o.APIKeys.OpenAI, key, value)
	case "api_keys.gemini":
		return setString(&o.APIKeys.Gemini, key, value)
	case "api_keys.openrouter":
		return setString(&o.APIKeys.OpenRouter, key, value)

	case "product_fields.title":
		return setBool(&o.ProductFields.Title, key, value)
	case "product_fields.description":
		return setBool(&o.ProductFields.Description, key, value)
	case "product_fields.short_description":
		return setBool(&o.ProductFields.ShortDescription, key, value)
	case "product_fields.attributes":
		return setBool(&o.ProductFields.Attributes, key, value)
	case "product_fields.sku":
		return setBool(&o.ProductFields.SKU, key, value)
	case "product_fields.price":
		return setBool(&o.ProductFields.Price, key, value)
	case "product_fields.categories":
		return setBool(&o.ProductFields.Categories, key, value)
	case "product_fields.tags":
		return setBool(&o.ProductFields.Tags, key, value)

	case "review_filters.min_rating":
		return setInt(&o.ReviewFilters.MinRating, key, value)
	case "review_filters.max_rating":
		return setInt(&o.ReviewFilters.MaxRating, key, value)
	case "review_filters.exclude_spam":
		return setBool(&o.ReviewFilters.ExcludeSpam, key, value)
	case "review_filters.exclude_negative_only":
		return setBool(&o.ReviewFilters.ExcludeNegativeOnly, key, value)
	case "review_filters.exclude_questions":
		return setBool(&o.ReviewFilters.ExcludeQuestions, key, value)

	case "privacy_settings.allow_external_data":
		return setBool(&o.PrivacySettings.AllowExternalData, key, value)
	case "privacy_settings.anonymize_customer_data":
		return setBool(&o.PrivacySettings.AnonymizeCustomerData, key, value)
	case "privacy_settings.data_retention_days":
		return setInt(&o.PrivacySettings.DataRetentionDays, key, value)

	case "notification_settings.email_notifications":
		return setBool(&o.NotificationSettings.EmailNotifications, key, value)
	case "notification_settings.notification_email":
		return setString(&o.NotificationSettings.NotificationEmail, key, value)
	case "notification_settings.notify_on_errors":
		return setBool(&o.NotificationSettings.NotifyOnErrors, key, value)
	case "notification_settings.notify_on_high_volume":
		return setBool(&o.NotificationSettings.NotifyOnHighVolume, key, value)
	case "notification_settings.high_volume_threshold":
		return setInt(&o.NotificationSettings.HighVolumeThreshold, key, value)

	case "advanced_settings.max_response_length":
		return setInt(&o.AdvancedSettings.MaxResponseLength, key, value)
	case "advanced_settings.include_product_links":
		return setBool(&o.AdvancedSettings.IncludeProductLinks, key, value)
	case "advanced_settings.include_contact_info":
		return setBool(&o.AdvancedSettings.IncludeContactInfo, key, value)
	case "advanced_settings.include_ai_attribution":
		return setBool(&o.AdvancedSettings.IncludeAIAttribution, key, value)
	case "advanced_settings.process_unapproved_reviews":
		return setBool(&o.AdvancedSettings.ProcessUnapprovedReviews, key, value)
	}

	return fmt.Errorf("unknown setting: %s", key)
}

func setString(dst *string, key string, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("setting %s expects string, got %T", key, value)
	}
	*dst = s
	return nil
}

func setBool(dst *bool, key string, value interface{}) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("setting %s expects bool, got %T", key, value)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string, value interface{}) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case float64:
		// JSON десериализует числа как float64
		*dst = int(v)
	default:
		return fmt.Errorf("setting %s expects int, got %T", key, value)
	}
	return nil
}
