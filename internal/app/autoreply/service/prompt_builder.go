package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/settings"

	"github.com/google/uuid"
)

// Шаблонные ответы для отзывов, не прошедших фильтр или оставшихся
// без доступного провайдера
var fallbackTemplates = []string{
	"Thank you for your review. Your feedback is very valuable and helps us improve our service.",
	"We appreciate you taking the time to share your experience. Your comments help us serve our customers better.",
	"Your opinion matters to us and we will use it to improve our products and services.",
}

var toneInstructions = map[string]string{
	"professional": "Tone: Professional and formal. Use respectful language and maintain a business-appropriate tone.",
	"friendly":     "Tone: Warm and friendly. Use casual but respectful language. Be personable and approachable.",
	"casual":       "Tone: Casual and relaxed. Use informal but polite language. Be conversational.",
	"technical":    "Tone: Technical and precise. Focus on facts and specifications. Be informative and detailed.",
	"promotional":  "Tone: Enthusiastic and promotional. Highlight benefits and positive aspects. Be encouraging.",
}

const defaultToneInstruction = "Tone: Professional and helpful. Be respectful and informative."

// PromptBuilder собирает промпт для AI из отзыва, данных товара
// и истории отзывов, и чистит сгенерированный текст
type PromptBuilder struct {
	settings *settings.Store
	products repository.ProductRepository
	reviews  repository.ReviewRepository
}

// NewPromptBuilder создает новый построитель промптов
func NewPromptBuilder(store *settings.Store, products repository.ProductRepository, reviews repository.ReviewRepository) *PromptBuilder {
	return &PromptBuilder{
		settings: store,
		products: products,
		reviews:  reviews,
	}
}

// BuildPrompt собирает полный промпт для генерации ответа на отзыв
// Контекст товара и истории добавляется по возможности, его отсутствие
// не срывает генерацию
func (b *PromptBuilder) BuildPrompt(ctx context.Context, review *entity.Review) string {
	maxLength := b.settings.MaxResponseLength(ctx)

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"You are a helpful customer service representative. Write a concise and friendly response to this product review. "+
			"Keep your response under %d characters and be direct without trailing dots or ellipsis.\n\nReview: %s\n\nRating: %d/5 stars",
		maxLength, review.Text, review.Rating)

	sb.WriteString("\n\n" + b.toneInstruction(ctx))

	if productData := b.ProductSummary(ctx, review.ProductID); productData != "" {
		sb.WriteString("\n\nProduct information:\n" + productData)
	}

	if history := b.reviewHistory(ctx, review.ProductID); history != "" {
		sb.WriteString("\n\nRecent customer feedback:\n" + history)
	}

	sb.WriteString("\n\nInstructions: Write a helpful, concise response. Do not end with dots or ellipsis. " +
		"Be professional and friendly. Focus on addressing the customer's specific concerns or thanking them for their feedback.")

	sb.WriteString("\n\nResponse Guidelines:")
	sb.WriteString("\n- Keep the response helpful and relevant to the review.")
	sb.WriteString("\n- Do not include personal information about the customer.")
	sb.WriteString("\n- If the review is spam or inappropriate, provide a polite generic response.")
	sb.WriteString("\n- If you cannot provide a helpful response, suggest contacting customer support.")

	opts, err := b.settings.Options(ctx)
	if err == nil {
		if opts.AdvancedSettings.IncludeProductLinks {
			sb.WriteString("\n- Include relevant product links when appropriate.")
		}
		if opts.AdvancedSettings.IncludeContactInfo {
			sb.WriteString("\n- Include contact information for further assistance.")
		}
	}

	return sb.String()
}

func (b *PromptBuilder) toneInstruction(ctx context.Context) string {
	if instruction, ok := toneInstructions[b.settings.ToneStyle(ctx)]; ok {
		return instruction
	}
	return defaultToneInstruction
}

// ProductSummary возвращает краткую сводку товара для промпта
// Готовая сводка кэшируется в Redis на час
func (b *PromptBuilder) ProductSummary(ctx context.Context, productID string) string {
	if cached, ok, err := b.products.GetCachedSummary(ctx, productID); err == nil && ok {
		return cached
	}

	id, err := uuid.Parse(productID)
	if err != nil {
		log.Printf("Invalid product ID %q: %v", productID, err)
		return ""
	}

	product, err := b.products.GetByID(ctx, id)
	if err != nil {
		log.Printf("Failed to load product %s: %v", productID, err)
		return ""
	}

	summary := summarizeProductData(b.composeProductData(ctx, product))

	if err := b.products.CacheSummary(ctx, productID, summary); err != nil {
		log.Printf("Failed to cache product summary: %v", err)
	}

	return summary
}

// composeProductData собирает строки данных товара по включённым полям
func (b *PromptBuilder) composeProductData(ctx context.Context, product *entity.Product) string {
	opts, err := b.settings.Options(ctx)
	if err != nil {
		opts = settings.DefaultOptions()
	}
	fields := opts.ProductFields

	var lines []string

	if fields.Title {
		lines = append(lines, "Product: "+product.Name)
	}
	if fields.Description && product.Description != "" {
		lines = append(lines, "Description: "+stripTags(product.Description))
	}
	if fields.ShortDescription && product.ShortDescription != "" {
		lines = append(lines, "Short Description: "+stripTags(product.ShortDescription))
	}
	if fields.Attributes && product.Attributes != "" {
		lines = append(lines, "Attributes: "+product.Attributes)
	}
	if fields.SKU && product.SKU != "" {
		lines = append(lines, "SKU: "+product.SKU)
	}
	if fields.Price && product.Price > 0 {
		lines = append(lines, fmt.Sprintf("Price: %.2f", product.Price))
	}
	if fields.Categories && product.Categories != "" {
		lines = append(lines, "Categories: "+product.Categories)
	}
	if fields.Tags && product.Tags != "" {
		lines = append(lines, "Tags: "+product.Tags)
	}

	return strings.Join(lines, "\n")
}

// summarizeProductData оставляет только ключевые строки, максимум три
func summarizeProductData(productData string) string {
	var summary []string
	for _, line := range strings.Split(productData, "\n") {
		if len(summary) >= 3 {
			break
		}
		if strings.HasPrefix(line, "Product:") || strings.HasPrefix(line, "Description:") {
			summary = append(summary, line)
		}
	}
	return strings.Join(summary, "\n")
}

// reviewHistory собирает краткую выжимку недавних отзывов товара
// для выравнивания тона: два отзыва, тексты до 100 символов
func (b *PromptBuilder) reviewHistory(ctx context.Context, productID string) string {
	reviews, err := b.reviews.GetRecentByProduct(ctx, productID, 5)
	if err != nil {
		log.Printf("Failed to load review history for product %s: %v", productID, err)
		return ""
	}

	var entries []string
	for _, review := range reviews {
		if len(entries) >= 2 {
			break
		}

		text := review.Text
		if len(text) > 100 {
			text = text[:100] + "..."
		}

		entries = append(entries, fmt.Sprintf("Review by %s on %s:\n%s",
			review.Author, review.CreatedAt.Format("2006-01-02 15:04:05"), text))
	}

	return strings.Join(entries, "\n\n")
}

var (
	multiDotPattern   = regexp.MustCompile(`\.{2,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	sentenceEndRunes  = map[byte]bool{'.': true, '!': true, '?': true}
)

// PostProcess чистит сгенерированный текст: убирает висячие точки
// и многоточия, режет по границе предложения при превышении лимита
// и гарантирует корректное окончание. Операция идемпотентна
func (b *PromptBuilder) PostProcess(ctx context.Context, response string) string {
	response = strings.TrimRight(response, ".…")
	response = multiDotPattern.ReplaceAllString(response, ".")
	response = strings.TrimRight(response, "…")

	maxLength := b.settings.MaxResponseLength(ctx)
	if len(response) > maxLength {
		response = response[:maxLength]

		// Режем по последнему предложению, если оно не слишком рано
		lastPeriod := strings.LastIndex(response, ".")
		if lastPeriod != -1 && float64(lastPeriod) > float64(maxLength)*0.8 {
			response = response[:lastPeriod+1]
		} else {
			response = strings.TrimRight(response, " ") + "."
		}
	}

	response = whitespacePattern.ReplaceAllString(response, " ")
	response = strings.TrimSpace(response)

	response = strings.TrimRight(response, ".,;:…")
	if response != "" && !sentenceEndRunes[response[len(response)-1]] {
		response += "."
	}

	return response
}

// FallbackResponse возвращает один из шаблонных ответов
func (b *PromptBuilder) FallbackResponse() string {
	return fallbackTemplates[rand.Intn(len(fallbackTemplates))]
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
