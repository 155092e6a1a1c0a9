package service

import (
	"context"
	"log"
	"strings"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/settings"
	"autoreply/pkg/metrics"
)

// Причины отклонения отзыва фильтром
const (
	FilterReasonRating       = "rating_range"
	FilterReasonSpam         = "spam"
	FilterReasonNegativeOnly = "negative_only"
	FilterReasonQuestion     = "question"
)

var spamIndicators = []string{
	"buy now", "click here", "free money", "make money",
	"viagra", "casino", "poker", "lottery",
}

var negativeWords = []string{
	"terrible", "awful", "horrible", "worst", "disappointed",
	"waste", "useless", "broken", "defective", "scam",
}

var questionIndicators = []string{
	"?", "how do", "what is", "when will", "where can",
	"why does", "can i get", "is it possible",
}

// ReviewFilter решает, стоит ли генерировать AI ответ на отзыв
// Отклонённые отзывы получают шаблонный ответ, а не игнорируются
type ReviewFilter struct {
	settings *settings.Store
}

// NewReviewFilter создает новый фильтр отзывов
func NewReviewFilter(store *settings.Store) *ReviewFilter {
	return &ReviewFilter{settings: store}
}

// ShouldProcess проверяет отзыв по всем включённым фильтрам
// Возвращает причину отклонения для метрик и журнала
func (f *ReviewFilter) ShouldProcess(ctx context.Context, review *entity.Review) (bool, string) {
	opts, err := f.settings.Options(ctx)
	if err != nil {
		// Настройки недоступны, фильтруем по дефолтам
		log.Printf("Failed to load settings for review filter: %v", err)
		opts = settings.DefaultOptions()
	}
	filters := opts.ReviewFilters

	// Диапазон рейтинга проверяется только для оценённых отзывов
	if review.Rating > 0 {
		if review.Rating < filters.MinRating || review.Rating > filters.MaxRating {
			log.Printf("Review %s rating out of range: %d", review.ID.Hex(), review.Rating)
			metrics.ReviewsFiltered.WithLabelValues(FilterReasonRating).Inc()
			return false, FilterReasonRating
		}
	}

	if filters.ExcludeSpam && f.isSpam(review.Text) {
		log.Printf("Review %s detected as spam", review.ID.Hex())
		metrics.ReviewsFiltered.WithLabelValues(FilterReasonSpam).Inc()
		return false, FilterReasonSpam
	}

	if filters.ExcludeNegativeOnly && review.Rating <= 2 && f.isNegativeOnly(review.Text) {
		log.Printf("Review %s detected as negative-only", review.ID.Hex())
		metrics.ReviewsFiltered.WithLabelValues(FilterReasonNegativeOnly).Inc()
		return false, FilterReasonNegativeOnly
	}

	if filters.ExcludeQuestions && f.isQuestion(review.Text) {
		log.Printf("Review %s detected as question", review.ID.Hex())
		metrics.ReviewsFiltered.WithLabelValues(FilterReasonQuestion).Inc()
		return false, FilterReasonQuestion
	}

	return true, ""
}

// isSpam - эвристика спама: стоп-фразы, избыток ссылок, навязчивые повторы
func (f *ReviewFilter) isSpam(text string) bool {
	content := strings.ToLower(text)

	for _, indicator := range spamIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}

	if strings.Count(content, "http") > 2 {
		return true
	}

	// Fields не порождает пустых токенов на двойных пробелах и переносах
	wordCounts := make(map[string]int)
	for _, word := range strings.Fields(content) {
		wordCounts[word]++
		if wordCounts[word] > 5 {
			return true
		}
	}

	return false
}

// isNegativeOnly требует минимум трёх негативных маркеров,
// чтобы не отсекать обычную критику
func (f *ReviewFilter) isNegativeOnly(text string) bool {
	content := strings.ToLower(text)

	count := 0
	for _, word := range negativeWords {
		if strings.Contains(content, word) {
			count++
		}
	}

	return count >= 3
}

func (f *ReviewFilter) isQuestion(text string) bool {
	content := strings.ToLower(text)

	for _, indicator := range questionIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}

	return false
}
