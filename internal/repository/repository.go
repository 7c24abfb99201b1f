package repository

import (
	"errors"

	"ai-hedge-fund/config"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/ratelimit"
)

type Repository struct {
	YahooFinanceRepo YahooFinanceRepository
	AlphaVantageRepo AlphaVantageRepository
	// GeminiAIRepo is nil when no Gemini API key is configured.
	GeminiAIRepo AIRepository
}

func NewRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	limiters := ratelimit.NewLimiterStore()

	geminiAIRepo, err := NewGeminiAIRepository(cfg, log, limiters)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidInput) {
			return nil, err
		}
		log.Debug("Gemini disabled, llm mode unavailable")
		geminiAIRepo = nil
	}

	return &Repository{
		YahooFinanceRepo: NewYahooFinanceRepository(cfg, log, limiters),
		AlphaVantageRepo: NewAlphaVantageRepository(cfg, log, limiters),
		GeminiAIRepo:     geminiAIRepo,
	}, nil
}
