package service

import (
	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/repository"
	"ai-hedge-fund/pkg/cache"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/validate"
)

type Service struct {
	MarketDataService MarketDataService
	AnalyzerService   AnalyzerService
	PortfolioService  PortfolioService
	BacktestService   BacktestService
	RebalanceService  RebalanceService
	TaxService        TaxService
	ESGService        ESGService
	GlobalService     GlobalService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	recordCache cache.Cache,
	validator *validate.Validator,
) *Service {
	marketDataService := NewMarketDataService(cfg, log, recordCache, repo.YahooFinanceRepo, repo.AlphaVantageRepo)

	// A nil AI repository keeps llm and hybrid modes unavailable.
	analyzerService := NewAnalyzerService(cfg, log, validator, marketDataService, repo.GeminiAIRepo)

	return &Service{
		MarketDataService: marketDataService,
		AnalyzerService:   analyzerService,
		PortfolioService:  NewPortfolioService(cfg, log, validator, analyzerService),
		BacktestService:   NewBacktestService(cfg, log, validator, marketDataService, analyzerService),
		RebalanceService:  NewRebalanceService(cfg, log, validator, analyzerService),
		TaxService:        NewTaxService(cfg, log, validator, marketDataService),
		ESGService:        NewESGService(log, validator, marketDataService),
		GlobalService:     NewGlobalService(log, validator, analyzerService, marketDataService),
	}
}
