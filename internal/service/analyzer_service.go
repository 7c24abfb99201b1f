package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/consensus"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/internal/repository"
	"ai-hedge-fund/internal/strategy"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/metrics"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DataQualityComplete    = "complete"
	DataQualityPartial     = "partial"
	DataQualityUnavailable = "unavailable"

	defaultMaxConcurrency = 4
)

type AnalyzerService interface {
	// Analyze runs every requested ticker. A failing ticker is reported in its result and
	// never aborts the others; the error is reserved for invalid requests and cancellation.
	Analyze(ctx context.Context, req dto.AnalyzeRequest) ([]dto.AnalysisResult, error)
	AnalyzeTicker(ctx context.Context, ticker, mode string) (dto.AnalysisResult, error)
	// Evaluate runs the producers of mode against an already assembled record.
	Evaluate(ctx context.Context, record model.FinancialRecord, mode string) (model.Consensus, []model.Signal, error)
}

type analyzerService struct {
	cfg           *config.Config
	log           *logger.Logger
	validator     *validate.Validator
	marketData    MarketDataService
	aiRepo        repository.AIRepository
	ruleProducers map[strategy.Persona]strategy.SignalProducer
}

func NewAnalyzerService(
	cfg *config.Config,
	log *logger.Logger,
	validator *validate.Validator,
	marketData MarketDataService,
	aiRepo repository.AIRepository,
) AnalyzerService {
	return &analyzerService{
		cfg:           cfg,
		log:           log,
		validator:     validator,
		marketData:    marketData,
		aiRepo:        aiRepo,
		ruleProducers: strategy.NewRuleProducers(),
	}
}

func (s *analyzerService) Analyze(ctx context.Context, req dto.AnalyzeRequest) ([]dto.AnalysisResult, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}
	tickers, err := utils.ParseTickers(req.Tickers...)
	if err != nil {
		return nil, err
	}
	if _, err := s.producers(req.Mode); err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.cfg.Analyzer.MaxConcurrency
	}
	if workers <= 0 {
		workers = defaultMaxConcurrency
	}

	runID := uuid.NewString()
	ctx = logger.NewContext(ctx, s.log.With(logger.StringField("run_id", runID)))
	s.log.FromContext(ctx).InfoContext(ctx, "Start analysis run",
		logger.StringsField("tickers", tickers),
		logger.StringField("mode", req.Mode),
		logger.IntField("workers", workers),
	)

	results := make([]dto.AnalysisResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			result, err := s.AnalyzeTicker(gctx, ticker, req.Mode)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				result.Ticker = ticker
				result.AnalysisDate = utils.FormatDate(utils.Today())
				result.Error = err.Error()
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis run %s: %w", runID, err)
	}
	return results, nil
}

func (s *analyzerService) AnalyzeTicker(ctx context.Context, ticker, mode string) (dto.AnalysisResult, error) {
	log := s.log.FromContext(ctx).With(logger.StringField("ticker", ticker))

	if s.cfg.Analyzer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Analyzer.Timeout)
		defer cancel()
	}

	start := time.Now()
	record, recordErr := s.marketData.GetRecord(ctx, ticker)
	if recordErr != nil && !errors.Is(recordErr, common.ErrDataUnavailable) {
		return dto.AnalysisResult{}, recordErr
	}
	if record == nil {
		record = &model.FinancialRecord{Ticker: ticker, AsOf: utils.Today()}
	}

	result, err := s.evaluate(ctx, *record, mode)
	if err != nil {
		log.ErrorContextWithAlert(ctx, "Analysis produced no usable result", logger.ErrorField(err))
		return dto.AnalysisResult{}, err
	}

	result.DataQuality = dataQuality(*record)
	result.MissingFields = record.Missing()
	if recordErr != nil {
		result.DataQuality = DataQualityUnavailable
	}

	log.InfoContext(ctx, "Ticker analysed",
		logger.StringField("direction", string(result.RawConsensus.Direction)),
		logger.IntField("confidence", result.RawConsensus.Confidence),
		logger.StringField("data_quality", result.DataQuality),
		logger.Field("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *analyzerService) Evaluate(ctx context.Context, record model.FinancialRecord, mode string) (model.Consensus, []model.Signal, error) {
	result, err := s.evaluate(ctx, record, mode)
	if err != nil {
		return model.Consensus{}, nil, err
	}
	return result.RawConsensus, result.RawSignals, nil
}

func (s *analyzerService) evaluate(ctx context.Context, record model.FinancialRecord, mode string) (dto.AnalysisResult, error) {
	producers, err := s.producers(mode)
	if err != nil {
		return dto.AnalysisResult{}, err
	}

	signals := s.runProducers(ctx, producers, record)
	if len(signals) == 0 {
		metrics.RecordAnalysisFailure("no_usable_signals")
		return dto.AnalysisResult{}, fmt.Errorf("%s: %w", record.Ticker, common.ErrNoUsableSignals)
	}

	agg, err := consensus.Aggregate(signals)
	if err != nil {
		metrics.RecordAnalysisFailure("aggregate")
		return dto.AnalysisResult{}, fmt.Errorf("aggregate %s: %w", record.Ticker, err)
	}
	metrics.RecordConsensus(string(agg.Direction))

	views := make([]dto.SignalView, len(signals))
	for i, sig := range signals {
		views[i] = dto.NewSignalView(sig)
	}

	return dto.AnalysisResult{
		Ticker:       record.Ticker,
		AnalysisDate: utils.FormatDate(record.AsOf),
		Signals:      views,
		Consensus:    dto.NewConsensusView(agg),
		KeyRisks:     agg.KeyRisks,
		Record:       &record,
		RawConsensus: agg,
		RawSignals:   signals,
	}, nil
}

// runProducers fans out over producers and keeps their declared order. A producer that
// panics or emits an invalid signal is dropped and logged.
func (s *analyzerService) runProducers(ctx context.Context, producers []strategy.SignalProducer, record model.FinancialRecord) []model.Signal {
	log := s.log.FromContext(ctx)
	slots := make([]*model.Signal, len(producers))

	var g errgroup.Group
	for i, p := range producers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					metrics.RecordAnalysisFailure("producer_panic")
					log.ErrorContext(ctx, "Signal producer panicked",
						logger.StringField("producer", p.Name()),
						logger.StringField("ticker", record.Ticker),
						logger.Field("panic", r),
					)
				}
			}()

			sig := p.Produce(ctx, record)
			if verr := sig.Validate(); verr != nil {
				metrics.RecordAnalysisFailure("invalid_signal")
				log.WarnContext(ctx, "Discarding invalid signal",
					logger.StringField("producer", p.Name()),
					logger.ErrorField(verr),
				)
				return nil
			}
			metrics.RecordSignal(string(p.Persona()), string(sig.Direction), sig.Producer)
			slots[i] = &sig
			return nil
		})
	}
	_ = g.Wait()

	signals := make([]model.Signal, 0, len(slots))
	for _, sig := range slots {
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}

// producers resolves the producer set of a mode. Hybrid asks the model for every persona
// that has a philosophy and falls back to rules for the data-driven ones.
func (s *analyzerService) producers(mode string) ([]strategy.SignalProducer, error) {
	if mode == "" {
		mode = s.cfg.Analyzer.Mode
	}
	if mode == "" {
		mode = dto.ModeRules
	}

	var out []strategy.SignalProducer
	switch mode {
	case dto.ModeRules:
		for _, p := range strategy.Personas {
			out = append(out, s.ruleProducers[p])
		}
	case dto.ModeLLM, dto.ModeHybrid:
		if s.aiRepo == nil {
			return nil, fmt.Errorf("mode %q requires GEMINI_API_KEY: %w", mode, common.ErrInvalidInput)
		}
		for _, p := range strategy.Personas {
			if llm, err := strategy.NewLLMProducer(p, s.aiRepo, s.log); err == nil {
				out = append(out, llm)
				continue
			}
			if mode == dto.ModeHybrid {
				out = append(out, s.ruleProducers[p])
			}
		}
	default:
		return nil, fmt.Errorf("unknown mode %q: %w", mode, common.ErrInvalidInput)
	}
	return out, nil
}

func dataQuality(r model.FinancialRecord) string {
	switch {
	case r.IsEmpty():
		return DataQualityUnavailable
	case len(r.Missing()) > 0:
		return DataQualityPartial
	default:
		return DataQualityComplete
	}
}
