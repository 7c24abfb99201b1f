package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/breaker"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/httpclient"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/metrics"
	"ai-hedge-fund/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	UpstreamGemini = "gemini"

	geminiKeyHeader = "x-goog-api-key"
)

type AIRepository interface {
	// GeneratePersonaSignal asks the model to judge a ticker in a persona's voice. Errors wrap
	// common.ErrDataUnavailable (transport) or common.ErrParseFailure (unusable answer).
	GeneratePersonaSignal(ctx context.Context, param dto.PersonaSignalParam) (*dto.PersonaSignalResponse, error)
}

// TokenCounter reports how many tokens a prompt costs for a model.
type TokenCounter interface {
	CountTokens(ctx context.Context, model, prompt string) (int, error)
}

type genaiTokenCounter struct {
	client *genai.Client
}

func (c *genaiTokenCounter) CountTokens(ctx context.Context, model, prompt string) (int, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	resp, err := c.client.Models.CountTokens(ctx, model, contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

type geminiAIRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	tokenCounter   TokenCounter
	breaker        *breaker.Breaker
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, limiters *ratelimit.LimiterStore) (AIRepository, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured: %w", common.ErrInvalidInput)
	}

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiAIRepository(
		cfg, log,
		httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout),
		&genaiTokenCounter{client: genAiClient},
		limiters,
	), nil
}

func newGeminiAIRepository(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient, counter TokenCounter, limiters *ratelimit.LimiterStore) *geminiAIRepository {
	return &geminiAIRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		requestLimiter: limiters.Register(UpstreamGemini, cfg.Gemini.MaxRequestPerMinute),
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute),
		tokenCounter:   counter,
		breaker:        breaker.New(UpstreamGemini, cfg.Breaker, log),
	}
}

func (r *geminiAIRepository) GeneratePersonaSignal(ctx context.Context, param dto.PersonaSignalParam) (*dto.PersonaSignalResponse, error) {
	prompt := r.promptPersonaSignal(param)

	geminiAPIResponse, err := r.sendRequest(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %v: %w", param.Name, param.Ticker, err, common.ErrDataUnavailable)
	}

	var result dto.PersonaSignalResponse
	if err := r.parseResponse(geminiAPIResponse, &result); err != nil {
		r.logger.WarnContext(ctx, "failed to parse response from gemini",
			logger.StringField("persona", param.Persona),
			logger.StringField("ticker", param.Ticker),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("%s on %s: %v: %w", param.Name, param.Ticker, err, common.ErrParseFailure)
	}

	return &result, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	tokens, err := r.tokenCounter.CountTokens(ctx, r.cfg.Gemini.BaseModel, prompt)
	if err != nil {
		// Roughly four characters per token for English prompts.
		tokens = len(prompt)/4 + 1
		r.logger.DebugContext(ctx, "Gemini token count failed, using estimate", logger.IntField("estimate", tokens), logger.ErrorField(err))
	}

	r.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", tokens),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	if tokens > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.WarnContext(ctx, "Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
		GenerationConfig: &dto.GenerationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
		},
	}
	apiURL := fmt.Sprintf("/%s:generateContent", r.cfg.Gemini.BaseModel)
	headers := map[string]string{geminiKeyHeader: r.cfg.Gemini.APIKey}

	start := time.Now()
	out, err := breaker.Execute(r.breaker, func() (*dto.GeminiAPIResponse, error) {
		var geminiAPIResponse dto.GeminiAPIResponse
		resp, err := r.httpClient.Post(ctx, apiURL, payload, headers, &geminiAPIResponse)
		if err != nil {
			return nil, fmt.Errorf("failed to send request to gemini: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, truncateText(string(resp.Body), 200))
		}
		return &geminiAPIResponse, nil
	})
	metrics.ObserveUpstream(UpstreamGemini, "generate_content", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to get data from gemini", logger.ErrorField(err))
		return nil, err
	}
	return out, nil
}

// parseResponse decodes the JSON object between the first '{' and the last '}' of the answer,
// which tolerates markdown fences and chatter around it.
func (r *geminiAIRepository) parseResponse(response *dto.GeminiAPIResponse, dest *dto.PersonaSignalResponse) error {
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("invalid response from Gemini API: no content found")
	}

	var sb strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return decodePersonaSignal(sb.String(), dest)
}

func decodePersonaSignal(text string, dest *dto.PersonaSignalResponse) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object in model answer")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), dest); err != nil {
		return fmt.Errorf("invalid JSON in model answer: %w", err)
	}

	dest.Signal = strings.ToLower(strings.TrimSpace(dest.Signal))
	switch dest.Signal {
	case "bullish", "bearish", "neutral":
	default:
		return fmt.Errorf("unknown signal %q", dest.Signal)
	}
	if dest.Confidence < 0 || dest.Confidence > 100 {
		return fmt.Errorf("confidence %.0f outside [0,100]", dest.Confidence)
	}
	return nil
}
