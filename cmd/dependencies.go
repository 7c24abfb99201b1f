package cmd

import (
	"context"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/repository"
	"ai-hedge-fund/internal/service"
	"ai-hedge-fund/pkg/cache"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/validate"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AppDependency struct {
	cfg        *config.Config
	log        *logger.Logger
	validator  *validate.Validator
	echo       *echo.Echo
	cache      cache.Cache
	closeCache func() error
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding, logger.WithWebhookAlert(cfg.Alert.WebhookURL, cfg.Alert.Timeout))
	if err != nil {
		return nil, err
	}

	recordCache, closeCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Error("Failed to create cache", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	return &AppDependency{
		cfg:        cfg,
		log:        log,
		validator:  validate.New(),
		echo:       e,
		cache:      recordCache,
		closeCache: closeCache,
	}, nil
}

// Services wires repositories and services on top of the dependency set.
func (d *AppDependency) Services() (*service.Service, error) {
	repo, err := repository.NewRepository(d.cfg, d.log)
	if err != nil {
		d.log.Error("Failed to create repository", zap.Error(err))
		return nil, err
	}
	return service.NewService(d.cfg, d.log, repo, d.cache, d.validator), nil
}

func (d *AppDependency) Close() error {
	d.log.Debug("Closing app dependency")
	_ = d.log.Sync()
	if d.closeCache != nil {
		return d.closeCache()
	}
	return nil
}
