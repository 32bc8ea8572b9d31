package datasource

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
)

// Factory creates data sources based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
	onTrip func(source string, failures int)
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// OnCircuitTrip registers a callback attached to every HTTP client the factory builds
func (f *Factory) OnCircuitTrip(fn func(source string, failures int)) {
	f.onTrip = fn
}

// NewQuoteSource returns a file source when offlinePath is set, otherwise the odds API
func (f *Factory) NewQuoteSource(offlinePath string) QuoteSource {
	if offlinePath != "" {
		return NewFileQuoteSource(offlinePath)
	}

	cfg := f.config.OddsAPI
	httpClient := f.newHTTPClient(HTTPClientConfig{
		Name:              oddsAPISourceName,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRetries:        cfg.MaxRetries,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		CircuitBreakerMax: cfg.CircuitBreakerThreshold,
	})
	client := NewOddsAPIClient(httpClient, cfg.BaseURL, cfg.APIKey, cfg.Regions, f.logger)
	return NewOddsAPISource(client, f.logger)
}

// NewTrendSource returns the Sleeper trending players source
func (f *Factory) NewTrendSource() TrendSource {
	cfg := f.config.Sleeper
	httpCfg := DefaultHTTPClientConfig(sleeperSourceName)
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return NewSleeperClient(f.newHTTPClient(httpCfg), cfg.BaseURL, cfg.LookbackHours, f.logger)
}

func (f *Factory) newHTTPClient(cfg HTTPClientConfig) *RateLimitedHTTPClient {
	client := NewRateLimitedHTTPClient(cfg, f.logger)
	if f.onTrip != nil {
		client.OnCircuitTrip(f.onTrip)
	}
	return client
}
