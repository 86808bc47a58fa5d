package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketpulse/internal/adapters/ai"
	"marketpulse/internal/domain/analytics"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/templates"
)

// Status describes how a report request was resolved
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoData        Status = "no_data"
	StatusNotConfigured Status = "not_configured"
)

// NotConfiguredMessage is returned to the user when no AI provider is set up
const NotConfiguredMessage = "⚠️ AI service not configured: set DEEPSEEK_API_KEY to enable market analysis"

// Report is the outcome of one analysis request
type Report struct {
	Symbol      string                   `json:"symbol"`
	Status      Status                   `json:"status"`
	Content     string                   `json:"content"`
	Context     *analytics.MarketContext `json:"context,omitempty"`
	Model       string                   `json:"model,omitempty"`
	Usage       ai.Usage                 `json:"usage"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// ContextBuilder yields the market context for a symbol; ok is false when there is no data
type ContextBuilder interface {
	Build(ctx context.Context, symbol string, lookback time.Duration) (*analytics.MarketContext, bool, error)
}

// Renderer renders a template by id
type Renderer interface {
	Render(id string, data any) (string, error)
}

// Config holds the completion parameters
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Service turns a market context into a written analysis
type Service struct {
	builder  ContextBuilder
	provider ai.ChatProvider
	renderer Renderer
	cfg      Config
	now      func() time.Time
	log      *logger.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithRenderer replaces the embedded template registry
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithClock overrides the time source for report timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a report service. provider may be nil when no API key is configured.
func NewService(builder ContextBuilder, provider ai.ChatProvider, cfg Config, opts ...Option) *Service {
	if cfg.Model == "" {
		cfg.Model = ai.DefaultDeepSeekModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	s := &Service{
		builder:  builder,
		provider: provider,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Get().With("component", "report_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = templates.Get()
	}
	return s
}

// Generate produces a report over the default lookback window
func (s *Service) Generate(ctx context.Context, symbol string) (*Report, error) {
	return s.GenerateWindow(ctx, symbol, 0)
}

// GenerateWindow produces a report over the given lookback; lookback <= 0 uses the builder default
func (s *Service) GenerateWindow(ctx context.Context, symbol string, lookback time.Duration) (*Report, error) {
	start := time.Now()
	symbol = strings.TrimSpace(symbol)

	rep := &Report{
		Symbol:      symbol,
		GeneratedAt: s.now().UTC(),
	}

	if s.provider == nil {
		rep.Status = StatusNotConfigured
		rep.Content = NotConfiguredMessage
		metrics.Reports.WithLabelValues(string(rep.Status)).Inc()
		return rep, nil
	}

	mc, ok, err := s.builder.Build(ctx, symbol, lookback)
	if err != nil {
		metrics.Reports.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "build market context")
	}
	if !ok {
		rep.Status = StatusNoData
		rep.Content = noDataMessage(symbol)
		metrics.Reports.WithLabelValues(string(rep.Status)).Inc()
		return rep, nil
	}
	rep.Context = mc

	messages, err := s.messages(mc)
	if err != nil {
		metrics.Reports.WithLabelValues("error").Inc()
		return nil, err
	}

	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.Reports.WithLabelValues("error").Inc()
		s.log.Error("Report completion failed",
			"symbol", symbol,
			"provider", s.provider.Name(),
			"error", err,
		)
		if errors.Is(err, errors.ErrExternal) {
			return nil, errors.Wrapf(err, "generate report for %s", symbol)
		}
		return nil, fmt.Errorf("generate report for %s: %w: %w", symbol, errors.ErrExternal, err)
	}

	footer, err := s.renderer.Render(templates.ReportFooter, map[string]any{
		"TimeRange":   mc.TimeRange,
		"GeneratedAt": rep.GeneratedAt,
	})
	if err != nil {
		metrics.Reports.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "render report footer")
	}

	rep.Status = StatusOK
	rep.Content = strings.TrimSpace(resp.Content) + footer
	rep.Model = resp.Model
	rep.Usage = resp.Usage

	metrics.Reports.WithLabelValues(string(rep.Status)).Inc()
	metrics.ReportLatency.Observe(time.Since(start).Seconds())
	s.log.Info("Report generated",
		"symbol", symbol,
		"model", rep.Model,
		"total_tokens", rep.Usage.TotalTokens,
		"duration", time.Since(start).String(),
	)

	return rep, nil
}

func (s *Service) messages(mc *analytics.MarketContext) ([]ai.Message, error) {
	system, err := s.renderer.Render(templates.ReportSystem, nil)
	if err != nil {
		return nil, errors.Wrap(err, "render system prompt")
	}
	prompt, err := s.renderer.Render(templates.ReportPrompt, map[string]any{"Context": mc})
	if err != nil {
		return nil, errors.Wrap(err, "render analysis prompt")
	}

	return []ai.Message{
		{Role: ai.RoleSystem, Content: strings.TrimSpace(system)},
		{Role: ai.RoleUser, Content: prompt},
	}, nil
}

func noDataMessage(symbol string) string {
	return fmt.Sprintf("⚠️ No market data found for %s: check the symbol or wait for ingestion to collect it", symbol)
}
