package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/adapters/ai"
	"marketpulse/internal/domain/analytics"
	"marketpulse/pkg/errors"
)

var generatedAt = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

type stubBuilder struct {
	ctx      *analytics.MarketContext
	ok       bool
	err      error
	lookback time.Duration
	calls    int
}

func (b *stubBuilder) Build(_ context.Context, _ string, lookback time.Duration) (*analytics.MarketContext, bool, error) {
	b.calls++
	b.lookback = lookback
	return b.ctx, b.ok, b.err
}

type fakeProvider struct {
	reply    string
	err      error
	requests []ai.ChatRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{
		Model:   req.Model,
		Content: p.reply,
		Usage:   ai.Usage{PromptTokens: 300, CompletionTokens: 450, TotalTokens: 750},
	}, nil
}

func spxContext() *analytics.MarketContext {
	return &analytics.MarketContext{
		Symbol:       "SPX",
		CurrentPrice: 100,
		Highest:      102,
		Lowest:       98,
		AvgPrice:     100.25,
		Change:       -1,
		ChangePct:    -0.990099,
		Volatility:   1.479,
		Trend:        analytics.TrendMildDown,
		DataPoints:   4,
		TimeRange:    "past 24 hours",
		RecentNews:   []analytics.Headline{{Title: "Fed holds rates", Source: "Reuters"}},
	}
}

func newTestService(b ContextBuilder, p ai.ChatProvider) *Service {
	return NewService(b, p, Config{Model: "deepseek-chat", Temperature: 0.7, MaxTokens: 1000},
		WithClock(func() time.Time { return generatedAt }))
}

func TestGenerate_OK(t *testing.T) {
	builder := &stubBuilder{ctx: spxContext(), ok: true}
	provider := &fakeProvider{reply: "## SPX outlook\nRange bound.\n"}
	svc := newTestService(builder, provider)

	rep, err := svc.Generate(context.Background(), "SPX")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, rep.Status)
	assert.Equal(t, "deepseek-chat", rep.Model)
	assert.Equal(t, int64(750), rep.Usage.TotalTokens)
	assert.Same(t, builder.ctx, rep.Context)
	assert.Equal(t, time.Duration(0), builder.lookback)

	assert.True(t, strings.HasPrefix(rep.Content, "## SPX outlook\nRange bound.\n\n---\n"))
	assert.Contains(t, rep.Content, "past 24 hours data | generated: 2024-06-03 12:00:00 UTC")

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 1000, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, ai.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "macro strategist")
	assert.Equal(t, ai.RoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "Latest price: $100.00")
	assert.Contains(t, req.Messages[1].Content, "Change: -1.00 (-0.99%)")
	assert.Contains(t, req.Messages[1].Content, "Trend: Mild downtrend")
	assert.Contains(t, req.Messages[1].Content, "**Fed holds rates** (Reuters)")
}

func TestGenerateWindow_PassesLookback(t *testing.T) {
	builder := &stubBuilder{ctx: spxContext(), ok: true}
	svc := newTestService(builder, &fakeProvider{reply: "ok"})

	_, err := svc.GenerateWindow(context.Background(), "SPX", 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, builder.lookback)
}

func TestGenerate_NotConfigured(t *testing.T) {
	builder := &stubBuilder{ctx: spxContext(), ok: true}
	svc := newTestService(builder, nil)

	rep, err := svc.Generate(context.Background(), "SPX")
	require.NoError(t, err)

	assert.Equal(t, StatusNotConfigured, rep.Status)
	assert.Equal(t, NotConfiguredMessage, rep.Content)
	assert.Zero(t, builder.calls)
}

func TestGenerate_NoData(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	svc := newTestService(&stubBuilder{ok: false}, provider)

	rep, err := svc.Generate(context.Background(), "XYZ")
	require.NoError(t, err)

	assert.Equal(t, StatusNoData, rep.Status)
	assert.Contains(t, rep.Content, "XYZ")
	assert.Nil(t, rep.Context)
	assert.Empty(t, provider.requests)
}

func TestGenerate_BuilderError(t *testing.T) {
	svc := newTestService(&stubBuilder{err: errors.ErrUnavailable}, &fakeProvider{})

	_, err := svc.Generate(context.Background(), "SPX")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestGenerate_ProviderErrorIsExternal(t *testing.T) {
	svc := newTestService(&stubBuilder{ctx: spxContext(), ok: true}, &fakeProvider{err: context.DeadlineExceeded})

	_, err := svc.Generate(context.Background(), "SPX")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExternal)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingRenderer struct{}

func (failingRenderer) Render(string, any) (string, error) {
	return "", errors.New("template missing")
}

func TestGenerate_RenderFailure(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	svc := NewService(&stubBuilder{ctx: spxContext(), ok: true}, provider, Config{}, WithRenderer(failingRenderer{}))

	_, err := svc.Generate(context.Background(), "SPX")
	require.Error(t, err)
	assert.Empty(t, provider.requests)
}
