package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namesmith/internal/availability"
	"namesmith/internal/domain"
	"namesmith/internal/generator"
	"namesmith/internal/metrics"
	"namesmith/internal/naming"
)

type reply struct {
	text string
	err  error
}

// scriptedGenerator answers each call with the next scripted reply.
type scriptedGenerator struct {
	replies []reply
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if len(g.prompts) > len(g.replies) {
		return "", errors.New("unexpected generation call")
	}
	r := g.replies[len(g.prompts)-1]
	return r.text, r.err
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPipeline(gen generator.Generator, opts ...Option) *Pipeline {
	ids := 0
	prober := availability.NewProber(nil, 0, testLogger(), availability.WithDelay(availability.NoDelay))
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
	}
	return New(gen, prober, testLogger(), append(base, opts...)...)
}

func names(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestGenerate_EndToEndNoFallback(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "CloudFlow\nDataSync\nTeamHub\nhere\nx"}}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err)

	assert.Len(t, gen.prompts, 1, "3 valid candidates must not trigger the fallback")
	assert.False(t, batch.FallbackUsed)
	assert.Equal(t, 2, batch.Rejected)
	require.Equal(t, []string{"CloudFlow", "DataSync", "TeamHub"}, names(batch.Candidates))

	for i, c := range batch.Candidates {
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), c.ID)
		assert.Equal(t, "Tech", c.Category)
		assert.Equal(t, fixedNow, c.CreatedAt)
		assert.False(t, c.IsFavorite)
		assert.Zero(t, c.Rating)
		assert.Len(t, c.Domains, len(domain.Extensions))
	}
	assert.Equal(t, domain.StatusAvailable, batch.Candidates[0].Domains[".com"])
	assert.Equal(t, naming.BuildPrompt(domain.Params{Category: "Tech"}), gen.prompts[0])
}

func TestGenerate_FallbackTriggeredBelowThreshold(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{text: "CloudFlow\nDataSync\nhere"},
		{text: "BrightPath\nNovaLink"},
	}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 2, "exactly one fallback call")
	assert.Equal(t, naming.BuildFallbackPrompt(domain.Params{Category: "Tech"}), gen.prompts[1])
	assert.True(t, batch.FallbackUsed)
	assert.NoError(t, batch.FallbackErr)
	assert.Equal(t, []string{"CloudFlow", "DataSync", "BrightPath", "NovaLink"}, names(batch.Candidates))
}

func TestGenerate_FallbackNeverRecurses(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "x"}, {text: "y"}}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err)

	assert.Len(t, gen.prompts, 2)
	assert.Empty(t, batch.Candidates, "zero usable names is an empty batch, not an error")
	assert.True(t, batch.FallbackUsed)
	assert.Equal(t, 2, batch.Rejected)
}

func TestGenerate_OnlyFirstFiveLinesConsidered(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "Alpha1\n\nBravo2\nCharlie\nDeltaX\nEchoes\nFoxtrot"}}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha1", "Bravo2", "Charlie", "DeltaX", "Echoes"}, names(batch.Candidates))
}

func TestGenerate_PrimaryFailureAborts(t *testing.T) {
	svcErr := generator.NewServiceError(generator.ErrorUnavailable, "down", nil)
	gen := &scriptedGenerator{replies: []reply{{err: svcErr}}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr)
	assert.True(t, generator.IsServiceError(err))
	assert.Empty(t, batch.Candidates)
	assert.Len(t, gen.prompts, 1, "no fallback after a failed primary call")
}

func TestGenerate_FallbackFailureKeepsPrimary(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	gen := &scriptedGenerator{replies: []reply{
		{text: "CloudFlow"},
		{err: generator.NewServiceError(generator.ErrorTimeout, "slow", nil)},
	}}
	p := newTestPipeline(gen, WithMetrics(m))

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err, "fallback failure is not reported as a generation failure")

	assert.Equal(t, []string{"CloudFlow"}, names(batch.Candidates))
	assert.True(t, batch.FallbackUsed)
	assert.Equal(t, generator.ErrorTimeout, generator.GetCategory(batch.FallbackErr))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceCalls.WithLabelValues("fallback", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues("ok")))
}

func TestGenerate_EmptyResponseFlowsToFallback(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: ""}, {text: "NovaLink\nBrightPath\nZenTrail"}}}
	p := newTestPipeline(gen)

	batch, err := p.Generate(context.Background(), domain.Params{Category: "Tech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NovaLink", "BrightPath", "ZenTrail"}, names(batch.Candidates))
}

func TestGenerate_InvalidParams(t *testing.T) {
	gen := &scriptedGenerator{}
	p := newTestPipeline(gen)

	_, err := p.Generate(context.Background(), domain.Params{})
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
	assert.Empty(t, gen.prompts)
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &scriptedGenerator{replies: []reply{{text: "CloudFlow\nDataSync\nTeamHub"}}}
	p := New(generatorFunc(func(c context.Context, prompt string) (string, error) {
		defer cancel()
		return gen.Generate(c, prompt)
	}), availability.NewProber(nil, 0, testLogger(), availability.WithDelay(availability.NoDelay)), testLogger())

	_, err := p.Generate(ctx, domain.Params{Category: "Tech"})
	assert.ErrorIs(t, err, context.Canceled)
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
