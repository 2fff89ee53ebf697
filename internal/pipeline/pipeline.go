// Package pipeline turns generation parameters into a batch of fully probed
// name candidates.
//
// A run is strictly sequential: one call to the generation service, then each
// surviving name is probed one at a time. When the primary round leaves fewer
// than MinCandidates names, exactly one fallback round with a simpler prompt
// is attempted. The pipeline owns no state; merging the batch into a user's
// history is the caller's job.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"namesmith/internal/domain"
	"namesmith/internal/generator"
	"namesmith/internal/metrics"
	"namesmith/internal/naming"
)

const (
	// MaxLinesPerRound is how many response lines are considered per round.
	MaxLinesPerRound = naming.RequestedNames

	// MinCandidates is the threshold below which the fallback round runs.
	MinCandidates = 3
)

const (
	roundPrimary  = "primary"
	roundFallback = "fallback"
)

// Prober fills in the domain map for one name.
type Prober interface {
	Probe(ctx context.Context, name string) domain.DomainMap
}

// Batch is the result of one Generate call.
type Batch struct {
	// Candidates holds primary then fallback candidates, in generation order.
	Candidates []domain.Candidate

	// FallbackUsed is true when the fallback round was attempted.
	FallbackUsed bool

	// FallbackErr is the service failure of the fallback round, if any. It
	// does not fail the batch.
	FallbackErr error

	// Rejected counts lines the sanitizer discarded across both rounds.
	Rejected int
}

// Pipeline orchestrates generation, sanitization and probing.
type Pipeline struct {
	gen     generator.Generator
	prober  Prober
	metrics *metrics.Metrics
	clock   func() time.Time
	newID   func() string
	log     logrus.FieldLogger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// New creates a Pipeline.
func New(gen generator.Generator, prober Prober, logger logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:    gen,
		prober: prober,
		clock:  time.Now,
		newID:  uuid.NewString,
		log:    logger.WithField("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate runs the primary round and, if needed, the single fallback round.
// It returns an error only when params are invalid, the primary service call
// fails, or ctx is cancelled. An empty batch is a valid result.
func (p *Pipeline) Generate(ctx context.Context, params domain.Params) (Batch, error) {
	if err := params.Validate(); err != nil {
		return Batch{}, err
	}
	params = params.Normalize()
	log := p.log.WithFields(logrus.Fields{
		"category": params.Category,
		"style":    params.Style,
		"length":   params.Length,
	})
	start := time.Now()
	defer func() { p.metrics.ObserveGenerateLatency(time.Since(start)) }()

	log.Info("Starting generation")

	candidates, rejected, err := p.round(ctx, roundPrimary, naming.BuildPrompt(params), params)
	if err != nil {
		p.metrics.IncrementGeneration("failed")
		log.WithError(err).Error("Primary generation round failed")
		return Batch{}, fmt.Errorf("primary generation round: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	batch := Batch{Candidates: candidates, Rejected: rejected}

	if len(candidates) < MinCandidates {
		log.WithField("candidates", len(candidates)).Info("Too few candidates, running fallback round")
		batch.FallbackUsed = true

		extra, rejected, err := p.round(ctx, roundFallback, naming.BuildFallbackPrompt(params), params)
		if err != nil {
			log.WithError(err).Warn("Fallback generation round failed, keeping primary candidates")
			batch.FallbackErr = err
		} else {
			batch.Candidates = append(batch.Candidates, extra...)
			batch.Rejected += rejected
		}
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
	}

	outcome := "ok"
	if len(batch.Candidates) == 0 {
		outcome = "empty"
	}
	p.metrics.IncrementGeneration(outcome)

	log.WithFields(logrus.Fields{
		"candidates": len(batch.Candidates),
		"rejected":   batch.Rejected,
		"fallback":   batch.FallbackUsed,
	}).Info("Generation completed")
	return batch, nil
}

// round performs one service call and turns its text into candidates. A
// failed call yields no candidates at all.
func (p *Pipeline) round(ctx context.Context, name, prompt string, params domain.Params) ([]domain.Candidate, int, error) {
	log := p.log.WithField("round", name)

	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		p.metrics.IncrementServiceCall(name, "failed")
		return nil, 0, err
	}
	p.metrics.IncrementServiceCall(name, "ok")

	var (
		candidates []domain.Candidate
		rejected   int
	)
	for _, line := range naming.Lines(text, MaxLinesPerRound) {
		clean, ok := naming.Sanitize(line)
		if !ok {
			rejected++
			log.WithField("line", line).Debug("Rejected generated line")
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ID:        p.newID(),
			Name:      clean,
			Category:  params.Category,
			CreatedAt: p.clock(),
			Domains:   p.prober.Probe(ctx, clean),
		})
	}

	p.metrics.AddCandidates(len(candidates), rejected)
	log.WithFields(logrus.Fields{
		"accepted": len(candidates),
		"rejected": rejected,
	}).Debug("Round completed")
	return candidates, rejected, nil
}
