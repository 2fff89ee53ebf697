package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"namesmith/internal/domain"
)

// DefaultPacing is the pause between two consecutive extension probes.
const DefaultPacing = 100 * time.Millisecond

// DelayFunc pauses between probes. It returns early with ctx.Err() when the
// context is cancelled.
type DelayFunc func(ctx context.Context, d time.Duration) error

// SleepDelay is the production DelayFunc.
func SleepDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay skips pacing entirely.
func NoDelay(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Prober runs the Estimator over every configured extension for one name.
type Prober struct {
	estimator  Estimator
	pacing     time.Duration
	delay      DelayFunc
	onDegraded func(ext string, err error)
	log        logrus.FieldLogger
}

// Option customises a Prober.
type Option func(*Prober)

// WithDelay replaces the pacing function, e.g. NoDelay in tests.
func WithDelay(fn DelayFunc) Option {
	return func(p *Prober) { p.delay = fn }
}

// WithDegradationHook is called whenever a single extension falls back to unknown.
func WithDegradationHook(fn func(ext string, err error)) Option {
	return func(p *Prober) { p.onDegraded = fn }
}

// NewProber creates a Prober. A nil estimator uses the Heuristic.
func NewProber(estimator Estimator, pacing time.Duration, logger logrus.FieldLogger, opts ...Option) *Prober {
	if estimator == nil {
		estimator = Heuristic{}
	}
	p := &Prober{
		estimator: estimator,
		pacing:    pacing,
		delay:     SleepDelay,
		log:       logger.WithField("component", "prober"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NormalizeLabel lowercases name and drops everything outside [a-z0-9].
func NormalizeLabel(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Probe estimates every extension for name, in declared order. It never
// fails: a failing estimate, or a cancelled context, leaves that extension
// unknown and the remaining extensions are still recorded.
func (p *Prober) Probe(ctx context.Context, name string) domain.DomainMap {
	label := NormalizeLabel(name)
	log := p.log.WithFields(logrus.Fields{"name": name, "label": label})
	result := make(domain.DomainMap, len(domain.Extensions))

	for i, ext := range domain.Extensions {
		if ctx.Err() != nil {
			result[ext] = domain.StatusUnknown
			continue
		}

		status, err := p.estimate(ctx, label+ext)
		if err != nil {
			log.WithError(err).WithField("extension", ext).Warn("Domain probe failed, recording unknown")
			if p.onDegraded != nil {
				p.onDegraded(ext, err)
			}
			status = domain.StatusUnknown
		}
		result[ext] = status

		if i < len(domain.Extensions)-1 {
			if err := p.delay(ctx, p.pacing); err != nil {
				log.WithError(err).Debug("Probe pacing interrupted")
			}
		}
	}

	log.Debug("Domain probe completed")
	return result
}

func (p *Prober) estimate(ctx context.Context, fullDomain string) (status domain.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status, err = domain.StatusUnknown, fmt.Errorf("estimator panic for %s: %v", fullDomain, r)
		}
	}()
	status, err = p.estimator.Estimate(ctx, fullDomain)
	if err == nil && !status.Valid() {
		err = fmt.Errorf("estimator returned invalid status %q for %s", status, fullDomain)
	}
	return status, err
}
