package availability

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namesmith/internal/domain"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestProber_CoversEveryExtension(t *testing.T) {
	var delays int
	p := NewProber(nil, 50*time.Millisecond, testLogger(), WithDelay(func(ctx context.Context, d time.Duration) error {
		assert.Equal(t, 50*time.Millisecond, d)
		delays++
		return nil
	}))

	got := p.Probe(context.Background(), "Cloud Flow!")

	require.Len(t, got, len(domain.Extensions))
	for _, ext := range domain.Extensions {
		assert.Contains(t, got, ext)
	}
	assert.Equal(t, len(domain.Extensions)-1, delays, "pacing happens between probes")
	assert.Equal(t, domain.StatusAvailable, got[".com"], "cloudflow.com is long and not generic")
	assert.Equal(t, domain.StatusAvailable, got[".io"])
}

func TestProber_ProbesInDeclaredOrder(t *testing.T) {
	var seen []string
	est := EstimatorFunc(func(_ context.Context, full string) (domain.Status, error) {
		seen = append(seen, full)
		return domain.StatusAvailable, nil
	})
	p := NewProber(est, 0, testLogger(), WithDelay(NoDelay))

	p.Probe(context.Background(), "Data-Sync 2")

	want := make([]string, len(domain.Extensions))
	for i, ext := range domain.Extensions {
		want[i] = "datasync2" + ext
	}
	assert.Equal(t, want, seen)
}

func TestProber_DegradesFailingExtension(t *testing.T) {
	var degraded []string
	est := EstimatorFunc(func(_ context.Context, full string) (domain.Status, error) {
		switch full {
		case "teamhub.net":
			return "", errors.New("boom")
		case "teamhub.org":
			panic("estimator exploded")
		case "teamhub.dev":
			return "maybe", nil
		}
		return domain.StatusTaken, nil
	})
	p := NewProber(est, 0, testLogger(), WithDelay(NoDelay), WithDegradationHook(func(ext string, _ error) {
		degraded = append(degraded, ext)
	}))

	got := p.Probe(context.Background(), "TeamHub")

	require.Len(t, got, len(domain.Extensions))
	assert.Equal(t, domain.StatusUnknown, got[".net"])
	assert.Equal(t, domain.StatusUnknown, got[".org"])
	assert.Equal(t, domain.StatusUnknown, got[".dev"])
	assert.Equal(t, domain.StatusTaken, got[".com"])
	assert.Equal(t, domain.StatusTaken, got[".me"], "later extensions still probed")
	assert.Equal(t, []string{".net", ".org", ".dev"}, degraded)
}

func TestProber_CancelledContextStillReturnsFullMap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	est := EstimatorFunc(func(_ context.Context, _ string) (domain.Status, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return domain.StatusAvailable, nil
	})
	p := NewProber(est, 0, testLogger(), WithDelay(NoDelay))

	got := p.Probe(ctx, "cloudflow")

	require.Len(t, got, len(domain.Extensions))
	assert.Equal(t, 2, calls)
	assert.Equal(t, domain.StatusAvailable, got[".net"])
	assert.Equal(t, domain.StatusUnknown, got[".org"])
}

func TestSleepDelay(t *testing.T) {
	require.NoError(t, SleepDelay(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepDelay(ctx, time.Hour), context.Canceled)
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "cloudflow", NormalizeLabel("Cloud Flow"))
	assert.Equal(t, "teamhub", NormalizeLabel("Team-Hub"))
	assert.Equal(t, "ai42", NormalizeLabel("AI 42!"))
	assert.Equal(t, "", NormalizeLabel("—"))
}
