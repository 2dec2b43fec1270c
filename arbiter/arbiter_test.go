package arbiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/sitecheck/arbiter"
	"github.com/use-agent/sitecheck/browser/browsertest"
	"github.com/use-agent/sitecheck/models"
)

func TestResolveFirstSignalWins(t *testing.T) {
	tests := []struct {
		name         string
		successDelay time.Duration
		failureDelay time.Duration
		want         models.VerdictKind
	}{
		{
			name:         "success appears first",
			successDelay: 20 * time.Millisecond,
			failureDelay: 200 * time.Millisecond,
			want:         models.SuccessSignalObserved,
		},
		{
			name:         "failure appears first",
			successDelay: 200 * time.Millisecond,
			failureDelay: 20 * time.Millisecond,
			want:         models.FailureSignalObserved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &browsertest.FakePage{
				Appears: map[string]time.Duration{
					".dashboard":    tt.successDelay,
					".error-banner": tt.failureDelay,
				},
			}
			v := arbiter.Resolve(context.Background(), page, ".dashboard", ".error-banner", time.Second)
			assert.Equal(t, tt.want, v.Kind)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestResolveNoFailureSelectorDegeneratesToSingleWait(t *testing.T) {
	page := &browsertest.FakePage{
		Appears: map[string]time.Duration{".dashboard": 10 * time.Millisecond},
	}
	v := arbiter.Resolve(context.Background(), page, ".dashboard", "", time.Second)
	assert.Equal(t, models.SuccessSignalObserved, v.Kind)
	assert.True(t, v.Success())
}

func TestResolveFallbackPollFindsLateSuccess(t *testing.T) {
	// Neither signal fires within budget, but the direct existence check
	// sees the success indicator afterwards.
	page := &browsertest.FakePage{
		Present: map[string]bool{".dashboard": true},
	}
	v := arbiter.Resolve(context.Background(), page, ".dashboard", ".error-banner", 50*time.Millisecond)
	assert.Equal(t, models.SuccessSignalObserved, v.Kind)
	assert.Contains(t, v.Reason, "appears successful")
}

func TestResolveRaceExceptionMapsToInconclusive(t *testing.T) {
	// A wait that fails outright (not a timeout) must downgrade to
	// Inconclusive with the underlying message, never abort the run.
	page := &browsertest.FakePage{
		WaitForErr: errors.New("websocket connection torn down"),
	}
	v := arbiter.Resolve(context.Background(), page, ".dashboard", ".error-banner", time.Second)
	assert.Equal(t, models.Inconclusive, v.Kind)
	assert.Contains(t, v.Reason, "status unclear")
	assert.Contains(t, v.Reason, "websocket connection torn down")
}

func TestResolveFallbackCheckFailureMapsToInconclusive(t *testing.T) {
	// No signal fires and even the direct existence check fails (page
	// already closed): the failure surfaces in the reason, not as an error.
	page := &browsertest.FakePage{
		HasErr: errors.New("page already closed"),
	}
	v := arbiter.Resolve(context.Background(), page, ".dashboard", ".error-banner", 50*time.Millisecond)
	assert.Equal(t, models.Inconclusive, v.Kind)
	assert.Contains(t, v.Reason, "page already closed")
}

func TestResolveInconclusiveWhenNothingObserved(t *testing.T) {
	page := &browsertest.FakePage{}
	v := arbiter.Resolve(context.Background(), page, ".dashboard", ".error-banner", 50*time.Millisecond)
	assert.Equal(t, models.Inconclusive, v.Kind)
	assert.Contains(t, v.Reason, "status unclear")
	assert.False(t, v.Success())
}
