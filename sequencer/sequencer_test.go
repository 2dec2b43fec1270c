package sequencer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/artifact"
	"github.com/use-agent/sitecheck/browser/browsertest"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/sequencer"
)

func testPacing() config.PacingConfig {
	return config.PacingConfig{
		StepPauseMin: time.Millisecond,
		StepPauseMax: 2 * time.Millisecond,
	}
}

func newSequencer(t *testing.T) *sequencer.Sequencer {
	t.Helper()
	store := artifact.NewStore(t.TempDir(), "test-run")
	return sequencer.New(store, testPacing())
}

func TestRunReachabilityCheckNavigatesOnly(t *testing.T) {
	page := &browsertest.FakePage{}
	seq := newSequencer(t)

	err := seq.Run(context.Background(), page, models.Target{
		Name:            "ping",
		URL:             "https://example.com",
		SuccessSelector: "body",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"navigate https://example.com"}, page.Calls())
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	page := &browsertest.FakePage{
		Appears: map[string]time.Duration{"#user": 0, "#pass": 0, "#login": 0},
	}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "login",
		URL:             "https://example.com/login",
		SuccessSelector: ".dashboard",
		Steps: []models.Step{
			{Type: models.StepFill, Selector: "#user", Value: "alice"},
			{Type: models.StepFill, Selector: "#pass", Value: "secret"},
			{Type: models.StepSubmit, Selector: "#login"},
		},
	}

	require.NoError(t, seq.Run(context.Background(), page, target))
	assert.Equal(t, []string{
		"navigate https://example.com/login",
		"fill #user",
		"fill #pass",
		"screenshot", // pre-submit checkpoint
		"click #login",
		"settle",
	}, page.Calls())
}

func TestRunNavigationSettleTimeoutIsFatal(t *testing.T) {
	// A page whose DOM never stabilizes fails the navigation; nothing
	// after it runs.
	page := &browsertest.FakePage{
		NavigateSettleErr: models.NewCheckError(models.ErrCodeNavigation,
			"page did not settle within budget", context.DeadlineExceeded),
	}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "slow",
		URL:             "https://example.com",
		SuccessSelector: ".dashboard",
		Steps: []models.Step{
			{Type: models.StepFill, Selector: "#user", Value: "alice"},
		},
	}

	err := seq.Run(context.Background(), page, target)
	require.Error(t, err)

	var checkErr *models.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, models.ErrCodeNavigation, checkErr.Code)
	assert.NotContains(t, page.Calls(), "fill #user")
}

func TestRunStepFailureAbortsRemainingSteps(t *testing.T) {
	page := &browsertest.FakePage{
		FillErr: errors.New("element vanished"),
	}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "login",
		URL:             "https://example.com/login",
		SuccessSelector: ".dashboard",
		Steps: []models.Step{
			{Type: models.StepFill, Selector: "#user", Value: "alice"},
			{Type: models.StepSubmit, Selector: "#login"},
		},
	}

	err := seq.Run(context.Background(), page, target)
	require.Error(t, err)

	var checkErr *models.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, models.ErrCodeStepFailed, checkErr.Code)
	assert.NotContains(t, page.Calls(), "click #login")
}

func TestRunSubmitSettleFailureIsSwallowed(t *testing.T) {
	// Some submissions never navigate; the settle wait is best-effort and
	// must not fail the sequence.
	page := &browsertest.FakePage{
		SettleErr: errors.New("page never went quiet"),
	}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "login",
		URL:             "https://example.com/login",
		SuccessSelector: ".dashboard",
		Steps:           []models.Step{{Type: models.StepSubmit, Selector: "#login"}},
	}

	assert.NoError(t, seq.Run(context.Background(), page, target))
}

func TestRunBrowseFlowPicksWhicheverQuerySurfaceExists(t *testing.T) {
	// Only the textarea variant exists on this page.
	page := &browsertest.FakePage{
		Appears: map[string]time.Duration{
			`textarea[name="q"]`: 0,
			"h3":                 0,
		},
		TextsResult: []string{"first", "second", "third"},
	}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "search",
		URL:             "https://search.example.com",
		SuccessSelector: "h3",
		Steps: []models.Step{{
			Type:           models.StepBrowse,
			Query:          "verification",
			ResultSelector: "h3",
			MaxTitles:      2,
			Scrolls:        2,
			TimeoutMs:      500,
		}},
	}

	require.NoError(t, seq.Run(context.Background(), page, target))

	calls := page.Calls()
	assert.Contains(t, calls, `fill textarea[name="q"]`)
	assert.Contains(t, calls, `enter textarea[name="q"]`)
	assert.Contains(t, calls, "texts h3")
	assert.Contains(t, calls, "click h3")
	assert.Contains(t, calls, "back")
}

func TestRunBrowseFlowFailsWhenNoQuerySurfaceExists(t *testing.T) {
	page := &browsertest.FakePage{}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "search",
		URL:             "https://search.example.com",
		SuccessSelector: "h3",
		Steps: []models.Step{{
			Type:           models.StepBrowse,
			Query:          "verification",
			ResultSelector: "h3",
			TimeoutMs:      50,
		}},
	}

	err := seq.Run(context.Background(), page, target)
	require.Error(t, err)
	assert.NotContains(t, page.Calls(), "back")
}

func TestRunCustomStepDispatchesRegisteredAction(t *testing.T) {
	page := &browsertest.FakePage{}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "overlays",
		URL:             "https://example.com",
		SuccessSelector: "body",
		Steps:           []models.Step{{Type: models.StepCustom, Name: "dismiss_overlays"}},
	}

	require.NoError(t, seq.Run(context.Background(), page, target))
	assert.Contains(t, page.Calls(), "eval")
}

func TestRunCustomStepUnknownActionFails(t *testing.T) {
	page := &browsertest.FakePage{}
	seq := newSequencer(t)

	target := models.Target{
		Name:            "bad",
		URL:             "https://example.com",
		SuccessSelector: "body",
		Steps:           []models.Step{{Type: models.StepCustom, Name: "no_such_action"}},
	}

	assert.Error(t, seq.Run(context.Background(), page, target))
}
