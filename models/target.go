package models

import (
	"fmt"
	"time"
)

// Step kinds understood by the interaction sequencer.
const (
	StepNavigate = "navigate"
	StepFill     = "fill"
	StepSubmit   = "submit"
	StepBrowse   = "browse"
	StepCustom   = "custom"
)

// Default budgets applied when a step or target leaves them unset.
const (
	DefaultStepTimeout    = 10 * time.Second
	DefaultVerdictTimeout = 10 * time.Second
	DefaultAcquireTimeout = 30 * time.Second
	DefaultSettleTimeout  = 15 * time.Second
)

// Capabilities are the flags passed through to the session provisioner.
// They are opaque to the verification core: the remote driver decides what
// "stealth" means.
type Capabilities struct {
	UseProxy bool `yaml:"use_proxy"`

	// Stealth requests anti-detection behavior from the remote driver
	// (or stealth JS injection for locally launched browsers).
	Stealth bool `yaml:"stealth"`

	// AcquireTimeoutSeconds bounds session setup. Default: 30.
	AcquireTimeoutSeconds int `yaml:"acquire_timeout_seconds"`
}

// AcquireTimeout returns the session setup budget as a duration.
func (c Capabilities) AcquireTimeout() time.Duration {
	if c.AcquireTimeoutSeconds <= 0 {
		return DefaultAcquireTimeout
	}
	return time.Duration(c.AcquireTimeoutSeconds) * time.Second
}

// Step is one action in a target's interaction sequence.
// Which fields are meaningful depends on Type.
type Step struct {
	// Type is one of the Step* constants.
	Type string `yaml:"type"`

	// URL is the destination for navigate steps.
	URL string `yaml:"url,omitempty"`

	// Selector identifies the element for fill/submit steps.
	Selector string `yaml:"selector,omitempty"`

	// Value is the text typed into fill steps. Supports ${ENV_VAR}
	// expansion at load time for credential injection.
	Value string `yaml:"value,omitempty"`

	// Name selects the registered action for custom steps.
	Name string `yaml:"name,omitempty"`

	// Browse flow fields.
	Query          string   `yaml:"query,omitempty"`
	QuerySelectors []string `yaml:"query_selectors,omitempty"`
	ResultSelector string   `yaml:"result_selector,omitempty"`
	MaxTitles      int      `yaml:"max_titles,omitempty"`
	Scrolls        int      `yaml:"scrolls,omitempty"`

	// TimeoutMs is the per-step budget. Default: 10000.
	TimeoutMs int `yaml:"timeout_ms,omitempty"`
}

// Timeout returns the step's budget as a duration.
func (s Step) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return DefaultStepTimeout
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Target is the immutable description of one thing to verify: where to go,
// what to do there, and which page conditions decide the outcome.
type Target struct {
	Name string `yaml:"name"`

	// URL is the entry page. Always navigated first, before any steps,
	// so an empty step list is a pure reachability check.
	URL string `yaml:"url"`

	Capabilities Capabilities `yaml:",inline"`

	Steps []Step `yaml:"steps,omitempty"`

	// SuccessSelector is the page condition that confirms the outcome.
	// Required.
	SuccessSelector string `yaml:"success_selector"`

	// FailureSelector, when set, is raced against SuccessSelector.
	FailureSelector string `yaml:"failure_selector,omitempty"`

	// VerdictTimeoutMs bounds the signal race. Default: 10000.
	VerdictTimeoutMs int `yaml:"verdict_timeout_ms,omitempty"`
}

// VerdictTimeout returns the signal race budget as a duration.
func (t Target) VerdictTimeout() time.Duration {
	if t.VerdictTimeoutMs <= 0 {
		return DefaultVerdictTimeout
	}
	return time.Duration(t.VerdictTimeoutMs) * time.Millisecond
}

// Validate checks the target's structural invariants.
func (t Target) Validate() error {
	if t.Name == "" {
		return NewCheckError(ErrCodeInvalidTarget, "target name is required", nil)
	}
	if t.URL == "" {
		return NewCheckError(ErrCodeInvalidTarget,
			fmt.Sprintf("target %q: entry URL is required", t.Name), nil)
	}
	if t.SuccessSelector == "" {
		return NewCheckError(ErrCodeInvalidTarget,
			fmt.Sprintf("target %q: success_selector is required", t.Name), nil)
	}
	for i, s := range t.Steps {
		if err := validateStep(s); err != nil {
			return NewCheckError(ErrCodeInvalidTarget,
				fmt.Sprintf("target %q: step %d: %v", t.Name, i, err), nil)
		}
	}
	return nil
}

func validateStep(s Step) error {
	switch s.Type {
	case StepNavigate:
		if s.URL == "" {
			return fmt.Errorf("navigate step requires a url")
		}
	case StepFill:
		if s.Selector == "" {
			return fmt.Errorf("fill step requires a selector")
		}
	case StepSubmit:
		if s.Selector == "" {
			return fmt.Errorf("submit step requires a selector")
		}
	case StepBrowse:
		if s.Query == "" {
			return fmt.Errorf("browse step requires a query")
		}
		if s.ResultSelector == "" {
			return fmt.Errorf("browse step requires a result_selector")
		}
	case StepCustom:
		if s.Name == "" {
			return fmt.Errorf("custom step requires a name")
		}
	default:
		return fmt.Errorf("unknown step type: %q", s.Type)
	}
	return nil
}
