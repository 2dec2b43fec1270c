package models

import "time"

// VerdictKind tags the outcome of the signal race.
type VerdictKind string

const (
	// SuccessSignalObserved means the success condition appeared first.
	SuccessSignalObserved VerdictKind = "success_signal"

	// FailureSignalObserved means the failure condition appeared first.
	FailureSignalObserved VerdictKind = "failure_signal"

	// Inconclusive means no signal settled the outcome; Reason says why.
	Inconclusive VerdictKind = "inconclusive"
)

// Verdict is the arbiter's resolved outcome for one target: a single kind
// plus a human-readable reason. Never partially populated.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

// Success reports whether the verdict counts as a pass.
func (v Verdict) Success() bool {
	return v.Kind == SuccessSignalObserved
}

// ArtifactRef points at one captured diagnostic snapshot.
type ArtifactRef struct {
	// Path is the on-disk location of the stored image.
	Path string

	// Name is the logical checkpoint name the capture was requested under.
	Name string

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time
}

// VerificationResult is the final record for one target. It is immutable
// once produced; the runner aggregates one per input target.
type VerificationResult struct {
	Target       string
	Success      bool
	Message      string
	ArtifactPath string
}
