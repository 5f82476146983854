package metrics

import "time"

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Stage names observed by the assembly code.
const (
	StagePreScan  = "prescan"
	StageAssemble = "assemble"
	StageConvert  = "convert"
	StageIndex    = "index"
	StageAssets   = "assets"
)

// Recorder receives build observations.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncMember(built bool)
	AddWarnings(kind string, n int)
	IncBuildOutcome(outcome Outcome)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncMember(bool)                             {}
func (NoopRecorder) AddWarnings(string, int)                    {}
func (NoopRecorder) IncBuildOutcome(Outcome)                    {}
