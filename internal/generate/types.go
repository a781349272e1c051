package generate

import (
	"fmt"
	"strings"
	"time"

	"github.com/coroscristianos/contentgen/internal/artifact"
	"github.com/coroscristianos/contentgen/internal/source"
)

// Step names one derived view.
type Step string

// Generation steps, in the order `all` runs them.
const (
	StepArtists Step = "artists"
	StepHome    Step = "home"
	StepSearch  Step = "search"
	StepVideos  Step = "videos"
	StepLyrics  Step = "lyrics"
)

// AllSteps lists every step in execution order.
var AllSteps = []Step{StepArtists, StepHome, StepSearch, StepVideos, StepLyrics}

// ParseStep validates a step name.
func ParseStep(name string) (Step, error) {
	for _, s := range AllSteps {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", name)
}

// RunStatus is the ledger state of a run.
type RunStatus string

// Run states.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Notification events.
const (
	EventCompleted = "generation.completed"
	EventFailed    = "generation.failed"
)

// RunStart is written to the ledger before the source is read.
type RunStart struct {
	ID        string
	StartedAt time.Time
	Steps     []Step
	SourceDir string
}

// RunFinish closes a ledger entry.
type RunFinish struct {
	ID               string
	FinishedAt       time.Time
	Status           RunStatus
	FilesRead        int
	SongsLoaded      int
	RecordsSkipped   int
	ArtifactsWritten int
	ArtifactsFailed  int
	Manifest         []artifact.Artifact
	Error            string
}

// StepReport is the outcome of one step.
type StepReport struct {
	Step     Step
	Cleared  int
	Written  int
	Failed   int
	Bytes    int64
	Duration time.Duration
	// Artifacts lists every written document across the step's batches.
	Artifacts []artifact.Artifact
	Err       error
}

// Summary is the outcome of Run.
type Summary struct {
	RunID       string
	GeneratedAt string
	SourceDir   string
	FilesRead   int
	SongsLoaded int
	Skipped     int
	Issues      []source.Issue
	Steps       []StepReport
}

// Written totals written artifacts across steps.
func (s Summary) Written() int {
	total := 0
	for _, r := range s.Steps {
		total += r.Written
	}
	return total
}

// Failed totals failed artifacts across steps.
func (s Summary) Failed() int {
	total := 0
	for _, r := range s.Steps {
		total += r.Failed
	}
	return total
}

// Manifest collects every written artifact.
func (s Summary) Manifest() []artifact.Artifact {
	var out []artifact.Artifact
	for _, r := range s.Steps {
		out = append(out, r.Artifacts...)
	}
	return out
}

// Notification is the Pub/Sub payload published after a run.
type Notification struct {
	RunID       string              `json:"runId"`
	Status      RunStatus           `json:"status"`
	GeneratedAt string              `json:"generatedAt"`
	Steps       []Step              `json:"steps"`
	SongsLoaded int                 `json:"songsLoaded"`
	Skipped     int                 `json:"skipped"`
	Written     int                 `json:"written"`
	Failed      int                 `json:"failed"`
	Artifacts   []artifact.Artifact `json:"artifacts"`
	Error       string              `json:"error,omitempty"`
}
