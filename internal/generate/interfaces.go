package generate

import (
	"context"
	"time"

	"github.com/coroscristianos/contentgen/internal/artifact"
	"github.com/coroscristianos/contentgen/internal/metrics"
	"github.com/coroscristianos/contentgen/internal/source"
)

// Loader produces the source snapshot for a run.
type Loader interface {
	Load(ctx context.Context) (source.Snapshot, error)
}

// ArtifactWriter replaces a directory's worth of generated documents.
type ArtifactWriter interface {
	Replace(ctx context.Context, batch artifact.Batch) (artifact.Result, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Publisher pushes run notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// RunRecorder persists the run ledger.
type RunRecorder interface {
	StartRun(ctx context.Context, run RunStart) error
	FinishRun(ctx context.Context, run RunFinish) error
}

// Metrics observes loads and finished steps.
type Metrics interface {
	ObserveSnapshot(loaded, skipped int)
	ObserveStep(obs metrics.StepObservation)
}
