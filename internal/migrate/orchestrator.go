package migrate

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/wayfarerhq/schemadrift/internal/drift"
	"github.com/wayfarerhq/schemadrift/internal/report"
	"github.com/wayfarerhq/schemadrift/internal/schema"
)

// State is the orchestrator's pipeline position. Passed and Failed are
// terminal; there is no retry loop. A failure is reported and the process
// exits non-zero.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateApplying   State = "applying"
	StateValidating State = "validating"
	StatePassed     State = "passed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StatePassed || s == StateFailed
}

// Snapshotter produces the post-apply live snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*schema.Snapshot, error)
}

// ModelSource produces the declared model snapshot.
type ModelSource interface {
	Load() (*schema.Snapshot, error)
}

// Applier applies pending migrations in order.
type Applier interface {
	Apply(ctx context.Context) ([]Migration, error)
}

// OrchestratorConfig wires the pipeline's collaborators.
type OrchestratorConfig struct {
	Runner Applier
	Live   Snapshotter
	Models ModelSource

	// ScaffoldDir/ScaffoldName control the Generating step: when
	// ScaffoldName is non-empty a fresh up/down pair is created before
	// applying. Scaffold creation is unconditional; it never looks at
	// drift.
	ScaffoldDir  string
	ScaffoldName string

	// CompareOptions flow into the drift comparator during validation.
	CompareOptions drift.Options

	// ArtifactPath is where the JSON report is written; empty skips the
	// artifact. Out receives the console summary; nil skips rendering.
	ArtifactPath string
	Out          io.Writer

	Environment report.Environment

	Logger *slog.Logger
	Now    func() time.Time
}

// Orchestrator drives one migration-and-validation run through the state
// machine Idle → Generating → Applying → Validating → Passed | Failed.
type Orchestrator struct {
	cfg    OrchestratorConfig
	state  State
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator in Idle.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, state: StateIdle, logger: logger}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) transition(next State) {
	o.logger.Debug("orchestrator transition", "from", o.state, "to", next)
	o.state = next
}

// Run executes the pipeline. Operational failures (connection, query, apply)
// return an error and leave the orchestrator in Failed. A completed run
// returns the drift report; the gate outcome is the terminal state, and
// error-severity findings alone decide it. Warnings and info never fail the
// gate.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	o.transition(StateGenerating)
	if o.cfg.ScaffoldName != "" {
		scaffold, err := GenerateScaffold(o.cfg.ScaffoldDir, o.cfg.ScaffoldName, o.cfg.Now)
		if err != nil {
			o.transition(StateFailed)
			return nil, err
		}
		o.logger.Info("generated migration scaffold",
			"version", scaffold.Version, "up", scaffold.UpPath, "down", scaffold.DownPath)
	}

	o.transition(StateApplying)
	applied, err := o.cfg.Runner.Apply(ctx)
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}
	o.logger.Info("applied pending migrations", "count", len(applied))

	o.transition(StateValidating)
	liveSnap, err := o.cfg.Live.Snapshot(ctx)
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}
	modelSnap, err := o.cfg.Models.Load()
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}

	issues := drift.Compare(liveSnap, modelSnap, o.cfg.CompareOptions)
	rep := report.New(issues, o.cfg.Environment)

	if o.cfg.ArtifactPath != "" {
		if err := rep.WriteArtifact(o.cfg.ArtifactPath); err != nil {
			o.transition(StateFailed)
			return nil, err
		}
	}
	if o.cfg.Out != nil {
		if err := report.NewRenderer(o.cfg.Out).Render(rep); err != nil {
			o.transition(StateFailed)
			return nil, err
		}
	}

	if rep.Passed() {
		o.transition(StatePassed)
	} else {
		o.transition(StateFailed)
	}
	return rep, nil
}
