package deploy

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// Target describes one remote host a deployment runs against. Immutable for
// the duration of a run.
type Target struct {
	Name       string
	Host       string
	SSHPort    int
	User       string
	DeployDir  string
	BackupDir  string
	LogFile    string // empty means DeployDir/<RemoteName>.log
	ListenPort int
	Java       JavaOpts
}

// JavaOpts is the fixed runtime configuration the artifact is launched with.
type JavaOpts struct {
	HeapMin string // e.g. "512m"
	HeapMax string // e.g. "1024m"
	GC      string // e.g. "+UseG1GC"
	Profile string // spring profile, e.g. "prod"
	Extra   []string
}

// Artifact is the already-built deployable file. Read-only input.
type Artifact struct {
	LocalPath  string
	RemoteName string
}

// ArtifactPath is the remote path the artifact is deployed to.
func (t Target) ArtifactPath(a Artifact) string {
	return path.Join(t.DeployDir, a.RemoteName)
}

// LogPath is the remote path process output is redirected to.
func (t Target) LogPath(a Artifact) string {
	if t.LogFile != "" {
		return t.LogFile
	}
	return path.Join(t.DeployDir, a.RemoteName+".log")
}

// Outcome of a deployment run.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Run tracks one deployment of one artifact to one target. Created at
// invocation start, mutated only by the Orchestrator, discarded after the
// run completes; at most one Run is active per target at a time.
type Run struct {
	ID            uuid.UUID
	Target        Target
	Artifact      Artifact
	StartedAt     time.Time
	FinishedAt    time.Time
	Stage         Stage
	Outcome       Outcome
	FailureReason string
}

func NewRun(target Target, artifact Artifact, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		Target:    target,
		Artifact:  artifact,
		StartedAt: startedAt,
		Stage:     StageIdle,
		Outcome:   OutcomePending,
	}
}

func (r *Run) fail(now time.Time, err error) {
	r.Outcome = OutcomeFailed
	r.FailureReason = err.Error()
	r.FinishedAt = now
}

func (r *Run) succeed(now time.Time) {
	r.Outcome = OutcomeSucceeded
	r.FinishedAt = now
}
