// Package deploy sequences the stop -> backup -> upload -> start -> verify
// workflow against a single remote target and owns its retry and timeout
// policy. Remote execution and file transfer are injected, so every stage is
// deterministic under fakes.
package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/altukhov/jarship/internal/lg"
	"github.com/altukhov/jarship/internal/remote"
	"github.com/altukhov/jarship/internal/transfer"
)

// Options bound the orchestrator's waiting behavior.
type Options struct {
	StopGrace        time.Duration // wait after SIGTERM before escalating
	StopPollInterval time.Duration
	VerifyAttempts   int
	VerifyInterval   time.Duration
	LogTailLines     int
	Clock            Clock // nil means wall clock
}

func (o Options) withDefaults() Options {
	if o.StopGrace == 0 {
		o.StopGrace = 10 * time.Second
	}
	if o.StopPollInterval == 0 {
		o.StopPollInterval = time.Second
	}
	if o.VerifyAttempts == 0 {
		o.VerifyAttempts = 30
	}
	if o.VerifyInterval == 0 {
		o.VerifyInterval = time.Second
	}
	if o.LogTailLines == 0 {
		o.LogTailLines = 20
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	return o
}

// Orchestrator runs the fixed stage sequence for one target at a time.
type Orchestrator struct {
	runner   remote.Runner
	uploader transfer.Uploader
	clock    Clock
	opts     Options
	lg       lg.Logger
}

func New(runner remote.Runner, uploader transfer.Uploader, logger lg.Logger, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	if logger == nil {
		logger = lg.Discard
	}
	return &Orchestrator{
		runner:   runner,
		uploader: uploader,
		clock:    opts.Clock,
		opts:     opts,
		lg:       logger,
	}
}

// Deploy runs all stages in order. Any stage failure aborts the remaining
// stages and the first failure's kind and message are surfaced verbatim on
// the returned Run. No rollback is attempted; the backup taken by the
// backed-up stage exists only for a manual rollback.
func (o *Orchestrator) Deploy(ctx context.Context, target Target, artifact Artifact) *Run {
	return o.DeployRun(ctx, NewRun(target, artifact, o.clock.Now()))
}

// DeployRun drives an already-created pending run through the stages.
// Callers that announce the run (events, logging) before any remote work
// starts create the run themselves and hand it over here.
func (o *Orchestrator) DeployRun(ctx context.Context, run *Run) *Run {
	logger := o.lg.With(
		lg.String("run", run.ID.String()),
		lg.String("target", run.Target.Host),
		lg.String("artifact", run.Artifact.RemoteName),
	)

	stages := []struct {
		to Stage
		fn func(context.Context, *Run, lg.Logger) error
	}{
		{StageDirsEnsured, o.ensureDirectories},
		{StageOldStopped, o.stopOldProcess},
		{StageBackedUp, o.backupPrevious},
		{StageUploaded, o.uploadArtifact},
		{StageStarted, o.startProcess},
		{StageVerified, o.verifyListening},
	}

	for _, st := range stages {
		logger.Debug("stage starting", lg.String("stage", st.to.String()))
		if err := st.fn(ctx, run, logger); err != nil {
			run.fail(o.clock.Now(), err)
			logger.Error("deployment failed",
				lg.String("stage", st.to.String()), lg.Err(err))
			return run
		}
		if err := run.advance(st.to); err != nil {
			run.fail(o.clock.Now(), err)
			return run
		}
		logger.Info("stage complete", lg.String("stage", st.to.String()))
	}

	run.succeed(o.clock.Now())
	logger.Info("deployment verified", lg.Int("port", run.Target.ListenPort))
	return run
}

// ensureDirectories creates the deploy and backup directories. Existing
// directories are not an error.
func (o *Orchestrator) ensureDirectories(ctx context.Context, run *Run, _ lg.Logger) error {
	_, err := remote.RunChecked(ctx, o.runner, mkdirCmd(run.Target.DeployDir, run.Target.BackupDir))
	return err
}

// stopOldProcess finds the process bound to the listen port (or, failing
// that, one matching the artifact name), sends SIGTERM, waits out the grace
// period and escalates to SIGKILL. No running process is not an error: the
// first deployment to a host has nothing to stop.
func (o *Orchestrator) stopOldProcess(ctx context.Context, run *Run, logger lg.Logger) error {
	pid, err := o.findPID(ctx, run)
	if err != nil {
		return err
	}
	if pid == "" {
		logger.Info("no previous process running")
		return nil
	}

	logger.Info("stopping previous process", lg.String("pid", pid))
	// the process may exit between lookup and kill; tolerate a failed signal
	if _, err := o.runner.Run(ctx, termCmd(pid)); err != nil {
		return err
	}

	attempts := int(o.opts.StopGrace/o.opts.StopPollInterval) + 1
	stopped, err := poll(ctx, o.clock, attempts, o.opts.StopPollInterval, func(ctx context.Context) (bool, error) {
		res, err := o.runner.Run(ctx, aliveCmd(pid))
		if err != nil {
			return false, err
		}
		return res.ExitCode != 0, nil
	})
	if err != nil {
		return err
	}
	if stopped {
		return nil
	}

	logger.Warn("process survived grace period, escalating", lg.String("pid", pid))
	if _, err := o.runner.Run(ctx, killCmd(pid)); err != nil {
		return err
	}
	res, err := o.runner.Run(ctx, aliveCmd(pid))
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		return fmt.Errorf("process %s still alive after SIGKILL", pid)
	}
	return nil
}

// findPID prefers port ownership and falls back to matching the artifact
// name in the process list. Both lookups tolerate a non-zero exit.
func (o *Orchestrator) findPID(ctx context.Context, run *Run) (string, error) {
	res, err := o.runner.Run(ctx, pidByPortCmd(run.Target.ListenPort))
	if err != nil {
		return "", err
	}
	if pid := firstLine(res.Stdout); res.ExitCode == 0 && pid != "" {
		return pid, nil
	}

	res, err = o.runner.Run(ctx, pidByNameCmd(run.Artifact.RemoteName))
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return firstLine(res.Stdout), nil
}

// backupPrevious copies an existing artifact aside with a timestamp suffix.
// Silently skipped when no previous artifact exists.
func (o *Orchestrator) backupPrevious(ctx context.Context, run *Run, logger lg.Logger) error {
	src := run.Target.ArtifactPath(run.Artifact)
	res, err := o.runner.Run(ctx, fileExistsCmd(src))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		logger.Debug("no previous artifact, skipping backup")
		return nil
	}

	ts := o.clock.Now().Format(tsLayout)
	dst := run.Target.BackupDir + "/" + run.Artifact.RemoteName + "." + ts
	if _, err := remote.RunChecked(ctx, o.runner, backupCmd(src, dst)); err != nil {
		return err
	}
	logger.Info("previous artifact backed up", lg.String("backup", dst))
	return nil
}

// uploadArtifact rotates any existing log out of the way, then streams the
// new artifact into place.
func (o *Orchestrator) uploadArtifact(ctx context.Context, run *Run, logger lg.Logger) error {
	logPath := run.Target.LogPath(run.Artifact)
	res, err := o.runner.Run(ctx, fileExistsCmd(logPath))
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		ts := o.clock.Now().Format(tsLayout)
		if _, err := remote.RunChecked(ctx, o.runner, rotateLogCmd(logPath, ts)); err != nil {
			return err
		}
		logger.Info("log rotated", lg.String("log", logPath+"."+ts))
	}

	return o.uploader.Upload(ctx, run.Artifact.LocalPath, run.Target.ArtifactPath(run.Artifact))
}

// startProcess launches the artifact detached with output redirected to the
// log path. It does not wait for the service to come up; the verify stage
// owns that.
func (o *Orchestrator) startProcess(ctx context.Context, run *Run, logger lg.Logger) error {
	cmd := startCmd(run.Target, run.Artifact, run.Target.LogPath(run.Artifact))
	if _, err := remote.RunChecked(ctx, o.runner, cmd); err != nil {
		return err
	}
	logger.Info("process launched", lg.String("log", run.Target.LogPath(run.Artifact)))
	return nil
}

// verifyListening polls the listen port at a fixed interval until it is in a
// listening state or the attempt budget is spent. On exhaustion it captures
// the tail of the new log for the failure detail.
func (o *Orchestrator) verifyListening(ctx context.Context, run *Run, logger lg.Logger) error {
	ok, err := poll(ctx, o.clock, o.opts.VerifyAttempts, o.opts.VerifyInterval, func(ctx context.Context) (bool, error) {
		res, err := o.runner.Run(ctx, portListeningCmd(run.Target.ListenPort))
		if err != nil {
			return false, err
		}
		return res.ExitCode == 0, nil
	})
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	verr := &VerificationTimeoutError{
		Port:     run.Target.ListenPort,
		Attempts: o.opts.VerifyAttempts,
	}
	// best effort; the timeout is the failure either way
	if res, err := o.runner.Run(ctx, tailCmd(run.Target.LogPath(run.Artifact), o.opts.LogTailLines)); err == nil {
		verr.LogTail = res.Stdout
	}
	return verr
}

func firstLine(lines []string) string {
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			return s
		}
	}
	return ""
}
