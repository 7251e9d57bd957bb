package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/altukhov/jarship/internal/deploy"
	"github.com/altukhov/jarship/internal/lg"
	"github.com/altukhov/jarship/internal/remote"
	"github.com/altukhov/jarship/internal/transfer"
	"github.com/altukhov/jarship/pkg/config"
	"github.com/altukhov/jarship/pkg/events"
	"github.com/altukhov/jarship/pkg/history"
	"github.com/altukhov/jarship/pkg/history/filestore"
	"github.com/altukhov/jarship/pkg/history/mongostore"
)

func main() {
	configPath := flag.String("config", "jarship.yaml", "path to deployment config")
	targetName := flag.String("target", "", "deploy only to the named target")
	debug := flag.Bool("debug", false, "enable debug logging")
	logFormat := flag.String("log-format", "json", "json or console")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := lg.New(&lg.Config{ServiceName: cfg.Service.Name, Debug: *debug, Format: *logFormat})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *targetName, logger); err != nil {
		logger.Error("deployment failed", lg.Err(err))
		_ = logger.Sync() // os.Exit skips the defer
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, targetName string, logger lg.Logger) error {
	targets := cfg.Targets
	if targetName != "" {
		t, err := cfg.FindTarget(targetName)
		if err != nil {
			return err
		}
		targets = []config.Target{t}
	}

	store, err := historyStore(cfg)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
	}
	defer publisher.Close()

	artifact := deploy.Artifact{
		LocalPath:  cfg.Artifact.LocalPath,
		RemoteName: cfg.Artifact.RemoteName,
	}

	return deployAll(ctx, targets, func(ctx context.Context, tc config.Target) error {
		return deployTarget(ctx, cfg, tc, artifact, logger, store, publisher)
	})
}

// deployAll fans out over the targets, one run per target. Each run is
// independent: a sibling's failure never cancels the others, only the
// caller's context (signal handling) does. Every target's failure is
// reported, not just the first.
func deployAll(ctx context.Context, targets []config.Target, deployOne func(context.Context, config.Target) error) error {
	var g errgroup.Group
	errs := make([]error, len(targets))
	for i, tc := range targets {
		i, tc := i, tc
		g.Go(func() error {
			errs[i] = deployOne(ctx, tc)
			return errs[i]
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func deployTarget(ctx context.Context, cfg *config.Config, tc config.Target, artifact deploy.Artifact,
	logger lg.Logger, store history.Store, publisher events.Publisher) error {

	client, err := remote.Dial(remote.ClientOptions{
		Addr:           fmt.Sprintf("%s:%d", tc.Host, tc.SSHPort),
		User:           tc.User,
		KeyPath:        cfg.SSH.KeyPath,
		Password:       cfg.Password(),
		KnownHostsPath: cfg.SSH.KnownHostsPath,
		ConnectTimeout: cfg.SSH.ConnectTimeout.Std(),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	target := deploy.Target{
		Name:       tc.Name,
		Host:       tc.Host,
		SSHPort:    tc.SSHPort,
		User:       tc.User,
		DeployDir:  tc.DeployDir,
		BackupDir:  tc.BackupDir,
		LogFile:    tc.LogFile,
		ListenPort: tc.ListenPort,
		Java: deploy.JavaOpts{
			HeapMin: tc.Java.HeapMin,
			HeapMax: tc.Java.HeapMax,
			GC:      tc.Java.GC,
			Profile: tc.Java.Profile,
			Extra:   tc.Java.Extra,
		},
	}

	orch := deploy.New(
		remote.NewSSHRunner(client),
		transfer.NewSSHUploader(client.SSHClient),
		logger,
		deploy.Options{
			StopGrace:        cfg.Stop.Grace.Std(),
			StopPollInterval: cfg.Stop.PollInterval.Std(),
			VerifyAttempts:   cfg.Verify.Attempts,
			VerifyInterval:   cfg.Verify.Interval.Std(),
		},
	)

	run := deploy.NewRun(target, artifact, time.Now())
	publishStarted(ctx, publisher, run)

	orch.DeployRun(ctx, run)

	publishOutcome(ctx, publisher, run)
	if err := store.Append(ctx, recordOf(run)); err != nil {
		logger.Warn("failed to record deployment history", lg.Err(err))
	}

	if run.Outcome != deploy.OutcomeSucceeded {
		return fmt.Errorf("target %s: %s at stage %s", tc.Name, run.FailureReason, run.Stage)
	}
	return nil
}

func historyStore(cfg *config.Config) (history.Store, error) {
	switch cfg.History.Store {
	case "mongo":
		return mongostore.New(cfg.History.URI, cfg.History.DBName, cfg.History.CollName)
	default:
		return filestore.New(cfg.History.Path), nil
	}
}

func publishStarted(ctx context.Context, publisher events.Publisher, run *deploy.Run) {
	_ = publisher.Publish(ctx, events.Event{
		RunID:    run.ID,
		Kind:     events.KindStarted,
		Target:   run.Target.Name,
		Host:     run.Target.Host,
		Artifact: run.Artifact.RemoteName,
		Stage:    run.Stage.String(),
		Time:     run.StartedAt,
	})
}

func publishOutcome(ctx context.Context, publisher events.Publisher, run *deploy.Run) {
	kind := events.KindSucceeded
	if run.Outcome == deploy.OutcomeFailed {
		kind = events.KindFailed
	}
	_ = publisher.Publish(ctx, events.Event{
		RunID:    run.ID,
		Kind:     kind,
		Target:   run.Target.Name,
		Host:     run.Target.Host,
		Artifact: run.Artifact.RemoteName,
		Stage:    run.Stage.String(),
		Reason:   run.FailureReason,
		Time:     run.FinishedAt,
	})
}

func recordOf(run *deploy.Run) history.Record {
	return history.Record{
		RunID:      run.ID.String(),
		Target:     run.Target.Name,
		Host:       run.Target.Host,
		Artifact:   run.Artifact.RemoteName,
		Outcome:    string(run.Outcome),
		Stage:      run.Stage.String(),
		Reason:     run.FailureReason,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
