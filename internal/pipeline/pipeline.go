package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Nasawa/update-tuya-ips/internal/notify"
	"github.com/Nasawa/update-tuya-ips/internal/reconcile"
	"github.com/Nasawa/update-tuya-ips/internal/snapshot"
	"github.com/Nasawa/update-tuya-ips/internal/store"
	"github.com/Nasawa/update-tuya-ips/internal/tools"
)

var (
	ErrScanFailed    = errors.New("pipeline: scan failed")
	ErrInvalidConfig = errors.New("pipeline: invalid config")
)

const (
	StepScanning    = "scanning"
	StepBackingUp   = "backing_up"
	StepStaging     = "staging"
	StepReconciling = "reconciling"
	StepCommitting  = "committing"
	StepNotifying   = "notifying"
	StepDone        = "done"
)

// StepError marks a fatal failure at one pipeline step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline: step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep extracts the failed step name from a fatal pipeline error.
func FailedStep(err error) (string, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}

// StepResult is one audit-trail record for a pipeline transition.
type StepResult struct {
	Step   string
	OK     bool
	Stdout string
	Stderr string
	Err    error
}

// Result summarizes one pipeline run for the caller.
type Result struct {
	RunID        string
	Steps        []StepResult
	Changes      []reconcile.Change
	Warnings     []reconcile.Warning
	Skipped      []snapshot.SkipWarning
	Updated      bool
	NotifyFailed bool
}

// Config holds every input the pipeline needs for one run.
type Config struct {
	ConfigFile   string
	BackupFile   string
	WorkFile     string
	SnapshotFile string

	ScanCommand string
	ScanArgs    []string
	// ScanTimeout bounds the scanner subprocess; zero means no deadline.
	ScanTimeout time.Duration

	Topic string
}

// Validate enforces the fields every step depends on.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"config file", c.ConfigFile},
		{"backup file", c.BackupFile},
		{"work file", c.WorkFile},
		{"snapshot file", c.SnapshotFile},
		{"scan command", c.ScanCommand},
		{"topic", c.Topic},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidConfig, item.name)
		}
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("%w: negative scan timeout", ErrInvalidConfig)
	}
	return nil
}

// Service owns one migration run end to end: it holds the config document's
// in-memory lifetime between load and commit. Runs are single-instance;
// concurrent runs against the same config document are unsupported.
type Service struct {
	cfg      Config
	runner   tools.CommandRunner
	notifier notify.Notifier
	logger   zerolog.Logger

	// runLogger carries the current run id; set once per Run.
	runLogger zerolog.Logger
}

// NewService wires a pipeline with explicit collaborators. A nil runner
// falls back to local host execution.
func NewService(cfg Config, runner tools.CommandRunner, notifier notify.Notifier, logger zerolog.Logger) *Service {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Service{
		cfg:      cfg,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
	}
}

type stepFunc func(ctx context.Context, res *Result) (string, string, error)

// Run drives the strictly ordered step sequence
// scanning -> backing_up -> staging -> reconciling -> committing -> notifying.
// Any failure before notifying aborts the run at that step; a notify failure
// is logged and the run still completes.
func (s *Service) Run(ctx context.Context) (Result, error) {
	result := Result{
		RunID:    uuid.NewString(),
		Steps:    make([]StepResult, 0, 6),
		Changes:  make([]reconcile.Change, 0),
		Warnings: make([]reconcile.Warning, 0),
		Skipped:  make([]snapshot.SkipWarning, 0),
	}
	s.runLogger = s.logger.With().Str("run_id", result.RunID).Logger()
	logger := s.runLogger

	if err := s.cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("pipeline.Service.Run rejected config")
		return result, err
	}

	sequence := []struct {
		name string
		fn   stepFunc
	}{
		{StepScanning, s.scan},
		{StepBackingUp, s.backup},
		{StepStaging, s.stage},
		{StepReconciling, s.reconcile},
		{StepCommitting, s.commit},
	}
	for _, step := range sequence {
		if err := s.runStep(ctx, &result, logger, step.name, step.fn); err != nil {
			return result, err
		}
	}

	if err := s.runStep(ctx, &result, logger, StepNotifying, s.notify); err != nil {
		// Committed state is already durable; the reboot signal is best effort.
		result.NotifyFailed = true
	}

	logger.Info().
		Str("step", StepDone).
		Bool("updated", result.Updated).
		Int("changes", len(result.Changes)).
		Bool("notify_failed", result.NotifyFailed).
		Msg("pipeline.Service.Run complete")
	return result, nil
}

// runStep executes one transition and records its audit entry.
func (s *Service) runStep(ctx context.Context, res *Result, logger zerolog.Logger, name string, fn stepFunc) error {
	stdout, stderr, err := fn(ctx, res)
	record := StepResult{
		Step:   name,
		OK:     err == nil,
		Stdout: stdout,
		Stderr: stderr,
		Err:    err,
	}
	res.Steps = append(res.Steps, record)

	var event *zerolog.Event
	if err != nil {
		event = logger.Error().Err(err)
	} else {
		event = logger.Info()
	}
	if stdout != "" {
		event = event.Str("stdout", stdout)
	}
	if stderr != "" {
		event = event.Str("stderr", stderr)
	}
	event.Str("step", name).Bool("ok", err == nil).Msg("pipeline step")

	if err != nil {
		return &StepError{Step: name, Err: err}
	}
	return nil
}

// scan invokes the external scanner and verifies the snapshot it produced.
func (s *Service) scan(ctx context.Context, _ *Result) (string, string, error) {
	runCtx := ctx
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	stdout, stderr, exitCode, err := s.runner.Run(runCtx, s.cfg.ScanCommand, s.cfg.ScanArgs...)
	if err != nil {
		return string(stdout), string(stderr), fmt.Errorf("%w: %s exit=%d: %v", ErrScanFailed, s.cfg.ScanCommand, exitCode, err)
	}

	if _, err := os.ReadFile(s.cfg.SnapshotFile); err != nil {
		return string(stdout), string(stderr), fmt.Errorf("%w: snapshot unreadable: %v", ErrScanFailed, err)
	}
	return string(stdout), string(stderr), nil
}

// backup copies the live config document aside and verifies it is readable.
// Proceeding without a verified backup risks unrecoverable data loss.
func (s *Service) backup(_ context.Context, _ *Result) (string, string, error) {
	if err := copyFile(s.cfg.ConfigFile, s.cfg.BackupFile); err != nil {
		return "", "", err
	}
	if _, err := os.ReadFile(s.cfg.BackupFile); err != nil {
		return "", "", fmt.Errorf("backup verification failed: %w", err)
	}
	return "", "", nil
}

// stage copies the live config document to the working location so that
// reconciliation never touches the live file before commit.
func (s *Service) stage(_ context.Context, _ *Result) (string, string, error) {
	return "", "", copyFile(s.cfg.ConfigFile, s.cfg.WorkFile)
}

// reconcile loads the snapshot and working copy, runs the engine, and writes
// the working copy back when anything changed.
func (s *Service) reconcile(_ context.Context, res *Result) (string, string, error) {
	rawSnapshot, err := os.ReadFile(s.cfg.SnapshotFile)
	if err != nil {
		return "", "", err
	}
	idx, skipped, err := snapshot.Parse(rawSnapshot)
	if err != nil {
		return "", "", err
	}
	res.Skipped = skipped
	for _, skip := range skipped {
		s.runLogger.Warn().
			Int("index", skip.Index).
			Str("id", skip.Record.ID).
			Str("ip", skip.Record.IP).
			Msgf("pipeline.Service.reconcile skipped device: %s", skip.Reason)
	}
	s.runLogger.Info().Int("devices", len(idx)).Msg("pipeline.Service.reconcile snapshot indexed")

	rawConfig, err := os.ReadFile(s.cfg.WorkFile)
	if err != nil {
		return "", "", err
	}
	doc, err := store.Load(rawConfig)
	if err != nil {
		return "", "", err
	}
	entries := doc.Entries()
	s.runLogger.Info().
		Strs("top_level_keys", doc.TopLevelKeys()).
		Int("entries", len(entries)).
		Msg("pipeline.Service.reconcile config loaded")

	outcome := reconcile.Reconcile(idx, entries)
	res.Changes = outcome.Changes
	res.Warnings = outcome.Warnings
	res.Updated = outcome.Updated()

	for _, warn := range outcome.Warnings {
		s.runLogger.Debug().
			Str("title", warn.Title).
			Str("device_id", warn.DeviceID).
			Str("reason", warn.Reason).
			Msg("pipeline.Service.reconcile entry unmatched")
	}
	for _, change := range outcome.Changes {
		s.runLogger.Info().Msg(change.String())
	}

	if !outcome.Updated() {
		s.runLogger.Info().Msg("pipeline.Service.reconcile no matching device ids, nothing to update")
		return "", "", nil
	}

	serialized, err := doc.Serialize()
	if err != nil {
		return "", "", err
	}
	return "", "", os.WriteFile(s.cfg.WorkFile, serialized, 0o644)
}

// commit copies the reconciled working copy back over the live document.
func (s *Service) commit(_ context.Context, _ *Result) (string, string, error) {
	return "", "", copyFile(s.cfg.WorkFile, s.cfg.ConfigFile)
}

// notify publishes the reboot request once. The caller treats failure here
// as non-fatal.
func (s *Service) notify(_ context.Context, _ *Result) (string, string, error) {
	if s.notifier == nil {
		return "", "", fmt.Errorf("%w: no notifier configured", notify.ErrPublish)
	}
	return "", "", s.notifier.Publish(s.cfg.Topic, notify.RebootPayload)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
