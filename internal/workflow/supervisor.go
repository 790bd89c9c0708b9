package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"cadenza/internal/assembly"
	"cadenza/internal/audit"
	"cadenza/internal/clip"
	"cadenza/internal/config"
	"cadenza/internal/fileutil"
	"cadenza/internal/ledger"
	"cadenza/internal/logging"
	"cadenza/internal/musicgpt"
	"cadenza/internal/prompts"
	"cadenza/internal/services"
)

const handshakeTimeout = 10 * time.Second

// ClipFilename returns the artifact name for a unit ordinal.
func ClipFilename(ordinal int) string {
	return fmt.Sprintf("clip_%02d.wav", ordinal)
}

// streamConn is the slice of the duplex stream the supervisor manages.
// Satisfied by musicgpt.Stream.
type streamConn interface {
	clip.EventStream
	Handshake(count int, timeout time.Duration) ([]string, error)
	Close() error
}

// Assembler runs the final concatenation and transcode steps.
type Assembler interface {
	Concat(ctx context.Context, dir string, clipNames []string, finalPath string) error
	DeriveMP3(ctx context.Context, finalPath string) (string, error)
}

// unitRunner drives one clip session. Satisfied by clip.Session.
type unitRunner interface {
	Run(ctx context.Context, prompt string, seconds int, outputPath string) (clip.Result, error)
}

// Request names the work for one run.
type Request struct {
	Plan prompts.Plan
	// FinalName is the final artifact filename inside the output directory,
	// e.g. "mix.wav".
	FinalName string
}

// Outcome reports where the run left its artifacts.
type Outcome struct {
	FinalPath string
	MP3Path   string
	AuditPath string
	// Resumed is true when the final artifact already satisfied the run and
	// no backend work happened.
	Resumed bool
	// Generated counts units that required a backend dispatch.
	Generated int
	// Skipped counts units satisfied by existing artifacts.
	Skipped int
}

// Supervisor executes a composed plan: one clip session per unit in strict
// ordinal order, then assembly. A run holds an exclusive lock on its output
// directory so two runs never interleave artifacts.
type Supervisor struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	reporter Reporter

	// Seams replaced by tests.
	dial       func(ctx context.Context, url string) (streamConn, error)
	newSession func(stream clip.EventStream, files clip.Downloader, opts clip.Options) unitRunner
	assembler  Assembler
	sleep      func(ctx context.Context, d time.Duration) error
}

// New builds a supervisor. store may be nil when history recording is
// disabled; reporter may be nil for silent runs.
func New(cfg *config.Config, logger *slog.Logger, store *ledger.Store, reporter Reporter) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	s := &Supervisor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		store:    store,
		reporter: reporter,
		sleep:    contextSleep,
	}
	s.dial = func(ctx context.Context, url string) (streamConn, error) {
		return musicgpt.Dial(ctx, url)
	}
	s.newSession = func(stream clip.EventStream, files clip.Downloader, opts clip.Options) unitRunner {
		return clip.NewSession(stream, files, opts)
	}
	s.assembler = assembly.New(assembly.Options{
		Binary:        cfg.Assembly.FFmpegBinary,
		Timeout:       time.Duration(cfg.Assembly.TimeoutSeconds) * time.Second,
		MinFinalBytes: cfg.Backend.MinFinalBytes,
		Logger:        logger,
	})
	return s
}

// Run executes the plan to completion or the first unit failure.
func (s *Supervisor) Run(ctx context.Context, req Request) (Outcome, error) {
	if len(req.Plan.Units) == 0 {
		return Outcome{}, services.Wrap(services.ErrValidation, "workflow", "run", "plan has no units", nil)
	}
	if req.FinalName == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "workflow", "run", "final name is required", nil)
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "workflow", "run", "ensure directories", err)
	}

	outputDir := s.cfg.Paths.OutputDir
	finalPath := filepath.Join(outputDir, req.FinalName)
	auditPath := audit.PathForFinal(finalPath)

	lock := flock.New(filepath.Join(outputDir, ".cadenza.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "workflow", "lock", "acquire output directory lock", err)
	}
	if !locked {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "workflow", "lock",
			fmt.Sprintf("another run is active in %s", outputDir), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := s.beginRun(ctx, req)
	s.reporter.RunStarted(req.Plan, finalPath)

	// A complete final artifact satisfies the whole run without touching
	// the backend. The audit log is still rebuilt so it matches the plan.
	if fileutil.SizeExceeds(finalPath, s.cfg.Backend.MinFinalBytes) {
		s.logger.Info("final artifact already complete",
			logging.String("path", finalPath))
		outcome := Outcome{FinalPath: finalPath, AuditPath: auditPath, Resumed: true, Skipped: len(req.Plan.Units)}
		s.writeAudit(auditPath, req, finalPath)
		mp3Path, err := s.ensureMP3(ctx, finalPath)
		if err != nil {
			s.failRun(ctx, runID, err)
			return outcome, err
		}
		outcome.MP3Path = mp3Path
		s.completeRun(ctx, runID)
		s.reporter.RunCompleted(outcome)
		return outcome, nil
	}

	outcome, err := s.runUnits(ctx, req, runID, outputDir)
	if err != nil {
		s.failRun(ctx, runID, err)
		return outcome, err
	}

	// The prompt log lands before assembly so a failed concat still leaves
	// a record of what was generated.
	s.writeAudit(auditPath, req, finalPath)
	outcome.AuditPath = auditPath

	clipNames := make([]string, len(req.Plan.Units))
	for i, unit := range req.Plan.Units {
		clipNames[i] = ClipFilename(unit.Ordinal)
	}
	s.reporter.AssemblyStarted(finalPath)
	if err := s.assembler.Concat(ctx, outputDir, clipNames, finalPath); err != nil {
		s.failRun(ctx, runID, err)
		return outcome, err
	}
	outcome.FinalPath = finalPath

	mp3Path, err := s.assembler.DeriveMP3(ctx, finalPath)
	if err != nil {
		s.failRun(ctx, runID, err)
		return outcome, err
	}
	outcome.MP3Path = mp3Path

	s.completeRun(ctx, runID)
	s.reporter.RunCompleted(outcome)
	return outcome, nil
}

// runUnits drives each unit session in ordinal order, failing fast on the
// first terminal failure.
func (s *Supervisor) runUnits(ctx context.Context, req Request, runID int64, outputDir string) (Outcome, error) {
	outcome := Outcome{}
	units := req.Plan.Units
	total := len(units)

	var stream streamConn
	defer func() {
		if stream != nil {
			_ = stream.Close()
		}
	}()

	files := musicgpt.NewFileClient(s.cfg.FilesBaseURL(),
		time.Duration(s.cfg.Backend.DownloadTimeoutSecs)*time.Second)

	dispatchedPrev := false
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return outcome, services.Wrap(services.ErrTimeout, "workflow", "run", "run canceled", err)
		}

		clipPath := filepath.Join(outputDir, ClipFilename(unit.Ordinal))
		needsDispatch := !fileutil.SizeExceeds(clipPath, s.cfg.Backend.MinClipBytes)

		if needsDispatch && stream == nil {
			conn, err := s.dial(ctx, s.cfg.WebSocketURL())
			if err != nil {
				return outcome, services.Wrap(services.ErrConnectivity, "workflow", "dial", s.cfg.WebSocketURL(), err)
			}
			stream = conn
			if _, err := stream.Handshake(s.cfg.Backend.HandshakeMessages, handshakeTimeout); err != nil {
				return outcome, services.Wrap(services.ErrConnectivity, "workflow", "handshake", "backend greeting", err)
			}
		}

		// The backend needs settle time between consecutive generations;
		// resumed units dispatch nothing and need no gap.
		if needsDispatch && dispatchedPrev {
			if err := s.sleep(ctx, time.Duration(s.cfg.Backend.UnitDelaySeconds)*time.Second); err != nil {
				return outcome, services.Wrap(services.ErrTimeout, "workflow", "run", "run canceled", err)
			}
		}

		s.reporter.UnitStarted(unit, total)
		ordinal := unit.Ordinal
		session := s.newSession(stream, files, clip.Options{
			SessionTimeout: time.Duration(s.cfg.Backend.SessionTimeoutSeconds) * time.Second,
			ReadTimeout:    time.Duration(s.cfg.Backend.StreamReadTimeoutMS) * time.Millisecond,
			MinBytes:       s.cfg.Backend.MinClipBytes,
			Logger:         s.logger,
			OnProgress: func(fraction float64) {
				s.reporter.UnitProgress(ordinal, fraction)
			},
		})

		result, err := session.Run(ctx, unit.Prompt, unit.Seconds, clipPath)
		s.recordUnit(ctx, runID, unit, result)
		if err != nil {
			return outcome, fmt.Errorf("unit %d/%d: %w", unit.Ordinal, total, err)
		}
		s.reporter.UnitCompleted(unit, result)

		if result.Resumed {
			outcome.Skipped++
		} else {
			outcome.Generated++
		}
		dispatchedPrev = !result.Resumed
	}
	return outcome, nil
}

// ensureMP3 derives the mp3 when it is absent, leaving an existing one alone.
func (s *Supervisor) ensureMP3(ctx context.Context, finalPath string) (string, error) {
	mp3Path := finalPath[:len(finalPath)-len(filepath.Ext(finalPath))] + ".mp3"
	if fileutil.SizeExceeds(mp3Path, 0) {
		return mp3Path, nil
	}
	return s.assembler.DeriveMP3(ctx, finalPath)
}

func (s *Supervisor) writeAudit(auditPath string, req Request, finalPath string) {
	log := audit.Log{
		Plan:        req.Plan,
		FinalName:   filepath.Base(finalPath),
		GeneratedAt: time.Now(),
	}
	if err := audit.Write(auditPath, log, ClipFilename); err != nil {
		s.logger.Warn("prompt log not written",
			logging.String("path", auditPath),
			logging.Error(err))
	}
}

func (s *Supervisor) beginRun(ctx context.Context, req Request) int64 {
	if s.store == nil {
		return 0
	}
	run, err := s.store.BeginRun(ctx, ledger.Run{
		FinalName:    req.FinalName,
		BasePrompt:   req.Plan.BasePrompt,
		Strategy:     string(req.Plan.Strategy),
		Structure:    req.Plan.Structure,
		UnitCount:    len(req.Plan.Units),
		TotalSeconds: req.Plan.TotalSeconds(),
	})
	if err != nil {
		s.logger.Warn("run history not recorded", logging.Error(err))
		return 0
	}
	return run.ID
}

func (s *Supervisor) recordUnit(ctx context.Context, runID int64, unit prompts.Unit, result clip.Result) {
	if s.store == nil || runID == 0 {
		return
	}
	err := s.store.RecordUnit(ctx, runID, ledger.Unit{
		Ordinal: unit.Ordinal,
		Label:   unit.Label,
		Prompt:  unit.Prompt,
		Seconds: unit.Seconds,
		State:   string(result.State),
		RelPath: result.RelPath,
		Resumed: result.Resumed,
		Elapsed: result.Elapsed,
	})
	if err != nil {
		s.logger.Warn("unit history not recorded",
			logging.Int("ordinal", unit.Ordinal),
			logging.Error(err))
	}
}

func (s *Supervisor) completeRun(ctx context.Context, runID int64) {
	if s.store == nil || runID == 0 {
		return
	}
	if err := s.store.CompleteRun(ctx, runID); err != nil {
		s.logger.Warn("run completion not recorded", logging.Error(err))
	}
}

func (s *Supervisor) failRun(ctx context.Context, runID int64, cause error) {
	if s.store == nil || runID == 0 {
		return
	}
	if err := s.store.FailRun(ctx, runID, cause.Error()); err != nil {
		s.logger.Warn("run failure not recorded", logging.Error(err))
	}
}

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
