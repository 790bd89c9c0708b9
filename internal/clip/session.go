package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cadenza/internal/fileutil"
	"cadenza/internal/logging"
	"cadenza/internal/musicgpt"
	"cadenza/internal/services"
)

// State names where a unit session currently stands. Transitions only move
// forward; a terminal state is never left.
type State string

const (
	StateSubmitted  State = "submitted"
	StateStarted    State = "started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
)

// EventStream is the slice of the duplex stream a session needs. Satisfied
// by musicgpt.Stream.
type EventStream interface {
	Send(req musicgpt.GenerationRequest) error
	Next(timeout time.Duration) (musicgpt.Event, error)
}

// Downloader fetches a produced artifact by its backend-relative path.
// Satisfied by musicgpt.FileClient.
type Downloader interface {
	Download(ctx context.Context, relPath string) ([]byte, error)
}

// Options tune one session. Zero values fall back to the package defaults.
type Options struct {
	// SessionTimeout is the wall-clock ceiling for the whole unit.
	SessionTimeout time.Duration
	// ReadTimeout is the stream poll window between filesystem re-checks.
	ReadTimeout time.Duration
	// MinBytes is the size floor; an artifact must exceed it to count.
	MinBytes int64
	Logger   *slog.Logger
	// OnProgress receives strictly increasing fractions in 0..1.
	OnProgress func(fraction float64)
}

const (
	defaultSessionTimeout = 10 * time.Minute
	defaultReadTimeout    = time.Second
	defaultMinBytes       = 50_000
)

// Session drives a single unit from submission to a terminal state. It owns
// no connection; the caller shares one stream across sequential sessions.
type Session struct {
	stream EventStream
	files  Downloader
	opts   Options
	logger *slog.Logger
}

// NewSession builds a session over a shared stream and download client.
func NewSession(stream EventStream, files Downloader, opts Options) *Session {
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaultSessionTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.MinBytes <= 0 {
		opts.MinBytes = defaultMinBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{stream: stream, files: files, opts: opts, logger: logger}
}

// Result reports how a session ended.
type Result struct {
	State State
	// RequestID is empty when the unit was satisfied without a submission.
	RequestID string
	// RelPath is the backend path the artifact was downloaded from.
	RelPath string
	// Resumed is true when a prior artifact satisfied the unit and nothing
	// was sent to the backend.
	Resumed bool
	Elapsed time.Duration
}

// Run executes the unit. An existing artifact exceeding MinBytes satisfies
// it immediately with zero backend interaction. Otherwise one request is
// submitted and the session polls the stream, re-checking the filesystem
// between polls so an out-of-band artifact also completes the unit.
func (s *Session) Run(ctx context.Context, prompt string, seconds int, outputPath string) (Result, error) {
	started := time.Now()

	if fileutil.SizeExceeds(outputPath, s.opts.MinBytes) {
		s.logger.Info("artifact already present, skipping generation",
			logging.String("path", outputPath))
		return Result{State: StateCompleted, Resumed: true, Elapsed: time.Since(started)}, nil
	}

	req := musicgpt.NewGenerationRequest(prompt, seconds)
	if err := s.stream.Send(req); err != nil {
		return Result{State: StateFailed, RequestID: req.ID, Elapsed: time.Since(started)},
			services.Wrap(services.ErrConnectivity, "clip", "submit", "send generation request", err)
	}
	s.logger.Info("generation request submitted",
		logging.String("request_id", req.ID),
		logging.Int("seconds", seconds))

	state := StateSubmitted
	startObserved := false
	lastProgress := -1.0
	deadline := started.Add(s.opts.SessionTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return Result{State: StateFailed, RequestID: req.ID, Elapsed: time.Since(started)},
				services.Wrap(services.ErrTimeout, "clip", "poll", "session canceled", err)
		}

		// Filesystem completion detector; the backend does not always
		// confirm over the stream.
		if fileutil.SizeExceeds(outputPath, s.opts.MinBytes) {
			s.logger.Info("artifact detected on disk",
				logging.String("request_id", req.ID),
				logging.String("path", outputPath))
			return Result{State: StateCompleted, RequestID: req.ID, Elapsed: time.Since(started)}, nil
		}

		event, err := s.stream.Next(s.opts.ReadTimeout)
		if err != nil {
			if errors.Is(err, musicgpt.ErrReadTimeout) {
				continue
			}
			return Result{State: StateFailed, RequestID: req.ID, Elapsed: time.Since(started)},
				services.Wrap(services.ErrConnectivity, "clip", "poll", "read event stream", err)
		}

		switch event.Type {
		case musicgpt.EventStarted:
			if !startObserved {
				startObserved = true
				state = StateStarted
				s.logger.Info("generation started", logging.String("request_id", req.ID))
			}

		case musicgpt.EventProgress:
			if event.Progress > lastProgress {
				lastProgress = event.Progress
				if startObserved {
					state = StateInProgress
				}
				if s.opts.OnProgress != nil {
					s.opts.OnProgress(event.Progress)
				}
				s.logger.Debug("generation progress",
					logging.String("request_id", req.ID),
					logging.Float64("progress", event.Progress))
			}

		case musicgpt.EventResult:
			if err := s.fetchArtifact(ctx, event.RelPath, outputPath); err != nil {
				return Result{State: StateFailed, RequestID: req.ID, RelPath: event.RelPath, Elapsed: time.Since(started)}, err
			}
			s.logger.Info("artifact downloaded",
				logging.String("request_id", req.ID),
				logging.String("relpath", event.RelPath))
			return Result{State: StateCompleted, RequestID: req.ID, RelPath: event.RelPath, Elapsed: time.Since(started)}, nil

		case musicgpt.EventError:
			return Result{State: StateFailed, RequestID: req.ID, Elapsed: time.Since(started)},
				services.Wrap(services.ErrGeneration, "clip", "generate", event.Message, nil)

		default:
			// Info, Chats, and unrecognized payloads are not addressed to
			// this session.
		}
	}

	// The message keys on whether a Start event was ever seen, not on
	// progress chatter; a backend can emit progress for a foreign request.
	message := "generation timeout"
	if !startObserved {
		message = "generation never started"
	}
	s.logger.Warn("generation session expired",
		logging.String("request_id", req.ID),
		logging.String("state", string(state)))
	return Result{State: StateTimedOut, RequestID: req.ID, Elapsed: time.Since(started)},
		services.Wrap(services.ErrTimeout, "clip", "poll",
			fmt.Sprintf("%s after %s", message, s.opts.SessionTimeout), nil)
}

func (s *Session) fetchArtifact(ctx context.Context, relPath, outputPath string) error {
	data, err := s.files.Download(ctx, relPath)
	if err != nil {
		return services.Wrap(services.ErrDownload, "clip", "download", relPath, err)
	}
	if int64(len(data)) <= s.opts.MinBytes {
		return services.Wrap(services.ErrDownload, "clip", "download",
			fmt.Sprintf("artifact %s is %d bytes, not above the %d byte floor", relPath, len(data), s.opts.MinBytes), nil)
	}
	if err := fileutil.WriteFileAtomic(outputPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrDownload, "clip", "persist", outputPath, err)
	}
	return nil
}
