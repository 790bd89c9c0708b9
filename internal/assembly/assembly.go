// Package assembly concatenates unit artifacts into the final track and
// derives the compressed listening copy, both via ffmpeg.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cadenza/internal/fileutil"
	"cadenza/internal/logging"
	"cadenza/internal/services"
)

var commandContext = exec.CommandContext

// ManifestName is the concat list consumed by ffmpeg. It lives in the output
// directory for the duration of the assembly and is removed afterwards.
const ManifestName = "file_list.txt"

// Options configure one assembler.
type Options struct {
	// Binary is the ffmpeg executable name or path.
	Binary string
	// Timeout bounds each ffmpeg invocation.
	Timeout time.Duration
	// MinFinalBytes is the size floor for the concatenated artifact.
	MinFinalBytes int64
	Logger        *slog.Logger
}

// Assembler runs the ffmpeg concat and transcode steps.
type Assembler struct {
	binary        string
	timeout       time.Duration
	minFinalBytes int64
	logger        *slog.Logger
}

// New builds an assembler. Zero options fall back to ffmpeg on PATH, a ten
// minute timeout, and no size floor.
func New(opts Options) *Assembler {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		binary:        opts.Binary,
		timeout:       opts.Timeout,
		minFinalBytes: opts.MinFinalBytes,
		logger:        logger,
	}
}

// WriteManifest writes the concat list into dir. Entries are relative
// filenames so the manifest works regardless of where dir is mounted.
func WriteManifest(dir string, clipNames []string) (string, error) {
	var b strings.Builder
	for _, name := range clipNames {
		fmt.Fprintf(&b, "file '%s'\n", name)
	}
	path := filepath.Join(dir, ManifestName)
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return "", services.Wrap(services.ErrAssembly, "assembly", "manifest", path, err)
	}
	return path, nil
}

// Concat joins the unit artifacts into finalPath with a stream copy. The
// clips must share a codec and sample rate, which holds for backend output.
// ffmpeg runs inside dir, so every path argument is a bare filename and the
// output directory may be caller-relative.
func (a *Assembler) Concat(ctx context.Context, dir string, clipNames []string, finalPath string) error {
	manifest, err := WriteManifest(dir, clipNames)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(manifest)
	}()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", ManifestName,
		"-c", "copy",
		filepath.Base(finalPath),
	}
	if err := a.run(ctx, dir, args); err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "concat", "join unit artifacts", err)
	}

	if !fileutil.SizeExceeds(finalPath, a.minFinalBytes) {
		return services.Wrap(services.ErrAssembly, "assembly", "concat",
			fmt.Sprintf("final artifact %s missing or not above %d bytes", finalPath, a.minFinalBytes), nil)
	}
	a.logger.Info("final artifact assembled",
		logging.String("path", finalPath),
		logging.Int("clips", len(clipNames)))
	return nil
}

// DeriveMP3 transcodes the final artifact into an mp3 alongside it and
// returns the mp3 path.
func (a *Assembler) DeriveMP3(ctx context.Context, finalPath string) (string, error) {
	mp3Path := strings.TrimSuffix(finalPath, ".wav") + ".mp3"

	args := []string{
		"-y",
		"-i", filepath.Base(finalPath),
		"-codec:a", "libmp3lame",
		"-qscale:a", "2",
		filepath.Base(mp3Path),
	}
	if err := a.run(ctx, filepath.Dir(finalPath), args); err != nil {
		return "", services.Wrap(services.ErrAssembly, "assembly", "transcode", "derive mp3", err)
	}
	if !fileutil.SizeExceeds(mp3Path, 0) {
		return "", services.Wrap(services.ErrAssembly, "assembly", "transcode",
			fmt.Sprintf("mp3 artifact %s was not produced", mp3Path), nil)
	}
	a.logger.Info("mp3 artifact derived", logging.String("path", mp3Path))
	return mp3Path, nil
}

func (a *Assembler) run(ctx context.Context, dir string, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := commandContext(runCtx, a.binary, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("%s %s: %w: %s", a.binary, strings.Join(args, " "), err, tail(detail, 400))
		}
		return fmt.Errorf("%s %s: %w", a.binary, strings.Join(args, " "), err)
	}
	return nil
}

// tail keeps the end of ffmpeg output, where the actual error lives.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
