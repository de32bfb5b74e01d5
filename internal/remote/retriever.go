package remote

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/playlist-sync/internal/platform"
)

// Executable and retry constants
const (
	DefaultCommand          = "yt-dlp"
	DefaultRetrievalTimeout = 10 * time.Minute
	DefaultMaxRetries       = 1
	RetryBackoff            = 2 * time.Second
)

// Output template passed to yt-dlp so the finished artifact can be located by
// item ID.
const OutputTemplate = "%(id)s.%(ext)s"

// Partial-download extensions that must never be picked up as artifacts.
var skippedExtensions = []string{".part", ".ytdl"}

// Markers in yt-dlp output that identify permanently excluded items.
var permanentFailureMarkers = []string{
	"video unavailable",
	"private video",
	"this video is not available",
	"age restricted",
	"sign in to confirm your age",
	"account associated with this video has been terminated",
	"video has been removed",
}

// Request describes one item to materialize into a staging directory.
type Request struct {
	ItemID       string
	TargetFormat string
	// QualityCeiling is the maximum video height in pixels; 0 means no
	// ceiling. Ignored for audio formats.
	QualityCeiling int
	StagingDir     string
}

// Retriever materializes remote items as finished media files in a staging
// directory, with metadata and cover art already embedded.
type Retriever interface {
	Materialize(ctx context.Context, req Request) (string, error)
}

// ExecRetriever shells out to the yt-dlp executable for retrieval and
// transcoding.
type ExecRetriever struct {
	command    string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewExecRetriever creates a retriever backed by the given executable.
// An empty command falls back to "yt-dlp" resolved from PATH.
func NewExecRetriever(command string, logger *zap.Logger) *ExecRetriever {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRetriever{
		command:    command,
		timeout:    DefaultRetrievalTimeout,
		maxRetries: DefaultMaxRetries,
		logger:     logger,
	}
}

// SetTimeout sets the per-item retrieval timeout.
func (r *ExecRetriever) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// SetMaxRetries sets how many times a transient failure is retried.
func (r *ExecRetriever) SetMaxRetries(max int) {
	if max < 0 {
		max = 0
	}
	r.maxRetries = max
}

// Materialize downloads one item into the staging directory and returns the
// path of the finished artifact. Transient failures are retried with a
// backoff; permanent failures (unavailable, age-restricted) are returned
// immediately with the Permanent flag set.
func (r *ExecRetriever) Materialize(ctx context.Context, req Request) (string, error) {
	if !platform.IsSupportedFormat(req.TargetFormat) {
		return "", &RetrievalError{ItemID: req.ItemID, Err: fmt.Errorf("unsupported format %q", req.TargetFormat)}
	}
	if err := platform.CreateDirectoryIfNotExists(req.StagingDir); err != nil {
		return "", &RetrievalError{ItemID: req.ItemID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.BuildArgs(req)

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(RetryBackoff):
			case <-ctx.Done():
				return "", &RetrievalError{ItemID: req.ItemID, Err: ctx.Err()}
			}
			r.logger.Info("Retrying retrieval",
				zap.String("item_id", req.ItemID),
				zap.Int("attempt", attempt+1))
		}

		cmd := exec.CommandContext(ctx, r.command, args...)
		output, err := cmd.CombinedOutput()
		if err == nil {
			return r.findArtifact(req)
		}

		lastErr = fmt.Errorf("%s: %w: %s", r.command, err, condenseOutput(output))
		if isPermanentFailure(string(output)) {
			return "", &RetrievalError{ItemID: req.ItemID, Permanent: true, Err: lastErr}
		}
		if ctx.Err() != nil {
			return "", &RetrievalError{ItemID: req.ItemID, Err: ctx.Err()}
		}

		r.logger.Warn("Retrieval attempt failed",
			zap.String("item_id", req.ItemID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return "", &RetrievalError{ItemID: req.ItemID, Err: lastErr}
}

// BuildArgs builds the yt-dlp command arguments for a request.
func (r *ExecRetriever) BuildArgs(req Request) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-o", filepath.Join(req.StagingDir, OutputTemplate),
	}

	if platform.IsAudioFormat(req.TargetFormat) {
		args = append(args,
			"-f", "bestaudio/best",
			"-x",
			"--audio-format", req.TargetFormat,
			"--audio-quality", "0",
		)
	} else {
		selector := "bestvideo+bestaudio/best"
		if req.QualityCeiling > 0 {
			selector = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]",
				req.QualityCeiling, req.QualityCeiling)
		}
		args = append(args,
			"-f", selector,
			"--merge-output-format", req.TargetFormat,
		)
	}

	args = append(args,
		"--embed-thumbnail",
		"--add-metadata",
		fmt.Sprintf(platform.VideoURLTemplate, req.ItemID),
	)
	return args
}

// findArtifact locates the finished file for an item in the staging
// directory. The exact "<id>.<format>" name is preferred; otherwise the first
// "<id>.*" file that is not a partial download is accepted, since yt-dlp may
// pick a different container than requested.
func (r *ExecRetriever) findArtifact(req Request) (string, error) {
	exact := filepath.Join(req.StagingDir, req.ItemID+"."+req.TargetFormat)
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, nil
	}

	matches, err := filepath.Glob(filepath.Join(req.StagingDir, req.ItemID+".*"))
	if err != nil {
		return "", &RetrievalError{ItemID: req.ItemID, Err: err}
	}
	for _, match := range matches {
		if isPartialDownload(match) {
			continue
		}
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
			return match, nil
		}
	}

	return "", &RetrievalError{
		ItemID: req.ItemID,
		Err:    fmt.Errorf("no artifact produced in %s", req.StagingDir),
	}
}

// isPartialDownload reports whether the path is a yt-dlp intermediate file.
func isPartialDownload(path string) bool {
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// isPermanentFailure classifies yt-dlp output as a permanent exclusion.
func isPermanentFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range permanentFailureMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// condenseOutput reduces tool output to its last non-empty line for error
// messages.
func condenseOutput(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
