// Command playlist-sync keeps local directories synchronized with remote
// playlists: first-time downloads, incremental updates that mirror additions,
// removals and reorderings, and a small registry of tracked playlists.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ytget/playlist-sync/internal/config"
	"github.com/ytget/playlist-sync/internal/model"
	"github.com/ytget/playlist-sync/internal/platform"
	"github.com/ytget/playlist-sync/internal/registry"
	"github.com/ytget/playlist-sync/internal/remote"
	"github.com/ytget/playlist-sync/internal/sync"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const usage = `playlist-sync v%s

Usage:
  playlist-sync add <name> <playlist-url> [--dir DIR]   register a playlist
  playlist-sync remove <name>                           unregister a playlist
  playlist-sync list                                    show registered playlists
  playlist-sync download <name|url> [flags]             first-time download
  playlist-sync sync <name|url> [flags]                 update an existing directory
  playlist-sync sync --all                              update every registered playlist
  playlist-sync video <video-url> [flags]               download a single video

Flags:
  --config PATH     config file (default: playlist-sync.yaml in standard paths)
  --dir DIR         target directory (default: <download_dir>/<name>)
  --format FMT      output format for new items (mp3, m4a, opus, flac, wav, mp4, mkv, webm)
  --quality N       max video height in pixels, 0 for unlimited
  --allow-wipe      permit an update that removes every local item
  --all             sync all registered playlists
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Printf(usage, version)
		return nil
	}
	command, args := args[0], args[1:]

	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	configPath := flags.String("config", "", "config file path")
	dir := flags.String("dir", "", "target directory")
	format := flags.String("format", "", "output format for new items")
	quality := flags.Int("quality", -1, "max video height in pixels")
	allowWipe := flags.Bool("allow-wipe", false, "permit full removal")
	all := flags.Bool("all", false, "sync all registered playlists")
	if err := flags.Parse(args); err != nil {
		return err
	}
	args = flags.Args()

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyOverrides(settings, format, quality, allowWipe)

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := registry.New()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: playlist-sync add <name> <playlist-url> [--dir DIR]")
		}
		return cmdAdd(store, settings, args[0], args[1], *dir)
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: playlist-sync remove <name>")
		}
		return store.Remove(args[0])
	case "list":
		return cmdList(store)
	case "download":
		if len(args) != 1 {
			return fmt.Errorf("usage: playlist-sync download <name|url> [flags]")
		}
		return cmdRun(ctx, store, settings, logger, args[0], *dir, true)
	case "sync":
		if *all {
			return cmdSyncAll(ctx, store, settings, logger)
		}
		if len(args) != 1 {
			return fmt.Errorf("usage: playlist-sync sync <name|url> [flags]")
		}
		return cmdRun(ctx, store, settings, logger, args[0], *dir, false)
	case "video":
		if len(args) != 1 {
			return fmt.Errorf("usage: playlist-sync video <video-url> [--dir DIR]")
		}
		return cmdVideo(ctx, settings, logger, args[0], *dir)
	case "help", "--help", "-h":
		fmt.Printf(usage, version)
		return nil
	default:
		return fmt.Errorf("unknown command %q, run playlist-sync help", command)
	}
}

// applyOverrides lets command line flags win over the config file.
func applyOverrides(settings *config.Settings, format *string, quality *int, allowWipe *bool) {
	if *format != "" {
		settings.Format = *format
	}
	if *quality >= 0 {
		settings.QualityCeiling = *quality
	}
	if *allowWipe {
		settings.AllowFullRemoval = true
	}
}

func cmdAdd(store *registry.Store, settings *config.Settings, name, url, dir string) error {
	if dir == "" {
		dir = filepath.Join(settings.DownloadDir, platform.SanitizeFilename(name))
	}
	if err := store.Add(name, url, dir); err != nil {
		return err
	}
	fmt.Printf("Registered %q -> %s\n", name, dir)
	return nil
}

func cmdList(store *registry.Store) error {
	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No playlists registered.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\n  %s\n  %s\n", e.Name, e.URL, e.Dir)
	}
	return nil
}

func cmdRun(ctx context.Context, store *registry.Store, settings *config.Settings, logger *zap.Logger, target, dir string, fresh bool) error {
	collectionID, resolvedDir, err := resolveTarget(store, settings, target)
	if err != nil {
		return err
	}
	if dir != "" {
		resolvedDir = dir
	}

	eng := newEngine(settings, logger)
	report, err := runOne(ctx, eng, resolvedDir, collectionID, fresh)
	if report != nil {
		fmt.Println(report.Summary())
		for _, f := range report.Failed {
			fmt.Printf("  failed: %s (%s)\n", f.Title, f.Error)
		}
	}
	return err
}

func cmdVideo(ctx context.Context, settings *config.Settings, logger *zap.Logger, url, dir string) error {
	canonical, err := platform.CanonicalVideoURL(url)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = settings.DownloadDir
	}

	eng := newEngine(settings, logger)
	path, err := eng.RetrieveItem(ctx, dir, platform.ExtractVideoID(canonical))
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %s\n", path)
	return nil
}

func cmdSyncAll(ctx context.Context, store *registry.Store, settings *config.Settings, logger *zap.Logger) error {
	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No playlists registered.")
		return nil
	}

	eng := newEngine(settings, logger)
	var failed int
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		collectionID := platform.ExtractPlaylistID(e.URL)
		fmt.Printf("%s:\n", e.Name)
		report, err := runOne(ctx, eng, e.Dir, collectionID, false)
		if err != nil {
			failed++
			fmt.Printf("  error: %v\n", err)
			continue
		}
		fmt.Printf("  %s\n", report.Summary())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d playlists failed to sync", failed, len(entries))
	}
	return nil
}

func runOne(ctx context.Context, eng *sync.Engine, dir, collectionID string, fresh bool) (*model.UpdateReport, error) {
	if fresh {
		return eng.Download(ctx, dir, collectionID)
	}
	return eng.Synchronize(ctx, dir, collectionID)
}

// resolveTarget accepts either a registered playlist name or a raw playlist
// URL and returns the collection ID with a directory for it.
func resolveTarget(store *registry.Store, settings *config.Settings, target string) (string, string, error) {
	if entry, err := store.Find(target); err == nil {
		id := platform.ExtractPlaylistID(entry.URL)
		if id == "" {
			return "", "", fmt.Errorf("registered URL for %q carries no playlist ID: %s", target, entry.URL)
		}
		return id, entry.Dir, nil
	}

	if id := platform.ExtractPlaylistID(target); id != "" {
		return id, filepath.Join(settings.DownloadDir, id), nil
	}
	return "", "", fmt.Errorf("%q is neither a registered playlist nor a playlist URL", target)
}

func newEngine(settings *config.Settings, logger *zap.Logger) *sync.Engine {
	enumerator := remote.NewYTDLPEnumerator(logger)

	retriever := remote.NewExecRetriever(settings.YTDLPPath, logger)
	retriever.SetTimeout(settings.RetrievalTimeout)
	retriever.SetMaxRetries(settings.MaxRetries)

	return sync.NewEngine(enumerator, retriever, sync.Options{
		Format:           settings.Format,
		QualityCeiling:   settings.QualityCeiling,
		AllowFullRemoval: settings.AllowFullRemoval,
	}, logger)
}

// newLogger builds the application logger from the configured level and
// format.
func newLogger(settings *config.Settings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q: %w", settings.LogLevel, err)
	}

	cfg := zap.NewProductionConfig()
	if settings.LogFormat == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = settings.LogFormat

	return cfg.Build()
}
