package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

type Options struct {
	URL         string
	Destination string
	NoProgress  bool
	HTTPClient  *http.Client
	Logger      *zap.Logger
	UserAgent   string
}

// Artifact is one server-produced file to fetch.
type Artifact struct {
	URL  string
	Name string
}

// DownloadFile fetches opts.URL into opts.Destination. The body lands in a
// ".part" sibling first and is renamed into place once complete.
func DownloadFile(ctx context.Context, opts Options) error {
	if opts.URL == "" {
		return errors.New("download URL is required")
	}
	if opts.Destination == "" {
		return errors.New("destination path is required")
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "voxlate/1"
	}

	if err := os.MkdirAll(filepath.Dir(opts.Destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	started := time.Now()
	if err := downloadOnce(ctx, opts); err != nil {
		return err
	}

	opts.Logger.Debug("download finished", zap.String("url", opts.URL), zap.String("path", opts.Destination), zap.Duration("elapsed", time.Since(started)))
	return nil
}

// DownloadAll fetches every artifact into dir concurrently and returns the
// written paths in input order.
func DownloadAll(ctx context.Context, dir string, artifacts []Artifact, opts Options) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output directory is required")
	}

	paths := make([]string, len(artifacts))
	for i, artifact := range artifacts {
		name, err := SafeFileName(artifact.Name)
		if err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(dir, name)
	}

	// Several bars on one terminal would overwrite each other.
	if len(artifacts) > 1 {
		opts.NoProgress = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, artifact := range artifacts {
		artifact := artifact
		fileOpts := opts
		fileOpts.URL = artifact.URL
		fileOpts.Destination = paths[i]

		g.Go(func() error {
			if err := DownloadFile(gctx, fileOpts); err != nil {
				return fmt.Errorf("download %s: %w", artifact.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// SafeFileName reduces a server-supplied name to a plain file name.
func SafeFileName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.TrimSpace(name)))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return base, nil
}

func downloadOnce(ctx context.Context, opts Options) error {
	tempPath := opts.Destination + ".part"
	_ = os.Remove(tempPath)

	outFile, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		_ = outFile.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var writer io.Writer = outFile
	var bar *progressbar.ProgressBar
	if shouldRenderProgress(opts.NoProgress, resp.ContentLength) {
		bar = progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription("downloading "+filepath.Base(opts.Destination)),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		writer = io.MultiWriter(outFile, bar)
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("download body: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if err := outFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, opts.Destination); err != nil {
		return fmt.Errorf("move temp file into destination: %w", err)
	}

	success = true
	return nil
}

func shouldRenderProgress(noProgress bool, contentLength int64) bool {
	if noProgress {
		return false
	}
	if contentLength <= 0 {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
