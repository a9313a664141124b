package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmueller/voxlate/internal/clipboard"
	"github.com/fmueller/voxlate/internal/config"
	"github.com/fmueller/voxlate/internal/controller"
	"github.com/fmueller/voxlate/internal/download"
	"github.com/fmueller/voxlate/internal/platform"
	"github.com/fmueller/voxlate/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type transcribeOptions struct {
	spoken    string
	target    string
	outputDir string
	download  bool
	copy      bool
}

func newTranscribeCmd(app *appState) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe a media file and translate the transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return app.runTranscribe(cmd, file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.spoken, "spoken", "", "Language spoken in the media (env "+config.EnvSpokenLang+"; default first server language)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Language to translate into (env "+config.EnvTargetLang+"; default first server language)")
	cmd.Flags().BoolVar(&opts.download, "download", false, "Download the SRT file and subtitled video")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the translated text to the clipboard")
	bindOutputDirFlag(cmd, &opts.outputDir)
	return cmd
}

func (a *appState) runTranscribe(cmd *cobra.Command, file string, opts transcribeOptions) error {
	ctx := cmd.Context()

	s, err := a.newSession(cmd, false)
	if err != nil {
		return err
	}

	// The user already saw a notice; selections stay empty.
	if err := s.controller.Initialize(ctx); err != nil {
		a.log().Debug("continuing without server languages", zap.Error(err))
	}

	if spoken := flagOrConfig(cmd, "spoken", opts.spoken, a.cfg.SpokenLang); spoken != "" {
		if err := s.controller.SelectSpoken(spoken); err != nil {
			return fmt.Errorf("spoken language: %w", err)
		}
	}
	if target := flagOrConfig(cmd, "target", opts.target, a.cfg.TargetLang); target != "" {
		if err := s.controller.SelectTarget(target); err != nil {
			return fmt.Errorf("target language: %w", err)
		}
	}

	if file != "" {
		file = filepath.Clean(file)
	}

	result, err := s.controller.Submit(ctx, controller.Submission{File: file})
	if err != nil {
		if errors.Is(err, controller.ErrBusy) {
			return err
		}
		return reported(err)
	}

	if isBlankTranscript(result.TranscribedText) {
		a.log().Warn(noSpeechHint())
	}

	if opts.download {
		dir := flagOrConfig(cmd, "output-dir", opts.outputDir, a.cfg.OutputDir)
		if err := a.downloadLinks(cmd, s, dir, result.Links); err != nil {
			return err
		}
	}

	if opts.copy {
		a.copyTranslation(cmd, result.TranslatedText)
	}
	return nil
}

func (a *appState) downloadLinks(cmd *cobra.Command, s *session, dir string, links []controller.Link) error {
	dir, err := platform.ResolveDownloadDir(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	artifacts := make([]download.Artifact, 0, len(links))
	for _, link := range links {
		if link.Name == "" {
			a.log().Warn("server returned no file name for link", zap.String("label", link.Label))
			continue
		}
		artifacts = append(artifacts, download.Artifact{URL: s.client.DownloadURL(link.Name), Name: link.Name})
	}
	if len(artifacts) == 0 {
		return nil
	}

	stopSpinner := startSpinner(a.progressEnabled(), fmt.Sprintf("Downloading %d file(s)", len(artifacts)))
	paths, err := download.DownloadAll(cmd.Context(), dir, artifacts, download.Options{
		NoProgress: a.noProgress,
		Logger:     a.log(),
		UserAgent:  version.UserAgent(),
	})
	stopSpinner()
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
	}
	return nil
}

func (a *appState) copyTranslation(cmd *cobra.Command, text string) {
	if isBlankTranscript(text) {
		a.log().Warn("translated text is empty; nothing copied")
		return
	}

	copyFn := a.copyFn
	if copyFn == nil {
		copyFn = clipboard.CopyText
	}

	if err := copyFn(cmd.Context(), text); err != nil {
		if errors.Is(err, clipboard.ErrUnavailable) {
			a.log().Warn("clipboard tool unavailable; translation left on stdout")
			return
		}
		a.log().Warn("failed to copy translation to clipboard; translation left on stdout", zap.Error(err))
		return
	}
	a.log().Info("translation copied to clipboard")
}
