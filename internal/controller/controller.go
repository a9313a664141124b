// Package controller holds the upload workflow: it fills the two language
// selections from the server, submits a media file with the selected
// languages and pushes every visible change to a View.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fmueller/voxlate/internal/progress"
	"github.com/fmueller/voxlate/internal/service"
	"go.uber.org/zap"
)

var (
	ErrNoFile = errors.New("no file selected")
	ErrBusy   = errors.New("a transcription is already in progress")
)

const (
	noFileMessage = "Please select a file."
	busyMessage   = "A transcription is already running; wait for it to finish."

	srtLinkLabel   = "Download SRT File"
	videoLinkLabel = "Download Video with Subtitles"
)

// Backend is the part of the transcription server the controller needs.
type Backend interface {
	Languages(ctx context.Context) ([]string, error)
	Transcribe(ctx context.Context, upload service.Upload) (service.Result, error)
}

// View receives every user-visible change.
type View interface {
	ShowLanguages(spoken, target []string)
	// Notify shows a message without interrupting the user.
	Notify(message string)
	// Alert shows a message the user has to acknowledge.
	Alert(message string)
	SetProgress(value int)
	SetBusy(busy bool)
	ShowResult(result Result)
}

type Link struct {
	Label    string
	Href     string
	Name     string
	Download bool
}

type Result struct {
	TranscribedText string
	TranslatedText  string
	Links           []Link
}

type Submission struct {
	File       string
	SpokenLang string
	TargetLang string
}

type Options struct {
	Backend  Backend
	View     View
	Logger   *zap.Logger
	Progress progress.Options
}

type Controller struct {
	backend  Backend
	view     View
	logger   *zap.Logger
	progress progress.Options

	mu     sync.Mutex
	spoken Selection
	target Selection

	inFlight atomic.Bool
}

func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("controller backend is required")
	}
	if opts.View == nil {
		return nil, errors.New("controller view is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Controller{
		backend:  opts.Backend,
		view:     opts.View,
		logger:   opts.Logger,
		progress: opts.Progress,
	}, nil
}

// Initialize loads the language list and appends it to both selections.
// Calling it twice appends the list twice.
func (c *Controller) Initialize(ctx context.Context) error {
	languages, err := c.backend.Languages(ctx)
	if err != nil {
		c.logger.Warn("failed to load languages", zap.Error(err))
		c.view.Notify("Could not load languages: " + err.Error())
		return fmt.Errorf("load languages: %w", err)
	}

	c.mu.Lock()
	for _, lang := range languages {
		c.spoken.Append(lang)
		c.target.Append(lang)
	}
	spoken, target := c.spoken.Options(), c.target.Options()
	c.mu.Unlock()

	c.view.ShowLanguages(spoken, target)
	c.logger.Debug("languages ready", zap.Int("count", len(languages)))
	return nil
}

func (c *Controller) SelectSpoken(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spoken.Select(value)
}

func (c *Controller) SelectTarget(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target.Select(value)
}

// Selected returns the current spoken and target languages.
func (c *Controller) Selected() (spoken, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spoken.Value(), c.target.Value()
}

// Submit uploads one media file and renders the outcome. Only one submission
// runs at a time; a second call while one is pending returns ErrBusy.
func (c *Controller) Submit(ctx context.Context, sub Submission) (Result, error) {
	if strings.TrimSpace(sub.File) == "" {
		c.view.Alert(noFileMessage)
		return Result{}, ErrNoFile
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		c.view.Notify(busyMessage)
		return Result{}, ErrBusy
	}
	defer c.inFlight.Store(false)

	c.view.SetBusy(true)
	defer c.view.SetBusy(false)

	spoken, target := c.Selected()
	if sub.SpokenLang != "" {
		spoken = sub.SpokenLang
	}
	if sub.TargetLang != "" {
		target = sub.TargetLang
	}

	c.view.SetProgress(0)
	anim := progress.Start(c.progress, c.view.SetProgress)

	res, err := c.backend.Transcribe(ctx, service.Upload{
		FilePath:   sub.File,
		SpokenLang: spoken,
		TargetLang: target,
	})

	// The animation goroutine has exited once Stop returns.
	last := anim.Stop()
	if err != nil {
		c.logger.Warn("transcription failed", zap.Error(err), zap.Int("progress", last))
		c.view.Alert("An error occurred: " + err.Error())
		return Result{}, err
	}

	c.view.SetProgress(progress.Complete)

	result := Result{
		TranscribedText: res.TranscribedText,
		TranslatedText:  res.TranslatedText,
		Links: []Link{
			{Label: srtLinkLabel, Href: service.DownloadPath(res.SRTFile), Name: res.SRTFile, Download: true},
			{Label: videoLinkLabel, Href: service.DownloadPath(res.VideoFile), Name: res.VideoFile, Download: true},
		},
	}
	c.view.ShowResult(result)

	c.logger.Info("transcription finished",
		zap.String("spoken_lang", spoken),
		zap.String("target_lang", target),
		zap.String("srt_file", res.SRTFile),
		zap.String("video_file", res.VideoFile),
	)
	return result, nil
}
