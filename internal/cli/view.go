package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fmueller/voxlate/internal/controller"
	"github.com/fmueller/voxlate/internal/progress"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// terminalView renders controller updates: results and language lists on
// stdout, the animated indicator and alerts on stderr.
type terminalView struct {
	out    io.Writer
	errOut io.Writer
	logger *zap.Logger

	showProgress   bool
	printLanguages bool
	linkURL        func(controller.Link) string

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newTerminalView(out, errOut io.Writer, logger *zap.Logger, showProgress bool) *terminalView {
	return &terminalView{
		out:          out,
		errOut:       errOut,
		logger:       logger,
		showProgress: showProgress,
	}
}

func (v *terminalView) ShowLanguages(spoken, target []string) {
	v.logger.Debug("language selections loaded", zap.Int("spoken", len(spoken)), zap.Int("target", len(target)))
	if !v.printLanguages {
		return
	}
	for _, lang := range spoken {
		fmt.Fprintln(v.out, lang)
	}
}

func (v *terminalView) Notify(message string) {
	v.logger.Warn(message)
}

func (v *terminalView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// keep the last indicator state visible above the message
	if v.bar != nil {
		_ = v.bar.Exit()
		fmt.Fprintln(v.errOut)
		v.bar = nil
	}
	fmt.Fprintln(v.errOut, message)
}

func (v *terminalView) SetProgress(value int) {
	if !v.showProgress {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bar == nil {
		v.bar = progressbar.NewOptions(
			progress.Complete,
			progressbar.OptionSetDescription("Transcribing (simulated)"),
			progressbar.OptionSetWriter(v.errOut),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = v.bar.Set(value)
	if value >= progress.Complete {
		_ = v.bar.Finish()
		v.bar = nil
	}
}

func (v *terminalView) SetBusy(busy bool) {
	v.logger.Debug("submission state changed", zap.Bool("busy", busy))
}

func (v *terminalView) ShowResult(result controller.Result) {
	fmt.Fprintln(v.out, "Transcribed text:")
	fmt.Fprintln(v.out, result.TranscribedText)
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "Translated text:")
	fmt.Fprintln(v.out, result.TranslatedText)
	fmt.Fprintln(v.out)
	for _, link := range result.Links {
		fmt.Fprintf(v.out, "%s: %s\n", link.Label, v.resolve(link))
	}
}

func (v *terminalView) resolve(link controller.Link) string {
	if v.linkURL == nil {
		return link.Href
	}
	return v.linkURL(link)
}
