package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxlate/internal/clipboard"
	"github.com/fmueller/voxlate/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLanguagesCommandPrintsServerOrder(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.languages = `["Spanish","English","Spanish"]`

	stdout, _, err := runCommand(t, []string{"languages", "--server", server.URL, "--no-progress"})
	require.NoError(t, err)
	require.Equal(t, "Spanish\nEnglish\nSpanish\n", stdout)
}

func TestLanguagesCommandFailsWhenServerDown(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.languages = `not json`

	stdout, _, err := runCommand(t, []string{"languages", "--server", server.URL})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load languages")
	require.Empty(t, stdout)
}

func TestTranscribeCommandEndToEnd(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")

	stdout, stderr, err := runCommand(t, []string{
		"transcribe", "--server", server.URL, "--no-progress",
		"--spoken", "en", "--target", "ES",
		media,
	})
	require.NoError(t, err, stderr)

	require.Equal(t, "Transcribed text:\nhello\n\nTranslated text:\nhola\n\n"+
		"Download SRT File: "+server.URL+"/download/a.srt\n"+
		"Download Video with Subtitles: "+server.URL+"/download/a.mp4\n", stdout)
	require.Equal(t, "en", server.form("spoken_lang"))
	require.Equal(t, "es", server.form("target_lang"))
	require.Equal(t, "a.wav:audio", server.form("file"))
	require.Equal(t, 1, server.requested("/languages"))
	require.Equal(t, 1, server.requested("/transcribe"))
}

func TestTranscribeCommandDefaultsToFirstLanguage(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")

	_, _, err := runCommand(t, []string{"transcribe", "--server", server.URL, "--no-progress", media})
	require.NoError(t, err)
	require.Equal(t, "en", server.form("spoken_lang"))
	require.Equal(t, "en", server.form("target_lang"))
}

func TestTranscribeCommandWithoutFileSendsNothing(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)

	_, stderr, err := runCommand(t, []string{"transcribe", "--server", server.URL, "--no-progress"})
	require.Error(t, err)
	require.True(t, AlreadyReported(err))
	require.Contains(t, stderr, "Please select a file.")
	require.Equal(t, 0, server.requested("/transcribe"))
}

func TestTranscribeCommandServerFailureAlerts(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.transcribeCode = http.StatusInternalServerError
	server.transcribe = `{"error":"model failed"}`
	media := writeMediaFile(t, "a.wav", "audio")

	stdout, stderr, err := runCommand(t, []string{"transcribe", "--server", server.URL, "--no-progress", media})
	require.Error(t, err)
	require.True(t, AlreadyReported(err))
	require.Contains(t, stderr, "An error occurred: server returned status 500: model failed")
	require.Empty(t, stdout)
}

func TestTranscribeCommandRejectsUnknownLanguage(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")

	_, _, err := runCommand(t, []string{"transcribe", "--server", server.URL, "--target", "Klingon", media})
	require.Error(t, err)
	require.Contains(t, err.Error(), `target language: unknown language "Klingon"`)
	require.Equal(t, 0, server.requested("/transcribe"))
}

func TestTranscribeCommandDownloadsArtifacts(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")
	outDir := filepath.Join(t.TempDir(), "out")

	stdout, stderr, err := runCommand(t, []string{
		"transcribe", "--server", server.URL, "--no-progress",
		"--download", "--output-dir", outDir,
		media,
	})
	require.NoError(t, err, stderr)
	require.Contains(t, stdout, "Saved "+filepath.Join(outDir, "a.srt"))
	require.Contains(t, stdout, "Saved "+filepath.Join(outDir, "a.mp4"))

	srt, err := os.ReadFile(filepath.Join(outDir, "a.srt"))
	require.NoError(t, err)
	require.Equal(t, "subtitles", string(srt))

	video, err := os.ReadFile(filepath.Join(outDir, "a.mp4"))
	require.NoError(t, err)
	require.Equal(t, "video", string(video))
}

func TestTranscribeCommandCopiesTranslation(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")

	var copied []string
	app := &appState{
		serverURL:  server.URL,
		noProgress: true,
		copyFn: func(_ context.Context, value string) error {
			copied = append(copied, value)
			return nil
		},
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--copy", media})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, []string{"hola"}, copied)
}

func TestTranscribeCommandSkipsCopyForBlankTranslation(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.transcribe = `{"transcribed_text":"[BLANK_AUDIO]","translated_text":"  ","srt_file":"a.srt","video_file":"a.mp4"}`
	media := writeMediaFile(t, "a.wav", "audio")

	copyCalls := 0
	app := &appState{
		serverURL:  server.URL,
		noProgress: true,
		copyFn: func(context.Context, string) error {
			copyCalls++
			return clipboard.ErrUnavailable
		},
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--copy", media})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, 0, copyCalls)
}

func TestTranscribeCommandUsesEnvFile(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	media := writeMediaFile(t, "a.wav", "audio")

	envFile := filepath.Join(t.TempDir(), "voxlate.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"VOXLATE_SERVER_URL="+server.URL+"\nVOXLATE_TARGET_LANG=es\n",
	), 0o644))

	_, stderr, err := runCommand(t, []string{"transcribe", "--env-file", envFile, "--no-progress", media})
	require.NoError(t, err, stderr)
	require.Equal(t, "es", server.form("target_lang"))
	require.Equal(t, "en", server.form("spoken_lang"))
}

func TestDownloadCommandFetchesNamedFiles(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	outDir := t.TempDir()

	stdout, stderr, err := runCommand(t, []string{"download", "--server", server.URL, "--no-progress", "--output-dir", outDir, "a.srt"})
	require.NoError(t, err, stderr)
	require.Equal(t, "Saved "+filepath.Join(outDir, "a.srt")+"\n", stdout)
}

func TestDownloadCommandReportsMissingFile(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)

	_, _, err := runCommand(t, []string{"download", "--server", server.URL, "--no-progress", "--output-dir", t.TempDir(), "nope.srt"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status code: 404")
}

func TestTranscribeCommandContinuesWithoutLanguages(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.languages = `not json`
	media := writeMediaFile(t, "a.wav", "audio")

	core, logs := observer.New(zapcore.DebugLevel)
	app := &appState{
		serverURL:  server.URL,
		noProgress: true,
		cfg:        config.Default(),
		logger:     zap.New(core),
	}
	cmd := newTranscribeCmd(app)
	cmd.SetContext(context.Background())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.NoError(t, app.runTranscribe(cmd, media, transcribeOptions{}))
	require.Equal(t, 1, server.requested("/transcribe"))
	require.Empty(t, server.form("spoken_lang"))

	entries := logs.FilterMessage("continuing without server languages").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Contains(t, entries[0].ContextMap(), "error")
}
