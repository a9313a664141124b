package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

// fakeServer stands in for the transcription server.
type fakeServer struct {
	*httptest.Server

	languages      string
	transcribe     string
	transcribeCode int

	mu    sync.Mutex
	paths []string
	forms map[string]string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		languages:      `["en","es"]`,
		transcribe:     `{"transcribed_text":"hello","translated_text":"hola","srt_file":"a.srt","video_file":"a.mp4"}`,
		transcribeCode: http.StatusOK,
		forms:          map[string]string{},
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	fs.paths = append(fs.paths, r.URL.Path)
	fs.mu.Unlock()

	switch r.URL.Path {
	case "/languages":
		_, _ = w.Write([]byte(fs.languages))
	case "/transcribe":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			fs.mu.Lock()
			fs.forms["spoken_lang"] = r.FormValue("spoken_lang")
			fs.forms["target_lang"] = r.FormValue("target_lang")
			if file, header, err := r.FormFile("file"); err == nil {
				body, _ := io.ReadAll(file)
				_ = file.Close()
				fs.forms["file"] = header.Filename + ":" + string(body)
			}
			fs.mu.Unlock()
		}
		w.WriteHeader(fs.transcribeCode)
		_, _ = w.Write([]byte(fs.transcribe))
	case "/download/a.srt":
		_, _ = w.Write([]byte("subtitles"))
	case "/download/a.mp4":
		_, _ = w.Write([]byte("video"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (fs *fakeServer) requested(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := 0
	for _, p := range fs.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (fs *fakeServer) form(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.forms[name]
}

func writeMediaFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return path
}
