// Package service talks to the transcription server that backs voxlate.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	languagesPath  = "/languages"
	transcribePath = "/transcribe"
	downloadPrefix = "/download/"

	requestIDHeader = "X-Request-ID"
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	UserAgent  string
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

// Upload is the payload of one transcription request.
type Upload struct {
	FilePath   string
	SpokenLang string
	TargetLang string
	RequestID  string
}

type Result struct {
	TranscribedText string `json:"transcribed_text"`
	TranslatedText  string `json:"translated_text"`
	SRTFile         string `json:"srt_file"`
	VideoFile       string `json:"video_file"`
}

// StatusError reports a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("server URL is required")
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server URL must use http or https, got %q", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("server URL has no host: %q", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	// No timeout: a transcription may legitimately run for a long time and
	// the caller cancels through the context.
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "voxlate/1"
	}

	return &Client{
		baseURL:    base,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		userAgent:  opts.UserAgent,
	}, nil
}

// Languages fetches the language list in server order.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(languagesPath), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("languages request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var languages []string
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return nil, fmt.Errorf("decode languages response: %w", err)
	}
	if languages == nil {
		languages = []string{}
	}

	c.logger.Debug("languages loaded", zap.Int("count", len(languages)))
	return languages, nil
}

// Transcribe uploads the media file with both language selections and waits
// for the server's answer.
func (c *Client) Transcribe(ctx context.Context, upload Upload) (Result, error) {
	if strings.TrimSpace(upload.FilePath) == "" {
		return Result{}, errors.New("file path is required")
	}

	f, err := os.Open(upload.FilePath)
	if err != nil {
		return Result{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	requestID := upload.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	writeErr := make(chan error, 1)
	go func() {
		err := writeUploadForm(mw, f, upload)
		if closeErr := mw.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
		writeErr <- err
	}()

	// finish drains the form writer once the server has answered, so the
	// goroutine never outlives the call.
	finish := func() error {
		_ = pr.Close()
		if err := <-writeErr; err != nil && !errors.Is(err, io.ErrClosedPipe) {
			return fmt.Errorf("multipart write error: %w", err)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(transcribePath), pr)
	if err != nil {
		_ = finish()
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	log := c.logger.With(zap.String("request_id", requestID))
	log.Debug("uploading media",
		zap.String("file", upload.FilePath),
		zap.String("spoken_lang", upload.SpokenLang),
		zap.String("target_lang", upload.TargetLang),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = finish()
		return Result{}, fmt.Errorf("transcribe request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		_ = finish()
		return Result{}, err
	}
	if err := finish(); err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode transcription response: %w", err)
	}

	log.Debug("transcription received", zap.String("srt_file", result.SRTFile), zap.String("video_file", result.VideoFile))
	return result, nil
}

// DownloadPath is the server-relative link for a produced artifact.
func DownloadPath(name string) string {
	return downloadPrefix + name
}

// DownloadURL resolves the absolute URL for a produced artifact. Unlike
// DownloadPath the name is escaped, so "#", "?" and "%" stay part of it.
func (c *Client) DownloadURL(name string) string {
	return c.endpoint(downloadPrefix + url.PathEscape(name))
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeUploadForm(mw *multipart.Writer, f *os.File, upload Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(upload.FilePath))))
	h.Set("Content-Type", mimeFromExt(filepath.Ext(upload.FilePath)))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}

	if err := mw.WriteField("spoken_lang", upload.SpokenLang); err != nil {
		return err
	}
	return mw.WriteField("target_lang", upload.TargetLang)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}
