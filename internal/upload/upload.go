package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"meetingassist/internal/api"
	"meetingassist/internal/logging"
	"meetingassist/internal/services"
)

// DefaultContentType is used for unknown extensions.
const DefaultContentType = "video/webm"

var contentTypes = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
}

// ContentType maps a file extension to the media type sent to the backend.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return DefaultContentType
}

// Requester issues presigned upload targets.
type Requester interface {
	RequestUpload(ctx context.Context, clientID, contentType string) (api.UploadTarget, error)
}

var _ Requester = (*api.Client)(nil)

// Result describes a finished upload.
type Result struct {
	Key         string
	Path        string
	ContentType string
	Bytes       int64
	Elapsed     time.Duration
}

// Uploader streams recordings to presigned storage URLs.
type Uploader struct {
	requester Requester
	http      api.HTTPDoer
	progress  io.Writer
	logger    *slog.Logger
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithProgress renders a progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) Option {
	return func(u *Uploader) { u.progress = w }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) { u.logger = logging.NewComponentLogger(logger, "upload") }
}

// New builds an Uploader. A progress bar is drawn on stderr when it is a
// terminal. The storage transport has no overall timeout; ctx bounds it.
func New(requester Requester, opts ...Option) *Uploader {
	u := &Uploader{
		requester: requester,
		http:      &http.Client{},
		logger:    logging.NewComponentLogger(nil, "upload"),
	}
	if fd := os.Stderr.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		u.progress = os.Stderr
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload sends the file at path for clientID.
func (u *Uploader) Upload(ctx context.Context, clientID, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Invalid("path", "is required")
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Result{}, services.Invalid("path", fmt.Sprintf("%s does not exist", path))
	case err != nil:
		return Result{}, services.Wrap(services.ErrTransport, "upload", "stat", path, err)
	case info.IsDir():
		return Result{}, services.Invalid("path", fmt.Sprintf("%s is a directory", path))
	case info.Size() == 0:
		return Result{}, services.Invalid("path", fmt.Sprintf("%s is empty", path))
	}

	result := Result{Path: path, ContentType: ContentType(path), Bytes: info.Size()}
	ctx = services.WithClientID(ctx, clientID)
	logger := logging.WithContext(ctx, u.logger)

	target, err := u.requester.RequestUpload(ctx, clientID, result.ContentType)
	if err != nil {
		return Result{}, err
	}
	result.Key = target.Key

	file, err := os.Open(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "open", path, err)
	}
	defer file.Close()

	var body io.Reader = file
	var bar *progressbar.ProgressBar
	if u.progress != nil {
		bar = progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(u.progress),
			progressbar.OptionSetDescription("Uploading "+filepath.Base(path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		body = io.TeeReader(file, bar)
	}

	method := target.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, target.UploadURL, body)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "build request", target.Key, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", result.ContentType)
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	logger.Debug("upload started",
		logging.String(logging.FieldEventType, "upload_started"),
		logging.String("key", target.Key),
		logging.String("size", humanize.Bytes(uint64(info.Size()))),
	)
	start := time.Now()
	resp, err := u.http.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", method, target.Key, err)
	}
	defer resp.Body.Close()
	if bar != nil {
		_ = bar.Finish()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		reqErr := api.NewRequestError(method, req.URL.Path, resp.StatusCode, data)
		logging.WarnWithContext(logger, "upload rejected", "upload_failed",
			logging.Int("status", resp.StatusCode),
			logging.String("key", target.Key),
			logging.String(logging.FieldErrorHint, "request a new upload url and retry"),
		)
		return Result{}, reqErr
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	result.Elapsed = time.Since(start)
	logger.Info("upload complete",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.String("key", target.Key),
		logging.String("size", humanize.Bytes(uint64(result.Bytes))),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Describe renders a one-line summary of r.
func Describe(r Result) string {
	return fmt.Sprintf("Uploaded %s (%s, %s) as %s.", filepath.Base(r.Path), humanize.Bytes(uint64(r.Bytes)), r.ContentType, r.Key)
}
