package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"camwatch/shared/config"
)

// ErrNotAcknowledged is returned by callers that need an error value for a
// response whose ok field was false
var ErrNotAcknowledged = errors.New("telegram did not acknowledge the message")

// Photo is one sendPhoto request
type Photo struct {
	Path     string
	ChatID   string
	Caption  string
	Silent   bool
	ThreadID string // optional forum topic
}

// Response is the Bot API envelope; only OK decides whether a send counts
type Response struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Err converts a negative acknowledgement into an error
func (r *Response) Err() error {
	if r == nil {
		return ErrNotAcknowledged
	}
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: %d %s", ErrNotAcknowledged, r.ErrorCode, r.Description)
}

type Sender struct {
	config *config.TelegramConfig
	client *http.Client
	logger *slog.Logger
}

func NewSender(cfg *config.TelegramConfig, logger *slog.Logger) *Sender {
	return &Sender{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// SendPhoto uploads the image with its caption. A decoded response is
// returned even when OK is false; the error is only set when no response
// could be obtained.
func (s *Sender) SendPhoto(ctx context.Context, photo Photo) (*Response, error) {
	if s.config.Token == "" {
		return nil, fmt.Errorf("%w: no bot token found", config.ErrConfiguration)
	}

	file, err := os.Open(photo.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	defer file.Close()

	body, contentType := s.multipartBody(file, photo)

	endpoint := fmt.Sprintf("%s/bot%s/sendPhoto", s.config.APIURL, s.config.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		body.CloseWithError(err)
		return nil, fmt.Errorf("failed to create sendPhoto request: %w", s.redact(err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send photo: %w", s.redact(err))
	}
	defer resp.Body.Close()

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode sendPhoto response (status %d): %w", resp.StatusCode, err)
	}

	s.logger.Debug("sendPhoto response",
		slog.Int("status", resp.StatusCode),
		slog.Bool("ok", apiResp.OK),
		slog.String("description", apiResp.Description))

	return &apiResp, nil
}

// redact drops the request URL from transport errors; the bot token is part
// of its path
func (s *Sender) redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return fmt.Errorf("%s %s/bot<redacted>/sendPhoto: %w", urlErr.Op, s.config.APIURL, urlErr.Err)
}

// multipartBody streams the form through a pipe so the image is never held
// in memory as a whole. The caller must consume or close the reader.
func (s *Sender) multipartBody(file *os.File, photo Photo) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, file, photo)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, file *os.File, photo Photo) error {
	fields := [][2]string{
		{"chat_id", photo.ChatID},
		{"disable_notification", strconv.FormatBool(photo.Silent)},
	}
	if photo.ThreadID != "" {
		fields = append(fields, [2]string{"message_thread_id", photo.ThreadID})
	}
	if photo.Caption != "" {
		fields = append(fields,
			[2]string{"caption", photo.Caption},
			[2]string{"parse_mode", "MarkdownV2"})
	}

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("photo", filepath.Base(photo.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
