package snowcam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"camwatch/internal/forecast"
	"camwatch/internal/models"
	"camwatch/shared/config"
	"camwatch/shared/scheduler"
	"camwatch/shared/storage"
	"camwatch/shared/telegram"
)

// ErrFetch marks a failed camera listing, image download or forecast fetch
var ErrFetch = errors.New("fetch failed")

// ForecastFetcher returns the forecast streams in merge order
type ForecastFetcher interface {
	FetchStreams(ctx context.Context, logger *slog.Logger) ([]models.Stream, error)
}

// PhotoSender delivers the image and reports the transport's acknowledgement
type PhotoSender interface {
	SendPhoto(ctx context.Context, photo telegram.Photo) (*telegram.Response, error)
}

// SendState is the persisted last-sent marker
type SendState interface {
	WasAlreadySent(id string) bool
	MarkSent(id string) error
	TimeSinceLastMark() time.Duration
}

// CamMetrics represents the outcome of one camera check
type CamMetrics struct {
	Candidate      string `json:"candidate"`
	AlreadySent    bool   `json:"already_sent"`
	ForecastPoints int    `json:"forecast_points"`
	SkipReason     string `json:"skip_reason,omitempty"`
	Sent           bool   `json:"sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m CamMetrics) GetSummary() string {
	switch {
	case m.Sent:
		return fmt.Sprintf("sent %s", m.Candidate)
	case m.AlreadySent:
		return fmt.Sprintf("%s already sent, nothing to do", m.Candidate)
	case m.SkipReason != "":
		return fmt.Sprintf("skipped %s: %s", m.Candidate, m.SkipReason)
	default:
		return fmt.Sprintf("%s not sent", m.Candidate)
	}
}

// SnowCamAgent implements the scheduler.Agent interface
type SnowCamAgent struct {
	config   *config.Config
	logger   *slog.Logger
	camera   FileSource
	weather  ForecastFetcher
	calendar HolidayCalendar
	sender   PhotoSender
	tracker  SendState

	reconciler *forecast.Reconciler
	policy     GatePolicy
	captions   CaptionFormatter
	now        func() time.Time
}

func NewSnowCamAgent(cfg *config.Config, logger *slog.Logger) *SnowCamAgent {
	policy := DefaultGatePolicy()
	if cfg.Notify.MaxTemperatureC != 0 {
		policy.MaxWindowTemperatureC = cfg.Notify.MaxTemperatureC
	}

	return &SnowCamAgent{
		config:     cfg,
		logger:     logger,
		reconciler: forecast.NewReconciler(),
		policy:     policy,
		captions:   CaptionFormatter{Title: cfg.Notify.Title},
		now:        time.Now,
	}
}

func (a *SnowCamAgent) Name() string {
	return "Snow Cam Agent"
}

// Initialize wires the production collaborators that were not injected
func (a *SnowCamAgent) Initialize() error {
	a.logger.Debug("initializing agent", slog.String("agent", a.Name()))

	if a.camera == nil {
		a.camera = NewSFTPSource(&a.config.Camera, a.logger)
	}

	if a.weather == nil {
		a.weather = NewWeatherClient(&a.config.Weather, a.config.Location())
	}

	if a.calendar == nil {
		calendar, err := NewRegionalCalendar(a.config.Notify.Country, a.config.Notify.Subdivision)
		if err != nil {
			return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
		a.calendar = calendar
	}

	if a.sender == nil {
		a.sender = telegram.NewSender(&a.config.Telegram, a.logger)
	}

	if a.tracker == nil {
		tracker, err := storage.NewSendTracker(a.config.State.DataDir, a.config.State.MarkerFile)
		if err != nil {
			return err
		}
		a.tracker = tracker
	}

	if a.config.Camera.Directory == "" {
		return fmt.Errorf("%w: camera directory must be configured", config.ErrConfiguration)
	}

	return nil
}

func (a *SnowCamAgent) RunOnce(ctx context.Context, logger *slog.Logger, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := CamMetrics{}

	names, err := a.camera.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: camera listing: %v", ErrFetch, err)
	}
	candidate, ok := LatestCandidate(names, a.config.Camera.Extension)
	if !ok {
		return fmt.Errorf("%w: no %s image in %s", ErrFetch, a.config.Camera.Extension, a.config.Camera.Directory)
	}
	metrics.Candidate = candidate
	logger = logger.With(slog.String("candidate", candidate))

	if a.tracker.WasAlreadySent(candidate) {
		logger.Debug("newest image already sent")
		metrics.AlreadySent = true
		a.succeed(events, metrics, startTime)
		return nil
	}

	streams, err := a.weather.FetchStreams(ctx, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	series := a.reconciler.Merge(streams)
	now := a.now().In(a.config.Location())

	stats, err := forecast.ExtractWindow(series, now, a.config.Notify.WindowHours)
	if err != nil {
		return err
	}
	metrics.ForecastPoints = stats.Count

	caption := a.captions.Format(stats)
	logger.Debug("forecast window",
		slog.Int("series", series.Len()),
		slog.Int("points", stats.Count),
		slog.Float64("min", stats.Min),
		slog.Float64("median", stats.Median),
		slog.String("caption", caption))

	verdict := a.policy.Decide(GateContext{
		Now:                  now,
		IsHoliday:            IsRestDay(a.calendar, now),
		SinceLastSend:        a.tracker.TimeSinceLastMark(),
		WindowMinTemperature: stats.Min,
	})
	if verdict.Skip {
		logger.Debug("notification skipped", slog.String("reason", verdict.Reason))
		metrics.SkipReason = verdict.Reason
		a.succeed(events, metrics, startTime)
		return nil
	}

	sent, err := a.deliver(ctx, logger, candidate, caption)
	if err != nil {
		return err
	}
	if !sent {
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%s was not delivered", candidate), time.Since(startTime))
		}
		return nil
	}

	if err := a.tracker.MarkSent(candidate); err != nil {
		return fmt.Errorf("failed to record sent image: %w", err)
	}
	metrics.Sent = true

	a.succeed(events, metrics, startTime)
	return nil
}

// deliver downloads the image and hands it to the transport. Transport
// failures are logged and reported as not sent so the next run retries;
// download and configuration failures are returned as errors.
func (a *SnowCamAgent) deliver(ctx context.Context, logger *slog.Logger, candidate, caption string) (bool, error) {
	tmpDir, err := os.MkdirTemp("", "camwatch-")
	if err != nil {
		return false, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, filepath.Base(candidate))
	f, err := os.Create(localPath)
	if err != nil {
		return false, fmt.Errorf("failed to create local image: %w", err)
	}
	fetchErr := a.camera.Fetch(ctx, candidate, f)
	if err := f.Close(); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return false, fmt.Errorf("%w: image download: %v", ErrFetch, fetchErr)
	}

	resp, err := a.sender.SendPhoto(ctx, telegram.Photo{
		Path:     localPath,
		ChatID:   a.config.Telegram.ChatID,
		Caption:  caption,
		Silent:   a.config.Telegram.IsSilent(),
		ThreadID: a.config.Telegram.ThreadID,
	})
	if errors.Is(err, config.ErrConfiguration) {
		return false, err
	}
	if err != nil {
		logger.Warn("send failed", slog.String("error", err.Error()))
		return false, nil
	}
	if err := resp.Err(); err != nil {
		logger.Warn("send not acknowledged", slog.String("error", err.Error()))
		return false, nil
	}

	logger.Debug("image sent")
	return true, nil
}

func (a *SnowCamAgent) succeed(events *scheduler.AgentEvents, metrics CamMetrics, startTime time.Time) {
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
}
