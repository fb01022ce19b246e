package snowcam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"camwatch/internal/models"
	"camwatch/shared/config"
)

// WttrResponse is the subset of wttr.in's format=j1 payload that is used
type WttrResponse struct {
	Weather []struct {
		Date   string       `json:"date"`
		Hourly []wttrHourly `json:"hourly"`
	} `json:"weather"`
}

type wttrText []struct {
	Value string `json:"value"`
}

func (w wttrText) first() string {
	if len(w) == 0 {
		return ""
	}
	return w[0].Value
}

type wttrHourly struct {
	Time        string   `json:"time"`
	TempC       string   `json:"tempC"`
	TempF       string   `json:"tempF"`
	WeatherDesc wttrText `json:"weatherDesc"`
	// Localized description, keyed lang_<code>
	Localized map[string]wttrText `json:"-"`
}

func (h *wttrHourly) UnmarshalJSON(data []byte) error {
	type plain wttrHourly
	if err := json.Unmarshal(data, (*plain)(h)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.Localized = make(map[string]wttrText)
	for key, value := range raw {
		if len(key) <= 5 || key[:5] != "lang_" {
			continue
		}
		var text wttrText
		if err := json.Unmarshal(value, &text); err != nil {
			continue
		}
		h.Localized[key[5:]] = text
	}
	return nil
}

// unitSystem is one of the two wttr.in views of the same forecast
type unitSystem struct {
	name  string
	flag  string // query flag selecting the unit system
	unit  models.Unit
	value func(h wttrHourly) string
}

// The order matters: the metric stream is the merge baseline, the USCS stream
// the correction.
var unitSystems = []unitSystem{
	{name: "metric", flag: "m", unit: models.Celsius, value: func(h wttrHourly) string { return h.TempC }},
	{name: "uscs", flag: "u", unit: models.Fahrenheit, value: func(h wttrHourly) string { return h.TempF }},
}

// WeatherClient fetches the two forecast streams from wttr.in
type WeatherClient struct {
	config   *config.WeatherConfig
	location *time.Location
	client   *http.Client
}

func NewWeatherClient(cfg *config.WeatherConfig, location *time.Location) *WeatherClient {
	return &WeatherClient{
		config:   cfg,
		location: location,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchStreams requests both unit systems concurrently. Any failure fails the
// whole fetch; the result is always ordered metric first.
func (w *WeatherClient) FetchStreams(ctx context.Context, logger *slog.Logger) ([]models.Stream, error) {
	streams := make([]models.Stream, len(unitSystems))

	g, gctx := errgroup.WithContext(ctx)
	for i, system := range unitSystems {
		i, system := i, system
		g.Go(func() error {
			stream, err := w.fetchStream(gctx, logger, system)
			if err != nil {
				return fmt.Errorf("%s forecast: %w", system.name, err)
			}
			streams[i] = stream
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return streams, nil
}

func (w *WeatherClient) fetchStream(ctx context.Context, logger *slog.Logger, system unitSystem) (models.Stream, error) {
	query := url.Values{}
	query.Set("format", "j1")
	if w.config.Language != "" {
		query.Set("lang", w.config.Language)
	}
	// wttr.in takes the unit system as a bare flag
	endpoint := fmt.Sprintf("%s/%s?%s&%s", w.config.URL, url.PathEscape(w.config.Location), query.Encode(), system.flag)

	logger.Debug("fetching forecast", slog.String("stream", system.name), slog.String("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Stream{}, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return models.Stream{}, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Stream{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var apiResp WttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return models.Stream{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return w.toStream(apiResp, system)
}

func (w *WeatherClient) toStream(apiResp WttrResponse, system unitSystem) (models.Stream, error) {
	stream := models.Stream{Name: system.name, Unit: system.unit}

	for _, day := range apiResp.Weather {
		date, err := time.ParseInLocation("2006-01-02", day.Date, w.location)
		if err != nil {
			return models.Stream{}, fmt.Errorf("failed to parse forecast date %q: %w", day.Date, err)
		}

		for _, hourly := range day.Hourly {
			hhmm, err := strconv.Atoi(hourly.Time)
			if err != nil {
				return models.Stream{}, fmt.Errorf("failed to parse forecast time %q: %w", hourly.Time, err)
			}
			temp, err := strconv.ParseFloat(system.value(hourly), 64)
			if err != nil {
				return models.Stream{}, fmt.Errorf("failed to parse temperature at %s %s: %w", day.Date, hourly.Time, err)
			}

			description := hourly.WeatherDesc.first()
			kind := hourly.Localized[w.config.Language].first()
			if kind == "" {
				kind = description
			}

			stream.Observations = append(stream.Observations, models.RawObservation{
				Day:         date,
				Hour:        hhmm / 100,
				Minute:      hhmm % 100,
				Temperature: temp,
				Unit:        system.unit,
				Description: description,
				Kind:        kind,
			})
		}
	}

	return stream, nil
}
