package snowcam

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camwatch/internal/forecast"
	"camwatch/internal/models"
	"camwatch/shared/config"
)

const j1Payload = `{
  "current_condition": [],
  "weather": [
    {
      "date": "2026-01-14",
      "hourly": [
        {"time": "0", "tempC": "-2", "tempF": "28",
         "weatherDesc": [{"value": "Light snow"}], "lang_de": [{"value": "Leichter Schneefall"}]},
        {"time": "1130", "tempC": "1", "tempF": "34",
         "weatherDesc": [{"value": "Overcast"}]}
      ]
    }
  ]
}`

func newWeatherServer(t *testing.T, status map[string]int) (*httptest.Server, *sync.Map) {
	t.Helper()
	seen := &sync.Map{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flag := "m"
		if _, ok := r.URL.Query()["u"]; ok {
			flag = "u"
		}
		seen.Store(flag, r.URL.String())

		if code, ok := status[flag]; ok {
			w.WriteHeader(code)
			return
		}
		w.Write([]byte(j1Payload))
	}))
	t.Cleanup(server.Close)
	return server, seen
}

func testWeatherClient(url string) *WeatherClient {
	return NewWeatherClient(&config.WeatherConfig{
		URL:      url,
		Location: "Oberstdorf",
		Language: "de",
		Timeout:  5 * time.Second,
	}, time.UTC)
}

func TestFetchStreams(t *testing.T) {
	server, seen := newWeatherServer(t, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	streams, err := testWeatherClient(server.URL).FetchStreams(context.Background(), logger)
	require.NoError(t, err)
	require.Len(t, streams, 2)

	assert.Equal(t, "metric", streams[0].Name)
	assert.Equal(t, models.Celsius, streams[0].Unit)
	assert.Equal(t, "uscs", streams[1].Name)
	assert.Equal(t, models.Fahrenheit, streams[1].Unit)

	metric := streams[0].Observations
	require.Len(t, metric, 2)
	assert.Equal(t, 0, metric[0].Hour)
	assert.Equal(t, -2.0, metric[0].Temperature)
	assert.Equal(t, "Light snow", metric[0].Description)
	assert.Equal(t, "Leichter Schneefall", metric[0].Kind)
	assert.Equal(t, 11, metric[1].Hour)
	assert.Equal(t, 30, metric[1].Minute)
	assert.Equal(t, "Overcast", metric[1].Kind, "kind falls back to the description")

	assert.Equal(t, 28.0, streams[1].Observations[0].Temperature)

	for _, flag := range []string{"m", "u"} {
		raw, ok := seen.Load(flag)
		require.True(t, ok, "expected a %s request", flag)
		assert.True(t, strings.HasPrefix(raw.(string), "/Oberstdorf?"))
		assert.Contains(t, raw.(string), "format=j1")
		assert.Contains(t, raw.(string), "lang=de")
	}
}

func TestFetchStreamsMergesIntoCelsius(t *testing.T) {
	server, _ := newWeatherServer(t, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	streams, err := testWeatherClient(server.URL).FetchStreams(context.Background(), logger)
	require.NoError(t, err)

	series := forecast.NewReconciler().Merge(streams)
	p, ok := series.At(time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)

	// -2°C baseline, 28°F = -2.22°C correction
	expected := -2*0.28 + forecast.ToCelsius(28)*0.72
	assert.InDelta(t, expected, p.TemperatureC, 1e-9)
	assert.Equal(t, "Light snow", p.Description)
}

func TestFetchStreamsFailsWhenEitherFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, flag := range []string{"m", "u"} {
		t.Run(flag, func(t *testing.T) {
			server, _ := newWeatherServer(t, map[string]int{flag: http.StatusServiceUnavailable})

			streams, err := testWeatherClient(server.URL).FetchStreams(context.Background(), logger)
			assert.Error(t, err)
			assert.Nil(t, streams)
		})
	}
}

func TestToStreamRejectsMalformedData(t *testing.T) {
	client := testWeatherClient("http://unused")

	var resp WttrResponse
	resp.Weather = append(resp.Weather, struct {
		Date   string       `json:"date"`
		Hourly []wttrHourly `json:"hourly"`
	}{Date: "2026-01-14", Hourly: []wttrHourly{{Time: "noon", TempC: "1"}}})

	_, err := client.toStream(resp, unitSystems[0])
	assert.Error(t, err)

	resp.Weather[0].Hourly[0] = wttrHourly{Time: "1200", TempC: "n/a"}
	_, err = client.toStream(resp, unitSystems[0])
	assert.Error(t, err)

	resp.Weather[0].Date = "14.01.2026"
	_, err = client.toStream(resp, unitSystems[0])
	assert.Error(t, err)
}
