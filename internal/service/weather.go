package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/urbanflow/backend/internal/domain"
)

// weatherRefreshInterval is how long a fetched reading stays fresh.
const weatherRefreshInterval = 10 * time.Minute

// WeatherService fetches city weather from OpenWeatherMap and caches it.
// Current never fails: on upstream trouble it serves the last known
// reading, and before any successful fetch it serves a static default.
// Both fallbacks are marked Stale.
type WeatherService struct {
	apiKey     string
	lat, lng   float64
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	cached    domain.Weather
	hasCached bool
}

// NewWeatherService creates a new weather service for a city centre. With
// an empty API key every reading is the static default.
func NewWeatherService(apiKey string, lat, lng float64) *WeatherService {
	return &WeatherService{
		apiKey: apiKey,
		lat:    lat,
		lng:    lng,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// openWeatherResponse is the subset of the OpenWeatherMap payload we use.
type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current returns the weather reading to attach to this tick's snapshots.
func (s *WeatherService) Current(ctx context.Context) domain.Weather {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasCached && s.now().Sub(s.cached.UpdatedAt) < weatherRefreshInterval {
		return s.cached
	}

	fresh, err := s.fetch(ctx)
	if err != nil {
		if s.hasCached {
			stale := s.cached
			stale.Stale = true
			return stale
		}
		return s.defaultWeather()
	}

	s.cached = fresh
	s.hasCached = true
	return fresh
}

func (s *WeatherService) fetch(ctx context.Context) (domain.Weather, error) {
	if s.apiKey == "" {
		return domain.Weather{}, fmt.Errorf("weather: no api key configured")
	}

	url := fmt.Sprintf(
		"https://api.openweathermap.org/data/2.5/weather?lat=%f&lon=%f&appid=%s&units=metric",
		s.lat, s.lng, s.apiKey,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: fetch: %w", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Weather{}, fmt.Errorf("weather: status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var owResp openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to decode response: %w", err)
	}

	w := domain.Weather{
		TempC:     owResp.Main.Temp,
		Humidity:  owResp.Main.Humidity,
		UpdatedAt: s.now(),
	}
	if len(owResp.Weather) > 0 {
		w.Condition = conditionLabel(owResp.Weather[0].Main, owResp.Main.Temp)
	} else {
		w.Condition = conditionLabel("", owResp.Main.Temp)
	}
	return w, nil
}

// conditionLabel collapses provider condition strings onto the four
// labels the dashboard knows.
func conditionLabel(providerMain string, tempC float64) string {
	switch {
	case strings.Contains(strings.ToLower(providerMain), "rain"),
		strings.Contains(strings.ToLower(providerMain), "drizzle"),
		strings.Contains(strings.ToLower(providerMain), "thunder"):
		return "Rain"
	case strings.Contains(strings.ToLower(providerMain), "cloud"):
		return "Cloudy"
	case tempC >= 32:
		return "Hot"
	default:
		return "Clear"
	}
}

// defaultWeather is the static tropical-city reading used before the
// first successful fetch.
func (s *WeatherService) defaultWeather() domain.Weather {
	return domain.Weather{
		TempC:     31.0,
		Condition: "Clear",
		Humidity:  70,
		UpdatedAt: s.now(),
		Stale:     true,
	}
}
