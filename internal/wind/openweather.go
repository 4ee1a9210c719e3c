package wind

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

// OpenWeather fetches current wind conditions from the OpenWeather API.
type OpenWeather struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOpenWeather(baseURL, apiKey string) *OpenWeather {
	return &OpenWeather{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OpenWeather) Fetch(ctx context.Context, lat, lon float64) (kitedrift.WindSample, error) {
	if p.apiKey == "" {
		return kitedrift.WindSample{}, fmt.Errorf("openweather api key not configured")
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return kitedrift.WindSample{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return kitedrift.WindSample{}, fmt.Errorf("calling openweather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return kitedrift.WindSample{}, fmt.Errorf("openweather status %d", resp.StatusCode)
	}

	var body struct {
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return kitedrift.WindSample{}, fmt.Errorf("decoding response: %w", err)
	}

	return kitedrift.WindSample{
		Latitude:  lat,
		Longitude: lon,
		Speed:     body.Wind.Speed,
		Direction: body.Wind.Deg,
		FetchedAt: time.Now().UTC(),
	}, nil
}
