package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	currentFields = "temperature_2m,relative_humidity_2m,precipitation,rain,weather_code,wind_speed_10m,wind_direction_10m"
	dailyFields   = "temperature_2m_max,temperature_2m_min,precipitation_sum,rain_sum,weather_code,wind_speed_10m_max"
)

// Client - HTTP клиент Open-Meteo
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type currentResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time             string   `json:"time"`
		Temperature      float64  `json:"temperature_2m"`
		RelativeHumidity *float64 `json:"relative_humidity_2m"`
		Precipitation    float64  `json:"precipitation"`
		Rain             float64  `json:"rain"`
		WeatherCode      int      `json:"weather_code"`
		WindSpeed        float64  `json:"wind_speed_10m"`
		WindDirection    *float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time             []string  `json:"time"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		RainSum          []float64 `json:"rain_sum"`
		WeatherCode      []int     `json:"weather_code"`
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// Current запрашивает текущую погоду
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Current, error) {
	params := coordinates(lat, lon)
	params.Set("current", currentFields)

	var resp currentResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	timestamp := resp.Current.Time
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return &Current{
		Latitude:      resp.Latitude,
		Longitude:     resp.Longitude,
		Temperature:   resp.Current.Temperature,
		Humidity:      resp.Current.RelativeHumidity,
		Precipitation: resp.Current.Precipitation,
		Rain:          resp.Current.Rain,
		WeatherCode:   resp.Current.WeatherCode,
		WindSpeed:     resp.Current.WindSpeed,
		WindDirection: resp.Current.WindDirection,
		Timestamp:     timestamp,
		Description:   Description(resp.Current.WeatherCode),
	}, nil
}

// Forecast запрашивает прогноз на days дней (1..16)
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return nil, ErrInvalidDays
	}
	params := coordinates(lat, lon)
	params.Set("daily", dailyFields)
	params.Set("forecast_days", strconv.Itoa(days))

	var resp forecastResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	d := resp.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) < n || len(d.TemperatureMin) < n || len(d.PrecipitationSum) < n ||
		len(d.RainSum) < n || len(d.WeatherCode) < n || len(d.WindSpeedMax) < n {
		return nil, fmt.Errorf("malformed forecast response: daily arrays shorter than %d", n)
	}

	forecast := &Forecast{
		Latitude:  resp.Latitude,
		Longitude: resp.Longitude,
		Timezone:  resp.Timezone,
		Forecast:  make([]ForecastDay, n),
	}
	for i := 0; i < n; i++ {
		forecast.Forecast[i] = ForecastDay{
			Date:           d.Time[i],
			TemperatureMax: d.TemperatureMax[i],
			TemperatureMin: d.TemperatureMin[i],
			Precipitation:  d.PrecipitationSum[i],
			Rain:           d.RainSum[i],
			WeatherCode:    d.WeatherCode[i],
			Description:    Description(d.WeatherCode[i]),
			WindSpeedMax:   d.WindSpeedMax[i],
		}
	}
	return forecast, nil
}

func (c *Client) get(ctx context.Context, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status code %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode weather response: %w", err)
	}
	return nil
}

func coordinates(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("timezone", "auto")
	return params
}
