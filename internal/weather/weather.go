// Package weather - прокси к Open-Meteo с таблицей кодов погоды WMO.
package weather

import (
	"context"
	"errors"
)

const (
	MinForecastDays     = 1
	MaxForecastDays     = 16
	DefaultForecastDays = 7
)

var (
	// ErrUpstream - внешний сервис погоды недоступен или ответил ошибкой
	ErrUpstream = errors.New("weather upstream unavailable")
	// ErrInvalidDays - количество дней прогноза вне диапазона [1, 16]
	ErrInvalidDays = errors.New("days must be between 1 and 16")
)

// Current - текущая погода в точке
type Current struct {
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Temperature   float64  `json:"temperature"` // °C
	Humidity      *float64 `json:"humidity,omitempty"`
	Precipitation float64  `json:"precipitation"` // мм
	Rain          float64  `json:"rain"`          // мм
	WeatherCode   int      `json:"weather_code"`
	WindSpeed     float64  `json:"wind_speed"` // км/ч
	WindDirection *float64 `json:"wind_direction,omitempty"`
	Timestamp     string   `json:"timestamp"`
	Description   string   `json:"description"`

	// Заполняются только для данных сценария шторма
	IsScenario bool   `json:"is_scenario,omitempty"`
	Warning    string `json:"warning,omitempty"`
	AllClear   string `json:"all_clear,omitempty"`
}

// ForecastDay - прогноз на один день
type ForecastDay struct {
	Date           string  `json:"date"`
	TemperatureMax float64 `json:"temperature_max"`
	TemperatureMin float64 `json:"temperature_min"`
	Precipitation  float64 `json:"precipitation"`
	Rain           float64 `json:"rain"`
	WeatherCode    int     `json:"weather_code"`
	Description    string  `json:"description"`
	WindSpeedMax   float64 `json:"wind_speed_max"`
}

// Forecast - прогноз погоды по дням
type Forecast struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Timezone  string        `json:"timezone"`
	Forecast  []ForecastDay `json:"forecast"`
}

// Provider - источник данных о погоде
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*Current, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error)
}

var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Description возвращает описание кода погоды WMO, для неизвестных кодов - "Unknown"
func Description(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return "Unknown"
}
