// Package scenario - демонстрационный сценарий тайфуна над провинцией Пампанга.
//
// Состояние сценария хранится в Simulator, который передается обработчикам явно.
// Время и случайность внедряются снаружи, поэтому вывод детерминирован в тестах.
package scenario

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shenikar/bantaybayan/internal/geo"
	"github.com/shenikar/bantaybayan/internal/weather"
)

const (
	landfallLayout = "2006-01-02 15:04"
	stormWarning   = "SEVERE WEATHER WARNING: Typhoon expected to make landfall in 6 hours"
	allClearNotice = "Typhoon has passed. Weather improving. Some areas may still be flooded."
)

// Simulator - переключатель сценария шторма и генератор его данных
type Simulator struct {
	active atomic.Bool
	clock  clockwork.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(clock clockwork.Clock, rng *rand.Rand) *Simulator {
	return &Simulator{clock: clock, rng: rng}
}

// Active сообщает, включен ли сценарий
func (s *Simulator) Active() bool {
	return s.active.Load()
}

func (s *Simulator) now() string {
	return s.clock.Now().Format(time.RFC3339)
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

// Activation - ответ на включение сценария
type Activation struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Scenario  string   `json:"scenario"`
	Timestamp string   `json:"timestamp"`
	NextSteps []string `json:"next_steps"`
}

func (s *Simulator) Activate() Activation {
	s.active.Store(true)
	return Activation{
		Status:    "activated",
		Message:   "STORM SCENARIO ACTIVATED! All weather endpoints will now return simulated typhoon data. Users will see extreme weather warnings.",
		Scenario:  stormDescription,
		Timestamp: s.now(),
		NextSteps: []string{
			"Weather API will return storm data",
			"Users will see flood predictions and evacuation warnings",
		},
	}
}

// RecoveryInfo - сведения для жителей после ухода шторма
type RecoveryInfo struct {
	AllClear          bool     `json:"all_clear"`
	PostStormSummary  string   `json:"post_storm_summary"`
	CurrentConditions string   `json:"current_conditions"`
	SafetyStatus      string   `json:"safety_status"`
	NextSteps         []string `json:"next_steps"`
	Warning           string   `json:"warning"`
}

// Deactivation - ответ на выключение сценария
type Deactivation struct {
	Status       string       `json:"status"`
	Message      string       `json:"message"`
	Timestamp    string       `json:"timestamp"`
	RecoveryInfo RecoveryInfo `json:"recovery_info"`
}

func (s *Simulator) Deactivate() Deactivation {
	s.active.Store(false)
	return Deactivation{
		Status:    "deactivated",
		Message:   "Storm scenario deactivated. Typhoon Rosing has passed. Weather conditions improving.",
		Timestamp: s.now(),
		RecoveryInfo: RecoveryInfo{
			AllClear:          true,
			PostStormSummary:  "Typhoon Rosing has moved away from Pampanga. Flood waters receding.",
			CurrentConditions: "Weather conditions returning to normal. Rain has stopped.",
			SafetyStatus:      "Safe to exit shelters in non-flooded areas",
			NextSteps: []string{
				"Assess damage to homes and property",
				"Report remaining flood issues through the app",
				"Avoid damaged power lines and infrastructure",
				"Check for updates from local authorities before returning home",
				"Continue monitoring water levels in previously flooded areas",
			},
			Warning: "Some areas may still have standing water. Exercise caution.",
		},
	}
}

// Status - текущее состояние сценария
type Status struct {
	Active   bool    `json:"active"`
	Scenario *string `json:"scenario"`
	Message  string  `json:"message"`
}

func (s *Simulator) Status() Status {
	if !s.Active() {
		return Status{Active: false, Message: "Normal operations"}
	}
	name := stormName
	return Status{Active: true, Scenario: &name, Message: "Storm scenario is active"}
}

// FloodPrediction - прогноз затопления для одного населенного пункта
type FloodPrediction struct {
	Location              string    `json:"location"`
	Latitude              float64   `json:"latitude"`
	Longitude             float64   `json:"longitude"`
	FloodProbability      float64   `json:"flood_probability"`
	PredictedDepthCM      float64   `json:"predicted_depth_cm"`
	RiskLevel             RiskLevel `json:"risk_level"`
	PopulationAffected    int       `json:"population_affected"`
	EvacuationRecommended bool      `json:"evacuation_recommended"`
}

// StormScenario - полный набор данных сценария тайфуна
type StormScenario struct {
	ScenarioID             string            `json:"scenario_id"`
	StormName              string            `json:"storm_name"`
	Intensity              string            `json:"intensity"`
	CurrentLocation        string            `json:"current_location"`
	TargetArea             string            `json:"target_area"`
	EstimatedLandfall      string            `json:"estimated_landfall"`
	CurrentWeather         WeatherSnapshot   `json:"current_weather"`
	Forecast6h             WeatherSnapshot   `json:"forecast_6h"`
	Forecast12h            WeatherSnapshot   `json:"forecast_12h"`
	Forecast24h            WeatherSnapshot   `json:"forecast_24h"`
	FloodPredictions       []FloodPrediction `json:"flood_predictions"`
	AffectedMunicipalities []string          `json:"affected_municipalities"`
	TotalPopulationAtRisk  int               `json:"total_population_at_risk"`
	HighRiskAreas          []string          `json:"high_risk_areas"`
	RecommendedActions     []string          `json:"recommended_actions"`
}

// StormScenario строит сценарий. Прогноз затоплений считается по пиковым осадкам (12 ч).
func (s *Simulator) StormScenario() *StormScenario {
	peakRainfall := forecast12h.Rainfall

	predictions := make([]FloodPrediction, 0, len(Municipalities))
	names := make([]string, 0, len(Municipalities))
	highRisk := make([]string, 0)
	total := 0
	for _, m := range Municipalities {
		risk := CalculateFloodRisk(peakRainfall, ElevationFactor(m.Name), m.Population, s.uniform)
		predictions = append(predictions, FloodPrediction{
			Location:              m.Name,
			Latitude:              m.Latitude,
			Longitude:             m.Longitude,
			FloodProbability:      risk.Probability,
			PredictedDepthCM:      risk.DepthCM,
			RiskLevel:             risk.Level,
			PopulationAffected:    risk.PopulationAffected,
			EvacuationRecommended: risk.Level.RequiresEvacuation(),
		})
		names = append(names, m.Name)
		total += risk.PopulationAffected
		if risk.Level.RequiresEvacuation() {
			highRisk = append(highRisk, m.Name)
		}
	}

	slices.SortStableFunc(predictions, func(a, b FloodPrediction) int {
		if d := a.RiskLevel.rank() - b.RiskLevel.rank(); d != 0 {
			return d
		}
		switch {
		case a.FloodProbability > b.FloodProbability:
			return -1
		case a.FloodProbability < b.FloodProbability:
			return 1
		}
		return 0
	})

	return &StormScenario{
		ScenarioID:             scenarioID,
		StormName:              stormName,
		Intensity:              stormIntensity,
		CurrentLocation:        stormLocation,
		TargetArea:             stormTargetArea,
		EstimatedLandfall:      s.clock.Now().Add(hoursToLandfall * time.Hour).Format(landfallLayout),
		CurrentWeather:         currentStorm,
		Forecast6h:             forecast6h,
		Forecast12h:            forecast12h,
		Forecast24h:            forecast24h,
		FloodPredictions:       predictions,
		AffectedMunicipalities: names,
		TotalPopulationAtRisk:  total,
		HighRiskAreas:          highRisk,
		RecommendedActions:     slices.Clone(recommendedActions),
	}
}

// LocationConditions - краткие текущие условия в точке
type LocationConditions struct {
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	WindSpeed   float64 `json:"wind_speed"`
	Humidity    int     `json:"humidity"`
	WeatherCode int     `json:"weather_code"`
	Description string  `json:"description"`
}

// LocationWeather - погода сценария для произвольной точки
type LocationWeather struct {
	Location              string             `json:"location"`
	Latitude              float64            `json:"latitude"`
	Longitude             float64            `json:"longitude"`
	Current               LocationConditions `json:"current"`
	Forecast6hRainfall    float64            `json:"forecast_6h_rainfall"`
	Forecast12hRainfall   float64            `json:"forecast_12h_rainfall"`
	Forecast24hRainfall   float64            `json:"forecast_24h_rainfall"`
	Cumulative24hRainfall float64            `json:"cumulative_24h_rainfall"`
	Warning               string             `json:"warning"`
}

// Nearest возвращает ближайший населенный пункт и расстояние до него в километрах
func Nearest(lat, lon float64) (Municipality, float64) {
	best := Municipalities[0]
	bestDist := math.Inf(1)
	for _, m := range Municipalities {
		if d := geo.Distance(lat, lon, m.Latitude, m.Longitude); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best, bestDist / 1000
}

// rainfallFactor уменьшает осадки по мере удаления от населенного пункта, но не ниже 0.7
func rainfallFactor(distanceKM float64) float64 {
	return math.Max(0.7, 1.0-distanceKM/50)
}

// LocationWeather - осадки сценария в точке с поправкой на удаленность
func (s *Simulator) LocationWeather(lat, lon float64) *LocationWeather {
	nearest, km := Nearest(lat, lon)
	f := rainfallFactor(km)

	return &LocationWeather{
		Location:  "Near " + nearest.Name,
		Latitude:  lat,
		Longitude: lon,
		Current: LocationConditions{
			Temperature: currentStorm.Temperature,
			Rainfall:    round(currentStorm.Rainfall*f, 1),
			WindSpeed:   currentStorm.WindSpeed,
			Humidity:    currentStorm.Humidity,
			WeatherCode: currentStorm.WeatherCode,
			Description: "Heavy rain - Typhoon approaching",
		},
		Forecast6hRainfall:    round(forecast6h.Rainfall*f, 1),
		Forecast12hRainfall:   round(forecast12h.Rainfall*f, 1),
		Forecast24hRainfall:   round(forecast24h.Rainfall*f, 1),
		Cumulative24hRainfall: round((forecast6h.Rainfall+forecast12h.Rainfall+forecast24h.Rainfall+currentStorm.Rainfall)*f, 1),
		Warning:               "SEVERE WEATHER WARNING: Typhoon Rosing expected to make landfall in 6 hours",
	}
}

// CurrentWeather подменяет текущую погоду: штормовую при активном сценарии,
// иначе условия после ухода тайфуна
func (s *Simulator) CurrentWeather(lat, lon float64) *weather.Current {
	if !s.Active() {
		return s.postStormWeather(lat, lon)
	}

	nearest, km := Nearest(lat, lon)
	rain := round(currentStorm.Rainfall*rainfallFactor(km), 1)
	humidity := float64(currentStorm.Humidity)
	direction := 270.0
	return &weather.Current{
		Latitude:      lat,
		Longitude:     lon,
		Temperature:   currentStorm.Temperature,
		Humidity:      &humidity,
		Precipitation: rain,
		Rain:          rain,
		WeatherCode:   currentStorm.WeatherCode,
		WindSpeed:     currentStorm.WindSpeed,
		WindDirection: &direction,
		Timestamp:     s.now(),
		Description:   "Heavy rain - Typhoon Rosing approaching (near " + nearest.Name + ")",
		IsScenario:    true,
		Warning:       stormWarning,
	}
}

func (s *Simulator) postStormWeather(lat, lon float64) *weather.Current {
	nearest, _ := Nearest(lat, lon)
	humidity := 75.0
	direction := 90.0
	return &weather.Current{
		Latitude:      lat,
		Longitude:     lon,
		Temperature:   28.5,
		Humidity:      &humidity,
		WeatherCode:   3,
		WindSpeed:     15.0,
		WindDirection: &direction,
		Timestamp:     s.now(),
		Description:   "Overcast skies - Post-typhoon conditions (near " + nearest.Name + ")",
		IsScenario:    true,
		AllClear:      allClearNotice,
	}
}
