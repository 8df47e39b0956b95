package scenario

// Municipality - населенный пункт провинции Пампанга из демонстрационного набора
type Municipality struct {
	Name       string
	Latitude   float64
	Longitude  float64
	Population int
}

// Municipalities - фиксированный набор для сценария шторма
var Municipalities = []Municipality{
	{Name: "Angeles City", Latitude: 15.1450, Longitude: 120.5887, Population: 411634},
	{Name: "San Fernando", Latitude: 15.0285, Longitude: 120.6897, Population: 327326},
	{Name: "Mabalacat", Latitude: 15.2267, Longitude: 120.5714, Population: 250799},
	{Name: "Guagua", Latitude: 14.9650, Longitude: 120.6333, Population: 117845},
	{Name: "Mexico", Latitude: 15.0667, Longitude: 120.7167, Population: 173403},
	{Name: "Apalit", Latitude: 14.9500, Longitude: 120.7500, Population: 117160},
	{Name: "Porac", Latitude: 15.0667, Longitude: 120.5333, Population: 140751},
	{Name: "Lubao", Latitude: 14.9333, Longitude: 120.5833, Population: 173502},
	{Name: "Candaba", Latitude: 15.0833, Longitude: 120.8333, Population: 119497},
	{Name: "Macabebe", Latitude: 14.8833, Longitude: 120.7000, Population: 78490},
}

// ElevationFactor - низинные районы у рек и болот затапливаются сильнее
func ElevationFactor(name string) float64 {
	switch name {
	case "Candaba", "Apalit", "Macabebe", "Guagua":
		return 1.8
	case "Lubao", "Mexico", "San Fernando":
		return 1.4
	default:
		return 1.0
	}
}

const (
	scenarioID       = "TY-SIMULATED-2025"
	stormName        = "Typhoon Rosing"
	stormIntensity   = "Severe Tropical Storm"
	stormLocation    = "West Philippine Sea, 200km west of Zambales"
	stormTargetArea  = "Central Luzon (Pampanga)"
	hoursToLandfall  = 6
	stormDescription = "Typhoon Rosing - Severe Tropical Storm"
)

// WeatherSnapshot - погодные условия на момент сценария или прогноза
type WeatherSnapshot struct {
	Temperature        float64 `json:"temperature"`
	Rainfall           float64 `json:"rainfall"`
	Rainfall6h         float64 `json:"rainfall_6h,omitempty"`
	RainfallCumulative float64 `json:"rainfall_cumulative,omitempty"`
	WindSpeed          float64 `json:"wind_speed"`
	WindGusts          float64 `json:"wind_gusts"`
	Pressure           float64 `json:"pressure"`
	Humidity           int     `json:"humidity"`
	WeatherCode        int     `json:"weather_code"`
	Description        string  `json:"description"`
	Visibility         float64 `json:"visibility"`
}

var (
	currentStorm = WeatherSnapshot{
		Temperature: 26.5, Rainfall: 15.2, Rainfall6h: 45.8, WindSpeed: 65.0, WindGusts: 85.0,
		Pressure: 985.0, Humidity: 92, WeatherCode: 95,
		Description: "Heavy rain and strong winds as typhoon approaches", Visibility: 2.5,
	}
	forecast6h = WeatherSnapshot{
		Temperature: 24.8, Rainfall: 85.5, RainfallCumulative: 131.3, WindSpeed: 95.0, WindGusts: 125.0,
		Pressure: 975.0, Humidity: 95, WeatherCode: 95,
		Description: "Intense rainfall and damaging winds - LANDFALL", Visibility: 1.0,
	}
	forecast12h = WeatherSnapshot{
		Temperature: 23.5, Rainfall: 125.0, RainfallCumulative: 256.3, WindSpeed: 110.0, WindGusts: 145.0,
		Pressure: 970.0, Humidity: 97, WeatherCode: 95,
		Description: "Torrential rain and violent winds - PEAK INTENSITY", Visibility: 0.5,
	}
	forecast24h = WeatherSnapshot{
		Temperature: 25.0, Rainfall: 45.0, RainfallCumulative: 301.3, WindSpeed: 75.0, WindGusts: 95.0,
		Pressure: 980.0, Humidity: 90, WeatherCode: 63,
		Description: "Moderate to heavy rain, weakening storm", Visibility: 3.0,
	}
)

var recommendedActions = []string{
	"IMMEDIATE: Pre-emptive evacuation of residents in flood-prone areas",
	"IMMEDIATE: Activate all disaster response teams and emergency shelters",
	"Deploy rescue boats and equipment to high-risk municipalities",
	"Suspend classes and work in all affected areas",
	"Monitor water levels in Pampanga River and its tributaries",
	"Coordinate with PAGASA for real-time weather updates",
	"Ensure backup power systems are operational in critical facilities",
	"Stock emergency supplies (food, water, medicine) in evacuation centers",
	"Issue public advisories through all available channels",
	"Restrict movement and travel in affected areas during peak intensity",
}
