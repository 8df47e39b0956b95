package scenario

import "math"

// RiskLevel - уровень риска затопления
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskModerate:
		return 2
	default:
		return 3
	}
}

// RequiresEvacuation - эвакуация рекомендуется при высоком и критическом риске
func (r RiskLevel) RequiresEvacuation() bool {
	return r == RiskCritical || r == RiskHigh
}

// FloodRisk - результат имитации модели затопления для одного района
type FloodRisk struct {
	Probability        float64
	DepthCM            float64
	Level              RiskLevel
	PopulationAffected int
}

// uniform возвращает случайное число из [lo, hi)
type uniform func(lo, hi float64) float64

// CalculateFloodRisk имитирует предсказание модели по количеству осадков и рельефу
func CalculateFloodRisk(rainfallMM, elevationFactor float64, population int, rnd uniform) FloodRisk {
	base := math.Min(0.95, (rainfallMM/150.0)*elevationFactor)
	probability := round(base+rnd(-0.05, 0.05), 3)
	probability = math.Max(0, math.Min(1, probability))

	var depth float64
	switch {
	case probability > 0.7:
		depth = rainfallMM*0.8*elevationFactor + rnd(10, 30)
	case probability > 0.4:
		depth = rainfallMM*0.5*elevationFactor + rnd(5, 15)
	default:
		depth = rainfallMM*0.2*elevationFactor + rnd(0, 10)
	}
	depth = round(depth, 1)

	var level RiskLevel
	switch {
	case probability >= 0.7 || depth >= 50:
		level = RiskCritical
	case probability >= 0.5 || depth >= 30:
		level = RiskHigh
	case probability >= 0.3 || depth >= 15:
		level = RiskModerate
	default:
		level = RiskLow
	}

	affectedRatio := math.Min(1.0, probability*1.2)
	return FloodRisk{
		Probability:        probability,
		DepthCM:            depth,
		Level:              level,
		PopulationAffected: int(float64(population) * affectedRatio),
	}
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
