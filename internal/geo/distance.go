// Package geo содержит расчет расстояний на сфере.
package geo

import "math"

// EarthRadiusMeters - средний радиус Земли
const EarthRadiusMeters = 6371000.0

// Distance возвращает расстояние по большому кругу между двумя точками (в градусах WGS84) в метрах.
// Используется формула гаверсинуса. Координаты должны быть проверены вызывающей стороной.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// погрешность округления может вывести a за [0, 1] для антиподов
	a = min(max(a, 0), 1)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}
