// Package geo provides haversine distances, synthetic instance
// generation around a depot, and time-matrix derivation for when no
// external matrix provider is configured.
package geo

import (
	"math"
	"math/rand"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultDepot is the fallback depot when a request supplies none.
var DefaultDepot = Point{Lat: 12.937771, Lng: 77.618625}

const (
	earthRadiusM = 6371000.0
	// One degree of latitude spans roughly 111.1 km.
	kmPerDegree = 111.1
)

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// RandomCustomers samples n points uniformly in a disk of radiusKm
// around the depot. The sqrt on the radial draw converts uniform area
// sampling to uniform radius sampling so points do not cluster near the
// center.
func RandomCustomers(rng *rand.Rand, depot Point, radiusKm float64, n int) []Point {
	rDeg := radiusKm / kmPerDegree
	out := make([]Point, n)
	for i := range out {
		r := rDeg * math.Sqrt(rng.Float64())
		theta := 2 * math.Pi * rng.Float64()
		out[i] = Point{
			Lat: depot.Lat + r*math.Cos(theta),
			Lng: depot.Lng + r*math.Sin(theta),
		}
	}
	return out
}

// TimeMatrix builds an (n+1)x(n+1) travel-time matrix in seconds from
// straight-line distances at speedKph, depot at index 0.
func TimeMatrix(depot Point, customers []Point, speedKph float64) [][]float64 {
	if speedKph <= 0 {
		speedKph = 50
	}
	mps := speedKph / 3.6
	nodes := append([]Point{depot}, customers...)
	out := make([][]float64, len(nodes))
	for i := range nodes {
		out[i] = make([]float64, len(nodes))
		for j := range nodes {
			if i == j {
				continue
			}
			d := HaversineMeters(nodes[i].Lat, nodes[i].Lng, nodes[j].Lat, nodes[j].Lng)
			out[i][j] = d / mps
		}
	}
	return out
}
