package travel

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// GeoProvider estimates travel from great-circle distance for descriptors of
// the form "lat,lng". Anything else is unresolved; it does not geocode.
type GeoProvider struct {
	SpeedKph        float64 // average road speed
	DetourFactor    float64 // road distance over straight-line distance
	OverheadMinutes int     // parking, loading, walking to the door
}

func NewGeoProvider(speedKph float64) *GeoProvider {
	if speedKph <= 0 {
		speedKph = 50
	}
	return &GeoProvider{SpeedKph: speedKph, DetourFactor: 1.3}
}

func (g *GeoProvider) TravelMinutes(_ context.Context, origin, destination string) (int, bool) {
	lat1, lng1, ok := parseLatLng(origin)
	if !ok {
		return 0, false
	}
	lat2, lng2, ok := parseLatLng(destination)
	if !ok {
		return 0, false
	}
	factor := g.DetourFactor
	if factor < 1 {
		factor = 1
	}
	km := haversineMeters(lat1, lng1, lat2, lng2) / 1000 * factor
	minutes := int(math.Ceil(km / g.SpeedKph * 60))
	return minutes + g.OverheadMinutes, true
}

func parseLatLng(s string) (lat, lng float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
