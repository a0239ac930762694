package reconcile

import (
	"math"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// majorityVote resolves when a strict majority of sources serialize to the
// same value. With a Field configured only that field is compared; otherwise
// the whole data map is.
func majorityVote(resolution models.ResolutionRule, sources []models.Source) *strategyOutcome {
	if len(sources) < 3 {
		// Two sources can at best tie; a strict majority needs three.
		return nil
	}

	votes := make(map[string][]int)

	for i, source := range sources {
		key := voteKey(resolution.Field, source)
		if key == "" {
			continue
		}

		votes[key] = append(votes[key], i)
	}

	for _, indexes := range votes {
		if len(indexes)*2 > len(sources) {
			winner := sources[indexes[0]]

			return &strategyOutcome{resolved: winner.Data, winner: winner.Name}
		}
	}

	return nil
}

func voteKey(field string, source models.Source) string {
	if field == "" {
		return canonical(source.Data)
	}

	value, present := source.Data[field]
	if !present {
		return ""
	}

	return canonicalValue(value)
}

// mostRecent resolves to the newest source, provided it falls inside the
// staleness window. Sources without timestamps cannot vote on recency.
func mostRecent(resolution models.ResolutionRule, sources []models.Source, now time.Time) *strategyOutcome {
	var newest *models.Source

	for i := range sources {
		if sources[i].Timestamp.IsZero() {
			continue
		}

		if newest == nil || sources[i].Timestamp.After(newest.Timestamp) {
			newest = &sources[i]
		}
	}

	if newest == nil {
		return nil
	}

	if resolution.StalenessWindow > 0 && now.Sub(newest.Timestamp) > resolution.StalenessWindow {
		return nil
	}

	return &strategyOutcome{resolved: newest.Data, winner: newest.Name}
}

// geometricCentroid resolves coordinate-like sources: it computes the
// centroid of all reported positions and accepts it when every source lies
// within the configured radius. Sources without usable coordinates make the
// strategy skip, not fail.
func geometricCentroid(resolution models.ResolutionRule, sources []models.Source) *strategyOutcome {
	field := resolution.Field
	if field == "" {
		field = "position"
	}

	coords := make([]latLon, 0, len(sources))

	for _, source := range sources {
		coord, ok := extractLatLon(source.Data[field])
		if !ok {
			return nil
		}

		coords = append(coords, coord)
	}

	if len(coords) == 0 {
		return nil
	}

	var sumLat, sumLon float64
	for _, c := range coords {
		sumLat += c.lat
		sumLon += c.lon
	}

	centroid := latLon{lat: sumLat / float64(len(coords)), lon: sumLon / float64(len(coords))}

	maxDistance := resolution.MaxDistanceKM
	if maxDistance <= 0 {
		return nil
	}

	for _, c := range coords {
		if haversineKM(centroid, c) > maxDistance {
			return nil
		}
	}

	resolved := make(map[string]any, len(sources[0].Data))
	for k, v := range sources[0].Data {
		resolved[k] = v
	}

	resolved[field] = map[string]any{"lat": centroid.lat, "lon": centroid.lon}

	return &strategyOutcome{resolved: resolved, winner: "centroid", synthesized: field}
}

// preferredSource resolves to a named source (e.g. GPS) when present.
func preferredSource(resolution models.ResolutionRule, sources []models.Source) *strategyOutcome {
	if resolution.PreferredSource == "" {
		return nil
	}

	for i := range sources {
		if sources[i].Name == resolution.PreferredSource {
			return &strategyOutcome{resolved: sources[i].Data, winner: sources[i].Name}
		}
	}

	return nil
}

type latLon struct {
	lat float64
	lon float64
}

func extractLatLon(value any) (latLon, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return latLon{}, false
	}

	lat, latOK := numericField(obj, "lat", "latitude")
	lon, lonOK := numericField(obj, "lon", "lng", "longitude")

	if !latOK || !lonOK {
		return latLon{}, false
	}

	return latLon{lat: lat, lon: lon}, true
}

func numericField(obj map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		value, present := obj[name]
		if !present {
			continue
		}

		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}

	return 0, false
}

const earthRadiusKM = 6371.0

func haversineKM(a, b latLon) float64 {
	dLat := toRadians(b.lat - a.lat)
	dLon := toRadians(b.lon - a.lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(toRadians(a.lat))*math.Cos(toRadians(b.lat))*sinLon*sinLon

	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
