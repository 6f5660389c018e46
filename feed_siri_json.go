package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"
)

type SiriJsonPositionSource struct {
	url        string
	httpClient *http.Client
}

func NewSiriJsonPositionSource(url string, timeout time.Duration) *SiriJsonPositionSource {
	return &SiriJsonPositionSource{url: url, httpClient: newFeedClient(timeout)}
}

func (s *SiriJsonPositionSource) Fetch(ctx context.Context) ([]Position, error) {
	body, err := getFeed(ctx, s.httpClient, s.url, "siri json")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return decodeSiriJsonPositions(b)
}

// decodeSiriJsonPositions walks
// Siri?.ServiceDelivery.VehicleMonitoringDelivery[].VehicleActivity[].
func decodeSiriJsonPositions(b []byte) ([]Position, error) {
	var root map[string]any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	if siri, ok := root["Siri"].(map[string]any); ok && siri != nil {
		root = siri
	}
	sd, _ := root["ServiceDelivery"].(map[string]any)
	vmdArr, _ := sd["VehicleMonitoringDelivery"].([]any)
	out := make([]Position, 0, 64)
	for _, vmdAny := range vmdArr {
		vmd, _ := vmdAny.(map[string]any)
		vaArr, _ := vmd["VehicleActivity"].([]any)
		for _, vaAny := range vaArr {
			va, _ := vaAny.(map[string]any)
			mvj, _ := va["MonitoredVehicleJourney"].(map[string]any)
			if mvj == nil {
				continue
			}
			ref := stringFrom(mvj["VehicleRef"])
			if ref == "" {
				ref = stringFromNested(mvj, "FramedVehicleJourneyRef", "DatedVehicleJourneyRef")
			}
			lat, lon := floatFromNested(mvj, "VehicleLocation", "Latitude"), floatFromNested(mvj, "VehicleLocation", "Longitude")
			if ref == "" || (lat == 0 && lon == 0) {
				continue
			}
			out = append(out, Position{
				Ref:        ref,
				Lat:        lat,
				Lon:        lon,
				ObservedAt: parseRecordedAt(stringFrom(va["RecordedAtTime"])),
			})
		}
	}
	return out, nil
}

// stringFrom also accepts the {"value": "..."} wrapping some SIRI JSON
// producers use for refs.
func stringFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		s, _ := t["value"].(string)
		return s
	}
	return ""
}

func stringFromNested(m map[string]any, k1, k2 string) string {
	m1, _ := m[k1].(map[string]any)
	return stringFrom(m1[k2])
}

func floatFromNested(m map[string]any, k1, k2 string) float64 {
	m1, _ := m[k1].(map[string]any)
	switch v := m1[k2].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func parseRecordedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
