package main

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type SiriXmlPositionSource struct {
	url        string
	httpClient *http.Client
}

func NewSiriXmlPositionSource(url string, timeout time.Duration) *SiriXmlPositionSource {
	return &SiriXmlPositionSource{url: url, httpClient: newFeedClient(timeout)}
}

func (s *SiriXmlPositionSource) Fetch(ctx context.Context) ([]Position, error) {
	body, err := getFeed(ctx, s.httpClient, s.url, "siri xml")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodeSiriXmlPositions(body)
}

// decodeSiriXmlPositions streams VehicleActivity elements. Matching is on
// Name.Local so any namespace prefix works.
func decodeSiriXmlPositions(r io.Reader) ([]Position, error) {
	dec := xml.NewDecoder(r)

	var (
		inSD, inVA, inMVJ, inVL bool
		cur                     struct{ ref, lat, lon, recorded string }
		out                     []Position
	)
	text := func(se *xml.StartElement) string {
		var v string
		if err := dec.DecodeElement(&v, se); err != nil {
			return ""
		}
		return strings.TrimSpace(v)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "ServiceDelivery":
				inSD = true
			case "VehicleActivity":
				if inSD {
					inVA = true
					cur = struct{ ref, lat, lon, recorded string }{}
				}
			case "RecordedAtTime":
				if inVA && !inMVJ {
					cur.recorded = text(&se)
				}
			case "MonitoredVehicleJourney":
				if inVA {
					inMVJ = true
				}
			case "VehicleLocation":
				if inMVJ {
					inVL = true
				}
			case "VehicleRef":
				if inMVJ {
					cur.ref = text(&se)
				}
			case "Latitude":
				if inVL {
					cur.lat = text(&se)
				}
			case "Longitude":
				if inVL {
					cur.lon = text(&se)
				}
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "VehicleLocation":
				inVL = false
			case "MonitoredVehicleJourney":
				inMVJ = false
			case "VehicleActivity":
				if !inVA {
					continue
				}
				inVA = false
				if cur.ref == "" {
					continue
				}
				if lat, lon, ok := parseLatLon(cur.lat, cur.lon); ok {
					out = append(out, Position{
						Ref:        cur.ref,
						Lat:        lat,
						Lon:        lon,
						ObservedAt: parseRecordedAt(cur.recorded),
					})
				}
			case "ServiceDelivery":
				inSD = false
			}
		}
	}
	return out, nil
}

func parseLatLon(lat, lon string) (float64, float64, bool) {
	lf, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, false
	}
	return lf, lo, true
}
