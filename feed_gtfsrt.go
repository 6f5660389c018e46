package main

import (
	"context"
	"io"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

type GtfsRtPositionSource struct {
	url        string
	httpClient *http.Client
}

func NewGtfsRtPositionSource(url string, timeout time.Duration) *GtfsRtPositionSource {
	return &GtfsRtPositionSource{url: url, httpClient: newFeedClient(timeout)}
}

func (s *GtfsRtPositionSource) Fetch(ctx context.Context) ([]Position, error) {
	body, err := getFeed(ctx, s.httpClient, s.url, "gtfs-rt")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return decodeGtfsRtPositions(data)
}

// decodeGtfsRtPositions prefers the licence plate as the vehicle ref, since
// that is what the tolling backend registers, and falls back to the feed id.
func decodeGtfsRtPositions(data []byte) ([]Position, error) {
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	headerTs := feed.GetHeader().GetTimestamp()

	out := make([]Position, 0, len(feed.Entity))
	for _, ent := range feed.Entity {
		vp := ent.GetVehicle()
		if vp == nil || vp.Position == nil || vp.Position.Latitude == nil || vp.Position.Longitude == nil {
			continue
		}
		ref := vp.GetVehicle().GetLicensePlate()
		if ref == "" {
			ref = vp.GetVehicle().GetId()
		}
		if ref == "" {
			continue
		}
		ts := vp.GetTimestamp()
		if ts == 0 {
			ts = headerTs
		}
		p := Position{
			Ref: ref,
			Lat: float64(vp.Position.GetLatitude()),
			Lon: float64(vp.Position.GetLongitude()),
		}
		if ts > 0 {
			p.ObservedAt = time.Unix(int64(ts), 0)
		}
		out = append(out, p)
	}
	return out, nil
}
