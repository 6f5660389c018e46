package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcloughlin/geohash"

	"toll-console/internal/tollapi"
)

const tickTimeout = 10 * time.Second

// poller forwards feed positions to the backend as GPS samples. A position
// is forwarded only when it leaves the geohash cell last forwarded for its
// ref, and every forwarded batch is broadcast to connected consoles.
type poller struct {
	feed       PositionSource
	api        *tollapi.Client
	hub        *wsHub
	log        *slog.Logger
	minRefresh time.Duration
	precision  uint
	vehicles   *vehicleResolver
	now        func() time.Time

	mu              sync.Mutex
	lastCell        map[string]string
	mostRecentFetch time.Time
}

func newPoller(feed PositionSource, api *tollapi.Client, hub *wsHub, log *slog.Logger, minRefresh time.Duration, precision uint) *poller {
	return &poller{
		feed:       feed,
		api:        api,
		hub:        hub,
		log:        log,
		minRefresh: minRefresh,
		precision:  precision,
		vehicles:   newVehicleResolver(api, log, minRefresh),
		now:        time.Now,
		lastCell:   make(map[string]string),
	}
}

func (p *poller) run(ctx context.Context) {
	interval := p.minRefresh
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			p.tick(ctx)
			elapsed := time.Since(start)
			if !p.lastFetch().IsZero() {
				interval = max(elapsed/2, p.minRefresh)
			}
			t.Reset(interval)
		}
	}
}

func (p *poller) lastFetch() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mostRecentFetch
}

func (p *poller) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()
	positions, err := p.feed.Fetch(cctx)
	if err != nil {
		p.log.Error("poll error", "err", err)
		return
	}
	p.log.Debug("fetched positions", "count", len(positions))
	p.mu.Lock()
	p.mostRecentFetch = p.now()
	p.mu.Unlock()

	moved := p.detectChanges(positions)
	if len(moved) == 0 {
		return
	}
	back, _ := p.feed.(requeuer)
	forwarded := make([]ForwardedSample, 0, len(moved))
	for _, m := range moved {
		s, err := p.forward(cctx, m)
		switch {
		case err == nil:
			forwarded = append(forwarded, s)
		case back != nil && !errors.Is(err, errUnresolvedRef):
			back.requeue(m.Position)
		}
	}
	if len(forwarded) > 0 {
		p.log.Info("forwarded gps samples", "count", len(forwarded), "moved", len(moved))
		p.hub.broadcast(forwarded)
	}
}

type movedPosition struct {
	Position
	cell string
}

// detectChanges returns the positions whose cell differs from the last one
// forwarded. Later duplicates of a ref in the same batch win.
func (p *poller) detectChanges(in []Position) []movedPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := make(map[string]int, len(in))
	var out []movedPosition
	for _, pos := range in {
		cell := geohash.EncodeWithPrecision(pos.Lat, pos.Lon, p.precision)
		if p.lastCell[pos.Ref] == cell {
			continue
		}
		if i, ok := idx[pos.Ref]; ok {
			out[i] = movedPosition{pos, cell}
			continue
		}
		idx[pos.Ref] = len(out)
		out = append(out, movedPosition{pos, cell})
	}
	return out
}

var errUnresolvedRef = errors.New("no registered vehicle for feed ref")

// forward records the cell only after the backend accepted the sample, so
// failures are retried on the next tick.
func (p *poller) forward(ctx context.Context, m movedPosition) (ForwardedSample, error) {
	vehicleID, ok := p.vehicles.resolve(ctx, m.Ref)
	if !ok {
		p.log.Debug("no registered vehicle for feed ref", "ref", m.Ref)
		return ForwardedSample{}, errUnresolvedRef
	}
	observed := m.ObservedAt
	if observed.IsZero() {
		observed = p.now()
	}
	ts := tollapi.FormatLocalTime(observed)

	resp, err := p.api.RecordIoTData(ctx, tollapi.IoTData{
		VehicleID: vehicleID,
		Latitude:  m.Lat,
		Longitude: m.Lon,
		Timestamp: ts,
	})
	if err != nil {
		p.log.Warn("gps sample rejected", "ref", m.Ref, "vehicle_id", vehicleID, "err", err)
		return ForwardedSample{}, err
	}

	p.mu.Lock()
	p.lastCell[m.Ref] = m.cell
	p.mu.Unlock()
	return ForwardedSample{
		Ref:        m.Ref,
		VehicleID:  vehicleID,
		Lat:        m.Lat,
		Lon:        m.Lon,
		Geohash:    m.cell,
		Timestamp:  ts,
		LocationID: resp.LocationID,
		Message:    resp.Message,
		LastUpdate: p.now().UnixMilli(),
	}, nil
}

// vehicleResolver maps feed refs to backend vehicle ids via the registered
// vehicle numbers. The list is reloaded on a miss, at most once per
// interval.
type vehicleResolver struct {
	api      *tollapi.Client
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	byNumber map[string]int64
	loadedAt time.Time
}

func newVehicleResolver(api *tollapi.Client, log *slog.Logger, interval time.Duration) *vehicleResolver {
	return &vehicleResolver{api: api, log: log, interval: interval, now: time.Now}
}

func normalizePlate(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func (r *vehicleResolver) resolve(ctx context.Context, ref string) (int64, bool) {
	key := normalizePlate(ref)
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byNumber[key]; ok {
		return id, true
	}
	if r.loadedAt.IsZero() || r.now().Sub(r.loadedAt) >= r.interval {
		r.reload(ctx)
		if id, ok := r.byNumber[key]; ok {
			return id, true
		}
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); err == nil && id > 0 {
		return id, true
	}
	return 0, false
}

// reload keeps the previous mapping when the backend is unreachable.
func (r *vehicleResolver) reload(ctx context.Context) {
	r.loadedAt = r.now()
	vehicles, err := r.api.ListVehicles(ctx)
	if err != nil {
		r.log.Warn("vehicle list reload failed", "err", err)
		return
	}
	m := make(map[string]int64, len(vehicles))
	for _, v := range vehicles {
		if n := normalizePlate(v.VehicleNumber); n != "" {
			m[n] = v.VehicleID
		}
	}
	r.byNumber = m
}
