package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"toll-console/internal/tollapi"
)

// deviceMessage is the JSON a telematics unit publishes to the broker.
// vehicleId may be a number or a string.
type deviceMessage struct {
	VehicleRef string  `json:"vehicleRef"`
	VehicleID  any     `json:"vehicleId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  string  `json:"timestamp"`
}

func decodeDeviceMessage(body []byte) (Position, error) {
	var m deviceMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return Position{}, fmt.Errorf("decode device message: %w", err)
	}
	ref := strings.TrimSpace(m.VehicleRef)
	if ref == "" {
		switch id := m.VehicleID.(type) {
		case float64:
			ref = strconv.FormatInt(int64(id), 10)
		case string:
			ref = strings.TrimSpace(id)
		}
	}
	if ref == "" {
		return Position{}, errors.New("device message has no vehicle ref")
	}
	p := Position{Ref: ref, Lat: m.Latitude, Lon: m.Longitude}
	if m.Timestamp != "" {
		if t, ok := tollapi.ParseLocalTime(m.Timestamp); ok {
			p.ObservedAt = t
		}
	}
	return p, nil
}

// streamBuffer holds pushed positions until the next tick drains them.
// Only the newest fix per ref is kept.
type streamBuffer struct {
	mu     sync.Mutex
	latest map[string]Position
	order  []string
}

func (b *streamBuffer) push(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		b.latest = make(map[string]Position)
	}
	if _, ok := b.latest[p.Ref]; !ok {
		b.order = append(b.order, p.Ref)
	}
	b.latest[p.Ref] = p
}

func (b *streamBuffer) Fetch(context.Context) ([]Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Position, 0, len(b.order))
	for _, ref := range b.order {
		out = append(out, b.latest[ref])
	}
	b.latest, b.order = nil, nil
	return out, nil
}

// requeue puts back a position taken by Fetch unless a newer fix for the
// same ref arrived in the meantime.
func (b *streamBuffer) requeue(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.latest[p.Ref]; ok {
		return
	}
	if b.latest == nil {
		b.latest = make(map[string]Position)
	}
	b.order = append(b.order, p.Ref)
	b.latest[p.Ref] = p
}

const streamRetryDelay = 5 * time.Second

// runStream keeps a push source consuming, reconnecting after failures
// until ctx is done.
func runStream(ctx context.Context, src PushSource, log *slog.Logger) {
	for {
		err := src.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn("ingest stream stopped, reconnecting", "err", err, "retry_in", streamRetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamRetryDelay):
		}
	}
}
