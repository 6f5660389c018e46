package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"toll-console/internal/tollapi"
)

type locationForm struct {
	VehicleID string `form:"vehicleId" label:"Vehicle ID" validate:"required,int"`
	Latitude  string `form:"latitude" label:"Latitude" validate:"required,float"`
	Longitude string `form:"longitude" label:"Longitude" validate:"required,float"`
}

// locationsPage records manual GPS samples and shows the history of one
// vehicle on request.
type locationsPage struct {
	*base
	form    *createForm[tollapi.NewLocation, tollapi.LocationSample]
	history *listView[tollapi.LocationSample]

	mu     sync.Mutex
	key    string
	keyErr string
}

type LocationsState struct {
	Form    FormState `json:"form"`
	Key     string    `json:"key,omitempty"`
	History ListState `json:"history"`
	Summary string    `json:"summary,omitempty"`
}

func newLocationsPage(b *base) Page {
	p := &locationsPage{base: b}

	p.form = newCreateForm(b, locationForm{}, func(fields map[string]string) (tollapi.NewLocation, string) {
		var f locationForm
		if msg := decodeForm(&f, fields); msg != "" {
			return tollapi.NewLocation{}, msg
		}
		return tollapi.NewLocation{
			VehicleID: toInt(f.VehicleID),
			Latitude:  toFloat(f.Latitude),
			Longitude: toFloat(f.Longitude),
		}, ""
	}, func(ctx context.Context, l tollapi.NewLocation) (tollapi.LocationSample, error) {
		return b.api().RecordLocation(ctx, l)
	})
	p.form.success = func(tollapi.LocationSample) string { return "GPS location saved successfully!" }
	p.form.failMsg = "Failed to save GPS location. Please try again."

	p.history = newListView[tollapi.LocationSample](b, "location history", nil)
	p.history.columns = []string{"ID", "Timestamp", "Latitude", "Longitude"}
	p.history.row = func(l tollapi.LocationSample) []string {
		return []string{itoa(l.ID), displayTime(l.Timestamp), fixed(l.Latitude, 6), fixed(l.Longitude, 6)}
	}
	p.history.errMsg = "Failed to fetch location history. Vehicle ID may not exist."
	p.history.emptyMsg = "No GPS locations found for this vehicle."
	p.history.retry = false
	return p
}

func (p *locationsPage) Mount() {}

func (p *locationsPage) Submit(fields map[string]string) { p.form.submit(fields) }

func (p *locationsPage) Lookup(key string) {
	key = strings.TrimSpace(key)
	p.mu.Lock()
	p.key = key
	if key == "" {
		p.keyErr = "Please enter a Vehicle ID"
	} else {
		p.keyErr = ""
	}
	p.mu.Unlock()

	if key == "" {
		p.history.reset()
		return
	}
	p.history.run(func(ctx context.Context) ([]tollapi.LocationSample, error) {
		return p.api().VehicleLocations(ctx, key)
	})
}

func (p *locationsPage) Snapshot() any {
	p.mu.Lock()
	key, keyErr := p.key, p.keyErr
	p.mu.Unlock()

	s := LocationsState{Form: p.form.state(), Key: key, History: p.history.state()}
	if keyErr != "" {
		s.History.Error = keyErr
	}
	if s.History.Count > 0 {
		s.Summary = fmt.Sprintf("Showing %d location record(s) for Vehicle ID: %s", s.History.Count, key)
	}
	return s
}
