package console

import (
	"context"

	"toll-console/internal/tollapi"
)

type highwayForm struct {
	HighwayName       string `form:"highwayName" label:"Highway Name" validate:"required"`
	StartLatitude     string `form:"startLatitude" label:"Start Latitude" validate:"required,float"`
	StartLongitude    string `form:"startLongitude" label:"Start Longitude" validate:"required,float"`
	EndLatitude       string `form:"endLatitude" label:"End Latitude" validate:"required,float"`
	EndLongitude      string `form:"endLongitude" label:"End Longitude" validate:"required,float"`
	RatePerKmForCar   string `form:"ratePerKmForCar" label:"Car Rate" validate:"required,float"`
	RatePerKmForBike  string `form:"ratePerKmForBike" label:"Bike Rate" validate:"required,float"`
	RatePerKmForTruck string `form:"ratePerKmForTruck" label:"Truck Rate" validate:"required,float"`
}

type highwaysPage struct {
	*base
	list *listView[tollapi.Highway]
	form *createForm[tollapi.NewHighway, tollapi.Highway]
}

type HighwaysState struct {
	Form FormState `json:"form"`
	List ListState `json:"list"`
}

func newHighwaysPage(b *base) Page {
	p := &highwaysPage{base: b}

	p.list = newListView(b, "highways", b.api().ListHighways)
	p.list.columns = []string{
		"ID", "Name", "Start Lat", "Start Lon", "End Lat", "End Lon",
		"Car (₹/km)", "Bike (₹/km)", "Truck (₹/km)",
	}
	p.list.row = func(h tollapi.Highway) []string {
		return []string{
			itoa(h.HighwayID), h.HighwayName,
			fixed(h.StartLatitude, 4), fixed(h.StartLongitude, 4),
			fixed(h.EndLatitude, 4), fixed(h.EndLongitude, 4),
			rupees(h.RatePerKmForCar), rupees(h.RatePerKmForBike), rupees(h.RatePerKmForTruck),
		}
	}
	p.list.errMsg = "Failed to fetch highways. Make sure the backend is running."
	p.list.emptyMsg = "No highways found. Add your first highway!"

	p.form = newCreateForm(b, highwayForm{}, func(fields map[string]string) (tollapi.NewHighway, string) {
		var f highwayForm
		if msg := decodeForm(&f, fields); msg != "" {
			return tollapi.NewHighway{}, msg
		}
		return tollapi.NewHighway{
			HighwayName:       f.HighwayName,
			StartLatitude:     toFloat(f.StartLatitude),
			StartLongitude:    toFloat(f.StartLongitude),
			EndLatitude:       toFloat(f.EndLatitude),
			EndLongitude:      toFloat(f.EndLongitude),
			RatePerKmForCar:   toFloat(f.RatePerKmForCar),
			RatePerKmForBike:  toFloat(f.RatePerKmForBike),
			RatePerKmForTruck: toFloat(f.RatePerKmForTruck),
		}, ""
	}, func(ctx context.Context, h tollapi.NewHighway) (tollapi.Highway, error) {
		return b.api().CreateHighway(ctx, h)
	})
	p.form.success = func(h tollapi.Highway) string {
		return `Highway "` + h.HighwayName + `" created successfully!`
	}
	p.form.failMsg = "Failed to create highway. Please check your input and try again."
	p.form.after = func() { p.list.load() }
	return p
}

func (p *highwaysPage) Mount() { p.list.load() }
func (p *highwaysPage) Retry() { p.list.load() }
func (p *highwaysPage) Submit(fields map[string]string) { p.form.submit(fields) }

func (p *highwaysPage) Snapshot() any {
	return HighwaysState{Form: p.form.state(), List: p.list.state()}
}
