package console

import (
	"context"

	"toll-console/internal/tollapi"
)

type vehicleForm struct {
	VehicleNumber string `form:"vehicleNumber" label:"Vehicle Number" validate:"required"`
	VehicleType   string `form:"vehicleType" label:"Vehicle Type" validate:"required,oneof=CAR BIKE BUS TRUCK"`
	UserID        string `form:"userId" label:"User ID" validate:"required,int"`
}

type vehiclePayload struct {
	userID  int64
	vehicle tollapi.NewVehicle
}

type vehiclesPage struct {
	*base
	list *listView[tollapi.Vehicle]
	form *createForm[vehiclePayload, tollapi.Vehicle]
}

type VehiclesState struct {
	Form         FormState `json:"form"`
	List         ListState `json:"list"`
	VehicleTypes []string  `json:"vehicleTypes"`
}

func newVehiclesPage(b *base) Page {
	p := &vehiclesPage{base: b}

	p.list = newListView(b, "vehicles", b.api().ListVehicles)
	p.list.columns = []string{"Vehicle ID", "Vehicle Number", "Vehicle Type", "User ID"}
	p.list.row = func(v tollapi.Vehicle) []string {
		return []string{itoa(v.VehicleID), v.VehicleNumber, string(v.VehicleType), ownerID(v.User)}
	}
	p.list.errMsg = "Failed to fetch vehicles. Make sure the backend is running."
	p.list.emptyMsg = "No vehicles found. Register your first vehicle!"

	p.form = newCreateForm(b, vehicleForm{}, func(fields map[string]string) (vehiclePayload, string) {
		var f vehicleForm
		if msg := decodeForm(&f, fields); msg != "" {
			return vehiclePayload{}, msg
		}
		// The owner travels in the path, not the body.
		return vehiclePayload{
			userID:  toInt(f.UserID),
			vehicle: tollapi.NewVehicle{
				VehicleNumber: f.VehicleNumber,
				VehicleType:   tollapi.VehicleType(f.VehicleType),
			},
		}, ""
	}, func(ctx context.Context, v vehiclePayload) (tollapi.Vehicle, error) {
		return b.api().CreateVehicle(ctx, v.userID, v.vehicle)
	})
	p.form.success = func(v tollapi.Vehicle) string {
		return `Vehicle "` + v.VehicleNumber + `" registered successfully!`
	}
	p.form.failMsg = "Failed to register vehicle. Please check the User ID and try again."
	p.form.after = func() { p.list.load() }
	return p
}

func (p *vehiclesPage) Mount() { p.list.load() }
func (p *vehiclesPage) Retry() { p.list.load() }
func (p *vehiclesPage) Submit(fields map[string]string) { p.form.submit(fields) }

func (p *vehiclesPage) Snapshot() any {
	types := make([]string, len(tollapi.VehicleTypes))
	for i, t := range tollapi.VehicleTypes {
		types[i] = string(t)
	}
	return VehiclesState{Form: p.form.state(), List: p.list.state(), VehicleTypes: types}
}
