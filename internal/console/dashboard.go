package console

import (
	"context"
	"strconv"

	"toll-console/internal/async"
	"toll-console/internal/tollapi"
)

// dashboardPage issues its three fetches together on mount. Each section
// fails on its own and none offers a retry.
type dashboardPage struct {
	*base
	stats    *async.Request[tollapi.AdminStats]
	wallets  *listView[tollapi.Wallet]
	vehicles *listView[tollapi.Vehicle]
}

type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type StatsState struct {
	Status  async.Status `json:"status"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
	Cards   []StatCard   `json:"cards,omitempty"`
}

type DashboardState struct {
	Stats    StatsState `json:"stats"`
	Wallets  ListState  `json:"wallets"`
	Vehicles ListState  `json:"vehicles"`
	Summary  string     `json:"summary,omitempty"`
}

func newDashboardPage(b *base) Page {
	p := &dashboardPage{base: b}
	p.stats = async.NewRequest[tollapi.AdminStats](b.scope, b.notify)

	p.wallets = newListView(b, "negative wallets", b.api().NegativeWallets)
	p.wallets.columns = []string{"Wallet ID", "User ID", "Balance", "Minimum Balance", "Deficit Amount"}
	p.wallets.row = func(w tollapi.Wallet) []string {
		return []string{
			itoa(w.WalletID), ownerID(w.User), rupees(w.Balance),
			rupees(w.MinimumBalance), rupees(w.MinimumBalance - w.Balance),
		}
	}
	p.wallets.errMsg = "Failed to fetch negative balance wallets"
	p.wallets.emptyMsg = "No wallets with negative balance!"
	p.wallets.retry = false

	p.vehicles = newListView(b, "admin vehicles", b.api().AdminVehicles)
	p.vehicles.columns = []string{"Vehicle ID", "Vehicle Number", "Vehicle Type", "User ID", "Registered At"}
	p.vehicles.row = func(v tollapi.Vehicle) []string {
		return []string{
			itoa(v.VehicleID), v.VehicleNumber, string(v.VehicleType),
			ownerID(v.User), displayDate(v.RegisteredAt),
		}
	}
	p.vehicles.errMsg = "Failed to fetch vehicles"
	p.vehicles.emptyMsg = "No vehicles registered yet."
	p.vehicles.retry = false
	return p
}

func (p *dashboardPage) Mount() {
	p.stats.Run(func(ctx context.Context) (tollapi.AdminStats, error) {
		return p.api().AdminStats(ctx)
	}, func(st async.State[tollapi.AdminStats]) {
		if st.Err != nil {
			p.log.Error("fetch failed", "what", "admin stats", "err", st.Err)
		}
	})
	p.wallets.load()
	p.vehicles.load()
}

func (p *dashboardPage) Snapshot() any {
	st := p.stats.State()
	ss := StatsState{Status: st.Status, Loading: st.Status == async.Pending}
	switch st.Status {
	case async.Failed:
		ss.Error = "Failed to fetch statistics"
	case async.Resolved:
		ss.Cards = []StatCard{
			{Label: "Total Vehicles", Value: itoa(st.Value.TotalVehicles)},
			{Label: "Total Toll Collected", Value: rupees(st.Value.TotalTollCollected)},
			{Label: "Negative Balances", Value: itoa(st.Value.WalletsInDeficit)},
		}
	}

	s := DashboardState{Stats: ss, Wallets: p.wallets.state(), Vehicles: p.vehicles.state()}
	if s.Vehicles.Count > 0 {
		s.Summary = "Total: " + strconv.Itoa(s.Vehicles.Count) + " vehicle(s)"
	}
	return s
}
