package console

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"toll-console/internal/async"
	"toll-console/internal/tollapi"
)

// backend is a fake tolling API that counts hits per route pattern.
type backend struct {
	mux  *http.ServeMux
	mu   sync.Mutex
	hits map[string]int
}

func newBackend(t *testing.T) (*backend, *tollapi.Client) {
	t.Helper()
	b := &backend{mux: http.NewServeMux(), hits: map[string]int{}}
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)
	return b, tollapi.NewClient(srv.URL+"/api", 2*time.Second, tollapi.WithLogger(quietLogger()))
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[pattern]++
		b.mu.Unlock()
		h(w, r)
	})
}

func (b *backend) count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[pattern]
}

func respond(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func fail(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend failure", code)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) async.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && t.at <= c.now {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func openPage(t *testing.T, api *tollapi.Client, clock async.Clock, name string) Page {
	t.Helper()
	p, err := Open(context.Background(), name, Deps{API: api, Log: quietLogger(), Clock: clock}, nil)
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	t.Cleanup(func() {
		p.Unmount()
		p.Wait()
	})
	return p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenUnknownPage(t *testing.T) {
	_, api := newBackend(t)
	_, err := Open(context.Background(), "reports", Deps{API: api}, nil)
	if !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("err = %v, want ErrUnknownPage", err)
	}
}

func TestDispatchUnsupportedCommand(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/admin/stats", respond(tollapi.AdminStats{}))
	b.handle("GET /api/admin/wallets/negative", respond([]tollapi.Wallet{}))
	b.handle("GET /api/admin/vehicles", respond([]tollapi.Vehicle{}))
	p := openPage(t, api, nil, "dashboard")

	for _, typ := range []string{CmdSubmit, CmdRetry, CmdLookup, "explode"} {
		if err := Dispatch(p, Command{Type: typ, Page: "dashboard"}); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: err = %v, want ErrUnsupported", typ, err)
		}
	}
}

func TestMissingFieldIssuesNoRequest(t *testing.T) {
	cases := []struct {
		page   string
		post   string
		fields map[string]string
	}{
		{"users", "POST /api/users", map[string]string{"name": "Asha", "email": "a@x.in"}},
		{"vehicles", "POST /api/users/{id}/vehicles", map[string]string{"vehicleNumber": "MH01", "vehicleType": "CAR"}},
		{"highways", "POST /api/highways", map[string]string{"highwayName": "NH-44", "startLatitude": "28.7"}},
		{"locations", "POST /api/locations", map[string]string{"vehicleId": "1", "latitude": "   "}},
		{"anomalies", "POST /api/anomalies/{id}/review", map[string]string{"anomalyId": "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.page, func(t *testing.T) {
			b, api := newBackend(t)
			b.handle("GET /api/", respond([]any{}))
			b.handle(tc.post, respond(map[string]any{}))
			p := openPage(t, api, nil, tc.page)
			p.Mount()

			if err := Dispatch(p, Command{Type: CmdSubmit, Fields: tc.fields}); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			form := formOf(t, p)
			if form.Error != msgAllRequired {
				t.Fatalf("form error = %q", form.Error)
			}
			if form.Submitting {
				t.Fatal("form must not be submitting")
			}
			if n := b.count(tc.post); n != 0 {
				t.Fatalf("%d create requests issued", n)
			}
		})
	}
}

func formOf(t *testing.T, p Page) FormState {
	t.Helper()
	switch s := p.Snapshot().(type) {
	case UsersState:
		return s.Form
	case VehiclesState:
		return s.Form
	case HighwaysState:
		return s.Form
	case LocationsState:
		return s.Form
	case AnomaliesState:
		return s.Form
	}
	t.Fatalf("page %s has no form", p.Name())
	return FormState{}
}

func TestNumericFieldsAreValidated(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/highways", respond([]tollapi.Highway{}))
	b.handle("POST /api/highways", respond(tollapi.Highway{}))
	p := openPage(t, api, nil, "highways")

	fields := map[string]string{
		"highwayName": "NH-44", "startLatitude": "28.7041", "startLongitude": "abc",
		"endLatitude": "19.0760", "endLongitude": "72.8777",
		"ratePerKmForCar": "2.5", "ratePerKmForBike": "1", "ratePerKmForTruck": "5",
	}
	p.(Submitter).Submit(fields)
	if got := formOf(t, p).Error; got != "Start Longitude must be a number" {
		t.Fatalf("form error = %q", got)
	}

	fields["startLongitude"] = "77.1025"
	fields["ratePerKmForBike"] = "NaN"
	p.(Submitter).Submit(fields)
	form := formOf(t, p)
	if form.Error != "Bike Rate must be a number" {
		t.Fatalf("form error = %q", form.Error)
	}
	if form.Values["highwayName"] != "NH-44" {
		t.Fatalf("values not kept: %v", form.Values)
	}
	if n := b.count("POST /api/highways"); n != 0 {
		t.Fatalf("%d create requests issued", n)
	}
}

func TestVehicleTypeMustBeKnown(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/vehicles", respond([]tollapi.Vehicle{}))
	p := openPage(t, api, nil, "vehicles")

	p.(Submitter).Submit(map[string]string{"vehicleNumber": "MH01", "vehicleType": "TRACTOR", "userId": "4"})
	if got := formOf(t, p).Error; got != "Vehicle Type must be one of CAR, BIKE, BUS, TRUCK" {
		t.Fatalf("form error = %q", got)
	}
}

// listCase names one list view, the route it loads from and the messages
// it must render.
type listCase struct {
	page   string
	route  string
	list   func(Page) ListState
	empty  string
	errMsg string
	retry  bool
}

var listCases = []listCase{
	{
		page:   "users",
		route:  "GET /api/users",
		list:   func(p Page) ListState { return p.Snapshot().(UsersState).List },
		empty:  "No users found. Create your first user!",
		errMsg: "Failed to fetch users. Make sure the backend is running.",
		retry:  true,
	},
	{
		page:   "vehicles",
		route:  "GET /api/vehicles",
		list:   func(p Page) ListState { return p.Snapshot().(VehiclesState).List },
		empty:  "No vehicles found. Register your first vehicle!",
		errMsg: "Failed to fetch vehicles. Make sure the backend is running.",
		retry:  true,
	},
	{
		page:   "highways",
		route:  "GET /api/highways",
		list:   func(p Page) ListState { return p.Snapshot().(HighwaysState).List },
		empty:  "No highways found. Add your first highway!",
		errMsg: "Failed to fetch highways. Make sure the backend is running.",
		retry:  true,
	},
	{
		page:   "anomalies",
		route:  "GET /api/anomalies/pending",
		list:   func(p Page) ListState { return p.Snapshot().(AnomaliesState).List },
		empty:  "No pending anomalies. All clear!",
		errMsg: "Failed to fetch pending anomalies. Make sure the backend is running.",
		retry:  true,
	},
	{
		page:   "dashboard",
		route:  "GET /api/admin/wallets/negative",
		list:   func(p Page) ListState { return p.Snapshot().(DashboardState).Wallets },
		empty:  "No wallets with negative balance!",
		errMsg: "Failed to fetch negative balance wallets",
	},
	{
		page:   "dashboard",
		route:  "GET /api/admin/vehicles",
		list:   func(p Page) ListState { return p.Snapshot().(DashboardState).Vehicles },
		empty:  "No vehicles registered yet.",
		errMsg: "Failed to fetch vehicles",
	},
}

func TestEmptyListShowsNoRecordsMessage(t *testing.T) {
	for _, tc := range listCases {
		t.Run(tc.route, func(t *testing.T) {
			b, api := newBackend(t)
			b.handle(tc.route, respond([]struct{}{}))
			p := openPage(t, api, nil, tc.page)
			p.Mount()

			waitFor(t, tc.route, func() bool { return tc.list(p).Status == async.Resolved })
			list := tc.list(p)
			if list.Empty != tc.empty || list.Error != "" || list.Count != 0 {
				t.Fatalf("list = %+v", list)
			}
		})
	}
}

func TestListFailureAndRetry(t *testing.T) {
	for _, tc := range listCases {
		t.Run(tc.route, func(t *testing.T) {
			b, api := newBackend(t)
			b.handle(tc.route, fail(http.StatusInternalServerError))
			p := openPage(t, api, nil, tc.page)
			p.Mount()

			waitFor(t, tc.route, func() bool { return tc.list(p).Status == async.Failed })
			list := tc.list(p)
			if list.Error != tc.errMsg || list.Retry != tc.retry || len(list.Rows) != 0 {
				t.Fatalf("list = %+v", list)
			}
			if !tc.retry {
				return
			}

			if err := Dispatch(p, Command{Type: CmdRetry}); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			waitFor(t, "retry", func() bool { return b.count(tc.route) == 2 })
			waitFor(t, "retry settled", func() bool { return tc.list(p).Status == async.Failed })
			if n := b.count(tc.route); n != 2 {
				t.Fatalf("retry issued %d requests, want exactly one", n-1)
			}
		})
	}
}

func TestCreateHighwayRefreshesList(t *testing.T) {
	b, api := newBackend(t)
	var created atomic.Bool
	nh44 := tollapi.Highway{
		HighwayID: 1, HighwayName: "NH-44",
		StartLatitude: 28.7041, StartLongitude: 77.1025, EndLatitude: 19.0760, EndLongitude: 72.8777,
		RatePerKmForCar: 2.5, RatePerKmForBike: 1.0, RatePerKmForTruck: 5.0,
	}
	b.handle("GET /api/highways", func(w http.ResponseWriter, r *http.Request) {
		if created.Load() {
			respond([]tollapi.Highway{nh44})(w, r)
			return
		}
		respond([]tollapi.Highway{})(w, r)
	})
	var sent tollapi.NewHighway
	b.handle("POST /api/highways", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		created.Store(true)
		respond(nh44)(w, r)
	})
	clock := &fakeClock{}
	p := openPage(t, api, clock, "highways")
	p.Mount()
	waitFor(t, "initial list", func() bool { return p.Snapshot().(HighwaysState).List.Status == async.Resolved })

	p.(Submitter).Submit(map[string]string{
		"highwayName": "NH-44", "startLatitude": "28.7041", "startLongitude": "77.1025",
		"endLatitude": "19.0760", "endLongitude": "72.8777",
		"ratePerKmForCar": "2.5", "ratePerKmForBike": "1.0", "ratePerKmForTruck": "5.0",
	})
	waitFor(t, "refreshed list", func() bool {
		s := p.Snapshot().(HighwaysState)
		return s.List.Status == async.Resolved && s.List.Count == 1
	})

	if sent.StartLatitude != 28.7041 || sent.RatePerKmForTruck != 5.0 || sent.HighwayName != "NH-44" {
		t.Fatalf("payload = %+v", sent)
	}
	s := p.Snapshot().(HighwaysState)
	if s.Form.Success != `Highway "NH-44" created successfully!` {
		t.Fatalf("success = %q", s.Form.Success)
	}
	if s.Form.Values["highwayName"] != "" || s.Form.Error != "" {
		t.Fatalf("form not reset: %+v", s.Form)
	}
	row := s.List.Rows[0]
	want := []string{"1", "NH-44", "28.7041", "77.1025", "19.0760", "72.8777", "₹2.50", "₹1.00", "₹5.00"}
	if len(s.List.Columns) != 9 || len(row) != 9 {
		t.Fatalf("columns = %v row = %v", s.List.Columns, row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %s = %q, want %q", s.List.Columns[i], row[i], want[i])
		}
	}
}

func TestCreateFailureKeepsInput(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/users", respond([]tollapi.User{}))
	b.handle("POST /api/users", fail(http.StatusBadRequest))
	p := openPage(t, api, nil, "users")

	p.(Submitter).Submit(map[string]string{"name": "Asha", "email": "a@x.in", "phoneNumber": "99"})
	waitFor(t, "create failure", func() bool { return formOf(t, p).Error != "" })
	form := formOf(t, p)
	if form.Error != "Failed to create user. Please try again." || form.Values["email"] != "a@x.in" {
		t.Fatalf("form = %+v", form)
	}
	if form.Success != "" {
		t.Fatalf("success = %q", form.Success)
	}
}

func TestSuccessFlashClearsAfterTTL(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/users", respond([]tollapi.User{}))
	b.handle("POST /api/users", respond(tollapi.User{UserID: 9, Name: "Asha"}))
	clock := &fakeClock{}
	p := openPage(t, api, clock, "users")

	p.(Submitter).Submit(map[string]string{"name": "Asha", "email": "a@x.in", "phoneNumber": "99"})
	waitFor(t, "success", func() bool { return formOf(t, p).Success != "" })
	if got := formOf(t, p).Success; got != `User "Asha" created successfully!` {
		t.Fatalf("success = %q", got)
	}
	clock.Advance(2999 * time.Millisecond)
	if formOf(t, p).Success == "" {
		t.Fatal("success cleared before 3000ms")
	}
	clock.Advance(time.Millisecond)
	if got := formOf(t, p).Success; got != "" {
		t.Fatalf("success = %q after 3000ms", got)
	}
}

func TestSubmitWhilePendingIsIgnored(t *testing.T) {
	b, api := newBackend(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	b.handle("GET /api/users", respond([]tollapi.User{}))
	b.handle("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		respond(tollapi.User{Name: "Asha"})(w, r)
	})
	p := openPage(t, api, nil, "users")

	fields := map[string]string{"name": "Asha", "email": "a@x.in", "phoneNumber": "99"}
	p.(Submitter).Submit(fields)
	waitFor(t, "first submit in flight", func() bool { return b.count("POST /api/users") == 1 })
	if !formOf(t, p).Submitting {
		t.Fatal("form should be submitting")
	}
	p.(Submitter).Submit(fields)
	time.Sleep(20 * time.Millisecond)
	if n := b.count("POST /api/users"); n != 1 {
		t.Fatalf("%d create requests, want 1", n)
	}
}

func TestWalletLookupFailureClearsStaleData(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/wallets/user/1", respond(tollapi.Wallet{WalletID: 5, Balance: -20, MinimumBalance: 100}))
	b.handle("GET /api/bills/user/1", respond([]tollapi.Bill{{BillID: 3, BillMonth: "2026-01", TotalDistance: 12.5, TotalAmount: 31.25, DueDate: "2026-02-15", Status: tollapi.BillPending}}))
	b.handle("GET /api/wallets/user/2", fail(http.StatusNotFound))
	b.handle("GET /api/bills/user/2", respond([]tollapi.Bill{}))
	p := openPage(t, api, nil, "wallets")

	p.(Looker).Lookup("1")
	waitFor(t, "first lookup", func() bool {
		s := p.Snapshot().(WalletsState)
		return s.Wallet.Status == async.Resolved && s.Bills.Status == async.Resolved
	})
	s := p.Snapshot().(WalletsState)
	if s.Wallet.Wallet == nil || s.Wallet.Wallet.Status != "In Deficit" || s.Wallet.Wallet.Alert == "" {
		t.Fatalf("wallet = %+v", s.Wallet.Wallet)
	}
	if s.Wallet.Wallet.Balance != "₹-20.00" {
		t.Fatalf("balance = %q", s.Wallet.Wallet.Balance)
	}
	if got := s.Bills.Rows[0]; got[2] != "12.50" || got[3] != "₹31.25" || got[4] != "2026-02-15" {
		t.Fatalf("bill row = %v", got)
	}

	p.(Looker).Lookup("2")
	waitFor(t, "second lookup", func() bool {
		s := p.Snapshot().(WalletsState)
		return s.Wallet.Status == async.Failed && s.Bills.Status == async.Resolved
	})
	s = p.Snapshot().(WalletsState)
	if s.Wallet.Wallet != nil || s.Wallet.Error != msgWalletFailed {
		t.Fatalf("wallet state = %+v", s.Wallet)
	}
	if s.Bills.Count != 0 || s.Bills.Empty != "No bills found for this user." {
		t.Fatalf("bills = %+v", s.Bills)
	}
}

func TestLookupRequiresKey(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/", respond([]any{}))
	p := openPage(t, api, nil, "locations")

	if err := Dispatch(p, Command{Type: CmdLookup, Key: " "}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	s := p.Snapshot().(LocationsState)
	if s.History.Error != "Please enter a Vehicle ID" {
		t.Fatalf("history = %+v", s.History)
	}
	if b.count("GET /api/") != 0 {
		t.Fatal("lookup without key issued a request")
	}
}

func TestLocationHistorySummary(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/locations/vehicle/7", respond([]tollapi.LocationSample{
		{ID: 1, VehicleID: 7, Latitude: 19.07609, Longitude: 72.877426, Timestamp: "2026-02-04T13:18:00"},
		{ID: 2, VehicleID: 7, Latitude: 19.1, Longitude: 72.9, Timestamp: "2026-02-04T13:19:00.5"},
	}))
	p := openPage(t, api, nil, "locations")

	p.(Looker).Lookup("7")
	waitFor(t, "history", func() bool { return p.Snapshot().(LocationsState).History.Status == async.Resolved })
	s := p.Snapshot().(LocationsState)
	if s.Summary != "Showing 2 location record(s) for Vehicle ID: 7" {
		t.Fatalf("summary = %q", s.Summary)
	}
	if got := s.History.Rows[0]; got[1] != "2026-02-04 13:18:00" || got[2] != "19.076090" || got[3] != "72.877426" {
		t.Fatalf("row = %v", got)
	}
}

func TestUnmountDiscardsLateResults(t *testing.T) {
	b, api := newBackend(t)
	release := make(chan struct{})
	b.handle("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		respond([]tollapi.User{{UserID: 1, Name: "late"}})(w, r)
	})
	var notified atomic.Int32
	p, err := Open(context.Background(), "users", Deps{API: api, Log: quietLogger()}, func() { notified.Add(1) })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Mount()
	waitFor(t, "request in flight", func() bool { return b.count("GET /api/users") == 1 })

	p.Unmount()
	before := notified.Load()
	close(release)
	p.Wait()

	if s := p.Snapshot().(UsersState).List; s.Status != async.Pending || len(s.Rows) != 0 {
		t.Fatalf("late result applied: %+v", s)
	}
	if notified.Load() != before {
		t.Fatal("page notified after unmount")
	}
}

func TestDashboardSectionsFailIndependently(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/admin/stats", fail(http.StatusInternalServerError))
	b.handle("GET /api/admin/wallets/negative", respond([]tollapi.Wallet{
		{WalletID: 4, User: &tollapi.UserRef{UserID: 2}, Balance: -50, MinimumBalance: 100},
	}))
	b.handle("GET /api/admin/vehicles", respond([]tollapi.Vehicle{}))
	p := openPage(t, api, nil, "dashboard")
	p.Mount()

	waitFor(t, "dashboard", func() bool {
		s := p.Snapshot().(DashboardState)
		return s.Stats.Status == async.Failed && s.Wallets.Status == async.Resolved && s.Vehicles.Status == async.Resolved
	})
	s := p.Snapshot().(DashboardState)
	if s.Stats.Error != "Failed to fetch statistics" || len(s.Stats.Cards) != 0 {
		t.Fatalf("stats = %+v", s.Stats)
	}
	if got := s.Wallets.Rows[0]; got[1] != "2" || got[4] != "₹150.00" {
		t.Fatalf("wallet row = %v", got)
	}
	if s.Wallets.Retry || s.Vehicles.Empty != "No vehicles registered yet." {
		t.Fatalf("sections = %+v %+v", s.Wallets, s.Vehicles)
	}
	for _, route := range []string{"GET /api/admin/stats", "GET /api/admin/wallets/negative", "GET /api/admin/vehicles"} {
		if b.count(route) != 1 {
			t.Errorf("%s hit %d times", route, b.count(route))
		}
	}
}

func TestDashboardStatCards(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/admin/stats", respond(tollapi.AdminStats{TotalVehicles: 12, TotalTollCollected: 1530.5}))
	b.handle("GET /api/admin/wallets/negative", respond([]tollapi.Wallet{}))
	b.handle("GET /api/admin/vehicles", respond([]tollapi.Vehicle{
		{VehicleID: 1, VehicleNumber: "MH01AB1234", VehicleType: tollapi.VehicleCar, RegisteredAt: "2026-01-10T08:00:00"},
	}))
	p := openPage(t, api, nil, "dashboard")
	p.Mount()

	waitFor(t, "dashboard", func() bool {
		s := p.Snapshot().(DashboardState)
		return s.Stats.Status == async.Resolved && s.Vehicles.Status == async.Resolved
	})
	s := p.Snapshot().(DashboardState)
	want := []StatCard{
		{"Total Vehicles", "12"},
		{"Total Toll Collected", "₹1530.50"},
		{"Negative Balances", "0"},
	}
	for i, c := range want {
		if s.Stats.Cards[i] != c {
			t.Errorf("card %d = %+v, want %+v", i, s.Stats.Cards[i], c)
		}
	}
	if s.Summary != "Total: 1 vehicle(s)" {
		t.Fatalf("summary = %q", s.Summary)
	}
	if got := s.Vehicles.Rows[0]; got[3] != "N/A" || got[4] != "2026-01-10" {
		t.Fatalf("vehicle row = %v", got)
	}
}

func TestAnomalyReviewDefaultsToReviewed(t *testing.T) {
	b, api := newBackend(t)
	b.handle("GET /api/anomalies/pending", respond([]tollapi.Anomaly{}))
	var sent tollapi.AnomalyReview
	b.handle("POST /api/anomalies/{id}/review", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		w.WriteHeader(http.StatusOK)
	})
	p := openPage(t, api, &fakeClock{}, "anomalies")
	p.Mount()

	p.(Submitter).Submit(map[string]string{"anomalyId": "11", "notes": "GPS drift"})
	waitFor(t, "review", func() bool { return formOf(t, p).Success != "" })
	if got := formOf(t, p).Success; got != "Anomaly #11 marked as REVIEWED" {
		t.Fatalf("success = %q", got)
	}
	if sent.Status != tollapi.ReviewReviewed || sent.Notes != "GPS drift" {
		t.Fatalf("review = %+v", sent)
	}
	waitFor(t, "list refresh", func() bool { return b.count("GET /api/anomalies/pending") == 2 })
}

func TestPagesAreRegistered(t *testing.T) {
	want := []string{"anomalies", "dashboard", "highways", "locations", "users", "vehicles", "wallets"}
	got := Pages()
	if len(got) != len(want) {
		t.Fatalf("pages = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pages = %v", got)
		}
	}
}
