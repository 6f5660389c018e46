package tollapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", time.Second, WithLogger(quietLogger()))
}

func TestGetDecodesBodyAndSetsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("authorization header must not be sent")
		}
		_, _ = w.Write([]byte(`[{"userId":1,"name":"Asha","email":"a@x.in","phoneNumber":"99","extra":true}]`))
	})

	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Asha" || users[0].UserID != 1 {
		t.Fatalf("users = %+v", users)
	}
}

func TestNonSuccessStatusIsReturnedAsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no wallet", http.StatusNotFound)
	})

	_, err := c.UserWallet(context.Background(), "42")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Path != "/wallets/user/42" || se.Method != http.MethodGet {
		t.Fatalf("status error = %+v", se)
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("StatusCode(err) = %d", StatusCode(err))
	}
}

func TestTimeoutSurfacesAsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, 50*time.Millisecond, WithLogger(quietLogger()))

	err := c.Get(context.Background(), "/highways", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if StatusCode(err) != 0 {
		t.Fatalf("timeout must not look like a status error: %v", err)
	}
}

func TestPostSendsJSONPayload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/highways" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"highwayId":7,"highwayName":"NH-44"}`))
	})

	h, err := c.CreateHighway(context.Background(), NewHighway{
		HighwayName:       "NH-44",
		StartLatitude:     28.7041,
		StartLongitude:    77.1025,
		EndLatitude:       19.0760,
		EndLongitude:      72.8777,
		RatePerKmForCar:   2.5,
		RatePerKmForBike:  1.0,
		RatePerKmForTruck: 5.0,
	})
	if err != nil {
		t.Fatalf("CreateHighway: %v", err)
	}
	if h.HighwayID != 7 {
		t.Fatalf("highway = %+v", h)
	}
	for _, k := range []string{"highwayName", "startLatitude", "startLongitude", "endLatitude", "endLongitude", "ratePerKmForCar", "ratePerKmForBike", "ratePerKmForTruck"} {
		if _, ok := got[k]; !ok {
			t.Errorf("payload missing %s: %v", k, got)
		}
	}
	if got["startLatitude"] != 28.7041 {
		t.Errorf("startLatitude = %v", got["startLatitude"])
	}
}

func TestPutAndDeleteUseTheirVerbs(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"userId":3,"name":"Ravi"}`))
	})

	var u User
	if err := c.Put(context.Background(), "users/3", NewUser{Name: "Ravi"}, &u); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if u.Name != "Ravi" {
		t.Fatalf("user = %+v", u)
	}
	if err := c.Delete(context.Background(), "/users/3", nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []string{"PUT /api/users/3", "DELETE /api/users/3"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v", calls)
	}
}

func TestConcurrentIdenticalRequestsAreNotDeduplicated(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})

	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		go func() {
			_, _ = c.ListVehicles(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want 3", hits.Load())
	}
}

func TestEndpointPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	_, _ = c.CreateVehicle(ctx, 5, NewVehicle{VehicleNumber: "MH01AB1234", VehicleType: VehicleCar})
	_, _ = c.RecordLocation(ctx, NewLocation{VehicleID: 2, Latitude: 19.07, Longitude: 72.87})
	_, _ = c.AdminStats(ctx)
	_, _ = c.ReviewAnomaly(ctx, 9, AnomalyReview{Notes: "ok"})
	_, _ = c.RecordIoTData(ctx, IoTData{VehicleID: 2})

	want := []string{
		"POST /api/users/5/vehicles",
		"POST /api/locations",
		"GET /api/admin/stats",
		"POST /api/anomalies/9/review",
		"POST /api/iot/data",
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v", paths)
	}
}

func TestWalletDeficit(t *testing.T) {
	w := Wallet{Balance: -20, MinimumBalance: 100}
	if !w.InDeficit() || w.Deficit() != 120 {
		t.Fatalf("deficit = %v", w.Deficit())
	}
	healthy := Wallet{Balance: 500, MinimumBalance: 100}
	if healthy.InDeficit() || healthy.Deficit() != 0 {
		t.Fatalf("healthy wallet deficit = %v", healthy.Deficit())
	}
}

func TestParseLocalTime(t *testing.T) {
	for _, s := range []string{"2026-02-04T13:18:00", "2026-02-04T13:18:00.123456", "2026-02-15"} {
		if _, ok := ParseLocalTime(s); !ok {
			t.Errorf("ParseLocalTime(%q) failed", s)
		}
	}
	if _, ok := ParseLocalTime("yesterday"); ok {
		t.Error("expected failure for garbage input")
	}
}
