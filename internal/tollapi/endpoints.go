package tollapi

import (
	"context"
	"net/url"
	"strconv"
)

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.Get(ctx, "/users", &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, u NewUser) (User, error) {
	var out User
	err := c.Post(ctx, "/users", u, &out)
	return out, err
}

// CreateVehicle registers v under the given owner.
func (c *Client) CreateVehicle(ctx context.Context, userID int64, v NewVehicle) (Vehicle, error) {
	var out Vehicle
	err := c.Post(ctx, "/users/"+id(userID)+"/vehicles", v, &out)
	return out, err
}

func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	err := c.Get(ctx, "/vehicles", &out)
	return out, err
}

func (c *Client) ListHighways(ctx context.Context) ([]Highway, error) {
	var out []Highway
	err := c.Get(ctx, "/highways", &out)
	return out, err
}

func (c *Client) CreateHighway(ctx context.Context, h NewHighway) (Highway, error) {
	var out Highway
	err := c.Post(ctx, "/highways", h, &out)
	return out, err
}

func (c *Client) RecordLocation(ctx context.Context, l NewLocation) (LocationSample, error) {
	var out LocationSample
	err := c.Post(ctx, "/locations", l, &out)
	return out, err
}

// VehicleLocations takes the vehicle id verbatim as typed by the operator.
func (c *Client) VehicleLocations(ctx context.Context, vehicleID string) ([]LocationSample, error) {
	var out []LocationSample
	err := c.Get(ctx, "/locations/vehicle/"+url.PathEscape(vehicleID), &out)
	return out, err
}

func (c *Client) UserWallet(ctx context.Context, userID string) (Wallet, error) {
	var out Wallet
	err := c.Get(ctx, "/wallets/user/"+url.PathEscape(userID), &out)
	return out, err
}

func (c *Client) UserBills(ctx context.Context, userID string) ([]Bill, error) {
	var out []Bill
	err := c.Get(ctx, "/bills/user/"+url.PathEscape(userID), &out)
	return out, err
}

func (c *Client) AdminStats(ctx context.Context) (AdminStats, error) {
	var out AdminStats
	err := c.Get(ctx, "/admin/stats", &out)
	return out, err
}

// NegativeWallets lists wallets whose balance is below zero.
func (c *Client) NegativeWallets(ctx context.Context) ([]Wallet, error) {
	var out []Wallet
	err := c.Get(ctx, "/admin/wallets/negative", &out)
	return out, err
}

func (c *Client) AdminVehicles(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	err := c.Get(ctx, "/admin/vehicles", &out)
	return out, err
}

func (c *Client) PendingAnomalies(ctx context.Context) ([]Anomaly, error) {
	var out []Anomaly
	err := c.Get(ctx, "/anomalies/pending", &out)
	return out, err
}

func (c *Client) ReviewAnomaly(ctx context.Context, anomalyID int64, r AnomalyReview) (Anomaly, error) {
	var out Anomaly
	err := c.Post(ctx, "/anomalies/"+id(anomalyID)+"/review", r, &out)
	return out, err
}

// RecordIoTData submits one device GPS sample through the IoT ingest endpoint.
func (c *Client) RecordIoTData(ctx context.Context, d IoTData) (IoTDataResponse, error) {
	var out IoTDataResponse
	err := c.Post(ctx, "/iot/data", d, &out)
	return out, err
}

func id(n int64) string { return strconv.FormatInt(n, 10) }
