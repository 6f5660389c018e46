package tollapi

import (
	"strings"
	"time"
)

type VehicleType string

const (
	VehicleCar   VehicleType = "CAR"
	VehicleBike  VehicleType = "BIKE"
	VehicleBus   VehicleType = "BUS"
	VehicleTruck VehicleType = "TRUCK"
)

var VehicleTypes = []VehicleType{VehicleCar, VehicleBike, VehicleBus, VehicleTruck}

type BillStatus string

const (
	BillPaid    BillStatus = "PAID"
	BillPending BillStatus = "PENDING"
	BillOverdue BillStatus = "OVERDUE"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewReviewed  ReviewStatus = "REVIEWED"
	ReviewResolved  ReviewStatus = "RESOLVED"
	ReviewEscalated ReviewStatus = "ESCALATED"
)

// UserRef is the nested owner reference the backend embeds in vehicles and wallets.
type UserRef struct {
	UserID int64 `json:"userId"`
}

type User struct {
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type NewUser struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type Vehicle struct {
	VehicleID     int64       `json:"vehicleId"`
	VehicleNumber string      `json:"vehicleNumber"`
	VehicleType   VehicleType `json:"vehicleType"`
	User          *UserRef    `json:"user,omitempty"`
	RegisteredAt  string      `json:"registeredAt,omitempty"`
}

type NewVehicle struct {
	VehicleNumber string      `json:"vehicleNumber"`
	VehicleType   VehicleType `json:"vehicleType"`
}

type Highway struct {
	HighwayID         int64   `json:"highwayId"`
	HighwayName       string  `json:"highwayName"`
	StartLatitude     float64 `json:"startLatitude"`
	StartLongitude    float64 `json:"startLongitude"`
	EndLatitude       float64 `json:"endLatitude"`
	EndLongitude      float64 `json:"endLongitude"`
	RatePerKmForCar   float64 `json:"ratePerKmForCar"`
	RatePerKmForBike  float64 `json:"ratePerKmForBike"`
	RatePerKmForTruck float64 `json:"ratePerKmForTruck"`
}

type NewHighway struct {
	HighwayName       string  `json:"highwayName"`
	StartLatitude     float64 `json:"startLatitude"`
	StartLongitude    float64 `json:"startLongitude"`
	EndLatitude       float64 `json:"endLatitude"`
	EndLongitude      float64 `json:"endLongitude"`
	RatePerKmForCar   float64 `json:"ratePerKmForCar"`
	RatePerKmForBike  float64 `json:"ratePerKmForBike"`
	RatePerKmForTruck float64 `json:"ratePerKmForTruck"`
}

type LocationSample struct {
	ID        int64   `json:"id"`
	VehicleID int64   `json:"vehicleId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

type NewLocation struct {
	VehicleID int64   `json:"vehicleId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Wallet struct {
	WalletID       int64    `json:"walletId"`
	User           *UserRef `json:"user,omitempty"`
	Balance        float64  `json:"balance"`
	MinimumBalance float64  `json:"minimumBalance"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	LastUpdated    string   `json:"lastUpdated,omitempty"`
}

func (w Wallet) InDeficit() bool { return w.Balance < w.MinimumBalance }

// Deficit is how far the balance sits below the minimum, or 0.
func (w Wallet) Deficit() float64 {
	if !w.InDeficit() {
		return 0
	}
	return w.MinimumBalance - w.Balance
}

type Bill struct {
	BillID        int64      `json:"billId"`
	UserID        int64      `json:"userId"`
	BillMonth     string     `json:"billMonth"`
	TotalDistance float64    `json:"totalDistance"`
	TotalAmount   float64    `json:"totalAmount"`
	DueDate       string     `json:"dueDate"`
	Status        BillStatus `json:"status"`
	CreatedAt     string     `json:"createdAt,omitempty"`
}

type AdminStats struct {
	TotalVehicles      int64   `json:"totalVehicles"`
	TotalWallets       int64   `json:"totalWallets"`
	TotalBills         int64   `json:"totalBills"`
	TotalTollCollected float64 `json:"totalTollCollected"`
	WalletsInDeficit   int64   `json:"walletsInDeficit"`
}

type Anomaly struct {
	ID                int64        `json:"id"`
	VehicleID         int64        `json:"vehicleId"`
	AnomalyType       string       `json:"anomalyType"`
	Description       string       `json:"description"`
	Severity          string       `json:"severity"`
	DetectedAt        string       `json:"detectedAt"`
	ReviewStatus      ReviewStatus `json:"reviewStatus"`
	ReviewNotes       string       `json:"reviewNotes,omitempty"`
	ReviewedAt        string       `json:"reviewedAt,omitempty"`
	RelatedLocationID *int64       `json:"relatedLocationId,omitempty"`
}

type AnomalyReview struct {
	Notes  string       `json:"notes"`
	Status ReviewStatus `json:"status,omitempty"`
}

type IoTData struct {
	VehicleID int64   `json:"vehicleId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp,omitempty"`
}

type IoTDataResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	LocationID         int64  `json:"locationId,omitempty"`
	ProcessedTimestamp string `json:"processedTimestamp,omitempty"`
}

// LocalTimeLayout is the zone-less layout the backend uses for timestamps.
const LocalTimeLayout = "2006-01-02T15:04:05"

// ParseLocalTime parses a backend timestamp. Fractional seconds, RFC 3339
// and plain dates are accepted.
func ParseLocalTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{LocalTimeLayout, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatLocalTime renders t in the layout the backend accepts.
func FormatLocalTime(t time.Time) string {
	return t.Local().Format(LocalTimeLayout)
}
