package workout

import (
	"errors"
	"time"
)

// Sample is a single point of a recorded activity stream.
type Sample struct {
	Time      float64  `json:"time"`
	Distance  float64  `json:"distance"`
	HeartRate *float64 `json:"heartRate,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Cadence   *float64 `json:"cadence,omitempty"`
	Watts     *float64 `json:"watts,omitempty"`
}

// Gear is the equipment attached to an activity.
type Gear struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// DisplayName prefers the nickname the athlete picked.
func (g *Gear) DisplayName() string {
	if g == nil {
		return ""
	}
	if g.Nickname != "" {
		return g.Nickname
	}
	return g.Name
}

// Activity is the summary of a recorded session. Optional metrics are nil when
// the source did not record them.
type Activity struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	SportType        string    `json:"sportType,omitempty"`
	StartDate        time.Time `json:"startDate"`
	MovingTime       int       `json:"movingTime"`
	ElapsedTime      int       `json:"elapsedTime"`
	Distance         float64   `json:"distance"`
	TotalElevation   float64   `json:"totalElevationGain"`
	ElevationHigh    *float64  `json:"elevHigh,omitempty"`
	ElevationLow     *float64  `json:"elevLow,omitempty"`
	AverageHeartRate *float64  `json:"averageHeartrate,omitempty"`
	MaxHeartRate     *float64  `json:"maxHeartrate,omitempty"`
	AverageSpeed     *float64  `json:"averageSpeed,omitempty"`
	MaxSpeed         *float64  `json:"maxSpeed,omitempty"`
	AverageWatts     *float64  `json:"averageWatts,omitempty"`
	MaxWatts         *float64  `json:"maxWatts,omitempty"`
	AverageCadence   *float64  `json:"averageCadence,omitempty"`
	Calories         *float64  `json:"calories,omitempty"`
	SufferScore      *float64  `json:"sufferScore,omitempty"`
	Gear             *Gear     `json:"gear,omitempty"`
}

// UserProfile carries the physiological inputs used for zone math.
type UserProfile struct {
	Age              int     `json:"age"`
	WeightKg         float64 `json:"weight"`
	HeightCm         float64 `json:"height"`
	RestingHeartRate int     `json:"restingHr"`
}

var (
	errInvalidAge       = errors.New("age must be between 1 and 120")
	errInvalidRestingHR = errors.New("resting heart rate must be between 20 and 150 bpm")
	errInvalidWeight    = errors.New("weight cannot be negative")
	errInvalidHeight    = errors.New("height cannot be negative")
)

// Validate checks the profile is usable for heart rate reserve calculations.
func (p UserProfile) Validate() error {
	if p.Age <= 0 || p.Age > 120 {
		return errInvalidAge
	}
	if p.RestingHeartRate < 20 || p.RestingHeartRate > 150 {
		return errInvalidRestingHR
	}
	if p.WeightKg < 0 {
		return errInvalidWeight
	}
	if p.HeightCm < 0 {
		return errInvalidHeight
	}
	return nil
}

// Float returns a pointer to v. Handy for optional metrics in literals.
func Float(v float64) *float64 {
	return &v
}
