package strava

import (
	"time"

	"github.com/yanqian/workout-coach/internal/domain/workout"
)

type gear struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

type activityDetail struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	Distance           float64   `json:"distance"`
	MovingTime         int       `json:"moving_time"`
	ElapsedTime        int       `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	ElevHigh           *float64  `json:"elev_high"`
	ElevLow            *float64  `json:"elev_low"`
	AverageSpeed       *float64  `json:"average_speed"`
	MaxSpeed           *float64  `json:"max_speed"`
	AverageHeartrate   *float64  `json:"average_heartrate"`
	MaxHeartrate       *float64  `json:"max_heartrate"`
	AverageWatts       *float64  `json:"average_watts"`
	MaxWatts           *float64  `json:"max_watts"`
	AverageCadence     *float64  `json:"average_cadence"`
	Calories           *float64  `json:"calories"`
	SufferScore        *float64  `json:"suffer_score"`
	Gear               *gear     `json:"gear"`
}

func (d activityDetail) toActivity() workout.Activity {
	a := workout.Activity{
		ID:               d.ID,
		Name:             d.Name,
		Type:             d.Type,
		SportType:        d.SportType,
		StartDate:        d.StartDate,
		MovingTime:       d.MovingTime,
		ElapsedTime:      d.ElapsedTime,
		Distance:         d.Distance,
		TotalElevation:   d.TotalElevationGain,
		ElevationHigh:    d.ElevHigh,
		ElevationLow:     d.ElevLow,
		AverageHeartRate: d.AverageHeartrate,
		MaxHeartRate:     d.MaxHeartrate,
		AverageSpeed:     d.AverageSpeed,
		MaxSpeed:         d.MaxSpeed,
		AverageWatts:     d.AverageWatts,
		MaxWatts:         d.MaxWatts,
		AverageCadence:   d.AverageCadence,
		Calories:         d.Calories,
		SufferScore:      d.SufferScore,
	}
	if d.Gear != nil {
		a.Gear = &workout.Gear{ID: d.Gear.ID, Name: d.Gear.Name, Nickname: d.Gear.Nickname}
	}
	return a
}

type stream struct {
	Data []float64 `json:"data"`
}

// streamSet is the key_by_type=true response shape.
type streamSet struct {
	Time           *stream `json:"time"`
	Distance       *stream `json:"distance"`
	Heartrate      *stream `json:"heartrate"`
	VelocitySmooth *stream `json:"velocity_smooth"`
	Altitude       *stream `json:"altitude"`
	Cadence        *stream `json:"cadence"`
	Watts          *stream `json:"watts"`
}

func (s streamSet) toStreams() workout.Streams {
	return workout.Streams{
		Time:      data(s.Time),
		Distance:  data(s.Distance),
		HeartRate: data(s.Heartrate),
		Speed:     data(s.VelocitySmooth),
		Altitude:  data(s.Altitude),
		Cadence:   data(s.Cadence),
		Watts:     data(s.Watts),
	}
}

func data(s *stream) []float64 {
	if s == nil {
		return nil
	}
	return s.Data
}
