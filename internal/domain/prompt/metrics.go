package prompt

import (
	"math"

	"github.com/yanqian/workout-coach/internal/domain/workout"
)

// MinDecouplingSamples is the shortest series the half split is computed on.
const MinDecouplingSamples = 60

// Value is a metric that may be unavailable.
type Value struct {
	V  float64
	OK bool
}

func available(v float64) Value {
	return Value{V: v, OK: true}
}

// Metrics are the derived numbers a prompt is rendered from.
type Metrics struct {
	MaxHeartRate     int
	HeartRateReserve int
	SessionMaxHR     Value

	AvgHeartRate Value
	PercentHRR   Value
	AvgSpeedKmh  Value
	AvgWatts     Value
	WattsPerKg   Value
	AvgCadence   Value

	DurationMin int
	DistanceKm  float64
	ElevationM  float64
	GearName    string

	Decoupling Decoupling
}

// Decoupling compares the first and second half of a session.
type Decoupling struct {
	Samples        int
	Sufficient     bool
	SpeedFirstKmh  Value
	SpeedSecondKmh Value
	HRFirst        Value
	HRSecond       Value
	SpeedChangePct Value
	HRDriftPct     Value
}

// MaxHeartRate estimates max HR with the Tanaka formula.
func MaxHeartRate(age int) int {
	return int(math.Round(208 - 0.7*float64(age)))
}

// HeartRateReserve is max HR minus resting HR.
func HeartRateReserve(maxHR, restingHR int) int {
	return maxHR - restingHR
}

// Compute derives every metric used in the prompt. It does no I/O.
func Compute(activity workout.Activity, samples []workout.Sample, profile workout.UserProfile) Metrics {
	maxHR := MaxHeartRate(profile.Age)
	m := Metrics{
		MaxHeartRate:     maxHR,
		HeartRateReserve: HeartRateReserve(maxHR, profile.RestingHeartRate),
		DurationMin:      activity.MovingTime / 60,
		DistanceKm:       activity.Distance / 1000,
		ElevationM:       activity.TotalElevation,
		GearName:         activity.Gear.DisplayName(),
	}
	if v, ok := positive(activity.MaxHeartRate); ok {
		m.SessionMaxHR = available(math.Round(v))
	}

	if v := aggregate(activity.AverageHeartRate, samples, heartRate); v.OK {
		m.AvgHeartRate = available(math.Round(v.V))
	}
	if v := aggregate(activity.AverageSpeed, samples, speed); v.OK {
		m.AvgSpeedKmh = available(v.V * 3.6)
	}
	if v := aggregate(activity.AverageWatts, samples, watts); v.OK {
		m.AvgWatts = available(math.Round(v.V))
	}
	if v := aggregate(activity.AverageCadence, samples, cadence); v.OK {
		m.AvgCadence = available(math.Round(v.V))
	}

	if m.AvgHeartRate.OK && m.HeartRateReserve > 0 {
		pct := (m.AvgHeartRate.V - float64(profile.RestingHeartRate)) / float64(m.HeartRateReserve) * 100
		m.PercentHRR = available(pct)
	}
	if m.AvgWatts.OK && profile.WeightKg > 0 {
		m.WattsPerKg = available(m.AvgWatts.V / profile.WeightKg)
	}

	m.Decoupling = computeDecoupling(samples)
	return m
}

func computeDecoupling(samples []workout.Sample) Decoupling {
	d := Decoupling{Samples: len(samples)}
	if len(samples) < MinDecouplingSamples {
		return d
	}
	d.Sufficient = true
	mid := len(samples) / 2
	first, second := samples[:mid], samples[mid:]

	s1, s2 := mean(first, speed), mean(second, speed)
	h1, h2 := mean(first, heartRate), mean(second, heartRate)

	if s1.OK {
		d.SpeedFirstKmh = available(s1.V * 3.6)
	}
	if s2.OK {
		d.SpeedSecondKmh = available(s2.V * 3.6)
	}
	// A change needs both halves; a missing half is not a drop to zero.
	if s1.OK && s2.OK {
		d.SpeedChangePct = available((s2.V - s1.V) / s1.V * 100)
	}
	if h1.OK {
		d.HRFirst = available(math.Round(h1.V))
	}
	if h2.OK {
		d.HRSecond = available(math.Round(h2.V))
	}
	if h1.OK && h2.OK {
		d.HRDriftPct = available((h2.V - h1.V) / h1.V * 100)
	}
	return d
}

type field func(workout.Sample) *float64

func heartRate(s workout.Sample) *float64 { return s.HeartRate }
func speed(s workout.Sample) *float64     { return s.Speed }
func watts(s workout.Sample) *float64     { return s.Watts }
func cadence(s workout.Sample) *float64   { return s.Cadence }

// aggregate prefers the recorded summary value and falls back to the sample mean.
func aggregate(summary *float64, samples []workout.Sample, f field) Value {
	if v, ok := positive(summary); ok {
		return available(v)
	}
	return mean(samples, f)
}

// mean averages the defined, non-zero values of one field.
func mean(samples []workout.Sample, f field) Value {
	var (
		sum   float64
		count int
	)
	for _, s := range samples {
		v, ok := positive(f(s))
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return Value{}
	}
	return available(sum / float64(count))
}

func positive(v *float64) (float64, bool) {
	if v == nil || *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
