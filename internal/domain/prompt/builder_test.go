package prompt

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/workout"
)

func TestMaxHeartRateAndReserve(t *testing.T) {
	tests := []struct {
		age     int
		resting int
		wantMax int
		wantHRR int
	}{
		{age: 30, resting: 60, wantMax: 187, wantHRR: 127},
		{age: 40, resting: 55, wantMax: 180, wantHRR: 125},
		{age: 20, resting: 70, wantMax: 194, wantHRR: 124},
	}
	for _, tc := range tests {
		maxHR := MaxHeartRate(tc.age)
		require.Equal(t, tc.wantMax, maxHR)
		require.Equal(t, tc.wantHRR, HeartRateReserve(maxHR, tc.resting))
	}
}

func TestBuild_IncludesTanakaAndReserve(t *testing.T) {
	for _, version := range Versions() {
		builder, err := NewBuilder(version)
		require.NoError(t, err)

		p, err := builder.Build(sampleActivity(), fakeSeries(7, 120), workout.UserProfile{Age: 30, RestingHeartRate: 60, WeightKg: 70})
		require.NoError(t, err)
		require.Equal(t, version, p.Version)
		require.Contains(t, p.Text, "187 bpm")
		require.Contains(t, p.Text, "127 bpm")
		require.Equal(t, 187, p.Metrics.MaxHeartRate)
		require.Equal(t, 127, p.Metrics.HeartRateReserve)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	builder, err := NewBuilder(DefaultVersion)
	require.NoError(t, err)
	profile := workout.UserProfile{Age: 41, RestingHeartRate: 52, WeightKg: 68.5}

	first, err := builder.Build(sampleActivity(), fakeSeries(11, 200), profile)
	require.NoError(t, err)
	second, err := builder.Build(sampleActivity(), fakeSeries(11, 200), profile)
	require.NoError(t, err)
	require.Equal(t, first.Text, second.Text)
}

func TestBuild_MarksUnavailableMetrics(t *testing.T) {
	builder, err := NewBuilder("coach-en-v1")
	require.NoError(t, err)

	activity := workout.Activity{Name: "Easy spin", Type: "Ride", MovingTime: 1800, Distance: 12000}
	samples := make([]workout.Sample, 10)
	for i := range samples {
		samples[i] = workout.Sample{Time: float64(i), Speed: workout.Float(0)}
	}

	p, err := builder.Build(activity, samples, workout.UserProfile{Age: 30, RestingHeartRate: 60})
	require.NoError(t, err)
	require.False(t, p.Metrics.AvgHeartRate.OK)
	require.False(t, p.Metrics.AvgSpeedKmh.OK)
	require.Contains(t, p.Text, "Heart rate: N/A (N/A)")
	require.Contains(t, p.Text, "Speed: N/A")
	require.Contains(t, p.Text, "Power: N/A (N/A)")
	require.Contains(t, p.Text, "Cadence: N/A")
	require.Contains(t, p.Text, "Weight: N/A")
	require.Contains(t, p.Text, "Max HR (this session): N/A")
	require.Contains(t, p.Text, "Insufficient data for decoupling analysis")
	require.Contains(t, p.Text, "Gear: no specific gear")
}

func TestCompute_PrefersSummaryAverages(t *testing.T) {
	activity := workout.Activity{
		AverageHeartRate: workout.Float(150.4),
		AverageSpeed:     workout.Float(5),
		AverageWatts:     workout.Float(210),
	}
	samples := []workout.Sample{
		{HeartRate: workout.Float(100), Speed: workout.Float(2), Watts: workout.Float(100), Cadence: workout.Float(80)},
		{HeartRate: workout.Float(0), Speed: workout.Float(4), Watts: workout.Float(0), Cadence: workout.Float(90)},
	}

	m := Compute(activity, samples, workout.UserProfile{Age: 30, RestingHeartRate: 60, WeightKg: 70})
	require.Equal(t, 150.0, m.AvgHeartRate.V)
	require.InDelta(t, 18.0, m.AvgSpeedKmh.V, 1e-9)
	require.Equal(t, 210.0, m.AvgWatts.V)
	require.InDelta(t, 3.0, m.WattsPerKg.V, 1e-9)
	require.Equal(t, 85.0, m.AvgCadence.V)
	require.InDelta(t, (150.0-60)/127*100, m.PercentHRR.V, 1e-9)
}

func TestCompute_SampleMeanSkipsZeros(t *testing.T) {
	samples := []workout.Sample{
		{HeartRate: workout.Float(140)},
		{HeartRate: workout.Float(0)},
		{},
		{HeartRate: workout.Float(150)},
	}
	m := Compute(workout.Activity{}, samples, workout.UserProfile{Age: 30, RestingHeartRate: 60})
	require.True(t, m.AvgHeartRate.OK)
	require.Equal(t, 145.0, m.AvgHeartRate.V)
}

func TestDecoupling(t *testing.T) {
	t.Run("too few samples", func(t *testing.T) {
		d := computeDecoupling(steadySeries(MinDecouplingSamples-1, 3, 3, 140, 140))
		require.False(t, d.Sufficient)
		require.False(t, d.SpeedChangePct.OK)
		require.False(t, d.HRDriftPct.OK)
	})

	t.Run("speed drop and drift", func(t *testing.T) {
		d := computeDecoupling(steadySeries(60, 3, 2.7, 140, 154))
		require.True(t, d.Sufficient)
		require.InDelta(t, -10.0, d.SpeedChangePct.V, 1e-9)
		require.InDelta(t, 10.0, d.HRDriftPct.V, 1e-9)
		require.InDelta(t, 10.8, d.SpeedFirstKmh.V, 1e-9)
	})

	t.Run("odd length splits at floor", func(t *testing.T) {
		samples := steadySeries(61, 3, 6, 140, 140)
		d := computeDecoupling(samples)
		require.InDelta(t, 100.0, d.SpeedChangePct.V, 1e-9)
	})

	t.Run("zero speed in first half", func(t *testing.T) {
		d := computeDecoupling(steadySeries(80, 0, 3, 140, 150))
		require.True(t, d.Sufficient)
		require.False(t, d.SpeedChangePct.OK)
		require.True(t, d.HRDriftPct.OK)
	})

	t.Run("second half without speed or heart rate", func(t *testing.T) {
		d := computeDecoupling(steadySeries(80, 3, 0, 140, 0))
		require.True(t, d.Sufficient)
		require.True(t, d.SpeedFirstKmh.OK)
		require.False(t, d.SpeedSecondKmh.OK)
		require.False(t, d.SpeedChangePct.OK)
		require.True(t, d.HRFirst.OK)
		require.False(t, d.HRSecond.OK)
		require.False(t, d.HRDriftPct.OK)
	})
}

func TestBuild_DecouplingInsufficientSpeed(t *testing.T) {
	builder, err := NewBuilder(DefaultVersion)
	require.NoError(t, err)

	p, err := builder.Build(sampleActivity(), steadySeries(80, 0, 3, 140, 150), workout.UserProfile{Age: 30, RestingHeartRate: 60})
	require.NoError(t, err)
	require.Contains(t, p.Text, "CHANGE SPEED: Data tidak cukup")
	require.Contains(t, p.Text, "CHANGE HR: 7.1% (Positif = Drift)")
}

func TestBuild_DecouplingMissingSecondHalf(t *testing.T) {
	builder, err := NewBuilder(DefaultVersion)
	require.NoError(t, err)

	p, err := builder.Build(sampleActivity(), steadySeries(80, 3, 0, 140, 150), workout.UserProfile{Age: 30, RestingHeartRate: 60})
	require.NoError(t, err)
	require.Contains(t, p.Text, "CHANGE SPEED: Data tidak cukup")
	require.NotContains(t, p.Text, "-100.0%")
}

func TestNewBuilder_UnknownVersion(t *testing.T) {
	_, err := NewBuilder("coach-xx-v0")
	require.Error(t, err)

	builder, err := NewBuilder("")
	require.NoError(t, err)
	require.Equal(t, DefaultVersion, builder.Version())
}

func TestFormatFloat(t *testing.T) {
	require.Equal(t, "0.0", formatFloat(-0.01, 1))
	require.Equal(t, "-1.5", formatFloat(-1.5, 1))
	require.Equal(t, "12.35", formatFloat(12.345001, 2))
}

func sampleActivity() workout.Activity {
	return workout.Activity{
		ID:             42,
		Name:           "Morning Ride",
		Type:           "Ride",
		SportType:      "MountainBikeRide",
		MovingTime:     5400,
		Distance:       42195,
		TotalElevation: 512,
		MaxHeartRate:   workout.Float(178),
		Gear:           &workout.Gear{Name: "Trek Marlin 7"},
	}
}

// steadySeries builds n samples whose halves carry constant speed and heart rate.
func steadySeries(n int, speed1, speed2, hr1, hr2 float64) []workout.Sample {
	out := make([]workout.Sample, n)
	mid := n / 2
	for i := range out {
		speed, hr := speed1, hr1
		if i >= mid {
			speed, hr = speed2, hr2
		}
		out[i] = workout.Sample{Time: float64(i), Speed: workout.Float(speed), HeartRate: workout.Float(hr)}
	}
	return out
}

func fakeSeries(seed int64, n int) []workout.Sample {
	faker := gofakeit.New(seed)
	out := make([]workout.Sample, n)
	var distance float64
	for i := range out {
		speed := faker.Float64Range(2.5, 9)
		distance += speed
		out[i] = workout.Sample{
			Time:      float64(i),
			Distance:  distance,
			HeartRate: workout.Float(faker.Float64Range(110, 175)),
			Speed:     workout.Float(speed),
			Altitude:  workout.Float(faker.Float64Range(10, 120)),
			Cadence:   workout.Float(faker.Float64Range(70, 95)),
			Watts:     workout.Float(faker.Float64Range(120, 260)),
		}
	}
	return out
}
